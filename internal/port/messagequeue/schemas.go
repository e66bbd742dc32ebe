package messagequeue

// TaskCompletedPayload is the schema for workspace.tasks.completed messages.
type TaskCompletedPayload struct {
	OrganizationID string  `json:"organization_id"`
	ChannelID      string  `json:"channel_id"`
	TaskID         string  `json:"task_id"`
	EstimatedPay   float64 `json:"estimated_pay"`
	ChannelSpent   float64 `json:"channel_spent"`
	TotalSpent     float64 `json:"total_spent"`
}

// TaskClaimedPayload is the schema for workspace.tasks.claimed messages.
type TaskClaimedPayload struct {
	OrganizationID string `json:"organization_id"`
	ChannelID      string `json:"channel_id"`
	TaskID         string `json:"task_id"`
	ClaimedBy      string `json:"claimed_by"`
}

// ProposalsAddedPayload is the schema for workspace.proposals.added messages.
type ProposalsAddedPayload struct {
	OrganizationID string `json:"organization_id"`
	ChannelID      string `json:"channel_id"`
	Count          int    `json:"count"`
	Source         string `json:"source"` // "chat", "boost"
}

// BudgetChangedPayload is the schema for workspace.budget.changed messages.
type BudgetChangedPayload struct {
	OrganizationID string  `json:"organization_id"`
	ChannelID      string  `json:"channel_id,omitempty"` // empty for monthly budget edits
	Allocated      float64 `json:"allocated"`
	Remaining      float64 `json:"remaining"`
}

// BoostLifecyclePayload is the schema for workspace.boosts.* messages.
type BoostLifecyclePayload struct {
	OrganizationID string  `json:"organization_id"`
	BoostID        string  `json:"boost_id"`
	ChannelID      string  `json:"channel_id"`
	Status         string  `json:"status"`
	CostUSD        float64 `json:"cost_usd"`
	GeneratedTasks int     `json:"generated_tasks,omitempty"`
}
