package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "workspaced"

// Metrics holds all workspace metric instruments.
type Metrics struct {
	TasksCompleted  metric.Int64Counter
	TasksClaimed    metric.Int64Counter
	ProposalsAdded  metric.Int64Counter
	BoostsPurchased metric.Int64Counter
	BoostsCompleted metric.Int64Counter
	LLMTokens       metric.Int64Counter
	LLMCost         metric.Float64Histogram
	TaskSpend       metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TasksCompleted, err = meter.Int64Counter("workspace.tasks.completed",
		metric.WithDescription("Number of tasks completed"))
	if err != nil {
		return nil, err
	}

	m.TasksClaimed, err = meter.Int64Counter("workspace.tasks.claimed",
		metric.WithDescription("Number of tasks claimed"))
	if err != nil {
		return nil, err
	}

	m.ProposalsAdded, err = meter.Int64Counter("workspace.proposals.added",
		metric.WithDescription("Number of task proposals added"))
	if err != nil {
		return nil, err
	}

	m.BoostsPurchased, err = meter.Int64Counter("workspace.boosts.purchased",
		metric.WithDescription("Number of agent boosts purchased"))
	if err != nil {
		return nil, err
	}

	m.BoostsCompleted, err = meter.Int64Counter("workspace.boosts.completed",
		metric.WithDescription("Number of agent boosts completed"))
	if err != nil {
		return nil, err
	}

	m.LLMTokens, err = meter.Int64Counter("workspace.llm.tokens",
		metric.WithDescription("Raw LLM tokens consumed"))
	if err != nil {
		return nil, err
	}

	m.LLMCost, err = meter.Float64Histogram("workspace.llm.cost_usd",
		metric.WithDescription("Per-call LLM cost in USD"))
	if err != nil {
		return nil, err
	}

	m.TaskSpend, err = meter.Float64Histogram("workspace.task.spend_usd",
		metric.WithDescription("Budget spend per completed task in USD"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
