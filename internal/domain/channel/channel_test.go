package channel

import (
	"testing"
	"time"

	"github.com/Huzai911/workspaced/internal/domain/suggestion"
	"github.com/Huzai911/workspaced/internal/domain/task"
)

func testChannel() Channel {
	return FromSuggestion(suggestion.ChannelSuggestion{
		Name:            "marketing",
		Folder:          "growth",
		Description:     "Paid and organic acquisition",
		AgentName:       "Sarah Chen",
		EstimatedBudget: 250,
		InitialTasks: []suggestion.InitialTask{
			{Title: "Write launch post", EstimatedPay: 20, EstimatedTime: "2h"},
			{Title: "Audit ad spend", EstimatedPay: 35, EstimatedTime: "4h"},
		},
	})
}

func TestFromSuggestion(t *testing.T) {
	ch := testChannel()

	if ch.BudgetAllocated != 250 || ch.BudgetSpent != 0 || ch.BudgetRemaining != 250 {
		t.Fatalf("budget triple = %v/%v/%v, want 250/0/250", ch.BudgetAllocated, ch.BudgetSpent, ch.BudgetRemaining)
	}
	if len(ch.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(ch.Tasks))
	}
	for _, tk := range ch.Tasks {
		if tk.Status != task.StatusOpen {
			t.Fatalf("initial task status = %q, want open", tk.Status)
		}
		if tk.ChannelID != ch.ID {
			t.Fatalf("initial task channelId = %q, want %q", tk.ChannelID, ch.ID)
		}
	}
	if ch.Agent.Name != "Sarah Chen" || !ch.Agent.IsActive {
		t.Fatalf("agent = %+v, want active Sarah Chen", ch.Agent)
	}
}

func TestClaim(t *testing.T) {
	ch := testChannel()
	id := ch.Tasks[0].ID

	if !ch.Claim(id, "alex") {
		t.Fatal("claim of open task returned false")
	}
	if ch.Tasks[0].Status != task.StatusClaimed || ch.Tasks[0].ClaimedBy != "alex" {
		t.Fatalf("task after claim = %+v", ch.Tasks[0])
	}

	// Already claimed and missing tasks are silent no-ops.
	if ch.Claim(id, "jordan") {
		t.Fatal("re-claim returned true")
	}
	if ch.Tasks[0].ClaimedBy != "alex" {
		t.Fatalf("claimant overwritten to %q", ch.Tasks[0].ClaimedBy)
	}
	if ch.Claim("nope", "alex") {
		t.Fatal("claim of missing task returned true")
	}
}

func TestAdvanceStatusChargesOnce(t *testing.T) {
	ch := testChannel()
	id := ch.Tasks[0].ID

	charged, found := ch.AdvanceStatus(id, task.StatusCompleted)
	if !found || charged != 20 {
		t.Fatalf("first completion charged=%v found=%v, want 20 true", charged, found)
	}
	if ch.BudgetSpent != 20 || ch.BudgetRemaining != 230 {
		t.Fatalf("budget after completion = spent %v remaining %v", ch.BudgetSpent, ch.BudgetRemaining)
	}
	if ch.Tasks[0].CompletedAt == nil {
		t.Fatal("CompletedAt not stamped")
	}

	charged, found = ch.AdvanceStatus(id, task.StatusCompleted)
	if !found || charged != 0 {
		t.Fatalf("re-completion charged=%v found=%v, want 0 true", charged, found)
	}
	if ch.BudgetSpent != 20 {
		t.Fatalf("spend after re-completion = %v, want 20", ch.BudgetSpent)
	}

	if _, found := ch.AdvanceStatus("nope", task.StatusCompleted); found {
		t.Fatal("missing task reported found")
	}
}

func TestAdvanceStatusAllowsAnySequence(t *testing.T) {
	ch := testChannel()
	id := ch.Tasks[1].ID

	for _, s := range []task.Status{task.StatusSubmitted, task.StatusOpen, task.StatusInProgress} {
		if _, found := ch.AdvanceStatus(id, s); !found {
			t.Fatalf("advance to %q reported not found", s)
		}
	}
	if ch.BudgetSpent != 0 {
		t.Fatalf("non-completing transitions charged spend %v", ch.BudgetSpent)
	}
}

func TestProposalLifecycle(t *testing.T) {
	ch := testChannel()
	ch.AddProposals([]task.Task{{
		ID: "p1", Title: "Draft newsletter", EstimatedPay: 15,
		Status: task.StatusProposed, IsProposed: true,
	}})

	if ch.BudgetSpent != 0 {
		t.Fatalf("proposal affected spend: %v", ch.BudgetSpent)
	}
	if !ch.ApproveProposal("p1") {
		t.Fatal("approve returned false")
	}
	if len(ch.ProposedTasks) != 0 {
		t.Fatalf("proposal still pending after approval")
	}
	got := ch.Task("p1")
	if got == nil || got.Status != task.StatusOpen || got.IsProposed {
		t.Fatalf("approved task = %+v, want open non-proposed", got)
	}
	if ch.BudgetSpent != 0 {
		t.Fatalf("approval charged spend %v", ch.BudgetSpent)
	}

	ch.AddProposals([]task.Task{{ID: "p2", Title: "Spam everyone", Status: task.StatusProposed}})
	if !ch.RejectProposal("p2") {
		t.Fatal("reject returned false")
	}
	if ch.Task("p2") != nil {
		t.Fatal("rejected proposal still reachable")
	}
	if ch.RejectProposal("p2") {
		t.Fatal("re-reject returned true")
	}
}

func TestUpdateTaskSearchesBothLists(t *testing.T) {
	ch := testChannel()
	ch.AddProposals([]task.Task{{ID: "p1", Title: "old", Status: task.StatusProposed}})

	title := "new title"
	pay := 42.0
	if !ch.UpdateTask(ch.Tasks[0].ID, task.Update{Title: &title, EstimatedPay: &pay}) {
		t.Fatal("update of open task returned false")
	}
	if ch.Tasks[0].Title != "new title" || ch.Tasks[0].EstimatedPay != 42 {
		t.Fatalf("open task after update = %+v", ch.Tasks[0])
	}
	if ch.Tasks[0].EstimatedTime != "2h" {
		t.Fatalf("nil update field overwrote estimatedTime to %q", ch.Tasks[0].EstimatedTime)
	}

	if !ch.UpdateTask("p1", task.Update{Title: &title}) {
		t.Fatal("update of proposed task returned false")
	}
	if ch.ProposedTasks[0].Title != "new title" {
		t.Fatalf("proposed task title = %q", ch.ProposedTasks[0].Title)
	}

	if ch.UpdateTask("nope", task.Update{Title: &title}) {
		t.Fatal("update of missing task returned true")
	}
}

func TestTaskCounts(t *testing.T) {
	ch := testChannel()
	ch.Claim(ch.Tasks[0].ID, "alex")

	if got := ch.OpenTaskCount(); got != 1 {
		t.Fatalf("open count = %d, want 1", got)
	}
	if got := ch.ActiveTaskCount(); got != 1 {
		t.Fatalf("active count = %d, want 1", got)
	}
}

func TestNormalize(t *testing.T) {
	done := time.Now().UTC()
	ch := Channel{
		ID:              "ch1",
		BudgetAllocated: 100,
		BudgetSpent:     -5,
		BudgetRemaining: 999,
		Tasks:           []task.Task{{ID: "t1", Status: task.StatusCompleted, CompletedAt: &done}},
		ProposedTasks:   []task.Task{{ID: "p1"}},
	}
	ch.Normalize()

	if ch.BudgetSpent != 0 || ch.BudgetRemaining != 100 {
		t.Fatalf("budget after normalize = spent %v remaining %v", ch.BudgetSpent, ch.BudgetRemaining)
	}
	if ch.ChatHistory == nil {
		t.Fatal("nil chat history not repaired")
	}
	if ch.Tasks[0].ChannelID != "ch1" {
		t.Fatalf("task channelId = %q, want ch1", ch.Tasks[0].ChannelID)
	}
	if !ch.ProposedTasks[0].IsProposed {
		t.Fatal("proposed flag not restored")
	}
}

func TestNormalizeResetsProposalStatus(t *testing.T) {
	ch := Channel{
		ID:            "ch1",
		ProposedTasks: []task.Task{{ID: "p1", Status: task.StatusCompleted}},
	}
	ch.Normalize()

	if got := ch.ProposedTasks[0].Status; got != task.StatusProposed {
		t.Fatalf("proposal status after normalize = %q, want proposed", got)
	}
	if ch.BudgetSpent != 0 {
		t.Fatalf("normalize charged spend %v", ch.BudgetSpent)
	}
}
