package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Huzai911/workspaced/internal/domain"
	"github.com/Huzai911/workspaced/internal/domain/boost"
	"github.com/Huzai911/workspaced/internal/domain/task"
	"github.com/Huzai911/workspaced/internal/port/llm"
)

func newTestBoost(store *mockStore, client *mockLLM, provider *mockPayments) (*BoostService, *mockQueue, *mockBroadcaster) {
	ws, q, b := newTestWorkspace(store)
	svc := NewBoostService(client, provider, ws, NewUsageService(nil), BoostConfig{
		Model:      "openai/gpt-4o-mini",
		CostUSD:    0.99,
		MaxTargets: 5,
		MaxRounds:  3,
	})
	return svc, q, b
}

func TestBoostService_SuggestTargets(t *testing.T) {
	store := newMockStore(newTestOrg())
	client := &mockLLM{responses: []llm.ChatCompletionResponse{
		{Content: `[{"channelId": "ch-content", "reasoning": "Content can amplify campaigns", "priority": 1}, {"channelId": "ghost-channel", "reasoning": "x", "priority": 2}]`},
	}}
	svc, _, _ := newTestBoost(store, client, &mockPayments{})

	targets, err := svc.SuggestTargets(context.Background(), "org-1", "ch-marketing", "", nil)
	if err != nil {
		t.Fatalf("SuggestTargets: %v", err)
	}
	// Suggestions naming unknown channels are dropped.
	if len(targets) != 1 || targets[0].ChannelID != "ch-content" {
		t.Errorf("unexpected targets: %+v", targets)
	}
}

func TestBoostService_SuggestTargets_FallbackRanking(t *testing.T) {
	store := newMockStore(newTestOrg())
	svc, _, _ := newTestBoost(store, &mockLLM{err: errors.New("unavailable")}, &mockPayments{})

	targets, err := svc.SuggestTargets(context.Background(), "org-1", "ch-marketing", "", nil)
	if err != nil {
		t.Fatalf("model failure must degrade to fallback: %v", err)
	}
	if len(targets) != 1 || targets[0].ChannelID != "ch-content" || targets[0].Priority != 1 {
		t.Errorf("unexpected fallback targets: %+v", targets)
	}
}

func TestBoostService_Purchase(t *testing.T) {
	store := newMockStore(newTestOrg())
	provider := &mockPayments{}
	svc, q, _ := newTestBoost(store, &mockLLM{}, provider)

	res, err := svc.Purchase(context.Background(), boost.PurchaseRequest{
		OrganizationID: "org-1",
		ChannelID:      "ch-marketing",
		TargetChannels: []string{"ch-content"},
		Prompt:         "align campaigns with content calendar",
	})
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if !res.Success || res.BoostID == "" || res.PaymentURL == "" {
		t.Fatalf("unexpected response: %+v", res)
	}

	b, err := store.GetBoost(context.Background(), res.BoostID)
	if err != nil {
		t.Fatalf("boost not persisted: %v", err)
	}
	if b.Status != boost.StatusPending {
		t.Errorf("status = %s, want pending", b.Status)
	}
	if b.CostUSD != 0.99 {
		t.Errorf("cost = %v, want 0.99", b.CostUSD)
	}
	if len(q.published) != 1 {
		t.Errorf("expected purchased event, got %d messages", len(q.published))
	}
}

func TestBoostService_Purchase_Validation(t *testing.T) {
	store := newMockStore(newTestOrg())
	svc, _, _ := newTestBoost(store, &mockLLM{}, &mockPayments{})
	ctx := context.Background()

	if _, err := svc.Purchase(ctx, boost.PurchaseRequest{OrganizationID: "org-1", ChannelID: "ch-marketing"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for no targets, got %v", err)
	}
	req := boost.PurchaseRequest{
		OrganizationID: "org-1",
		ChannelID:      "ch-marketing",
		TargetChannels: []string{"a", "b", "c", "d", "e", "f"},
	}
	if _, err := svc.Purchase(ctx, req); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for too many targets, got %v", err)
	}
	req.TargetChannels = []string{"no-such-channel"}
	if _, err := svc.Purchase(ctx, req); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown target, got %v", err)
	}
}

func TestBoostService_Purchase_CheckoutFailure(t *testing.T) {
	store := newMockStore(newTestOrg())
	provider := &mockPayments{checkoutErr: errors.New("card declined")}
	svc, _, _ := newTestBoost(store, &mockLLM{}, provider)

	res, err := svc.Purchase(context.Background(), boost.PurchaseRequest{
		OrganizationID: "org-1",
		ChannelID:      "ch-marketing",
		TargetChannels: []string{"ch-content"},
	})
	if err != nil {
		t.Fatalf("checkout failure is reported in the response, not an error: %v", err)
	}
	if res.Success || res.Error == "" {
		t.Errorf("expected failed response, got %+v", res)
	}
	// The pending record is persisted before checkout and marked failed
	// afterwards, so nothing is left waiting for a payment.
	if len(store.boosts) != 1 {
		t.Fatalf("expected 1 persisted boost, got %d", len(store.boosts))
	}
	for _, b := range store.boosts {
		if b.Status != boost.StatusFailed {
			t.Errorf("boost status = %s, want failed", b.Status)
		}
		if _, err := svc.Confirm(context.Background(), b.ID, "sess"); !errors.Is(err, domain.ErrConflict) {
			t.Errorf("confirm of failed boost must conflict, got %v", err)
		}
	}
}

func TestBoostService_Purchase_SaveFailureSkipsCheckout(t *testing.T) {
	store := newMockStore(newTestOrg())
	store.boostSaveErr = errors.New("db down")
	provider := &mockPayments{}
	svc, _, _ := newTestBoost(store, &mockLLM{}, provider)

	_, err := svc.Purchase(context.Background(), boost.PurchaseRequest{
		OrganizationID: "org-1",
		ChannelID:      "ch-marketing",
		TargetChannels: []string{"ch-content"},
	})
	if err == nil {
		t.Fatal("expected error when the boost cannot be persisted")
	}
	// No checkout session may reference a boost that was never stored.
	if len(provider.sessions) != 0 {
		t.Errorf("checkout created for unpersisted boost: %v", provider.sessions)
	}
}

func TestBoostService_Confirm(t *testing.T) {
	store := newMockStore(newTestOrg())
	client := &mockLLM{responses: []llm.ChatCompletionResponse{
		{Content: "Hi ContentBot! Campaigns are converging on Q3 themes.", PromptTokens: 200, CompletionTokens: 50},
		{Content: "Great timing, our calendar has gaps in weeks 3 and 4.", PromptTokens: 200, CompletionTokens: 50},
		{Content: `["Which themes performed best?", "Any freelancers you trust?", "Want a shared brief?"]`},
		{Content: `[{"title": "Draft Q3 campaign briefs", "description": "Brief per theme", "estimatedPay": 25, "estimatedTime": "3 hours"}]`},
	}}
	provider := &mockPayments{paid: true}
	svc, q, _ := newTestBoost(store, client, provider)
	ctx := context.Background()

	res, err := svc.Purchase(ctx, boost.PurchaseRequest{
		OrganizationID: "org-1",
		ChannelID:      "ch-marketing",
		TargetChannels: []string{"ch-content"},
		Prompt:         "sync on Q3",
	})
	if err != nil {
		t.Fatal(err)
	}

	b, err := svc.Confirm(ctx, res.BoostID, "sess-"+res.BoostID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if b.Status != boost.StatusCompleted {
		t.Errorf("status = %s, want completed", b.Status)
	}
	if b.CompletedAt == nil {
		t.Error("expected CompletedAt to be stamped")
	}
	if len(b.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(b.Conversations))
	}
	conv := b.Conversations[0]
	// opening + reply + 3 follow-ups
	if len(conv.Messages) != 5 {
		t.Errorf("expected 5 messages, got %d", len(conv.Messages))
	}
	if len(b.GeneratedTasks) != 1 {
		t.Fatalf("expected 1 generated task, got %d", len(b.GeneratedTasks))
	}

	// Generated tasks land as proposals, never as spend.
	org, _ := store.GetOrganization(ctx, "org-1")
	ch := org.Channel("ch-content")
	if len(ch.ProposedTasks) != 1 {
		t.Fatalf("expected 1 proposal in target channel, got %d", len(ch.ProposedTasks))
	}
	if got := ch.ProposedTasks[0]; got.Status != task.StatusProposed || !got.IsProposed {
		t.Errorf("generated task must enter approval gate: %+v", got)
	}
	if org.TotalSpent != 45 {
		t.Errorf("boost must never affect task budget, TotalSpent = %v", org.TotalSpent)
	}

	var sawCompleted bool
	for _, subj := range q.subjects() {
		if subj == "workspace.boosts.completed" {
			sawCompleted = true
		}
	}
	if !sawCompleted {
		t.Error("expected boosts.completed event")
	}
}

func TestBoostService_Confirm_UnpaidStaysPending(t *testing.T) {
	store := newMockStore(newTestOrg())
	provider := &mockPayments{paid: false}
	svc, _, _ := newTestBoost(store, &mockLLM{}, provider)
	ctx := context.Background()

	res, err := svc.Purchase(ctx, boost.PurchaseRequest{
		OrganizationID: "org-1",
		ChannelID:      "ch-marketing",
		TargetChannels: []string{"ch-content"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Confirm(ctx, res.BoostID, "sess"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for unpaid boost, got %v", err)
	}

	b, _ := store.GetBoost(ctx, res.BoostID)
	if b.Status != boost.StatusPending {
		t.Errorf("unpaid boost must stay pending, got %s", b.Status)
	}
	if len(b.Conversations) != 0 {
		t.Error("unpaid boost must not generate conversations")
	}
}

func TestBoostService_Confirm_AlreadyCompleted(t *testing.T) {
	store := newMockStore(newTestOrg())
	provider := &mockPayments{paid: true}
	svc, _, _ := newTestBoost(store, &mockLLM{}, provider)
	ctx := context.Background()

	res, _ := svc.Purchase(ctx, boost.PurchaseRequest{
		OrganizationID: "org-1",
		ChannelID:      "ch-marketing",
		TargetChannels: []string{"ch-content"},
	})
	if _, err := svc.Confirm(ctx, res.BoostID, "sess"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Confirm(ctx, res.BoostID, "sess"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("re-confirm must conflict, got %v", err)
	}
}

func TestBoostService_Confirm_LLMFailureStillCompletes(t *testing.T) {
	store := newMockStore(newTestOrg())
	provider := &mockPayments{paid: true}
	svc, _, _ := newTestBoost(store, &mockLLM{err: errors.New("unavailable")}, provider)
	ctx := context.Background()

	res, _ := svc.Purchase(ctx, boost.PurchaseRequest{
		OrganizationID: "org-1",
		ChannelID:      "ch-marketing",
		TargetChannels: []string{"ch-content"},
		Prompt:         "sync on Q3",
	})

	b, err := svc.Confirm(ctx, res.BoostID, "sess")
	if err != nil {
		t.Fatalf("paid boost must complete with fallback messages: %v", err)
	}
	if b.Status != boost.StatusCompleted {
		t.Errorf("status = %s, want completed", b.Status)
	}
	if len(b.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(b.Conversations))
	}
	// Canned opening, reply, and 3 fallback questions.
	if got := len(b.Conversations[0].Messages); got != 5 {
		t.Errorf("expected 5 fallback messages, got %d", got)
	}
	if len(b.GeneratedTasks) != 0 {
		t.Errorf("failed task generation must yield no proposals, got %d", len(b.GeneratedTasks))
	}
}
