package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Huzai911/workspaced/internal/domain"
	"github.com/Huzai911/workspaced/internal/domain/boost"
	"github.com/Huzai911/workspaced/internal/domain/channel"
	"github.com/Huzai911/workspaced/internal/domain/chat"
	"github.com/Huzai911/workspaced/internal/domain/organization"
	"github.com/Huzai911/workspaced/internal/domain/task"
	"github.com/Huzai911/workspaced/internal/port/llm"
	"github.com/Huzai911/workspaced/internal/port/messagequeue"
	"github.com/Huzai911/workspaced/internal/port/payments"
)

// mockStore implements database.Store in memory for testing.
type mockStore struct {
	orgs      map[string]*organization.Organization
	boosts    map[string]*boost.Boost
	currentID    string
	saveErr      error
	boostSaveErr error
	saves        int
}

func newMockStore(orgs ...*organization.Organization) *mockStore {
	s := &mockStore{
		orgs:   make(map[string]*organization.Organization),
		boosts: make(map[string]*boost.Boost),
	}
	for _, o := range orgs {
		s.orgs[o.ID] = o
	}
	return s
}

func (s *mockStore) SaveOrganization(_ context.Context, org *organization.Organization) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.orgs[org.ID] = deepCopyOrg(org)
	s.currentID = org.ID
	return nil
}

func (s *mockStore) GetOrganization(_ context.Context, id string) (*organization.Organization, error) {
	org, ok := s.orgs[id]
	if !ok {
		return nil, fmt.Errorf("%w: organization %s", domain.ErrNotFound, id)
	}
	return deepCopyOrg(org), nil
}

// deepCopyOrg round-trips through JSON so callers cannot mutate stored state
// without an explicit save, matching the real store's behavior.
func deepCopyOrg(org *organization.Organization) *organization.Organization {
	data, err := json.Marshal(org)
	if err != nil {
		panic(err)
	}
	var clone organization.Organization
	if err := json.Unmarshal(data, &clone); err != nil {
		panic(err)
	}
	return &clone
}

func (s *mockStore) ListOrganizations(_ context.Context) ([]organization.Organization, error) {
	out := make([]organization.Organization, 0, len(s.orgs))
	for _, o := range s.orgs {
		out = append(out, *o)
	}
	return out, nil
}

func (s *mockStore) DeleteOrganization(_ context.Context, id string) error {
	delete(s.orgs, id)
	if s.currentID == id {
		s.currentID = ""
	}
	return nil
}

func (s *mockStore) CurrentOrganizationID(_ context.Context) (string, error) {
	return s.currentID, nil
}

func (s *mockStore) SetCurrentOrganization(_ context.Context, id string) error {
	if _, ok := s.orgs[id]; !ok {
		return fmt.Errorf("%w: organization %s", domain.ErrNotFound, id)
	}
	s.currentID = id
	return nil
}

func (s *mockStore) SaveBoost(_ context.Context, b *boost.Boost) error {
	if s.boostSaveErr != nil {
		return s.boostSaveErr
	}
	clone := *b
	s.boosts[b.ID] = &clone
	return nil
}

func (s *mockStore) GetBoost(_ context.Context, id string) (*boost.Boost, error) {
	b, ok := s.boosts[id]
	if !ok {
		return nil, fmt.Errorf("%w: boost %s", domain.ErrNotFound, id)
	}
	clone := *b
	return &clone, nil
}

func (s *mockStore) ListBoosts(_ context.Context, orgID string) ([]boost.Boost, error) {
	var out []boost.Boost
	for _, b := range s.boosts {
		if b.OrganizationID == orgID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// mockQueue records published messages.
type mockQueue struct {
	published []publishedMsg
}

type publishedMsg struct {
	subject string
	data    []byte
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.published = append(q.published, publishedMsg{subject: subject, data: data})
	return nil
}

func (q *mockQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Drain() error      { return nil }
func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

func (q *mockQueue) subjects() []string {
	out := make([]string, 0, len(q.published))
	for _, p := range q.published {
		out = append(out, p.subject)
	}
	return out
}

// mockLLM replays canned responses in order. Safe for concurrent use since
// boost conversations fan out across goroutines.
type mockLLM struct {
	mu        sync.Mutex
	responses []llm.ChatCompletionResponse
	err       error
	calls     []llm.ChatCompletionRequest
}

func (m *mockLLM) ChatCompletion(_ context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &llm.ChatCompletionResponse{Content: "{}", Model: req.Model}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.Model == "" {
		resp.Model = req.Model
	}
	return &resp, nil
}

// mockPayments implements payments.Provider.
type mockPayments struct {
	checkoutErr error
	paid        bool
	confirmErr  error
	sessions    []string
}

func (m *mockPayments) CreateBoostCheckout(_ context.Context, boostID string, _ float64) (*payments.CheckoutSession, error) {
	if m.checkoutErr != nil {
		return nil, m.checkoutErr
	}
	m.sessions = append(m.sessions, boostID)
	return &payments.CheckoutSession{SessionID: "sess-" + boostID, URL: "/payment/boost/" + boostID}, nil
}

func (m *mockPayments) ConfirmPayment(context.Context, string) (bool, error) {
	if m.confirmErr != nil {
		return false, m.confirmErr
	}
	return m.paid, nil
}

// mockBroadcaster records broadcast event types.
type mockBroadcaster struct {
	events []string
}

func (b *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, _ any) {
	b.events = append(b.events, eventType)
}

// newTestOrg builds an organization with one marketing and one content
// channel and a known open task.
func newTestOrg() *organization.Organization {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return &organization.Organization{
		ID:             "org-1",
		Name:           "Acme",
		OwnerID:        "user-1",
		MonthlyBudget:  1000,
		TotalSpent:     45,
		TotalRemaining: 955,
		CreatedAt:      now,
		LastAccessed:   now,
		Channels: []channel.Channel{
			{
				ID:          "ch-marketing",
				Name:        "marketing",
				Folder:      "Growth",
				Description: "Marketing campaigns and analysis",
				Agent: channel.Agent{
					ID:          "agent-1",
					Name:        "MarketingBot",
					Personality: "Strategic and data-driven",
					Role:        "Marketing Specialist",
					IsActive:    true,
				},
				Tasks: []task.Task{
					{
						ID:           "task-1",
						ChannelID:    "ch-marketing",
						Title:        "Competitor analysis",
						EstimatedPay: 20,
						Status:       task.StatusOpen,
						CreatedAt:    now,
					},
				},
				ProposedTasks:   []task.Task{},
				ChatHistory:     []chat.Message{},
				BudgetAllocated: 300,
				BudgetSpent:     45,
				BudgetRemaining: 255,
			},
			{
				ID:          "ch-content",
				Name:        "content",
				Folder:      "Growth",
				Description: "Content production",
				Agent: channel.Agent{
					ID:          "agent-2",
					Name:        "ContentBot",
					Personality: "Creative",
					Role:        "Content Writer",
					IsActive:    true,
				},
				Tasks:           []task.Task{},
				ProposedTasks:   []task.Task{},
				ChatHistory:     []chat.Message{},
				BudgetAllocated: 200,
				BudgetSpent:     0,
				BudgetRemaining: 200,
			},
		},
	}
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
