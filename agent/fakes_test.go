package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"app/apperr"
	"app/models"
)

// fakeSuggestionStore keeps suggestions in memory and enforces the same
// single-live-row rule the database index does.
type fakeSuggestionStore struct {
	mu          sync.Mutex
	suggestions map[string]*models.Suggestion
	nextID      int
	recordErr   error
}

func newFakeSuggestionStore() *fakeSuggestionStore {
	return &fakeSuggestionStore{suggestions: make(map[string]*models.Suggestion)}
}

func (f *fakeSuggestionStore) Record(ctx context.Context, userID string, params models.ReorderParameters, proposals []models.Proposal) (models.RecordSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return models.RecordSummary{}, f.recordErr
	}

	var summary models.RecordSummary
	for _, p := range proposals {
		if f.liveExists(userID, p.ProductID) {
			summary.Skipped++
			continue
		}
		f.nextID++
		id := fmt.Sprintf("sug-%d", f.nextID)
		f.suggestions[id] = &models.Suggestion{
			ID:           id,
			UserID:       userID,
			ProductID:    p.ProductID,
			SuggestedQty: p.SuggestedQty,
			Reason:       p.Reason,
			LeadTimeDays: params.LeadTimeDays,
			SafetyFactor: params.SafetyFactor,
			Status:       models.SuggestionStatusSuggested,
		}
		summary.Created++
		summary.SuggestionIDs = append(summary.SuggestionIDs, id)
	}
	return summary, nil
}

func (f *fakeSuggestionStore) liveExists(userID, productID string) bool {
	for _, s := range f.suggestions {
		if s.UserID == userID && s.ProductID == productID && s.Status == models.SuggestionStatusSuggested {
			return true
		}
	}
	return false
}

func (f *fakeSuggestionStore) Get(ctx context.Context, userID, id string) (*models.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.suggestions[id]
	if !ok || s.UserID != userID {
		return nil, apperr.NotFoundError("suggestion not found")
	}
	out := *s
	return &out, nil
}

func (f *fakeSuggestionStore) Transition(ctx context.Context, userID, id, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.suggestions[id]
	if !ok || s.UserID != userID {
		return false, apperr.NotFoundError("suggestion not found")
	}
	if s.Status != from {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (f *fakeSuggestionStore) LiveIDs(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0)
	for id, s := range f.suggestions {
		if s.UserID == userID && s.Status == models.SuggestionStatusSuggested {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeSuggestionStore) liveCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.suggestions {
		if s.UserID == userID && s.Status == models.SuggestionStatusSuggested {
			n++
		}
	}
	return n
}

type fakeOrderCreator struct {
	mu      sync.Mutex
	created []string
	err     error
}

func (f *fakeOrderCreator) CreateFromSuggestion(ctx context.Context, s *models.Suggestion) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	id := fmt.Sprintf("order-for-%s", s.ID)
	f.created = append(f.created, id)
	return id, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.AgentLogEntry
}

func (f *fakeAudit) Append(ctx context.Context, agentName, eventType string, payload models.JSONB) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, models.AgentLogEntry{AgentName: agentName, EventType: eventType, Payload: payload})
	return nil
}

func (f *fakeAudit) countByType(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

type fakeInventory struct {
	levels map[string]map[string]int
	err    error
}

func (f *fakeInventory) StockLevels(ctx context.Context, userID string) (map[string]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.levels[userID], nil
}

type fakeUsers struct {
	ids []string
	err error
}

func (f *fakeUsers) UserIDsWithOrders(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

// multiUserHistory serves distinct line sets per user, with optional per-user
// failures and an optional per-call delay to exercise timeouts.
type multiUserHistory struct {
	lines map[string][]models.OrderLine
	fail  map[string]error
	delay time.Duration
}

func (m *multiUserHistory) OrderLinesSince(ctx context.Context, userID string, since time.Time) ([]models.OrderLine, error) {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if err := m.fail[userID]; err != nil {
		return nil, err
	}
	return m.lines[userID], nil
}

func (m *multiUserHistory) OrderLines(ctx context.Context, userID string) ([]models.OrderLine, error) {
	return m.OrderLinesSince(ctx, userID, time.Time{})
}
