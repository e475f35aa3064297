// Package agent implements the reorder suggestion engine: consumption
// aggregation, the decision algorithm, run orchestration, and the suggestion
// lifecycle state machine. All persistence goes through the interfaces below
// so the core stays testable without a database.
package agent

import (
	"context"
	"errors"
	"time"

	"app/models"
)

// ErrWindowUnsupported is returned by an OrderHistoryReader whose backend
// cannot filter by order creation time. The aggregator then falls back to the
// full history.
var ErrWindowUnsupported = errors.New("history window not supported by backend")

// OrderHistoryReader reads historical order lines for one user.
type OrderHistoryReader interface {
	// OrderLinesSince returns lines whose parent order was created at or
	// after since. May return ErrWindowUnsupported.
	OrderLinesSince(ctx context.Context, userID string, since time.Time) ([]models.OrderLine, error)
	// OrderLines returns all available lines for the user.
	OrderLines(ctx context.Context, userID string) ([]models.OrderLine, error)
}

// InventoryReader reads current stock per product. Products without a row are
// simply absent from the map; callers treat that as zero on hand.
type InventoryReader interface {
	StockLevels(ctx context.Context, userID string) (map[string]int, error)
}

// SuggestionRecorder persists engine proposals idempotently: a proposal for a
// (user, product) pair that already has a live suggestion is skipped, not
// duplicated.
type SuggestionRecorder interface {
	Record(ctx context.Context, userID string, params models.ReorderParameters, proposals []models.Proposal) (models.RecordSummary, error)
}

// SuggestionStore is the lifecycle controller's view of persisted
// suggestions. Every read and transition is scoped to the owning user, so a
// suggestion belonging to another user reads as not found. Transition is a
// compare-and-swap: it applies only when the current status equals from, and
// reports whether it did.
type SuggestionStore interface {
	Get(ctx context.Context, userID, id string) (*models.Suggestion, error)
	Transition(ctx context.Context, userID, id, from, to string) (bool, error)
	LiveIDs(ctx context.Context, userID string) ([]string, error)
}

// OrderCreator turns a confirmed suggestion into a pending order and returns
// the new order id.
type OrderCreator interface {
	CreateFromSuggestion(ctx context.Context, s *models.Suggestion) (string, error)
}

// UserLister enumerates users in scope for an all-users run.
type UserLister interface {
	UserIDsWithOrders(ctx context.Context) ([]string, error)
}

// AuditWriter appends to the agent log. Append failures never fail the
// operation being audited; callers degrade them to warnings.
type AuditWriter interface {
	Append(ctx context.Context, agentName, eventType string, payload models.JSONB) error
}
