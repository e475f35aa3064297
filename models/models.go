package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// --- Custom JSON Type for database/sql ---

// JSONB allows storing JSON data in a PostgreSQL jsonb column.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, &j)
}

// --- JWT & Auth ---

type JwtClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// --- Suggestion lifecycle ---

// Suggestion statuses. "suggested" is the only live state; the other two are
// terminal.
const (
	SuggestionStatusSuggested = "suggested"
	SuggestionStatusConfirmed = "confirmed"
	SuggestionStatusDismissed = "dismissed"
)

// Suggestion is a system-generated recommendation to reorder a quantity of a
// product for a user. At most one live (status = suggested) row exists per
// (user, product) pair; the database enforces this with a partial unique index.
type Suggestion struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ProductID    string    `json:"product_id"`
	SuggestedQty int       `json:"suggested_qty"`
	Reason       string    `json:"reason"`
	LeadTimeDays int       `json:"lead_time_days"`
	SafetyFactor float64   `json:"safety_factor"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	// Urgency is derived at read time from live stock, never stored.
	Urgency string `json:"urgency,omitempty"`
}

// UrgencyFor classifies how far current stock falls below the suggested
// reorder quantity.
func UrgencyFor(suggestedQty, onHand int) string {
	switch {
	case onHand <= 0:
		return "high"
	case suggestedQty >= 2*onHand:
		return "high"
	case suggestedQty >= onHand:
		return "medium"
	default:
		return "low"
	}
}

// --- Orders ---

const (
	OrderStatusDraft     = "Draft"
	OrderStatusPending   = "Pending"
	OrderStatusConfirmed = "Confirmed"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

type OrderItem struct {
	ProductID         string  `json:"product_id"`
	Quantity          int     `json:"quantity"`
	UnitPriceSnapshot float64 `json:"unit_price_snapshot"`
}

// Order is a purchase order. Drafts come from checkout (outside this service);
// the confirmation service moves them to Pending. Orders spawned by a
// suggestion confirmation carry the originating suggestion id.
type Order struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Items        []OrderItem `json:"items"`
	TotalAmount  float64     `json:"total_amount"`
	Status       string      `json:"status"`
	SuggestionID *string     `json:"suggestion_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// --- Analysis inputs (computed fresh per run, not persisted) ---

// OrderLine is one historical order line, joined with its parent order's
// creation time.
type OrderLine struct {
	OrderID   string
	ProductID string
	Quantity  int
	OrderedAt time.Time
}

// ConsumptionRecord summarizes historical usage of one product.
// AvgDailyUsage is total quantity divided by order count, i.e. consumption per
// order event rather than per calendar day. The field name matches the
// upstream data contract and user-facing copy.
type ConsumptionRecord struct {
	ProductID     string  `json:"product_id"`
	TotalQuantity int     `json:"total_quantity"`
	OrderCount    int     `json:"order_count"`
	AvgDailyUsage float64 `json:"avg_daily_usage"`
}

// InventoryLevel is the current on-hand stock of one product for one user.
type InventoryLevel struct {
	UserID         string   `json:"user_id"`
	ProductID      string   `json:"product_id"`
	OnHandQuantity int      `json:"on_hand_quantity"`
	UnitPrice      *float64 `json:"unit_price,omitempty"`
}

// --- Reorder parameters ---

// ReorderParameters configures one analysis run.
type ReorderParameters struct {
	LookbackDays  int     `json:"lookback_days"`
	LeadTimeDays  int     `json:"lead_time_days"`
	SafetyFactor  float64 `json:"safety_factor"`
	ReorderBuffer int     `json:"reorder_buffer"`
}

func DefaultReorderParameters() ReorderParameters {
	return ReorderParameters{
		LookbackDays:  30,
		LeadTimeDays:  7,
		SafetyFactor:  1.2,
		ReorderBuffer: 0,
	}
}

// Normalize clamps each parameter into its valid range, falling back to the
// default when a value is unset or out of bounds.
func (p ReorderParameters) Normalize() ReorderParameters {
	def := DefaultReorderParameters()
	if p.LookbackDays < 7 || p.LookbackDays > 90 {
		p.LookbackDays = def.LookbackDays
	}
	if p.LeadTimeDays < 1 || p.LeadTimeDays > 30 {
		p.LeadTimeDays = def.LeadTimeDays
	}
	if p.SafetyFactor < 1.0 || p.SafetyFactor > 2.0 {
		p.SafetyFactor = def.SafetyFactor
	}
	if p.ReorderBuffer < 0 || p.ReorderBuffer > 2 {
		p.ReorderBuffer = def.ReorderBuffer
	}
	return p
}

// --- Engine output and store summaries ---

// Proposal is one reorder decision produced by the engine.
type Proposal struct {
	ProductID    string `json:"product_id"`
	SuggestedQty int    `json:"suggested_qty"`
	Reason       string `json:"reason"`
}

// RecordSummary reports the outcome of persisting one batch of proposals.
type RecordSummary struct {
	Created       int      `json:"created"`
	Skipped       int      `json:"skipped"`
	SuggestionIDs []string `json:"suggestion_ids"`
}

// --- Run results ---

type UserFailure struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// RunTotals accumulates across all users of one reorder run.
type RunTotals struct {
	UsersProcessed     int           `json:"usersProcessed"`
	SuggestionsCreated int           `json:"suggestionsCreated"`
	DraftOrdersCreated int           `json:"draftOrdersCreated"`
	Failures           []UserFailure `json:"failures,omitempty"`
}

// --- Lifecycle results ---

// ActionResult is the per-item outcome of a confirm or dismiss.
// Applied is false when the suggestion was already in a terminal state; the
// call is then a no-op reporting Status as found.
type ActionResult struct {
	SuggestionID string `json:"suggestion_id"`
	Success      bool   `json:"success"`
	Applied      bool   `json:"applied"`
	Status       string `json:"status,omitempty"`
	OrderID      string `json:"order_id,omitempty"`
	Warning      string `json:"warning,omitempty"`
	Error        string `json:"error,omitempty"`
}

type BulkResult struct {
	Results   []ActionResult `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// --- Draft order confirmation ---

const (
	ConfirmResultCommitted = "committed"
	// ConfirmResultCommittedWithWarning means the order status flip committed
	// but the linked suggestion update failed; the failure is logged, never
	// rolled back.
	ConfirmResultCommittedWithWarning = "committed_with_warning"
)

type ConfirmOutcome struct {
	OrderID      string `json:"order_id"`
	SuggestionID string `json:"suggestion_id,omitempty"`
	Result       string `json:"result"`
}

// --- Audit trail ---

// Agent log event types.
const (
	EventRunStarted          = "run_started"
	EventRunCompleted        = "run_completed"
	EventRunError            = "run_error"
	EventSuggestionCreated   = "suggestion_created"
	EventSuggestionConfirmed = "suggestion_confirmed"
	EventSuggestionDismissed = "suggestion_dismissed"
	EventDraftConfirmed      = "draft_confirmed"
)

// AgentLogEntry is one append-only audit record. Entries are never mutated or
// deleted.
type AgentLogEntry struct {
	ID        string    `json:"id"`
	AgentName string    `json:"agent_name"`
	EventType string    `json:"event_type"`
	Payload   JSONB     `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}
