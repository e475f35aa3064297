package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"app/apperr"
	"app/logger"
	"app/models"
	"app/utils"
)

// ConfirmStrategy promotes a Draft order to Pending, optionally marking the
// originating suggestion confirmed. Two implementations: a single server-side
// function call when the database provides one, and an explicit step sequence
// otherwise. Both produce identical externally observable outcomes.
type ConfirmStrategy interface {
	ConfirmDraft(ctx context.Context, orderID, suggestionID string) (models.ConfirmOutcome, error)
}

// Orders is the draft order confirmation service. It also creates pending
// orders from confirmed suggestions for the lifecycle controller.
type Orders struct {
	DB       *pgxpool.Pool
	Log      logger.Logger
	Audit    *AgentLog
	strategy ConfirmStrategy
}

// NewOrders probes once at startup for the confirm_draft_order database
// function and picks the strategy accordingly.
func NewOrders(ctx context.Context, db *pgxpool.Pool, log logger.Logger, audit *AgentLog) *Orders {
	o := &Orders{DB: db, Log: log, Audit: audit}

	var hasFunc bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = 'confirm_draft_order')`).Scan(&hasFunc)
	if err != nil {
		log.Warnf(ctx, "could not probe for confirm_draft_order function, using explicit steps: %v", err)
		hasFunc = false
	}

	if hasFunc {
		o.strategy = &atomicConfirm{db: db}
		log.Infof(ctx, "draft confirmation using server-side function")
	} else {
		o.strategy = &explicitConfirm{gw: &pgDraftGateway{db: db}, log: log}
		log.Infof(ctx, "draft confirmation using explicit step sequence")
	}

	return o
}

// ConfirmDraft runs the selected strategy and appends the audit entry.
func (o *Orders) ConfirmDraft(ctx context.Context, orderID, suggestionID string) (models.ConfirmOutcome, error) {
	if orderID == "" {
		return models.ConfirmOutcome{}, apperr.ValidationError("orderId is required")
	}

	outcome, err := o.strategy.ConfirmDraft(ctx, orderID, suggestionID)
	if err != nil {
		return models.ConfirmOutcome{}, err
	}

	if o.Audit != nil {
		auditErr := o.Audit.Append(ctx, "reorder-agent", models.EventDraftConfirmed, models.JSONB{
			"orderId":      outcome.OrderID,
			"suggestionId": outcome.SuggestionID,
			"result":       outcome.Result,
		})
		if auditErr != nil {
			o.Log.Warnf(ctx, "failed to append draft_confirmed audit entry: %v", auditErr)
		}
	}

	return outcome, nil
}

// CreateFromSuggestion inserts a Pending order carrying the suggestion
// back-reference, with one line for the suggested product. The unit price
// snapshot comes from the inventory row when present.
func (o *Orders) CreateFromSuggestion(ctx context.Context, s *models.Suggestion) (string, error) {
	var unitPrice float64
	err := o.DB.QueryRow(ctx,
		`SELECT COALESCE(unit_price, 0) FROM inventory_levels WHERE user_id = $1 AND product_id = $2`,
		s.UserID, s.ProductID).Scan(&unitPrice)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.Unavailable("failed to read unit price", err)
	}

	order := models.Order{
		ID:           uuid.NewString(),
		UserID:       s.UserID,
		Status:       models.OrderStatusPending,
		SuggestionID: &s.ID,
		TotalAmount:  unitPrice * float64(s.SuggestedQty),
		Items: []models.OrderItem{
			{ProductID: s.ProductID, Quantity: s.SuggestedQty, UnitPriceSnapshot: unitPrice},
		},
	}

	tx, err := o.DB.Begin(ctx)
	if err != nil {
		return "", apperr.Unavailable("failed to start transaction", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, suggestion_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())`,
		order.ID, order.UserID, order.TotalAmount, order.Status, order.SuggestionID)
	if err != nil {
		return "", apperr.Unavailable("failed to create order", err)
	}

	for _, item := range order.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price_snapshot)
			VALUES ($1, $2, $3, $4)`,
			order.ID, item.ProductID, item.Quantity, item.UnitPriceSnapshot)
		if err != nil {
			return "", apperr.Unavailable("failed to create order item", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", apperr.Unavailable("failed to commit order", err)
	}

	return order.ID, nil
}

// GetByID loads an order with its items. The confirmation handler returns the
// loaded order so callers see the post-confirmation state without a second
// request.
func (o *Orders) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	if orderID == "" {
		return nil, apperr.ValidationError("orderId is required")
	}

	var order models.Order
	var suggestionID sql.NullString
	err := o.DB.QueryRow(ctx, `
		SELECT id, user_id, total_amount, status, suggestion_id, created_at, updated_at
		FROM orders WHERE id = $1`, orderID).Scan(
		&order.ID, &order.UserID, &order.TotalAmount, &order.Status,
		&suggestionID, &order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundError("order not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to load order", err)
	}
	order.SuggestionID = utils.NullStringToStringPtr(suggestionID)

	rows, err := o.DB.Query(ctx, `
		SELECT product_id, quantity, unit_price_snapshot
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, apperr.Unavailable("failed to load order items", err)
	}
	defer rows.Close()

	order.Items = make([]models.OrderItem, 0)
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPriceSnapshot); err != nil {
			return nil, apperr.Unavailable("failed to scan order item", err)
		}
		order.Items = append(order.Items, item)
	}
	return &order, rows.Err()
}

// --- Atomic strategy ---

// atomicConfirm calls the confirm_draft_order function, which encapsulates
// the Draft check, the status flip and the suggestion update in one
// transaction server-side.
type atomicConfirm struct {
	db *pgxpool.Pool
}

func (a *atomicConfirm) ConfirmDraft(ctx context.Context, orderID, suggestionID string) (models.ConfirmOutcome, error) {
	var result string
	err := a.db.QueryRow(ctx,
		`SELECT confirm_draft_order($1, NULLIF($2, ''))`, orderID, suggestionID).Scan(&result)
	if err != nil {
		return models.ConfirmOutcome{}, apperr.Unavailable("draft confirmation failed", err)
	}
	if result == "not_found" {
		return models.ConfirmOutcome{}, apperr.NotFoundError("no matching draft order")
	}
	return models.ConfirmOutcome{OrderID: orderID, SuggestionID: suggestionID, Result: result}, nil
}

// --- Explicit strategy ---

// draftOrderGateway is the minimal surface the explicit strategy needs; the
// tests fake it.
type draftOrderGateway interface {
	// markDraftPending flips Draft -> Pending and reports whether a row
	// changed.
	markDraftPending(ctx context.Context, orderID string) (bool, error)
	// orderExists distinguishes "missing" from "wrong state" for logging
	// only; callers see one NotFound either way.
	orderExists(ctx context.Context, orderID string) (bool, error)
	markSuggestionConfirmed(ctx context.Context, suggestionID string) (bool, error)
}

// explicitConfirm performs the fetch-and-validate, flip, then best-effort
// suggestion update sequence. Phase 2 failure degrades to a warning; the
// order status change is never rolled back.
type explicitConfirm struct {
	gw  draftOrderGateway
	log logger.Logger
}

func (e *explicitConfirm) ConfirmDraft(ctx context.Context, orderID, suggestionID string) (models.ConfirmOutcome, error) {
	flipped, err := e.gw.markDraftPending(ctx, orderID)
	if err != nil {
		return models.ConfirmOutcome{}, apperr.Unavailable("failed to update order status", err)
	}
	if !flipped {
		if exists, checkErr := e.gw.orderExists(ctx, orderID); checkErr == nil && exists {
			e.log.Infof(ctx, "order %s exists but is not in Draft status", orderID)
		}
		return models.ConfirmOutcome{}, apperr.NotFoundError("no matching draft order")
	}

	outcome := models.ConfirmOutcome{OrderID: orderID, SuggestionID: suggestionID, Result: models.ConfirmResultCommitted}
	if suggestionID == "" {
		return outcome, nil
	}

	updated, err := e.gw.markSuggestionConfirmed(ctx, suggestionID)
	if err != nil || !updated {
		e.log.Warnf(ctx, "order %s confirmed but suggestion %s update failed: %v", orderID, suggestionID, err)
		outcome.Result = models.ConfirmResultCommittedWithWarning
	}
	return outcome, nil
}

type pgDraftGateway struct {
	db *pgxpool.Pool
}

func (g *pgDraftGateway) markDraftPending(ctx context.Context, orderID string) (bool, error) {
	tag, err := g.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		models.OrderStatusPending, orderID, models.OrderStatusDraft)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (g *pgDraftGateway) orderExists(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := g.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
	return exists, err
}

func (g *pgDraftGateway) markSuggestionConfirmed(ctx context.Context, suggestionID string) (bool, error) {
	tag, err := g.db.Exec(ctx,
		`UPDATE suggestions SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		models.SuggestionStatusConfirmed, suggestionID, models.SuggestionStatusSuggested)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
