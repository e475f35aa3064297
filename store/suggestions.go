package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"app/apperr"
	"app/models"
)

// Suggestions persists and transitions suggestion records.
type Suggestions struct {
	DB *pgxpool.Pool
}

// Record inserts one suggestion per proposal. The insert races safely against
// concurrent runs: the partial unique index on (user_id, product_id) where
// status = 'suggested' turns a duplicate into a skip instead of a second live
// row.
func (s *Suggestions) Record(ctx context.Context, userID string, params models.ReorderParameters, proposals []models.Proposal) (models.RecordSummary, error) {
	const insert = `
		INSERT INTO suggestions
			(id, user_id, product_id, suggested_qty, reason, lead_time_days, safety_factor, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'suggested', now(), now())
		ON CONFLICT (user_id, product_id) WHERE status = 'suggested' DO NOTHING
		RETURNING id
	`

	var summary models.RecordSummary
	for _, p := range proposals {
		var id string
		err := s.DB.QueryRow(ctx, insert,
			uuid.NewString(), userID, p.ProductID, p.SuggestedQty, p.Reason,
			params.LeadTimeDays, params.SafetyFactor,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			// Already live for this product; idempotent no-op.
			summary.Skipped++
			continue
		}
		if err != nil {
			return summary, apperr.Unavailable("failed to record suggestion", err)
		}
		summary.Created++
		summary.SuggestionIDs = append(summary.SuggestionIDs, id)
	}
	return summary, nil
}

// Get loads a suggestion owned by userID. A suggestion owned by another user
// reads as not found, never as a permission error.
func (s *Suggestions) Get(ctx context.Context, userID, id string) (*models.Suggestion, error) {
	const query = `
		SELECT id, user_id, product_id, suggested_qty, reason, lead_time_days, safety_factor, status, created_at, updated_at
		FROM suggestions WHERE id = $1 AND user_id = $2
	`
	var sg models.Suggestion
	err := s.DB.QueryRow(ctx, query, id, userID).Scan(
		&sg.ID, &sg.UserID, &sg.ProductID, &sg.SuggestedQty, &sg.Reason,
		&sg.LeadTimeDays, &sg.SafetyFactor, &sg.Status, &sg.CreatedAt, &sg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundError("suggestion not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to load suggestion", err)
	}
	return &sg, nil
}

// Transition flips status from -> to as a single compare-and-swap, scoped to
// the owning user. Returns false without error when the suggestion exists in
// a different state.
func (s *Suggestions) Transition(ctx context.Context, userID, id, from, to string) (bool, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE suggestions SET status = $1, updated_at = now() WHERE id = $2 AND user_id = $3 AND status = $4`,
		to, id, userID, from)
	if err != nil {
		return false, apperr.Unavailable("failed to update suggestion status", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := s.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM suggestions WHERE id = $1 AND user_id = $2)`, id, userID).Scan(&exists); err != nil {
		return false, apperr.Unavailable("failed to check suggestion", err)
	}
	if !exists {
		return false, apperr.NotFoundError("suggestion not found")
	}
	return false, nil
}

func (s *Suggestions) LiveIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id FROM suggestions WHERE user_id = $1 AND status = 'suggested' ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, apperr.Unavailable("failed to list live suggestions", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Unavailable("failed to scan suggestion id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListFilters narrows a suggestion listing. Urgency is matched after the
// query since it is derived from live stock, not stored.
type ListFilters struct {
	Status  string
	Search  string
	Urgency string
	SortBy  string
}

// List returns the user's suggestions newest first, each annotated with its
// derived urgency.
func (s *Suggestions) List(ctx context.Context, userID string, filters ListFilters) ([]models.Suggestion, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT s.id, s.user_id, s.product_id, s.suggested_qty, s.reason,
		       s.lead_time_days, s.safety_factor, s.status, s.created_at, s.updated_at,
		       COALESCE(i.on_hand_quantity, 0)
		FROM suggestions s
		LEFT JOIN inventory_levels i ON i.user_id = s.user_id AND i.product_id = s.product_id
		WHERE s.user_id = $1`)

	args := []interface{}{userID}
	if filters.Status != "" {
		args = append(args, filters.Status)
		fmt.Fprintf(&sb, " AND s.status = $%d", len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		fmt.Fprintf(&sb, " AND s.product_id ILIKE $%d", len(args))
	}

	switch filters.SortBy {
	case "quantity":
		sb.WriteString(" ORDER BY s.suggested_qty DESC, s.created_at DESC")
	default:
		sb.WriteString(" ORDER BY s.created_at DESC")
	}

	rows, err := s.DB.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, apperr.Unavailable("failed to list suggestions", err)
	}
	defer rows.Close()

	suggestions := make([]models.Suggestion, 0)
	for rows.Next() {
		var sg models.Suggestion
		var onHand int
		if err := rows.Scan(
			&sg.ID, &sg.UserID, &sg.ProductID, &sg.SuggestedQty, &sg.Reason,
			&sg.LeadTimeDays, &sg.SafetyFactor, &sg.Status, &sg.CreatedAt, &sg.UpdatedAt,
			&onHand,
		); err != nil {
			return nil, apperr.Unavailable("failed to scan suggestion", err)
		}
		sg.Urgency = models.UrgencyFor(sg.SuggestedQty, onHand)
		if filters.Urgency != "" && sg.Urgency != filters.Urgency {
			continue
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions, rows.Err()
}
