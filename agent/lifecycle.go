package agent

import (
	"context"

	"app/apperr"
	"app/logger"
	"app/models"
)

// AgentName tags every audit entry written by this subsystem.
const AgentName = "reorder-agent"

// Lifecycle drives suggestion status transitions. Transitions are
// compare-and-swap on the current status, so a confirm and a dismiss can
// never both succeed on the same suggestion. Every operation is scoped to
// the calling user; a suggestion owned by someone else is indistinguishable
// from one that does not exist.
type Lifecycle struct {
	Suggestions SuggestionStore
	Orders      OrderCreator
	Audit       AuditWriter
	Log         logger.Logger
}

// Confirm moves a suggestion from suggested to confirmed and creates the
// pending order for it. Confirming a suggestion already in a terminal state
// is a no-op that reports the state as found; operators double-click.
func (l *Lifecycle) Confirm(ctx context.Context, userID, suggestionID string) (models.ActionResult, error) {
	if userID == "" {
		return models.ActionResult{}, apperr.ValidationError("userId is required")
	}
	if suggestionID == "" {
		return models.ActionResult{}, apperr.ValidationError("suggestionId is required")
	}

	applied, err := l.Suggestions.Transition(ctx, userID, suggestionID, models.SuggestionStatusSuggested, models.SuggestionStatusConfirmed)
	if err != nil {
		l.auditFailure(ctx, "confirm", suggestionID, err)
		return models.ActionResult{}, err
	}

	result := models.ActionResult{SuggestionID: suggestionID, Success: true, Applied: applied}
	if !applied {
		current, err := l.Suggestions.Get(ctx, userID, suggestionID)
		if err != nil {
			l.auditFailure(ctx, "confirm", suggestionID, err)
			return models.ActionResult{}, err
		}
		result.Status = current.Status
		return result, nil
	}
	result.Status = models.SuggestionStatusConfirmed

	s, err := l.Suggestions.Get(ctx, userID, suggestionID)
	if err != nil {
		// The transition committed; report it with a warning rather than
		// pretending it failed.
		l.Log.Warnf(ctx, "confirmed suggestion %s but could not reload it: %v", suggestionID, err)
		result.Warning = "confirmed, but order creation was skipped"
		return result, nil
	}

	orderID, err := l.Orders.CreateFromSuggestion(ctx, s)
	if err != nil {
		l.Log.Warnf(ctx, "confirmed suggestion %s but order creation failed: %v", suggestionID, err)
		result.Warning = "confirmed, but order creation failed"
	} else {
		result.OrderID = orderID
	}

	l.audit(ctx, models.EventSuggestionConfirmed, models.JSONB{
		"suggestionId": suggestionID,
		"orderId":      result.OrderID,
	})

	return result, nil
}

// Dismiss moves a suggestion from suggested to dismissed. Same terminal-state
// tolerance as Confirm. Dismissed suggestions are kept for audit, never
// deleted.
func (l *Lifecycle) Dismiss(ctx context.Context, userID, suggestionID string) (models.ActionResult, error) {
	if userID == "" {
		return models.ActionResult{}, apperr.ValidationError("userId is required")
	}
	if suggestionID == "" {
		return models.ActionResult{}, apperr.ValidationError("suggestionId is required")
	}

	applied, err := l.Suggestions.Transition(ctx, userID, suggestionID, models.SuggestionStatusSuggested, models.SuggestionStatusDismissed)
	if err != nil {
		l.auditFailure(ctx, "dismiss", suggestionID, err)
		return models.ActionResult{}, err
	}

	result := models.ActionResult{SuggestionID: suggestionID, Success: true, Applied: applied}
	if !applied {
		current, err := l.Suggestions.Get(ctx, userID, suggestionID)
		if err != nil {
			l.auditFailure(ctx, "dismiss", suggestionID, err)
			return models.ActionResult{}, err
		}
		result.Status = current.Status
		return result, nil
	}
	result.Status = models.SuggestionStatusDismissed

	l.audit(ctx, models.EventSuggestionDismissed, models.JSONB{"suggestionId": suggestionID})

	return result, nil
}

// ConfirmAll applies Confirm to each id. An empty id list means every live
// suggestion for the user. One failure never aborts the remaining items, and
// cancellation leaves already-applied transitions committed.
func (l *Lifecycle) ConfirmAll(ctx context.Context, userID string, ids []string) (models.BulkResult, error) {
	return l.bulk(ctx, userID, ids, l.Confirm)
}

// DismissAll is the bulk variant of Dismiss, with the same semantics as
// ConfirmAll.
func (l *Lifecycle) DismissAll(ctx context.Context, userID string, ids []string) (models.BulkResult, error) {
	return l.bulk(ctx, userID, ids, l.Dismiss)
}

func (l *Lifecycle) bulk(ctx context.Context, userID string, ids []string, action func(context.Context, string, string) (models.ActionResult, error)) (models.BulkResult, error) {
	if userID == "" {
		return models.BulkResult{}, apperr.ValidationError("userId is required")
	}
	if len(ids) == 0 {
		live, err := l.Suggestions.LiveIDs(ctx, userID)
		if err != nil {
			return models.BulkResult{}, err
		}
		ids = live
	}

	var out models.BulkResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			// Stop handing out new transitions; completed ones stay.
			out.Results = append(out.Results, models.ActionResult{SuggestionID: id, Error: "cancelled"})
			out.Failed++
			continue
		}

		result, err := action(ctx, userID, id)
		if err != nil {
			out.Results = append(out.Results, models.ActionResult{SuggestionID: id, Error: err.Error()})
			out.Failed++
			continue
		}
		out.Results = append(out.Results, result)
		out.Succeeded++
	}

	return out, nil
}

func (l *Lifecycle) audit(ctx context.Context, eventType string, payload models.JSONB) {
	if err := l.Audit.Append(ctx, AgentName, eventType, payload); err != nil {
		l.Log.Warnf(ctx, "failed to append %s audit entry: %v", eventType, err)
	}
}

func (l *Lifecycle) auditFailure(ctx context.Context, operation, suggestionID string, cause error) {
	l.audit(ctx, models.EventRunError, models.JSONB{
		"operation":    operation,
		"suggestionId": suggestionID,
		"error":        cause.Error(),
	})
}
