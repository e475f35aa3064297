package agent

import (
	"context"
	"sync"
	"time"

	"app/apperr"
	"app/logger"
	"app/models"
)

// Runner orchestrates reorder analysis for one user or all users.
type Runner struct {
	History     OrderHistoryReader
	Inventory   InventoryReader
	Suggestions SuggestionRecorder
	Users       UserLister
	Audit       AuditWriter
	Log         logger.Logger

	Params      models.ReorderParameters
	Workers     int
	UserTimeout time.Duration
}

// Run analyzes every user in scope. An empty userID means all users with
// order history. Per-user failures are recorded and never abort the batch;
// totals and failures land in the returned RunTotals and the audit trail.
func (r *Runner) Run(ctx context.Context, userID string) (models.RunTotals, error) {
	if r.History == nil || r.Inventory == nil || r.Suggestions == nil {
		err := apperr.ConfigError("reorder agent backends are not configured")
		r.audit(ctx, models.EventRunError, models.JSONB{"error": err.Error()})
		return models.RunTotals{}, err
	}

	users, err := r.resolveScope(ctx, userID)
	if err != nil {
		r.audit(ctx, models.EventRunError, models.JSONB{"scope": scopeLabel(userID), "error": err.Error()})
		return models.RunTotals{}, err
	}

	startedAt := time.Now()
	r.audit(ctx, models.EventRunStarted, models.JSONB{"scope": scopeLabel(userID), "users": len(users)})

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		totals models.RunTotals
		sem    = make(chan struct{}, workers)
	)

	for _, uid := range users {
		wg.Add(1)
		sem <- struct{}{}
		go func(uid string) {
			defer wg.Done()
			defer func() { <-sem }()

			summary, err := r.runUser(ctx, uid)
			if err != nil {
				// Every failure reaches the audit trail, not just the
				// run_completed tally.
				r.audit(logger.WithUserID(ctx, uid), models.EventRunError, models.JSONB{
					"userId": uid,
					"error":  err.Error(),
				})
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				totals.Failures = append(totals.Failures, models.UserFailure{UserID: uid, Error: err.Error()})
				return
			}
			totals.UsersProcessed++
			totals.SuggestionsCreated += summary.Created
		}(uid)
	}
	wg.Wait()

	r.audit(ctx, models.EventRunCompleted, models.JSONB{
		"scope":              scopeLabel(userID),
		"usersProcessed":     totals.UsersProcessed,
		"suggestionsCreated": totals.SuggestionsCreated,
		"draftOrdersCreated": totals.DraftOrdersCreated,
		"failures":           len(totals.Failures),
		"durationMs":         time.Since(startedAt).Milliseconds(),
	})

	return totals, nil
}

// runUser executes the aggregate -> snapshot -> decide -> record pipeline for
// one user under the per-user timeout.
func (r *Runner) runUser(ctx context.Context, userID string) (models.RecordSummary, error) {
	if r.UserTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.UserTimeout)
		defer cancel()
	}
	ctx = logger.WithUserID(ctx, userID)

	params := r.Params.Normalize()

	aggregator := &Aggregator{History: r.History, Log: r.Log}
	consumption, err := aggregator.Aggregate(ctx, userID, params.LookbackDays)
	if err != nil {
		return models.RecordSummary{}, err
	}
	if len(consumption) == 0 {
		r.Log.Debugf(ctx, "no order history in window, nothing to suggest")
		return models.RecordSummary{}, nil
	}

	stock, err := Snapshot(ctx, r.Inventory, userID)
	if err != nil {
		return models.RecordSummary{}, err
	}

	proposals := Decide(consumption, stock, params)
	if len(proposals) == 0 {
		return models.RecordSummary{}, nil
	}

	summary, err := r.Suggestions.Record(ctx, userID, params, proposals)
	if err != nil {
		return models.RecordSummary{}, err
	}

	for _, id := range summary.SuggestionIDs {
		r.audit(ctx, models.EventSuggestionCreated, models.JSONB{"suggestionId": id, "userId": userID})
	}
	r.Log.Infof(ctx, "reorder analysis done: %d created, %d skipped", summary.Created, summary.Skipped)

	return summary, nil
}

func (r *Runner) resolveScope(ctx context.Context, userID string) ([]string, error) {
	if userID != "" {
		return []string{userID}, nil
	}
	if r.Users == nil {
		return nil, apperr.ConfigError("user listing backend is not configured")
	}
	users, err := r.Users.UserIDsWithOrders(ctx)
	if err != nil {
		return nil, apperr.Unavailable("failed to list users with order history", err)
	}
	return users, nil
}

func (r *Runner) audit(ctx context.Context, eventType string, payload models.JSONB) {
	if r.Audit == nil {
		return
	}
	if err := r.Audit.Append(ctx, AgentName, eventType, payload); err != nil {
		r.Log.Warnf(ctx, "failed to append %s audit entry: %v", eventType, err)
	}
}

func scopeLabel(userID string) string {
	if userID == "" {
		return "all"
	}
	return userID
}
