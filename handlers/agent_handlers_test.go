package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/apperr"
	"app/logger"
	"app/models"
	"app/store"
)

type fakeRunner struct {
	totals   models.RunTotals
	err      error
	lastUser string
}

func (f *fakeRunner) Run(ctx context.Context, userID string) (models.RunTotals, error) {
	f.lastUser = userID
	return f.totals, f.err
}

type fakeConfirmer struct {
	outcome models.ConfirmOutcome
	order   *models.Order
	err     error
	loadErr error
	called  bool
}

func (f *fakeConfirmer) ConfirmDraft(ctx context.Context, orderID, suggestionID string) (models.ConfirmOutcome, error) {
	f.called = true
	return f.outcome, f.err
}

func (f *fakeConfirmer) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.order != nil {
		return f.order, nil
	}
	return &models.Order{ID: orderID, Status: models.OrderStatusPending}, nil
}

type fakeAuditReader struct {
	entries []models.AgentLogEntry
}

func (f *fakeAuditReader) Query(ctx context.Context, filters store.LogFilters) ([]models.AgentLogEntry, error) {
	return f.entries, nil
}

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/api/v1/agent/run-reorder", HandleRunReorder)
	app.Post("/api/v1/agent/confirm-draft", HandleConfirmDraft)
	app.Get("/api/v1/agent/logs", HandleListAgentLogs)
	return app
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestHandleRunReorderAllUsers(t *testing.T) {
	runner := &fakeRunner{totals: models.RunTotals{UsersProcessed: 3, SuggestionsCreated: 5}}
	Setup(Deps{Runner: runner, Log: logger.Nop()})
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/agent/run-reorder", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "", runner.lastUser)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["timestamp"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["usersProcessed"])
	assert.Equal(t, float64(5), data["suggestionsCreated"])
}

func TestHandleRunReorderSingleUser(t *testing.T) {
	runner := &fakeRunner{}
	Setup(Deps{Runner: runner, Log: logger.Nop()})
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/agent/run-reorder", strings.NewReader(`{"userId":"user-7"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "user-7", runner.lastUser)
}

func TestHandleRunReorderFailure(t *testing.T) {
	runner := &fakeRunner{err: apperr.ConfigError("reorder agent backends are not configured")}
	Setup(Deps{Runner: runner, Log: logger.Nop()})
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/agent/run-reorder", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, 500, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestHandleConfirmDraftRequiresOrderID(t *testing.T) {
	confirmer := &fakeConfirmer{}
	Setup(Deps{Orders: confirmer, Log: logger.Nop()})
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/agent/confirm-draft", strings.NewReader(`{"suggestionId":"sug-1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	// Validation fails before any engine logic runs.
	assert.Equal(t, 400, resp.StatusCode)
	assert.False(t, confirmer.called)
}

func TestHandleConfirmDraftNotFound(t *testing.T) {
	confirmer := &fakeConfirmer{err: apperr.NotFoundError("no matching draft order")}
	Setup(Deps{Orders: confirmer, Log: logger.Nop()})
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/agent/confirm-draft", strings.NewReader(`{"orderId":"order-1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, 404, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Equal(t, "no matching draft order", body["error"])
}

func TestHandleConfirmDraftSuccess(t *testing.T) {
	suggestionID := "sug-1"
	confirmer := &fakeConfirmer{
		outcome: models.ConfirmOutcome{
			OrderID: "order-1", SuggestionID: "sug-1", Result: models.ConfirmResultCommitted,
		},
		order: &models.Order{ID: "order-1", Status: models.OrderStatusPending, SuggestionID: &suggestionID},
	}
	Setup(Deps{Orders: confirmer, Log: logger.Nop()})
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/agent/confirm-draft", strings.NewReader(`{"orderId":"order-1","suggestionId":"sug-1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	data := body["data"].(map[string]interface{})
	outcome := data["outcome"].(map[string]interface{})
	assert.Equal(t, "committed", outcome["result"])
	order := data["order"].(map[string]interface{})
	assert.Equal(t, "order-1", order["id"])
	assert.Equal(t, models.OrderStatusPending, order["status"])
}

func TestHandleConfirmDraftReloadFailureStillSucceeds(t *testing.T) {
	confirmer := &fakeConfirmer{
		outcome: models.ConfirmOutcome{OrderID: "order-1", Result: models.ConfirmResultCommitted},
		loadErr: apperr.Unavailable("failed to load order", assert.AnError),
	}
	Setup(Deps{Orders: confirmer, Log: logger.Nop()})
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/agent/confirm-draft", strings.NewReader(`{"orderId":"order-1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	// The confirmation committed; a failed read-back never turns it into
	// an error response.
	assert.Equal(t, 200, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	data := body["data"].(map[string]interface{})
	_, hasOrder := data["order"]
	assert.False(t, hasOrder)
}

func TestHandleListAgentLogsRejectsBadTimestamp(t *testing.T) {
	Setup(Deps{Audit: &fakeAuditReader{}, Log: logger.Nop()})
	app := newTestApp()

	req := httptest.NewRequest("GET", "/api/v1/agent/logs?from=yesterday", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, 400, resp.StatusCode)
}
