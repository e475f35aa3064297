package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"app/apperr"
	"app/config"
	"app/logger"
	"app/models"
	"app/store"
)

// ReorderRunner triggers analysis for one user (or all, with an empty id).
type ReorderRunner interface {
	Run(ctx context.Context, userID string) (models.RunTotals, error)
}

// DraftConfirmer promotes a draft order to pending and reads back the
// resulting order.
type DraftConfirmer interface {
	ConfirmDraft(ctx context.Context, orderID, suggestionID string) (models.ConfirmOutcome, error)
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
}

// SuggestionLifecycle exposes the confirm/dismiss state machine. Single-item
// operations take the calling user so one user cannot act on another's
// suggestions.
type SuggestionLifecycle interface {
	Confirm(ctx context.Context, userID, suggestionID string) (models.ActionResult, error)
	Dismiss(ctx context.Context, userID, suggestionID string) (models.ActionResult, error)
	ConfirmAll(ctx context.Context, userID string, ids []string) (models.BulkResult, error)
	DismissAll(ctx context.Context, userID string, ids []string) (models.BulkResult, error)
}

// SuggestionLister reads persisted suggestions with filters.
type SuggestionLister interface {
	List(ctx context.Context, userID string, filters store.ListFilters) ([]models.Suggestion, error)
}

// AuditReader reads the append-only agent log.
type AuditReader interface {
	Query(ctx context.Context, filters store.LogFilters) ([]models.AgentLogEntry, error)
}

// Deps wires the handlers to the agent core. Set once in main via Setup;
// tests inject fakes.
type Deps struct {
	Runner      ReorderRunner
	Orders      DraftConfirmer
	Lifecycle   SuggestionLifecycle
	Suggestions SuggestionLister
	Audit       AuditReader
	Log         logger.Logger
}

var deps Deps

// Setup installs the handler dependencies.
func Setup(d Deps) {
	deps = d
}

// requestContext carries the authenticated user id and request id into logs.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		ctx = logger.WithRequestID(ctx, requestID)
	}
	if userID, ok := c.Locals("userID").(string); ok && userID != "" {
		ctx = logger.WithUserID(ctx, userID)
	}
	return ctx
}

func currentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("userID").(string)
	return userID
}

func success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   message,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func fail(c *fiber.Ctx, err error) error {
	body := fiber.Map{"success": false, "error": err.Error()}
	if !config.IsProduction() {
		if details := apperr.DetailsOf(err); details != "" && details != err.Error() {
			body["details"] = details
		}
	}
	return c.Status(apperr.HTTPStatus(err)).JSON(body)
}

func failValidation(c *fiber.Ctx, message string) error {
	return fail(c, apperr.ValidationError(message))
}
