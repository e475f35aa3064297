package routes

import (
	"app/handlers"
	"app/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// --- Agent Routes ---
	agent := api.Group("/agent", middleware.Authenticate, middleware.CheckRole("admin", "merchant"))
	agent.Post("/run-reorder", handlers.HandleRunReorder)
	agent.Post("/confirm-draft", handlers.HandleConfirmDraft)
	agent.Get("/logs", handlers.HandleListAgentLogs)
	agent.Post("/insights", handlers.HandleRunInsights)

	// --- Suggestion Routes ---
	suggestions := api.Group("/suggestions", middleware.Authenticate)
	suggestions.Get("/", handlers.HandleListSuggestions)
	suggestions.Post("/bulk-confirm", handlers.HandleBulkConfirm) // Must be before /:suggestionId routes
	suggestions.Post("/bulk-dismiss", handlers.HandleBulkDismiss)
	suggestions.Post("/:suggestionId/confirm", handlers.HandleConfirmSuggestion)
	suggestions.Post("/:suggestionId/dismiss", handlers.HandleDismissSuggestion)
}
