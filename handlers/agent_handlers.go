package handlers

import (
	"github.com/gofiber/fiber/v2"

	"app/utils"
)

// HandleRunReorder triggers a reorder analysis run.
// POST /api/v1/agent/run-reorder  body: {"userId": "..."} or {} for all users
func HandleRunReorder(c *fiber.Ctx) error {
	var body struct {
		UserID string `json:"userId"`
	}
	// An empty body is a valid all-users trigger.
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return failValidation(c, "Invalid request body")
		}
	}

	ctx := requestContext(c)
	totals, err := deps.Runner.Run(ctx, body.UserID)
	if err != nil {
		deps.Log.Errorf(ctx, "reorder run failed: %v", err)
		return fail(c, err)
	}

	return success(c, "Reorder analysis completed", totals)
}

// HandleConfirmDraft promotes a draft order to pending.
// POST /api/v1/agent/confirm-draft  body: {"orderId": "...", "suggestionId": "..."}
func HandleConfirmDraft(c *fiber.Ctx) error {
	var body struct {
		OrderID      string `json:"orderId"`
		SuggestionID string `json:"suggestionId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return failValidation(c, "Invalid request body")
	}
	if body.OrderID == "" {
		return failValidation(c, "orderId is required")
	}

	ctx := requestContext(c)
	outcome, err := deps.Orders.ConfirmDraft(ctx, body.OrderID, body.SuggestionID)
	if err != nil {
		deps.Log.Errorf(ctx, "draft confirmation failed for order %s: %v", body.OrderID, err)
		return fail(c, err)
	}

	data := fiber.Map{"outcome": outcome}
	order, loadErr := deps.Orders.GetByID(ctx, outcome.OrderID)
	if loadErr != nil {
		deps.Log.Warnf(ctx, "order %s confirmed but reload failed: %v", outcome.OrderID, loadErr)
	} else {
		deps.Log.Infof(ctx, "order %s confirmed, suggestion %s", order.ID, utils.PointerToString(order.SuggestionID))
		data["order"] = order
	}

	return success(c, "Draft order confirmed", data)
}
