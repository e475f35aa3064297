package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"app/store"
	"app/utils"
)

// HandleListSuggestions lists the caller's suggestions newest first.
// GET /api/v1/suggestions?status=&search=&urgency=&sortBy=&page=&pageSize=
func HandleListSuggestions(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == "" {
		return failValidation(c, "userId is required")
	}

	filters := store.ListFilters{
		Status:  c.Query("status"),
		Search:  c.Query("search"),
		Urgency: c.Query("urgency"),
		SortBy:  c.Query("sortBy"),
	}

	ctx := requestContext(c)
	suggestions, err := deps.Suggestions.List(ctx, userID, filters)
	if err != nil {
		deps.Log.Errorf(ctx, "failed to list suggestions: %v", err)
		return fail(c, err)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize", "20"))
	pagination := utils.CreatePagination(len(suggestions), page, pageSize)

	start := (pagination.CurrentPage - 1) * pagination.PageSize
	if start > len(suggestions) {
		start = len(suggestions)
	}
	end := start + pagination.PageSize
	if end > len(suggestions) {
		end = len(suggestions)
	}

	return success(c, "Suggestions retrieved", fiber.Map{
		"suggestions": suggestions[start:end],
		"pagination":  pagination,
	})
}

// HandleConfirmSuggestion confirms one suggestion.
// POST /api/v1/suggestions/:suggestionId/confirm
func HandleConfirmSuggestion(c *fiber.Ctx) error {
	ctx := requestContext(c)
	result, err := deps.Lifecycle.Confirm(ctx, currentUserID(c), c.Params("suggestionId"))
	if err != nil {
		return fail(c, err)
	}
	if !result.Applied {
		return success(c, "Suggestion already "+result.Status, result)
	}
	return success(c, "Suggestion confirmed", result)
}

// HandleDismissSuggestion dismisses one suggestion.
// POST /api/v1/suggestions/:suggestionId/dismiss
func HandleDismissSuggestion(c *fiber.Ctx) error {
	ctx := requestContext(c)
	result, err := deps.Lifecycle.Dismiss(ctx, currentUserID(c), c.Params("suggestionId"))
	if err != nil {
		return fail(c, err)
	}
	if !result.Applied {
		return success(c, "Suggestion already "+result.Status, result)
	}
	return success(c, "Suggestion dismissed", result)
}

type bulkRequest struct {
	SuggestionIDs []string `json:"suggestionIds"`
}

// HandleBulkConfirm confirms a batch of suggestions, or every live one when
// no ids are given. Per-item failures are reported, not propagated.
// POST /api/v1/suggestions/bulk-confirm
func HandleBulkConfirm(c *fiber.Ctx) error {
	var body bulkRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return failValidation(c, "Invalid request body")
		}
	}

	ctx := requestContext(c)
	result, err := deps.Lifecycle.ConfirmAll(ctx, currentUserID(c), body.SuggestionIDs)
	if err != nil {
		return fail(c, err)
	}
	return success(c, "Bulk confirm completed", result)
}

// HandleBulkDismiss is the dismiss counterpart of HandleBulkConfirm.
// POST /api/v1/suggestions/bulk-dismiss
func HandleBulkDismiss(c *fiber.Ctx) error {
	var body bulkRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return failValidation(c, "Invalid request body")
		}
	}

	ctx := requestContext(c)
	result, err := deps.Lifecycle.DismissAll(ctx, currentUserID(c), body.SuggestionIDs)
	if err != nil {
		return fail(c, err)
	}
	return success(c, "Bulk dismiss completed", result)
}
