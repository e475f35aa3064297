package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"app/store"
)

// HandleListAgentLogs exposes the audit trail, newest first.
// GET /api/v1/agent/logs?from=&to=&eventType=&agentName=&limit=
func HandleListAgentLogs(c *fiber.Ctx) error {
	filters := store.LogFilters{
		EventType: c.Query("eventType"),
		AgentName: c.Query("agentName"),
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return failValidation(c, "from must be an RFC3339 timestamp")
		}
		filters.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return failValidation(c, "to must be an RFC3339 timestamp")
		}
		filters.To = t
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return failValidation(c, "limit must be a positive integer")
		}
		filters.Limit = n
	}

	ctx := requestContext(c)
	entries, err := deps.Audit.Query(ctx, filters)
	if err != nil {
		deps.Log.Errorf(ctx, "failed to query agent logs: %v", err)
		return fail(c, err)
	}

	return success(c, "Agent logs retrieved", entries)
}
