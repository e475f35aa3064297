package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"app/apperr"
	"app/config"
	"app/store"
)

// HandleRunInsights asks Gemini to summarize recent agent activity.
// POST /api/v1/agent/insights
func HandleRunInsights(c *fiber.Ctx) error {
	if config.AppConfig.GeminiAPIKey == "" {
		return fail(c, apperr.ConfigError("GEMINI_API_KEY is not set"))
	}

	ctx := requestContext(c)
	entries, err := deps.Audit.Query(ctx, store.LogFilters{Limit: 20})
	if err != nil {
		deps.Log.Errorf(ctx, "failed to load agent logs for insights: %v", err)
		return fail(c, err)
	}
	if len(entries) == 0 {
		return success(c, "No agent activity to summarize", fiber.Map{"summary": ""})
	}

	var sb strings.Builder
	sb.WriteString("Summarize the following reorder agent activity for a store operator. ")
	sb.WriteString("Keep it to a short paragraph and mention failure counts if any.\n\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s %s %v\n", e.CreatedAt.Format("2006-01-02 15:04"), e.EventType, e.Payload)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		deps.Log.Errorf(ctx, "error creating Gemini client: %v", err)
		return fail(c, apperr.Unavailable("failed to initialize Gemini client", err))
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-1.5-pro-latest")
	resp, err := model.GenerateContent(ctx, genai.Text(sb.String()))
	if err != nil {
		deps.Log.Errorf(ctx, "error generating insights: %v", err)
		return fail(c, apperr.Unavailable("failed to generate insights", err))
	}

	var summary strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				summary.WriteString(string(text))
			}
		}
	}

	return success(c, "Insights generated", fiber.Map{"summary": summary.String()})
}
