package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"app/apperr"
	"app/models"
)

// AgentLog is the append-only audit trail. Rows are inserted and read, never
// updated or deleted.
type AgentLog struct {
	DB *pgxpool.Pool
}

func (l *AgentLog) Append(ctx context.Context, agentName, eventType string, payload models.JSONB) error {
	_, err := l.DB.Exec(ctx, `
		INSERT INTO agent_logs (id, agent_name, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		uuid.NewString(), agentName, eventType, payload)
	if err != nil {
		return apperr.Unavailable("failed to append agent log entry", err)
	}
	return nil
}

// LogFilters narrows an audit read.
type LogFilters struct {
	From      time.Time
	To        time.Time
	EventType string
	AgentName string
	Limit     int
}

func (l *AgentLog) Query(ctx context.Context, filters LogFilters) ([]models.AgentLogEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, agent_name, event_type, payload, created_at FROM agent_logs WHERE 1=1`)

	args := make([]interface{}, 0, 4)
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		fmt.Fprintf(&sb, " AND created_at >= $%d", len(args))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		fmt.Fprintf(&sb, " AND created_at <= $%d", len(args))
	}
	if filters.EventType != "" {
		args = append(args, filters.EventType)
		fmt.Fprintf(&sb, " AND event_type = $%d", len(args))
	}
	if filters.AgentName != "" {
		args = append(args, filters.AgentName)
		fmt.Fprintf(&sb, " AND agent_name = $%d", len(args))
	}

	sb.WriteString(" ORDER BY created_at DESC")
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := l.DB.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, apperr.Unavailable("failed to query agent logs", err)
	}
	defer rows.Close()

	entries := make([]models.AgentLogEntry, 0)
	for rows.Next() {
		var e models.AgentLogEntry
		if err := rows.Scan(&e.ID, &e.AgentName, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, apperr.Unavailable("failed to scan agent log entry", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
