package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
)

// CreateEvent appends an entry to the event log. metadata must be a JSON object.
func (s *Store) CreateEvent(ctx context.Context, level, category, message, metadata string, at time.Time) error {
	if metadata == "" {
		metadata = "{}"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (level, category, message, metadata, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5)`,
		level, category, message, metadata, at)
	if err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	return nil
}

// ListEvents returns the newest events, optionally filtered by category.
func (s *Store) ListEvents(ctx context.Context, category string, limit, offset int) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, level, category, message, metadata::text, created_at
		FROM events
		WHERE $1 = '' OR category = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CreateAIUsage records an upstream model call.
func (s *Store) CreateAIUsage(ctx context.Context, u model.AIUsage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ai_usage (operation, provider, model, locale, prompt_tokens, completion_tokens, total_tokens, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.Operation, u.Provider, u.Model, u.Locale, u.PromptTokens, u.CompletionTokens, u.TotalTokens, u.Success)
	if err != nil {
		return fmt.Errorf("recording ai usage: %w", err)
	}
	return nil
}
