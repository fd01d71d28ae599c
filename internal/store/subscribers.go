// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"

	"github.com/olegiv/ocms-blog/internal/model"
)

// Subscribe adds an email to the newsletter, or updates its locale when it
// is already subscribed. created reports whether the address is new.
func (s *Store) Subscribe(ctx context.Context, sub *model.Subscriber) (created bool, err error) {
	err = s.pool.QueryRow(ctx, `
		INSERT INTO newsletter_subscribers (email, locale) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET locale = EXCLUDED.locale
		RETURNING id, subscribed_at, (xmax = 0)`,
		sub.Email, sub.Locale,
	).Scan(&sub.ID, &sub.SubscribedAt, &created)
	if err != nil {
		return false, fmt.Errorf("subscribing %s: %w", sub.Email, err)
	}
	return created, nil
}

// ListSubscribers returns subscribers, optionally restricted to one locale.
func (s *Store) ListSubscribers(ctx context.Context, locale model.Locale) ([]model.Subscriber, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, locale, subscribed_at FROM newsletter_subscribers
		WHERE $1 = '' OR locale = $1
		ORDER BY subscribed_at`, string(locale))
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscriber
	for rows.Next() {
		var sub model.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Locale, &sub.SubscribedAt); err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
