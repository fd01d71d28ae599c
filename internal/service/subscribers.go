// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/olegiv/ocms-blog/internal/model"
)

// SubscriberStore persists newsletter subscribers.
type SubscriberStore interface {
	Subscribe(ctx context.Context, sub *model.Subscriber) (bool, error)
}

// SubscriberService handles newsletter sign-ups.
type SubscriberService struct {
	store  SubscriberStore
	logger *slog.Logger
}

// NewSubscriberService creates a SubscriberService.
func NewSubscriberService(s SubscriberStore, logger *slog.Logger) *SubscriberService {
	return &SubscriberService{store: s, logger: logger}
}

// Subscribe adds an address to the newsletter. Subscribing twice is not an
// error; the second call updates the locale and reports created=false.
// An empty locale defaults to English.
func (s *SubscriberService) Subscribe(ctx context.Context, email, locale string) (*model.Subscriber, bool, error) {
	addr, ok := normalizeEmail(email)
	if !ok {
		return nil, false, invalid("email", "Please enter a valid email address")
	}

	loc := model.LocaleEN
	if strings.TrimSpace(locale) != "" {
		l, err := model.ParseLocale(locale)
		if err != nil {
			return nil, false, invalid("locale", "Unsupported locale")
		}
		loc = l
	}

	sub := &model.Subscriber{Email: addr, Locale: loc}
	created, err := s.store.Subscribe(ctx, sub)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("newsletter subscription", "subscriber_id", sub.ID, "locale", loc)
	}
	return sub, created, nil
}

// normalizeEmail accepts a bare address and lowercases it.
func normalizeEmail(email string) (string, bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return strings.ToLower(addr.Address), true
}
