/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dj

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Persisted listener keys.
const (
	KeyVisitCount   = "visit_count"
	KeyLastVisit    = "last_visit"
	KeyTasteProfile = "taste_profile"
)

// MaxTopArtists caps UserContext.TopArtists.
const MaxTopArtists = 5

// KeyValueStore is the persisted listener store.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// UserContext personalizes scripts for one listener.
type UserContext struct {
	Name            string   `json:"name,omitempty"`
	TopArtists      []string `json:"top_artists,omitempty"`
	VisitCount      int      `json:"visit_count"`
	IsReturningUser bool     `json:"is_returning_user"`
}

type tasteProfile struct {
	TopArtists []string `json:"top_artists"`
}

// UserContextBuilder builds the UserContext once per session. The first
// Build bumps the visit counter and stamps the last visit; later calls reuse
// that snapshot.
type UserContextBuilder struct {
	store  KeyValueStore
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	loaded bool
	cached UserContext
}

// NewUserContextBuilder creates a builder for one listener session.
func NewUserContextBuilder(store KeyValueStore, logger zerolog.Logger) *UserContextBuilder {
	return &UserContextBuilder{
		store:  store,
		logger: logger.With().Str("component", "user_context").Logger(),
		now:    time.Now,
	}
}

// Build returns the listener context. Store failures degrade to zero values.
func (b *UserContextBuilder) Build(ctx context.Context, userName string) UserContext {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loaded {
		out := b.cached
		out.Name = userName
		out.TopArtists = append([]string(nil), b.cached.TopArtists...)
		return out
	}
	b.loaded = true

	uc := UserContext{Name: userName}
	if b.store == nil {
		b.cached = uc
		return uc
	}

	prevCount := 0
	if raw, ok := b.get(ctx, KeyVisitCount); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			b.logger.Warn().Str("value", raw).Msg("ignoring corrupt visit count")
		} else {
			prevCount = n
		}
	}
	_, hadLastVisit := b.get(ctx, KeyLastVisit)

	if raw, ok := b.get(ctx, KeyTasteProfile); ok {
		uc.TopArtists = parseTopArtists(raw)
		if uc.TopArtists == nil {
			b.logger.Debug().Msg("taste profile unreadable, treating as empty")
		}
	}

	uc.VisitCount = prevCount + 1
	uc.IsReturningUser = prevCount > 0 && hadLastVisit

	if err := b.store.Set(ctx, KeyVisitCount, strconv.Itoa(uc.VisitCount)); err != nil {
		b.logger.Warn().Err(err).Msg("failed to persist visit count")
	}
	if err := b.store.Set(ctx, KeyLastVisit, b.now().UTC().Format(time.RFC3339)); err != nil {
		b.logger.Warn().Err(err).Msg("failed to persist last visit")
	}

	b.cached = uc
	out := uc
	out.TopArtists = append([]string(nil), uc.TopArtists...)
	return out
}

func (b *UserContextBuilder) get(ctx context.Context, key string) (string, bool) {
	v, ok, err := b.store.Get(ctx, key)
	if err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("user store read failed")
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func parseTopArtists(raw string) []string {
	var tp tasteProfile
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return nil
	}
	var out []string
	for _, a := range tp.TopArtists {
		if a == "" {
			continue
		}
		out = append(out, a)
		if len(out) == MaxTopArtists {
			break
		}
	}
	return out
}
