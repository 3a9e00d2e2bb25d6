/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the DJ over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/airwave/internal/auth"
	"github.com/friendsincode/airwave/internal/dj"
	"github.com/friendsincode/airwave/internal/events"
	"github.com/friendsincode/airwave/internal/station"
	"github.com/friendsincode/airwave/internal/version"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// VolumeReader reads the listener's current music volume in [0,1].
type VolumeReader interface {
	PlaybackVolume(ctx context.Context, authToken string) (float64, error)
}

// CacheFlusher empties the shared speech cache.
type CacheFlusher interface {
	FlushAll(ctx context.Context) error
}

// API exposes HTTP handlers.
type API struct {
	dj          *dj.Service
	registry    *station.Registry
	bus         *events.Bus
	volume      VolumeReader
	speechCache CacheFlusher
	jwtSecret   []byte
	logger      zerolog.Logger
}

// New creates the API router wrapper. volume may be nil, in which case
// requests without current_volume use the DJ default. speechCache may be nil
// when no shared cache is configured.
func New(svc *dj.Service, registry *station.Registry, bus *events.Bus, volume VolumeReader, speechCache CacheFlusher, jwtSecret []byte, logger zerolog.Logger) *API {
	return &API{
		dj:          svc,
		registry:    registry,
		bus:         bus,
		volume:      volume,
		speechCache: speechCache,
		jwtSecret:   jwtSecret,
		logger:      logger.With().Str("component", "api").Logger(),
	}
}

// volumeLookupTimeout bounds the player read done when a request omits its volume.
const volumeLookupTimeout = 3 * time.Second

// Routes registers every endpoint under /api/v1.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Get("/stations", a.handleStationsList)
		r.Post("/presets", a.handlePresetEncode)
		r.Get("/presets/{token}", a.handlePresetDecode)

		r.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware(a.jwtSecret))

			pr.Get("/events", a.handleEvents)

			pr.Route("/dj", func(r chi.Router) {
				r.Post("/tune-in", a.handleTuneIn)
				r.Post("/track", a.handleTrackBoundary)
				r.Post("/announce", a.handleAnnounce)
				r.Post("/stop", a.handleStop)
				r.Post("/preload", a.handlePreload)
				r.Get("/status", a.handleStatus)
				r.Get("/history", a.handleHistory)
				r.Get("/script", a.handleScript)
			})

			pr.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))
				r.Post("/speech-cache/flush", a.handleSpeechCacheFlush)
			})
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Version})
}

func (a *API) handleStationsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.List())
}

type presetRequest struct {
	StationID string `json:"station_id"`
	ThemeID   string `json:"theme_id"`
}

func (a *API) handlePresetEncode(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, ok := a.registry.Get(req.StationID); !ok {
		writeError(w, http.StatusBadRequest, "unknown_station")
		return
	}
	token := station.EncodePreset(station.Preset{StationID: req.StationID, ThemeID: req.ThemeID})
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (a *API) handlePresetDecode(w http.ResponseWriter, r *http.Request) {
	p, err := station.DecodePreset(chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_preset")
		return
	}

	resp := map[string]any{"station_id": p.StationID, "theme_id": p.ThemeID}
	if profile, ok := a.registry.Get(p.StationID); ok {
		resp["station"] = profile
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseEventTypes(raw string) []events.EventType {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]events.EventType, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, events.EventType(part))
	}
	return out
}

// decodeJSON reads a bounded JSON body into dst and answers 400 on failure.
// An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
