/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/friendsincode/airwave/internal/audio"
	"github.com/friendsincode/airwave/internal/auth"
	"github.com/friendsincode/airwave/internal/dj"
	"github.com/friendsincode/airwave/internal/station"
)

// SpotifyTokenHeader carries the listener's Spotify access token. It never
// appears in request or response bodies.
const SpotifyTokenHeader = "X-Spotify-Token"

func withToken(r *http.Request, h audio.PlaybackHandle) audio.PlaybackHandle {
	if tok := strings.TrimSpace(r.Header.Get(SpotifyTokenHeader)); tok != "" {
		h.AuthToken = tok
	}
	return h
}

// currentVolume returns given when the caller sent one, zero included,
// otherwise asks the player. Nil leaves the DJ on its last known volume.
func (a *API) currentVolume(r *http.Request, h audio.PlaybackHandle, given *float64) *float64 {
	if given != nil || a.volume == nil || h.AuthToken == "" {
		return given
	}
	ctx, cancel := context.WithTimeout(r.Context(), volumeLookupTimeout)
	defer cancel()
	v, err := a.volume.PlaybackVolume(ctx, h.AuthToken)
	if err != nil {
		a.logger.Debug().Err(err).Msg("read playback volume failed")
		return nil
	}
	return &v
}

func (a *API) handleTuneIn(w http.ResponseWriter, r *http.Request) {
	var req dj.TuneInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		if req.UserID == "" {
			req.UserID = claims.UserID
		}
		if req.UserName == "" {
			req.UserName = claims.Name
		}
	}
	req.Handle = withToken(r, req.Handle)
	req.CurrentVolume = a.currentVolume(r, req.Handle, req.CurrentVolume)

	ann, err := a.dj.TuneIn(r.Context(), req)
	if err != nil {
		a.writeDJError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"announcement": ann,
		"status":       a.dj.Status(),
	})
}

func (a *API) handleTrackBoundary(w http.ResponseWriter, r *http.Request) {
	var req dj.TrackBoundary
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Handle = withToken(r, req.Handle)
	req.CurrentVolume = a.currentVolume(r, req.Handle, req.CurrentVolume)

	ann, err := a.dj.OnTrackBoundary(r.Context(), req)
	if err != nil {
		a.writeDJError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"announcement": ann})
}

func (a *API) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	var req dj.AnnounceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Handle = withToken(r, req.Handle)
	req.CurrentVolume = a.currentVolume(r, req.Handle, req.CurrentVolume)

	ann, err := a.dj.Announce(r.Context(), req)
	if err != nil {
		a.writeDJError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"announcement": ann})
}

func (a *API) handleStop(w http.ResponseWriter, r *http.Request) {
	a.dj.Stop()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopped"})
}

type preloadRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

func (a *API) handlePreload(w http.ResponseWriter, r *http.Request) {
	var req preloadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text_required")
		return
	}

	a.dj.Preload(r.Context(), req.Text, req.Voice)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "preloaded"})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.dj.Status())
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = n
	}

	items, err := a.dj.History(r.Context(), r.URL.Query().Get("station"), limit)
	if err != nil {
		a.logger.Error().Err(err).Msg("list announcement history failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) handleScript(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	seg, err := station.ParseSegmentType(q.Get("segment"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_segment")
		return
	}

	era := 0
	if raw := q.Get("era"); raw != "" {
		if era, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_era")
			return
		}
	}

	var data dj.LiveData
	if title := q.Get("title"); title != "" {
		data.Track = &dj.Track{Title: title, Artist: q.Get("artist")}
	}

	text, err := a.dj.Preview(q.Get("station"), seg, data, era)
	if err != nil {
		a.writeDJError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"segment": string(seg), "text": text})
}

func (a *API) writeDJError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dj.ErrNoSession):
		writeError(w, http.StatusConflict, "no_session")
	case errors.Is(err, dj.ErrBusy):
		writeError(w, http.StatusConflict, "busy")
	case errors.Is(err, station.ErrUnknownStation):
		writeError(w, http.StatusNotFound, "unknown_station")
	case errors.Is(err, station.ErrUnknownSegment):
		writeError(w, http.StatusBadRequest, "invalid_segment")
	default:
		a.logger.Error().Err(err).Msg("dj request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
