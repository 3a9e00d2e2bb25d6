/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import "net/http"

// handleSpeechCacheFlush drops every cached utterance from the shared tier.
func (a *API) handleSpeechCacheFlush(w http.ResponseWriter, r *http.Request) {
	if a.speechCache == nil {
		writeError(w, http.StatusServiceUnavailable, "cache_unavailable")
		return
	}
	if err := a.speechCache.FlushAll(r.Context()); err != nil {
		a.logger.Error().Err(err).Msg("speech cache flush failed")
		writeError(w, http.StatusInternalServerError, "flush_failed")
		return
	}
	a.logger.Info().Msg("speech cache flushed")
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}
