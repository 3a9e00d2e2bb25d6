/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "airwave_api_requests_total", Help: "HTTP requests served"},
		[]string{"method", "endpoint", "status"},
	)
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airwave_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	APIActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "airwave_api_active_connections", Help: "In-flight HTTP requests"},
	)
	APIWebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "airwave_api_websocket_connections", Help: "Open event websockets"},
	)
)

// DJ metrics
var (
	AnnouncementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "airwave_dj_announcements_total", Help: "Announcements planned"},
		[]string{"station", "segment"},
	)
	DuckingSequencesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "airwave_audio_ducking_sequences_total", Help: "Duck/speak/restore envelopes by outcome"},
		[]string{"outcome"},
	)
	VolumeStepFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "airwave_audio_volume_step_failures_total", Help: "Failed volume-set calls"},
	)
	SpeechStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "airwave_speech_stage_total", Help: "Speech fallback stage results"},
		[]string{"stage", "outcome"},
	)
	SpeechCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "airwave_speech_cache_lookups_total", Help: "Speech cache lookups by tier"},
		[]string{"tier", "result"},
	)
	SpeechSynthesisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "airwave_speech_synthesis_duration_seconds",
			Help:    "TTS provider latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
		},
	)
)

// Database metrics
var (
	DatabaseQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airwave_db_query_duration_seconds",
			Help:    "Database operation latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation", "table"},
	)
	DatabaseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "airwave_db_errors_total", Help: "Failed database operations"},
		[]string{"operation"},
	)
	DatabaseConnectionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "airwave_db_connections_open", Help: "Open database connections"},
	)
)

var registerOnce sync.Once

// RegisterMetrics registers all collectors with the default registry. Safe to call twice.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			APIRequestsTotal,
			APIRequestDuration,
			APIActiveConnections,
			APIWebSocketConnections,
			AnnouncementsTotal,
			DuckingSequencesTotal,
			VolumeStepFailuresTotal,
			SpeechStageTotal,
			SpeechCacheLookups,
			SpeechSynthesisDuration,
			DatabaseQueryDuration,
			DatabaseErrorsTotal,
			DatabaseConnectionsOpen,
		)
	})
}

// Handler exposes metrics endpoint.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
