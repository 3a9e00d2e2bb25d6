/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/airwave/internal/api"
	"github.com/friendsincode/airwave/internal/audio"
	"github.com/friendsincode/airwave/internal/cache"
	"github.com/friendsincode/airwave/internal/config"
	"github.com/friendsincode/airwave/internal/db"
	"github.com/friendsincode/airwave/internal/dj"
	"github.com/friendsincode/airwave/internal/eventbus"
	"github.com/friendsincode/airwave/internal/events"
	"github.com/friendsincode/airwave/internal/prefs"
	"github.com/friendsincode/airwave/internal/speech"
	"github.com/friendsincode/airwave/internal/spotify"
	"github.com/friendsincode/airwave/internal/station"
	"github.com/friendsincode/airwave/internal/storage"
	"github.com/friendsincode/airwave/internal/telemetry"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg           *config.Config
	logger        zerolog.Logger
	router        chi.Router
	httpServer    *http.Server
	metricsServer *http.Server
	closers       []func() error

	db       *gorm.DB
	cache    *cache.Cache
	bus      *events.Bus
	bridge   *eventbus.NATSBridge
	registry *station.Registry
	speech   *speech.Client
	audio    *audio.Coordinator
	dj       *dj.Service
	api      *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}
	if cfg.JWTSigningKey == "" {
		logger.Warn().Msg("AIRWAVE_JWT_SIGNING_KEY is empty, DJ control routes are unauthenticated")
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("airwave-api"))
	router.Use(telemetry.MetricsMiddleware)
	// The events websocket is long lived and must not be cut by the timeout.
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(60 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		_ = srv.Close()
		return nil, err
	}

	if cfg.MetricsBind != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler())
		srv.metricsServer = &http.Server{
			Addr:              cfg.MetricsBind,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		// WriteTimeout stays 0 for the events websocket; the middleware timeout covers the rest.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	s.DeferClose(func() error { return db.Close(database) })
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database

	registry := station.DefaultRegistry()
	if s.cfg.StationsFile != "" {
		registry, err = station.LoadFile(s.cfg.StationsFile, station.DefaultProfiles())
		if err != nil {
			return fmt.Errorf("load stations: %w", err)
		}
		s.logger.Info().Str("path", s.cfg.StationsFile).Int("stations", len(registry.List())).Msg("station table loaded")
	}
	s.registry = registry

	s.speech = s.buildSpeech()

	spotifyClient := spotify.NewClient(s.cfg.SpotifyAPIURL, s.logger)

	if s.cfg.NATSURL != "" {
		natsCfg := eventbus.DefaultNATSConfig()
		natsCfg.URL = s.cfg.NATSURL
		bridge, err := eventbus.NewNATSBridge(natsCfg, s.bus, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("NATS unavailable, DJ events stay local")
		} else if err := bridge.Start(); err != nil {
			s.logger.Warn().Err(err).Msg("NATS subscribe failed, DJ events stay local")
			_ = bridge.Close()
		} else {
			s.bridge = bridge
			s.DeferClose(bridge.Close)
		}
	}
	publisher := s.publisher()

	s.audio = audio.NewCoordinator(spotifyClient, s.speech, s.logger,
		audio.WithDefaults(audio.Options{
			DuckVolume: s.cfg.DuckVolume,
			FadeIn:     s.cfg.FadeIn,
			FadeOut:    s.cfg.FadeOut,
			TTSVolume:  s.cfg.TTSVolume,
			Voice:      s.cfg.TTSVoice,
		}),
		audio.WithStateHook(func(state audio.State) {
			publisher.Publish(events.EventAudioState, events.Payload{"state": string(state)})
		}),
	)

	seed := s.cfg.RNGSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	userStore := prefs.NewStore(database)
	s.dj = dj.NewService(dj.ServiceDeps{
		Registry:  registry,
		Scheduler: dj.NewScheduler(rand.New(rand.NewSource(seed))),
		Generator: dj.NewGenerator(dj.NewPhraseBank(), rand.New(rand.NewSource(seed+1))),
		Audio:     s.audio,
		Users: func(userID string) dj.KeyValueStore {
			return userStore.ForUser(userID)
		},
		History: dj.NewGormHistory(database),
		Events:  publisher,
		Logger:  s.logger,
	})
	s.DeferClose(func() error {
		s.audio.Stop()
		s.dj.Wait()
		return nil
	})

	var speechCache api.CacheFlusher
	if s.cache != nil {
		speechCache = s.cache
	}
	s.api = api.New(s.dj, registry, s.bus, spotifyClient, speechCache, []byte(s.cfg.JWTSigningKey), s.logger)
	return nil
}

// buildSpeech assembles the synthesis chain: memory cache, then Redis, then
// S3, then the provider, then the local voice.
func (s *Server) buildSpeech() *speech.Client {
	opts := []speech.ClientOption{
		speech.WithDefaultVoice(s.cfg.TTSVoice),
		speech.WithCache(s.cfg.SpeechCacheTTL, s.cfg.SpeechCacheSize),
	}

	if s.cfg.RedisEnabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = s.cfg.RedisAddr
		cacheCfg.RedisPassword = s.cfg.RedisPassword
		cacheCfg.RedisDB = s.cfg.RedisDB
		cacheCfg.SpeechTTL = s.cfg.SpeechCacheTTL
		speechCache, err := cache.New(cacheCfg, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
		} else {
			s.cache = speechCache
			s.DeferClose(speechCache.Close)
			opts = append(opts, speech.WithBlobStore("redis", speechCache))
		}
	}

	if s.cfg.S3Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		archive, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:       s.cfg.S3Bucket,
			Region:       s.cfg.S3Region,
			Endpoint:     s.cfg.S3Endpoint,
			AccessKeyID:  s.cfg.S3AccessKeyID,
			SecretKey:    s.cfg.S3SecretKey,
			UsePathStyle: s.cfg.S3UsePathStyle,
		}, s.logger)
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Msg("S3 speech archive unavailable, continuing without it")
		} else {
			opts = append(opts, speech.WithBlobStore("s3", archive))
		}
	}

	var provider speech.Provider
	if s.cfg.TTSEndpoint != "" {
		provider = speech.NewHTTPProvider(s.cfg.TTSEndpoint, s.cfg.TTSAPIKey, s.cfg.TTSTimeout)
	} else {
		s.logger.Warn().Msg("no TTS endpoint configured, speaking with the local voice only")
	}

	var player speech.Player
	if s.cfg.PlayerBin != "" {
		player = speech.NewExecPlayer(s.cfg.PlayerBin, s.logger)
	}
	var local speech.LocalVoice
	if s.cfg.LocalVoiceBin != "" {
		local = speech.NewExecLocalVoice(s.cfg.LocalVoiceBin, s.logger)
	}

	return speech.NewClient(provider, player, local, s.logger, opts...)
}

// publisher returns the NATS bridge when connected so events reach every
// instance; otherwise the local bus.
func (s *Server) publisher() events.Publisher {
	if s.bridge != nil {
		return s.bridge
	}
	return s.bus
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// MetricsServer exposes the Prometheus listener, or nil when disabled.
func (s *Server) MetricsServer() *http.Server {
	return s.metricsServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	if s.db == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			db.UpdateConnectionMetrics(s.db)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := `{"status":"ok"`
		if s.cache != nil {
			if s.cache.IsAvailable() {
				response += `,"speech_cache":true`
			} else {
				response += `,"speech_cache":false`
			}
		}
		if s.bridge != nil {
			response += `,"nats":true`
		}
		response += `}`
		_, _ = w.Write([]byte(response))
	})

	if s.metricsServer == nil {
		s.router.Handle("/metrics", telemetry.Handler())
	}

	s.api.Routes(s.router)
}
