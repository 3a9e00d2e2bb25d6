/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/airwave/internal/config"
	"github.com/friendsincode/airwave/internal/dj"
	"github.com/friendsincode/airwave/internal/logging"
	"github.com/friendsincode/airwave/internal/server"
	"github.com/friendsincode/airwave/internal/station"
	"github.com/friendsincode/airwave/internal/telemetry"
	"github.com/friendsincode/airwave/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "airwave",
	Short:   "Airwave - an AI radio DJ for Spotify",
	Long:    "Airwave talks between songs: it schedules announcements, writes their scripts, and ducks Spotify while it speaks.",
	Version: version.Version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Airwave server",
	Long:  "Start the HTTP API that drives the DJ for a radio engine",
	RunE:  runServe,
}

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Print a generated announcement script",
	RunE:  runScript,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Simulate announcement scheduling over a run of songs",
	RunE:  runSchedule,
}

var (
	flagStation  string
	flagSegment  string
	flagSeed     int64
	flagEra      int
	flagTitle    string
	flagArtist   string
	flagWeather  string
	flagTempC    float64
	flagHeadline string
	flagSongs    int
	flagStations string
)

func init() {
	for _, c := range []*cobra.Command{scriptCmd, scheduleCmd} {
		c.Flags().StringVar(&flagStation, "station", station.DefaultStationID, "station id")
		c.Flags().Int64Var(&flagSeed, "seed", 0, "random seed (0 uses the clock)")
		c.Flags().StringVar(&flagStations, "stations-file", "", "optional YAML station table")
	}

	scriptCmd.Flags().StringVar(&flagSegment, "segment", string(station.SegmentBetween), "segment type")
	scriptCmd.Flags().IntVar(&flagEra, "era", 0, "Time Machine decade, 0 for off")
	scriptCmd.Flags().StringVar(&flagTitle, "title", "", "track title")
	scriptCmd.Flags().StringVar(&flagArtist, "artist", "", "track artist")
	scriptCmd.Flags().StringVar(&flagWeather, "weather", "", "weather description")
	scriptCmd.Flags().Float64Var(&flagTempC, "temp", 0, "temperature in Celsius")
	scriptCmd.Flags().StringVar(&flagHeadline, "headline", "", "news headline")

	scheduleCmd.Flags().IntVar(&flagSongs, "songs", 30, "number of songs to simulate")

	rootCmd.AddCommand(serveCmd, scriptCmd, scheduleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Str("version", version.Version).Msg("Airwave starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	httpServer := srv.HTTPServer()
	metricsServer := srv.MetricsServer()

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully...")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(timeoutCtx); err != nil {
			logger.Error().Err(err).Msg("metrics shutdown failed")
		}
	}

	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown cleanup failed")
	}

	logger.Info().Msg("Airwave stopped")
	return nil
}

func loadRegistry() (*station.Registry, error) {
	if flagStations == "" {
		return station.DefaultRegistry(), nil
	}
	return station.LoadFile(flagStations, station.DefaultProfiles())
}

func newRand(offset int64) *rand.Rand {
	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed + offset))
}

func runScript(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	profile, err := registry.Resolve(flagStation)
	if err != nil {
		return err
	}
	seg, err := station.ParseSegmentType(flagSegment)
	if err != nil {
		return err
	}

	now := time.Now()
	opts := dj.ScriptOptions{
		StationName: profile.Label,
		TimeOfDay:   dj.TimeOfDayAt(now),
		Now:         now,
		Era:         flagEra,
	}
	if flagTitle != "" {
		opts.Track = &dj.Track{Title: flagTitle, Artist: flagArtist}
	}
	if flagWeather != "" {
		opts.Weather = &dj.Weather{Description: flagWeather, TempC: flagTempC}
	}
	if flagHeadline != "" {
		opts.News = &dj.News{Headlines: []string{flagHeadline}}
	}

	gen := dj.NewGenerator(dj.NewPhraseBank(), newRand(1))
	fmt.Fprintln(cmd.OutOrStdout(), gen.Generate(profile.ID, seg, opts))
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	profile, err := registry.Resolve(flagStation)
	if err != nil {
		return err
	}
	if flagSongs <= 0 {
		return fmt.Errorf("--songs must be positive")
	}

	sched := dj.NewScheduler(newRand(0))
	out := cmd.OutOrStdout()

	since := 0
	until := sched.SongsUntilAnnouncement(profile)
	for song := 1; song <= flagSongs; song++ {
		since++
		if since < until {
			fmt.Fprintf(out, "song %3d  music\n", song)
			continue
		}
		primary := sched.PickAnnouncementType(profile, since, true, true)
		line := string(primary)
		if sched.ShouldPrependJingle(primary, profile) {
			line = string(station.SegmentJingle) + " + " + line
		}
		fmt.Fprintf(out, "song %3d  %s (after %d songs)\n", song, line, since)
		since = 0
		until = sched.SongsUntilAnnouncement(profile)
	}
	return nil
}
