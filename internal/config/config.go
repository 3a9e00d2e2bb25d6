/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment   string
	HTTPBind      string
	HTTPPort      int
	MetricsBind   string
	JWTSigningKey string // Empty disables auth on the DJ control routes (development only)
	DBBackend     DatabaseBackend
	DBDSN         string
	StationsFile  string // Optional YAML file overriding the built-in station table

	// Spotify Web API
	SpotifyAPIURL string

	// DJ envelope
	DuckVolume float64
	FadeIn     time.Duration
	FadeOut    time.Duration
	TTSVolume  float64
	RNGSeed    int64 // 0 seeds from the clock

	// Speech synthesis
	TTSEndpoint     string
	TTSAPIKey       string
	TTSVoice        string
	TTSTimeout      time.Duration
	SpeechCacheTTL  time.Duration
	SpeechCacheSize int
	PlayerBin       string // External audio player fed synthesized audio on stdin
	LocalVoiceBin   string // Local synthesizer used when the TTS provider fails

	// Shared speech cache
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Synthesized audio archive (S3 or compatible)
	S3Bucket       string
	S3Region       string
	S3Endpoint     string // For S3-compatible services (MinIO, Spaces, etc.)
	S3AccessKeyID  string
	S3SecretKey    string
	S3UsePathStyle bool

	// Cross-instance DJ events
	NATSURL string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnvAny([]string{"AIRWAVE_ENV", "ENVIRONMENT"}, "development"),
		HTTPBind:      getEnvAny([]string{"AIRWAVE_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:      getEnvIntAny([]string{"AIRWAVE_HTTP_PORT", "PORT"}, 8080),
		MetricsBind:   getEnvAny([]string{"AIRWAVE_METRICS_BIND"}, "127.0.0.1:9000"),
		JWTSigningKey: getEnvAny([]string{"AIRWAVE_JWT_SIGNING_KEY"}, ""),
		DBBackend:     DatabaseBackend(getEnvAny([]string{"AIRWAVE_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:         getEnvAny([]string{"AIRWAVE_DB_DSN", "DATABASE_URL"}, "airwave.db"),
		StationsFile:  getEnvAny([]string{"AIRWAVE_STATIONS_FILE"}, ""),

		SpotifyAPIURL: getEnvAny([]string{"AIRWAVE_SPOTIFY_API_URL", "SPOTIFY_API_URL"}, "https://api.spotify.com/v1"),

		DuckVolume: getEnvFloatAny([]string{"AIRWAVE_DUCK_VOLUME"}, 0.08),
		FadeIn:     time.Duration(getEnvIntAny([]string{"AIRWAVE_FADE_IN_MS"}, 600)) * time.Millisecond,
		FadeOut:    time.Duration(getEnvIntAny([]string{"AIRWAVE_FADE_OUT_MS"}, 600)) * time.Millisecond,
		TTSVolume:  getEnvFloatAny([]string{"AIRWAVE_TTS_VOLUME"}, 0.9),
		RNGSeed:    int64(getEnvIntAny([]string{"AIRWAVE_RNG_SEED"}, 0)),

		TTSEndpoint:     getEnvAny([]string{"AIRWAVE_TTS_ENDPOINT", "TTS_ENDPOINT"}, ""),
		TTSAPIKey:       getEnvAny([]string{"AIRWAVE_TTS_API_KEY", "TTS_API_KEY"}, ""),
		TTSVoice:        getEnvAny([]string{"AIRWAVE_TTS_VOICE"}, "en-US-Neural2-D"),
		TTSTimeout:      time.Duration(getEnvIntAny([]string{"AIRWAVE_TTS_TIMEOUT_SECONDS"}, 15)) * time.Second,
		SpeechCacheTTL:  time.Duration(getEnvIntAny([]string{"AIRWAVE_SPEECH_CACHE_TTL_MINUTES"}, 20)) * time.Minute,
		SpeechCacheSize: getEnvIntAny([]string{"AIRWAVE_SPEECH_CACHE_SIZE"}, 50),
		PlayerBin:       getEnvAny([]string{"AIRWAVE_PLAYER_BIN"}, "ffplay"),
		LocalVoiceBin:   getEnvAny([]string{"AIRWAVE_LOCAL_VOICE_BIN"}, "espeak-ng"),

		RedisEnabled:  getEnvBoolAny([]string{"AIRWAVE_REDIS_ENABLED"}, false),
		RedisAddr:     getEnvAny([]string{"AIRWAVE_REDIS_ADDR", "REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"AIRWAVE_REDIS_PASSWORD", "REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"AIRWAVE_REDIS_DB"}, 0),

		S3Bucket:       getEnvAny([]string{"AIRWAVE_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Region:       getEnvAny([]string{"AIRWAVE_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Endpoint:     getEnvAny([]string{"AIRWAVE_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3AccessKeyID:  getEnvAny([]string{"AIRWAVE_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretKey:    getEnvAny([]string{"AIRWAVE_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3UsePathStyle: getEnvBoolAny([]string{"AIRWAVE_S3_USE_PATH_STYLE", "S3_USE_PATH_STYLE"}, false),

		NATSURL: getEnvAny([]string{"AIRWAVE_NATS_URL", "NATS_URL"}, ""),

		TracingEnabled:    getEnvBoolAny([]string{"AIRWAVE_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"AIRWAVE_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"AIRWAVE_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("AIRWAVE_DB_DSN must be provided")
	}

	if cfg.DuckVolume < 0 || cfg.DuckVolume > 1 {
		return nil, fmt.Errorf("AIRWAVE_DUCK_VOLUME must be within [0,1], got %v", cfg.DuckVolume)
	}

	if cfg.TTSVolume < 0 || cfg.TTSVolume > 1 {
		return nil, fmt.Errorf("AIRWAVE_TTS_VOLUME must be within [0,1], got %v", cfg.TTSVolume)
	}

	if cfg.FadeIn < 0 || cfg.FadeOut < 0 {
		return nil, fmt.Errorf("fade durations must not be negative")
	}

	if cfg.SpeechCacheSize <= 0 {
		cfg.SpeechCacheSize = 50
	}

	if strings.EqualFold(cfg.Environment, "production") && cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("AIRWAVE_JWT_SIGNING_KEY must be set in production")
	}
	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"ENVIRONMENT":  "use AIRWAVE_ENV",
		"DATABASE_URL": "use AIRWAVE_DB_DSN",
		"TTS_ENDPOINT": "use AIRWAVE_TTS_ENDPOINT",
		"TTS_API_KEY":  "use AIRWAVE_TTS_API_KEY",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// S3Enabled reports whether the synthesized audio archive is configured.
func (c *Config) S3Enabled() bool {
	return c != nil && c.S3Bucket != ""
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
