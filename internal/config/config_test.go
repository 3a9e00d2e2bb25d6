package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AIRWAVE_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Fatalf("expected sqlite default backend, got %q", cfg.DBBackend)
	}
	if cfg.DuckVolume != 0.08 {
		t.Fatalf("unexpected duck volume: %v", cfg.DuckVolume)
	}
	if cfg.FadeIn != 600*time.Millisecond || cfg.FadeOut != 600*time.Millisecond {
		t.Fatalf("unexpected fades: in=%v out=%v", cfg.FadeIn, cfg.FadeOut)
	}
	if cfg.SpeechCacheTTL != 20*time.Minute || cfg.SpeechCacheSize != 50 {
		t.Fatalf("unexpected speech cache settings: ttl=%v size=%d", cfg.SpeechCacheTTL, cfg.SpeechCacheSize)
	}
	if cfg.S3Enabled() {
		t.Fatal("expected S3 archive to be disabled without a bucket")
	}
}

func TestLoadReadsDJEnvKeys(t *testing.T) {
	t.Setenv("AIRWAVE_DUCK_VOLUME", "0.2")
	t.Setenv("AIRWAVE_FADE_IN_MS", "1000")
	t.Setenv("AIRWAVE_TTS_ENDPOINT", "http://tts.local/synthesize")
	t.Setenv("AIRWAVE_S3_BUCKET", "dj-audio")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DuckVolume != 0.2 {
		t.Fatalf("unexpected duck volume: %v", cfg.DuckVolume)
	}
	if cfg.FadeIn != time.Second {
		t.Fatalf("unexpected fade in: %v", cfg.FadeIn)
	}
	if cfg.TTSEndpoint != "http://tts.local/synthesize" {
		t.Fatalf("unexpected tts endpoint: %q", cfg.TTSEndpoint)
	}
	if !cfg.S3Enabled() {
		t.Fatal("expected S3 archive to be enabled")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"backend", "AIRWAVE_DB_BACKEND", "oracle"},
		{"duck volume", "AIRWAVE_DUCK_VOLUME", "1.5"},
		{"tts volume", "AIRWAVE_TTS_VOLUME", "-0.1"},
		{"fade", "AIRWAVE_FADE_OUT_MS", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%s to be rejected", tt.key, tt.val)
			}
		})
	}
}

func TestLoadProductionRequiresSigningKey(t *testing.T) {
	t.Setenv("AIRWAVE_ENV", "production")
	t.Setenv("AIRWAVE_JWT_SIGNING_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected production config load to fail without a signing key")
	}

	t.Setenv("AIRWAVE_JWT_SIGNING_KEY", "supersecret")
	if _, err := Load(); err != nil {
		t.Fatalf("expected production config load with signing key to succeed: %v", err)
	}
}

func TestLoadReportsLegacyEnvWarnings(t *testing.T) {
	t.Setenv("TTS_API_KEY", "legacy")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.LegacyEnvWarnings) == 0 {
		t.Fatal("expected legacy env warnings")
	}
}
