/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/friendsincode/airwave/internal/telemetry"
	"github.com/friendsincode/airwave/internal/version"
)

// maxAudioBytes bounds a provider response.
const maxAudioBytes = 16 << 20

// HTTPProvider posts synthesis requests to a JSON TTS endpoint and reads raw
// audio back.
type HTTPProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPProvider creates a provider for endpoint. timeout <= 0 means 15s.
func NewHTTPProvider(endpoint, apiKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type synthesizeBody struct {
	Text   string  `json:"text,omitempty"`
	SSML   string  `json:"ssml,omitempty"`
	Voice  string  `json:"voice"`
	Rate   float64 `json:"rate,omitempty"`
	Pitch  float64 `json:"pitch,omitempty"`
	Format string  `json:"format"`
}

// Synthesize implements Provider.
func (p *HTTPProvider) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" && req.SSML == "" {
		return nil, ErrEmptyText
	}

	payload, err := json.Marshal(synthesizeBody{
		Text:   req.Text,
		SSML:   req.SSML,
		Voice:  req.Voice,
		Rate:   req.Rate,
		Pitch:  req.Pitch,
		Format: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("encode tts request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()
	telemetry.SpeechSynthesisDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts provider returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("read tts audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts provider returned no audio")
	}
	return audio, nil
}
