/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package spotify talks to the Spotify Web API player endpoints.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/friendsincode/airwave/internal/version"
)

// DefaultBaseURL is the public Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// ErrNoActiveDevice is returned when the listener has nothing playing.
var ErrNoActiveDevice = errors.New("no active playback device")

// APIError is a non-2xx Web API response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify api: %d %s", e.Status, e.Message)
}

// Client is a minimal player API client. It satisfies audio.VolumeSetter.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a client rooted at baseURL. Empty means DefaultBaseURL.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With().Str("component", "spotify").Logger(),
	}
}

// SetVolume sets the device volume. percent is clamped to [0,100]; an empty
// deviceID targets the active device.
func (c *Client) SetVolume(ctx context.Context, authToken, deviceID string, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	q := url.Values{}
	q.Set("volume_percent", strconv.Itoa(percent))
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/me/player/volume?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build volume request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type playerState struct {
	Device *struct {
		ID            string `json:"id"`
		VolumePercent *int   `json:"volume_percent"`
	} `json:"device"`
}

// PlaybackVolume returns the active device's volume in [0,1].
func (c *Client) PlaybackVolume(ctx context.Context, authToken string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me/player", nil)
	if err != nil {
		return 0, fmt.Errorf("build player request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get player: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return 0, ErrNoActiveDevice
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, readAPIError(resp)
	}

	var st playerState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return 0, fmt.Errorf("decode player state: %w", err)
	}
	if st.Device == nil || st.Device.VolumePercent == nil {
		return 0, ErrNoActiveDevice
	}
	return float64(*st.Device.VolumePercent) / 100, nil
}

func readAPIError(resp *http.Response) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error.Message != "" {
		msg = body.Error.Message
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
