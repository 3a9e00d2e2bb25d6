/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package audio ducks the music around spoken DJ segments.
package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/airwave/internal/speech"
	"github.com/friendsincode/airwave/internal/telemetry"
)

// State is the coordinator's position in the duck/speak/restore envelope.
type State string

const (
	StateIdle      State = "idle"
	StateDucking   State = "ducking"
	StateSpeaking  State = "speaking"
	StateRestoring State = "restoring"
)

// Envelope defaults.
const (
	DefaultDuckVolume = 0.08
	DefaultFadeIn     = 600 * time.Millisecond
	DefaultFadeOut    = 600 * time.Millisecond
	DefaultTTSVolume  = 0.9

	PreSpeechPause  = 200 * time.Millisecond
	PostSpeechPause = 300 * time.Millisecond
	SegmentGap      = 400 * time.Millisecond
)

// ErrBusy is returned when a request arrives while another sequence is
// running. The device is left untouched.
var ErrBusy = errors.New("audio: coordinator busy")

// VolumeSetter changes the music volume on the listener's device.
type VolumeSetter interface {
	SetVolume(ctx context.Context, authToken, deviceID string, percent int) error
}

// Speaker synthesizes and plays speech.
type Speaker interface {
	Speak(ctx context.Context, text string, opts speech.SpeakOptions) error
	Stop()
	Preload(ctx context.Context, text, voice string) error
}

// PlaybackHandle identifies the device whose volume is ducked.
type PlaybackHandle struct {
	AuthToken string `json:"-"`
	DeviceID  string `json:"device_id,omitempty"`
}

// Options tune one envelope. Zero fields take the coordinator defaults.
type Options struct {
	DuckVolume float64       `json:"duck_volume,omitempty"`
	FadeIn     time.Duration `json:"fade_in,omitempty"`
	FadeOut    time.Duration `json:"fade_out,omitempty"`
	TTSVolume  float64       `json:"tts_volume,omitempty"`
	Voice      string        `json:"voice,omitempty"`
	Rate       float64       `json:"rate,omitempty"`
	Pitch      float64       `json:"pitch,omitempty"`
}

// DefaultOptions returns the stock envelope.
func DefaultOptions() Options {
	return Options{
		DuckVolume: DefaultDuckVolume,
		FadeIn:     DefaultFadeIn,
		FadeOut:    DefaultFadeOut,
		TTSVolume:  DefaultTTSVolume,
	}
}

// Segment is one spoken entry of a sequence. Voice, Rate and Pitch override
// the envelope options when set.
type Segment struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice,omitempty"`
	Rate  float64 `json:"rate,omitempty"`
	Pitch float64 `json:"pitch,omitempty"`
}

// Coordinator runs at most one duck/speak/restore envelope at a time.
// Requests that arrive while busy are dropped, not queued.
type Coordinator struct {
	volume   VolumeSetter
	speaker  Speaker
	logger   zerolog.Logger
	defaults Options
	sleepFn  func(context.Context, time.Duration) error
	onState  func(State)

	mu     sync.Mutex
	busy   bool
	state  State
	gen    uint64
	cancel context.CancelFunc
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithDefaults replaces the stock envelope options. Zero fields keep the stock value.
func WithDefaults(o Options) CoordinatorOption {
	return func(c *Coordinator) { c.defaults = mergeOptions(o, c.defaults) }
}

// WithSleeper replaces the pause implementation. Tests use it to run instantly.
func WithSleeper(fn func(context.Context, time.Duration) error) CoordinatorOption {
	return func(c *Coordinator) { c.sleepFn = fn }
}

// WithStateHook is called on every state transition, outside the lock.
func WithStateHook(fn func(State)) CoordinatorOption {
	return func(c *Coordinator) { c.onState = fn }
}

// NewCoordinator creates a coordinator driving volume and speaker.
func NewCoordinator(volume VolumeSetter, speaker Speaker, logger zerolog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		volume:   volume,
		speaker:  speaker,
		logger:   logger.With().Str("component", "audio_coordinator").Logger(),
		defaults: DefaultOptions(),
		sleepFn:  sleepContext,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether an envelope is in progress.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// State returns the current envelope state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PlaySegment ducks, speaks text, and restores the volume. Returns ErrBusy
// without touching the device while another sequence is running.
// Returns the speech error after the original volume has been put back.
func (c *Coordinator) PlaySegment(ctx context.Context, text string, h PlaybackHandle, currentVolume float64, opts Options) error {
	return c.envelope(ctx, h, currentVolume, opts, func(ctx context.Context, o Options) error {
		return c.speak(ctx, Segment{Text: text}, o)
	})
}

// PlaySegments plays segs back to back inside one envelope with SegmentGap
// between entries. Returns ErrBusy while busy and nil when segs is empty. Stop ends the
// sequence before the next entry; the volume is restored either way.
func (c *Coordinator) PlaySegments(ctx context.Context, segs []Segment, h PlaybackHandle, currentVolume float64, opts Options) error {
	if len(segs) == 0 {
		return nil
	}
	return c.envelope(ctx, h, currentVolume, opts, func(ctx context.Context, o Options) error {
		for i, seg := range segs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if i > 0 {
				if err := c.sleep(ctx, SegmentGap); err != nil {
					return err
				}
			}
			if err := c.speak(ctx, seg, o); err != nil {
				return err
			}
		}
		return nil
	})
}

// Stop aborts the current sequence, silences speech and clears busy at once.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	wasBusy := c.busy
	c.cancel = nil
	c.busy = false
	c.state = StateIdle
	hook := c.onState
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.speaker.Stop()
	if wasBusy && hook != nil {
		hook(StateIdle)
	}
}

// Preload warms the speech cache for text. Failures are ignored.
func (c *Coordinator) Preload(ctx context.Context, text, voice string) {
	if err := c.speaker.Preload(ctx, text, voice); err != nil {
		c.logger.Debug().Err(err).Msg("preload failed")
	}
}

func (c *Coordinator) envelope(ctx context.Context, h PlaybackHandle, currentVolume float64, opts Options, body func(context.Context, Options) error) error {
	gen, runCtx, cancel, ok := c.begin(ctx)
	if !ok {
		c.logger.Debug().Msg("coordinator busy, dropping request")
		return ErrBusy
	}
	defer cancel()
	defer c.finish(gen)

	spanCtx, span := telemetry.StartSpan(ctx, "airwave/audio", "coordinator.envelope")
	defer span.End()

	o := mergeOptions(opts, c.defaults)
	origPct := ToPercent(currentVolume)
	// A device already at or below the duck level is left where it is.
	duckPct := min(ToPercent(o.DuckVolume), origPct)
	telemetry.AddSpanAttributes(span, map[string]any{
		"volume.original": origPct,
		"volume.duck":     duckPct,
		"device_id":       h.DeviceID,
	})

	c.setState(gen, StateDucking)
	level, err := c.fade(runCtx, gen, h, origPct, duckPct, o.FadeIn)
	if err == nil {
		err = c.sleep(runCtx, PreSpeechPause)
	}
	if err == nil {
		c.setState(gen, StateSpeaking)
		err = body(runCtx, o)
	}
	if err == nil {
		err = c.sleep(runCtx, PostSpeechPause)
	}

	restoreCtx := context.WithoutCancel(spanCtx)
	c.setState(gen, StateRestoring)

	switch {
	case err == nil:
		c.fade(restoreCtx, gen, h, duckPct, origPct, o.FadeOut)
		telemetry.DuckingSequencesTotal.WithLabelValues("completed").Inc()
		return nil
	case runCtx.Err() != nil:
		c.fade(restoreCtx, gen, h, level, origPct, o.FadeOut)
		telemetry.DuckingSequencesTotal.WithLabelValues("cancelled").Inc()
		// Stop() is not an error; a cancelled caller context is.
		return ctx.Err()
	default:
		telemetry.RecordError(span, err)
		if c.current(gen) {
			if serr := c.volume.SetVolume(restoreCtx, h.AuthToken, h.DeviceID, origPct); serr != nil {
				c.logger.Warn().Err(serr).Int("percent", origPct).Msg("failed to restore volume")
			}
		}
		telemetry.DuckingSequencesTotal.WithLabelValues("failed").Inc()
		c.logger.Error().Err(err).Msg("segment playback failed")
		return err
	}
}

func (c *Coordinator) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return 0, nil, nil, false
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.gen++
	c.busy = true
	c.cancel = cancel
	return c.gen, runCtx, cancel, true
}

// current reports whether gen is still the newest envelope. A restore left
// running after Stop gives way once another envelope has begun.
func (c *Coordinator) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// finish clears busy unless Stop already did or a newer envelope started.
func (c *Coordinator) finish(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || !c.busy {
		c.mu.Unlock()
		return
	}
	c.busy = false
	c.cancel = nil
	c.state = StateIdle
	hook := c.onState
	c.mu.Unlock()

	if hook != nil {
		hook(StateIdle)
	}
}

func (c *Coordinator) setState(gen uint64, s State) {
	c.mu.Lock()
	if c.gen != gen || !c.busy {
		c.mu.Unlock()
		return
	}
	c.state = s
	hook := c.onState
	c.mu.Unlock()

	if hook != nil {
		hook(s)
	}
}

func (c *Coordinator) speak(ctx context.Context, seg Segment, o Options) error {
	opts := speech.SpeakOptions{
		Volume: o.TTSVolume,
		Voice:  o.Voice,
		Rate:   o.Rate,
		Pitch:  o.Pitch,
	}
	if seg.Voice != "" {
		opts.Voice = seg.Voice
	}
	if seg.Rate != 0 {
		opts.Rate = seg.Rate
	}
	if seg.Pitch != 0 {
		opts.Pitch = seg.Pitch
	}
	return c.speaker.Speak(ctx, seg.Text, opts)
}

func (c *Coordinator) sleep(ctx context.Context, d time.Duration) error {
	return c.sleepFn(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func mergeOptions(o, def Options) Options {
	if o.DuckVolume <= 0 {
		o.DuckVolume = def.DuckVolume
	}
	if o.FadeIn <= 0 {
		o.FadeIn = def.FadeIn
	}
	if o.FadeOut <= 0 {
		o.FadeOut = def.FadeOut
	}
	if o.TTSVolume <= 0 {
		o.TTSVolume = def.TTSVolume
	}
	if o.Voice == "" {
		o.Voice = def.Voice
	}
	if o.Rate == 0 {
		o.Rate = def.Rate
	}
	if o.Pitch == 0 {
		o.Pitch = def.Pitch
	}
	return o
}
