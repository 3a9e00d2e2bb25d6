/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/airwave/internal/telemetry"
)

// DefaultVoice is used when neither the call nor the client names a voice.
const DefaultVoice = "en-US-Neural2-D"

var errNoProvider = errors.New("no speech provider configured")

type outcome int

const (
	outcomePlayed outcome = iota
	outcomeTryNext
	outcomeSuperseded
)

func (o outcome) String() string {
	switch o {
	case outcomePlayed:
		return "played"
	case outcomeSuperseded:
		return "superseded"
	default:
		return "try_next"
	}
}

type job struct {
	token uint64
	text  string
	opts  SpeakOptions
}

type stage struct {
	name string
	run  func(ctx context.Context, j job) (outcome, error)
}

type namedTier struct {
	name  string
	store BlobStore
}

// Client speaks text through an ordered fallback chain: network synthesis,
// then the local voice, then silence. Only the latest Speak call is ever
// audible.
type Client struct {
	provider Provider
	player   Player
	local    LocalVoice
	logger   zerolog.Logger

	voice   string
	blobTTL time.Duration
	memory  *memoryCache
	tiers   []namedTier
	stages  []stage

	token atomic.Uint64

	// playMu is held from the final token check until output ends, so a
	// stale call can never start after a newer one has claimed the device.
	playMu sync.Mutex
	mu     sync.Mutex
	active context.CancelFunc
}

// ClientOption customizes a Client.
type ClientOption func(*clientSettings)

type clientSettings struct {
	voice   string
	ttl     time.Duration
	entries int
	now     func() time.Time
	tiers   []namedTier
}

// WithDefaultVoice sets the voice used when SpeakOptions.Voice is empty.
func WithDefaultVoice(voice string) ClientOption {
	return func(s *clientSettings) { s.voice = voice }
}

// WithCache overrides the memory cache TTL and capacity.
func WithCache(ttl time.Duration, entries int) ClientOption {
	return func(s *clientSettings) {
		s.ttl = ttl
		s.entries = entries
	}
}

// WithCacheClock replaces time.Now for cache expiry.
func WithCacheClock(now func() time.Time) ClientOption {
	return func(s *clientSettings) { s.now = now }
}

// WithBlobStore adds a shared cache tier consulted after a memory miss.
// Tiers are tried in the order added.
func WithBlobStore(name string, store BlobStore) ClientOption {
	return func(s *clientSettings) {
		if store != nil {
			s.tiers = append(s.tiers, namedTier{name: name, store: store})
		}
	}
}

// NewClient creates a speech client. provider, player and local may be nil;
// the corresponding stage is then skipped.
func NewClient(provider Provider, player Player, local LocalVoice, logger zerolog.Logger, opts ...ClientOption) *Client {
	s := clientSettings{
		voice:   DefaultVoice,
		ttl:     DefaultCacheTTL,
		entries: DefaultCacheEntries,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	c := &Client{
		provider: provider,
		player:   player,
		local:    local,
		logger:   logger.With().Str("component", "speech").Logger(),
		voice:    s.voice,
		blobTTL:  s.ttl,
		memory:   newMemoryCache(s.ttl, s.entries, s.now),
		tiers:    s.tiers,
	}
	c.stages = []stage{
		{name: "network", run: c.speakNetwork},
		{name: "local", run: c.speakLocal},
	}
	return c
}

// Speak plays text and returns when playback ends. Synthesis and playback
// failures are logged, never returned; the worst case is silence.
func (c *Client) Speak(ctx context.Context, text string, opts SpeakOptions) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if opts.Voice == "" {
		opts.Voice = c.voice
	}

	j := job{token: c.supersede(), text: text, opts: opts}

	ctx, span := telemetry.StartSpan(ctx, "airwave/speech", "speech.speak")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{"voice": opts.Voice, "chars": len(text)})

	for _, st := range c.stages {
		out, err := st.run(ctx, j)
		telemetry.SpeechStageTotal.WithLabelValues(st.name, out.String()).Inc()
		switch out {
		case outcomePlayed:
			return nil
		case outcomeSuperseded:
			c.logger.Debug().Str("stage", st.name).Msg("speech superseded")
			return nil
		default:
			c.logger.Warn().Err(err).Str("stage", st.name).Msg("speech stage failed, trying next")
		}
	}

	c.logger.Warn().Msg("all speech stages failed, skipping segment")
	return nil
}

// Stop silences current playback and cancels pending Speak calls.
func (c *Client) Stop() {
	c.supersede()
}

// Preload synthesizes text into the cache without playing it.
func (c *Client) Preload(ctx context.Context, text, voice string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if voice == "" {
		voice = c.voice
	}
	_, err := c.fetch(ctx, text, SpeakOptions{Voice: voice})
	return err
}

func (c *Client) haltOutput() {
	if c.player != nil {
		c.player.Stop()
	}
	if c.local != nil {
		c.local.Stop()
	}
}

// supersede invalidates every earlier job, cancels the one holding the
// device and silences output. Returns the new token.
func (c *Client) supersede() uint64 {
	c.mu.Lock()
	tok := c.token.Add(1)
	cancel := c.active
	c.active = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.haltOutput()
	return tok
}

// claim takes the device for j. It fails when j has been superseded. The
// returned context is cancelled by the next supersede; release must be called
// once output ends.
func (c *Client) claim(ctx context.Context, j job) (context.Context, func(), bool) {
	c.playMu.Lock()
	c.mu.Lock()
	if c.superseded(ctx, j) {
		c.mu.Unlock()
		c.playMu.Unlock()
		return nil, nil, false
	}
	playCtx, cancel := context.WithCancel(ctx)
	c.active = cancel
	c.mu.Unlock()

	release := func() {
		cancel()
		c.mu.Lock()
		if c.token.Load() == j.token {
			c.active = nil
		}
		c.mu.Unlock()
		c.playMu.Unlock()
	}
	return playCtx, release, true
}

func (c *Client) superseded(ctx context.Context, j job) bool {
	return c.token.Load() != j.token || ctx.Err() != nil
}

func (c *Client) speakNetwork(ctx context.Context, j job) (outcome, error) {
	if c.player == nil {
		return outcomeTryNext, errors.New("no audio player configured")
	}
	audio, err := c.fetch(ctx, j.text, j.opts)
	if c.superseded(ctx, j) {
		return outcomeSuperseded, nil
	}
	if err != nil {
		return outcomeTryNext, err
	}
	playCtx, release, ok := c.claim(ctx, j)
	if !ok {
		return outcomeSuperseded, nil
	}
	err = c.player.Play(playCtx, audio, j.opts.Volume)
	release()
	if err != nil {
		if c.superseded(ctx, j) {
			return outcomeSuperseded, nil
		}
		return outcomeTryNext, err
	}
	return outcomePlayed, nil
}

func (c *Client) speakLocal(ctx context.Context, j job) (outcome, error) {
	if c.local == nil {
		return outcomeTryNext, ErrNoLocalVoice
	}
	playCtx, release, ok := c.claim(ctx, j)
	if !ok {
		return outcomeSuperseded, nil
	}
	err := c.local.Speak(playCtx, j.text, LanguageOf(j.opts.Voice), j.opts.Volume, j.opts.Rate, j.opts.Pitch)
	release()
	if err != nil {
		if c.superseded(ctx, j) {
			return outcomeSuperseded, nil
		}
		return outcomeTryNext, err
	}
	return outcomePlayed, nil
}

// fetch returns audio for text from memory, the shared tiers, or the provider,
// writing through to every tier on a provider hit.
func (c *Client) fetch(ctx context.Context, text string, opts SpeakOptions) ([]byte, error) {
	key := CacheKey(opts.Voice, opts.Rate, opts.Pitch, text)
	if audio, ok := c.memory.get(key); ok {
		telemetry.SpeechCacheLookups.WithLabelValues("memory", "hit").Inc()
		return audio, nil
	}
	telemetry.SpeechCacheLookups.WithLabelValues("memory", "miss").Inc()

	blobKey := BlobKey(key)
	for _, t := range c.tiers {
		audio, err := t.store.GetBlob(ctx, blobKey)
		if err == nil && len(audio) > 0 {
			telemetry.SpeechCacheLookups.WithLabelValues(t.name, "hit").Inc()
			c.memory.put(key, audio)
			return audio, nil
		}
		telemetry.SpeechCacheLookups.WithLabelValues(t.name, "miss").Inc()
		if err != nil && !errors.Is(err, ErrBlobNotFound) {
			c.logger.Debug().Err(err).Str("tier", t.name).Msg("speech tier read failed")
		}
	}

	if c.provider == nil {
		return nil, errNoProvider
	}
	audio, err := c.provider.Synthesize(ctx, Request{
		Text:  text,
		SSML:  BuildSSML(text),
		Voice: opts.Voice,
		Rate:  opts.Rate,
		Pitch: opts.Pitch,
	})
	if err != nil {
		return nil, err
	}

	c.memory.put(key, audio)
	for _, t := range c.tiers {
		if err := t.store.PutBlob(ctx, blobKey, audio, c.blobTTL); err != nil {
			c.logger.Debug().Err(err).Str("tier", t.name).Msg("speech tier write failed")
		}
	}
	return audio, nil
}
