/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LanguageOf returns the language prefix of a provider voice name,
// e.g. "en-GB-Neural2-B" -> "en". Empty input yields "en".
func LanguageOf(voice string) string {
	voice = strings.TrimSpace(voice)
	if voice == "" {
		return "en"
	}
	if i := strings.IndexAny(voice, "-_"); i > 0 {
		voice = voice[:i]
	}
	return strings.ToLower(voice)
}

// procSlot tracks the one running child process so Stop can kill it.
type procSlot struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func (s *procSlot) start(ctx context.Context) (context.Context, func()) {
	procCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	// A caller that is already cancelled must not kill a newer process.
	if ctx.Err() != nil {
		s.mu.Unlock()
		return procCtx, cancel
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	return procCtx, func() {
		cancel()
		s.mu.Lock()
		defer s.mu.Unlock()
		// A newer process may have replaced us already.
		if s.gen == gen {
			s.cancel = nil
		}
	}
}

func (s *procSlot) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// ExecPlayer pipes audio into an external player such as ffplay.
type ExecPlayer struct {
	bin    string
	logger zerolog.Logger
	slot   procSlot
}

// NewExecPlayer creates a player running bin. Empty bin means "ffplay".
func NewExecPlayer(bin string, logger zerolog.Logger) *ExecPlayer {
	if bin == "" {
		bin = "ffplay"
	}
	return &ExecPlayer{bin: bin, logger: logger.With().Str("component", "speech_player").Logger()}
}

// Play blocks until the player exits, Stop is called or ctx ends.
func (p *ExecPlayer) Play(ctx context.Context, audio []byte, volume float64) error {
	procCtx, done := p.slot.start(ctx)
	defer done()

	vol := int(math.Round(volume * 100))
	cmd := exec.CommandContext(procCtx, p.bin,
		"-nodisp", "-autoexit", "-loglevel", "error",
		"-volume", strconv.Itoa(vol),
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(audio)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.logger.Debug().Int("bytes", len(audio)).Int("volume", vol).Msg("playing speech")
	if err := cmd.Run(); err != nil {
		if procCtx.Err() != nil {
			return procCtx.Err()
		}
		return fmt.Errorf("%s: %w: %s", p.bin, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Stop kills the running player, if any.
func (p *ExecPlayer) Stop() {
	p.slot.stop()
}

// ExecLocalVoice speaks through espeak-ng.
type ExecLocalVoice struct {
	bin    string
	logger zerolog.Logger
	slot   procSlot

	mu     sync.Mutex
	voices map[string]bool
}

// NewExecLocalVoice creates a local voice running bin. Empty bin means "espeak-ng".
func NewExecLocalVoice(bin string, logger zerolog.Logger) *ExecLocalVoice {
	if bin == "" {
		bin = "espeak-ng"
	}
	return &ExecLocalVoice{
		bin:    bin,
		logger: logger.With().Str("component", "local_voice").Logger(),
		voices: make(map[string]bool),
	}
}

// Speak implements LocalVoice. lang is a language prefix such as "en".
func (v *ExecLocalVoice) Speak(ctx context.Context, text, lang string, volume, rate, pitch float64) error {
	if !v.hasVoice(ctx, lang) {
		return fmt.Errorf("%w: %s", ErrNoLocalVoice, lang)
	}

	procCtx, done := v.slot.start(ctx)
	defer done()

	args := []string{
		"-v", lang,
		"-a", strconv.Itoa(scale(volume, 1, 100, 0, 200)),
		"-s", strconv.Itoa(scale(rate, 1, 175, 80, 450)),
		"-p", strconv.Itoa(scale(pitch, 1, 50, 0, 99)),
		text,
	}
	cmd := exec.CommandContext(procCtx, v.bin, args...)
	if err := cmd.Run(); err != nil {
		if procCtx.Err() != nil {
			return procCtx.Err()
		}
		return fmt.Errorf("%s: %w", v.bin, err)
	}
	return nil
}

// Stop kills the running synthesizer, if any.
func (v *ExecLocalVoice) Stop() {
	v.slot.stop()
}

// hasVoice asks the binary once per language and remembers the answer.
func (v *ExecLocalVoice) hasVoice(ctx context.Context, lang string) bool {
	v.mu.Lock()
	known, ok := v.voices[lang]
	v.mu.Unlock()
	if ok {
		return known
	}

	out, err := exec.CommandContext(ctx, v.bin, "--voices="+lang).Output()
	if err != nil {
		v.logger.Debug().Err(err).Str("lang", lang).Msg("voice listing failed")
		return false
	}
	found := parseVoiceListing(out, lang)

	v.mu.Lock()
	v.voices[lang] = found
	v.mu.Unlock()
	return found
}

// parseVoiceListing scans espeak-ng --voices output (header line first) for
// a language column starting with lang.
func parseVoiceListing(out []byte, lang string) bool {
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if LanguageOf(fields[1]) == lang {
			return true
		}
	}
	return false
}

// scale maps v (where unit means "normal") to the tool's range, centred on mid.
func scale(v, unit float64, mid, lo, hi int) int {
	if v <= 0 {
		v = unit
	}
	n := int(math.Round(v / unit * float64(mid)))
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
