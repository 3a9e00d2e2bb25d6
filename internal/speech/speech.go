/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package speech turns DJ scripts into audible speech. Network synthesis is
// tried first, then a local voice, then silence; a DJ segment never fails the
// radio loop.
package speech

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoLocalVoice means no installed voice matches the requested language.
	ErrNoLocalVoice = errors.New("no local voice for language")
	// ErrEmptyText is returned by providers asked to synthesize nothing.
	ErrEmptyText = errors.New("empty text")
	// ErrBlobNotFound is returned by a BlobStore miss.
	ErrBlobNotFound = errors.New("speech blob not found")
)

// Request is one synthesis call.
type Request struct {
	Text  string  `json:"text"`
	SSML  string  `json:"ssml,omitempty"`
	Voice string  `json:"voice"`
	Rate  float64 `json:"rate,omitempty"`
	Pitch float64 `json:"pitch,omitempty"`
}

// Provider synthesizes audio from text.
type Provider interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// Player plays synthesized audio. Play returns when playback ends.
type Player interface {
	Play(ctx context.Context, audio []byte, volume float64) error
	Stop()
}

// LocalVoice speaks text with an on-device synthesizer.
type LocalVoice interface {
	Speak(ctx context.Context, text, lang string, volume, rate, pitch float64) error
	Stop()
}

// BlobStore is a shared synthesized-audio tier (Redis, S3).
type BlobStore interface {
	GetBlob(ctx context.Context, key string) ([]byte, error)
	PutBlob(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// SpeakOptions control one utterance.
type SpeakOptions struct {
	Volume float64 `json:"volume"`
	Voice  string  `json:"voice,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
	Pitch  float64 `json:"pitch,omitempty"`
}
