/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package station holds the static station table: DJ personalities and the
// relative weight each station gives to every kind of announcement.
package station

import (
	"errors"
	"fmt"
	"strings"
)

// SegmentType enumerates the kinds of spoken DJ segments.
type SegmentType string

const (
	SegmentIntro       SegmentType = "intro"
	SegmentBetween     SegmentType = "between"
	SegmentWeather     SegmentType = "weather"
	SegmentWeatherFull SegmentType = "weather_full"
	SegmentNews        SegmentType = "news"
	SegmentNewsFull    SegmentType = "news_full"
	SegmentTime        SegmentType = "time"
	SegmentOutro       SegmentType = "outro"
	SegmentStationID   SegmentType = "station_id"
	SegmentFunFact     SegmentType = "fun_fact"
	SegmentSongIntro   SegmentType = "song_intro"
	SegmentJingle      SegmentType = "jingle"
)

// AllSegmentTypes lists every segment type in declaration order.
var AllSegmentTypes = []SegmentType{
	SegmentIntro,
	SegmentBetween,
	SegmentWeather,
	SegmentWeatherFull,
	SegmentNews,
	SegmentNewsFull,
	SegmentTime,
	SegmentOutro,
	SegmentStationID,
	SegmentFunFact,
	SegmentSongIntro,
	SegmentJingle,
}

// Valid reports whether s is one of the known segment types.
func (s SegmentType) Valid() bool {
	for _, known := range AllSegmentTypes {
		if s == known {
			return true
		}
	}
	return false
}

// ErrUnknownSegment is returned for segment names outside AllSegmentTypes.
var ErrUnknownSegment = errors.New("unknown segment type")

// ParseSegmentType converts untrusted input into a SegmentType.
func ParseSegmentType(raw string) (SegmentType, error) {
	s := SegmentType(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownSegment, raw)
	}
	return s, nil
}

// Tone describes how a station's DJ sounds.
type Tone string

const (
	ToneEnergetic Tone = "energetic"
	ToneCalm      Tone = "calm"
	ToneNeutral   Tone = "neutral"
	ToneWarm      Tone = "warm"
	ToneWitty     Tone = "witty"
)

// Talkativeness bounds.
const (
	MinTalkativeness = 0.3
	MaxTalkativeness = 1.0
)

// Personality is the DJ persona attached to a station.
type Personality struct {
	Talkativeness float64 `yaml:"talkativeness" json:"talkativeness"`
	Tone          Tone    `yaml:"tone" json:"tone"`
}

// Talk returns talkativeness clamped to [MinTalkativeness, MaxTalkativeness].
func (p Personality) Talk() float64 {
	switch {
	case p.Talkativeness < MinTalkativeness:
		return MinTalkativeness
	case p.Talkativeness > MaxTalkativeness:
		return MaxTalkativeness
	default:
		return p.Talkativeness
	}
}

// Profile identifies a station (genre channel) and its DJ.
type Profile struct {
	ID             string                  `yaml:"id" json:"id"`
	Label          string                  `yaml:"label" json:"label"`
	Color          string                  `yaml:"color" json:"color,omitempty"`
	Icon           string                  `yaml:"icon" json:"icon,omitempty"`
	Personality    Personality             `yaml:"personality" json:"personality"`
	SegmentWeights map[SegmentType]float64 `yaml:"segment_weights" json:"segment_weights"`
}

// Weight returns the configured weight for s. Missing or negative entries count as 0.
func (p Profile) Weight(s SegmentType) float64 {
	w, ok := p.SegmentWeights[s]
	if !ok || w < 0 {
		return 0
	}
	return w
}
