/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package dj decides when the DJ talks and what it says: the announcement
// scheduler, the phrase bank, the script generator and the per-session
// listener context.
package dj

import "time"

// Rand is the random source used for every draw in this package.
// *math/rand.Rand satisfies it; tests pass a seeded one.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// TimeOfDay buckets the wall clock for scheduling and phrasing.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// TimeOfDayAt maps t's hour to a bucket: [6,12) morning, [12,18) afternoon,
// [18,22) evening, everything else night.
func TimeOfDayAt(t time.Time) TimeOfDay {
	h := t.Hour()
	switch {
	case h >= 6 && h < 12:
		return Morning
	case h >= 12 && h < 18:
		return Afternoon
	case h >= 18 && h < 22:
		return Evening
	default:
		return Night
	}
}

// Track is the song the announcement refers to.
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

// Weather is a live weather snapshot supplied by the radio engine.
type Weather struct {
	Description string  `json:"description"`
	TempC       float64 `json:"temp_c"`
	City        string  `json:"city,omitempty"`
}

// News is a live headline snapshot supplied by the radio engine.
type News struct {
	Headlines []string `json:"headlines"`
	Source    string   `json:"source,omitempty"`
}

// HasHeadline reports whether n carries at least one usable headline.
func (n *News) HasHeadline() bool {
	if n == nil {
		return false
	}
	for _, h := range n.Headlines {
		if h != "" {
			return true
		}
	}
	return false
}
