/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dj

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/friendsincode/airwave/internal/station"
)

// DefaultStationName is spoken for {station} when the caller gives no label.
const DefaultStationName = "Airwave Radio"

// maxSpokenHeadlines caps the {headlines} roundup.
const maxSpokenHeadlines = 3

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// ScriptOptions is the live context for one announcement. Never persisted.
type ScriptOptions struct {
	Track       *Track
	Weather     *Weather
	News        *News
	User        UserContext
	StationName string
	TimeOfDay   TimeOfDay
	Now         time.Time
	// Era is the Time Machine decade, 0 when off.
	Era int
}

// Generator fills phrase bank templates with live data.
type Generator struct {
	bank *PhraseBank

	mu  sync.Mutex
	rng Rand
}

// NewGenerator creates a generator drawing templates from bank with rng.
func NewGenerator(bank *PhraseBank, rng Rand) *Generator {
	if bank == nil {
		bank = NewPhraseBank()
	}
	return &Generator{bank: bank, rng: rng}
}

// Greeting returns the salutation for a time-of-day bucket.
func Greeting(tod TimeOfDay) string {
	switch tod {
	case Morning:
		return "Good morning"
	case Afternoon:
		return "Good afternoon"
	case Evening:
		return "Good evening"
	default:
		return "Hey there, night owls"
	}
}

// Generate produces spoken text for seg on stationID. Templates whose
// placeholders cannot all be filled are skipped; when none remain the
// generic pool for seg is used. The result never contains placeholder tokens.
func (g *Generator) Generate(stationID string, seg station.SegmentType, opts ScriptOptions) string {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.TimeOfDay == "" {
		opts.TimeOfDay = TimeOfDayAt(opts.Now)
	}

	era, hasEra := EraFor(opts.Era)
	facts := g.bank.Facts()
	if hasEra {
		facts = era.Facts
	}
	vals := scriptValues(opts, hasEra, era)

	g.mu.Lock()
	defer g.mu.Unlock()

	usable := filterResolvable(g.pool(stationID, seg, hasEra, era), vals, len(facts) > 0)
	if len(usable) == 0 {
		usable = filterResolvable(g.bank.Generic(seg), vals, len(facts) > 0)
	}

	out := ""
	if len(usable) > 0 {
		tpl := usable[g.rng.Intn(len(usable))]
		out = placeholderRe.ReplaceAllStringFunc(tpl, func(tok string) string {
			key := tok[1 : len(tok)-1]
			if key == "fact" {
				return facts[g.rng.Intn(len(facts))]
			}
			return vals[key]
		})
	}

	if seg == station.SegmentIntro && opts.User.IsReturningUser {
		if opts.User.Name != "" {
			out = "Welcome back, " + opts.User.Name + "! " + out
		} else {
			out = "Welcome back! " + out
		}
	}

	// Last guard against a broken template in a custom bank.
	out = placeholderRe.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

func (g *Generator) pool(stationID string, seg station.SegmentType, hasEra bool, era Era) []string {
	if hasEra {
		switch seg {
		case station.SegmentIntro:
			return era.Intros
		case station.SegmentBetween:
			return era.Transitions
		}
	}
	return g.bank.Pool(stationID, seg)
}

func filterResolvable(templates []string, vals map[string]string, haveFacts bool) []string {
	out := make([]string, 0, len(templates))
	for _, tpl := range templates {
		ok := true
		for _, m := range placeholderRe.FindAllStringSubmatch(tpl, -1) {
			key := m[1]
			if key == "fact" {
				if !haveFacts {
					ok = false
					break
				}
				continue
			}
			if vals[key] == "" {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, tpl)
		}
	}
	return out
}

func scriptValues(opts ScriptOptions, hasEra bool, era Era) map[string]string {
	name := opts.StationName
	if name == "" {
		name = DefaultStationName
	}
	vals := map[string]string{
		"greeting": Greeting(opts.TimeOfDay),
		"station":  name,
		"time":     opts.Now.Format("3:04 PM"),
		"name":     opts.User.Name,
	}
	if len(opts.User.TopArtists) > 0 {
		vals["top_artist"] = opts.User.TopArtists[0]
	}
	if t := opts.Track; t != nil {
		vals["title"] = t.Title
		vals["artist"] = t.Artist
	}
	if w := opts.Weather; w != nil && w.Description != "" {
		vals["weather"] = w.Description
		vals["temp"] = fmt.Sprintf("%.0f", w.TempC)
		vals["city"] = w.City
	}
	if opts.News.HasHeadline() {
		var heads []string
		for _, h := range opts.News.Headlines {
			h = strings.TrimRight(strings.TrimSpace(h), ".")
			if h == "" {
				continue
			}
			heads = append(heads, h)
			if len(heads) == maxSpokenHeadlines {
				break
			}
		}
		if len(heads) > 0 {
			vals["headline"] = heads[0]
			vals["headlines"] = strings.Join(heads, ". ")
		}
	}
	if hasEra {
		vals["decade"] = fmt.Sprintf("the %ds", era.Decade)
	}
	return vals
}
