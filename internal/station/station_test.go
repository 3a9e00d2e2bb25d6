/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSegmentType(t *testing.T) {
	for _, s := range AllSegmentTypes {
		got, err := ParseSegmentType(" " + string(s) + " ")
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if got != s {
			t.Fatalf("ParseSegmentType(%q) = %q", s, got)
		}
	}

	if _, err := ParseSegmentType("traffic"); err == nil {
		t.Fatal("expected unknown segment type to fail")
	}
}

func TestTalkClamped(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.1, 0.3},
		{0.3, 0.3},
		{0.75, 0.75},
		{1.4, 1.0},
	}

	for _, tt := range tests {
		if got := (Personality{Talkativeness: tt.in}).Talk(); got != tt.want {
			t.Errorf("Talk(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProfileWeightMissingIsZero(t *testing.T) {
	p := Profile{SegmentWeights: map[SegmentType]float64{SegmentWeather: 1.5, SegmentNews: -1}}

	if got := p.Weight(SegmentWeather); got != 1.5 {
		t.Fatalf("weather weight = %v", got)
	}
	if got := p.Weight(SegmentFunFact); got != 0 {
		t.Fatalf("missing weight = %v, want 0", got)
	}
	if got := p.Weight(SegmentNews); got != 0 {
		t.Fatalf("negative weight = %v, want 0", got)
	}
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()

	news, ok := reg.Get("news")
	if !ok {
		t.Fatal("expected news station")
	}
	if news.Personality.Talkativeness != 0.3 {
		t.Fatalf("news talkativeness = %v", news.Personality.Talkativeness)
	}

	p, err := reg.Resolve("does-not-exist")
	if err != nil {
		t.Fatalf("resolve unknown: %v", err)
	}
	if p.ID != DefaultStationID {
		t.Fatalf("expected fallback to default station, got %q", p.ID)
	}

	list := reg.List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID > list[i].ID {
			t.Fatalf("list not sorted: %q before %q", list[i-1].ID, list[i].ID)
		}
	}
}

func TestResolveWithoutDefault(t *testing.T) {
	reg := NewRegistry(Profile{ID: "solo"})
	if _, err := reg.Resolve("missing"); !errors.Is(err, ErrUnknownStation) {
		t.Fatalf("expected ErrUnknownStation, got %v", err)
	}
}

func TestLoadFileOverridesBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.yaml")
	data := []byte(`
stations:
  - id: pop
    label: Pop Overload
    personality:
      talkativeness: 1.7
      tone: witty
    segment_weights:
      jingle: 3
  - id: ambient
    segment_weights:
      song_intro: 1
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write stations file: %v", err)
	}

	reg, err := LoadFile(path, DefaultProfiles())
	if err != nil {
		t.Fatalf("load file: %v", err)
	}

	pop, _ := reg.Get("pop")
	if pop.Label != "Pop Overload" || pop.Personality.Tone != ToneWitty {
		t.Fatalf("pop not overridden: %+v", pop)
	}
	if pop.Personality.Talkativeness != MaxTalkativeness {
		t.Fatalf("talkativeness not clamped: %v", pop.Personality.Talkativeness)
	}
	if pop.Weight(SegmentWeather) != 0 {
		t.Fatal("overridden station should not inherit built-in weights")
	}

	ambient, ok := reg.Get("ambient")
	if !ok {
		t.Fatal("expected new station from file")
	}
	if ambient.Label != "ambient" || ambient.Personality.Tone != ToneNeutral {
		t.Fatalf("ambient defaults not applied: %+v", ambient)
	}
	if _, ok := reg.Get("jazz"); !ok {
		t.Fatal("built-in stations should survive the overlay")
	}
}

func TestLoadFileRejectsUnknownSegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.yaml")
	data := []byte("stations:\n  - id: x\n    segment_weights:\n      traffic: 1\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write stations file: %v", err)
	}

	if _, err := LoadFile(path, nil); err == nil {
		t.Fatal("expected unknown segment type to be rejected")
	}
}

func TestPresetRoundTrip(t *testing.T) {
	presets := []Preset{
		{StationID: "pop", ThemeID: "neon"},
		{StationID: "timemachine", ThemeID: ""},
		{StationID: "", ThemeID: "dark"},
		{StationID: "ümlaut station/ü", ThemeID: "theme with spaces & symbols ?#"},
	}

	for _, p := range presets {
		token := EncodePreset(p)
		got, err := DecodePreset(token)
		if err != nil {
			t.Fatalf("decode %q: %v", token, err)
		}
		if got != p {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, p)
		}
	}
}

func TestDecodePresetInvalid(t *testing.T) {
	for _, token := range []string{"!!!", "bm90LWpzb24"} {
		if _, err := DecodePreset(token); !errors.Is(err, ErrInvalidPreset) {
			t.Fatalf("DecodePreset(%q) error = %v, want ErrInvalidPreset", token, err)
		}
	}
}
