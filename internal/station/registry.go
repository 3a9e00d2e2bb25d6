/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownStation indicates a station id missing from the registry.
var ErrUnknownStation = errors.New("unknown station")

// Registry is the process-wide, read-only station table.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry builds a registry from profiles. Later entries replace earlier ones with the same id.
func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		r.profiles[p.ID] = normalize(p)
	}
	return r
}

// DefaultRegistry returns a registry containing DefaultProfiles.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultProfiles()...)
}

// Get returns the profile for id.
func (r *Registry) Get(id string) (Profile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}

// Resolve returns the profile for id, falling back to the default station.
func (r *Registry) Resolve(id string) (Profile, error) {
	if p, ok := r.profiles[id]; ok {
		return p, nil
	}
	if p, ok := r.profiles[DefaultStationID]; ok {
		return p, nil
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrUnknownStation, id)
}

// List returns all profiles sorted by id.
func (r *Registry) List() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type stationsFile struct {
	Stations []Profile `yaml:"stations"`
}

// LoadFile reads a YAML station table and layers it over base.
// Stations in the file replace built-in stations with the same id.
func LoadFile(path string, base []Profile) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations file: %w", err)
	}

	var file stationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse stations file: %w", err)
	}

	for i, p := range file.Stations {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("stations file entry %d has no id", i)
		}
		for seg := range p.SegmentWeights {
			if !seg.Valid() {
				return nil, fmt.Errorf("station %s: unknown segment type %q", p.ID, seg)
			}
		}
	}

	all := make([]Profile, 0, len(base)+len(file.Stations))
	all = append(all, base...)
	all = append(all, file.Stations...)
	return NewRegistry(all...), nil
}

func normalize(p Profile) Profile {
	p.Personality.Talkativeness = p.Personality.Talk()
	if p.Personality.Tone == "" {
		p.Personality.Tone = ToneNeutral
	}
	if p.Label == "" {
		p.Label = p.ID
	}
	weights := make(map[SegmentType]float64, len(p.SegmentWeights))
	for k, v := range p.SegmentWeights {
		weights[k] = v
	}
	p.SegmentWeights = weights
	return p
}
