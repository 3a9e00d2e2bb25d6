/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dj

import (
	"math"
	"sync"
	"time"

	"github.com/friendsincode/airwave/internal/station"
)

// Scheduling policy. These are tuning knobs, not invariants.
const (
	RecentWindow          = 6
	MorningNewsBoost      = 1.5
	NightTalkDamping      = 0.5
	FullSegmentBoost      = 1.2
	EnergeticJingleOdds   = 0.45
	DefaultJingleOdds     = 0.25
	BetweenFallbackWeight = 0.1
	MinSongsBetween       = 2

	weatherFullAfterSongs = 5
	newsFullAfterSongs    = 6
)

// Scheduler decides how many songs to wait and which announcement to make.
// It remembers the last RecentWindow picks to avoid repeating itself.
type Scheduler struct {
	mu     sync.Mutex
	rng    Rand
	now    func() time.Time
	recent []station.SegmentType
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock overrides the wall clock used for time-of-day biasing.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a scheduler drawing from rng.
func NewScheduler(rng Rand, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		rng:    rng,
		now:    time.Now,
		recent: make([]station.SegmentType, 0, RecentWindow),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IntervalBounds returns the inclusive song-count range for the next announcement.
func IntervalBounds(p station.Profile, tod TimeOfDay) (int, int) {
	quiet := 1 - p.Personality.Talk()
	minSongs := int(math.Round(2 + quiet*4))
	maxSongs := int(math.Round(4 + quiet*5))

	switch tod {
	case Morning:
		minSongs--
		maxSongs--
	case Night:
		minSongs += 2
		maxSongs += 2
	}

	if minSongs < MinSongsBetween {
		minSongs = MinSongsBetween
	}
	if maxSongs < minSongs+1 {
		maxSongs = minSongs + 1
	}
	return minSongs, maxSongs
}

// SongsUntilAnnouncement draws the number of songs to play before the next announcement.
func (s *Scheduler) SongsUntilAnnouncement(p station.Profile) int {
	minSongs, maxSongs := IntervalBounds(p, TimeOfDayAt(s.now()))

	s.mu.Lock()
	defer s.mu.Unlock()
	return minSongs + s.rng.Intn(maxSongs-minSongs+1)
}

type candidate struct {
	segment station.SegmentType
	weight  float64
}

// PickAnnouncementType chooses the next announcement kind and records it.
func (s *Scheduler) PickAnnouncementType(p station.Profile, songsSince int, hasWeather, hasNews bool) station.SegmentType {
	tod := TimeOfDayAt(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := s.candidatesLocked(p, tod, songsSince, hasWeather, hasNews)

	total := 0.0
	for _, c := range candidates {
		total += c.weight
	}

	roll := s.rng.Float64() * total
	for _, c := range candidates {
		roll -= c.weight
		if roll <= 0 {
			s.recordLocked(c.segment)
			return c.segment
		}
	}

	s.recordLocked(station.SegmentBetween)
	return station.SegmentBetween
}

func (s *Scheduler) candidatesLocked(p station.Profile, tod TimeOfDay, songsSince int, hasWeather, hasNews bool) []candidate {
	newsBias := 1.0
	if tod == Morning {
		newsBias = MorningNewsBoost
	}
	talkBias := 1.0
	if tod == Night {
		talkBias = NightTalkDamping
	}

	out := make([]candidate, 0, 10)
	add := func(seg station.SegmentType, w float64) {
		if w > 0 {
			out = append(out, candidate{segment: seg, weight: w})
		}
	}

	if hasWeather && songsSince > weatherFullAfterSongs &&
		!s.isRecentLocked(station.SegmentWeather) && !s.isRecentLocked(station.SegmentWeatherFull) {
		add(station.SegmentWeatherFull, p.Weight(station.SegmentWeatherFull)*newsBias*FullSegmentBoost)
	}
	if hasWeather && !s.isRecentLocked(station.SegmentWeather) {
		add(station.SegmentWeather, p.Weight(station.SegmentWeather)*newsBias)
	}
	if hasNews && songsSince > newsFullAfterSongs &&
		!s.isRecentLocked(station.SegmentNews) && !s.isRecentLocked(station.SegmentNewsFull) {
		add(station.SegmentNewsFull, p.Weight(station.SegmentNewsFull)*newsBias*FullSegmentBoost)
	}
	if hasNews && !s.isRecentLocked(station.SegmentNews) {
		add(station.SegmentNews, p.Weight(station.SegmentNews)*newsBias)
	}
	if !s.isRecentLocked(station.SegmentFunFact) {
		add(station.SegmentFunFact, p.Weight(station.SegmentFunFact)*talkBias)
	}
	if !s.isRecentLocked(station.SegmentStationID) {
		add(station.SegmentStationID, p.Weight(station.SegmentStationID))
	}
	if !s.isRecentLocked(station.SegmentJingle) {
		add(station.SegmentJingle, p.Weight(station.SegmentJingle))
	}
	add(station.SegmentSongIntro, p.Weight(station.SegmentSongIntro))
	add(station.SegmentTime, p.Weight(station.SegmentTime))
	add(station.SegmentBetween, BetweenFallbackWeight)

	return out
}

// ShouldPrependJingle decides whether a jingle plays before primary.
func (s *Scheduler) ShouldPrependJingle(primary station.SegmentType, p station.Profile) bool {
	if primary == station.SegmentStationID || primary == station.SegmentJingle {
		return false
	}
	odds := DefaultJingleOdds
	if p.Personality.Tone == station.ToneEnergetic {
		odds = EnergeticJingleOdds
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < odds
}

// Reset forgets recent picks. Called on station change.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = s.recent[:0]
}

// Recent returns the remembered picks, oldest first.
func (s *Scheduler) Recent() []station.SegmentType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]station.SegmentType, len(s.recent))
	copy(out, s.recent)
	return out
}

func (s *Scheduler) isRecentLocked(seg station.SegmentType) bool {
	for _, r := range s.recent {
		if r == seg {
			return true
		}
	}
	return false
}

func (s *Scheduler) recordLocked(seg station.SegmentType) {
	s.recent = append(s.recent, seg)
	if len(s.recent) > RecentWindow {
		s.recent = s.recent[len(s.recent)-RecentWindow:]
	}
}
