/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dj

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/airwave/internal/audio"
	"github.com/friendsincode/airwave/internal/events"
	"github.com/friendsincode/airwave/internal/models"
	"github.com/friendsincode/airwave/internal/station"
	"github.com/friendsincode/airwave/internal/telemetry"
)

// DefaultMusicVolume is assumed until a caller reports the device volume.
const DefaultMusicVolume = 0.7

var (
	// ErrNoSession means TuneIn has not been called yet.
	ErrNoSession = errors.New("dj: no active session")
	// ErrBusy means a DJ segment is already playing.
	ErrBusy = errors.New("dj: segment already playing")
)

// SegmentPlayer plays spoken segments with ducking. *audio.Coordinator satisfies it.
type SegmentPlayer interface {
	PlaySegments(ctx context.Context, segs []audio.Segment, h audio.PlaybackHandle, currentVolume float64, opts audio.Options) error
	Stop()
	Preload(ctx context.Context, text, voice string)
	Busy() bool
	State() audio.State
}

// ServiceDeps wires a Service. Users, History and Events are optional.
type ServiceDeps struct {
	Registry  *station.Registry
	Scheduler *Scheduler
	Generator *Generator
	Audio     SegmentPlayer
	Users     func(userID string) KeyValueStore
	History   AnnouncementStore
	Events    events.Publisher
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Service is the radio engine's entry point: it owns the listening session,
// counts songs, plans announcements and hands them to the audio coordinator.
type Service struct {
	deps   ServiceDeps
	logger zerolog.Logger
	wg     sync.WaitGroup

	mu   sync.Mutex
	sess *session
}

type session struct {
	profile    station.Profile
	userID     string
	userName   string
	users      *UserContextBuilder
	user       UserContext
	era        int
	voice      string
	handle     audio.PlaybackHandle
	volume     float64
	songsSince int
	songsUntil int
}

// PlannedSegment is one spoken part of an Announcement.
type PlannedSegment struct {
	Type station.SegmentType `json:"type"`
	Text string              `json:"text"`
}

// Announcement is a planned DJ break.
type Announcement struct {
	ID          string              `json:"id"`
	StationID   string              `json:"station_id"`
	Primary     station.SegmentType `json:"primary"`
	Segments    []PlannedSegment    `json:"segments"`
	SongsBefore int                 `json:"songs_before"`
	Manual      bool                `json:"manual"`
	Dropped     bool                `json:"dropped,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// LiveData is the engine-supplied context for one announcement.
type LiveData struct {
	Track   *Track   `json:"track,omitempty"`
	Weather *Weather `json:"weather,omitempty"`
	News    *News    `json:"news,omitempty"`
}

// TuneInRequest starts or switches a session.
type TuneInRequest struct {
	StationID     string               `json:"station_id"`
	UserID        string               `json:"user_id,omitempty"`
	UserName      string               `json:"user_name,omitempty"`
	Era           int                  `json:"era,omitempty"`
	Voice         string               `json:"voice,omitempty"`
	Handle        audio.PlaybackHandle `json:"handle"`
	CurrentVolume *float64             `json:"current_volume,omitempty"`
	SkipIntro     bool                 `json:"skip_intro,omitempty"`
	LiveData
}

// TrackBoundary is reported by the engine each time a song ends.
type TrackBoundary struct {
	Handle        audio.PlaybackHandle `json:"handle"`
	CurrentVolume *float64             `json:"current_volume,omitempty"`
	LiveData
}

// AnnounceRequest asks for a specific segment outside the countdown.
type AnnounceRequest struct {
	Segment       station.SegmentType  `json:"segment"`
	Handle        audio.PlaybackHandle `json:"handle"`
	CurrentVolume *float64             `json:"current_volume,omitempty"`
	LiveData
}

// Status is a snapshot of the session.
type Status struct {
	Active     bool                  `json:"active"`
	StationID  string                `json:"station_id,omitempty"`
	Era        int                   `json:"era,omitempty"`
	SongsSince int                   `json:"songs_since"`
	SongsUntil int                   `json:"songs_until"`
	Recent     []station.SegmentType `json:"recent"`
	Busy       bool                  `json:"busy"`
	State      audio.State           `json:"state"`
	User       UserContext           `json:"user"`
}

// NewService creates a service. Registry, Scheduler, Generator and Audio are required.
func NewService(deps ServiceDeps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "dj").Logger(),
	}
}

// TuneIn switches to req.StationID, resets the scheduler, builds the
// listener context and, unless skipped, plays an intro.
func (s *Service) TuneIn(ctx context.Context, req TuneInRequest) (*Announcement, error) {
	profile, err := s.deps.Registry.Resolve(req.StationID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	var builder *UserContextBuilder
	if prev := s.sess; prev != nil && prev.userID == req.UserID {
		builder = prev.users
	} else {
		var store KeyValueStore
		if s.deps.Users != nil && req.UserID != "" {
			store = s.deps.Users(req.UserID)
		}
		builder = NewUserContextBuilder(store, s.deps.Logger)
	}

	s.deps.Scheduler.Reset()
	sess := &session{
		profile:  profile,
		userID:   req.UserID,
		userName: req.UserName,
		users:    builder,
		era:      req.Era,
		voice:    req.Voice,
		handle:   req.Handle,
		volume:   pickVolume(req.CurrentVolume, DefaultMusicVolume),
	}
	sess.songsUntil = s.deps.Scheduler.SongsUntilAnnouncement(profile)
	s.sess = sess
	s.mu.Unlock()

	// Store I/O stays outside the session lock.
	user := builder.Build(ctx, req.UserName)

	s.mu.Lock()
	if s.sess == sess {
		sess.user = user
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("station", profile.ID).
		Int("songs_until", sess.songsUntil).
		Int("visit", user.VisitCount).
		Msg("tuned in")
	s.publish(events.EventStationChanged, events.Payload{
		"station_id":  profile.ID,
		"label":       profile.Label,
		"era":         req.Era,
		"songs_until": sess.songsUntil,
	})

	if req.SkipIntro {
		return nil, nil
	}
	if s.deps.Audio.Busy() {
		return nil, nil
	}

	ann := s.compose(ctx, sess, user, []station.SegmentType{station.SegmentIntro}, req.LiveData, 0, false)
	s.play(ctx, ann, req.Handle, pickVolume(req.CurrentVolume, DefaultMusicVolume), sess.voice)
	return ann, nil
}

// OnTrackBoundary counts a finished song. When the countdown is reached it
// plans an announcement, starts playing it in the background and returns the
// plan. Returns nil when nothing is due or a segment is still playing.
func (s *Service) OnTrackBoundary(ctx context.Context, b TrackBoundary) (*Announcement, error) {
	s.mu.Lock()
	sess := s.sess
	if sess == nil {
		s.mu.Unlock()
		return nil, ErrNoSession
	}
	if b.Handle != (audio.PlaybackHandle{}) {
		sess.handle = b.Handle
	}
	sess.volume = pickVolume(b.CurrentVolume, sess.volume)

	sess.songsSince++
	if sess.songsSince < sess.songsUntil {
		s.mu.Unlock()
		return nil, nil
	}
	// Keep the count so the break happens on the next boundary instead.
	if s.deps.Audio.Busy() {
		s.mu.Unlock()
		s.logger.Debug().Msg("announcement due but coordinator busy")
		return nil, nil
	}

	hasWeather := b.Weather != nil && b.Weather.Description != ""
	primary := s.deps.Scheduler.PickAnnouncementType(sess.profile, sess.songsSince, hasWeather, b.News.HasHeadline())
	types := []station.SegmentType{primary}
	if s.deps.Scheduler.ShouldPrependJingle(primary, sess.profile) {
		types = append([]station.SegmentType{station.SegmentJingle}, types...)
	}

	songsBefore := sess.songsSince
	sess.songsSince = 0
	sess.songsUntil = s.deps.Scheduler.SongsUntilAnnouncement(sess.profile)
	handle, volume, voice, user := sess.handle, sess.volume, sess.voice, sess.user
	s.mu.Unlock()

	ann := s.compose(ctx, sess, user, types, b.LiveData, songsBefore, false)
	s.play(ctx, ann, handle, volume, voice)
	return ann, nil
}

// Announce plays seg now, outside the countdown. The pick is not recorded in
// the anti-repeat window. Returns ErrBusy while a segment is playing.
func (s *Service) Announce(ctx context.Context, req AnnounceRequest) (*Announcement, error) {
	if !req.Segment.Valid() {
		return nil, fmt.Errorf("%w %q", station.ErrUnknownSegment, req.Segment)
	}

	s.mu.Lock()
	sess := s.sess
	if sess == nil {
		s.mu.Unlock()
		return nil, ErrNoSession
	}
	if req.Handle != (audio.PlaybackHandle{}) {
		sess.handle = req.Handle
	}
	sess.volume = pickVolume(req.CurrentVolume, sess.volume)
	handle, volume, voice, user := sess.handle, sess.volume, sess.voice, sess.user
	s.mu.Unlock()

	if s.deps.Audio.Busy() {
		return nil, ErrBusy
	}

	ann := s.compose(ctx, sess, user, []station.SegmentType{req.Segment}, req.LiveData, 0, true)
	s.play(ctx, ann, handle, volume, voice)
	return ann, nil
}

// Preview renders a script without playing or recording it.
func (s *Service) Preview(stationID string, seg station.SegmentType, data LiveData, era int) (string, error) {
	if !seg.Valid() {
		return "", fmt.Errorf("%w %q", station.ErrUnknownSegment, seg)
	}
	profile, err := s.deps.Registry.Resolve(stationID)
	if err != nil {
		return "", err
	}

	var user UserContext
	s.mu.Lock()
	if s.sess != nil {
		user = s.sess.user
	}
	s.mu.Unlock()

	return s.deps.Generator.Generate(profile.ID, seg, s.scriptOptions(profile, user, data, era)), nil
}

// Stop silences the DJ immediately. The session stays tuned in.
func (s *Service) Stop() {
	s.deps.Audio.Stop()
	s.publish(events.EventStopped, events.Payload{"at": s.deps.Now().UTC()})
}

// Preload warms the speech cache.
func (s *Service) Preload(ctx context.Context, text, voice string) {
	if voice == "" {
		s.mu.Lock()
		if s.sess != nil {
			voice = s.sess.voice
		}
		s.mu.Unlock()
	}
	s.deps.Audio.Preload(ctx, text, voice)
}

// Status returns the session snapshot.
func (s *Service) Status() Status {
	st := Status{
		Recent: s.deps.Scheduler.Recent(),
		Busy:   s.deps.Audio.Busy(),
		State:  s.deps.Audio.State(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != nil {
		st.Active = true
		st.StationID = s.sess.profile.ID
		st.Era = s.sess.era
		st.SongsSince = s.sess.songsSince
		st.SongsUntil = s.sess.songsUntil
		st.User = s.sess.user
	}
	return st
}

// History lists recorded announcements, newest first.
func (s *Service) History(ctx context.Context, stationID string, limit int) ([]Announcement, error) {
	if s.deps.History == nil {
		return []Announcement{}, nil
	}
	rows, err := s.deps.History.Recent(ctx, stationID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Announcement, 0, len(rows))
	for _, r := range rows {
		a := Announcement{
			ID:          r.ID,
			StationID:   r.StationID,
			Primary:     station.SegmentType(r.Primary),
			SongsBefore: r.SongsBefore,
			Manual:      r.Manual,
			Dropped:     r.Dropped,
			CreatedAt:   r.CreatedAt,
		}
		for _, seg := range r.DecodeSegments() {
			a.Segments = append(a.Segments, PlannedSegment{Type: station.SegmentType(seg.Type), Text: seg.Text})
		}
		out = append(out, a)
	}
	return out, nil
}

// Wait blocks until background playback started by the service has ended.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) compose(ctx context.Context, sess *session, user UserContext, types []station.SegmentType, data LiveData, songsBefore int, manual bool) *Announcement {
	opts := s.scriptOptions(sess.profile, user, data, sess.era)
	ann := &Announcement{
		ID:          uuid.NewString(),
		StationID:   sess.profile.ID,
		Primary:     types[len(types)-1],
		SongsBefore: songsBefore,
		Manual:      manual,
		CreatedAt:   opts.Now.UTC(),
	}
	for _, t := range types {
		ann.Segments = append(ann.Segments, PlannedSegment{Type: t, Text: s.deps.Generator.Generate(sess.profile.ID, t, opts)})
	}

	telemetry.AnnouncementsTotal.WithLabelValues(ann.StationID, string(ann.Primary)).Inc()
	s.record(ctx, ann, sess.userID)
	s.publish(events.EventAnnouncement, events.Payload{
		"id":           ann.ID,
		"station_id":   ann.StationID,
		"primary":      string(ann.Primary),
		"segments":     ann.Segments,
		"songs_before": ann.SongsBefore,
		"manual":       ann.Manual,
	})
	return ann
}

func (s *Service) scriptOptions(p station.Profile, user UserContext, data LiveData, era int) ScriptOptions {
	now := s.deps.Now()
	return ScriptOptions{
		Track:       data.Track,
		Weather:     data.Weather,
		News:        data.News,
		User:        user,
		StationName: p.Label,
		TimeOfDay:   TimeOfDayAt(now),
		Now:         now,
		Era:         era,
	}
}

func (s *Service) record(ctx context.Context, ann *Announcement, userID string) {
	if s.deps.History == nil {
		return
	}
	row := &models.Announcement{
		ID:          ann.ID,
		StationID:   ann.StationID,
		UserID:      userID,
		Primary:     string(ann.Primary),
		SongsBefore: ann.SongsBefore,
		Manual:      ann.Manual,
		CreatedAt:   ann.CreatedAt,
	}
	segs := make([]models.AnnouncementSegment, 0, len(ann.Segments))
	for _, seg := range ann.Segments {
		segs = append(segs, models.AnnouncementSegment{Type: string(seg.Type), Text: seg.Text})
	}
	if err := row.SetSegments(segs); err != nil {
		s.logger.Warn().Err(err).Msg("encode announcement segments")
		return
	}
	if err := s.deps.History.Save(ctx, row); err != nil {
		s.logger.Warn().Err(err).Str("id", ann.ID).Msg("failed to record announcement")
	}
}

// play runs the announcement in the background so the engine's call returns
// at once. The request context only contributes trace data.
func (s *Service) play(ctx context.Context, ann *Announcement, h audio.PlaybackHandle, volume float64, voice string) {
	segs := make([]audio.Segment, 0, len(ann.Segments))
	for _, seg := range ann.Segments {
		segs = append(segs, audio.Segment{Text: seg.Text})
	}
	bg := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.deps.Audio.PlaySegments(bg, segs, h, volume, audio.Options{Voice: voice})
		switch {
		case errors.Is(err, audio.ErrBusy):
			s.logger.Warn().Str("id", ann.ID).Msg("announcement dropped, another segment is playing")
			s.markDropped(bg, ann)
		case err != nil:
			s.logger.Warn().Err(err).Str("id", ann.ID).Msg("announcement playback failed")
		}
	}()
}

// markDropped records that ann was planned but never reached the speaker.
func (s *Service) markDropped(ctx context.Context, ann *Announcement) {
	if s.deps.History != nil {
		if err := s.deps.History.MarkDropped(ctx, ann.ID); err != nil {
			s.logger.Warn().Err(err).Str("id", ann.ID).Msg("failed to mark announcement dropped")
		}
	}
	s.publish(events.EventAnnouncementDropped, events.Payload{
		"id":         ann.ID,
		"station_id": ann.StationID,
		"primary":    string(ann.Primary),
	})
}

func (s *Service) publish(t events.EventType, p events.Payload) {
	if s.deps.Events != nil {
		s.deps.Events.Publish(t, p)
	}
}

// pickVolume keeps a reported volume, muted included, and falls back to the
// last known one when the caller sent none.
func pickVolume(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return min(max(*v, 0), 1)
}
