package audio

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/airwave/internal/speech"
)

type fakeVolume struct {
	mu    sync.Mutex
	calls []int
	fail  map[int]bool

	// holdAt parks the n-th call until release is closed.
	holdAt  int
	held    chan struct{}
	release chan struct{}
}

func (f *fakeVolume) SetVolume(_ context.Context, _, _ string, percent int) error {
	f.mu.Lock()
	f.calls = append(f.calls, percent)
	n := len(f.calls)
	fail := f.fail[n]
	f.mu.Unlock()

	if f.holdAt > 0 && n == f.holdAt {
		f.held <- struct{}{}
		<-f.release
	}
	if fail {
		return errors.New("device unreachable")
	}
	return nil
}

func (f *fakeVolume) snapshot() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

type fakeSpeaker struct {
	mu      sync.Mutex
	spoken  []string
	opts    []speech.SpeakOptions
	err     error
	block   chan struct{}
	started chan struct{}
	stops   int
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string, opts speech.SpeakOptions) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.opts = append(f.opts, opts)
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeSpeaker) Preload(context.Context, string, string) error {
	return errors.New("offline")
}

func (f *fakeSpeaker) spokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

func instant(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newTestCoordinator(vol *fakeVolume, spk *fakeSpeaker, opts ...CoordinatorOption) *Coordinator {
	opts = append([]CoordinatorOption{WithSleeper(instant)}, opts...)
	return NewCoordinator(vol, spk, zerolog.Nop(), opts...)
}

var handle = PlaybackHandle{AuthToken: "tok", DeviceID: "dev"}

func TestFadeSteps(t *testing.T) {
	tests := []struct {
		from, to int
		want     []int
	}{
		{70, 8, []int{58, 45, 33, 20, 8}},
		{8, 70, []int{20, 33, 45, 58, 70}},
		{100, 0, []int{80, 60, 40, 20, 0}},
		{50, 50, []int{50, 50, 50, 50, 50}},
		{-10, 120, []int{16, 42, 68, 94, 100}},
	}

	for _, tt := range tests {
		if got := FadeSteps(tt.from, tt.to); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FadeSteps(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPlaySegmentVolumeEnvelope(t *testing.T) {
	vol := &fakeVolume{}
	spk := &fakeSpeaker{}
	c := newTestCoordinator(vol, spk)

	if err := c.PlaySegment(context.Background(), "hello", handle, 0.7, Options{}); err != nil {
		t.Fatalf("play segment: %v", err)
	}

	want := []int{58, 45, 33, 20, 8, 20, 33, 45, 58, 70}
	if got := vol.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("volume calls = %v, want %v", got, want)
	}
	if got := spk.spokenTexts(); !reflect.DeepEqual(got, []string{"hello"}) {
		t.Fatalf("spoken = %v", got)
	}
	if spk.opts[0].Volume != DefaultTTSVolume {
		t.Fatalf("tts volume = %v", spk.opts[0].Volume)
	}
	if c.Busy() || c.State() != StateIdle {
		t.Fatalf("coordinator not idle after envelope: busy=%v state=%s", c.Busy(), c.State())
	}
}

func TestPlaySegmentRestoresAfterSpeechError(t *testing.T) {
	vol := &fakeVolume{}
	spk := &fakeSpeaker{err: errors.New("tts exploded")}
	c := newTestCoordinator(vol, spk)

	err := c.PlaySegment(context.Background(), "hello", handle, 0.7, Options{})
	if err == nil {
		t.Fatal("expected speech error to be returned")
	}

	want := []int{58, 45, 33, 20, 8, 70}
	if got := vol.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("volume calls = %v, want %v", got, want)
	}
	if c.Busy() {
		t.Fatal("busy after failed envelope")
	}
}

func TestVolumeStepFailuresDoNotAbortFade(t *testing.T) {
	vol := &fakeVolume{fail: map[int]bool{2: true, 7: true}}
	spk := &fakeSpeaker{}
	c := newTestCoordinator(vol, spk)

	if err := c.PlaySegment(context.Background(), "hi", handle, 0.7, Options{}); err != nil {
		t.Fatalf("play segment: %v", err)
	}
	if got := len(vol.snapshot()); got != 10 {
		t.Fatalf("volume calls = %d, want 10", got)
	}
	if len(spk.spokenTexts()) != 1 {
		t.Fatal("speech should still run when a fade step fails")
	}
}

func TestPlaySegmentsSequentialWithGaps(t *testing.T) {
	vol := &fakeVolume{}
	spk := &fakeSpeaker{}

	var mu sync.Mutex
	var pauses []time.Duration
	sleeper := func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		pauses = append(pauses, d)
		mu.Unlock()
		return ctx.Err()
	}
	c := NewCoordinator(vol, spk, zerolog.Nop(), WithSleeper(sleeper))

	segs := []Segment{{Text: "jingle"}, {Text: "weather", Voice: "en-GB-Neural2-B"}}
	if err := c.PlaySegments(context.Background(), segs, handle, 0.5, Options{Voice: "en-US-Neural2-D"}); err != nil {
		t.Fatalf("play segments: %v", err)
	}

	if got := spk.spokenTexts(); !reflect.DeepEqual(got, []string{"jingle", "weather"}) {
		t.Fatalf("spoken = %v", got)
	}
	if spk.opts[0].Voice != "en-US-Neural2-D" || spk.opts[1].Voice != "en-GB-Neural2-B" {
		t.Fatalf("voice overrides not applied: %+v", spk.opts)
	}

	fadeStep := DefaultFadeIn / FadeStepCount
	want := []time.Duration{
		fadeStep, fadeStep, fadeStep, fadeStep, fadeStep,
		PreSpeechPause, SegmentGap, PostSpeechPause,
		fadeStep, fadeStep, fadeStep, fadeStep, fadeStep,
	}
	if !reflect.DeepEqual(pauses, want) {
		t.Fatalf("pauses = %v, want %v", pauses, want)
	}
	if got := len(vol.snapshot()); got != 10 {
		t.Fatalf("volume calls = %d, want 10", got)
	}
}

func TestPlaySegmentsEmptyIsNoop(t *testing.T) {
	vol := &fakeVolume{}
	c := newTestCoordinator(vol, &fakeSpeaker{})

	if err := c.PlaySegments(context.Background(), nil, handle, 0.7, Options{}); err != nil {
		t.Fatalf("play segments: %v", err)
	}
	if len(vol.snapshot()) != 0 {
		t.Fatal("empty sequence should not touch the volume")
	}
}

func TestSecondSequenceDroppedWhileBusy(t *testing.T) {
	vol := &fakeVolume{}
	spk := &fakeSpeaker{block: make(chan struct{}), started: make(chan struct{}, 1)}
	c := newTestCoordinator(vol, spk)

	done := make(chan error, 1)
	go func() {
		done <- c.PlaySegments(context.Background(), []Segment{{Text: "first"}}, handle, 0.7, Options{})
	}()
	<-spk.started

	if !c.Busy() || c.State() != StateSpeaking {
		t.Fatalf("expected busy speaking, got busy=%v state=%s", c.Busy(), c.State())
	}
	if err := c.PlaySegments(context.Background(), []Segment{{Text: "second"}}, handle, 0.7, Options{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("second sequence err = %v, want ErrBusy", err)
	}
	if err := c.PlaySegment(context.Background(), "third", handle, 0.7, Options{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("single segment err = %v, want ErrBusy", err)
	}

	close(spk.block)
	if err := <-done; err != nil {
		t.Fatalf("first sequence: %v", err)
	}

	if got := spk.spokenTexts(); !reflect.DeepEqual(got, []string{"first"}) {
		t.Fatalf("spoken = %v, want only the first sequence", got)
	}
	if got := len(vol.snapshot()); got != 10 {
		t.Fatalf("volume calls = %d, want one envelope of 10", got)
	}
	if c.Busy() {
		t.Fatal("busy after envelope completed")
	}
}

func TestStopAbortsSequenceAndRestores(t *testing.T) {
	vol := &fakeVolume{}
	spk := &fakeSpeaker{block: make(chan struct{}), started: make(chan struct{}, 1)}

	var mu sync.Mutex
	var states []State
	c := newTestCoordinator(vol, spk, WithStateHook(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}))

	done := make(chan error, 1)
	go func() {
		done <- c.PlaySegments(context.Background(), []Segment{{Text: "one"}, {Text: "two"}}, handle, 0.7, Options{})
	}()
	<-spk.started

	c.Stop()
	if c.Busy() {
		t.Fatal("Stop must clear busy synchronously")
	}

	if err := <-done; err != nil {
		t.Fatalf("stopped sequence should not report an error: %v", err)
	}
	if got := spk.spokenTexts(); !reflect.DeepEqual(got, []string{"one"}) {
		t.Fatalf("spoken = %v, second entry must be skipped", got)
	}
	calls := vol.snapshot()
	if calls[len(calls)-1] != 70 {
		t.Fatalf("volume not restored after stop: %v", calls)
	}
	if spk.stops != 1 {
		t.Fatalf("speaker stops = %d, want 1", spk.stops)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateDucking, StateSpeaking, StateIdle}
	if !reflect.DeepEqual(states, want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
}

func TestNewSequenceAfterStopIsNotClearedByOld(t *testing.T) {
	vol := &fakeVolume{}
	spk := &fakeSpeaker{block: make(chan struct{}), started: make(chan struct{}, 2)}
	c := newTestCoordinator(vol, spk)

	first := make(chan error, 1)
	go func() {
		first <- c.PlaySegment(context.Background(), "old", handle, 0.7, Options{})
	}()
	<-spk.started
	c.Stop()
	<-first

	second := make(chan error, 1)
	go func() {
		second <- c.PlaySegment(context.Background(), "new", handle, 0.7, Options{})
	}()
	<-spk.started
	if !c.Busy() {
		t.Fatal("new envelope should be busy")
	}

	close(spk.block)
	if err := <-second; err != nil {
		t.Fatalf("second envelope: %v", err)
	}
	if c.Busy() {
		t.Fatal("busy after second envelope")
	}
}

func TestStaleRestoreYieldsToNewerEnvelope(t *testing.T) {
	// Call 6 is the first restore step of the stopped envelope.
	vol := &fakeVolume{holdAt: 6, held: make(chan struct{}, 1), release: make(chan struct{})}
	spk := &fakeSpeaker{block: make(chan struct{}), started: make(chan struct{}, 2)}
	c := newTestCoordinator(vol, spk)

	first := make(chan error, 1)
	go func() {
		first <- c.PlaySegment(context.Background(), "old", handle, 0.7, Options{})
	}()
	<-spk.started
	c.Stop()
	<-vol.held

	second := make(chan error, 1)
	go func() {
		second <- c.PlaySegment(context.Background(), "new", handle, 0.7, Options{})
	}()
	<-spk.started

	close(vol.release)
	if err := <-first; err != nil {
		t.Fatalf("stopped envelope: %v", err)
	}

	// The old restore must not lift the music under the new speech.
	want := []int{58, 45, 33, 20, 8, 20, 58, 45, 33, 20, 8}
	if got := vol.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("volume while new segment speaks = %v, want %v", got, want)
	}
	if c.State() != StateSpeaking {
		t.Fatalf("state = %s, want speaking", c.State())
	}

	close(spk.block)
	if err := <-second; err != nil {
		t.Fatalf("second envelope: %v", err)
	}
	want = append(want, 20, 33, 45, 58, 70)
	if got := vol.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("volume calls = %v, want %v", got, want)
	}
}

func TestDuckNeverRaisesQuietDevice(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		want    []int
	}{
		{"muted", 0, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"below duck level", 0.05, []int{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := &fakeVolume{}
			c := newTestCoordinator(vol, &fakeSpeaker{})
			if err := c.PlaySegment(context.Background(), "x", handle, tt.current, Options{}); err != nil {
				t.Fatalf("play segment: %v", err)
			}
			if got := vol.snapshot(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("volume calls = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreloadSwallowsErrors(t *testing.T) {
	c := newTestCoordinator(&fakeVolume{}, &fakeSpeaker{})
	c.Preload(context.Background(), "later", "en-US-Neural2-D")
}

func TestWithDefaultsKeepsStockForZeroFields(t *testing.T) {
	vol := &fakeVolume{}
	c := newTestCoordinator(vol, &fakeSpeaker{}, WithDefaults(Options{DuckVolume: 0.2}))

	if err := c.PlaySegment(context.Background(), "x", handle, 1.0, Options{}); err != nil {
		t.Fatalf("play segment: %v", err)
	}
	want := []int{84, 68, 52, 36, 20, 36, 52, 68, 84, 100}
	if got := vol.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("volume calls = %v, want %v", got, want)
	}
}
