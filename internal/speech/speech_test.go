package speech

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBuildSSML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "punctuation pauses",
			in:   "Hello, world. It's 3:15 now! Ready?",
			want: `<speak>Hello,<break time="150ms"/> world.<break time="350ms"/> It&#39;s 3:15 now!<break time="350ms"/> Ready?<break time="350ms"/></speak>`,
		},
		{
			name: "ellipsis",
			in:   "Well... okay",
			want: `<speak>Well...<break time="500ms"/> okay</speak>`,
		},
		{
			name: "colon",
			in:   "Weather: sunny",
			want: `<speak>Weather:<break time="200ms"/> sunny</speak>`,
		},
		{
			name: "escapes xml",
			in:   "Rock & Roll <live>",
			want: `<speak>Rock &amp; Roll &lt;live&gt;</speak>`,
		},
		{
			name: "markup kept verbatim",
			in:   `Hi <break time="1s"/> there`,
			want: `<speak>Hi <break time="1s"/> there</speak>`,
		},
		{
			name: "already wrapped",
			in:   `<speak><emphasis>Loud</emphasis></speak>`,
			want: `<speak><emphasis>Loud</emphasis></speak>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildSSML(tt.in); got != tt.want {
				t.Fatalf("BuildSSML(%q)\n got %s\nwant %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestLanguageOf(t *testing.T) {
	tests := map[string]string{
		"en-GB-Neural2-B": "en",
		"fr_FR-siwis":     "fr",
		"DE":              "de",
		"":                "en",
	}
	for in, want := range tests {
		if got := LanguageOf(in); got != want {
			t.Errorf("LanguageOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseVoiceListing(t *testing.T) {
	out := []byte("Pty Language       Age/Gender VoiceName          File                 Other Languages\n" +
		" 5  en-gb           --/M      English_(Great_Britain) gmw/en\n" +
		" 5  en-us           --/M      English_(America)  gmw/en-US\n")

	if !parseVoiceListing(out, "en") {
		t.Fatal("expected en voice")
	}
	if parseVoiceListing(out, "fr") {
		t.Fatal("did not expect fr voice")
	}
}

func TestCacheKey(t *testing.T) {
	long := strings.Repeat("a", 60)
	k1 := CacheKey("v", 1, 1, long)
	k2 := CacheKey("v", 1, 1, long+"b")
	if k1 == k2 {
		t.Fatal("texts with different lengths must not share a key")
	}
	if CacheKey("v", 1, 1, "hello") == CacheKey("w", 1, 1, "hello") {
		t.Fatal("voices must not share a key")
	}
	if !strings.HasPrefix(BlobKey(k1), "speech/") {
		t.Fatalf("blob key %q", BlobKey(k1))
	}
}

func TestMemoryCacheTTLAndEviction(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := newMemoryCache(20*time.Minute, 3, clock)

	c.put("a", []byte("A"))
	c.put("b", []byte("B"))
	c.put("c", []byte("C"))
	c.put("d", []byte("D"))

	if _, ok := c.get("a"); ok {
		t.Fatal("oldest entry should be evicted")
	}
	if c.size() != 3 {
		t.Fatalf("size = %d, want 3", c.size())
	}

	now = now.Add(19 * time.Minute)
	if _, ok := c.get("b"); !ok {
		t.Fatal("entry expired early")
	}

	now = now.Add(time.Minute)
	if _, ok := c.get("b"); ok {
		t.Fatal("entry should expire after the TTL")
	}
}

type fakeProvider struct {
	mu      sync.Mutex
	calls   []Request
	err     error
	release map[string]chan struct{}
	entered chan string
}

func (p *fakeProvider) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	gate := p.release[req.Text]
	p.mu.Unlock()

	if p.entered != nil {
		p.entered <- req.Text
	}
	if gate != nil {
		<-gate
	}
	if p.err != nil {
		return nil, p.err
	}
	return []byte("audio:" + req.Text), nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakePlayer struct {
	mu     sync.Mutex
	played []string
	err    error
}

func (p *fakePlayer) Play(_ context.Context, audio []byte, _ float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.played = append(p.played, string(audio))
	return nil
}

func (p *fakePlayer) Stop() {}

func (p *fakePlayer) plays() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.played...)
}

type fakeLocal struct {
	mu     sync.Mutex
	spoken []string
	langs  []string
	err    error
}

func (l *fakeLocal) Speak(_ context.Context, text, lang string, _, _, _ float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.spoken = append(l.spoken, text)
	l.langs = append(l.langs, lang)
	return nil
}

func (l *fakeLocal) Stop() {}

type mapBlobStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapBlobStore) GetBlob(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return v, nil
}

func (m *mapBlobStore) PutBlob(_ context.Context, key string, data []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func TestSpeakNetworkAndMemoryCache(t *testing.T) {
	prov := &fakeProvider{}
	player := &fakePlayer{}
	c := NewClient(prov, player, nil, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if err := c.Speak(context.Background(), "hello there", SpeakOptions{Volume: 0.9}); err != nil {
			t.Fatalf("speak: %v", err)
		}
	}

	if prov.callCount() != 1 {
		t.Fatalf("provider calls = %d, want 1 (second from cache)", prov.callCount())
	}
	if got := player.plays(); !reflect.DeepEqual(got, []string{"audio:hello there", "audio:hello there"}) {
		t.Fatalf("played = %v", got)
	}
	req := prov.calls[0]
	if req.Voice != DefaultVoice || !strings.HasPrefix(req.SSML, "<speak>") {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestSpeakFallsBackToLocalVoice(t *testing.T) {
	tests := []struct {
		name   string
		prov   *fakeProvider
		player *fakePlayer
	}{
		{name: "provider error", prov: &fakeProvider{err: errors.New("503")}, player: &fakePlayer{}},
		{name: "playback error", prov: &fakeProvider{}, player: &fakePlayer{err: errors.New("no sink")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := &fakeLocal{}
			c := NewClient(tt.prov, tt.player, local, zerolog.Nop())

			if err := c.Speak(context.Background(), "bonjour", SpeakOptions{Voice: "fr-FR-Neural2-A"}); err != nil {
				t.Fatalf("speak: %v", err)
			}
			if !reflect.DeepEqual(local.spoken, []string{"bonjour"}) || local.langs[0] != "fr" {
				t.Fatalf("local voice not used: %+v", local)
			}
		})
	}
}

func TestSpeakSilentWhenEverythingFails(t *testing.T) {
	c := NewClient(&fakeProvider{err: errors.New("down")}, &fakePlayer{}, &fakeLocal{err: ErrNoLocalVoice}, zerolog.Nop())
	if err := c.Speak(context.Background(), "anyone?", SpeakOptions{}); err != nil {
		t.Fatalf("speak must never fail: %v", err)
	}

	c = NewClient(nil, nil, nil, zerolog.Nop())
	if err := c.Speak(context.Background(), "anyone?", SpeakOptions{}); err != nil {
		t.Fatalf("speak with no stages must not fail: %v", err)
	}
}

func TestSupersededSpeakNeverPlays(t *testing.T) {
	gate := make(chan struct{})
	prov := &fakeProvider{
		release: map[string]chan struct{}{"first": gate},
		entered: make(chan string, 2),
	}
	player := &fakePlayer{}
	local := &fakeLocal{}
	c := NewClient(prov, player, local, zerolog.Nop())

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- c.Speak(context.Background(), "first", SpeakOptions{})
	}()
	<-prov.entered

	if err := c.Speak(context.Background(), "second", SpeakOptions{}); err != nil {
		t.Fatalf("second speak: %v", err)
	}
	<-prov.entered

	close(gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first speak: %v", err)
	}

	if got := player.plays(); !reflect.DeepEqual(got, []string{"audio:second"}) {
		t.Fatalf("played = %v, want only the latest utterance", got)
	}
	if len(local.spoken) != 0 {
		t.Fatalf("superseded call must not fall back to the local voice: %v", local.spoken)
	}
}

func TestStopCancelsPendingSpeak(t *testing.T) {
	gate := make(chan struct{})
	prov := &fakeProvider{release: map[string]chan struct{}{"pending": gate}, entered: make(chan string, 1)}
	player := &fakePlayer{}
	c := NewClient(prov, player, nil, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		done <- c.Speak(context.Background(), "pending", SpeakOptions{})
	}()
	<-prov.entered
	c.Stop()
	close(gate)
	<-done

	if len(player.plays()) != 0 {
		t.Fatal("stopped utterance must not play")
	}
}

// holdingPlayer keeps hold playing until its context ends.
type holdingPlayer struct {
	mu        sync.Mutex
	hold      string
	started   chan string
	played    []string
	cancelled []string
	active    int
	maxActive int
}

func (p *holdingPlayer) Play(ctx context.Context, audio []byte, _ float64) error {
	p.mu.Lock()
	p.played = append(p.played, string(audio))
	p.active++
	p.maxActive = max(p.maxActive, p.active)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}()

	p.started <- string(audio)
	if string(audio) != p.hold {
		return nil
	}
	<-ctx.Done()
	p.mu.Lock()
	p.cancelled = append(p.cancelled, string(audio))
	p.mu.Unlock()
	return ctx.Err()
}

func (p *holdingPlayer) Stop() {}

func TestNewerSpeakCutsInFlightPlayback(t *testing.T) {
	player := &holdingPlayer{hold: "audio:first", started: make(chan string, 2)}
	local := &fakeLocal{}
	c := NewClient(&fakeProvider{}, player, local, zerolog.Nop())

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- c.Speak(context.Background(), "first", SpeakOptions{})
	}()
	<-player.started

	if err := c.Speak(context.Background(), "second", SpeakOptions{}); err != nil {
		t.Fatalf("second speak: %v", err)
	}
	if err := <-firstDone; err != nil {
		t.Fatalf("first speak: %v", err)
	}

	player.mu.Lock()
	defer player.mu.Unlock()
	if !reflect.DeepEqual(player.played, []string{"audio:first", "audio:second"}) {
		t.Fatalf("played = %v", player.played)
	}
	if !reflect.DeepEqual(player.cancelled, []string{"audio:first"}) {
		t.Fatalf("cancelled = %v, want the older utterance cut off", player.cancelled)
	}
	if player.maxActive != 1 {
		t.Fatalf("overlapping playbacks = %d, want 1", player.maxActive)
	}
	if len(local.spoken) != 0 {
		t.Fatalf("cut-off utterance must not fall back to the local voice: %v", local.spoken)
	}
}

func TestProcSlotIgnoresCancelledStart(t *testing.T) {
	var slot procSlot
	live, done := slot.start(context.Background())
	defer done()

	stale, cancel := context.WithCancel(context.Background())
	cancel()
	staleCtx, staleDone := slot.start(stale)
	staleDone()

	if staleCtx.Err() == nil {
		t.Fatal("cancelled start returned a live context")
	}
	if live.Err() != nil {
		t.Fatal("cancelled start killed the running process")
	}
}

func TestSharedTierReadAndWriteThrough(t *testing.T) {
	tier := &mapBlobStore{data: map[string][]byte{}}
	prov := &fakeProvider{}
	c := NewClient(prov, &fakePlayer{}, nil, zerolog.Nop(), WithBlobStore("redis", tier))

	if err := c.Preload(context.Background(), "warm me", ""); err != nil {
		t.Fatalf("preload: %v", err)
	}
	key := BlobKey(CacheKey(DefaultVoice, 0, 0, "warm me"))
	if string(tier.data[key]) != "audio:warm me" {
		t.Fatalf("tier not written through: %v", tier.data)
	}

	// A fresh client with an empty memory cache is served by the tier.
	player := &fakePlayer{}
	fresh := NewClient(prov, player, nil, zerolog.Nop(), WithBlobStore("redis", tier))
	if err := fresh.Speak(context.Background(), "warm me", SpeakOptions{}); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if prov.callCount() != 1 {
		t.Fatalf("provider calls = %d, want 1", prov.callCount())
	}
	if got := player.plays(); !reflect.DeepEqual(got, []string{"audio:warm me"}) {
		t.Fatalf("played = %v", got)
	}
}
