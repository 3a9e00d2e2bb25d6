package dj

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/friendsincode/airwave/internal/station"
)

var evening = time.Date(2026, 3, 14, 19, 5, 0, 0, time.UTC)

func fullOptions() ScriptOptions {
	return ScriptOptions{
		Track:       &Track{Title: "Harvest Moon", Artist: "Neil Young"},
		Weather:     &Weather{Description: "light rain", TempC: 11.6, City: "Portland"},
		News:        &News{Headlines: []string{"Markets rally", "Local team wins"}},
		User:        UserContext{Name: "Sam", TopArtists: []string{"Radiohead"}},
		StationName: "Airwave Rock",
		Now:         evening,
	}
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	for _, seg := range station.AllSegmentTypes {
		a := NewGenerator(NewPhraseBank(), rand.New(rand.NewSource(99))).Generate("rock", seg, fullOptions())
		b := NewGenerator(NewPhraseBank(), rand.New(rand.NewSource(99))).Generate("rock", seg, fullOptions())
		if a != b {
			t.Fatalf("%s: outputs differ for the same seed:\n%q\n%q", seg, a, b)
		}
		if a == "" {
			t.Fatalf("%s: empty script", seg)
		}
	}
}

func TestGenerateNeverLeaksPlaceholders(t *testing.T) {
	optionSets := map[string]ScriptOptions{
		"full":            fullOptions(),
		"empty":           {Now: evening},
		"era":             {Now: evening, Era: 1984, Track: &Track{Title: "Jump", Artist: "Van Halen"}},
		"bad era":         {Now: evening, Era: 1850},
		"blank headlines": {Now: evening, News: &News{Headlines: []string{"", " "}}},
	}

	stations := append([]string{"unknown-station"}, stationIDs()...)
	for name, opts := range optionSets {
		for _, id := range stations {
			for _, seg := range station.AllSegmentTypes {
				g := NewGenerator(NewPhraseBank(), rand.New(rand.NewSource(int64(len(id)))))
				for i := 0; i < 10; i++ {
					out := g.Generate(id, seg, opts)
					if strings.ContainsAny(out, "{}") {
						t.Fatalf("%s/%s/%s: placeholder leaked: %q", name, id, seg, out)
					}
					if out == "" {
						t.Fatalf("%s/%s/%s: empty script", name, id, seg)
					}
				}
			}
		}
	}
}

func stationIDs() []string {
	var ids []string
	for _, p := range station.DefaultRegistry().List() {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestGenerateWeatherFallsBackWithoutData(t *testing.T) {
	g := NewGenerator(NewPhraseBank(), rand.New(rand.NewSource(1)))
	out := g.Generate("pop", station.SegmentWeather, ScriptOptions{Now: evening})

	found := false
	for _, tpl := range genericPhrases[station.SegmentWeather] {
		if out == strings.ReplaceAll(tpl, "{station}", DefaultStationName) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected generic weather fallback, got %q", out)
	}
}

func TestGenerateFillsLiveData(t *testing.T) {
	g := NewGenerator(NewPhraseBank(), rand.New(rand.NewSource(5)))
	opts := fullOptions()

	for i := 0; i < 20; i++ {
		out := g.Generate("default", station.SegmentWeather, opts)
		if !strings.Contains(out, "light rain") || !strings.Contains(out, "12") {
			t.Fatalf("weather script missing data: %q", out)
		}
		out = g.Generate("default", station.SegmentNews, opts)
		if !strings.Contains(out, "Markets rally") {
			t.Fatalf("news script missing headline: %q", out)
		}
		out = g.Generate("default", station.SegmentNewsFull, opts)
		if !strings.Contains(out, "Markets rally. Local team wins") {
			t.Fatalf("news roundup missing headlines: %q", out)
		}
	}
}

func TestGenerateSkipsTemplatesNeedingName(t *testing.T) {
	g := NewGenerator(NewPhraseBank(), rand.New(rand.NewSource(11)))
	opts := fullOptions()
	opts.User = UserContext{}

	for i := 0; i < 50; i++ {
		out := g.Generate("default", station.SegmentIntro, opts)
		if strings.Contains(out, ", !") || strings.Contains(out, "  ") {
			t.Fatalf("template with missing name used: %q", out)
		}
	}
}

func TestGenerateWelcomesReturningUser(t *testing.T) {
	g := NewGenerator(NewPhraseBank(), rand.New(rand.NewSource(2)))
	opts := fullOptions()
	opts.User.IsReturningUser = true

	out := g.Generate("jazz", station.SegmentIntro, opts)
	if !strings.HasPrefix(out, "Welcome back, Sam! ") {
		t.Fatalf("returning intro = %q", out)
	}

	out = g.Generate("jazz", station.SegmentBetween, opts)
	if strings.HasPrefix(out, "Welcome back") {
		t.Fatalf("welcome back only belongs on intro: %q", out)
	}
}

func TestGenerateUsesEraPools(t *testing.T) {
	era, ok := EraFor(1987)
	if !ok || era.Decade != 1980 {
		t.Fatalf("EraFor(1987) = %v, %v", era.Decade, ok)
	}

	g := NewGenerator(NewPhraseBank(), rand.New(rand.NewSource(4)))
	opts := ScriptOptions{Now: evening, Era: 1980, User: UserContext{Name: "Sam"}}

	out := g.Generate("timemachine", station.SegmentIntro, opts)
	matched := false
	for _, tpl := range era.Intros {
		prefix := strings.SplitN(tpl, "{", 2)[0]
		if prefix != "" && strings.HasPrefix(out, prefix) {
			matched = true
		}
		if strings.HasPrefix(tpl, "{greeting}") && strings.HasPrefix(out, "Good evening") {
			matched = true
		}
	}
	if !matched {
		t.Fatalf("intro not drawn from the 1980s pool: %q", out)
	}

	fact := g.Generate("timemachine", station.SegmentFunFact, opts)
	fromEra := false
	for _, f := range era.Facts {
		if strings.Contains(fact, f) {
			fromEra = true
		}
	}
	if !fromEra {
		t.Fatalf("fun fact not from the 1980s: %q", fact)
	}
}

func TestEraForRange(t *testing.T) {
	tests := []struct {
		in   int
		want int
		ok   bool
	}{
		{1960, 1960, true},
		{1969, 1960, true},
		{2020, 2020, true},
		{2029, 2020, true},
		{1959, 0, false},
		{2030, 0, false},
		{0, 0, false},
	}
	for _, tt := range tests {
		era, ok := EraFor(tt.in)
		if ok != tt.ok || era.Decade != tt.want {
			t.Errorf("EraFor(%d) = %d, %v; want %d, %v", tt.in, era.Decade, ok, tt.want, tt.ok)
		}
	}
}

func TestGreeting(t *testing.T) {
	if Greeting(Morning) != "Good morning" || Greeting(Night) == "" {
		t.Fatal("unexpected greetings")
	}
}
