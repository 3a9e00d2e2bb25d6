/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dj

import "github.com/friendsincode/airwave/internal/station"

type pools = map[station.SegmentType][]string

// PhraseBank holds script templates. Templates use {placeholder} slots that
// the Generator fills from live data.
type PhraseBank struct {
	defaults pools
	stations map[string]pools
	generic  pools
	facts    []string
}

// NewPhraseBank returns the built-in phrase bank.
func NewPhraseBank() *PhraseBank {
	return &PhraseBank{
		defaults: defaultPhrases,
		stations: stationPhrases,
		generic:  genericPhrases,
		facts:    musicFacts,
	}
}

// Pool returns the templates for seg on stationID, falling back to the default pool.
func (b *PhraseBank) Pool(stationID string, seg station.SegmentType) []string {
	if sp, ok := b.stations[stationID]; ok {
		if p := sp[seg]; len(p) > 0 {
			return p
		}
	}
	return b.defaults[seg]
}

// Generic returns templates for seg that only use always-available placeholders.
func (b *PhraseBank) Generic(seg station.SegmentType) []string {
	if p := b.generic[seg]; len(p) > 0 {
		return p
	}
	return b.generic[station.SegmentBetween]
}

// Facts returns the general music trivia pool.
func (b *PhraseBank) Facts() []string {
	return b.facts
}

var defaultPhrases = pools{
	station.SegmentIntro: {
		"{greeting} and welcome to {station}. Let's get this started.",
		"{greeting}, {name}! You're locked in to {station}.",
		"{greeting}, you're tuned to {station}, and we've got a great run of music lined up.",
		"This is {station}. {greeting}, {name}, pull up a chair.",
	},
	station.SegmentBetween: {
		"That was {title} by {artist}. Stay with us on {station}.",
		"{artist} there with {title}. More music coming right up.",
		"You just heard {title} from {artist}. If you like that, you'll love what's next.",
		"{title}, {artist}. {name}, hope that one hit the spot.",
		"That one's for the {top_artist} fans out there. This is {station}.",
	},
	station.SegmentWeather: {
		"Quick look outside: {weather}, {temp} degrees.",
		"Weather check for {city}: {weather} and {temp} degrees right now.",
		"It's {temp} degrees with {weather}. Dress accordingly!",
	},
	station.SegmentWeatherFull: {
		"Time for your full weather update. In {city} we're looking at {weather}, currently {temp} degrees. That's your forecast on {station}.",
		"Here's the weather. Right now it's {weather} with a temperature of {temp} degrees. Plan your day around that, and keep it here.",
	},
	station.SegmentNews: {
		"In the news: {headline}.",
		"Here's what's happening: {headline}.",
		"Quick headline for you: {headline}. Back to the music.",
	},
	station.SegmentNewsFull: {
		"Time for the news. {headlines}. That's the latest, more music on {station}.",
		"Your news update. {headlines}. Stay informed, stay tuned.",
	},
	station.SegmentTime: {
		"It's {time} on {station}.",
		"The time is {time}. {greeting}!",
		"Right now it's {time}, and you're listening to {station}.",
	},
	station.SegmentOutro: {
		"That's all from me for now. Thanks for listening to {station}, {name}.",
		"I'm signing off, but the music keeps going. This has been {station}.",
	},
	station.SegmentStationID: {
		"You're listening to {station}.",
		"This is {station}. Your music, your way.",
		"{station}. Keep it locked.",
	},
	station.SegmentFunFact: {
		"Here's a fun fact: {fact}",
		"Did you know? {fact}",
		"Music trivia time. {fact}",
	},
	station.SegmentSongIntro: {
		"Up next, {title} by {artist}.",
		"Here's {artist} with {title}.",
		"Coming up: {artist}, {title}. Turn it up.",
		"{name}, this one's for you. {title} by {artist}.",
	},
	station.SegmentJingle: {
		"{station}!",
		"{station}. All music. All day.",
		"You're on {station}!",
	},
}

var stationPhrases = map[string]pools{
	"pop": {
		station.SegmentIntro: {
			"{greeting}, pop fans! Welcome to {station}, where every song's a hit.",
			"{greeting}, {name}! Let's turn up the hits on {station}.",
		},
		station.SegmentStationID: {
			"{station}. Nothing but hits.",
			"All the hits, all the time. {station}.",
		},
		station.SegmentJingle: {
			"{station}! Hit after hit!",
			"Pop! Pop! {station}!",
		},
	},
	"rock": {
		station.SegmentIntro: {
			"{greeting}, rock fans. This is {station}. Let's get loud.",
			"{greeting}, {name}. Crank it up, you're on {station}.",
		},
		station.SegmentBetween: {
			"{artist}, {title}. That's how it's done. {station}.",
			"That was {title} from {artist}. Keep those horns up.",
		},
		station.SegmentJingle: {
			"{station}. Rock never sleeps.",
		},
	},
	"jazz": {
		station.SegmentIntro: {
			"{greeting}. Settle in with {station}, smooth sounds all night long.",
			"{greeting}, {name}. Let the music unwind you, here on {station}.",
		},
		station.SegmentBetween: {
			"Beautiful. That was {artist} with {title}.",
			"{title}, performed by {artist}. Pure elegance, here on {station}.",
		},
		station.SegmentStationID: {
			"You're relaxing with {station}.",
		},
	},
	"electronic": {
		station.SegmentIntro: {
			"{greeting}! {station} is live. Feel the pulse.",
		},
		station.SegmentJingle: {
			"{station}. Drop the beat.",
			"Electronic. Pulse. {station}.",
		},
	},
	"hiphop": {
		station.SegmentIntro: {
			"{greeting}, {name}! {station} in the building.",
			"Yo, {greeting}! You're locked in to {station}.",
		},
		station.SegmentSongIntro: {
			"Run it back with {artist}. This is {title}.",
			"{artist} on the mic. {title}. Let's go.",
		},
	},
	"chill": {
		station.SegmentIntro: {
			"{greeting}. Take a breath. This is {station}.",
		},
		station.SegmentBetween: {
			"Mmm, {title} by {artist}. Just breathe and enjoy.",
		},
	},
	"classical": {
		station.SegmentSongIntro: {
			"We now present {title}, by {artist}.",
			"Next on {station}: {artist}, {title}.",
		},
		station.SegmentBetween: {
			"That was {title}, composed by {artist}.",
		},
	},
	"news": {
		station.SegmentIntro: {
			"{greeting}. This is {station}, keeping you informed.",
		},
		station.SegmentStationID: {
			"{station}. News, talk and the music in between.",
		},
	},
}

var genericPhrases = pools{
	station.SegmentIntro:       {"{greeting} and welcome to {station}.", "{greeting}, you're listening to {station}."},
	station.SegmentBetween:     {"You're listening to {station}. More music coming up.", "Stay tuned to {station}."},
	station.SegmentWeather:     {"Weather updates are coming up later. Right now, more music on {station}."},
	station.SegmentWeatherFull: {"No fresh weather data right now, so let's keep the music going on {station}."},
	station.SegmentNews:        {"No headlines for now. Back to the music on {station}."},
	station.SegmentNewsFull:    {"The newsroom is quiet right now. More music on {station}."},
	station.SegmentTime:        {"It's {time} on {station}."},
	station.SegmentOutro:       {"Thanks for listening to {station}."},
	station.SegmentStationID:   {"You're listening to {station}."},
	station.SegmentFunFact:     {"{greeting}! Keep it right here on {station}."},
	station.SegmentSongIntro:   {"Here's another one on {station}.", "Up next on {station}, something good."},
	station.SegmentJingle:      {"{station}!"},
}

var musicFacts = []string{
	"the first song ever played on MTV was Video Killed the Radio Star.",
	"a typical pop song sits somewhere between 100 and 130 beats per minute.",
	"the piano has 88 keys: 52 white and 36 black.",
	"the longest officially released song runs for more than 13 hours.",
	"the word jazz first appeared in print around 1912, in a baseball article.",
	"vinyl records spin at 33 and a third revolutions per minute for albums.",
	"Mozart wrote his first symphony at the age of eight.",
	"the Beatles have more number one hits in the US than any other act.",
}
