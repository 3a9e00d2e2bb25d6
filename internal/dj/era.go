/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dj

// Era is the Time Machine phrase bundle for one decade.
type Era struct {
	Decade      int
	Intros      []string
	Transitions []string
	Facts       []string
}

// Supported Time Machine range.
const (
	FirstEra = 1960
	LastEra  = 2020
)

// EraFor returns the bundle for decade. Years inside a decade snap down to it
// (1987 -> 1980). Returns false outside [FirstEra, LastEra+9].
func EraFor(decade int) (Era, bool) {
	if decade < FirstEra || decade > LastEra+9 {
		return Era{}, false
	}
	e, ok := eras[decade-decade%10]
	return e, ok
}

var eras = map[int]Era{
	1960: {
		Decade: 1960,
		Intros: []string{
			"{greeting}, groovy people! The Time Machine has landed in the swinging sixties.",
			"Far out, {name}! Welcome to {decade} on {station}.",
		},
		Transitions: []string{
			"That was {title} by {artist}, straight out of the sixties.",
			"{artist} there, with a sound that defined {decade}.",
		},
		Facts: []string{
			"the Beatles played their last concert on a London rooftop in 1969.",
			"Woodstock drew around four hundred thousand people in the summer of 1969.",
		},
	},
	1970: {
		Decade: 1970,
		Intros: []string{
			"{greeting}! Put on your platform shoes, it's {decade} on {station}.",
			"Welcome to the seventies, {name}. Disco ball is spinning.",
		},
		Transitions: []string{
			"{title} by {artist}. Pure seventies gold.",
			"That was {artist} with {title}. Can you dig it?",
		},
		Facts: []string{
			"the Sony Walkman went on sale in 1979.",
			"Saturday Night Fever became one of the best-selling soundtracks of all time.",
		},
	},
	1980: {
		Decade: 1980,
		Intros: []string{
			"{greeting}! Rewind your cassettes, the Time Machine is set to {decade}.",
			"Totally awesome, {name}. Welcome to the eighties on {station}.",
		},
		Transitions: []string{
			"{artist} with {title}. Radical!",
			"That was {title}, an eighties classic from {artist}.",
		},
		Facts: []string{
			"the first commercial CD pressed in the US was Born in the U.S.A.",
			"MTV launched on August first, 1981.",
		},
	},
	1990: {
		Decade: 1990,
		Intros: []string{
			"{greeting}! Grab your flannel, the Time Machine is parked in {decade}.",
			"All that and a bag of chips, {name}. It's the nineties on {station}.",
		},
		Transitions: []string{
			"That was {artist}, {title}. As if you could forget that one.",
			"{title} from {artist}. Nineties forever.",
		},
		Facts: []string{
			"the MP3 format was standardized in the early nineties.",
			"Smells Like Teen Spirit was named after a deodorant.",
		},
	},
	2000: {
		Decade: 2000,
		Intros: []string{
			"{greeting}! Burn a mix CD, we're back in {decade}.",
			"Welcome to the two-thousands, {name}. This is {station}.",
		},
		Transitions: []string{
			"{title} by {artist}. Straight off a burned CD.",
			"That was {artist} with {title}, an oh-oh's favorite.",
		},
		Facts: []string{
			"the first iPod, released in 2001, held about a thousand songs.",
			"ringtones were a multi-billion dollar business in the mid two-thousands.",
		},
	},
	2010: {
		Decade: 2010,
		Intros: []string{
			"{greeting}! The Time Machine stops in {decade}, the streaming decade.",
		},
		Transitions: []string{
			"{artist}, {title}. That one was everywhere in the twenty-tens.",
		},
		Facts: []string{
			"streaming overtook downloads as the biggest source of music revenue in the mid twenty-tens.",
		},
	},
	2020: {
		Decade: 2020,
		Intros: []string{
			"{greeting}! We're in {decade}, the here and now, on {station}.",
		},
		Transitions: []string{
			"That was {title} from {artist}. Fresh from this decade.",
		},
		Facts: []string{
			"short video apps have launched more hit songs this decade than radio.",
		},
	},
}
