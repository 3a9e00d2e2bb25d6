/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

// DefaultStationID is used when a caller names a station the registry does not know.
const DefaultStationID = "default"

type weights = map[SegmentType]float64

// DefaultProfiles returns the built-in station table.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			ID:          DefaultStationID,
			Label:       "Airwave",
			Color:       "#6c5ce7",
			Icon:        "radio",
			Personality: Personality{Talkativeness: 0.6, Tone: ToneNeutral},
			SegmentWeights: weights{
				SegmentWeather: 1.0, SegmentWeatherFull: 0.5, SegmentNews: 0.8, SegmentNewsFull: 0.4,
				SegmentFunFact: 1.0, SegmentStationID: 0.8, SegmentJingle: 0.6, SegmentSongIntro: 1.5,
				SegmentTime: 0.6,
			},
		},
		{
			ID:          "pop",
			Label:       "Pop Hits",
			Color:       "#ff4f8b",
			Icon:        "star",
			Personality: Personality{Talkativeness: 0.8, Tone: ToneEnergetic},
			SegmentWeights: weights{
				SegmentWeather: 0.8, SegmentWeatherFull: 0.3, SegmentNews: 0.5, SegmentNewsFull: 0.2,
				SegmentFunFact: 1.2, SegmentStationID: 1.0, SegmentJingle: 1.2, SegmentSongIntro: 2.0,
				SegmentTime: 0.5,
			},
		},
		{
			ID:          "rock",
			Label:       "Rock Classics",
			Color:       "#e17055",
			Icon:        "guitar",
			Personality: Personality{Talkativeness: 0.6, Tone: ToneEnergetic},
			SegmentWeights: weights{
				SegmentWeather: 0.6, SegmentWeatherFull: 0.2, SegmentNews: 0.4, SegmentNewsFull: 0.2,
				SegmentFunFact: 1.5, SegmentStationID: 1.0, SegmentJingle: 1.0, SegmentSongIntro: 1.8,
				SegmentTime: 0.4,
			},
		},
		{
			ID:          "jazz",
			Label:       "Late Night Jazz",
			Color:       "#fdcb6e",
			Icon:        "saxophone",
			Personality: Personality{Talkativeness: 0.4, Tone: ToneCalm},
			SegmentWeights: weights{
				SegmentWeather: 0.5, SegmentWeatherFull: 0.3, SegmentNews: 0.2, SegmentNewsFull: 0.1,
				SegmentFunFact: 1.4, SegmentStationID: 0.8, SegmentJingle: 0.2, SegmentSongIntro: 1.6,
				SegmentTime: 0.8,
			},
		},
		{
			ID:          "electronic",
			Label:       "Electronic Pulse",
			Color:       "#00cec9",
			Icon:        "waveform",
			Personality: Personality{Talkativeness: 0.5, Tone: ToneEnergetic},
			SegmentWeights: weights{
				SegmentWeather: 0.4, SegmentWeatherFull: 0.1, SegmentNews: 0.2, SegmentNewsFull: 0.1,
				SegmentFunFact: 0.8, SegmentStationID: 1.2, SegmentJingle: 1.5, SegmentSongIntro: 1.5,
				SegmentTime: 0.6,
			},
		},
		{
			ID:          "hiphop",
			Label:       "Hip-Hop Block",
			Color:       "#a29bfe",
			Icon:        "mic",
			Personality: Personality{Talkativeness: 0.9, Tone: ToneWitty},
			SegmentWeights: weights{
				SegmentWeather: 0.6, SegmentWeatherFull: 0.2, SegmentNews: 0.5, SegmentNewsFull: 0.2,
				SegmentFunFact: 1.3, SegmentStationID: 1.0, SegmentJingle: 1.1, SegmentSongIntro: 2.0,
				SegmentTime: 0.4,
			},
		},
		{
			ID:          "chill",
			Label:       "Chill Lounge",
			Color:       "#55efc4",
			Icon:        "leaf",
			Personality: Personality{Talkativeness: 0.35, Tone: ToneCalm},
			SegmentWeights: weights{
				SegmentWeather: 0.8, SegmentWeatherFull: 0.5, SegmentNews: 0.1, SegmentNewsFull: 0.05,
				SegmentFunFact: 0.8, SegmentStationID: 0.6, SegmentJingle: 0.3, SegmentSongIntro: 1.2,
				SegmentTime: 0.8,
			},
		},
		{
			ID:          "classical",
			Label:       "Classical Hall",
			Color:       "#dfe6e9",
			Icon:        "violin",
			Personality: Personality{Talkativeness: 0.45, Tone: ToneWarm},
			SegmentWeights: weights{
				SegmentWeather: 0.4, SegmentWeatherFull: 0.2, SegmentNews: 0.3, SegmentNewsFull: 0.2,
				SegmentFunFact: 1.6, SegmentStationID: 0.7, SegmentJingle: 0.1, SegmentSongIntro: 2.0,
				SegmentTime: 0.7,
			},
		},
		{
			ID:          "news",
			Label:       "News & Talk",
			Color:       "#74b9ff",
			Icon:        "newspaper",
			Personality: Personality{Talkativeness: 0.3, Tone: ToneNeutral},
			SegmentWeights: weights{
				SegmentWeather: 1.2, SegmentWeatherFull: 1.0, SegmentNews: 2.0, SegmentNewsFull: 1.5,
				SegmentFunFact: 0.4, SegmentStationID: 0.8, SegmentJingle: 0.4, SegmentSongIntro: 0.6,
				SegmentTime: 1.0,
			},
		},
		{
			ID:          "timemachine",
			Label:       "Time Machine",
			Color:       "#fab1a0",
			Icon:        "clock",
			Personality: Personality{Talkativeness: 0.7, Tone: ToneWarm},
			SegmentWeights: weights{
				SegmentWeather: 0.3, SegmentWeatherFull: 0.1, SegmentNews: 0.1, SegmentNewsFull: 0.05,
				SegmentFunFact: 2.0, SegmentStationID: 0.9, SegmentJingle: 0.6, SegmentSongIntro: 1.6,
				SegmentTime: 0.3,
			},
		},
	}
}
