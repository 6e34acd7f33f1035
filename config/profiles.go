package config

import "github.com/robmorgan/downbeat/profile"

func initializeSoundKits() map[string]profile.Profile {
	out := map[string]profile.Profile{
		"classic": {
			Name: "Classic Click",
			// the count-off reuses the tick, quieter
			Voices: map[string]profile.Voice{
				profile.VoiceTypeTick:     {Sample: "tick.wav", Volume: 0.7},
				profile.VoiceTypeAccent:   {Sample: "accent.wav", Volume: 1.0},
				profile.VoiceTypeCountOff: {Sample: "tick.wav", Volume: 0.5},
			},
		},
		"woodblock": {
			Name: "Woodblock",
			Voices: map[string]profile.Voice{
				profile.VoiceTypeTick:     {Sample: "woodblock_low.wav", Volume: 0.8},
				profile.VoiceTypeAccent:   {Sample: "woodblock_high.wav", Volume: 1.0},
				profile.VoiceTypeCountOff: {Sample: "woodblock_low.wav", Volume: 0.5},
			},
		},
		"cowbell": {
			Name: "Cowbell",
			Voices: map[string]profile.Voice{
				profile.VoiceTypeTick:     {Sample: "cowbell_muted.wav", Volume: 0.7},
				profile.VoiceTypeAccent:   {Sample: "cowbell_open.wav", Volume: 1.0},
				profile.VoiceTypeCountOff: {Sample: "sticks.wav", Volume: 0.6},
			},
		},
	}

	return out
}
