package config

import "github.com/robmorgan/downbeat/rhythm"

// StandardForms returns the built-in song forms, available without a preset store.
func StandardForms() []rhythm.FormPreset {
	s := make([]rhythm.FormPreset, 0)

	s = append(s, twelveBarBlues())
	s = append(s, thirtyTwoBarForm())

	return s
}

// FindStandardForm looks up a built-in form by name.
func FindStandardForm(name string) (rhythm.FormPreset, bool) {
	for _, form := range StandardForms() {
		if form.Name == name || form.ID == name {
			return form, true
		}
	}
	return rhythm.FormPreset{}, false
}

func twelveBarBlues() rhythm.FormPreset {
	return rhythm.FormPreset{
		ID:            "standard:12-bar-blues",
		Name:          "12-Bar Blues",
		BPM:           120,
		TimeSignature: rhythm.CommonTime,
		Structure: []rhythm.PhraseSection{
			{Name: "I", BarCount: 4},
			{Name: "IV", BarCount: 2},
			{Name: "I", BarCount: 2},
			{Name: "V", BarCount: 1},
			{Name: "IV", BarCount: 1},
			{Name: "I", BarCount: 2},
		},
	}
}

func thirtyTwoBarForm() rhythm.FormPreset {
	return rhythm.FormPreset{
		ID:            "standard:32-bar-aaba",
		Name:          "32-Bar AABA",
		BPM:           120,
		TimeSignature: rhythm.CommonTime,
		Structure: []rhythm.PhraseSection{
			{Name: "A", BarCount: 8},
			{Name: "A", BarCount: 8},
			{Name: "B", BarCount: 8},
			{Name: "A", BarCount: 8},
		},
	}
}
