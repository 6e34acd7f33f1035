package rhythm

import (
	"fmt"
	"time"
)

// PhraseSection is a named run of bars within a form, e.g. the "A" section of an AABA tune.
type PhraseSection struct {
	Name     string `yaml:"name" json:"name"`
	BarCount int    `yaml:"bar_count" json:"bar_count"`
	IsMuted  bool   `yaml:"is_muted,omitempty" json:"is_muted,omitempty"`
}

// FormPreset is a saved song form. Applying it sets the tempo, the time signature and a phrase long enough to cover
// every section.
type FormPreset struct {
	ID            string          `yaml:"id,omitempty" json:"id"`
	Name          string          `yaml:"name" json:"name"`
	BPM           int             `yaml:"bpm" json:"bpm"`
	TimeSignature TimeSignature   `yaml:"time_signature" json:"time_signature"`
	Structure     []PhraseSection `yaml:"structure" json:"structure"`
	Timestamp     time.Time       `yaml:"timestamp,omitempty" json:"timestamp"`
}

// TotalBars is the sum of the bar counts of all sections.
func (p FormPreset) TotalBars() int {
	total := 0
	for _, section := range p.Structure {
		total += section.BarCount
	}
	return total
}

// MutedBars returns the 1-based phrase bars covered by sections flagged as muted.
func (p FormPreset) MutedBars() []int {
	var bars []int
	start := 1
	for _, section := range p.Structure {
		if section.IsMuted {
			for bar := start; bar < start+section.BarCount; bar++ {
				bars = append(bars, bar)
			}
		}
		start += section.BarCount
	}
	return bars
}

// Validate rejects presets that could not be applied to a metronome.
func (p FormPreset) Validate() error {
	if p.Name == "" {
		return &ConfigurationError{Field: "preset name", Reason: "must not be empty"}
	}
	if len(p.Structure) == 0 {
		return &ConfigurationError{Field: "preset structure", Reason: "needs at least one section"}
	}
	for i, section := range p.Structure {
		if section.BarCount < 1 {
			return &ConfigurationError{
				Field:  "bar count",
				Value:  section.BarCount,
				Reason: fmt.Sprintf("section %d (%q) needs at least one bar", i+1, section.Name),
			}
		}
	}
	if err := ValidateBPM(p.BPM); err != nil {
		return err
	}
	if err := p.TimeSignature.Validate(); err != nil {
		return err
	}
	return ValidatePhraseLength(p.TotalBars())
}

// Summary is a one line description, e.g. "120 BPM • 4/4 • 6 sections".
func (p FormPreset) Summary() string {
	return fmt.Sprintf("%d BPM • %s • %d sections", p.BPM, p.TimeSignature, len(p.Structure))
}
