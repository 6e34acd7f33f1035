package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/robmorgan/downbeat/rhythm"
)

const (
	formMinBeats = 2
	formMaxBeats = 12
	formMaxBars  = 32
)

// runPresetForm asks for the preset's fields, starting from the values already in p.
func runPresetForm(p *rhythm.FormPreset) error {
	name := p.Name
	bpm := strconv.Itoa(p.BPM)
	beats := p.TimeSignature.Beats
	noteValue := p.TimeSignature.NoteValue
	sections := "A:8\nA:8\nB:8\nA:8"

	beatOptions := make([]huh.Option[int], 0, formMaxBeats-formMinBeats+1)
	for b := formMinBeats; b <= formMaxBeats; b++ {
		beatOptions = append(beatOptions, huh.NewOption(strconv.Itoa(b), b))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Key("name").
				Validate(validateName).
				Value(&name),
			huh.NewInput().
				Title("BPM").
				Description(fmt.Sprintf("%d-%d", rhythm.MinBPM, rhythm.MaxBPM)).
				Key("bpm").
				Validate(validateBPM).
				Value(&bpm),
			huh.NewSelect[int]().
				Title("Beats per bar").
				Key("beats").
				Options(beatOptions...).
				Value(&beats),
			huh.NewSelect[int]().
				Title("Note value").
				Key("note_value").
				Options(huh.NewOptions(2, 4, 8, 16)...).
				Value(&noteValue),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Sections").
				Description("One per line as name:bars, add :muted to play a section silently.").
				Key("sections").
				Validate(validateSectionLines).
				Value(&sections),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	structure, err := parseSections(sectionLines(sections))
	if err != nil {
		return err
	}

	p.Name = strings.TrimSpace(name)
	p.BPM, _ = strconv.Atoi(bpm)
	p.TimeSignature = rhythm.TimeSignature{Beats: beats, NoteValue: noteValue}
	p.Structure = structure
	return nil
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("a name is required")
	}
	return nil
}

func validateBPM(s string) error {
	bpm, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("bpm must be a number")
	}
	return rhythm.ValidateBPM(bpm)
}

func validateSectionLines(s string) error {
	lines := sectionLines(s)
	if len(lines) == 0 {
		return errors.New("add at least one section")
	}

	sections, err := parseSections(lines)
	if err != nil {
		return err
	}
	for _, section := range sections {
		if section.BarCount < 1 || section.BarCount > formMaxBars {
			return fmt.Errorf("section %s needs 1 to %d bars", section.Name, formMaxBars)
		}
	}
	return nil
}

func sectionLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
