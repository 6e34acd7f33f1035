package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robmorgan/downbeat/rhythm"
	"github.com/robmorgan/downbeat/utils"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case stateMsg:
		m.state = rhythm.State(msg)
		if m.state.Triggered {
			m.pulse.Duration = flashDuration(m.state.BeatInterval())
			m.pulse.Trigger(time.Now())
		}
		return m, waitForState(m.states)
	case frameMsg:
		m.now = time.Time(msg)
		return m, frameCmd()
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	settings := m.metronome.Settings()
	m.err = nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.metronome.Stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Play):
		if m.metronome.IsPlaying() {
			m.metronome.Stop()
		} else {
			m.metronome.Start()
		}
	case key.Matches(msg, m.keys.FasterBPM):
		m.err = m.metronome.UpdateBPM(utils.StepClamped(settings.BPM(), bpmStep, rhythm.MinBPM, rhythm.MaxBPM))
	case key.Matches(msg, m.keys.SlowerBPM):
		m.err = m.metronome.UpdateBPM(utils.StepClamped(settings.BPM(), -bpmStep, rhythm.MinBPM, rhythm.MaxBPM))
	case key.Matches(msg, m.keys.LongerPhrase):
		if bars := settings.PhraseLength(); bars < maxPhraseLength {
			m.err = m.metronome.SetPhraseLength(bars + 1)
		}
	case key.Matches(msg, m.keys.ShorterPhrase):
		if bars := settings.PhraseLength(); bars > 1 {
			m.err = m.metronome.SetPhraseLength(bars - 1)
		}
	case key.Matches(msg, m.keys.TimeSignature):
		m.err = m.metronome.SetTimeSignature(nextTimeSignature(settings.TimeSignature()))
	case key.Matches(msg, m.keys.CountOff):
		m.metronome.SetCountOffEnabled(!settings.CountOffEnabled())
	case key.Matches(msg, m.keys.MuteBeat):
		if beat := int(msg.String()[0] - '0'); beat <= settings.BeatsPerBar() {
			m.metronome.ToggleMuteBeat(beat)
		}
	case key.Matches(msg, m.keys.MuteBar):
		if bar := strings.Index(barMuteKeys, msg.String()) + 1; bar >= 1 && bar <= settings.PhraseLength() {
			m.metronome.ToggleMuteBar(bar)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// nextTimeSignature returns the signature after ts in TimeSignatures, or the first one when ts is not listed.
func nextTimeSignature(ts rhythm.TimeSignature) rhythm.TimeSignature {
	for i, candidate := range TimeSignatures {
		if candidate == ts {
			return TimeSignatures[utils.NextIndex(i, len(TimeSignatures))]
		}
	}
	return TimeSignatures[0]
}
