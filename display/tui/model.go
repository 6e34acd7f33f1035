// Package tui is the terminal front end of the metronome.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robmorgan/downbeat/effect"
	"github.com/robmorgan/downbeat/rhythm"
)

const (
	bpmStep         = 5
	maxPhraseLength = 16

	minFlash = 60 * time.Millisecond
	maxFlash = 250 * time.Millisecond

	// stateBuffer is how many metronome states may queue up before the oldest undelivered ones are dropped
	stateBuffer = 16
)

// TimeSignatures are the signatures the time signature key cycles through.
var TimeSignatures = []rhythm.TimeSignature{
	{Beats: 4, NoteValue: 4},
	{Beats: 3, NoteValue: 4},
	{Beats: 6, NoteValue: 8},
	{Beats: 5, NoteValue: 4},
}

// Model renders a metronome and maps key presses onto it.
type Model struct {
	metronome   *rhythm.Metronome
	states      chan rhythm.State
	unsubscribe func()

	state rhythm.State
	pulse *effect.Pulse
	now   time.Time

	keys     keyMap
	help     help.Model
	err      error
	quitting bool
}

// NewModel subscribes to m. The subscription never blocks the metronome: when the UI falls behind, states are
// dropped and the next one catches it up.
func NewModel(m *rhythm.Metronome) Model {
	states := make(chan rhythm.State, stateBuffer)
	unsubscribe := m.Subscribe(func(s rhythm.State) {
		select {
		case states <- s:
		default:
		}
	})

	return Model{
		metronome:   m,
		states:      states,
		unsubscribe: unsubscribe,
		state:       m.Snapshot(),
		pulse:       effect.NewPulse(flashDuration(m.Snapshot().BeatInterval())),
		now:         time.Now(),
		keys:        defaultKeyMap(),
		help:        help.New(),
	}
}

// Run shows the UI until the user quits. The metronome is stopped on exit.
func Run(m *rhythm.Metronome, opts ...tea.ProgramOption) error {
	model := NewModel(m)
	defer model.Close()

	_, err := tea.NewProgram(model, opts...).Run()
	return err
}

// Close removes the model's subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.states), frameCmd())
}

// flashDuration is how long a beat flashes at a given beat interval.
func flashDuration(interval time.Duration) time.Duration {
	d := interval * 2 / 5
	if d < minFlash {
		return minFlash
	}
	if d > maxFlash {
		return maxFlash
	}
	return d
}

type stateMsg rhythm.State

type frameMsg time.Time

// waitForState delivers the next metronome state to Update.
func waitForState(states <-chan rhythm.State) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-states)
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(effect.FPS(30), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
