package rhythm

import (
	"fmt"
	"time"
)

// State is a snapshot of the metronome taken right after a tick or a lifecycle change. It is a plain value and is
// safe to hand to other goroutines.
type State struct {
	// IsPlaying is true while the clock is running.
	IsPlaying bool

	// Phase of the sequencer at the time of the snapshot.
	Phase Phase

	// CurrentBeat and CurrentBar are the beat (within the bar) and bar (within the phrase) currently sounding.
	CurrentBeat int
	CurrentBar  int

	// IsCountingOff is true during the lead-in; CountOffBeat and CountOffBar locate the lead-in tick and are zero
	// otherwise.
	IsCountingOff bool
	CountOffBeat  int
	CountOffBar   int

	// Sound resolved for the most recent tick.
	Sound Sound

	BPM           int
	TimeSignature TimeSignature
	PhraseLength  int

	// Tick counts the triggers since the last start; zero before the first one.
	Tick uint64

	// Triggered is set on snapshots taken by a tick, as opposed to a start, stop or settings change.
	Triggered bool

	// seq orders published states; zero for states from Snapshot
	seq uint64
}

// BeatInterval is the time between two ticks at the snapshot's tempo.
func (s State) BeatInterval() time.Duration {
	return BeatInterval(s.BPM)
}

// IsDownBeat checks whether the snapshot is on the first beat of a bar.
func (s State) IsDownBeat() bool {
	return !s.IsCountingOff && s.CurrentBeat == 1
}

// IsPhraseStart checks whether the snapshot is on the first beat of the phrase.
func (s State) IsPhraseStart() bool {
	return s.IsDownBeat() && s.CurrentBar == 1
}

// GetMarker returns the position as "bar.beat", or "count-off bar.beat" during the lead-in.
func (s State) GetMarker() string {
	if s.IsCountingOff {
		return fmt.Sprintf("count-off %d.%d", s.CountOffBar, s.CountOffBeat)
	}
	return fmt.Sprintf("%d.%d", s.CurrentBar, s.CurrentBeat)
}
