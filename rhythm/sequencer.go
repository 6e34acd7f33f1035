package rhythm

// Sound is the category of sound resolved for a single tick.
type Sound int

const (
	SoundSilence Sound = iota
	SoundTick
	SoundAccent
	SoundCountOff
)

func (s Sound) String() string {
	switch s {
	case SoundTick:
		return "tick"
	case SoundAccent:
		return "accent"
	case SoundCountOff:
		return "count-off"
	default:
		return "silence"
	}
}

// Phase is the sequencer's playback phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountingOff
	PhaseRegular
)

func (p Phase) String() string {
	switch p {
	case PhaseCountingOff:
		return "counting-off"
	case PhaseRegular:
		return "regular"
	default:
		return "idle"
	}
}

// countOffBars is the length of the lead-in played before regular timekeeping.
const countOffBars = 2

// Arrangement is what the sequencer polls on every tick. *Settings implements it.
type Arrangement interface {
	BeatsPerBar() int
	PhraseLength() int
	IsBeatMuted(beat int) bool
	IsBarMuted(bar int) bool
}

// Sequencer turns clock ticks into beat and bar positions and decides what should sound on each of them. It has no
// notion of time and no locking; the Metronome drives it and serializes access.
type Sequencer struct {
	phase Phase

	// the beat and bar that are sounding now, published for display
	currentBeat int
	currentBar  int

	// look-ahead: the beat and bar that sound on the next regular tick
	nextBeat int
	nextBar  int

	countOffBeat      int
	countOffBar       int
	countOffBeats     int
	countOffPlayed    int
	pendingTransition bool
}

// NewSequencer returns an idle sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{
		currentBeat: 1,
		currentBar:  1,
		nextBeat:    1,
		nextBar:     1,
	}
}

// Start resets the counters to beat 1 of bar 1 and enters the count-off phase when countOff is set, or the regular
// phase otherwise.
func (s *Sequencer) Start(beatsPerBar int, countOff bool) {
	s.pendingTransition = false
	s.nextBeat = 1
	s.nextBar = 1
	s.currentBeat = 1
	s.currentBar = 1
	s.countOffPlayed = 0

	if countOff {
		s.phase = PhaseCountingOff
		s.countOffBeats = beatsPerBar * countOffBars
		s.countOffBeat = 1
		s.countOffBar = 1
		return
	}

	s.phase = PhaseRegular
	s.countOffBeats = 0
	s.countOffBeat = 0
	s.countOffBar = 0
}

// Stop returns to idle and clears all count-off progress. The last published beat and bar are left for display.
func (s *Sequencer) Stop() {
	s.phase = PhaseIdle
	s.countOffBeat = 0
	s.countOffBar = 0
	s.countOffPlayed = 0
	s.countOffBeats = 0
	s.pendingTransition = false
}

// Rewind moves an idle sequencer back to beat 1 of bar 1. It does nothing while playing.
func (s *Sequencer) Rewind() {
	if s.phase != PhaseIdle {
		return
	}
	s.currentBeat, s.currentBar = 1, 1
	s.nextBeat, s.nextBar = 1, 1
}

// Advance processes one clock tick and returns the sound to play for it.
func (s *Sequencer) Advance(a Arrangement) Sound {
	switch {
	case s.phase == PhaseIdle:
		return SoundSilence
	case s.pendingTransition:
		// the count-off finished on the previous tick, this one is the first regular beat
		s.pendingTransition = false
		s.phase = PhaseRegular
		s.countOffBeat = 0
		s.countOffBar = 0
		s.nextBeat = 1
		s.nextBar = 1
		return s.regularBeat(a)
	case s.phase == PhaseCountingOff:
		return s.countOffTick(a)
	default:
		return s.regularBeat(a)
	}
}

func (s *Sequencer) countOffTick(a Arrangement) Sound {
	if s.countOffPlayed >= s.countOffBeats {
		return SoundSilence
	}

	beats := a.BeatsPerBar()
	s.countOffBeat = (s.countOffPlayed % beats) + 1
	s.countOffBar = 1
	if s.countOffPlayed >= beats {
		s.countOffBar = 2
	}

	s.countOffPlayed++
	if s.countOffPlayed >= s.countOffBeats {
		s.pendingTransition = true
	}

	// mutes never apply to the count-off
	return SoundCountOff
}

func (s *Sequencer) regularBeat(a Arrangement) Sound {
	s.currentBeat = s.nextBeat
	s.currentBar = s.nextBar

	sound := SoundSilence
	if !a.IsBeatMuted(s.currentBeat) && !a.IsBarMuted(s.currentBar) {
		if s.currentBeat == 1 && s.currentBar == 1 {
			sound = SoundAccent
		} else {
			sound = SoundTick
		}
	}

	s.advanceNext(a.BeatsPerBar(), a.PhraseLength())
	return sound
}

func (s *Sequencer) advanceNext(beatsPerBar, phraseLength int) {
	if s.nextBeat >= beatsPerBar {
		s.nextBeat = 1
		if s.nextBar >= phraseLength {
			s.nextBar = 1
		} else {
			s.nextBar++
		}
		return
	}
	s.nextBeat++
}

func (s *Sequencer) Phase() Phase {
	return s.phase
}

// IsCountingOff is true from Start until the transition tick, including while the transition is pending.
func (s *Sequencer) IsCountingOff() bool {
	return s.phase == PhaseCountingOff
}

func (s *Sequencer) CurrentBeat() int {
	return s.currentBeat
}

func (s *Sequencer) CurrentBar() int {
	return s.currentBar
}

// NextBeat is the beat that sounds on the next regular tick.
func (s *Sequencer) NextBeat() int {
	return s.nextBeat
}

// NextBar is the bar that sounds on the next regular tick.
func (s *Sequencer) NextBar() int {
	return s.nextBar
}

func (s *Sequencer) CountOffBeat() int {
	return s.countOffBeat
}

func (s *Sequencer) CountOffBar() int {
	return s.countOffBar
}

// CountOffRemaining is the number of count-off ticks still to play.
func (s *Sequencer) CountOffRemaining() int {
	if s.phase != PhaseCountingOff {
		return 0
	}
	return s.countOffBeats - s.countOffPlayed
}
