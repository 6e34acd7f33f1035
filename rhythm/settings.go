package rhythm

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	MinBPM = 40
	MaxBPM = 300

	DefaultBPM          = 120
	DefaultPhraseLength = 4
)

// TimeSignature describes a bar: Beats per bar of NoteValue notes.
type TimeSignature struct {
	Beats     int `yaml:"beats" json:"beats"`
	NoteValue int `yaml:"note_value" json:"note_value"`
}

// CommonTime is 4/4.
var CommonTime = TimeSignature{Beats: 4, NoteValue: 4}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Beats, ts.NoteValue)
}

// Validate checks that the signature has at least one beat and a supported note value.
func (ts TimeSignature) Validate() error {
	if ts.Beats < 1 {
		return newConfigurationError("beats", ts.Beats, "a bar needs at least one beat")
	}
	switch ts.NoteValue {
	case 2, 4, 8, 16:
		return nil
	default:
		return newConfigurationError("note value", ts.NoteValue, "must be one of 2, 4, 8 or 16")
	}
}

// ValidateBPM checks bpm against [MinBPM, MaxBPM].
func ValidateBPM(bpm int) error {
	if bpm < MinBPM || bpm > MaxBPM {
		return newConfigurationError("bpm", bpm, fmt.Sprintf("must be between %d and %d", MinBPM, MaxBPM))
	}
	return nil
}

// ValidatePhraseLength checks that a phrase has at least one bar.
func ValidatePhraseLength(bars int) error {
	if bars < 1 {
		return newConfigurationError("phrase length", bars, "a phrase needs at least one bar")
	}
	return nil
}

// Settings holds the user's metronome configuration. Setters validate their input and keep the previous value
// when it is rejected. Settings is safe for concurrent use: the tick goroutine reads it while the UI writes mutes.
type Settings struct {
	mu              sync.RWMutex
	bpm             int
	timeSignature   TimeSignature
	phraseLength    int
	countOffEnabled bool
	mutedBeats      map[int]struct{}
	mutedBars       map[int]struct{}
}

// NewSettings returns the defaults: 120 bpm, 4/4, four bar phrase, count-off on.
func NewSettings() *Settings {
	return &Settings{
		bpm:             DefaultBPM,
		timeSignature:   CommonTime,
		phraseLength:    DefaultPhraseLength,
		countOffEnabled: true,
		mutedBeats:      make(map[int]struct{}),
		mutedBars:       make(map[int]struct{}),
	}
}

func (s *Settings) BPM() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bpm
}

func (s *Settings) SetBPM(bpm int) error {
	if err := ValidateBPM(bpm); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bpm = bpm
	return nil
}

func (s *Settings) TimeSignature() TimeSignature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeSignature
}

func (s *Settings) SetTimeSignature(ts TimeSignature) error {
	if err := ts.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeSignature = ts
	return nil
}

// BeatsPerBar is a shortcut for TimeSignature().Beats.
func (s *Settings) BeatsPerBar() int {
	return s.TimeSignature().Beats
}

func (s *Settings) PhraseLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phraseLength
}

func (s *Settings) SetPhraseLength(bars int) error {
	if err := ValidatePhraseLength(bars); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phraseLength = bars
	return nil
}

func (s *Settings) CountOffEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countOffEnabled
}

func (s *Settings) SetCountOffEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOffEnabled = enabled
}

// ToggleMuteBeat mutes beat (1-based, within a bar) if it is audible and unmutes it otherwise.
func (s *Settings) ToggleMuteBeat(beat int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggle(s.mutedBeats, beat)
}

// ToggleMuteBar mutes bar (1-based, within a phrase) if it is audible and unmutes it otherwise.
func (s *Settings) ToggleMuteBar(bar int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggle(s.mutedBars, bar)
}

// MuteBeat mutes beat without toggling.
func (s *Settings) MuteBeat(beat int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutedBeats[beat] = struct{}{}
}

// UnmuteBar makes bar audible without toggling.
func (s *Settings) UnmuteBar(bar int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mutedBars, bar)
}

// MuteBar mutes bar without toggling.
func (s *Settings) MuteBar(bar int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutedBars[bar] = struct{}{}
}

func (s *Settings) IsBeatMuted(beat int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.mutedBeats[beat]
	return ok
}

func (s *Settings) IsBarMuted(bar int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.mutedBars[bar]
	return ok
}

// MutedBeats returns the muted beats in ascending order.
func (s *Settings) MutedBeats() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.mutedBeats)
}

// MutedBars returns the muted bars in ascending order.
func (s *Settings) MutedBars() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.mutedBars)
}

// ClearMutes unmutes every beat and bar.
func (s *Settings) ClearMutes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutedBeats = make(map[int]struct{})
	s.mutedBars = make(map[int]struct{})
}

func toggle(set map[int]struct{}, n int) {
	if _, ok := set[n]; ok {
		delete(set, n)
		return
	}
	set[n] = struct{}{}
}

func sortedKeys(set map[int]struct{}) []int {
	keys := maps.Keys(set)
	slices.Sort(keys)
	return keys
}
