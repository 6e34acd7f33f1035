package rhythm

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SoundPlayer turns resolved sounds into audio. Play must not block.
type SoundPlayer interface {
	Play(sound Sound)

	// Reset is called on every start so voice rotation begins from the same place.
	Reset()
}

// Metronome owns the periodic trigger and the play/stop lifecycle, and drives a Sequencer from it.
// Originally based on https://github.com/Deep-Symmetry/electro/blob/main/src/main/java/org/deepsymmetry/electro/Metronome.java#L449
// but ticking from a scheduler instead of computing positions from a start instant.
type Metronome struct {
	mu        sync.Mutex
	settings  *Settings
	sequencer *Sequencer
	scheduler Scheduler
	player    SoundPlayer
	logger    *logrus.Logger

	playing bool
	cancel  CancelFunc

	// generation is bumped on every start so triggers from a cancelled schedule can be told apart
	generation uint64
	ticks      uint64
	lastSound  Sound

	// seq numbers the states handed to publish, in the order they were taken
	seq uint64

	// presetMutedBars are the bars muted by the last applied preset
	presetMutedBars []int

	// deliverMu serializes subscriber calls; delivered is the seq of the last state they received
	deliverMu sync.Mutex
	delivered uint64

	subMu            sync.RWMutex
	subscribers      map[int]func(State)
	nextSubscriberID int
}

// NewMetronome creates a stopped metronome. player may be nil for a silent metronome.
func NewMetronome(settings *Settings, scheduler Scheduler, player SoundPlayer, logger *logrus.Logger) *Metronome {
	if settings == nil {
		settings = NewSettings()
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Metronome{
		settings:    settings,
		sequencer:   NewSequencer(),
		scheduler:   scheduler,
		player:      player,
		logger:      logger,
		subscribers: make(map[int]func(State)),
	}
}

// Settings returns the settings the metronome reads on every tick.
func (m *Metronome) Settings() *Settings {
	return m.settings
}

// Start begins playback from beat 1 of bar 1, preceded by a count-off when enabled. Calling Start while playing
// restarts the metronome. The first tick fires before Start returns.
func (m *Metronome) Start() {
	m.mu.Lock()
	gen := m.startLocked()
	m.mu.Unlock()

	m.fire(gen)
}

// Stop cancels the trigger and resets the count-off. Sounds already dispatched are left to finish. Stop is a
// no-op on a stopped metronome. If a tick is being delivered to subscribers, Stop waits for it so the stopped
// state is the last one they see.
func (m *Metronome) Stop() {
	m.mu.Lock()
	if !m.playing {
		m.mu.Unlock()
		return
	}
	m.stopLocked()
	state := m.stampedSnapshotLocked()
	m.mu.Unlock()

	m.logger.Info("Metronome stopped")
	m.publish(state)
}

// IsPlaying reports whether the clock is running.
func (m *Metronome) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// UpdateBPM changes the tempo. While playing, the metronome restarts so the new interval applies at once, which
// also sends it back to beat 1 of bar 1.
func (m *Metronome) UpdateBPM(bpm int) error {
	return m.change(func() error { return m.settings.SetBPM(bpm) })
}

// SetTimeSignature changes the time signature, restarting the metronome if it is playing.
func (m *Metronome) SetTimeSignature(ts TimeSignature) error {
	return m.change(func() error { return m.settings.SetTimeSignature(ts) })
}

// SetPhraseLength changes the number of bars per phrase, restarting the metronome if it is playing.
func (m *Metronome) SetPhraseLength(bars int) error {
	return m.change(func() error { return m.settings.SetPhraseLength(bars) })
}

// SetCountOffEnabled takes effect on the next start.
func (m *Metronome) SetCountOffEnabled(enabled bool) {
	m.mu.Lock()
	m.settings.SetCountOffEnabled(enabled)
	state := m.stampedSnapshotLocked()
	m.mu.Unlock()

	m.publish(state)
}

// ToggleMuteBeat takes effect on the next tick.
func (m *Metronome) ToggleMuteBeat(beat int) {
	m.settings.ToggleMuteBeat(beat)
}

// ToggleMuteBar takes effect on the next tick.
func (m *Metronome) ToggleMuteBar(bar int) {
	m.settings.ToggleMuteBar(bar)
}

// ApplyPreset stops the metronome and loads the preset's tempo and time signature. The phrase becomes as long as
// the whole form and the position goes back to 1.1. Bars of muted sections are muted; bars muted by the previously
// applied preset are unmuted first, while mutes set by hand are kept.
func (m *Metronome) ApplyPreset(p FormPreset) error {
	if err := p.Validate(); err != nil {
		return err
	}

	m.Stop()

	m.mu.Lock()
	// all three were validated above, so none of these can fail
	_ = m.settings.SetBPM(p.BPM)
	_ = m.settings.SetTimeSignature(p.TimeSignature)
	_ = m.settings.SetPhraseLength(p.TotalBars())
	for _, bar := range m.presetMutedBars {
		m.settings.UnmuteBar(bar)
	}
	m.presetMutedBars = p.MutedBars()
	for _, bar := range m.presetMutedBars {
		m.settings.MuteBar(bar)
	}
	m.sequencer.Rewind()
	state := m.stampedSnapshotLocked()
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"preset":         p.Name,
		"bpm":            p.BPM,
		"time_signature": p.TimeSignature.String(),
		"phrase_length":  p.TotalBars(),
	}).Info("Applied form preset")
	m.publish(state)
	return nil
}

// Snapshot returns the current state.
func (m *Metronome) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn to receive a State after every tick and every lifecycle change. fn runs on the
// metronome's trigger goroutine or on the caller of Start/Stop and should return quickly. Calls are serialized and
// in the order the states were taken; a state overtaken by a newer one is skipped. fn must not call back into the
// metronome. The returned func removes the subscription.
func (m *Metronome) Subscribe(fn func(State)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextSubscriberID
	m.nextSubscriberID++
	m.subscribers[id] = fn

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subscribers, id)
	}
}

// GetBeatInterval returns the number of milliseconds a beat lasts at the current tempo.
func (m *Metronome) GetBeatInterval() float64 {
	return beatsToMilliseconds(1, float64(m.settings.BPM()))
}

// BeatInterval returns the time between two ticks at bpm.
func BeatInterval(bpm int) time.Duration {
	if bpm <= 0 {
		return 0
	}
	return time.Duration(math.Round(beatsToMilliseconds(1, float64(bpm)) * float64(time.Millisecond)))
}

func (m *Metronome) change(apply func() error) error {
	m.mu.Lock()
	if err := apply(); err != nil {
		m.mu.Unlock()
		return err
	}

	if !m.playing {
		// the last position may lie outside the new bar or phrase
		m.sequencer.Rewind()
		state := m.stampedSnapshotLocked()
		m.mu.Unlock()
		m.publish(state)
		return nil
	}

	gen := m.startLocked()
	m.mu.Unlock()

	m.fire(gen)
	return nil
}

func (m *Metronome) startLocked() uint64 {
	if m.playing {
		m.stopLocked()
	}

	bpm := m.settings.BPM()
	ts := m.settings.TimeSignature()
	countOff := m.settings.CountOffEnabled()

	m.sequencer.Start(ts.Beats, countOff)
	if m.player != nil {
		m.player.Reset()
	}

	m.playing = true
	m.ticks = 0
	m.lastSound = SoundSilence
	m.generation++
	gen := m.generation

	interval := BeatInterval(bpm)
	m.cancel = m.scheduler.SchedulePeriodic(interval, func() { m.fire(gen) })

	m.logger.WithFields(logrus.Fields{
		"bpm":            bpm,
		"interval":       interval,
		"time_signature": ts.String(),
		"phrase_length":  m.settings.PhraseLength(),
		"count_off":      countOff,
	}).Info("Metronome started")

	return gen
}

func (m *Metronome) stopLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.sequencer.Stop()
	m.playing = false
	m.lastSound = SoundSilence
}

// fire handles one trigger of the schedule started with generation gen.
func (m *Metronome) fire(gen uint64) {
	m.mu.Lock()
	if !m.playing || gen != m.generation {
		m.mu.Unlock()
		return
	}

	sound := m.sequencer.Advance(m.settings)
	m.ticks++
	m.lastSound = sound
	if m.player != nil {
		m.player.Play(sound)
	}
	state := m.stampedSnapshotLocked()
	state.Triggered = true
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"tick":  state.Tick,
		"sound": sound.String(),
	}).Debugf("Tick %s", state.GetMarker())
	m.publish(state)
}

func (m *Metronome) snapshotLocked() State {
	return State{
		IsPlaying:     m.playing,
		Phase:         m.sequencer.Phase(),
		CurrentBeat:   m.sequencer.CurrentBeat(),
		CurrentBar:    m.sequencer.CurrentBar(),
		IsCountingOff: m.sequencer.IsCountingOff(),
		CountOffBeat:  m.sequencer.CountOffBeat(),
		CountOffBar:   m.sequencer.CountOffBar(),
		Sound:         m.lastSound,
		BPM:           m.settings.BPM(),
		TimeSignature: m.settings.TimeSignature(),
		PhraseLength:  m.settings.PhraseLength(),
		Tick:          m.ticks,
	}
}

// stampedSnapshotLocked takes a snapshot for publish.
func (m *Metronome) stampedSnapshotLocked() State {
	m.seq++
	state := m.snapshotLocked()
	state.seq = m.seq
	return state
}

func (m *Metronome) publish(state State) {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	if state.seq <= m.delivered {
		return
	}
	m.delivered = state.seq

	m.subMu.RLock()
	fns := make([]func(State), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.subMu.RUnlock()

	for _, fn := range fns {
		fn(state)
	}
}

// beatsToMilliseconds calculates milliseconds for given beats and tempo
func beatsToMilliseconds(beats int, tempo float64) float64 {
	return (60000.0 / tempo) * float64(beats)
}
