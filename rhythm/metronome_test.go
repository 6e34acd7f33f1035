package rhythm

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualScheduler fires only when the test says so.
type manualScheduler struct {
	mu        sync.Mutex
	fn        func()
	interval  time.Duration
	scheduled int
	cancelled int
}

func (s *manualScheduler) SchedulePeriodic(interval time.Duration, fn func()) CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fn = fn
	s.interval = interval
	s.scheduled++

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.cancelled++
		})
	}
}

func (s *manualScheduler) Fire() {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (s *manualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled - s.cancelled
}

type recordingPlayer struct {
	mu     sync.Mutex
	sounds []Sound
	resets int
}

func (p *recordingPlayer) Play(sound Sound) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sounds = append(p.sounds, sound)
}

func (p *recordingPlayer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
}

func (p *recordingPlayer) Sounds() []Sound {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Sound(nil), p.sounds...)
}

func newTestMetronome(t *testing.T, settings *Settings) (*Metronome, *manualScheduler, *recordingPlayer) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	scheduler := &manualScheduler{}
	player := &recordingPlayer{}
	return NewMetronome(settings, scheduler, player, logger), scheduler, player
}

func TestMetronome(t *testing.T) {
	t.Parallel()

	// Create a new metronome with a default of 120 bpm
	m, _, _ := newTestMetronome(t, nil)

	// The beat interval should be every 500ms
	assert.Equal(t, 500.0, m.GetBeatInterval())
	assert.Equal(t, 500*time.Millisecond, BeatInterval(120))

	// Try to change the tempo
	require.NoError(t, m.UpdateBPM(128))

	// The beat interval should change to be
	assert.Equal(t, 468.75, m.GetBeatInterval())
	assert.Equal(t, 468750*time.Microsecond, BeatInterval(128))
}

func TestMetronomeStartFiresImmediately(t *testing.T) {
	t.Parallel()

	m, scheduler, player := newTestMetronome(t, newTestSettings(t, 4, 4, false))
	m.Start()

	require.True(t, m.IsPlaying())
	assert.Equal(t, 500*time.Millisecond, scheduler.interval)
	assert.Equal(t, []Sound{SoundAccent}, player.Sounds())
	assert.Equal(t, 1, player.resets)

	state := m.Snapshot()
	assert.Equal(t, uint64(1), state.Tick)
	assert.Equal(t, 1, state.CurrentBeat)
	assert.Equal(t, 1, state.CurrentBar)
	assert.Equal(t, SoundAccent, state.Sound)
	assert.Equal(t, "1.1", state.GetMarker())
	assert.True(t, state.IsPhraseStart())

	for i := 0; i < 4; i++ {
		scheduler.Fire()
	}
	state = m.Snapshot()
	assert.Equal(t, 2, state.CurrentBar)
	assert.Equal(t, 1, state.CurrentBeat)
	assert.True(t, state.IsDownBeat())
	assert.False(t, state.IsPhraseStart())
	assert.Equal(t, []Sound{SoundAccent, SoundTick, SoundTick, SoundTick, SoundTick}, player.Sounds())
}

func TestMetronomeCountOffState(t *testing.T) {
	t.Parallel()

	m, scheduler, player := newTestMetronome(t, newTestSettings(t, 3, 4, true))

	var states []State
	unsubscribe := m.Subscribe(func(s State) { states = append(states, s) })
	defer unsubscribe()

	m.Start()
	for i := 0; i < 6; i++ {
		scheduler.Fire()
	}

	require.Len(t, states, 7)
	for i, s := range states[:6] {
		assert.True(t, s.IsCountingOff, "tick %d", i+1)
		assert.Equal(t, i/3+1, s.CountOffBar, "tick %d", i+1)
		assert.Equal(t, i%3+1, s.CountOffBeat, "tick %d", i+1)
		assert.Equal(t, SoundCountOff, s.Sound)
		assert.True(t, s.Triggered)
	}

	last := states[6]
	assert.False(t, last.IsCountingOff)
	assert.Equal(t, PhaseRegular, last.Phase)
	assert.Equal(t, 1, last.CurrentBar)
	assert.Equal(t, 1, last.CurrentBeat)
	assert.Equal(t, SoundAccent, last.Sound)
	assert.Len(t, player.Sounds(), 7)
}

func TestMetronomeStopIsIdempotent(t *testing.T) {
	t.Parallel()

	m, scheduler, _ := newTestMetronome(t, newTestSettings(t, 4, 4, true))

	m.Stop()
	assert.False(t, m.IsPlaying())

	m.Start()
	m.Stop()
	m.Stop()

	assert.False(t, m.IsPlaying())
	assert.Equal(t, 0, scheduler.Active())

	state := m.Snapshot()
	assert.False(t, state.IsCountingOff)
	assert.Equal(t, 0, state.CountOffBeat)
	assert.Equal(t, 0, state.CountOffBar)
	assert.Equal(t, PhaseIdle, state.Phase)
}

func TestMetronomeStartWhileRunningRestarts(t *testing.T) {
	t.Parallel()

	m, scheduler, _ := newTestMetronome(t, newTestSettings(t, 4, 4, false))
	m.Start()
	scheduler.Fire()
	scheduler.Fire()

	m.Start()
	assert.Equal(t, 1, scheduler.Active())
	assert.Equal(t, 1, m.Snapshot().CurrentBeat)
	assert.Equal(t, uint64(1), m.Snapshot().Tick)
}

func TestMetronomeIgnoresStaleTrigger(t *testing.T) {
	t.Parallel()

	m, scheduler, player := newTestMetronome(t, newTestSettings(t, 4, 4, false))
	m.Start()

	scheduler.mu.Lock()
	stale := scheduler.fn
	scheduler.mu.Unlock()

	m.Stop()
	stale()
	assert.Equal(t, []Sound{SoundAccent}, player.Sounds())

	m.Start()
	stale()
	assert.Equal(t, []Sound{SoundAccent, SoundAccent}, player.Sounds())
	assert.Equal(t, uint64(1), m.Snapshot().Tick)
}

func TestMetronomeStopThenStartBeginsAtOne(t *testing.T) {
	t.Parallel()

	for _, countOff := range []bool{false, true} {
		m, scheduler, _ := newTestMetronome(t, newTestSettings(t, 5, 3, countOff))
		m.Start()
		for i := 0; i < 17; i++ {
			scheduler.Fire()
		}

		m.Stop()
		m.Start()
		for m.Snapshot().IsCountingOff {
			scheduler.Fire()
		}

		state := m.Snapshot()
		assert.Equal(t, 1, state.CurrentBeat, "count-off %v", countOff)
		assert.Equal(t, 1, state.CurrentBar, "count-off %v", countOff)
		assert.Equal(t, SoundAccent, state.Sound, "count-off %v", countOff)
	}
}

func TestMetronomeUpdateBPMRestartsWhilePlaying(t *testing.T) {
	t.Parallel()

	m, scheduler, _ := newTestMetronome(t, newTestSettings(t, 4, 4, false))
	m.Start()
	scheduler.Fire()
	scheduler.Fire()
	require.Equal(t, 3, m.Snapshot().CurrentBeat)

	require.NoError(t, m.UpdateBPM(60))
	assert.Equal(t, time.Second, scheduler.interval)
	assert.Equal(t, 1, scheduler.Active())
	assert.Equal(t, 1, m.Snapshot().CurrentBeat)
	assert.Equal(t, 60, m.Snapshot().BPM)
}

func TestMetronomeRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	m, scheduler, _ := newTestMetronome(t, nil)
	m.Start()

	err := m.UpdateBPM(301)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Equal(t, 120, m.Settings().BPM())

	assert.Error(t, m.UpdateBPM(39))
	assert.Error(t, m.SetTimeSignature(TimeSignature{Beats: 0, NoteValue: 4}))
	assert.Error(t, m.SetTimeSignature(TimeSignature{Beats: 4, NoteValue: 3}))
	assert.Error(t, m.SetPhraseLength(0))

	assert.Equal(t, CommonTime, m.Settings().TimeSignature())
	assert.Equal(t, DefaultPhraseLength, m.Settings().PhraseLength())

	// rejected changes never restart the clock
	assert.Equal(t, 1, scheduler.scheduled)
}

func TestMetronomeSetTimeSignatureRestarts(t *testing.T) {
	t.Parallel()

	m, scheduler, _ := newTestMetronome(t, newTestSettings(t, 4, 4, false))
	require.NoError(t, m.SetTimeSignature(TimeSignature{Beats: 3, NoteValue: 4}))
	assert.Equal(t, 0, scheduler.scheduled)

	m.Start()
	require.NoError(t, m.SetTimeSignature(TimeSignature{Beats: 6, NoteValue: 8}))
	assert.Equal(t, 2, scheduler.scheduled)
	assert.Equal(t, 1, scheduler.Active())

	for i := 0; i < 6; i++ {
		scheduler.Fire()
	}
	assert.Equal(t, 2, m.Snapshot().CurrentBar)
	assert.Equal(t, 1, m.Snapshot().CurrentBeat)
}

func TestMetronomeApplyPreset(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestMetronome(t, nil)
	m.Start()

	preset := FormPreset{
		Name:          "AABA-ish",
		BPM:           96,
		TimeSignature: TimeSignature{Beats: 3, NoteValue: 4},
		Structure: []PhraseSection{
			{Name: "A", BarCount: 4},
			{Name: "B", BarCount: 2, IsMuted: true},
			{Name: "A", BarCount: 2},
		},
	}
	require.NoError(t, m.ApplyPreset(preset))

	assert.False(t, m.IsPlaying())
	assert.Equal(t, 8, m.Settings().PhraseLength())
	assert.Equal(t, 96, m.Settings().BPM())
	assert.Equal(t, TimeSignature{Beats: 3, NoteValue: 4}, m.Settings().TimeSignature())
	assert.Equal(t, []int{5, 6}, m.Settings().MutedBars())
}

func TestMetronomeApplyInvalidPresetKeepsSettings(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestMetronome(t, nil)
	m.Start()

	err := m.ApplyPreset(FormPreset{Name: "empty", BPM: 100, TimeSignature: CommonTime})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.True(t, m.IsPlaying())
	assert.Equal(t, 120, m.Settings().BPM())
}

func TestMetronomeMuteToggleTakesEffectNextTick(t *testing.T) {
	t.Parallel()

	m, scheduler, player := newTestMetronome(t, newTestSettings(t, 4, 4, false))
	m.Start()

	m.ToggleMuteBeat(2)
	scheduler.Fire()
	m.ToggleMuteBeat(2)
	scheduler.Fire()

	assert.Equal(t, []Sound{SoundAccent, SoundSilence, SoundTick}, player.Sounds())
}

func TestMetronomeUnsubscribe(t *testing.T) {
	t.Parallel()

	m, scheduler, _ := newTestMetronome(t, newTestSettings(t, 4, 4, false))

	count := 0
	unsubscribe := m.Subscribe(func(State) { count++ })
	m.Start()
	scheduler.Fire()
	unsubscribe()
	scheduler.Fire()
	m.Stop()

	assert.Equal(t, 2, count)
}

func TestMetronomeStopDeliveredAfterRacingTick(t *testing.T) {
	t.Parallel()

	m, scheduler, _ := newTestMetronome(t, newTestSettings(t, 4, 4, false))

	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var last State
	unsubscribe := m.Subscribe(func(s State) {
		if s.Triggered && s.Tick == 2 {
			close(entered)
			<-release
		}
		mu.Lock()
		last = s
		mu.Unlock()
	})
	defer unsubscribe()

	m.Start()
	go scheduler.Fire()
	<-entered

	// the tick 2 state is stuck in the subscriber while Stop runs
	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()
	require.Eventually(t, func() bool { return !m.IsPlaying() }, time.Second, time.Millisecond)

	close(release)
	<-stopped

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, m.IsPlaying())
	assert.False(t, last.IsPlaying)
	assert.False(t, last.Triggered)
}

func TestMetronomeSkipsOvertakenStates(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestMetronome(t, nil)

	var delivered []uint64
	unsubscribe := m.Subscribe(func(s State) { delivered = append(delivered, s.seq) })
	defer unsubscribe()

	m.mu.Lock()
	older := m.stampedSnapshotLocked()
	newer := m.stampedSnapshotLocked()
	m.mu.Unlock()

	m.publish(newer)
	m.publish(older)
	m.publish(newer)

	assert.Equal(t, []uint64{newer.seq}, delivered)
}

func TestMetronomeApplyPresetReplacesPresetMutes(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestMetronome(t, nil)
	m.ToggleMuteBar(2)

	withMutedOutro := FormPreset{
		Name:          "head and tacet",
		BPM:           110,
		TimeSignature: CommonTime,
		Structure: []PhraseSection{
			{Name: "head", BarCount: 4},
			{Name: "tacet", BarCount: 4, IsMuted: true},
		},
	}
	allPlayed := FormPreset{
		Name:          "straight eight",
		BPM:           110,
		TimeSignature: CommonTime,
		Structure:     []PhraseSection{{Name: "A", BarCount: 8}},
	}

	require.NoError(t, m.ApplyPreset(withMutedOutro))
	assert.Equal(t, []int{2, 5, 6, 7, 8}, m.Settings().MutedBars())

	require.NoError(t, m.ApplyPreset(allPlayed))
	assert.Equal(t, 8, m.Settings().PhraseLength())
	assert.Equal(t, []int{2}, m.Settings().MutedBars())
}

func TestMetronomeStoppedPositionFollowsSettings(t *testing.T) {
	t.Parallel()

	m, scheduler, _ := newTestMetronome(t, newTestSettings(t, 4, 4, false))

	var last State
	unsubscribe := m.Subscribe(func(s State) { last = s })
	defer unsubscribe()

	m.Start()
	for i := 0; i < 8; i++ {
		scheduler.Fire()
	}
	m.Stop()
	require.Equal(t, 3, m.Snapshot().CurrentBar)

	require.NoError(t, m.SetPhraseLength(2))
	assert.Equal(t, 1, last.CurrentBar)
	assert.Equal(t, 1, last.CurrentBeat)
	assert.LessOrEqual(t, last.CurrentBar, last.PhraseLength)

	m.Start()
	for i := 0; i < 7; i++ {
		scheduler.Fire()
	}
	m.Stop()
	require.Equal(t, 2, m.Snapshot().CurrentBar)
	require.Equal(t, 4, m.Snapshot().CurrentBeat)

	require.NoError(t, m.ApplyPreset(FormPreset{
		Name:          "waltz",
		BPM:           90,
		TimeSignature: TimeSignature{Beats: 3, NoteValue: 4},
		Structure:     []PhraseSection{{Name: "A", BarCount: 1}},
	}))
	assert.Equal(t, 1, last.CurrentBar)
	assert.Equal(t, 1, last.CurrentBeat)
}
