// Package sound plays the sounds resolved by the metronome on an audio output.
package sound

import (
	"errors"
	"sync"

	"github.com/robmorgan/downbeat/profile"
	"github.com/robmorgan/downbeat/rhythm"
	"github.com/sirupsen/logrus"
)

// ErrVoiceUnavailable is wrapped by every error returned from Output.LoadVoice.
var ErrVoiceUnavailable = errors.New("voice unavailable")

// VoiceHandle identifies a voice loaded on an Output.
type VoiceHandle int

// Output is an audio device that can preload voices and trigger them. Play restarts the voice from its beginning
// and must not block.
type Output interface {
	LoadVoice(v profile.Voice) (VoiceHandle, error)
	Play(h VoiceHandle)
}

type voiceSlot struct {
	handle VoiceHandle
	loaded bool
}

// Dispatcher maps resolved sounds onto voices. Ticks and accents each rotate between two copies of their sample so
// a fast retrigger never cuts off the previous hit; the count-off has one quieter voice of its own.
type Dispatcher struct {
	mu       sync.Mutex
	out      Output
	logger   *logrus.Logger
	tick     [2]voiceSlot
	accent   [2]voiceSlot
	countOff voiceSlot

	nextTick   int
	nextAccent int
}

// NewDispatcher loads the kit's voices on out. A voice that fails to load is logged and stays silent.
func NewDispatcher(out Output, kit profile.Profile, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}

	d := &Dispatcher{out: out, logger: logger}
	for i := range d.tick {
		d.tick[i] = d.load(kit, profile.VoiceTypeTick)
		d.accent[i] = d.load(kit, profile.VoiceTypeAccent)
	}
	d.countOff = d.load(kit, profile.VoiceTypeCountOff)

	return d
}

func (d *Dispatcher) load(kit profile.Profile, voiceType string) voiceSlot {
	v, ok := kit.Voice(voiceType)
	if !ok {
		d.logger.WithFields(logrus.Fields{"kit": kit.Name, "voice": voiceType}).Warn("Sound kit has no sample for voice")
		return voiceSlot{}
	}

	h, err := d.out.LoadVoice(v)
	if err != nil {
		d.logger.WithFields(logrus.Fields{"kit": kit.Name, "voice": voiceType, "sample": v.Sample}).
			Errorf("Failed to load voice, it will be silent: %v", err)
		return voiceSlot{}
	}

	return voiceSlot{handle: h, loaded: true}
}

// Play triggers the voice for sound. Silence plays nothing.
func (d *Dispatcher) Play(sound rhythm.Sound) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch sound {
	case rhythm.SoundTick:
		d.trigger(d.tick[d.nextTick])
		d.nextTick ^= 1
	case rhythm.SoundAccent:
		d.trigger(d.accent[d.nextAccent])
		d.nextAccent ^= 1
	case rhythm.SoundCountOff:
		d.trigger(d.countOff)
	}
}

// Reset makes the next tick and accent use their first voice.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextTick = 0
	d.nextAccent = 0
}

func (d *Dispatcher) trigger(slot voiceSlot) {
	if !slot.loaded {
		return
	}
	d.out.Play(slot.handle)
}
