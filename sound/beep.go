package sound

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/robmorgan/downbeat/profile"
)

// DefaultSampleRate is the rate the speaker is opened at. Samples recorded at other rates are resampled on load.
const DefaultSampleRate = beep.SampleRate(44100)

type beepVoice struct {
	buffer *beep.Buffer
	volume float64

	// playing is the control of the voice's most recent trigger, so a retrigger can cut it
	playing *beep.Ctrl
}

// BeepOutput plays WAV samples through the system speaker. Samples are decoded into memory when loaded, so
// triggering a voice never touches the disk.
type BeepOutput struct {
	mu           sync.Mutex
	sampleDir    string
	sampleRate   beep.SampleRate
	speakerReady bool
	voices       []*beepVoice
}

// NewBeepOutput creates an output reading samples from sampleDir. The speaker is opened with the first sample.
func NewBeepOutput(sampleDir string) *BeepOutput {
	return &BeepOutput{
		sampleDir:  sampleDir,
		sampleRate: DefaultSampleRate,
	}
}

func (o *BeepOutput) LoadVoice(v profile.Voice) (VoiceHandle, error) {
	path := v.Sample
	if !filepath.IsAbs(path) {
		path = filepath.Join(o.sampleDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrVoiceUnavailable, v.Sample, err)
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("%w: decoding %s: %w", ErrVoiceUnavailable, v.Sample, err)
	}
	defer streamer.Close()

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.speakerReady {
		if err := speaker.Init(o.sampleRate, o.sampleRate.N(time.Second/30)); err != nil {
			return 0, fmt.Errorf("%w: opening speaker: %w", ErrVoiceUnavailable, err)
		}
		o.speakerReady = true
	}

	var source beep.Streamer = streamer
	if format.SampleRate != o.sampleRate {
		source = beep.Resample(4, format.SampleRate, o.sampleRate, streamer)
	}

	buffer := beep.NewBuffer(beep.Format{
		SampleRate:  o.sampleRate,
		NumChannels: format.NumChannels,
		Precision:   format.Precision,
	})
	buffer.Append(source)

	o.voices = append(o.voices, &beepVoice{buffer: buffer, volume: v.Volume})
	return VoiceHandle(len(o.voices) - 1), nil
}

// Play restarts the voice from the beginning. The call only hands a streamer to the speaker's mixer.
func (o *BeepOutput) Play(h VoiceHandle) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if int(h) < 0 || int(h) >= len(o.voices) {
		return
	}
	v := o.voices[h]

	if v.playing != nil {
		speaker.Lock()
		v.playing.Streamer = nil
		speaker.Unlock()
	}

	ctrl := &beep.Ctrl{Streamer: withVolume(v.buffer.Streamer(0, v.buffer.Len()), v.volume)}
	v.playing = ctrl
	speaker.Play(ctrl)
}

// withVolume applies a linear gain in [0, 1].
func withVolume(s beep.Streamer, gain float64) beep.Streamer {
	if gain >= 1 {
		return s
	}
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   math.Log2(math.Max(gain, 1e-6)),
		Silent:   gain <= 0,
	}
}

// NullOutput accepts every voice and plays nothing. It is used when audio is disabled.
type NullOutput struct {
	mu     sync.Mutex
	voices []profile.Voice
	plays  map[VoiceHandle]int
}

func NewNullOutput() *NullOutput {
	return &NullOutput{plays: make(map[VoiceHandle]int)}
}

func (o *NullOutput) LoadVoice(v profile.Voice) (VoiceHandle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.voices = append(o.voices, v)
	return VoiceHandle(len(o.voices) - 1), nil
}

func (o *NullOutput) Play(h VoiceHandle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.plays[h]++
}

// Plays returns how many times h has been triggered.
func (o *NullOutput) Plays(h VoiceHandle) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.plays[h]
}
