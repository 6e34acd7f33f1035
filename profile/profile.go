package profile

const (
	VoiceTypeTick     = "tick"
	VoiceTypeAccent   = "accent"
	VoiceTypeCountOff = "countoff"
)

// Voice is a sample file and the volume (0.0 - 1.0) it is played at.
type Voice struct {
	Sample string  `yaml:"sample"`
	Volume float64 `yaml:"volume"`
}

// Profile holds info for a sound kit: which sample each voice type uses.
type Profile struct {
	Name string `yaml:"name"`

	// The kit voices, keyed by voice type
	Voices map[string]Voice `yaml:"voices"`
}

// Voice returns the voice for voiceType.
func (p Profile) Voice(voiceType string) (Voice, bool) {
	v, ok := p.Voices[voiceType]
	return v, ok
}
