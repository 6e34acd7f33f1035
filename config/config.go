package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/downbeat/logger"
	"github.com/robmorgan/downbeat/profile"
	"github.com/robmorgan/downbeat/rhythm"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSampleDir = "./samples"
	DefaultPresetDB  = "./data/downbeat.db"
	DefaultSoundKit  = "classic"
)

// DownbeatConfig represents options that configure the global behavior of the program
type DownbeatConfig struct {
	// Project logger
	Logger *logrus.Logger `yaml:"-"`

	LogLevel string `yaml:"log_level"`

	// Settings a fresh metronome starts with
	BPM           int                  `yaml:"bpm"`
	TimeSignature rhythm.TimeSignature `yaml:"time_signature"`
	PhraseLength  int                  `yaml:"phrase_length"`
	CountOff      bool                 `yaml:"count_off"`

	// SampleDir is where relative sample paths of the sound kits are resolved
	SampleDir string `yaml:"sample_dir"`

	// SoundKit names the entry of SoundKits used for playback
	SoundKit  string                     `yaml:"sound_kit"`
	SoundKits map[string]profile.Profile `yaml:"sound_kits"`

	// PresetDB is the path of the SQLite database holding the form presets
	PresetDB string `yaml:"preset_db"`

	OSC OSCConfig `yaml:"osc"`
}

// OSCConfig configures publishing of the metronome state over OSC. Publishing is off when Host is empty.
type OSCConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ResendInterval time.Duration `yaml:"resend_interval"`
}

// Enabled reports whether an OSC target is configured.
func (c OSCConfig) Enabled() bool {
	return c.Host != ""
}

// NewDownbeatConfig creates a new DownbeatConfig object with reasonable defaults for real usage
func NewDownbeatConfig() (DownbeatConfig, error) {
	return DownbeatConfig{
		Logger:        logger.GetProjectLogger(),
		LogLevel:      "info",
		BPM:           rhythm.DefaultBPM,
		TimeSignature: rhythm.CommonTime,
		PhraseLength:  rhythm.DefaultPhraseLength,
		CountOff:      true,
		SampleDir:     DefaultSampleDir,
		SoundKit:      DefaultSoundKit,
		SoundKits:     initializeSoundKits(),
		PresetDB:      DefaultPresetDB,
		OSC: OSCConfig{
			Port:           9000,
			ResendInterval: time.Second,
		},
	}, nil
}

// LoadDownbeatConfig reads a YAML file on top of the defaults. Built-in sound kits stay available unless the file
// defines a kit of the same name.
func LoadDownbeatConfig(path string) (DownbeatConfig, error) {
	cfg, err := NewDownbeatConfig()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.WithStackTrace(err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.SoundKits == nil {
		cfg.SoundKits = make(map[string]profile.Profile)
	}
	for name, kit := range initializeSoundKits() {
		if _, ok := cfg.SoundKits[name]; !ok {
			cfg.SoundKits[name] = kit
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the metronome defaults, the sound kit selection and the OSC target.
func (c DownbeatConfig) Validate() error {
	if err := rhythm.ValidateBPM(c.BPM); err != nil {
		return err
	}
	if err := c.TimeSignature.Validate(); err != nil {
		return err
	}
	if err := rhythm.ValidatePhraseLength(c.PhraseLength); err != nil {
		return err
	}
	if _, ok := c.SoundKits[c.SoundKit]; !ok {
		return fmt.Errorf("unknown sound kit %q", c.SoundKit)
	}
	if c.OSC.Enabled() && (c.OSC.Port < 1 || c.OSC.Port > 65535) {
		return &rhythm.ConfigurationError{Field: "osc port", Value: c.OSC.Port, Reason: "must be between 1 and 65535"}
	}
	if c.OSC.ResendInterval <= 0 {
		return &rhythm.ConfigurationError{Field: "osc resend interval", Value: c.OSC.ResendInterval, Reason: "must be positive"}
	}
	return nil
}

// ActiveSoundKit returns the kit selected by SoundKit.
func (c DownbeatConfig) ActiveSoundKit() profile.Profile {
	return c.SoundKits[c.SoundKit]
}

// NewSettings returns metronome settings initialized from the config.
func (c DownbeatConfig) NewSettings() (*rhythm.Settings, error) {
	s := rhythm.NewSettings()
	if err := s.SetBPM(c.BPM); err != nil {
		return nil, err
	}
	if err := s.SetTimeSignature(c.TimeSignature); err != nil {
		return nil, err
	}
	if err := s.SetPhraseLength(c.PhraseLength); err != nil {
		return nil, err
	}
	s.SetCountOffEnabled(c.CountOff)
	return s, nil
}
