package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robmorgan/downbeat/profile"
	"github.com/robmorgan/downbeat/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "downbeat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg, err := NewDownbeatConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, rhythm.DefaultBPM, cfg.BPM)
	assert.Equal(t, rhythm.CommonTime, cfg.TimeSignature)
	assert.True(t, cfg.CountOff)
	assert.False(t, cfg.OSC.Enabled())

	kit := cfg.ActiveSoundKit()
	countOff, ok := kit.Voice(profile.VoiceTypeCountOff)
	require.True(t, ok)
	assert.Equal(t, 0.5, countOff.Volume)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
bpm: 96
time_signature:
  beats: 6
  note_value: 8
phrase_length: 8
count_off: false
sound_kit: rimshot
sound_kits:
  rimshot:
    name: Rimshot
    voices:
      tick: {sample: rim.wav, volume: 0.6}
      accent: {sample: rim_accent.wav, volume: 1.0}
      countoff: {sample: rim.wav, volume: 0.4}
osc:
  host: 127.0.0.1
  port: 9100
  resend_interval: 250ms
`)

	cfg, err := LoadDownbeatConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 96, cfg.BPM)
	assert.Equal(t, rhythm.TimeSignature{Beats: 6, NoteValue: 8}, cfg.TimeSignature)
	assert.Equal(t, 8, cfg.PhraseLength)
	assert.False(t, cfg.CountOff)
	assert.Equal(t, "Rimshot", cfg.ActiveSoundKit().Name)
	assert.Equal(t, 250*time.Millisecond, cfg.OSC.ResendInterval)
	assert.True(t, cfg.OSC.Enabled())

	// built-in kits remain selectable
	assert.Contains(t, cfg.SoundKits, DefaultSoundKit)

	settings, err := cfg.NewSettings()
	require.NoError(t, err)
	assert.Equal(t, 96, settings.BPM())
	assert.Equal(t, 6, settings.BeatsPerBar())
	assert.Equal(t, 8, settings.PhraseLength())
	assert.False(t, settings.CountOffEnabled())
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadDownbeatConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		contents string
	}{
		{"bpm too low", "bpm: 20\n"},
		{"bpm too high", "bpm: 301\n"},
		{"zero phrase length", "phrase_length: 0\n"},
		{"bad note value", "time_signature: {beats: 4, note_value: 3}\n"},
		{"osc port", "osc: {host: localhost, port: 70000}\n"},
		{"zero resend interval", "osc: {host: localhost, port: 9000, resend_interval: 0s}\n"},
		{"negative resend interval", "osc: {resend_interval: -250ms}\n"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadDownbeatConfig(writeConfig(t, testCase.contents))
			require.Error(t, err)
			assert.True(t, rhythm.IsConfigurationError(err))
		})
	}
}

func TestLoadConfigUnknownKit(t *testing.T) {
	t.Parallel()

	_, err := LoadDownbeatConfig(writeConfig(t, "sound_kit: gamelan\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gamelan")
}

func TestStandardForms(t *testing.T) {
	t.Parallel()

	forms := StandardForms()
	require.Len(t, forms, 2)

	for _, form := range forms {
		require.NoError(t, form.Validate(), form.Name)
	}

	blues, ok := FindStandardForm("12-Bar Blues")
	require.True(t, ok)
	assert.Equal(t, 12, blues.TotalBars())
	assert.Empty(t, blues.MutedBars())

	aaba, ok := FindStandardForm("standard:32-bar-aaba")
	require.True(t, ok)
	assert.Equal(t, 32, aaba.TotalBars())

	_, ok = FindStandardForm("polka")
	assert.False(t, ok)
}
