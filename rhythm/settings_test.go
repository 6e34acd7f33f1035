package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettingsDefaults(t *testing.T) {
	t.Parallel()

	s := NewSettings()
	assert.Equal(t, 120, s.BPM())
	assert.Equal(t, TimeSignature{Beats: 4, NoteValue: 4}, s.TimeSignature())
	assert.Equal(t, 4, s.PhraseLength())
	assert.True(t, s.CountOffEnabled())
	assert.Empty(t, s.MutedBeats())
	assert.Empty(t, s.MutedBars())
}

func TestSettingsBPMBounds(t *testing.T) {
	t.Parallel()

	s := NewSettings()
	require.NoError(t, s.SetBPM(MinBPM))
	require.NoError(t, s.SetBPM(MaxBPM))

	for _, bpm := range []int{0, 39, 301, -120} {
		err := s.SetBPM(bpm)
		require.Error(t, err, "bpm %d", bpm)

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "bpm", cfgErr.Field)
		assert.Equal(t, bpm, cfgErr.Value)
	}
	assert.Equal(t, MaxBPM, s.BPM())
}

func TestTimeSignatureValidate(t *testing.T) {
	t.Parallel()

	for _, nv := range []int{2, 4, 8, 16} {
		assert.NoError(t, TimeSignature{Beats: 7, NoteValue: nv}.Validate())
	}
	assert.Error(t, TimeSignature{Beats: 0, NoteValue: 4}.Validate())
	assert.Error(t, TimeSignature{Beats: 4, NoteValue: 0}.Validate())
	assert.Error(t, TimeSignature{Beats: 4, NoteValue: 32}.Validate())
	assert.Equal(t, "6/8", TimeSignature{Beats: 6, NoteValue: 8}.String())
}

func TestSettingsPhraseLength(t *testing.T) {
	t.Parallel()

	s := NewSettings()
	require.NoError(t, s.SetPhraseLength(1))
	assert.True(t, IsConfigurationError(s.SetPhraseLength(0)))
	assert.Equal(t, 1, s.PhraseLength())
}

func TestSettingsToggleMutes(t *testing.T) {
	t.Parallel()

	s := NewSettings()
	s.ToggleMuteBeat(3)
	s.ToggleMuteBeat(1)
	s.ToggleMuteBar(2)

	assert.Equal(t, []int{1, 3}, s.MutedBeats())
	assert.Equal(t, []int{2}, s.MutedBars())
	assert.True(t, s.IsBeatMuted(3))
	assert.False(t, s.IsBeatMuted(2))
	assert.True(t, s.IsBarMuted(2))

	s.ToggleMuteBeat(3)
	assert.Equal(t, []int{1}, s.MutedBeats())

	s.MuteBar(2)
	s.MuteBar(4)
	assert.Equal(t, []int{2, 4}, s.MutedBars())

	s.MuteBeat(2)
	s.MuteBeat(2)
	assert.Equal(t, []int{1, 2}, s.MutedBeats())

	s.ClearMutes()
	assert.Empty(t, s.MutedBeats())
	assert.Empty(t, s.MutedBars())
}
