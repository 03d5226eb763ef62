package memory

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

func newTestPreferences(t *testing.T) fyne.Preferences {
	t.Helper()
	return test.NewTempApp(t).Preferences()
}

func TestPreferencesRepository_Defaults(t *testing.T) {
	repo := NewPreferencesRepository(newTestPreferences(t))

	kind, err := repo.LoadKind(domain.KindBars)
	require.NoError(t, err)
	assert.Equal(t, domain.KindBars, kind)

	volume, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 1.0, volume)
}

func TestPreferencesRepository_SaveLoadCycle(t *testing.T) {
	prefs := newTestPreferences(t)
	repo := NewPreferencesRepository(prefs)

	require.NoError(t, repo.SaveKind(domain.KindWaveform))
	require.NoError(t, repo.SaveVolume(0.0))

	// a second repository on the same preferences sees the values
	other := NewPreferencesRepository(prefs)
	kind, err := other.LoadKind(domain.KindBars)
	require.NoError(t, err)
	assert.Equal(t, domain.KindWaveform, kind)
	volume, err := other.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 0.0, volume)

	require.NoError(t, repo.Clear())
	kind, _ = repo.LoadKind(domain.KindCircle)
	assert.Equal(t, domain.KindCircle, kind)
	volume, _ = repo.LoadVolume()
	assert.Equal(t, 1.0, volume)
}

func TestCueRepository_SaveAndLoad(t *testing.T) {
	repo := NewCueRepository(newTestPreferences(t))

	_, ok, err := repo.LoadCues("song.mp3")
	require.NoError(t, err)
	assert.False(t, ok)

	cues := domain.TrackCues{
		Beat: domain.BeatInfo{Offset: 0.25, BPM: 128, TimeSignature: 4},
		HotCues: []domain.HotCue{
			{BeatIndex: 8, Number: 1, Label: "drop", Color: domain.ColorPrimary, Time: 4},
			{BeatIndex: 32, Number: 2, Label: "2", Color: domain.ColorLoop, Time: 15.25},
		},
	}
	require.NoError(t, repo.SaveCues("song.mp3", cues))

	got, ok, err := repo.LoadCues("song.mp3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cues, got)

	_, ok, _ = repo.LoadCues("other.mp3")
	assert.False(t, ok, "cues are per track")

	require.NoError(t, repo.RemoveCues("song.mp3"))
	_, ok, _ = repo.LoadCues("song.mp3")
	assert.False(t, ok)
}

func TestCueRepository_Errors(t *testing.T) {
	prefs := newTestPreferences(t)
	repo := NewCueRepository(prefs)

	assert.ErrorIs(t, repo.SaveCues("", domain.TrackCues{}), domain.ErrMissingSource)

	prefs.SetString(cueKey("broken.wav"), "{not json")
	_, ok, err := repo.LoadCues("broken.wav")
	assert.Error(t, err)
	assert.False(t, ok)
}
