// Package memory provides repositories stored in Fyne preferences.
//
// Fyne preferences use OS-specific app data directories:
// - macOS: ~/Library/Preferences/com.audiovis.app.plist
// - Linux: ~/.config/fyne/com.audiovis.app/
// - Windows: %APPDATA%\fyne\com.audiovis.app\
package memory

import (
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

const (
	keyKind   = "preferences.kind"
	keyVolume = "preferences.volume"
)

// PreferencesRepository implements ports.PreferencesRepository using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences' repository.
// The preferences parameter should be obtained from fyne.App.Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{
		prefs: prefs,
	}
}

// SaveKind persists the last shown visualization.
func (r *PreferencesRepository) SaveKind(kind domain.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyKind, string(kind))
	return nil
}

// LoadKind retrieves the last shown visualization.
func (r *PreferencesRepository) LoadKind(fallback domain.Kind) (domain.Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return domain.Kind(r.prefs.StringWithFallback(keyKind, string(fallback))), nil
}

// SaveVolume persists the volume level.
func (r *PreferencesRepository) SaveVolume(volume float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetFloat(keyVolume, volume)
	return nil
}

// LoadVolume retrieves the saved volume level, 1 when none is saved.
func (r *PreferencesRepository) LoadVolume() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.FloatWithFallback(keyVolume, 1.0), nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyKind)
	r.prefs.RemoveValue(keyVolume)
	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
