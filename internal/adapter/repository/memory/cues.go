package memory

import (
	"encoding/json"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// CueRepository implements ports.CueRepository using Fyne preferences. Each
// track is stored as JSON under a key derived from its source.
//
// Thread-safe: All operations protected by sync.RWMutex.
type CueRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewCueRepository creates a new cue repository.
func NewCueRepository(prefs fyne.Preferences) *CueRepository {
	return &CueRepository{
		prefs: prefs,
	}
}

func cueKey(src string) string {
	return "cues." + src
}

// SaveCues persists the beat info and hot cues of src.
func (r *CueRepository) SaveCues(src string, cues domain.TrackCues) error {
	if src == "" {
		return fmt.Errorf("save cues: %w", domain.ErrMissingSource)
	}
	data, err := json.Marshal(cues)
	if err != nil {
		return fmt.Errorf("save cues of %s: %w", src, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.SetString(cueKey(src), string(data))
	return nil
}

// LoadCues retrieves the saved cues of src.
func (r *CueRepository) LoadCues(src string) (domain.TrackCues, bool, error) {
	r.mu.RLock()
	data := r.prefs.String(cueKey(src))
	r.mu.RUnlock()

	if data == "" {
		return domain.TrackCues{}, false, nil
	}
	var cues domain.TrackCues
	if err := json.Unmarshal([]byte(data), &cues); err != nil {
		return domain.TrackCues{}, false, fmt.Errorf("load cues of %s: %w", src, err)
	}
	return cues, true, nil
}

// RemoveCues forgets the cues of src.
func (r *CueRepository) RemoveCues(src string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(cueKey(src))
	return nil
}

// Verify interface implementation
var _ ports.CueRepository = (*CueRepository)(nil)
