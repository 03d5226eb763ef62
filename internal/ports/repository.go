package ports

import "github.com/tejashwikalptaru/audiovis/internal/domain"

// PreferencesRepository persists application settings.
type PreferencesRepository interface {
	SaveKind(kind domain.Kind) error

	// LoadKind returns the saved kind, or fallback when none is saved.
	LoadKind(fallback domain.Kind) (domain.Kind, error)

	SaveVolume(volume float64) error
	LoadVolume() (float64, error)

	Clear() error
}

// CueRepository persists timeline beat info and hot cues per track source.
type CueRepository interface {
	SaveCues(src string, cues domain.TrackCues) error

	// LoadCues returns the saved cues of src. ok is false when none are saved.
	LoadCues(src string) (cues domain.TrackCues, ok bool, err error)

	RemoveCues(src string) error
}
