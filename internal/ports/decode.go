package ports

import (
	"context"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

// Fetcher loads the bytes of a track source.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// TrackDecoder turns the bytes of an audio file into planar samples and tags.
type TrackDecoder interface {
	Decode(ctx context.Context, data []byte) (*domain.DecodedTrack, error)
}
