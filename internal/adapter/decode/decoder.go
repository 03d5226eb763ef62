package decode

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Format is a container format recognised by Sniff.
type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatVorbis  Format = "ogg"
)

// ctxCheckInterval is how many frames a decode loop handles between
// cancellation checks.
const ctxCheckInterval = 1 << 14

// Sniff identifies the format from the leading bytes.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatVorbis
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return FormatUnknown
}

// Decoder decodes whole tracks into planar float samples.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a decoder. A nil logger discards.
func NewDecoder(l *slog.Logger) *Decoder {
	if l == nil {
		l = logger.Discard()
	}
	return &Decoder{logger: l.With(slog.String("component", "decoder"))}
}

// Decode decodes data and reads its tags. Missing or unreadable tags are not
// an error. Failures are *domain.DecodeError with Op "decode".
func (d *Decoder) Decode(ctx context.Context, data []byte) (*domain.DecodedTrack, error) {
	if len(data) == 0 {
		return nil, domain.NewDecodeError("decode", "", domain.ErrEmptyTrack)
	}

	var (
		buf domain.AudioBuffer
		err error
	)
	format := Sniff(data)
	switch format {
	case FormatWAV:
		buf, err = decodeWAV(ctx, data)
	case FormatMP3:
		buf, err = decodeMP3(ctx, data)
	case FormatVorbis:
		buf, err = decodeVorbis(ctx, data)
	default:
		err = domain.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, domain.NewDecodeError("decode", "", fmt.Errorf("%s: %w", formatName(format), err))
	}
	if buf.Frames() == 0 {
		return nil, domain.NewDecodeError("decode", "", domain.ErrEmptyTrack)
	}

	tags, err := readTags(data)
	if err != nil {
		d.logger.Debug("no tags", slog.String("format", string(format)), slog.String("error", err.Error()))
	}

	d.logger.Debug("track decoded",
		slog.String("format", string(format)),
		slog.Int("sample_rate", buf.SampleRate),
		slog.Int("channels", len(buf.Channels)),
		slog.Float64("seconds", buf.Seconds()))

	return &domain.DecodedTrack{Buffer: buf, Tags: tags}, nil
}

func formatName(f Format) string {
	if f == FormatUnknown {
		return "unknown format"
	}
	return string(f)
}

// planar accumulates interleaved frames into per-channel slices.
type planar struct {
	channels [][]float32
}

func newPlanar(channels, capacity int) *planar {
	p := &planar{channels: make([][]float32, channels)}
	for i := range p.channels {
		p.channels[i] = make([]float32, 0, capacity)
	}
	return p
}

func (p *planar) frames() int { return len(p.channels[0]) }

func (p *planar) buffer(sampleRate int) domain.AudioBuffer {
	return domain.AudioBuffer{SampleRate: sampleRate, Channels: p.channels}
}

var _ ports.TrackDecoder = (*Decoder)(nil)
