package decode

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

func decodeVorbis(ctx context.Context, data []byte) (domain.AudioBuffer, error) {
	r, err := oggvorbis.NewReader(bytes.NewReader(data))
	if err != nil {
		return domain.AudioBuffer{}, err
	}

	channels := r.Channels()
	if channels < 1 {
		return domain.AudioBuffer{}, domain.ErrUnsupportedFormat
	}
	capacity := 0
	if n := r.Length(); n > 0 {
		capacity = int(n)
	}
	out := newPlanar(channels, capacity)

	// Read fills interleaved values and returns how many it wrote
	buf := make([]float32, ctxCheckInterval*channels)
	for {
		if err := ctx.Err(); err != nil {
			return domain.AudioBuffer{}, err
		}

		n, err := r.Read(buf)
		for i := 0; i+channels <= n; i += channels {
			for ch := range channels {
				out.channels[ch] = append(out.channels[ch], buf[i+ch])
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.AudioBuffer{}, err
		}
	}

	return out.buffer(r.SampleRate()), nil
}
