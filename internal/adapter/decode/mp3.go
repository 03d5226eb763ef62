package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

// go-mp3 always produces 16-bit little-endian stereo
const mp3FrameBytes = 4

func decodeMP3(ctx context.Context, data []byte) (domain.AudioBuffer, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return domain.AudioBuffer{}, err
	}

	capacity := 0
	if n := d.Length(); n > 0 {
		capacity = int(n / mp3FrameBytes)
	}
	out := newPlanar(2, capacity)

	buf := make([]byte, ctxCheckInterval*mp3FrameBytes)
	for {
		if err := ctx.Err(); err != nil {
			return domain.AudioBuffer{}, err
		}

		n, err := io.ReadFull(d, buf)
		for i := 0; i+mp3FrameBytes <= n; i += mp3FrameBytes {
			l := int16(binary.LittleEndian.Uint16(buf[i:]))
			r := int16(binary.LittleEndian.Uint16(buf[i+2:]))
			out.channels[0] = append(out.channels[0], float32(l)/32768)
			out.channels[1] = append(out.channels[1], float32(r)/32768)
		}

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return domain.AudioBuffer{}, err
		}
	}

	return out.buffer(d.SampleRate()), nil
}
