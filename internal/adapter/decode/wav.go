package decode

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-audio/wav"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

// WAV format tags accepted by decodeWAV.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

func decodeWAV(ctx context.Context, data []byte) (domain.AudioBuffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return domain.AudioBuffer{}, domain.ErrUnsupportedFormat
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return domain.AudioBuffer{}, fmt.Errorf("audio format %d: %w", d.WavAudioFormat, domain.ErrUnsupportedFormat)
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return domain.AudioBuffer{}, err
	}

	channels := int(d.NumChans)
	bitDepth := int(d.BitDepth)
	if channels < 1 || bitDepth < 8 || bitDepth > 32 {
		return domain.AudioBuffer{}, fmt.Errorf("%d channels at %d bits: %w", channels, bitDepth, domain.ErrUnsupportedFormat)
	}

	// 8-bit WAV is unsigned, wider depths are signed
	scale := float32(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(pcm.Data) / channels
	out := newPlanar(channels, frames)
	for f := range frames {
		if f%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return domain.AudioBuffer{}, err
			}
		}
		for ch := range channels {
			v := pcm.Data[f*channels+ch] - offset
			out.channels[ch] = append(out.channels[ch], float32(v)/scale)
		}
	}

	return out.buffer(int(d.SampleRate)), nil
}
