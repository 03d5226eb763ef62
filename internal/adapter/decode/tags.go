package decode

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

// bpmKeys are the raw tag names carrying tempo: ID3v2.3/2.4, ID3v2.2, MP4 and
// Vorbis comments.
var bpmKeys = []string{"TBPM", "TBP", "tmpo", "bpm", "BPM"}

// readTags extracts title, artist and BPM.
func readTags(data []byte) (domain.TrackTags, error) {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return domain.TrackTags{}, err
	}

	tags := domain.TrackTags{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
	}
	raw := m.Raw()
	for _, key := range bpmKeys {
		if bpm, ok := parseBPM(raw[key]); ok {
			tags.BPM = bpm
			break
		}
	}
	return tags, nil
}

// parseBPM reads a positive tempo from a raw tag value.
func parseBPM(v any) (float64, bool) {
	var bpm float64
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		bpm = f
	case int:
		bpm = float64(x)
	case int64:
		bpm = float64(x)
	case float64:
		bpm = x
	case []byte:
		return parseBPM(string(x))
	case fmt.Stringer:
		return parseBPM(x.String())
	default:
		return 0, false
	}
	if bpm <= 0 {
		return 0, false
	}
	return bpm, true
}
