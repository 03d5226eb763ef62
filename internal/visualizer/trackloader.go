package visualizer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

// trackLoader fetches and decodes whole tracks on a background goroutine and
// hands every result back through host.Dispatch. Its state is only touched
// on the UI goroutine.
type trackLoader struct {
	e       *env
	logger  *slog.Logger
	onReady func(track *domain.DecodedTrack)

	state  domain.TrackState
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

func newTrackLoader(e *env, onReady func(track *domain.DecodedTrack)) *trackLoader {
	return &trackLoader{
		e:       e,
		logger:  e.logger.With("op", "track"),
		onReady: onReady,
		state:   domain.TrackLoading,
	}
}

// load starts decoding src. A load already in flight is cancelled and its
// result discarded when it arrives.
func (l *trackLoader) load(src string) {
	if l.closed {
		return
	}
	l.abort()
	l.state = domain.TrackLoading
	if src == "" {
		return
	}

	l.gen++
	gen := l.gen
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	fetcher, decoder := l.e.Fetcher, l.e.Decoder

	l.logger.Debug("loading track", "src", src, "generation", gen)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		data, err := fetcher.Fetch(ctx, src)
		if err != nil {
			l.dispatch(func() { l.fail(gen, domain.NewDecodeError("fetch", src, err)) })
			return
		}
		l.dispatch(func() {
			if l.current(gen) {
				l.state = domain.TrackDecoding
			}
		})

		track, err := decoder.Decode(ctx, data)
		if err == nil && (track == nil || track.Buffer.Frames() == 0) {
			err = domain.ErrEmptyTrack
		}
		if err != nil {
			l.dispatch(func() { l.fail(gen, domain.NewDecodeError("decode", src, err)) })
			return
		}
		track.Src = src
		l.dispatch(func() { l.finish(gen, track) })
	}()
}

func (l *trackLoader) dispatch(fn func()) {
	l.e.host.Dispatch(fn)
}

// current reports whether gen is still the newest load.
func (l *trackLoader) current(gen uint64) bool {
	return !l.closed && gen == l.gen
}

func (l *trackLoader) fail(gen uint64, err error) {
	if !l.current(gen) {
		l.logger.Debug("discarding stale track failure", "generation", gen, "error", err)
		return
	}
	l.state = domain.TrackLoading
	if errors.Is(err, context.Canceled) {
		return
	}
	l.logger.Warn("track decode failed", "error", err)
}

func (l *trackLoader) finish(gen uint64, track *domain.DecodedTrack) {
	if !l.current(gen) {
		l.logger.Debug("discarding stale track", "src", track.Src, "generation", gen)
		return
	}
	l.cancel = nil
	l.state = domain.TrackReady
	l.logger.Debug("track ready",
		"src", track.Src,
		"seconds", track.Buffer.Seconds(),
		"sample_rate", track.Buffer.SampleRate)
	l.onReady(track)
}

// abort cancels the load in flight, if any.
func (l *trackLoader) abort() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}

// close abandons any pending load and waits for its goroutine to exit.
func (l *trackLoader) close() {
	if l.closed {
		return
	}
	l.abort()
	l.closed = true
	l.wg.Wait()
}
