// Package decode loads whole audio files for offline analysis: a fetcher for
// local paths and http(s) URLs, and a decoder for WAV, MP3 and Ogg Vorbis
// that also reads title, artist and BPM tags.
package decode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// DefaultMaxBytes bounds a fetched file.
const DefaultMaxBytes = 512 << 20

// Fetcher reads track bytes from the file system or over HTTP.
type Fetcher struct {
	logger   *slog.Logger
	client   *http.Client
	maxBytes int64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithFetchLogger sets the logger.
func WithFetchLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithMaxBytes bounds the size of a fetched file.
func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// NewFetcher creates a fetcher using http.DefaultClient.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   http.DefaultClient,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Discard()
	}
	return f
}

// Fetch returns the bytes of src, a path, a file:// URL or an http(s) URL.
// Failures are *domain.DecodeError with Op "fetch".
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, domain.NewDecodeError("fetch", src, domain.ErrMissingSource)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewDecodeError("fetch", src, err)
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		data, err = f.fetchHTTP(ctx, src)
	} else {
		data, err = f.readFile(strings.TrimPrefix(src, "file://"))
	}
	if err != nil {
		return nil, domain.NewDecodeError("fetch", src, err)
	}
	if len(data) == 0 {
		return nil, domain.NewDecodeError("fetch", src, domain.ErrEmptyTrack)
	}

	f.logger.Debug("track fetched", slog.String("src", src), slog.Int("bytes", len(data)))
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return readLimited(resp.Body, f.maxBytes)
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readLimited(file, f.maxBytes)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file larger than %d bytes", limit)
	}
	return data, nil
}

var _ ports.Fetcher = (*Fetcher)(nil)
