// Package domain defines visualization errors.
// These errors are independent of the host that renders or plays audio.
package domain

import (
	"errors"
	"fmt"
)

// Configuration failures. Returned wrapped in a ConfigurationError.
var (
	// ErrUnknownKind is returned when the requested visualization kind does not exist.
	ErrUnknownKind = errors.New("unknown visualization kind")

	// ErrInvalidFFTSize is returned when fftSize is not a power of two in [MinFFTSize, MaxFFTSize].
	ErrInvalidFFTSize = errors.New("fft size must be a power of two between 32 and 32768")

	// ErrMissingSource is returned when neither a media element nor an input node is given.
	ErrMissingSource = errors.New("source element is required")

	// ErrMissingContainer is returned when no container is given.
	ErrMissingContainer = errors.New("container is required")

	// ErrMissingHost is returned when no host (frame scheduler, canvas factory) is given.
	ErrMissingHost = errors.New("host is required")

	// ErrMissingAudioContext is returned when no audio context or context factory is available.
	ErrMissingAudioContext = errors.New("audio context or context factory is required")

	// ErrMissingDecoder is returned when a track visualization has no fetcher or decoder.
	ErrMissingDecoder = errors.New("fetcher and decoder are required for track visualizations")

	// ErrInvalidChannelMode is returned when the channel mode does not fit the visualization kind.
	ErrInvalidChannelMode = errors.New("channel mode not supported by this visualization")

	// ErrInvalidOption is returned when a kind-specific option is out of range.
	ErrInvalidOption = errors.New("invalid option")
)

// Runtime failures.
var (
	// ErrDisposed is returned by any method called after Destroy.
	ErrDisposed = errors.New("component destroyed")

	// ErrTrackNotReady is returned when an interaction needs the decoded track.
	ErrTrackNotReady = errors.New("track not ready")

	// ErrNoBeatGrid is returned when a beat operation runs before a beat grid exists.
	ErrNoBeatGrid = errors.New("no beat grid")

	// ErrNotFullscreen is returned when leaving fullscreen while nothing is fullscreen.
	ErrNotFullscreen = errors.New("not in fullscreen")

	// ErrNoLoopEntry is returned when setting a loop end before its entry.
	ErrNoLoopEntry = errors.New("loop entry point not set")

	// ErrHotCueExists is returned when a hot cue already sits on the nearest beat.
	ErrHotCueExists = errors.New("hot cue already exists on this beat")

	// ErrHotCueNotFound is returned when updating a hot cue that is not stored.
	ErrHotCueNotFound = errors.New("hot cue not found")

	// ErrUnsupportedFormat is returned when no decoder recognizes the audio bytes.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrEmptyTrack is returned when a decoded track holds no samples.
	ErrEmptyTrack = errors.New("decoded track is empty")

	// ErrInvalidPort is returned when connecting audio nodes through a missing input or output.
	ErrInvalidPort = errors.New("invalid node input or output index")

	// ErrNodeNotConnected is returned when disconnecting nodes that are not connected.
	ErrNodeNotConnected = errors.New("nodes are not connected")

	// ErrContextClosed is returned when using a closed audio context.
	ErrContextClosed = errors.New("audio context closed")

	// ErrForeignNode is returned when connecting nodes that belong to different audio contexts.
	ErrForeignNode = errors.New("node belongs to another audio context")
)

// ConfigurationError reports an invalid or missing construction option.
// Construction fails before anything is created when one is returned.
type ConfigurationError struct {
	Field   string // Option that failed (e.g., "FFTSize", "Kind")
	Value   any    // Offending value
	Message string // Error message
	Err     error  // Sentinel cause
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("configuration error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a new ConfigurationError. The message defaults to
// the cause's text.
func NewConfigurationError(field string, value any, err error) *ConfigurationError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &ConfigurationError{
		Field:   field,
		Value:   value,
		Message: msg,
		Err:     err,
	}
}

// DecodeError represents a failed offline fetch or decode of a whole track.
type DecodeError struct {
	Op      string // Operation that failed ("fetch", "decode", "tags")
	Src     string // Track source
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Src != "" {
		return fmt.Sprintf("decode %s failed for '%s': %s", e.Op, e.Src, e.Message)
	}
	return fmt.Sprintf("decode %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a new DecodeError.
func NewDecodeError(op, src string, err error) *DecodeError {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &DecodeError{
		Op:      op,
		Src:     src,
		Message: msg,
		Err:     err,
	}
}

// DrawError is returned by drawing helpers that received unusable arguments.
// The render loop logs it and carries on with the next frame.
type DrawError struct {
	Op      string
	Message string
}

// Error implements the error interface.
func (e *DrawError) Error() string {
	return fmt.Sprintf("draw %s: %s", e.Op, e.Message)
}

// NewDrawError creates a new DrawError.
func NewDrawError(op, format string, args ...any) *DrawError {
	return &DrawError{Op: op, Message: fmt.Sprintf(format, args...)}
}
