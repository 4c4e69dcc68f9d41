package audio

import (
	"context"
	"errors"
)

var (
	// ErrNotStarted is returned when Run is called before Start.
	ErrNotStarted = errors.New("audio monitor not started")
	// ErrStreamEnded is logged when the input stream stops delivering chunks.
	ErrStreamEnded = errors.New("audio input stream ended")
	// ErrUnknownBackend is returned by NewSource for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown audio backend")
)

// Source delivers microphone chunks as they become available.
type Source interface {
	// Open starts the input stream. Chunks are delivered on the returned
	// channel, which is closed when ctx is done, Close is called, or the
	// stream fails.
	Open(ctx context.Context) (<-chan Chunk, error)
	// Err returns the error that ended the stream, if any.
	Err() error
	// Close stops the stream and releases the device. It is idempotent.
	Close() error
}

// Beeper plays the alert tone and blocks until it has been delivered.
type Beeper interface {
	Play(ctx context.Context) error
}

// NewSource returns the input backend named by backend.
func NewSource(backend, device, ffmpegPath string, frames int) (Source, error) {
	switch backend {
	case BackendPortAudio, "":
		return NewPortAudioSource(frames), nil
	case BackendCommand:
		return NewCommandSource(device, ffmpegPath, frames), nil
	default:
		return nil, ErrUnknownBackend
	}
}
