package session

import "errors"

var (
	// ErrInvalidRange is returned by SetVolume for values outside [0, 100].
	ErrInvalidRange = errors.New("volume must be between 0 and 100")

	// ErrNotConnected is returned by operations that need an attached sink.
	ErrNotConnected = errors.New("not connected to any voice channel")

	// ErrNothingPlaying is returned by Skip when no track is playing.
	ErrNothingPlaying = errors.New("nothing is playing")
)
