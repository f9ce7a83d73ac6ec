package session

import (
	"context"
	"time"
)

// Track is an immutable description of one playable audio unit. Ownership of
// a Track transfers from the queue to the session's now-playing slot when it
// is dequeued; it is never shared between the two.
type Track struct {
	Title    string
	Artist   string
	URL      string // page URL, shown to users
	MediaURL string // direct stream URL handed to the sink
	Duration time.Duration
	IsLive   bool

	Thumbnail   string
	RequestedBy string // user ID of the requester
	ChannelID   string // text channel the request came from
}

// AudioSink renders a Track's audio to a room's live voice connection.
// Implementations must be safe for concurrent use. The onComplete callback
// passed to Play fires exactly once per call, whether the track ends
// naturally, is stopped, or fails.
type AudioSink interface {
	Play(ctx context.Context, t *Track, onComplete func(error)) error
	Stop()
	Pause() error
	Resume() error
	IsPlaying() bool
	IsPaused() bool

	// SetVolume sets the average volume as a fraction in [0, 1]. Sinks that
	// cannot adjust an in-flight stream apply it on the next Play.
	SetVolume(frac float64)

	// MoveTo relocates the sink to another voice channel.
	MoveTo(ctx context.Context, channelID string) error

	// Close disconnects and releases the sink. Safe to call more than once.
	Close() error
}

// SinkDialer connects an AudioSink to a voice channel. One dialer is bound
// to one room; the session calls it on Join.
type SinkDialer interface {
	Dial(ctx context.Context, channelID string) (AudioSink, error)
}

// Notifier receives the session's advisory side effects. The now-playing
// notification is sent after playback has started, so it may arrive
// out of order relative to a fast consecutive skip.
type Notifier interface {
	NowPlaying(roomID string, t *Track)
	PlaybackFault(roomID string, err error)
}
