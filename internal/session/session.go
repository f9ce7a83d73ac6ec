// Package session implements the per-room playback engine: a state machine
// that pulls tracks from its queue, drives an AudioSink, applies
// volume/loop/skip/stop controls, and tears itself down when the queue stays
// empty past the idle timeout. Sessions are fully independent of each other;
// within a session, all shared state is guarded by a single mutex and the
// background playback loop is the sole writer of the now-playing slot.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sonroyaalmerol/torabot/internal/queue"
)

const (
	// DefaultIdleTimeout is how long the playback loop waits for a track
	// before tearing the session down. An idle room holding a live voice
	// connection wastes a connection slot indefinitely otherwise.
	DefaultIdleTimeout = 180 * time.Second

	// DefaultVolume is the initial volume fraction of a new session.
	DefaultVolume = 0.5
)

// Config holds everything a Session needs at construction.
type Config struct {
	RoomID   string
	Dialer   SinkDialer
	Notifier Notifier

	// IdleTimeout overrides DefaultIdleTimeout when positive.
	IdleTimeout time.Duration

	// OnIdle is invoked exactly once if the playback loop tears the session
	// down on idle timeout. The registry uses it to evict the entry.
	OnIdle func()
}

// Session owns one room's queue, now-playing slot, and background playback
// loop. All exported methods are safe for concurrent use.
type Session struct {
	roomID      string
	dialer      SinkDialer
	notif       Notifier
	tracks      *queue.Queue[Track]
	idleTimeout time.Duration
	onIdle      func()

	mu        sync.Mutex
	sink      AudioSink
	channelID string
	current   *Track
	loop      bool
	volume    float64
	skipVotes map[string]struct{}
	closed    bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Session. The playback loop is not running until Start is
// called; the Registry does that while holding its own lock so that a room
// never gets two loops.
func New(cfg Config) *Session {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Session{
		roomID:      cfg.RoomID,
		dialer:      cfg.Dialer,
		notif:       cfg.Notifier,
		tracks:      queue.New[Track](),
		idleTimeout: idle,
		onIdle:      cfg.OnIdle,
		volume:      DefaultVolume,
		skipVotes:   make(map[string]struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the background playback loop. Called exactly once, by the
// registry (or directly in tests).
func (s *Session) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

// run is the background playback loop. It terminates only on idle timeout or
// when Leave cancels ctx; playback faults are reported and the loop
// continues so the session stays serviceable.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	for {
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		cur := s.current
		looping := s.loop && cur != nil
		s.mu.Unlock()

		if !looping {
			waitCtx, cancel := context.WithTimeout(ctx, s.idleTimeout)
			t, err := s.tracks.DequeueWait(waitCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Info("session idle, tearing down", "roomID", s.roomID, "after", s.idleTimeout)
				s.teardownIdle()
				return
			}
			cur = &t
			s.mu.Lock()
			s.current = cur
			s.mu.Unlock()
		}

		s.mu.Lock()
		sink := s.sink
		vol := s.volume
		s.mu.Unlock()

		if sink == nil {
			// enqueue without a join is the command layer's mistake;
			// report it and drop the track rather than spinning
			if ctx.Err() != nil {
				return
			}
			s.notif.PlaybackFault(s.roomID, ErrNotConnected)
			s.clearCurrent()
			continue
		}

		sink.SetVolume(vol)

		// one completion signal in flight at a time; the sink guarantees
		// onComplete fires exactly once per Play
		completed := make(chan error, 1)
		if err := sink.Play(ctx, cur, func(err error) { completed <- err }); err != nil {
			s.notif.PlaybackFault(s.roomID, err)
			s.clearCurrent()
			continue
		}

		// advisory: sent after playback started, so a fast skip can
		// reorder this relative to the audible transition
		s.notif.NowPlaying(s.roomID, cur)

		select {
		case err := <-completed:
			if err != nil {
				s.notif.PlaybackFault(s.roomID, err)
			}
		case <-ctx.Done():
			return
		}

		s.mu.Lock()
		if !s.loop {
			s.current = nil
		}
		s.mu.Unlock()
	}
}

func (s *Session) clearCurrent() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Join connects the session's sink to the given voice channel, or relocates
// it. Joining the channel the sink is already on is a no-op.
func (s *Session) Join(ctx context.Context, channelID string) error {
	s.mu.Lock()
	sink := s.sink
	same := s.channelID == channelID
	s.mu.Unlock()

	if sink != nil {
		if same {
			return nil
		}
		if err := sink.MoveTo(ctx, channelID); err != nil {
			return err
		}
		s.mu.Lock()
		s.channelID = channelID
		s.mu.Unlock()
		return nil
	}

	// dial without holding the lock
	dialed, err := s.dialer.Dial(ctx, channelID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.sink != nil || s.closed {
		// someone else connected while we were dialing
		s.mu.Unlock()
		_ = dialed.Close()
		return nil
	}
	s.sink = dialed
	s.channelID = channelID
	s.mu.Unlock()
	return nil
}

// SetVolume sets the session volume from a percentage in [0, 100]. Applied
// to the sink immediately when attached; sinks that cannot adjust an
// in-flight stream pick it up on the next play.
func (s *Session) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidRange
	}
	frac := float64(percent) / 100

	s.mu.Lock()
	s.volume = frac
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink.SetVolume(frac)
	}
	return nil
}

// Volume reports the current volume as a percentage.
func (s *Session) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.volume * 100)
}

// IsPlaying reports whether a sink is attached and a track is set.
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink != nil && s.current != nil
}

// IsPaused reports whether the attached sink is paused.
func (s *Session) IsPaused() bool {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	return sink != nil && sink.IsPaused()
}

// Skip clears the skip votes and stops the current track, which fires the
// sink's completion callback and advances the loop. Returns
// ErrNothingPlaying when there is nothing to skip.
func (s *Session) Skip() error {
	s.mu.Lock()
	clear(s.skipVotes)
	sink := s.sink
	playing := sink != nil && s.current != nil
	s.mu.Unlock()

	if !playing {
		return ErrNothingPlaying
	}
	sink.Stop()
	return nil
}

// VoteSkip records a skip vote for userID and returns the number of distinct
// voters. Current policy skips unconditionally, so callers follow up with
// Skip; the vote set is kept for a future threshold policy.
func (s *Session) VoteSkip(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipVotes[userID] = struct{}{}
	return len(s.skipVotes)
}

// Pause pauses the current track. A no-op unless a track is playing and the
// sink is actually rendering.
func (s *Session) Pause() error {
	s.mu.Lock()
	sink := s.sink
	playing := sink != nil && s.current != nil
	s.mu.Unlock()

	if !playing {
		return ErrNothingPlaying
	}
	if !sink.IsPlaying() || sink.IsPaused() {
		return nil
	}
	return sink.Pause()
}

// Resume resumes a paused track. A no-op unless the sink is paused.
func (s *Session) Resume() error {
	s.mu.Lock()
	sink := s.sink
	playing := sink != nil && s.current != nil
	s.mu.Unlock()

	if !playing {
		return ErrNothingPlaying
	}
	if !sink.IsPaused() {
		return nil
	}
	return sink.Resume()
}

// Stop clears the queue and stops the current track. The sink stays
// connected. Safe to call on an already-stopped session.
func (s *Session) Stop() {
	s.tracks.Clear()

	s.mu.Lock()
	sink := s.sink
	playing := sink != nil && s.current != nil
	s.mu.Unlock()

	if playing {
		sink.Stop()
	}
}

// Leave stops playback, disconnects the sink, and terminates the background
// loop permanently. Idempotent. The caller (registry) removes the session
// from its map.
func (s *Session) Leave() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sink := s.sink
	s.sink = nil
	s.channelID = ""
	s.mu.Unlock()

	s.tracks.Clear()
	if sink != nil {
		sink.Stop()
		_ = sink.Close()
	}
	s.cancel()
	<-s.done

	slog.Info("session closed", "roomID", s.roomID)
}

// teardownIdle is Leave for the idle-timeout path. It runs on the playback
// loop goroutine, so it must not wait for the loop to exit.
func (s *Session) teardownIdle() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sink := s.sink
	s.sink = nil
	s.channelID = ""
	s.mu.Unlock()

	s.tracks.Clear()
	if sink != nil {
		sink.Stop()
		_ = sink.Close()
	}
	s.cancel()

	if s.onIdle != nil {
		s.onIdle()
	}
}

// SetLoop toggles replaying the current track. Takes effect on the next loop
// iteration.
func (s *Session) SetLoop(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = on
}

// Loop reports the loop flag.
func (s *Session) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// Enqueue appends t to the queue. Joining first is the command layer's
// responsibility.
func (s *Session) Enqueue(t Track) {
	s.tracks.Enqueue(t)
}

// Current returns a copy of the now-playing track, or nil.
func (s *Session) Current() *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	t := *s.current
	return &t
}

// ChannelID reports the voice channel the sink is connected to, or "".
func (s *Session) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

// QueueLen reports the number of pending tracks. The now-playing track is
// not a queue member.
func (s *Session) QueueLen() int {
	return s.tracks.Len()
}

// QueueSlice returns a snapshot of the pending tracks in [start, end).
func (s *Session) QueueSlice(start, end int) []Track {
	return s.tracks.Slice(start, end)
}

// ShuffleQueue shuffles the pending tracks.
func (s *Session) ShuffleQueue() {
	s.tracks.Shuffle()
}

// RemoveAt removes the pending track at 0-based index i.
func (s *Session) RemoveAt(i int) error {
	return s.tracks.RemoveAt(i)
}

// Done is closed when the background loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
