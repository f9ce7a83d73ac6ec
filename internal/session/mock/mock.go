// Package mock provides in-memory mock implementations of the
// [session.AudioSink], [session.SinkDialer], and [session.Notifier]
// interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so
// that tests can assert on call counts and arguments, and they expose
// channels tests can use to synchronize with the playback loop.
//
// Typical usage:
//
//	sink := mock.NewSink()
//	dialer := &mock.Dialer{Sink: sink}
//	notif := &mock.Notifier{}
//	s := session.New(session.Config{RoomID: "room", Dialer: dialer, Notifier: notif})
//	s.Start()
//	s.Join(ctx, "channel-1")
//	s.Enqueue(trackA)
//	started := <-sink.PlayStarted // wait for the loop to reach the sink
//	sink.Complete(nil)            // simulate the track finishing
package mock

import (
	"context"
	"sync"

	"github.com/sonroyaalmerol/torabot/internal/session"
)

// Sink is a mock implementation of [session.AudioSink]. Each Play publishes
// the track on PlayStarted and holds the completion callback until the test
// calls Complete or Stop.
type Sink struct {
	mu sync.Mutex

	// PlayError, PauseError, ResumeError are returned by the respective
	// methods.
	PlayError   error
	PauseError  error
	ResumeError error

	// PlayStarted receives each track passed to Play, in order. Buffered so
	// the playback loop never blocks on an inattentive test.
	PlayStarted chan *session.Track

	// PlayedTracks records every track passed to Play.
	PlayedTracks []*session.Track

	// Volumes records every value passed to SetVolume.
	Volumes []float64

	// MoveToCalls records every channel ID passed to MoveTo.
	MoveToCalls []string

	// CallCountStop and CallCountClose record teardown calls.
	CallCountStop  int
	CallCountClose int

	playing    bool
	paused     bool
	onComplete func(error)
}

func NewSink() *Sink {
	return &Sink{PlayStarted: make(chan *session.Track, 16)}
}

// Play implements [session.AudioSink]. The onComplete callback does not fire
// until the test calls [Sink.Complete] or [Sink.Stop].
func (s *Sink) Play(_ context.Context, t *session.Track, onComplete func(error)) error {
	s.mu.Lock()
	if s.PlayError != nil {
		err := s.PlayError
		s.mu.Unlock()
		return err
	}
	s.PlayedTracks = append(s.PlayedTracks, t)
	s.playing = true
	s.paused = false
	s.onComplete = onComplete
	s.mu.Unlock()

	s.PlayStarted <- t
	return nil
}

// Complete fires the pending completion callback with err, simulating the
// track ending naturally or faulting.
func (s *Sink) Complete(err error) {
	s.mu.Lock()
	cb := s.onComplete
	s.onComplete = nil
	s.playing = false
	s.paused = false
	s.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// Stop implements [session.AudioSink]. Fires the pending completion callback
// with nil, as a real sink does on a forced stop.
func (s *Sink) Stop() {
	s.mu.Lock()
	s.CallCountStop++
	cb := s.onComplete
	s.onComplete = nil
	s.playing = false
	s.paused = false
	s.mu.Unlock()

	if cb != nil {
		cb(nil)
	}
}

// Pause implements [session.AudioSink].
func (s *Sink) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PauseError != nil {
		return s.PauseError
	}
	s.paused = true
	return nil
}

// Resume implements [session.AudioSink].
func (s *Sink) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ResumeError != nil {
		return s.ResumeError
	}
	s.paused = false
	return nil
}

// IsPlaying implements [session.AudioSink].
func (s *Sink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing && !s.paused
}

// IsPaused implements [session.AudioSink].
func (s *Sink) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SetVolume implements [session.AudioSink].
func (s *Sink) SetVolume(frac float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Volumes = append(s.Volumes, frac)
}

// MoveTo implements [session.AudioSink].
func (s *Sink) MoveTo(_ context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MoveToCalls = append(s.MoveToCalls, channelID)
	return nil
}

// Close implements [session.AudioSink].
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountClose++
	return nil
}

// Stopped reports how many times Stop was called.
func (s *Sink) Stopped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CallCountStop
}

// Played returns a copy of the tracks passed to Play so far.
func (s *Sink) Played() []*session.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*session.Track, len(s.PlayedTracks))
	copy(out, s.PlayedTracks)
	return out
}

// Dialer is a mock implementation of [session.SinkDialer]. It hands out Sink
// on every Dial; set DialError to make dialing fail.
type Dialer struct {
	mu sync.Mutex

	Sink      *Sink
	DialError error

	// DialCalls records every channel ID passed to Dial.
	DialCalls []string
}

// Dial implements [session.SinkDialer].
func (d *Dialer) Dial(_ context.Context, channelID string) (session.AudioSink, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.DialCalls = append(d.DialCalls, channelID)
	if d.DialError != nil {
		return nil, d.DialError
	}
	return d.Sink, nil
}

// Notifier is a mock implementation of [session.Notifier].
type Notifier struct {
	mu sync.Mutex

	// NowPlayingTracks records every track announced.
	NowPlayingTracks []*session.Track

	// Faults records every playback fault reported.
	Faults []error
}

// NowPlaying implements [session.Notifier].
func (n *Notifier) NowPlaying(_ string, t *session.Track) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.NowPlayingTracks = append(n.NowPlayingTracks, t)
}

// PlaybackFault implements [session.Notifier].
func (n *Notifier) PlaybackFault(_ string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Faults = append(n.Faults, err)
}

// FaultCount reports how many faults were recorded.
func (n *Notifier) FaultCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Faults)
}

// Announced returns a copy of the announced tracks.
func (n *Notifier) Announced() []*session.Track {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*session.Track, len(n.NowPlayingTracks))
	copy(out, n.NowPlayingTracks)
	return out
}
