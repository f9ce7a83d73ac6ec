package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sonroyaalmerol/torabot/internal/session"
	"github.com/sonroyaalmerol/torabot/internal/session/mock"
)

func track(title string) session.Track {
	return session.Track{
		Title:       title,
		URL:         "https://example.com/" + title,
		MediaURL:    "https://cdn.example.com/" + title,
		Duration:    3 * time.Minute,
		RequestedBy: "user-1",
		ChannelID:   "text-1",
	}
}

func newTestSession(t *testing.T) (*session.Session, *mock.Sink, *mock.Notifier) {
	t.Helper()

	sink := mock.NewSink()
	notif := &mock.Notifier{}
	s := session.New(session.Config{
		RoomID:   "room-1",
		Dialer:   &mock.Dialer{Sink: sink},
		Notifier: notif,
	})
	s.Start()
	t.Cleanup(s.Leave)

	if err := s.Join(context.Background(), "voice-1"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	return s, sink, notif
}

func waitPlay(t *testing.T, sink *mock.Sink) *session.Track {
	t.Helper()
	select {
	case tr := <-sink.PlayStarted:
		return tr
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the sink to start playing")
		return nil
	}
}

func TestPlaybackOrder(t *testing.T) {
	t.Parallel()

	s, sink, _ := newTestSession(t)

	for _, name := range []string{"a", "b", "c"} {
		s.Enqueue(track(name))
	}

	for _, want := range []string{"a", "b", "c"} {
		got := waitPlay(t, sink)
		if got.Title != want {
			t.Fatalf("played %q, want %q", got.Title, want)
		}
		sink.Complete(nil)
	}

	// all tracks consumed; the loop is back in its idle wait
	if s.QueueLen() != 0 {
		t.Errorf("QueueLen() = %d, want 0", s.QueueLen())
	}
}

func TestNowPlayingNotification(t *testing.T) {
	t.Parallel()

	s, sink, notif := newTestSession(t)

	s.Enqueue(track("a"))
	waitPlay(t, sink)

	deadline := time.Now().Add(2 * time.Second)
	for len(notif.Announced()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	ann := notif.Announced()
	if len(ann) != 1 || ann[0].Title != "a" {
		t.Fatalf("announced = %v, want [a]", ann)
	}
	sink.Complete(nil)
}

func TestSkipNothingPlaying(t *testing.T) {
	t.Parallel()

	s, sink, _ := newTestSession(t)

	if err := s.Skip(); !errors.Is(err, session.ErrNothingPlaying) {
		t.Fatalf("Skip() error = %v, want ErrNothingPlaying", err)
	}
	if sink.Stopped() != 0 {
		t.Errorf("Stop called %d times, want 0", sink.Stopped())
	}
}

func TestSkipAdvancesQueue(t *testing.T) {
	t.Parallel()

	s, sink, _ := newTestSession(t)

	s.Enqueue(track("a"))
	s.Enqueue(track("b"))

	if got := waitPlay(t, sink); got.Title != "a" {
		t.Fatalf("played %q, want a", got.Title)
	}
	if err := s.Skip(); err != nil {
		t.Fatalf("Skip() error: %v", err)
	}
	if got := waitPlay(t, sink); got.Title != "b" {
		t.Fatalf("after skip, played %q, want b", got.Title)
	}
	sink.Complete(nil)
}

func TestSetVolumeBounds(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSession(t)

	for _, v := range []int{-1, 101, 150} {
		if err := s.SetVolume(v); !errors.Is(err, session.ErrInvalidRange) {
			t.Errorf("SetVolume(%d) error = %v, want ErrInvalidRange", v, err)
		}
	}
	for _, v := range []int{0, 50, 100} {
		if err := s.SetVolume(v); err != nil {
			t.Errorf("SetVolume(%d) error = %v, want nil", v, err)
		}
	}
	if got := s.Volume(); got != 100 {
		t.Errorf("Volume() = %d, want 100", got)
	}
}

func TestVolumeAppliedBeforePlay(t *testing.T) {
	t.Parallel()

	s, sink, _ := newTestSession(t)

	if err := s.SetVolume(80); err != nil {
		t.Fatalf("SetVolume() error: %v", err)
	}
	s.Enqueue(track("a"))
	waitPlay(t, sink)

	found := false
	for _, v := range sink.Volumes {
		if v == 0.8 {
			found = true
		}
	}
	if !found {
		t.Errorf("sink volumes = %v, want to contain 0.8", sink.Volumes)
	}
	sink.Complete(nil)
}

func TestLoopReplaysCurrentTrack(t *testing.T) {
	t.Parallel()

	s, sink, _ := newTestSession(t)

	s.Enqueue(track("a"))
	s.Enqueue(track("b"))

	if got := waitPlay(t, sink); got.Title != "a" {
		t.Fatalf("played %q, want a", got.Title)
	}
	s.SetLoop(true)

	// while looping, skip replays the same track instead of advancing
	for range 2 {
		if err := s.Skip(); err != nil {
			t.Fatalf("Skip() error: %v", err)
		}
		if got := waitPlay(t, sink); got.Title != "a" {
			t.Fatalf("while looping, played %q, want a", got.Title)
		}
	}

	// turning the loop off takes effect on the next iteration
	s.SetLoop(false)
	sink.Complete(nil)
	if got := waitPlay(t, sink); got.Title != "b" {
		t.Fatalf("after loop off, played %q, want b", got.Title)
	}
	sink.Complete(nil)
}

func TestPlaybackFaultKeepsLoopAlive(t *testing.T) {
	t.Parallel()

	s, sink, notif := newTestSession(t)

	s.Enqueue(track("a"))
	s.Enqueue(track("b"))

	waitPlay(t, sink)
	sink.Complete(errors.New("stream reset by peer"))

	// the fault is reported and the loop moves on to the next track
	if got := waitPlay(t, sink); got.Title != "b" {
		t.Fatalf("after fault, played %q, want b", got.Title)
	}
	if notif.FaultCount() != 1 {
		t.Errorf("FaultCount() = %d, want 1", notif.FaultCount())
	}
	sink.Complete(nil)
}

func TestPauseResume(t *testing.T) {
	t.Parallel()

	s, sink, _ := newTestSession(t)

	if err := s.Pause(); !errors.Is(err, session.ErrNothingPlaying) {
		t.Fatalf("Pause() with nothing playing = %v, want ErrNothingPlaying", err)
	}

	s.Enqueue(track("a"))
	waitPlay(t, sink)

	if err := s.Pause(); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}
	if !s.IsPaused() {
		t.Error("IsPaused() = false after Pause")
	}
	// pausing again is a no-op
	if err := s.Pause(); err != nil {
		t.Fatalf("second Pause() error: %v", err)
	}

	if err := s.Resume(); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}
	if s.IsPaused() {
		t.Error("IsPaused() = true after Resume")
	}
	sink.Complete(nil)
}

func TestStopClearsQueue(t *testing.T) {
	t.Parallel()

	s, sink, _ := newTestSession(t)

	s.Enqueue(track("a"))
	s.Enqueue(track("b"))
	s.Enqueue(track("c"))
	waitPlay(t, sink)

	s.Stop()

	if s.QueueLen() != 0 {
		t.Errorf("QueueLen() after Stop = %d, want 0", s.QueueLen())
	}
	if sink.Stopped() != 1 {
		t.Errorf("sink Stop calls = %d, want 1", sink.Stopped())
	}
	// stopping again must not error or touch the sink
	s.Stop()
	if sink.Stopped() != 1 {
		t.Errorf("sink Stop calls after idempotent Stop = %d, want 1", sink.Stopped())
	}
}

func TestJoinSameChannelIsNoop(t *testing.T) {
	t.Parallel()

	s, sink, _ := newTestSession(t)

	if err := s.Join(context.Background(), "voice-1"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if len(sink.MoveToCalls) != 0 {
		t.Errorf("MoveTo calls = %v, want none", sink.MoveToCalls)
	}

	if err := s.Join(context.Background(), "voice-2"); err != nil {
		t.Fatalf("Join(other) error: %v", err)
	}
	if len(sink.MoveToCalls) != 1 || sink.MoveToCalls[0] != "voice-2" {
		t.Errorf("MoveTo calls = %v, want [voice-2]", sink.MoveToCalls)
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	t.Parallel()

	sink := mock.NewSink()
	s := session.New(session.Config{
		RoomID:   "room-1",
		Dialer:   &mock.Dialer{Sink: sink},
		Notifier: &mock.Notifier{},
	})
	s.Start()

	if err := s.Join(context.Background(), "voice-1"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	s.Leave()
	s.Leave()

	if sink.CallCountClose != 1 {
		t.Errorf("sink Close calls = %d, want 1", sink.CallCountClose)
	}
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("playback loop did not terminate after Leave")
	}
}

func TestEnqueueWithoutJoinReportsFault(t *testing.T) {
	t.Parallel()

	notif := &mock.Notifier{}
	s := session.New(session.Config{
		RoomID:   "room-1",
		Dialer:   &mock.Dialer{Sink: mock.NewSink()},
		Notifier: notif,
	})
	s.Start()
	t.Cleanup(s.Leave)

	s.Enqueue(track("a"))

	deadline := time.Now().Add(2 * time.Second)
	for notif.FaultCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if notif.FaultCount() == 0 {
		t.Fatal("expected a fault for playback without a connected sink")
	}
	if !errors.Is(notif.Faults[0], session.ErrNotConnected) {
		t.Errorf("fault = %v, want ErrNotConnected", notif.Faults[0])
	}
}

func TestVoteSkipCountsDistinctVoters(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSession(t)

	if n := s.VoteSkip("u1"); n != 1 {
		t.Errorf("VoteSkip(u1) = %d, want 1", n)
	}
	if n := s.VoteSkip("u1"); n != 1 {
		t.Errorf("duplicate VoteSkip(u1) = %d, want 1", n)
	}
	if n := s.VoteSkip("u2"); n != 2 {
		t.Errorf("VoteSkip(u2) = %d, want 2", n)
	}
}
