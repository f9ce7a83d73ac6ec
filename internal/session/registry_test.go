package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sonroyaalmerol/torabot/internal/session"
	"github.com/sonroyaalmerol/torabot/internal/session/mock"
)

func newTestRegistry(idle time.Duration) (*session.Registry, *mock.Sink) {
	sink := mock.NewSink()
	return session.NewRegistry(session.RegistryConfig{
		NewDialer:   func(string) session.SinkDialer { return &mock.Dialer{Sink: sink} },
		Notifier:    &mock.Notifier{},
		IdleTimeout: idle,
	}), sink
}

func TestRegistryGetCreatesLazily(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(0)
	t.Cleanup(r.ShutdownAll)

	if r.Peek("room-1") != nil {
		t.Fatal("Peek before Get should return nil")
	}
	s := r.Get("room-1")
	if s == nil {
		t.Fatal("Get returned nil")
	}
	if r.Peek("room-1") != s {
		t.Error("Peek should return the created session")
	}
	if r.Get("room-1") != s {
		t.Error("second Get should return the same session")
	}
}

func TestRegistryConcurrentGet(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(0)
	t.Cleanup(r.ShutdownAll)

	const callers = 16
	var wg sync.WaitGroup
	got := make([]*session.Session, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = r.Get("room-1")
		}()
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if got[i] != got[0] {
			t.Fatalf("caller %d observed a different session instance", i)
		}
	}
}

func TestRegistryRemoveTearsDown(t *testing.T) {
	t.Parallel()

	r, sink := newTestRegistry(0)

	s := r.Get("room-1")
	if err := s.Join(context.Background(), "voice-1"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	r.Remove("room-1")

	if r.Peek("room-1") != nil {
		t.Error("Peek after Remove should return nil")
	}
	if sink.CallCountClose != 1 {
		t.Errorf("sink Close calls = %d, want 1", sink.CallCountClose)
	}
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("playback loop did not terminate after Remove")
	}

	// removing again is a no-op
	r.Remove("room-1")
}

func TestRegistryIdleTimeoutEvicts(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(50 * time.Millisecond)
	t.Cleanup(r.ShutdownAll)

	s := r.Get("room-1")

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not tear itself down on idle timeout")
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.Peek("room-1") != nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if r.Peek("room-1") != nil {
		t.Fatal("registry still returns the session after idle teardown")
	}

	// the room is serviceable again with a fresh session
	if r.Get("room-1") == s {
		t.Error("Get after idle teardown returned the dead session")
	}
}

func TestRegistryShutdownAll(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(0)

	s1 := r.Get("room-1")
	s2 := r.Get("room-2")

	r.ShutdownAll()

	for _, s := range []*session.Session{s1, s2} {
		select {
		case <-s.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("session loop still running after ShutdownAll")
		}
	}
	if r.Peek("room-1") != nil || r.Peek("room-2") != nil {
		t.Error("registry not empty after ShutdownAll")
	}
}
