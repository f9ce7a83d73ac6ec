package session

import (
	"log/slog"
	"sync"
	"time"
)

// RegistryConfig holds the dependencies a Registry injects into every
// session it creates.
type RegistryConfig struct {
	// NewDialer builds the SinkDialer for a room. Called once per session.
	NewDialer func(roomID string) SinkDialer

	Notifier Notifier

	// IdleTimeout is passed through to each session; zero means the default.
	IdleTimeout time.Duration
}

// Registry maps room IDs to their sessions. It is the single owner of
// session lifetime: entries are created lazily on Get and removed on Remove,
// ShutdownAll, or a session's own idle timeout. At most one session exists
// per room at a time.
type Registry struct {
	cfg RegistryConfig

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Get returns the room's session, creating and starting one if absent.
// Concurrent calls for the same room observe the same instance.
func (r *Registry) Get(roomID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[roomID]; ok {
		return s
	}

	var s *Session
	s = New(Config{
		RoomID:      roomID,
		Dialer:      r.cfg.NewDialer(roomID),
		Notifier:    r.cfg.Notifier,
		IdleTimeout: r.cfg.IdleTimeout,
		OnIdle:      func() { r.evict(roomID, s) },
	})
	r.sessions[roomID] = s
	s.Start()

	slog.Debug("session created", "roomID", roomID)
	return s
}

// Peek returns the room's session without creating one.
func (r *Registry) Peek(roomID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[roomID]
}

// Remove tears down the room's session and drops it from the registry.
// No-op when the room has no session.
func (r *Registry) Remove(roomID string) {
	r.mu.Lock()
	s := r.sessions[roomID]
	delete(r.sessions, roomID)
	r.mu.Unlock()

	if s != nil {
		s.Leave()
	}
}

// evict drops the entry for roomID if it still maps to s. Called by a
// session tearing itself down on idle timeout; the session has already
// stopped, so there is nothing to leave.
func (r *Registry) evict(roomID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[roomID] == s {
		delete(r.sessions, roomID)
	}
}

// ShutdownAll tears down every session. Called on process shutdown.
func (r *Registry) ShutdownAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.Leave()
	}
}
