package app

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"quiz-gateway/internal/credentials"
)

// Manager multiplexes live sessions for transports serving many viewers.
// A retake of a quiz constructs a brand-new session; terminal sessions are
// never reused.
type Manager struct {
	api   QuizAPI
	creds credentials.Store
	cfg   SessionConfig

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(api QuizAPI, creds credentials.Store, cfg SessionConfig) *Manager {
	return &Manager{
		api:      api,
		creds:    creds,
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session for quizID and registers it under a fresh id.
// A load failure is not registered; the caller gets the error directly.
func (m *Manager) Create(ctx context.Context, quizID int64) (*Session, error) {
	session := NewSession(uuid.NewString(), m.api, m.creds, quizID, m.cfg)
	if err := session.Start(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()
	return session, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Remove closes the session and forgets it.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		session.Close()
	}
}
