package app

import "sync"

// SessionManager keys one Session per user: the server-side stand-in for
// "one open chat view". Selecting a conversation or starting a new one goes
// through the session it returns.
type SessionManager struct {
	mu       sync.Mutex
	deps     SessionDeps
	sessions map[uint]*managedSession
}

type managedSession struct {
	session       *Session
	notifications *NotificationBuffer
}

func NewSessionManager(deps SessionDeps) *SessionManager {
	return &SessionManager{
		deps:     deps,
		sessions: make(map[uint]*managedSession),
	}
}

// Open returns the user's session and its notification buffer, creating
// both on first access.
func (m *SessionManager) Open(userID uint) (*Session, *NotificationBuffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.sessions[userID]; ok {
		return entry.session, entry.notifications
	}

	buffer := &NotificationBuffer{}
	deps := m.deps
	deps.Notifier = buffer

	entry := &managedSession{
		session:       NewSession(userID, deps),
		notifications: buffer,
	}
	m.sessions[userID] = entry
	return entry.session, entry.notifications
}

// Release tears the user's session down, stopping any pending delayed
// acknowledgments.
func (m *SessionManager) Release(userID uint) {
	m.mu.Lock()
	entry, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if ok {
		entry.session.Close()
	}
}
