package memory

import (
	"context"
	"sync"
	"time"

	"github.com/themobileprof/symptomchat-be/internal/chat"
)

// DefaultHistoryLimit is the number of entries kept per session
const DefaultHistoryLimit = 50

// sessionHistory holds the recent entries of one session
type sessionHistory struct {
	entries  []chat.Entry
	lastSeen time.Time
	mu       sync.RWMutex
}

// HistoryManager keeps chat history in process memory, bounded per session
type HistoryManager struct {
	sessions map[string]*sessionHistory
	limit    int
	mu       sync.RWMutex
}

// NewHistoryManager creates a store keeping at most limit entries per session
func NewHistoryManager(limit int) *HistoryManager {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryManager{
		sessions: make(map[string]*sessionHistory),
		limit:    limit,
	}
}

// session must be called with m.mu held
func (m *HistoryManager) session(sessionID string) *sessionHistory {
	s, exists := m.sessions[sessionID]
	if !exists {
		s = &sessionHistory{entries: make([]chat.Entry, 0, m.limit), lastSeen: time.Now()}
		m.sessions[sessionID] = s
	}
	return s
}

// Append adds entries to the session, dropping the oldest beyond the limit.
// The manager lock is held throughout so a concurrent Clear or PruneIdle
// cannot detach the session mid-write.
func (m *HistoryManager) Append(_ context.Context, sessionID string, entries ...chat.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entries...)
	if len(s.entries) > m.limit {
		s.entries = append([]chat.Entry(nil), s.entries[len(s.entries)-m.limit:]...)
	}
	s.lastSeen = time.Now()
	return nil
}

// List returns a copy of the session's entries, oldest first
func (m *HistoryManager) List(_ context.Context, sessionID string) ([]chat.Entry, error) {
	m.mu.RLock()
	s, exists := m.sessions[sessionID]
	m.mu.RUnlock()
	if !exists {
		return []chat.Entry{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()
	history := make([]chat.Entry, len(s.entries))
	copy(history, s.entries)
	return history, nil
}

// Clear forgets the session
func (m *HistoryManager) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// Len returns the number of sessions held
func (m *HistoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PruneIdle drops sessions not touched within maxIdle and returns how many
// were removed.
func (m *HistoryManager) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		s.mu.RLock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.RUnlock()
		if idle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
