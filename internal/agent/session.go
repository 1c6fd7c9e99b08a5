package agent

import (
	"sync"
	"time"

	"todoassist/internal/chat"
	"todoassist/internal/tools"
)

// ConfirmState tracks where a turn stands in the confirmation handshake.
type ConfirmState int

const (
	ConfirmStateNone ConfirmState = iota
	ConfirmStateAwaiting
	ConfirmStateConfirmed
	ConfirmStateDeclined
)

// Pending is a resolved-but-unexecuted mutating action. The task
// reference was resolved once when it was created; the canonical id is
// reused on confirmation instead of listing again.
type Pending struct {
	Command   tools.Command
	TaskID    string
	TaskTitle string
	Args      tools.Args
}

// Turn records one utterance and how it was resolved.
type Turn struct {
	Utterance string
	Command   tools.Command
	TaskID    string
	Confirm   ConfirmState
	At        time.Time
}

// Session is the per-conversation context. It holds at most one pending
// confirmation at a time and is processed strictly sequentially: the
// policy locks it for the whole utterance including any store call.
type Session struct {
	ID      string
	OwnerID string

	mu        sync.Mutex
	pending   *Pending
	confirmed map[string]struct{}
	turns     []Turn
	history   []chat.Message
	lastSeen  time.Time
}

func NewSession(id, ownerID string) *Session {
	return &Session{
		ID:        id,
		OwnerID:   ownerID,
		confirmed: make(map[string]struct{}),
		lastSeen:  time.Now(),
	}
}

func pairKey(cmd tools.Command, taskID string) string {
	return cmd.String() + "|" + taskID
}

// The helpers below assume the session mutex is held by the policy.

func (s *Session) setPending(p *Pending) { s.pending = p }
func (s *Session) takePending() *Pending { p := s.pending; s.pending = nil; return p }
func (s *Session) hasPending() bool      { return s.pending != nil }

func (s *Session) markConfirmed(cmd tools.Command, taskID string) {
	s.confirmed[pairKey(cmd, taskID)] = struct{}{}
}

func (s *Session) alreadyConfirmed(cmd tools.Command, taskID string) bool {
	_, ok := s.confirmed[pairKey(cmd, taskID)]
	return ok
}

func (s *Session) recordTurn(t Turn) {
	t.At = time.Now()
	s.turns = append(s.turns, t)
	s.lastSeen = t.At
}

// Turns returns a copy of the recorded turns. Callers must not hold the
// session lock.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) appendHistory(msgs ...chat.Message) {
	s.history = append(s.history, msgs...)
}

// SeedHistory replaces the in-memory transcript, used when a conversation
// is resumed from storage.
func (s *Session) SeedHistory(msgs []chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]chat.Message(nil), msgs...)
}

// SessionManager owns the live sessions of the surrounding service.
// Sessions are independent; only the map itself is shared.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxIdle  time.Duration
}

func NewSessionManager(maxIdle time.Duration) *SessionManager {
	if maxIdle <= 0 {
		maxIdle = 30 * time.Minute
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		maxIdle:  maxIdle,
	}
}

// GetOrCreate returns the live session for a conversation, creating it on
// first sight. A session belongs to exactly one owner.
func (m *SessionManager) GetOrCreate(conversationID, ownerID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[conversationID]; ok && s.OwnerID == ownerID {
		return s, false
	}
	s := NewSession(conversationID, ownerID)
	m.sessions[conversationID] = s
	return s, true
}

// Sweep drops sessions idle longer than maxIdle. Run it periodically from
// the surrounding service.
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-m.maxIdle)
	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		stale := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
