package store

import (
	"os"
	"sort"
	"strings"
)

// title derives the session title from the first user message: the first
// 50 characters plus an ellipsis if truncated. Title is set exactly once.
func title(content string) string {
	content = strings.TrimSpace(content)
	const max = 50
	r := []rune(content)
	if len(r) <= max {
		return content
	}
	return string(r[:max]) + "..."
}

// SaveMessage appends a message to the session's transcript, creating the
// session on first call, setting its title on the first user message, and
// touching updated_at. messages are strictly append-only.
func (s *Store) SaveMessage(sessionID string, role Role, content string) (*Message, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.readSessionLocked(sessionID)
	if err != nil {
		return nil, err
	}
	ts := now()
	if session == nil {
		session = &Session{
			ID:        sessionID,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
	}

	msg := &Message{
		ID:        newMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}
	if session.Title == "" && role == RoleUser {
		session.Title = title(content)
	}
	session.Messages = append(session.Messages, msg)
	if ts.After(session.UpdatedAt) || session.UpdatedAt.IsZero() {
		session.UpdatedAt = ts
	}

	if err := WriteJSONAtomic(s.sessionPath(sessionID), session, 0o644); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Store) readSessionLocked(sessionID string) (*Session, error) {
	var session Session
	ok, err := ReadJSON(s.sessionPath(sessionID), &session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &session, nil
}

// GetSession returns the session, or ErrNotFound if unknown. An invalid
// (non-UUID) session id is treated as not-found on this read path rather
// than raising a validation error, since a lookup miss is the caller-visible
// outcome either way.
func (s *Store) GetSession(sessionID string) (*Session, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, ErrNotFound
	}
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.readSessionLocked(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	return session, nil
}

// ListSessions returns up to limit session summaries sorted by updated_at
// descending. limit <= 0 means unlimited.
func (s *Store) ListSessions(limit int) ([]*SessionSummary, error) {
	entries, err := os.ReadDir(sessionsDirOf(s))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []*SessionSummary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasSuffix(e.Name(), "_cost.json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		session, err := s.GetSession(id)
		if err != nil {
			continue
		}
		out = append(out, &SessionSummary{
			ID:           session.ID,
			Title:        session.Title,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
			MessageCount: len(session.Messages),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteSession removes a session's transcript and cost file. Returns false
// if the session did not exist.
func (s *Store) DeleteSession(sessionID string) (bool, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return false, nil
	}
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	path := s.sessionPath(sessionID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, err
	}
	_ = os.Remove(s.sessionCostPath(sessionID)) // best-effort; absence is fine
	return true, nil
}

func sessionsDirOf(s *Store) string {
	return s.dataDir + string(os.PathSeparator) + "sessions"
}
