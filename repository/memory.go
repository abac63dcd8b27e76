package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/attendly/timeclock/repository/models"
)

// MemoryStore is an in-process Store implementation. It backs the test
// suites and doubles as a storage backend for local development without
// Postgres. Semantics mirror PostgresStore: duplicate (user, date) inserts
// and stale-version updates surface as CONFLICT.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]models.User
	sessions map[string]models.WorkSession // keyed userID|workDate
	entries  []models.TimeEntry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		sessions: make(map[string]models.WorkSession),
	}
}

// AddUser registers an employee row.
func (m *MemoryStore) AddUser(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

// PutSession stores a session as-is, bypassing version checks. Test setup
// helper.
func (m *MemoryStore) PutSession(session models.WorkSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey(session.UserID, session.WorkDate)] = cloneSession(&session)
}

// PutEntry stores an entry as-is. Test setup helper.
func (m *MemoryStore) PutEntry(entry models.TimeEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func sessionKey(userID, date string) string {
	return userID + "|" + date
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneSession(s *models.WorkSession) models.WorkSession {
	cp := *s
	cp.ClockInTime = cloneTimePtr(s.ClockInTime)
	cp.ClockOutTime = cloneTimePtr(s.ClockOutTime)
	cp.LunchStartTime = cloneTimePtr(s.LunchStartTime)
	cp.LunchEndTime = cloneTimePtr(s.LunchEndTime)
	cp.Entries = nil
	return cp
}

func (m *MemoryStore) FindUser(_ context.Context, userID string) (*models.User, *RepositoryError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return nil, &RepositoryError{
			Code:    ErrCodeNotFound,
			Message: "User does not exist",
			Detail:  "no user with id " + userID,
		}
	}
	return &user, nil
}

func (m *MemoryStore) FindSessionByUserAndDate(_ context.Context, userID, date string) (*models.WorkSession, *RepositoryError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionKey(userID, date)]
	if !ok {
		return nil, nil
	}
	out := cloneSession(&sess)
	return &out, nil
}

func (m *MemoryStore) FindActiveSessionForUser(_ context.Context, userID string) (*models.WorkSession, *RepositoryError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.WorkSession
	for key := range m.sessions {
		sess := m.sessions[key]
		if sess.UserID != userID || sess.Status == models.SessionCompleted {
			continue
		}
		if latest == nil || sess.WorkDate > latest.WorkDate {
			out := cloneSession(&sess)
			latest = &out
		}
	}
	return latest, nil
}

func (m *MemoryStore) CreateSession(_ context.Context, session *models.WorkSession) *RepositoryError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createSessionLocked(session)
}

func (m *MemoryStore) createSessionLocked(session *models.WorkSession) *RepositoryError {
	key := sessionKey(session.UserID, session.WorkDate)
	if _, exists := m.sessions[key]; exists {
		return &RepositoryError{
			Code:    ErrCodeConflict,
			Message: "Concurrent write detected",
			Detail:  "session already exists for " + key,
		}
	}
	m.sessions[key] = cloneSession(session)
	return nil
}

func (m *MemoryStore) UpdateSession(_ context.Context, session *models.WorkSession) *RepositoryError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateSessionLocked(session)
}

func (m *MemoryStore) updateSessionLocked(session *models.WorkSession) *RepositoryError {
	key := sessionKey(session.UserID, session.WorkDate)
	current, exists := m.sessions[key]
	if !exists {
		return &RepositoryError{
			Code:    ErrCodeNotFound,
			Message: "Session does not exist",
			Detail:  "no session for " + key,
		}
	}
	if current.Version != session.Version {
		return &RepositoryError{
			Code:    ErrCodeConflict,
			Message: "Session was modified concurrently",
			Detail:  "optimistic version check failed for session " + session.ID,
		}
	}
	session.Version++
	m.sessions[key] = cloneSession(session)
	return nil
}

func (m *MemoryStore) CreateEntry(_ context.Context, entry *models.TimeEntry) *RepositoryError {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *MemoryStore) RecordTransition(_ context.Context, session *models.WorkSession, entry *models.TimeEntry, newSession bool) *RepositoryError {
	m.mu.Lock()
	defer m.mu.Unlock()

	var repoErr *RepositoryError
	if newSession {
		repoErr = m.createSessionLocked(session)
	} else {
		repoErr = m.updateSessionLocked(session)
	}
	if repoErr != nil {
		return repoErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *MemoryStore) ListEntries(_ context.Context, userID string, rng DateRange) ([]models.TimeEntry, *RepositoryError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TimeEntry
	for _, entry := range m.entries {
		if entry.UserID == userID && entry.WorkDate >= rng.Start && entry.WorkDate <= rng.End {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (m *MemoryStore) ListCompletedSessions(_ context.Context, userID string, rng DateRange) ([]models.WorkSession, *RepositoryError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WorkSession
	for key := range m.sessions {
		sess := m.sessions[key]
		if sess.UserID != userID || sess.Status != models.SessionCompleted {
			continue
		}
		if sess.WorkDate < rng.Start || sess.WorkDate > rng.End {
			continue
		}
		cp := cloneSession(&sess)
		for _, entry := range m.entries {
			if entry.SessionID == sess.ID {
				cp.Entries = append(cp.Entries, entry)
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WorkDate < out[j].WorkDate
	})
	return out, nil
}
