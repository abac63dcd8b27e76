package repository

import (
	"context"
	"testing"
	"time"

	"github.com/attendly/timeclock/repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore() *MemoryStore {
	store := NewMemoryStore()
	store.AddUser(models.User{ID: "EMP-001", Name: "Ana", Role: "Clerk", IsActive: true})
	return store
}

func sampleSession(userID, date string) *models.WorkSession {
	in := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &models.WorkSession{
		ID:          "WS-" + userID + "-" + date,
		UserID:      userID,
		WorkDate:    date,
		Status:      models.SessionActive,
		ClockInTime: &in,
	}
}

func TestFindUserNotFound(t *testing.T) {
	store := seedStore()

	user, repoErr := store.FindUser(context.Background(), "EMP-001")
	require.Nil(t, repoErr)
	assert.Equal(t, "Ana", user.Name)

	_, repoErr = store.FindUser(context.Background(), "EMP-404")
	require.NotNil(t, repoErr)
	assert.Equal(t, ErrCodeNotFound, repoErr.Code)
}

func TestFindSessionAbsentIsNilNil(t *testing.T) {
	store := seedStore()

	sess, repoErr := store.FindSessionByUserAndDate(context.Background(), "EMP-001", "2026-03-02")
	assert.Nil(t, repoErr)
	assert.Nil(t, sess)
}

func TestCreateSessionDuplicateConflicts(t *testing.T) {
	store := seedStore()
	ctx := context.Background()

	require.Nil(t, store.CreateSession(ctx, sampleSession("EMP-001", "2026-03-02")))

	repoErr := store.CreateSession(ctx, sampleSession("EMP-001", "2026-03-02"))
	require.NotNil(t, repoErr)
	assert.Equal(t, ErrCodeConflict, repoErr.Code)
}

func TestUpdateSessionStaleVersionConflicts(t *testing.T) {
	store := seedStore()
	ctx := context.Background()

	require.Nil(t, store.CreateSession(ctx, sampleSession("EMP-001", "2026-03-02")))

	// Two readers load the same version; the second writer loses.
	first, repoErr := store.FindSessionByUserAndDate(ctx, "EMP-001", "2026-03-02")
	require.Nil(t, repoErr)
	second, repoErr := store.FindSessionByUserAndDate(ctx, "EMP-001", "2026-03-02")
	require.Nil(t, repoErr)

	first.Status = models.SessionOnLunch
	require.Nil(t, store.UpdateSession(ctx, first))

	second.Status = models.SessionCompleted
	repoErr = store.UpdateSession(ctx, second)
	require.NotNil(t, repoErr)
	assert.Equal(t, ErrCodeConflict, repoErr.Code)
}

func TestRecordTransitionIsAtomic(t *testing.T) {
	store := seedStore()
	ctx := context.Background()

	sess := sampleSession("EMP-001", "2026-03-02")
	entry := &models.TimeEntry{
		ID:        "ENT-1",
		UserID:    "EMP-001",
		SessionID: sess.ID,
		EntryType: models.EntryClockIn,
		Timestamp: *sess.ClockInTime,
		WorkDate:  sess.WorkDate,
		IsValid:   true,
	}
	require.Nil(t, store.RecordTransition(ctx, sess, entry, true))

	// A conflicting re-create must not write its entry.
	repoErr := store.RecordTransition(ctx, sampleSession("EMP-001", "2026-03-02"), &models.TimeEntry{
		ID:       "ENT-dup",
		UserID:   "EMP-001",
		WorkDate: "2026-03-02",
	}, true)
	require.NotNil(t, repoErr)
	assert.Equal(t, ErrCodeConflict, repoErr.Code)

	entries, listErr := store.ListEntries(ctx, "EMP-001", DateRange{Start: "2026-03-02", End: "2026-03-02"})
	require.Nil(t, listErr)
	require.Len(t, entries, 1)
	assert.Equal(t, "ENT-1", entries[0].ID)
}

func TestListEntriesOrderedAndRanged(t *testing.T) {
	store := seedStore()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	for i, date := range []string{"2026-03-03", "2026-03-02", "2026-03-10"} {
		store.PutEntry(models.TimeEntry{
			ID:        "ENT-" + date,
			UserID:    "EMP-001",
			EntryType: models.EntryClockIn,
			Timestamp: base.AddDate(0, 0, i),
			WorkDate:  date,
			IsValid:   true,
		})
	}

	entries, repoErr := store.ListEntries(context.Background(), "EMP-001",
		DateRange{Start: "2026-03-02", End: "2026-03-08"})
	require.Nil(t, repoErr)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Timestamp.Before(entries[1].Timestamp))
}

func TestListCompletedSessionsPreloadsEntries(t *testing.T) {
	store := seedStore()
	in := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)

	store.PutSession(models.WorkSession{
		ID:               "WS-done",
		UserID:           "EMP-001",
		WorkDate:         "2026-03-02",
		Status:           models.SessionCompleted,
		ClockInTime:      &in,
		ClockOutTime:     &out,
		TotalWorkMinutes: 480,
	})
	store.PutSession(models.WorkSession{
		ID:       "WS-open",
		UserID:   "EMP-001",
		WorkDate: "2026-03-03",
		Status:   models.SessionActive,
	})
	store.PutEntry(models.TimeEntry{
		ID: "ENT-in", UserID: "EMP-001", SessionID: "WS-done",
		EntryType: models.EntryClockIn, Timestamp: in, WorkDate: "2026-03-02", IsValid: true,
	})

	sessions, repoErr := store.ListCompletedSessions(context.Background(), "EMP-001",
		DateRange{Start: "2026-03-01", End: "2026-03-31"})
	require.Nil(t, repoErr)
	require.Len(t, sessions, 1)
	assert.Equal(t, "WS-done", sessions[0].ID)
	require.Len(t, sessions[0].Entries, 1)
	assert.Equal(t, "ENT-in", sessions[0].Entries[0].ID)
}

func TestClonesAreIsolated(t *testing.T) {
	store := seedStore()
	ctx := context.Background()

	require.Nil(t, store.CreateSession(ctx, sampleSession("EMP-001", "2026-03-02")))

	loaded, repoErr := store.FindSessionByUserAndDate(ctx, "EMP-001", "2026-03-02")
	require.Nil(t, repoErr)
	loaded.Status = models.SessionCompleted
	*loaded.ClockInTime = loaded.ClockInTime.Add(time.Hour)

	fresh, repoErr := store.FindSessionByUserAndDate(ctx, "EMP-001", "2026-03-02")
	require.Nil(t, repoErr)
	assert.Equal(t, models.SessionActive, fresh.Status)
	assert.Equal(t, 9, fresh.ClockInTime.Hour())
}
