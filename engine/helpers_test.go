package engine

import (
	"context"
	"time"

	"github.com/attendly/timeclock/repository"
	"github.com/attendly/timeclock/repository/models"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// Monday used as the reference day across the tests.
var testDay = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func newTestStore(userIDs ...string) *repository.MemoryStore {
	store := repository.NewMemoryStore()
	for _, id := range userIDs {
		store.AddUser(models.User{ID: id, Name: id, Role: "Clerk", IsActive: true})
	}
	return store
}

func newTestEngine(store repository.Store) *Engine {
	eng := NewEngine(store, nil, DefaultPolicy(), cmtlog.NewNopLogger())
	eng.now = func() time.Time { return testDay.Add(9 * time.Hour) }
	return eng
}

// at returns a pointer to hh:mm on the reference day.
func at(hour, minute int) *time.Time {
	ts := testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &ts
}

// onDay returns a pointer to hh:mm on an arbitrary day.
func onDay(day time.Time, hour, minute int) *time.Time {
	ts := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &ts
}

// completedSession builds a finished session with valid boundary entries for
// the statistics tests.
func completedSession(store *repository.MemoryStore, userID string, day time.Time, inHour, inMin, outHour, outMin, lunchMinutes int) models.WorkSession {
	date := day.Format(models.DateLayout)
	clockIn := *onDay(day, inHour, inMin)
	clockOut := *onDay(day, outHour, outMin)

	sess := models.WorkSession{
		ID:                sessionID(userID, date),
		UserID:            userID,
		WorkDate:          date,
		Status:            models.SessionCompleted,
		ClockInTime:       &clockIn,
		ClockOutTime:      &clockOut,
		TotalLunchMinutes: lunchMinutes,
		TotalWorkMinutes:  workMinutes(clockIn, clockOut, lunchMinutes),
	}
	if lunchMinutes > 0 {
		lunchStart := clockIn.Add(3 * time.Hour)
		lunchEnd := lunchStart.Add(time.Duration(lunchMinutes) * time.Minute)
		sess.LunchStartTime = &lunchStart
		sess.LunchEndTime = &lunchEnd
	}
	store.PutSession(sess)

	for _, boundary := range []struct {
		entryType string
		ts        time.Time
	}{
		{models.EntryClockIn, clockIn},
		{models.EntryClockOut, clockOut},
	} {
		store.PutEntry(models.TimeEntry{
			ID:        entryID(userID, boundary.entryType, boundary.ts),
			UserID:    userID,
			SessionID: sess.ID,
			EntryType: boundary.entryType,
			Timestamp: boundary.ts,
			WorkDate:  date,
			Timezone:  "UTC",
			IsValid:   true,
		})
	}
	return sess
}

// failingStore wraps a Store and fails the next RecordTransition with the
// given error.
type failingStore struct {
	repository.Store
	nextErr *repository.RepositoryError
}

func (f *failingStore) RecordTransition(ctx context.Context, session *models.WorkSession, entry *models.TimeEntry, newSession bool) *repository.RepositoryError {
	if f.nextErr != nil {
		err := f.nextErr
		f.nextErr = nil
		return err
	}
	return f.Store.RecordTransition(ctx, session, entry, newSession)
}
