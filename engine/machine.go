package engine

import (
	"context"
	"time"

	"github.com/attendly/timeclock/repository/models"
)

// ClockIn opens a new session for the user's day. Fails when a session for
// the day already exists, whatever its state: completed sessions are never
// reopened here.
func (e *Engine) ClockIn(ctx context.Context, userID string, at *time.Time) (*ClockResult, *Failure) {
	ts := e.resolveTimestamp(at)
	sess, date, fail := e.loadDay(ctx, userID, ts)
	if fail != nil {
		return nil, fail
	}

	if sess != nil {
		if sess.Status == models.SessionCompleted {
			return nil, validationFailure(CodeAlreadyCompleted, "session already completed for today")
		}
		return nil, validationFailure(CodeAlreadyClockedIn, "already clocked in")
	}

	clockIn := ts
	sess = &models.WorkSession{
		ID:          sessionID(userID, date),
		UserID:      userID,
		WorkDate:    date,
		Status:      models.SessionActive,
		ClockInTime: &clockIn,
	}

	return e.commit(ctx, sess, models.EntryClockIn, ts, true)
}

// StartLunch moves an active session onto lunch.
func (e *Engine) StartLunch(ctx context.Context, userID string, at *time.Time) (*ClockResult, *Failure) {
	ts := e.resolveTimestamp(at)
	sess, _, fail := e.loadDay(ctx, userID, ts)
	if fail != nil {
		return nil, fail
	}

	switch {
	case sess == nil:
		return nil, validationFailure(CodeNoActiveSession, "no active session, clock in first")
	case sess.Status == models.SessionCompleted:
		return nil, validationFailure(CodeAlreadyCompleted, "session already completed for today")
	case sess.Status == models.SessionOnLunch:
		return nil, validationFailure(CodeOnLunch, "already on lunch")
	}
	if e.policy.SingleLunch && sess.LunchEndTime != nil {
		return nil, validationFailure(CodeLunchTaken, "lunch already taken today")
	}
	if fail := checkOrdering(sess, ts); fail != nil {
		return nil, fail
	}

	lunchStart := ts
	sess.LunchStartTime = &lunchStart
	sess.LunchEndTime = nil
	sess.Status = models.SessionOnLunch

	return e.commit(ctx, sess, models.EntryStartLunch, ts, false)
}

// ResumeShift ends the lunch break and returns the session to active,
// accumulating the break into the lunch total.
func (e *Engine) ResumeShift(ctx context.Context, userID string, at *time.Time) (*ClockResult, *Failure) {
	ts := e.resolveTimestamp(at)
	sess, _, fail := e.loadDay(ctx, userID, ts)
	if fail != nil {
		return nil, fail
	}

	switch {
	case sess == nil:
		return nil, validationFailure(CodeNoActiveSession, "no active session")
	case sess.Status == models.SessionCompleted:
		return nil, validationFailure(CodeAlreadyCompleted, "session already completed for today")
	case sess.Status != models.SessionOnLunch:
		return nil, validationFailure(CodeNotOnLunch, "not on lunch")
	}
	if fail := checkOrdering(sess, ts); fail != nil {
		return nil, fail
	}

	lunchEnd := ts
	sess.LunchEndTime = &lunchEnd
	sess.TotalLunchMinutes += minutesBetween(*sess.LunchStartTime, ts)
	sess.Status = models.SessionActive

	return e.commit(ctx, sess, models.EntryResumeShift, ts, false)
}

// ClockOut completes the session and computes the net worked minutes.
func (e *Engine) ClockOut(ctx context.Context, userID string, at *time.Time) (*ClockResult, *Failure) {
	ts := e.resolveTimestamp(at)
	sess, _, fail := e.loadDay(ctx, userID, ts)
	if fail != nil {
		return nil, fail
	}

	switch {
	case sess == nil:
		return nil, validationFailure(CodeNoActiveSession, "no active session")
	case sess.Status == models.SessionCompleted:
		return nil, validationFailure(CodeAlreadyCompleted, "session already completed for today")
	case sess.Status == models.SessionOnLunch:
		return nil, validationFailure(CodeOnLunch, "must resume from lunch before clocking out")
	}
	if fail := checkOrdering(sess, ts); fail != nil {
		return nil, fail
	}

	clockOut := ts
	sess.ClockOutTime = &clockOut
	sess.TotalWorkMinutes = workMinutes(*sess.ClockInTime, ts, sess.TotalLunchMinutes)
	sess.Status = models.SessionCompleted

	return e.commit(ctx, sess, models.EntryClockOut, ts, false)
}

// CurrentStatus reports the user's session state and button enablement. Pure
// read: calling it repeatedly without intervening clock actions returns the
// same result.
func (e *Engine) CurrentStatus(ctx context.Context, userID string) (*StatusResult, *Failure) {
	if userID == "" {
		return nil, validationFailure(CodeMissingUserID, "user id is required",
			FieldError{Field: "user_id", Message: "required"})
	}
	if _, repoErr := e.store.FindUser(ctx, userID); repoErr != nil {
		return nil, failureFromRepository(repoErr)
	}

	sess, repoErr := e.store.FindActiveSessionForUser(ctx, userID)
	if repoErr != nil {
		return nil, failureFromRepository(repoErr)
	}
	if sess == nil {
		today := e.now().Format(models.DateLayout)
		sess, repoErr = e.store.FindSessionByUserAndDate(ctx, userID, today)
		if repoErr != nil {
			return nil, failureFromRepository(repoErr)
		}
	}

	status := "clocked_out"
	if sess != nil {
		status = sess.Status
	}
	return &StatusResult{
		Status:  status,
		Session: sess,
		Buttons: DeriveButtonStates(sess, e.policy.SingleLunch),
	}, nil
}

// loadDay runs the shared prelude of every clock action: input validation,
// user lookup and the day's session read.
func (e *Engine) loadDay(ctx context.Context, userID string, ts time.Time) (*models.WorkSession, string, *Failure) {
	if userID == "" {
		return nil, "", validationFailure(CodeMissingUserID, "user id is required",
			FieldError{Field: "user_id", Message: "required"})
	}

	user, repoErr := e.store.FindUser(ctx, userID)
	if repoErr != nil {
		return nil, "", failureFromRepository(repoErr)
	}
	if !user.IsActive {
		return nil, "", validationFailure(CodeInactiveUser, "user is deactivated")
	}

	date := ts.Format(models.DateLayout)
	sess, repoErr := e.store.FindSessionByUserAndDate(ctx, userID, date)
	if repoErr != nil {
		return nil, "", failureFromRepository(repoErr)
	}
	return sess, date, nil
}

// checkOrdering rejects timestamps earlier than the previous accepted entry.
// Client-supplied time must not rewrite history.
func checkOrdering(sess *models.WorkSession, ts time.Time) *Failure {
	last := sess.LastEventTime()
	if last != nil && ts.Before(*last) {
		return validationFailure(CodeTimestampOrder,
			"timestamp precedes the previous entry for this session")
	}
	return nil
}

// commit atomically persists the transition, mirrors the entry into the audit
// journal and assembles the result.
func (e *Engine) commit(ctx context.Context, sess *models.WorkSession, entryType string, ts time.Time, newSession bool) (*ClockResult, *Failure) {
	entry := &models.TimeEntry{
		ID:        entryID(sess.UserID, entryType, ts),
		UserID:    sess.UserID,
		SessionID: sess.ID,
		EntryType: entryType,
		Timestamp: ts,
		WorkDate:  sess.WorkDate,
		Timezone:  ts.Location().String(),
		IsValid:   true,
	}

	if repoErr := e.store.RecordTransition(ctx, sess, entry, newSession); repoErr != nil {
		return nil, failureFromRepository(repoErr)
	}

	if e.audit != nil {
		if err := e.audit.Append(entry); err != nil {
			e.logger.Error("Audit journal append failed", "entry", entry.ID, "err", err)
		}
	}

	e.logger.Info("Transition accepted",
		"user", sess.UserID, "action", entryType, "session", sess.ID, "status", sess.Status)

	return &ClockResult{
		Session: sess,
		Entry:   entry,
		Buttons: DeriveButtonStates(sess, e.policy.SingleLunch),
	}, nil
}
