package repository

import (
	"context"
	"fmt"

	"github.com/attendly/timeclock/repository/models"
)

// PostgreSQL error codes as constants
const (
	// Class 23 — Integrity Constraint Violation
	PgErrForeignKeyViolation = "23503" // foreign_key_violation
	PgErrUniqueViolation     = "23505" // unique_violation
	PgErrCheckViolation      = "23514" // check_violation
	PgErrNotNullViolation    = "23502" // not_null_violation

	// Class 08 — Connection Exception
	PgErrConnectionException = "08000" // connection_exception
	PgErrConnectionFailure   = "08006" // connection_failure

	// Class 40 — Transaction Rollback
	PgErrTransactionRollback = "40000" // transaction_rollback
	PgErrSerializationFail   = "40001" // serialization_failure
)

// Repository error codes
const (
	ErrCodeNotFound = "ENTITY_NOT_FOUND"
	ErrCodeConflict = "CONFLICT"
	ErrCodeDatabase = "DATABASE_ERROR"
	ErrCodeCanceled = "CONTEXT_CANCELED"
)

// RepositoryError represents an error in the repository layer
type RepositoryError struct {
	Code    string
	Message string
	Detail  string
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
}

// DateRange is an inclusive calendar-day range, both ends in models.DateLayout.
type DateRange struct {
	Start string
	End   string
}

// Store is the persistence contract consumed by the engine. The engine never
// issues raw storage queries; any backend satisfying this interface can be
// substituted without touching state-machine logic.
type Store interface {
	// FindUser returns the employee row, or ENTITY_NOT_FOUND.
	FindUser(ctx context.Context, userID string) (*models.User, *RepositoryError)

	// FindSessionByUserAndDate returns the session for the given day, or
	// (nil, nil) when the user has none.
	FindSessionByUserAndDate(ctx context.Context, userID, date string) (*models.WorkSession, *RepositoryError)

	// FindActiveSessionForUser returns the user's non-completed session
	// regardless of date, or (nil, nil).
	FindActiveSessionForUser(ctx context.Context, userID string) (*models.WorkSession, *RepositoryError)

	// CreateSession inserts a new session row. A duplicate (user_id,
	// work_date) surfaces as CONFLICT.
	CreateSession(ctx context.Context, session *models.WorkSession) *RepositoryError

	// UpdateSession writes the session guarded by its optimistic version;
	// a stale version surfaces as CONFLICT.
	UpdateSession(ctx context.Context, session *models.WorkSession) *RepositoryError

	// CreateEntry appends one immutable audit entry.
	CreateEntry(ctx context.Context, entry *models.TimeEntry) *RepositoryError

	// RecordTransition persists the session (created when newSession, updated
	// otherwise) and the entry as a single atomic unit. Either both land or
	// neither does; races on the same (user_id, work_date) key surface as
	// CONFLICT.
	RecordTransition(ctx context.Context, session *models.WorkSession, entry *models.TimeEntry, newSession bool) *RepositoryError

	// ListEntries returns the user's entries within the range ordered by
	// timestamp.
	ListEntries(ctx context.Context, userID string, r DateRange) ([]models.TimeEntry, *RepositoryError)

	// ListCompletedSessions returns the user's completed sessions within the
	// range ordered by work date, entries preloaded.
	ListCompletedSessions(ctx context.Context, userID string, r DateRange) ([]models.WorkSession, *RepositoryError)
}
