package engine

import (
	"fmt"

	"github.com/attendly/timeclock/repository"
)

// FailureKind classifies an engine failure for the call boundary.
type FailureKind string

const (
	// FailureValidation covers illegal transitions, out-of-order timestamps
	// and malformed input. Expected under normal operation (double submits,
	// stale clients) and never escalated.
	FailureValidation FailureKind = "validation"
	// FailureNotFound means a referenced user or session does not exist.
	FailureNotFound FailureKind = "not_found"
	// FailureConflict means a concurrent write raced on the same
	// (user, date) key; the caller may resubmit.
	FailureConflict FailureKind = "conflict"
	// FailureStorage means a repository call errored or timed out.
	FailureStorage FailureKind = "storage"
)

// Machine-readable failure codes
const (
	CodeAlreadyClockedIn = "already_clocked_in"
	CodeAlreadyCompleted = "session_completed_today"
	CodeNoActiveSession  = "no_active_session"
	CodeOnLunch          = "currently_on_lunch"
	CodeNotOnLunch       = "not_on_lunch"
	CodeLunchTaken       = "lunch_already_taken"
	CodeTimestampOrder   = "timestamp_out_of_order"
	CodeMissingUserID    = "missing_user_id"
	CodeInvalidDateRange = "invalid_date_range"
	CodeConcurrentWrite  = "concurrent_write"
	CodeStorageFailure   = "storage_failure"
	CodeUserNotFound     = "user_not_found"
	CodeInactiveUser     = "inactive_user"
	CodeInvalidTimestamp = "invalid_timestamp"
)

// FieldError is a field-level validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Failure is the structured result of a rejected engine call.
type Failure struct {
	Kind    FailureKind  `json:"kind"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Detail  string       `json:"detail,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s/%s: %s", f.Kind, f.Code, f.Message)
}

// Retryable reports whether the caller may simply resubmit the same call.
func (f *Failure) Retryable() bool {
	return f.Kind == FailureConflict
}

func validationFailure(code, message string, fields ...FieldError) *Failure {
	return &Failure{Kind: FailureValidation, Code: code, Message: message, Fields: fields}
}

func notFoundFailure(code, message string) *Failure {
	return &Failure{Kind: FailureNotFound, Code: code, Message: message}
}

// failureFromRepository translates a repository error into the engine's
// taxonomy.
func failureFromRepository(repoErr *repository.RepositoryError) *Failure {
	switch repoErr.Code {
	case repository.ErrCodeConflict:
		return &Failure{
			Kind:    FailureConflict,
			Code:    CodeConcurrentWrite,
			Message: "Concurrent update detected, please retry",
			Detail:  repoErr.Detail,
		}
	case repository.ErrCodeNotFound:
		return &Failure{
			Kind:    FailureNotFound,
			Code:    CodeUserNotFound,
			Message: repoErr.Message,
			Detail:  repoErr.Detail,
		}
	default:
		return &Failure{
			Kind:    FailureStorage,
			Code:    CodeStorageFailure,
			Message: repoErr.Message,
			Detail:  repoErr.Detail,
		}
	}
}
