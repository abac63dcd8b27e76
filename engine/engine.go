package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/attendly/timeclock/repository"
	"github.com/attendly/timeclock/repository/models"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// Policy holds the tunable workday rules.
type Policy struct {
	// StandardDayMinutes is the overtime threshold (480 = 8h day).
	StandardDayMinutes int
	// Workweek lists the weekdays a completed session is expected on.
	Workweek []time.Weekday
	// SingleLunch restricts sessions to one lunch break per day.
	SingleLunch bool
}

// DefaultPolicy is an 8-hour day, Monday through Friday, one lunch per day.
func DefaultPolicy() Policy {
	return Policy{
		StandardDayMinutes: 480,
		Workweek: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		SingleLunch: true,
	}
}

func (p Policy) isWorkday(d time.Weekday) bool {
	for _, w := range p.Workweek {
		if w == d {
			return true
		}
	}
	return false
}

// AuditRecorder receives every accepted entry for the tamper-evident journal.
// Journal errors never fail a clock action; the database row stays the source
// of truth.
type AuditRecorder interface {
	Append(entry *models.TimeEntry) error
}

// Engine is the time tracking engine: the state machine over clock actions,
// the session aggregation arithmetic and the statistics layer. All reads and
// writes go through the repository contract.
type Engine struct {
	store  repository.Store
	audit  AuditRecorder
	policy Policy
	logger cmtlog.Logger
	now    func() time.Time
}

// NewEngine wires the engine to its collaborators. audit may be nil.
func NewEngine(store repository.Store, audit AuditRecorder, policy Policy, logger cmtlog.Logger) *Engine {
	return &Engine{
		store:  store,
		audit:  audit,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// ClockResult is the successful outcome of a clock action.
type ClockResult struct {
	Session *models.WorkSession `json:"session"`
	Entry   *models.TimeEntry   `json:"entry"`
	Buttons ButtonStates        `json:"button_states"`
}

// StatusResult is the current-status view for one user.
type StatusResult struct {
	Status  string              `json:"status"`
	Session *models.WorkSession `json:"session,omitempty"`
	Buttons ButtonStates        `json:"button_states"`
}

// resolveTimestamp defaults an omitted timestamp to the engine clock.
func (e *Engine) resolveTimestamp(at *time.Time) time.Time {
	if at != nil {
		return *at
	}
	return e.now()
}

// sessionID derives a deterministic session id from the (user, day) key.
func sessionID(userID, date string) string {
	hash := sha256.Sum256([]byte(userID + "|" + date))
	return fmt.Sprintf("WS-%s", hex.EncodeToString(hash[:])[:16])
}

// entryID derives a deterministic entry id from the action coordinates.
func entryID(userID, entryType string, ts time.Time) string {
	hash := sha256.Sum256([]byte(userID + "|" + entryType + "|" + ts.Format(time.RFC3339Nano)))
	return fmt.Sprintf("ENT-%s", hex.EncodeToString(hash[:])[:16])
}
