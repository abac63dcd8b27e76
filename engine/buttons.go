package engine

import "github.com/attendly/timeclock/repository/models"

// Button disable reasons shown to the client
const (
	ReasonNoActiveSession = "no active session"
	ReasonAlreadyClocked  = "already clocked in"
	ReasonOnLunch         = "currently on lunch"
	ReasonNotOnLunch      = "not on lunch"
	ReasonLunchTaken      = "lunch already taken today"
)

// ButtonState is the enablement of one clock action.
type ButtonState struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

// ButtonStates is the derived, never-persisted view of which clock actions
// the client may offer next. Computed fresh from the session on every query.
type ButtonStates struct {
	ClockIn     ButtonState `json:"clock_in"`
	ClockOut    ButtonState `json:"clock_out"`
	StartLunch  ButtonState `json:"start_lunch"`
	ResumeShift ButtonState `json:"resume_shift"`
}

func enabled() ButtonState {
	return ButtonState{Enabled: true}
}

func disabled(reason string) ButtonState {
	return ButtonState{Enabled: false, Reason: reason}
}

// DeriveButtonStates is a pure function of the session's status. A nil or
// completed session offers only clock-in (the next session starts a new day).
func DeriveButtonStates(session *models.WorkSession, singleLunch bool) ButtonStates {
	if session == nil || session.Status == models.SessionCompleted {
		return ButtonStates{
			ClockIn:     enabled(),
			ClockOut:    disabled(ReasonNoActiveSession),
			StartLunch:  disabled(ReasonNoActiveSession),
			ResumeShift: disabled(ReasonNoActiveSession),
		}
	}

	switch session.Status {
	case models.SessionOnLunch:
		return ButtonStates{
			ClockIn:     disabled(ReasonOnLunch),
			ClockOut:    disabled(ReasonOnLunch),
			StartLunch:  disabled(ReasonOnLunch),
			ResumeShift: enabled(),
		}
	default: // active
		startLunch := enabled()
		if singleLunch && session.LunchEndTime != nil {
			startLunch = disabled(ReasonLunchTaken)
		}
		return ButtonStates{
			ClockIn:     disabled(ReasonAlreadyClocked),
			ClockOut:    enabled(),
			StartLunch:  startLunch,
			ResumeShift: disabled(ReasonNotOnLunch),
		}
	}
}
