package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/attendly/timeclock/repository"
	"github.com/attendly/timeclock/repository/models"
)

// PeriodStats aggregates completed sessions over an inclusive date range.
type PeriodStats struct {
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	TotalDays       int     `json:"total_days"`
	TotalMinutes    int     `json:"total_minutes"`
	TotalHours      float64 `json:"total_hours"`
	OvertimeMinutes int     `json:"overtime_minutes"`
	OvertimeHours   float64 `json:"overtime_hours"`
}

// DashboardStats is the combined view for the user dashboard: the current
// week and month, averaged habits and the month's compliance score.
type DashboardStats struct {
	Week                PeriodStats `json:"week_stats"`
	Month               PeriodStats `json:"month_stats"`
	AverageEntryTime    string      `json:"average_entry_time"`
	AverageExitTime     string      `json:"average_exit_time"`
	AverageLunchMinutes float64     `json:"average_lunch_duration"`
	ComplianceScore     int         `json:"compliance_score"`
}

// WeeklyStats aggregates the ISO week (Monday through Sunday) containing
// weekOf, defaulting to the current week.
func (e *Engine) WeeklyStats(ctx context.Context, userID string, weekOf *time.Time) (*PeriodStats, *Failure) {
	start, end := weekRange(e.resolveTimestamp(weekOf))
	stats, _, fail := e.statsForRange(ctx, userID, start, end)
	if fail != nil {
		return nil, fail
	}
	return stats, nil
}

// MonthlyStats aggregates the calendar month containing monthOf, defaulting
// to the current month.
func (e *Engine) MonthlyStats(ctx context.Context, userID string, monthOf *time.Time) (*PeriodStats, *Failure) {
	start, end := monthRange(e.resolveTimestamp(monthOf))
	stats, _, fail := e.statsForRange(ctx, userID, start, end)
	if fail != nil {
		return nil, fail
	}
	return stats, nil
}

// DashboardStats assembles the week and month aggregates plus averages and
// the compliance score for the month so far.
func (e *Engine) DashboardStats(ctx context.Context, userID string) (*DashboardStats, *Failure) {
	now := e.now()

	weekStart, weekEnd := weekRange(now)
	week, _, fail := e.statsForRange(ctx, userID, weekStart, weekEnd)
	if fail != nil {
		return nil, fail
	}

	monthStart, monthEnd := monthRange(now)
	month, sessions, fail := e.statsForRange(ctx, userID, monthStart, monthEnd)
	if fail != nil {
		return nil, fail
	}

	avgEntry, avgExit := averageClockTimes(sessions)
	return &DashboardStats{
		Week:                *week,
		Month:               *month,
		AverageEntryTime:    avgEntry,
		AverageExitTime:     avgExit,
		AverageLunchMinutes: averageLunchMinutes(sessions),
		ComplianceScore:     e.scoreSessions(sessions, monthStart, monthEnd),
	}, nil
}

// ComplianceScore computes the attendance compliance percentage over an
// inclusive date range. The range must be strictly increasing.
func (e *Engine) ComplianceScore(ctx context.Context, userID string, start, end time.Time) (int, *Failure) {
	if !start.Before(end) {
		return 0, validationFailure(CodeInvalidDateRange, "start date must be before end date",
			FieldError{Field: "start_date", Message: "must precede end_date"})
	}
	start, end = dateOnly(start), dateOnly(end)

	sessions, fail := e.completedSessions(ctx, userID, start, end)
	if fail != nil {
		return 0, fail
	}
	return e.scoreSessions(sessions, start, end), nil
}

// statsForRange loads the completed sessions and folds them into a
// PeriodStats. An empty range yields zero aggregates, not an error.
func (e *Engine) statsForRange(ctx context.Context, userID string, start, end time.Time) (*PeriodStats, []models.WorkSession, *Failure) {
	sessions, fail := e.completedSessions(ctx, userID, start, end)
	if fail != nil {
		return nil, nil, fail
	}

	stats := &PeriodStats{
		StartDate: start.Format(models.DateLayout),
		EndDate:   end.Format(models.DateLayout),
	}
	for _, s := range sessions {
		stats.TotalDays++
		stats.TotalMinutes += s.TotalWorkMinutes
		stats.OvertimeMinutes += overtimeMinutes(s.TotalWorkMinutes, e.policy.StandardDayMinutes)
	}
	stats.TotalHours = roundHours(stats.TotalMinutes)
	stats.OvertimeHours = roundHours(stats.OvertimeMinutes)
	return stats, sessions, nil
}

func (e *Engine) completedSessions(ctx context.Context, userID string, start, end time.Time) ([]models.WorkSession, *Failure) {
	if userID == "" {
		return nil, validationFailure(CodeMissingUserID, "user id is required",
			FieldError{Field: "user_id", Message: "required"})
	}
	if _, repoErr := e.store.FindUser(ctx, userID); repoErr != nil {
		return nil, failureFromRepository(repoErr)
	}

	rng := repository.DateRange{
		Start: start.Format(models.DateLayout),
		End:   end.Format(models.DateLayout),
	}
	sessions, repoErr := e.store.ListCompletedSessions(ctx, userID, rng)
	if repoErr != nil {
		return nil, failureFromRepository(repoErr)
	}
	return sessions, nil
}

// scoreSessions implements the compliance formula: the fraction of expected
// workweek days in range covered by a well-formed completed session, as a
// percentage. No sessions at all scores 0; a range containing no workweek
// days but at least one session scores 100. The score never increases when
// days go missing or entries are flagged invalid.
func (e *Engine) scoreSessions(sessions []models.WorkSession, start, end time.Time) int {
	if len(sessions) == 0 {
		return 0
	}

	expected := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if e.policy.isWorkday(d.Weekday()) {
			expected++
		}
	}
	if expected == 0 {
		return 100
	}

	met := make(map[string]bool, len(sessions))
	for i := range sessions {
		if wellFormed(&sessions[i]) {
			met[sessions[i].WorkDate] = true
		}
	}

	metDays := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if e.policy.isWorkday(d.Weekday()) && met[d.Format(models.DateLayout)] {
			metDays++
		}
	}

	score := int(math.Round(100 * float64(metDays) / float64(expected)))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// wellFormed reports whether a completed session counts toward compliance:
// both boundary timestamps present and no entry flagged invalid.
func wellFormed(s *models.WorkSession) bool {
	if s.Status != models.SessionCompleted || s.ClockInTime == nil || s.ClockOutTime == nil {
		return false
	}
	for i := range s.Entries {
		if !s.Entries[i].IsValid {
			return false
		}
	}
	return true
}

// averageClockTimes returns the mean clock-in and clock-out time of day as
// "HH:MM". Empty strings when no session carries the timestamp.
func averageClockTimes(sessions []models.WorkSession) (string, string) {
	var entry, exit []time.Time
	for _, s := range sessions {
		if s.ClockInTime != nil {
			entry = append(entry, *s.ClockInTime)
		}
		if s.ClockOutTime != nil {
			exit = append(exit, *s.ClockOutTime)
		}
	}
	return averageTimeOfDay(entry), averageTimeOfDay(exit)
}

func averageTimeOfDay(times []time.Time) string {
	if len(times) == 0 {
		return ""
	}
	total := 0
	for _, t := range times {
		total += t.Hour()*60 + t.Minute()
	}
	mean := total / len(times)
	return fmt.Sprintf("%02d:%02d", mean/60, mean%60)
}

// averageLunchMinutes is the mean lunch duration across sessions that took
// lunch.
func averageLunchMinutes(sessions []models.WorkSession) float64 {
	total, count := 0, 0
	for _, s := range sessions {
		if s.LunchEndTime != nil {
			total += s.TotalLunchMinutes
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(count)*100) / 100
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekRange returns the Monday and Sunday of the week containing of.
func weekRange(of time.Time) (time.Time, time.Time) {
	d := dateOnly(of)
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	start := d.AddDate(0, 0, -(wd - 1))
	return start, start.AddDate(0, 0, 6)
}

// monthRange returns the first and last day of the month containing of.
func monthRange(of time.Time) (time.Time, time.Time) {
	start := time.Date(of.Year(), of.Month(), 1, 0, 0, 0, 0, of.Location())
	return start, start.AddDate(0, 1, -1)
}
