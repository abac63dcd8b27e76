package engine

import (
	"context"
	"testing"
	"time"

	"github.com/attendly/timeclock/repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklyStats(t *testing.T) {
	store := newTestStore("EMP-001")
	// Monday through Wednesday, 09:00 to 18:00 with a 30 minute lunch.
	for offset := 0; offset < 3; offset++ {
		completedSession(store, "EMP-001", testDay.AddDate(0, 0, offset), 9, 0, 18, 0, 30)
	}
	eng := newTestEngine(store)

	stats, fail := eng.WeeklyStats(context.Background(), "EMP-001", nil)
	require.Nil(t, fail)
	assert.Equal(t, "2026-03-02", stats.StartDate)
	assert.Equal(t, "2026-03-08", stats.EndDate)
	assert.Equal(t, 3, stats.TotalDays)
	assert.Equal(t, 1530, stats.TotalMinutes)
	assert.Equal(t, 25.5, stats.TotalHours)
	assert.Equal(t, 90, stats.OvertimeMinutes)
	assert.Equal(t, 1.5, stats.OvertimeHours)
}

func TestWeeklyStatsEmptyRange(t *testing.T) {
	store := newTestStore("EMP-001")
	eng := newTestEngine(store)

	stats, fail := eng.WeeklyStats(context.Background(), "EMP-001", nil)
	require.Nil(t, fail)
	assert.Equal(t, 0, stats.TotalDays)
	assert.Equal(t, 0, stats.TotalMinutes)
	assert.Equal(t, 0.0, stats.TotalHours)
	assert.Equal(t, 0, stats.OvertimeMinutes)
}

func TestWeeklyStatsExplicitWeek(t *testing.T) {
	store := newTestStore("EMP-001")
	priorMonday := testDay.AddDate(0, 0, -7)
	completedSession(store, "EMP-001", priorMonday, 9, 0, 17, 0, 0)
	eng := newTestEngine(store)

	// Any day inside the prior week selects it.
	stats, fail := eng.WeeklyStats(context.Background(), "EMP-001", onDay(priorMonday, 15, 0))
	require.Nil(t, fail)
	assert.Equal(t, "2026-02-23", stats.StartDate)
	assert.Equal(t, "2026-03-01", stats.EndDate)
	assert.Equal(t, 1, stats.TotalDays)
	assert.Equal(t, 480, stats.TotalMinutes)
}

func TestMonthlyStatsExcludesNeighborMonths(t *testing.T) {
	store := newTestStore("EMP-001")
	completedSession(store, "EMP-001", testDay, 9, 0, 17, 0, 0)
	completedSession(store, "EMP-001", testDay.AddDate(0, 0, 14), 9, 0, 17, 0, 0)
	// February session must not leak into the March aggregate.
	completedSession(store, "EMP-001", testDay.AddDate(0, 0, -7), 9, 0, 17, 0, 0)
	eng := newTestEngine(store)

	stats, fail := eng.MonthlyStats(context.Background(), "EMP-001", nil)
	require.Nil(t, fail)
	assert.Equal(t, "2026-03-01", stats.StartDate)
	assert.Equal(t, "2026-03-31", stats.EndDate)
	assert.Equal(t, 2, stats.TotalDays)
	assert.Equal(t, 960, stats.TotalMinutes)
}

func TestStatsUnknownUser(t *testing.T) {
	eng := newTestEngine(newTestStore())

	_, fail := eng.WeeklyStats(context.Background(), "EMP-404", nil)
	require.NotNil(t, fail)
	assert.Equal(t, FailureNotFound, fail.Kind)
}

func TestStatsMissingUserID(t *testing.T) {
	eng := newTestEngine(newTestStore())

	_, fail := eng.MonthlyStats(context.Background(), "", nil)
	require.NotNil(t, fail)
	assert.Equal(t, FailureValidation, fail.Kind)
	assert.Equal(t, CodeMissingUserID, fail.Code)
}

func TestComplianceScoreFullWeek(t *testing.T) {
	store := newTestStore("EMP-001")
	for offset := 0; offset < 5; offset++ {
		completedSession(store, "EMP-001", testDay.AddDate(0, 0, offset), 9, 0, 17, 30, 30)
	}
	eng := newTestEngine(store)

	score, fail := eng.ComplianceScore(context.Background(), "EMP-001", testDay, testDay.AddDate(0, 0, 6))
	require.Nil(t, fail)
	assert.Equal(t, 100, score)
}

func TestComplianceScorePartialWeek(t *testing.T) {
	store := newTestStore("EMP-001")
	for offset := 0; offset < 3; offset++ {
		completedSession(store, "EMP-001", testDay.AddDate(0, 0, offset), 9, 0, 17, 30, 30)
	}
	eng := newTestEngine(store)

	score, fail := eng.ComplianceScore(context.Background(), "EMP-001", testDay, testDay.AddDate(0, 0, 6))
	require.Nil(t, fail)
	assert.Equal(t, 60, score)
}

func TestComplianceScoreIgnoresFlaggedDays(t *testing.T) {
	store := newTestStore("EMP-001")
	for offset := 0; offset < 5; offset++ {
		completedSession(store, "EMP-001", testDay.AddDate(0, 0, offset), 9, 0, 17, 30, 30)
	}
	// An entry flagged invalid disqualifies its day.
	flaggedDay := testDay.AddDate(0, 0, 2)
	notes := "duplicate submission"
	store.PutEntry(models.TimeEntry{
		ID:              "ENT-flagged",
		UserID:          "EMP-001",
		SessionID:       sessionID("EMP-001", flaggedDay.Format(models.DateLayout)),
		EntryType:       models.EntryClockIn,
		Timestamp:       *onDay(flaggedDay, 9, 1),
		WorkDate:        flaggedDay.Format(models.DateLayout),
		Timezone:        "UTC",
		IsValid:         false,
		ValidationNotes: &notes,
	})
	eng := newTestEngine(store)

	score, fail := eng.ComplianceScore(context.Background(), "EMP-001", testDay, testDay.AddDate(0, 0, 6))
	require.Nil(t, fail)
	assert.Equal(t, 80, score)
}

func TestComplianceScoreNoSessions(t *testing.T) {
	store := newTestStore("EMP-001")
	eng := newTestEngine(store)

	score, fail := eng.ComplianceScore(context.Background(), "EMP-001", testDay, testDay.AddDate(0, 0, 6))
	require.Nil(t, fail)
	assert.Equal(t, 0, score)
}

func TestComplianceScoreWeekendOnlyRange(t *testing.T) {
	store := newTestStore("EMP-001")
	saturday := testDay.AddDate(0, 0, 5)
	completedSession(store, "EMP-001", saturday, 10, 0, 14, 0, 0)
	eng := newTestEngine(store)

	// No expected workdays in range, but work happened anyway.
	score, fail := eng.ComplianceScore(context.Background(), "EMP-001", saturday, saturday.AddDate(0, 0, 1))
	require.Nil(t, fail)
	assert.Equal(t, 100, score)
}

func TestComplianceScoreRejectsBadRange(t *testing.T) {
	eng := newTestEngine(newTestStore("EMP-001"))

	_, fail := eng.ComplianceScore(context.Background(), "EMP-001", testDay, testDay)
	require.NotNil(t, fail)
	assert.Equal(t, FailureValidation, fail.Kind)
	assert.Equal(t, CodeInvalidDateRange, fail.Code)

	_, fail = eng.ComplianceScore(context.Background(), "EMP-001", testDay.AddDate(0, 0, 3), testDay)
	require.NotNil(t, fail)
	assert.Equal(t, CodeInvalidDateRange, fail.Code)
}

func TestDashboardStats(t *testing.T) {
	store := newTestStore("EMP-001")
	completedSession(store, "EMP-001", testDay, 9, 0, 18, 0, 30)
	completedSession(store, "EMP-001", testDay.AddDate(0, 0, 1), 9, 30, 18, 30, 30)
	eng := newTestEngine(store)

	stats, fail := eng.DashboardStats(context.Background(), "EMP-001")
	require.Nil(t, fail)

	assert.Equal(t, 2, stats.Week.TotalDays)
	assert.Equal(t, 1020, stats.Week.TotalMinutes)
	assert.Equal(t, 2, stats.Month.TotalDays)
	assert.Equal(t, "09:15", stats.AverageEntryTime)
	assert.Equal(t, "18:15", stats.AverageExitTime)
	assert.Equal(t, 30.0, stats.AverageLunchMinutes)
	// March 2026 has 22 weekdays; 2 well-formed days round to 9 percent.
	assert.Equal(t, 9, stats.ComplianceScore)
}

func TestDashboardStatsNoHistory(t *testing.T) {
	store := newTestStore("EMP-001")
	eng := newTestEngine(store)

	stats, fail := eng.DashboardStats(context.Background(), "EMP-001")
	require.Nil(t, fail)
	assert.Equal(t, 0, stats.Week.TotalDays)
	assert.Equal(t, "", stats.AverageEntryTime)
	assert.Equal(t, "", stats.AverageExitTime)
	assert.Equal(t, 0.0, stats.AverageLunchMinutes)
	assert.Equal(t, 0, stats.ComplianceScore)
}

func TestWeekRange(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2026, 3, 8, 13, 45, 0, 0, time.UTC)
	start, end := weekRange(sunday)
	assert.Equal(t, "2026-03-02", start.Format(models.DateLayout))
	assert.Equal(t, "2026-03-08", end.Format(models.DateLayout))

	start, end = weekRange(testDay)
	assert.Equal(t, "2026-03-02", start.Format(models.DateLayout))
	assert.Equal(t, "2026-03-08", end.Format(models.DateLayout))
}

func TestMonthRange(t *testing.T) {
	start, end := monthRange(time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-02-01", start.Format(models.DateLayout))
	assert.Equal(t, "2026-02-28", end.Format(models.DateLayout))
}
