package models

import (
	"fmt"
	"time"
)

// WorkSession status values
const (
	SessionActive    = "active"
	SessionOnLunch   = "on_lunch"
	SessionCompleted = "completed"
)

// DateLayout is the calendar-day format used for session and entry dates.
const DateLayout = "2006-01-02"

// WorkSession is the mutable daily aggregate of clock actions for one user
// on one calendar date. At most one row exists per (user_id, work_date).
type WorkSession struct {
	ID       string `gorm:"column:session_id;primaryKey;type:varchar(50)" json:"id"`
	UserID   string `gorm:"column:user_id;type:varchar(50);uniqueIndex:idx_user_day,priority:1" json:"user_id"`
	User     *User  `gorm:"foreignKey:UserID" json:"-"`
	WorkDate string `gorm:"column:work_date;type:varchar(10);uniqueIndex:idx_user_day,priority:2" json:"work_date"`
	Status   string `gorm:"column:status;type:varchar(20);not null" json:"status"`

	ClockInTime    *time.Time `gorm:"column:clock_in_time" json:"clock_in_time,omitempty"`
	ClockOutTime   *time.Time `gorm:"column:clock_out_time" json:"clock_out_time,omitempty"`
	LunchStartTime *time.Time `gorm:"column:lunch_start_time" json:"lunch_start_time,omitempty"`
	LunchEndTime   *time.Time `gorm:"column:lunch_end_time" json:"lunch_end_time,omitempty"`

	TotalWorkMinutes  int `gorm:"column:total_work_minutes;default:0" json:"total_work_minutes"`
	TotalLunchMinutes int `gorm:"column:total_lunch_minutes;default:0" json:"total_lunch_minutes"`

	// Version increments on every accepted transition; concurrent writers
	// racing on a stale read lose with a CONFLICT.
	Version   int       `gorm:"column:version;default:0" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`

	// Relationships
	Entries []TimeEntry `gorm:"foreignKey:SessionID" json:"entries,omitempty"`
}

// TotalWorkHours renders the worked time as a two-decimal string, the
// representation the dashboard displays verbatim.
func (s *WorkSession) TotalWorkHours() string {
	return fmt.Sprintf("%.2f", float64(s.TotalWorkMinutes)/60.0)
}

// LastEventTime returns the timestamp of the most recent accepted clock
// action on the session. Every accepted entry lands in exactly one of the
// four time columns, so the max of the set is the last entry's timestamp.
func (s *WorkSession) LastEventTime() *time.Time {
	var last *time.Time
	for _, t := range []*time.Time{s.ClockInTime, s.LunchStartTime, s.LunchEndTime, s.ClockOutTime} {
		if t == nil {
			continue
		}
		if last == nil || t.After(*last) {
			last = t
		}
	}
	return last
}
