package models

import "time"

// TimeEntry entry types
const (
	EntryClockIn     = "clock_in"
	EntryClockOut    = "clock_out"
	EntryStartLunch  = "start_lunch"
	EntryResumeShift = "resume_shift"
)

// TimeEntry is the immutable audit record of a single accepted clock action.
// Rows are created once per accepted transition and never updated or deleted.
type TimeEntry struct {
	ID        string    `gorm:"column:entry_id;primaryKey;type:varchar(50)" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(50);index" json:"user_id"`
	SessionID string    `gorm:"column:session_id;type:varchar(50);index" json:"session_id"`
	EntryType string    `gorm:"column:entry_type;type:varchar(20);not null" json:"entry_type"`
	Timestamp time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
	WorkDate  string    `gorm:"column:work_date;type:varchar(10);index" json:"work_date"`

	// Timezone is the IANA zone the timestamp was recorded in. Informational
	// only, kept for audit.
	Timezone string `gorm:"column:timezone;type:varchar(64)" json:"timezone"`

	IsValid         bool      `gorm:"column:is_valid;default:true" json:"is_valid"`
	ValidationNotes *string   `gorm:"column:validation_notes;type:text" json:"validation_notes,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}
