package model

import "time"

// Weekday tokens accepted in Schedule.RecurringDay.
const (
	DayMonday    = "MONDAY"
	DayTuesday   = "TUESDAY"
	DayWednesday = "WEDNESDAY"
	DayThursday  = "THURSDAY"
	DayFriday    = "FRIDAY"
	DaySaturday  = "SATURDAY"
	DaySunday    = "SUNDAY"
)

// Schedule represents one waste-collection event definition for a zone.
// A schedule is either recurring (RecurringDay + RecurringTime set) or
// one-time (CollectionDateTime set); the flag decides which fields count.
type Schedule struct {
	ID                 string     `gorm:"primaryKey;size:36"`
	ZoneID             string     `gorm:"index;size:64;not null"`
	ZoneName           string     `gorm:"size:128;not null"` // denormalized from Zone at last write
	WasteType          string     `gorm:"size:128;not null"`
	IsRecurring        bool       `gorm:"index;not null"`
	RecurringDay       string     `gorm:"index;size:16"` // weekday token, empty for one-time
	RecurringTime      string     `gorm:"size:8"`        // "HH:MM", empty for one-time
	CollectionDateTime *time.Time // absolute instant, nil for recurring
	IsActive           bool       `gorm:"index;not null;default:true"`
	Notes              string     `gorm:"size:512"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}
