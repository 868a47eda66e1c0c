package model

import "time"

// Zone represents a barangay that owns schedules and registered devices.
type Zone struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"uniqueIndex;size:128;not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Associations
	Schedules []Schedule `gorm:"foreignKey:ZoneID"`
}
