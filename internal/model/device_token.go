package model

import "time"

// DeviceToken holds one browser push subscription for a resident's device,
// tagged with the zone the resident is assigned to.
type DeviceToken struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	UserID    string    `gorm:"index;size:64;not null"`
	ZoneID    string    `gorm:"index;size:64;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
