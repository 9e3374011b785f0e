package models

import "time"

// User represents a registered user of the paper-trading service.
type User struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex;not null"`
	Email     string
	CreatedAt time.Time
}
