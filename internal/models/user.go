package models

import (
	"time"

	"gorm.io/gorm"
)

// User is one credential-store record. Portfolio positions are deliberately
// not persisted; the user table is the only durable state in the system.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`

	PasswordHash string `gorm:"type:text;not null" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
