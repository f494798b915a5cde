package models

import (
	"time"

	"gorm.io/gorm"
)

type Session struct {
	gorm.Model
	UserID       uint      `gorm:"index;not null"`
	RefreshToken string    `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt    time.Time `gorm:"index;not null"`
}
