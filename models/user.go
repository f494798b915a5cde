package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email         string `gorm:"uniqueIndex;not null"`
	Password      string `gorm:"not null"`
	Verified      bool   `gorm:"default:false"`
	VerifyCode    string `gorm:"size:12"`
	ResetToken    string `gorm:"size:12"`
	ResetTokenExp time.Time
}
