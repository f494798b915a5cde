package models

import "time"

// StashEntry is a durable key-value scratch row, used to park a profile
// payload submitted during sign-up until the account is confirmed. Entries
// are consumed (and deleted) on the first successful post-login load.
type StashEntry struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
