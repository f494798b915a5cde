package models

import (
	"gorm.io/gorm"
)

// UserSettings holds each user's body metrics, goal and the calorie/macro
// targets derived from them. Targets are recomputed on every profile save
// and never edited directly.
type UserSettings struct {
	gorm.Model
	UserID   uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	Gender   string  `gorm:"size:10" json:"gender"` // "male" | "female"
	HeightCm float64 `json:"height_cm"`
	WeightKg float64 `json:"weight_kg"`
	Age      int     `json:"age"`
	Goal     string  `gorm:"size:10" json:"goal"` // "lose" | "maintain" | "gain"

	TargetCalories int `json:"target_calories"` // e.g. 2200 kcal
	TargetProtein  int `json:"target_protein"`  // g
	TargetCarbs    int `json:"target_carbs"`    // g
	TargetFats     int `json:"target_fats"`     // g

	GeminiAPIKey string `gorm:"size:256" json:"gemini_api_key,omitempty"`
}
