package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backend/config"
	"backend/models"
	"backend/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsService struct {
	log *zap.Logger
}

func NewSettingsService(log *zap.Logger) *SettingsService {
	return &SettingsService{log: log}
}

// ProfileInput is the user-editable profile payload. Targets are never
// accepted from the client; they are derived here on every save.
type ProfileInput struct {
	Gender   string  `json:"gender" binding:"required,oneof=male female"`
	HeightCm float64 `json:"height_cm" binding:"required,gt=0"`
	WeightKg float64 `json:"weight_kg" binding:"required,gt=0"`
	Age      int     `json:"age" binding:"required,gt=0"`
	Goal     string  `json:"goal" binding:"required,oneof=lose maintain gain"`
}

// GetSettings returns nil without error when the user has no settings row
// yet — the caller treats that as defaults.
func (s *SettingsService) GetSettings(userID uint) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := config.DB.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveProfile persists body metrics and goal, recomputing the calorie and
// macro targets from them. If the full write fails because the richer
// profile columns are unavailable, it degrades to saving the targets only.
func (s *SettingsService) SaveProfile(userID uint, in ProfileInput) (*models.UserSettings, error) {
	bmr := utils.CalculateBMR(in.Gender, in.WeightKg, in.HeightCm, in.Age)
	targetCalories := utils.CalculateTargetCalories(bmr, in.Goal)
	macros := utils.CalculateMacroTargets(targetCalories, in.Goal)

	var settings models.UserSettings
	err := config.DB.Where("user_id = ?", userID).First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings.UserID = userID
	settings.Gender = in.Gender
	settings.HeightCm = in.HeightCm
	settings.WeightKg = in.WeightKg
	settings.Age = in.Age
	settings.Goal = in.Goal
	settings.TargetCalories = targetCalories
	settings.TargetProtein = macros.Protein
	settings.TargetCarbs = macros.Carbs
	settings.TargetFats = macros.Fats

	if err := config.DB.Save(&settings).Error; err != nil {
		if !isMissingColumn(err) {
			return nil, err
		}
		// Degraded path: schema is missing the profile columns, keep the
		// user moving by saving just the targets. Masks a real data
		// quality issue, hence the log.
		s.log.Warn("profile columns unavailable, saving basic targets only",
			zap.Uint("user_id", userID), zap.Error(err))
		basic := models.UserSettings{
			UserID:         userID,
			TargetCalories: targetCalories,
			TargetProtein:  macros.Protein,
			TargetCarbs:    macros.Carbs,
			TargetFats:     macros.Fats,
		}
		// Upsert: a first-time save must still create the row.
		if err := config.DB.
			Select("user_id", "target_calories", "target_protein", "target_carbs", "target_fats").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"target_calories", "target_protein", "target_carbs", "target_fats"}),
			}).
			Create(&basic).Error; err != nil {
			return nil, err
		}
	}

	return &settings, nil
}

func isMissingColumn(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "42703") || strings.Contains(msg, "column")
}

// SaveAPIKey merge-updates the classifier credential, leaving every other
// settings field untouched.
func (s *SettingsService) SaveAPIKey(userID uint, apiKey string) error {
	var settings models.UserSettings
	err := config.DB.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.UserSettings{UserID: userID, GeminiAPIKey: apiKey}
		return config.DB.Create(&settings).Error
	}
	if err != nil {
		return err
	}
	return config.DB.Model(&settings).Update("gemini_api_key", apiKey).Error
}

func stashKey(userID uint) string {
	return fmt.Sprintf("pending_profile:%d", userID)
}

// StashPendingProfile parks a profile payload submitted at sign-up until
// the account is confirmed.
func (s *SettingsService) StashPendingProfile(userID uint, in ProfileInput) error {
	value, err := json.Marshal(in)
	if err != nil {
		return err
	}
	entry := models.StashEntry{Key: stashKey(userID), Value: string(value)}
	return config.DB.Save(&entry).Error
}

// ConsumePendingProfile applies a stashed profile on the first post-login
// load. The entry is deleted whether or not the save succeeds — a failed
// save loses the stash but the app keeps working.
func (s *SettingsService) ConsumePendingProfile(userID uint) (bool, error) {
	var entry models.StashEntry
	err := config.DB.First(&entry, "key = ?", stashKey(userID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var in ProfileInput
	if err := json.Unmarshal([]byte(entry.Value), &in); err != nil {
		s.log.Warn("discarding unreadable pending profile", zap.Uint("user_id", userID), zap.Error(err))
	} else if _, err := s.SaveProfile(userID, in); err != nil {
		s.log.Warn("could not save pending profile", zap.Uint("user_id", userID), zap.Error(err))
	}

	if err := config.DB.Delete(&models.StashEntry{}, "key = ?", stashKey(userID)).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *SettingsService) DeleteAllForUser(userID uint) error {
	if err := config.DB.Delete(&models.StashEntry{}, "key = ?", stashKey(userID)).Error; err != nil {
		return err
	}
	return config.DB.Where("user_id = ?", userID).Delete(&models.UserSettings{}).Error
}
