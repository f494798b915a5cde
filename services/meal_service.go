// services/meal_service.go
package services

import (
	"time"

	"backend/config"
	"backend/models"
)

type MealService struct{}

func NewMealService() *MealService {
	return &MealService{}
}

// DailySummary is the nutrition total over all meals in one calendar day.
// Derived, recomputed per query, never stored.
type DailySummary struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// DayWindow returns the inclusive bounds of the calendar day containing
// date, in date's own location: [00:00:00.000, 23:59:59.999]. A meal at
// exactly midnight belongs to the next day.
func DayWindow(date time.Time) (start, end time.Time) {
	start = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end = start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// SumMeals folds nutrition fields by addition. An empty set gives an
// all-zero summary.
func SumMeals(meals []models.Meal) DailySummary {
	var s DailySummary
	for _, m := range meals {
		s.Calories += m.Calories
		s.Protein += m.Protein
		s.Carbs += m.Carbs
		s.Fats += m.Fats
	}
	return s
}

func (s *MealService) InsertMeal(meal *models.Meal) error {
	return config.DB.Create(meal).Error
}

// ListMealsByDate returns the user's meals for one calendar day,
// newest first.
func (s *MealService) ListMealsByDate(userID uint, date time.Time) ([]models.Meal, error) {
	start, end := DayWindow(date)
	meals := []models.Meal{}
	err := config.DB.
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, start, end).
		Order("created_at DESC").
		Find(&meals).Error
	return meals, err
}

// SummarizeDate totals the day's nutrition. Fetches only the numeric
// columns; never fails for "no data".
func (s *MealService) SummarizeDate(userID uint, date time.Time) (DailySummary, error) {
	start, end := DayWindow(date)
	var rows []models.Meal
	err := config.DB.
		Select("calories", "protein", "carbs", "fats").
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, start, end).
		Find(&rows).Error
	if err != nil {
		return DailySummary{}, err
	}
	return SumMeals(rows), nil
}

func (s *MealService) DeleteMeal(userID, mealID uint) error {
	return config.DB.
		Where("id = ? AND user_id = ?", mealID, userID).
		Delete(&models.Meal{}).Error
}

func (s *MealService) DeleteAllForUser(userID uint) error {
	return config.DB.
		Where("user_id = ?", userID).
		Delete(&models.Meal{}).Error
}
