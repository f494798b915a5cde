package services

import (
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/assert"
)

func TestDayWindowBounds(t *testing.T) {
	date := time.Date(2024, 1, 5, 14, 30, 0, 0, time.Local)
	start, end := DayWindow(date)

	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2024, 1, 5, 23, 59, 59, 999000000, time.Local), end)
}

// A meal at 23:59:59.999 belongs to that day; one at exactly midnight
// belongs to the next day.
func TestDayWindowCrossMidnight(t *testing.T) {
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.Local)
	jan6 := jan5.AddDate(0, 0, 1)

	lateMeal := time.Date(2024, 1, 5, 23, 59, 59, 999000000, time.Local)
	midnightMeal := time.Date(2024, 1, 6, 0, 0, 0, 0, time.Local)

	inWindow := func(ts, day time.Time) bool {
		start, end := DayWindow(day)
		return !ts.Before(start) && !ts.After(end)
	}

	assert.True(t, inWindow(lateMeal, jan5), "23:59:59.999 meal should be in Jan 5")
	assert.False(t, inWindow(lateMeal, jan6), "23:59:59.999 meal must not leak into Jan 6")
	assert.True(t, inWindow(midnightMeal, jan6), "midnight meal should be in Jan 6")
	assert.False(t, inWindow(midnightMeal, jan5), "midnight meal must not be in Jan 5")
}

func TestSumMealsEmpty(t *testing.T) {
	got := SumMeals(nil)
	assert.Equal(t, DailySummary{}, got, "empty day must give an all-zero summary")
}

func TestSumMeals(t *testing.T) {
	meals := []models.Meal{
		{Calories: 300, Protein: 22.5, Carbs: 30, Fats: 10},
		{Calories: 450, Protein: 33.75, Carbs: 45, Fats: 15},
		{}, // zero-valued fields count as 0
	}

	got := SumMeals(meals)
	assert.Equal(t, 750.0, got.Calories)
	assert.Equal(t, 56.25, got.Protein)
	assert.Equal(t, 75.0, got.Carbs)
	assert.Equal(t, 25.0, got.Fats)

	// Folding again with no changes gives identical totals.
	assert.Equal(t, got, SumMeals(meals))
}
