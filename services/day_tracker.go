package services

import (
	"sync"
	"time"

	"backend/models"
)

// DayView is the in-memory copy of what the user is currently looking at:
// one calendar day's meals (newest first) plus running totals. It must stay
// consistent with what a fresh ListMealsByDate/SummarizeDate would return
// for that date.
type DayView struct {
	Date   time.Time     `json:"date"`
	Meals  []models.Meal `json:"meals"`
	Totals DailySummary  `json:"totals"`
}

type DayTracker struct {
	mu    sync.RWMutex
	views map[uint]*DayView
}

func NewDayTracker() *DayTracker {
	return &DayTracker{views: make(map[uint]*DayView)}
}

// Set replaces the tracked view after a fresh load for a date.
func (t *DayTracker) Set(userID uint, date time.Time, meals []models.Meal, totals DailySummary) {
	t.mu.Lock()
	t.views[userID] = &DayView{Date: date, Meals: meals, Totals: totals}
	t.mu.Unlock()
}

// Add prepends a newly captured meal and bumps the running totals, but only
// if the meal falls inside the currently viewed day. A capture while no view
// is loaded starts a view for the meal's own day.
func (t *DayTracker) Add(userID uint, meal models.Meal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v := t.views[userID]
	if v == nil {
		v = &DayView{Date: meal.CreatedAt}
		t.views[userID] = v
	}

	start, end := DayWindow(v.Date)
	if meal.CreatedAt.Before(start) || meal.CreatedAt.After(end) {
		return // browsing another date; next load reconciles
	}

	v.Meals = append([]models.Meal{meal}, v.Meals...)
	v.Totals.Calories += meal.Calories
	v.Totals.Protein += meal.Protein
	v.Totals.Carbs += meal.Carbs
	v.Totals.Fats += meal.Fats
}

func (t *DayTracker) View(userID uint) (DayView, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v := t.views[userID]
	if v == nil {
		return DayView{}, false
	}
	out := DayView{Date: v.Date, Totals: v.Totals}
	out.Meals = append(out.Meals, v.Meals...)
	return out, true
}

// Reset drops all derived state for a user back to zero/empty defaults.
// Called on sign-out and account deletion.
func (t *DayTracker) Reset(userID uint) {
	t.mu.Lock()
	delete(t.views, userID)
	t.mu.Unlock()
}
