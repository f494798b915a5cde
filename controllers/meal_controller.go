package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type MealController struct {
	Capture  *services.CaptureService
	Meals    *services.MealService
	Settings *services.SettingsService
	Tracker  *services.DayTracker
	Hub      *services.NotificationHub
}

func NewMealController(
	capture *services.CaptureService,
	meals *services.MealService,
	settings *services.SettingsService,
	tracker *services.DayTracker,
	hub *services.NotificationHub,
) *MealController {
	return &MealController{Capture: capture, Meals: meals, Settings: settings, Tracker: tracker, Hub: hub}
}

type CaptureInput struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
}

// CaptureMeal runs the photo → classifier → meal pipeline. Every stage
// failure maps to its own status so the client can tell the user what
// actually went wrong.
func (mc *MealController) CaptureMeal(c *gin.Context) {
	userID := c.GetUint("userID")

	var input CaptureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image provided"})
		return
	}

	settings, err := mc.Settings.GetSettings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	apiKey := ""
	if settings != nil {
		apiKey = settings.GeminiAPIKey
	}
	if apiKey == "" {
		// Send the user to settings instead of failing silently
		c.JSON(http.StatusPreconditionFailed, gin.H{
			"error":  "Please configure your Gemini API key in settings first",
			"action": "configure_api_key",
		})
		return
	}

	meal, err := mc.Capture.CaptureMeal(c.Request.Context(), userID, input.ImageBase64, apiKey)
	if err != nil {
		c.JSON(captureStatus(err), gin.H{"error": err.Error()})
		return
	}

	if view, ok := mc.Tracker.View(userID); ok {
		mc.Hub.Broadcast(userID, gin.H{
			"kind":   "meal.logged",
			"meal":   meal,
			"totals": view.Totals,
		})
	}

	c.JSON(http.StatusCreated, meal)
}

func captureStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNoImage), errors.Is(err, services.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNoAPIKey):
		return http.StatusPreconditionFailed
	case errors.Is(err, services.ErrBadCredential):
		return http.StatusForbidden
	case errors.Is(err, services.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrServerError):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrImageProcess):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// dateParam reads ?date=YYYY-MM-DD in the server's local zone; the day
// window boundaries follow that zone. Missing date means today.
func dateParam(c *gin.Context) (time.Time, bool) {
	dateStr := c.Query("date")
	if dateStr == "" {
		return time.Now(), true
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format. Use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

// ListMeals returns the day's meals newest-first and refreshes the
// in-memory view the capture pipeline increments.
func (mc *MealController) ListMeals(c *gin.Context) {
	userID := c.GetUint("userID")

	date, ok := dateParam(c)
	if !ok {
		return
	}

	meals, err := mc.Meals.ListMealsByDate(userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	totals := services.SumMeals(meals)
	mc.Tracker.Set(userID, date, meals, totals)

	c.JSON(http.StatusOK, gin.H{"meals": meals, "totals": totals})
}

func (mc *MealController) GetDailySummary(c *gin.Context) {
	userID := c.GetUint("userID")

	date, ok := dateParam(c)
	if !ok {
		return
	}

	summary, err := mc.Meals.SummarizeDate(userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (mc *MealController) DeleteMeal(c *gin.Context) {
	userID := c.GetUint("userID")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal id"})
		return
	}

	if err := mc.Meals.DeleteMeal(userID, uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
