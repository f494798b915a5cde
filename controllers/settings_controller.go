package controllers

import (
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	Settings *services.SettingsService
}

func NewSettingsController(settings *services.SettingsService) *SettingsController {
	return &SettingsController{Settings: settings}
}

// GetSettings applies any profile payload stashed during sign-up before
// reading, so the first load after a confirmed account sees its targets.
func (sc *SettingsController) GetSettings(c *gin.Context) {
	userID := c.GetUint("userID")

	if _, err := sc.Settings.ConsumePendingProfile(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	settings, err := sc.Settings.GetSettings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if settings == nil {
		c.JSON(http.StatusOK, gin.H{"settings": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (sc *SettingsController) SaveProfile(c *gin.Context) {
	userID := c.GetUint("userID")

	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := sc.Settings.SaveProfile(userID, input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (sc *SettingsController) SaveAPIKey(c *gin.Context) {
	userID := c.GetUint("userID")

	var input struct {
		APIKey string `json:"api_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sc.Settings.SaveAPIKey(userID, input.APIKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "API key saved"})
}
