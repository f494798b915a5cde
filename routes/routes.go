package routes

import (
	"backend/controllers"
	"backend/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupRouter(
	authCtl *controllers.AuthController,
	settingsCtl *controllers.SettingsController,
	mealCtl *controllers.MealController,
	realtimeCtl *controllers.RealtimeController,
) *gin.Engine {
	r := gin.Default()

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
		auth.POST("/verify", authCtl.VerifyEmail)
		auth.POST("/refresh", authCtl.Refresh)
		auth.POST("/forgot-password", authCtl.ForgotPassword)
		auth.POST("/reset-password", authCtl.ResetPassword)
	}

	// Protected routes
	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	{
		api.POST("/logout", authCtl.Logout)
		api.DELETE("/account", authCtl.DeleteAccount)

		api.GET("/settings", settingsCtl.GetSettings)
		api.POST("/profile", settingsCtl.SaveProfile)
		api.PUT("/settings/api-key", settingsCtl.SaveAPIKey)

		api.POST("/meals/capture", mealCtl.CaptureMeal)
		api.GET("/meals", mealCtl.ListMeals)
		api.GET("/summary", mealCtl.GetDailySummary)
		api.DELETE("/meals/:id", mealCtl.DeleteMeal)

		api.GET("/ws", realtimeCtl.NotificationsWS)
	}

	return r
}
