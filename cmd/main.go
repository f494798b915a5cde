package main

import (
	"log"
	"os"

	"backend/config"
	"backend/controllers"
	"backend/routes"
	"backend/services"
	"backend/utils"
)

func main() {
	config.InitLogger()
	config.InitDB()
	utils.InitS3()

	bus := services.NewAuthBus()
	tracker := services.NewDayTracker()
	hub := services.NewNotificationHub()

	settingsSvc := services.NewSettingsService(config.Log)
	authSvc := services.NewAuthService(settingsSvc, bus, tracker, config.Log)
	mealSvc := services.NewMealService()
	gemini := services.NewGeminiService(config.Log)
	captureSvc := services.NewCaptureService(gemini, services.S3ImageStore{}, mealSvc, tracker, config.Log)

	manager := services.NewSessionManager(authSvc, bus, hub, config.Log)
	manager.Start()
	defer manager.Stop()

	r := routes.SetupRouter(
		controllers.NewAuthController(authSvc),
		controllers.NewSettingsController(settingsSvc),
		controllers.NewMealController(captureSvc, mealSvc, settingsSvc, tracker, hub),
		controllers.NewRealtimeController(hub),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
