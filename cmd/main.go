package main

import (
	"os"
	"time"

	"github.com/zzoohub/meallog/config"
	"github.com/zzoohub/meallog/controllers"
	"github.com/zzoohub/meallog/routes"
	"github.com/zzoohub/meallog/services"
	"github.com/zzoohub/meallog/utils"
)

func main() {
	config.InitLogger(os.Getenv("APP_ENV"))
	config.InitDB()
	if err := utils.InitS3(); err != nil {
		config.Log.Warnf("S3 init failed, uploads disabled: %v", err)
	}

	hub := services.NewRealtimeHub()

	analyticsSvc := services.NewAnalyticsService(config.DB)
	authSvc := services.NewAuthService(config.DB)
	userSvc := services.NewUserService(config.DB)
	mealSvc := services.NewMealService(config.DB, analyticsSvc, userSvc)
	notificationSvc := services.NewNotificationService(config.DB, hub)
	socialSvc := services.NewSocialService(config.DB, analyticsSvc, notificationSvc)

	sched, err := notificationSvc.StartDeliveryWorker(15 * time.Second)
	if err != nil {
		config.Log.Fatalf("delivery worker failed to start: %v", err)
	}
	defer func() { _ = sched.Shutdown() }()

	r := routes.SetupRouter(routes.Controllers{
		Auth:         controllers.NewAuthController(authSvc),
		User:         controllers.NewUserController(userSvc),
		Meal:         controllers.NewMealController(mealSvc),
		Social:       controllers.NewSocialController(socialSvc),
		Notification: controllers.NewNotificationController(notificationSvc),
		Analytics:    controllers.NewAnalyticsController(analyticsSvc),
		Upload:       controllers.NewUploadController(),
		Realtime:     controllers.NewRealtimeController(hub),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		config.Log.Fatalf("server stopped: %v", err)
	}
}
