package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/zzoohub/meallog/controllers"
	"github.com/zzoohub/meallog/middlewares"
)

type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	Meal         *controllers.MealController
	Social       *controllers.SocialController
	Notification *controllers.NotificationController
	Analytics    *controllers.AnalyticsController
	Upload       *controllers.UploadController
	Realtime     *controllers.RealtimeController
}

func SetupRouter(c Controllers) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.Refresh)
		auth.POST("/logout", c.Auth.Logout)
	}

	api := r.Group("/api/v1")
	api.Use(middlewares.AuthMiddleware())

	user := api.Group("/users")
	{
		user.GET("/me", c.User.GetProfile)
		user.PUT("/me", c.User.UpdateProfile)
		user.GET("/me/preferences", c.User.GetPreferences)
		user.PUT("/me/preferences", c.User.UpdatePreferences)
		user.GET("/me/notification-settings", c.User.GetNotificationSettings)
		user.PUT("/me/notification-settings", c.User.UpdateNotificationSettings)
		user.GET("/me/privacy-settings", c.User.GetPrivacySettings)
		user.PUT("/me/privacy-settings", c.User.UpdatePrivacySettings)
		user.GET("/me/goals", c.User.GetGoals)
		user.PUT("/me/goals", c.User.UpdateGoals)
	}

	meals := api.Group("/meals")
	{
		meals.POST("", c.Meal.CreateMeal)
		meals.GET("", c.Meal.ListMeals)
		meals.GET("/nutrition", c.Meal.GetDayNutrition)
		meals.GET("/:id", c.Meal.GetMeal)
		meals.PUT("/:id", c.Meal.UpdateMeal)
		meals.DELETE("/:id", c.Meal.DeleteMeal)
	}

	social := api.Group("/social")
	{
		social.POST("/posts", c.Social.CreatePost)
		social.GET("/feed", c.Social.GetFeed)
		social.GET("/stats", c.Social.GetStats)
		social.GET("/posts/:id", c.Social.GetPost)
		social.PUT("/posts/:id", c.Social.UpdatePost)
		social.DELETE("/posts/:id", c.Social.DeletePost)
		social.POST("/posts/:id/like", c.Social.ToggleLike)
		social.POST("/posts/:id/comments", c.Social.CreateComment)
		social.GET("/posts/:id/comments", c.Social.ListComments)
		social.POST("/users/:id/follow", c.Social.FollowUser)
		social.DELETE("/users/:id/follow", c.Social.UnfollowUser)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", c.Notification.ListNotifications)
		notifications.PUT("/read", c.Notification.BulkMarkRead)
		notifications.POST("/send", c.Notification.SendToUsers)
		notifications.GET("/stats", c.Notification.GetStats)
		notifications.POST("/render-template", c.Notification.RenderTemplate)
		notifications.PUT("/:id", c.Notification.UpdateNotification)
		notifications.DELETE("/:id", c.Notification.DeleteNotification)
		notifications.POST("/push-tokens", c.Notification.RegisterPushToken)
		notifications.DELETE("/push-tokens/:platform", c.Notification.DeactivatePushToken)
	}

	analytics := api.Group("/analytics")
	{
		analytics.POST("/events", c.Analytics.TrackEvent)
		analytics.POST("/events/batch", c.Analytics.TrackEventsBatch)
		analytics.GET("/daily", c.Analytics.GetDailySummary)
		analytics.PUT("/daily", c.Analytics.UpdateDailySummary)
		analytics.GET("/weekly", c.Analytics.GetWeeklySummary)
		analytics.GET("/monthly", c.Analytics.GetMonthlySummary)
		analytics.GET("/progress", c.Analytics.GetUserProgress)
		analytics.GET("/insights", c.Analytics.GetInsights)
		analytics.GET("/achievements", c.Analytics.ListAchievements)
		analytics.GET("/stats", c.Analytics.GetStats)
	}

	api.POST("/uploads/images", c.Upload.UploadImage)
	api.GET("/ws/notifications", c.Realtime.NotificationsWS)

	return r
}
