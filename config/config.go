package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/zzoohub/meallog/models"
)

var DB *gorm.DB

func InitDB() {
	if err := godotenv.Load(); err != nil {
		Log.Warn("no .env file found, relying on environment")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		Log.Fatalf("failed to connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		Log.Fatalf("AutoMigrate failed: %v", err)
	}
}

// Migrate runs schema migration for every model. Shared with test helpers,
// which open their own database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserSession{},
		&models.UserPreferences{},
		&models.NotificationSettings{},
		&models.PrivacySettings{},
		&models.UserGoals{},
		&models.Meal{},
		&models.MealPhoto{},
		&models.MealIngredient{},
		&models.Post{},
		&models.PostLike{},
		&models.PostComment{},
		&models.UserFollow{},
		&models.PushToken{},
		&models.Notification{},
		&models.NotificationTemplate{},
		&models.NotificationQueue{},
		&models.AnalyticsEvent{},
		&models.DailySummary{},
		&models.UserProgress{},
		&models.Achievement{},
	)
}
