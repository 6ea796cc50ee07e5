package models

import (
	"time"

	"github.com/google/uuid"
)

// Per-user settings rows, all keyed directly by user id and materialized
// with defaults on first read.

type UserPreferences struct {
	UserID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Language         string    `gorm:"size:5;default:en" json:"language"`            // en|ko
	Theme            string    `gorm:"size:10;default:system" json:"theme"`         // light|dark|system
	MeasurementUnits string    `gorm:"size:10;default:metric" json:"measurement_units"` // metric|imperial
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type NotificationSettings struct {
	UserID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	MealReminders       bool      `gorm:"default:true" json:"meal_reminders"`
	SocialNotifications bool      `gorm:"default:true" json:"social_notifications"`
	ProgressUpdates     bool      `gorm:"default:true" json:"progress_updates"`
	AIInsights          bool      `gorm:"default:true" json:"ai_insights"`
	QuietHoursEnabled   bool      `gorm:"default:true" json:"quiet_hours_enabled"`
	QuietHoursStart     string    `gorm:"size:5;default:22:00" json:"quiet_hours_start"`
	QuietHoursEnd       string    `gorm:"size:5;default:07:00" json:"quiet_hours_end"`
	Frequency           string    `gorm:"size:10;default:immediate" json:"frequency"` // immediate|daily|weekly
	PushEnabled         bool      `gorm:"default:true" json:"push_enabled"`
	EmailEnabled        bool      `gorm:"default:false" json:"email_enabled"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type PrivacySettings struct {
	UserID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	ProfileVisibility   string    `gorm:"size:10;default:friends" json:"profile_visibility"` // public|friends|private
	LocationSharing     bool      `gorm:"default:false" json:"location_sharing"`
	AnalyticsCollection bool      `gorm:"default:true" json:"analytics_collection"`
	CrashReporting      bool      `gorm:"default:true" json:"crash_reporting"`
	DataExportPhotos    bool      `gorm:"default:true" json:"data_export_photos"`
	DataExportAnalytics bool      `gorm:"default:false" json:"data_export_analytics"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// UserGoals stores daily intake targets. Macro percentages must sum to 100.
type UserGoals struct {
	UserID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	DailyCalories      int       `gorm:"default:2000" json:"daily_calories"`
	ProteinPercentage  int       `gorm:"default:25" json:"protein_percentage"`
	CarbsPercentage    int       `gorm:"default:45" json:"carbs_percentage"`
	FatPercentage      int       `gorm:"default:30" json:"fat_percentage"`
	MealFrequency      int       `gorm:"default:3" json:"meal_frequency"`
	WeightTarget       *float64  `json:"weight_target,omitempty"`
	WeightUnit         string    `gorm:"size:5;default:kg" json:"weight_unit"` // kg|lbs
	WeightTimeframe    string    `gorm:"size:10;default:monthly" json:"weight_timeframe"`
	WaterGlassesTarget int       `gorm:"default:8" json:"water_glasses_target"`
	FiberGramsTarget   int       `gorm:"default:25" json:"fiber_grams_target"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
