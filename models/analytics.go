package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalyticsEvent is an append-only interaction log row.
type AnalyticsEvent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;index:idx_analytics_events_user_type,priority:1;not null" json:"user_id"`
	EventType     string         `gorm:"size:100;index:idx_analytics_events_user_type,priority:2;not null" json:"event_type"`
	EventCategory string         `gorm:"size:50;index;not null" json:"event_category"` // app|meal|social|camera|settings
	Properties    datatypes.JSON `json:"properties,omitempty"`
	SessionID     string         `gorm:"size:100;index" json:"session_id,omitempty"`
	Platform      string         `gorm:"size:20" json:"platform,omitempty"` // ios|android|web
	AppVersion    string         `gorm:"size:20" json:"app_version,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}

func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// DailySummary holds one row per (user, calendar date). Scores are derived:
// OverallScore is always the mean of the other three and is recomputed on
// every counter update, never written directly.
type DailySummary struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index:idx_daily_summaries_user_date,unique,priority:1;not null" json:"user_id"`
	SummaryDate time.Time `gorm:"index:idx_daily_summaries_user_date,unique,priority:2;not null" json:"summary_date"`

	// Meal tracking
	MealsLogged   int     `gorm:"default:0" json:"meals_logged"`
	TotalCalories int     `gorm:"default:0" json:"total_calories"`
	TotalProteinG float64 `gorm:"default:0" json:"total_protein_g"`
	TotalCarbsG   float64 `gorm:"default:0" json:"total_carbs_g"`
	TotalFatG     float64 `gorm:"default:0" json:"total_fat_g"`
	TotalFiberG   float64 `gorm:"default:0" json:"total_fiber_g"`
	WaterGlasses  int     `gorm:"default:0" json:"water_glasses"`

	// Activity
	AppSessions         int `gorm:"default:0" json:"app_sessions"`
	TotalAppTimeMinutes int `gorm:"default:0" json:"total_app_time_minutes"`
	PhotosTaken         int `gorm:"default:0" json:"photos_taken"`

	// Social
	PostsCreated int `gorm:"default:0" json:"posts_created"`
	LikesGiven   int `gorm:"default:0" json:"likes_given"`
	CommentsMade int `gorm:"default:0" json:"comments_made"`

	// Goal flags
	CalorieGoalMet       bool `gorm:"default:false" json:"calorie_goal_met"`
	ProteinGoalMet       bool `gorm:"default:false" json:"protein_goal_met"`
	WaterGoalMet         bool `gorm:"default:false" json:"water_goal_met"`
	MealFrequencyGoalMet bool `gorm:"default:false" json:"meal_frequency_goal_met"`

	// Derived scores, 0-100
	NutritionScore        float64 `gorm:"default:0" json:"nutrition_score"`
	ConsistencyScore      float64 `gorm:"default:0" json:"consistency_score"`
	SocialEngagementScore float64 `gorm:"default:0" json:"social_engagement_score"`
	OverallScore          float64 `gorm:"default:0" json:"overall_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *DailySummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// UserProgress is a per-user running-totals row keyed directly by user id.
// It is materialized lazily on first read.
type UserProgress struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`

	// Streaks
	CurrentLoggingStreak int `gorm:"default:0" json:"current_logging_streak"`
	LongestLoggingStreak int `gorm:"default:0" json:"longest_logging_streak"`
	CurrentGoalStreak    int `gorm:"default:0" json:"current_goal_streak"`
	LongestGoalStreak    int `gorm:"default:0" json:"longest_goal_streak"`

	// First achievements
	FirstMealLoggedAt *time.Time `json:"first_meal_logged_at,omitempty"`
	FirstGoalMetAt    *time.Time `json:"first_goal_met_at,omitempty"`
	FirstSocialPostAt *time.Time `json:"first_social_post_at,omitempty"`
	LastActiveDate    *time.Time `json:"last_active_date,omitempty"`

	// Lifetime totals
	TotalMealsLogged        int `gorm:"default:0" json:"total_meals_logged"`
	TotalDaysActive         int `gorm:"default:0" json:"total_days_active"`
	TotalPhotosTaken        int `gorm:"default:0" json:"total_photos_taken"`
	TotalSocialInteractions int `gorm:"default:0" json:"total_social_interactions"`

	// Rolling averages
	AvgDailyCalories    float64 `gorm:"default:0" json:"avg_daily_calories"`
	AvgNutritionScore   float64 `gorm:"default:0" json:"avg_nutrition_score"`
	AvgConsistencyScore float64 `gorm:"default:0" json:"avg_consistency_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Achievement struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;index:idx_achievements_user_type,unique,priority:1;not null" json:"user_id"`
	AchievementType  string         `gorm:"size:100;index:idx_achievements_user_type,unique,priority:2;not null" json:"achievement_type"`
	AchievementLevel int            `gorm:"default:1" json:"achievement_level"`
	UnlockedAt       time.Time      `json:"unlocked_at"`
	Progress         float64        `gorm:"default:100" json:"progress"` // 100 = completed
	Metadata         datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = time.Now().UTC()
	}
	return nil
}
