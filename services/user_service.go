package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zzoohub/meallog/models"
)

type UserService struct{ db *gorm.DB }

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}

type ProfileUpdate struct {
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Username != nil && *update.Username != user.Username {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("username = ?", *update.Username).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: username already taken", ErrConflict)
		}
		user.Username = *update.Username
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Settings rows share the lazy-default pattern: insert-on-conflict-do-nothing,
// then fetch, so the first reader materializes the defaults.

func (s *UserService) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error) {
	fresh := &models.UserPreferences{UserID: userID, Language: "en", Theme: "system", MeasurementUnits: "metric"}
	if err := s.upsertDefault(ctx, fresh); err != nil {
		return nil, err
	}
	var prefs models.UserPreferences
	if err := s.db.WithContext(ctx).First(&prefs, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &prefs, nil
}

type PreferencesUpdate struct {
	Language         *string `json:"language,omitempty"`
	Theme            *string `json:"theme,omitempty"`
	MeasurementUnits *string `json:"measurement_units,omitempty"`
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID uuid.UUID, update PreferencesUpdate) (*models.UserPreferences, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Language != nil {
		prefs.Language = *update.Language
	}
	if update.Theme != nil {
		prefs.Theme = *update.Theme
	}
	if update.MeasurementUnits != nil {
		prefs.MeasurementUnits = *update.MeasurementUnits
	}
	if err := s.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *UserService) GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	fresh := &models.NotificationSettings{
		UserID:              userID,
		MealReminders:       true,
		SocialNotifications: true,
		ProgressUpdates:     true,
		AIInsights:          true,
		QuietHoursEnabled:   true,
		QuietHoursStart:     "22:00",
		QuietHoursEnd:       "07:00",
		Frequency:           "immediate",
		PushEnabled:         true,
	}
	if err := s.upsertDefault(ctx, fresh); err != nil {
		return nil, err
	}
	var settings models.NotificationSettings
	if err := s.db.WithContext(ctx).First(&settings, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

type NotificationSettingsUpdate struct {
	MealReminders       *bool   `json:"meal_reminders,omitempty"`
	SocialNotifications *bool   `json:"social_notifications,omitempty"`
	ProgressUpdates     *bool   `json:"progress_updates,omitempty"`
	AIInsights          *bool   `json:"ai_insights,omitempty"`
	QuietHoursEnabled   *bool   `json:"quiet_hours_enabled,omitempty"`
	QuietHoursStart     *string `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd       *string `json:"quiet_hours_end,omitempty"`
	Frequency           *string `json:"frequency,omitempty"`
	PushEnabled         *bool   `json:"push_enabled,omitempty"`
	EmailEnabled        *bool   `json:"email_enabled,omitempty"`
}

func (s *UserService) UpdateNotificationSettings(ctx context.Context, userID uuid.UUID, update NotificationSettingsUpdate) (*models.NotificationSettings, error) {
	settings, err := s.GetNotificationSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.MealReminders != nil {
		settings.MealReminders = *update.MealReminders
	}
	if update.SocialNotifications != nil {
		settings.SocialNotifications = *update.SocialNotifications
	}
	if update.ProgressUpdates != nil {
		settings.ProgressUpdates = *update.ProgressUpdates
	}
	if update.AIInsights != nil {
		settings.AIInsights = *update.AIInsights
	}
	if update.QuietHoursEnabled != nil {
		settings.QuietHoursEnabled = *update.QuietHoursEnabled
	}
	if update.QuietHoursStart != nil {
		settings.QuietHoursStart = *update.QuietHoursStart
	}
	if update.QuietHoursEnd != nil {
		settings.QuietHoursEnd = *update.QuietHoursEnd
	}
	if update.Frequency != nil {
		settings.Frequency = *update.Frequency
	}
	if update.PushEnabled != nil {
		settings.PushEnabled = *update.PushEnabled
	}
	if update.EmailEnabled != nil {
		settings.EmailEnabled = *update.EmailEnabled
	}
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *UserService) GetPrivacySettings(ctx context.Context, userID uuid.UUID) (*models.PrivacySettings, error) {
	fresh := &models.PrivacySettings{
		UserID:              userID,
		ProfileVisibility:   "friends",
		AnalyticsCollection: true,
		CrashReporting:      true,
		DataExportPhotos:    true,
	}
	if err := s.upsertDefault(ctx, fresh); err != nil {
		return nil, err
	}
	var settings models.PrivacySettings
	if err := s.db.WithContext(ctx).First(&settings, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

type PrivacySettingsUpdate struct {
	ProfileVisibility   *string `json:"profile_visibility,omitempty"`
	LocationSharing     *bool   `json:"location_sharing,omitempty"`
	AnalyticsCollection *bool   `json:"analytics_collection,omitempty"`
	CrashReporting      *bool   `json:"crash_reporting,omitempty"`
	DataExportPhotos    *bool   `json:"data_export_photos,omitempty"`
	DataExportAnalytics *bool   `json:"data_export_analytics,omitempty"`
}

func (s *UserService) UpdatePrivacySettings(ctx context.Context, userID uuid.UUID, update PrivacySettingsUpdate) (*models.PrivacySettings, error) {
	settings, err := s.GetPrivacySettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.ProfileVisibility != nil {
		settings.ProfileVisibility = *update.ProfileVisibility
	}
	if update.LocationSharing != nil {
		settings.LocationSharing = *update.LocationSharing
	}
	if update.AnalyticsCollection != nil {
		settings.AnalyticsCollection = *update.AnalyticsCollection
	}
	if update.CrashReporting != nil {
		settings.CrashReporting = *update.CrashReporting
	}
	if update.DataExportPhotos != nil {
		settings.DataExportPhotos = *update.DataExportPhotos
	}
	if update.DataExportAnalytics != nil {
		settings.DataExportAnalytics = *update.DataExportAnalytics
	}
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *UserService) GetGoals(ctx context.Context, userID uuid.UUID) (*models.UserGoals, error) {
	fresh := &models.UserGoals{
		UserID:             userID,
		DailyCalories:      2000,
		ProteinPercentage:  25,
		CarbsPercentage:    45,
		FatPercentage:      30,
		MealFrequency:      3,
		WeightUnit:         "kg",
		WeightTimeframe:    "monthly",
		WaterGlassesTarget: 8,
		FiberGramsTarget:   25,
	}
	if err := s.upsertDefault(ctx, fresh); err != nil {
		return nil, err
	}
	var goals models.UserGoals
	if err := s.db.WithContext(ctx).First(&goals, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &goals, nil
}

type GoalsUpdate struct {
	DailyCalories      *int     `json:"daily_calories,omitempty"`
	ProteinPercentage  *int     `json:"protein_percentage,omitempty"`
	CarbsPercentage    *int     `json:"carbs_percentage,omitempty"`
	FatPercentage      *int     `json:"fat_percentage,omitempty"`
	MealFrequency      *int     `json:"meal_frequency,omitempty"`
	WeightTarget       *float64 `json:"weight_target,omitempty"`
	WeightUnit         *string  `json:"weight_unit,omitempty"`
	WeightTimeframe    *string  `json:"weight_timeframe,omitempty"`
	WaterGlassesTarget *int     `json:"water_glasses_target,omitempty"`
	FiberGramsTarget   *int     `json:"fiber_grams_target,omitempty"`
}

func (s *UserService) UpdateGoals(ctx context.Context, userID uuid.UUID, update GoalsUpdate) (*models.UserGoals, error) {
	goals, err := s.GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.DailyCalories != nil {
		goals.DailyCalories = *update.DailyCalories
	}
	if update.ProteinPercentage != nil {
		goals.ProteinPercentage = *update.ProteinPercentage
	}
	if update.CarbsPercentage != nil {
		goals.CarbsPercentage = *update.CarbsPercentage
	}
	if update.FatPercentage != nil {
		goals.FatPercentage = *update.FatPercentage
	}
	if goals.ProteinPercentage+goals.CarbsPercentage+goals.FatPercentage != 100 {
		return nil, fmt.Errorf("%w: macro percentages must sum to 100", ErrBadRequest)
	}
	if update.MealFrequency != nil {
		if *update.MealFrequency < 1 || *update.MealFrequency > 10 {
			return nil, fmt.Errorf("%w: meal frequency must be between 1 and 10", ErrBadRequest)
		}
		goals.MealFrequency = *update.MealFrequency
	}
	if update.WeightTarget != nil {
		goals.WeightTarget = update.WeightTarget
	}
	if update.WeightUnit != nil {
		goals.WeightUnit = *update.WeightUnit
	}
	if update.WeightTimeframe != nil {
		goals.WeightTimeframe = *update.WeightTimeframe
	}
	if update.WaterGlassesTarget != nil {
		goals.WaterGlassesTarget = *update.WaterGlassesTarget
	}
	if update.FiberGramsTarget != nil {
		goals.FiberGramsTarget = *update.FiberGramsTarget
	}
	if err := s.db.WithContext(ctx).Save(goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (s *UserService) upsertDefault(ctx context.Context, row any) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}
