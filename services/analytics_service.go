package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zzoohub/meallog/models"
)

const maxEventBatchSize = 100

type AnalyticsService struct{ db *gorm.DB }

func NewAnalyticsService(db *gorm.DB) *AnalyticsService { return &AnalyticsService{db: db} }

// ---------- Event tracking ----------

type EventCreateRequest struct {
	EventType     string         `json:"event_type" binding:"required"`
	EventCategory string         `json:"event_category" binding:"required"`
	Properties    datatypes.JSON `json:"properties,omitempty"`
	SessionID     string         `json:"session_id,omitempty"`
	Platform      string         `json:"platform,omitempty"`
	AppVersion    string         `json:"app_version,omitempty"`
}

var eventCategories = map[string]bool{
	"app": true, "meal": true, "social": true, "camera": true, "settings": true,
}

func (s *AnalyticsService) TrackEvent(ctx context.Context, userID uuid.UUID, req EventCreateRequest) (*models.AnalyticsEvent, error) {
	if !eventCategories[req.EventCategory] {
		return nil, fmt.Errorf("%w: unknown event category %q", ErrBadRequest, req.EventCategory)
	}
	event := &models.AnalyticsEvent{
		UserID:        userID,
		EventType:     req.EventType,
		EventCategory: req.EventCategory,
		Properties:    req.Properties,
		SessionID:     req.SessionID,
		Platform:      req.Platform,
		AppVersion:    req.AppVersion,
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// TrackEventsBatch rejects oversized batches wholesale; there is no partial
// acceptance.
func (s *AnalyticsService) TrackEventsBatch(ctx context.Context, userID uuid.UUID, reqs []EventCreateRequest) ([]models.AnalyticsEvent, error) {
	if len(reqs) > maxEventBatchSize {
		return nil, fmt.Errorf("%w: maximum %d events allowed per batch", ErrBadRequest, maxEventBatchSize)
	}
	events := make([]models.AnalyticsEvent, 0, len(reqs))
	for _, req := range reqs {
		if !eventCategories[req.EventCategory] {
			return nil, fmt.Errorf("%w: unknown event category %q", ErrBadRequest, req.EventCategory)
		}
		events = append(events, models.AnalyticsEvent{
			UserID:        userID,
			EventType:     req.EventType,
			EventCategory: req.EventCategory,
			Properties:    req.Properties,
			SessionID:     req.SessionID,
			Platform:      req.Platform,
			AppVersion:    req.AppVersion,
		})
	}
	if len(events) == 0 {
		return events, nil
	}
	if err := s.db.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ---------- Daily summary ----------

// DailySummaryUpdate applies only non-nil fields. One pointer per known
// counter keeps the partial update compile-time safe.
type DailySummaryUpdate struct {
	MealsLogged         *int     `json:"meals_logged,omitempty"`
	TotalCalories       *int     `json:"total_calories,omitempty"`
	TotalProteinG       *float64 `json:"total_protein_g,omitempty"`
	TotalCarbsG         *float64 `json:"total_carbs_g,omitempty"`
	TotalFatG           *float64 `json:"total_fat_g,omitempty"`
	TotalFiberG         *float64 `json:"total_fiber_g,omitempty"`
	WaterGlasses        *int     `json:"water_glasses,omitempty"`
	AppSessions         *int     `json:"app_sessions,omitempty"`
	TotalAppTimeMinutes *int     `json:"total_app_time_minutes,omitempty"`
	PhotosTaken         *int     `json:"photos_taken,omitempty"`
	PostsCreated        *int     `json:"posts_created,omitempty"`
	LikesGiven          *int     `json:"likes_given,omitempty"`
	CommentsMade        *int     `json:"comments_made,omitempty"`

	CalorieGoalMet       *bool `json:"calorie_goal_met,omitempty"`
	ProteinGoalMet       *bool `json:"protein_goal_met,omitempty"`
	WaterGoalMet         *bool `json:"water_goal_met,omitempty"`
	MealFrequencyGoalMet *bool `json:"meal_frequency_goal_met,omitempty"`
}

func (u *DailySummaryUpdate) apply(s *models.DailySummary) {
	if u.MealsLogged != nil {
		s.MealsLogged = *u.MealsLogged
	}
	if u.TotalCalories != nil {
		s.TotalCalories = *u.TotalCalories
	}
	if u.TotalProteinG != nil {
		s.TotalProteinG = *u.TotalProteinG
	}
	if u.TotalCarbsG != nil {
		s.TotalCarbsG = *u.TotalCarbsG
	}
	if u.TotalFatG != nil {
		s.TotalFatG = *u.TotalFatG
	}
	if u.TotalFiberG != nil {
		s.TotalFiberG = *u.TotalFiberG
	}
	if u.WaterGlasses != nil {
		s.WaterGlasses = *u.WaterGlasses
	}
	if u.AppSessions != nil {
		s.AppSessions = *u.AppSessions
	}
	if u.TotalAppTimeMinutes != nil {
		s.TotalAppTimeMinutes = *u.TotalAppTimeMinutes
	}
	if u.PhotosTaken != nil {
		s.PhotosTaken = *u.PhotosTaken
	}
	if u.PostsCreated != nil {
		s.PostsCreated = *u.PostsCreated
	}
	if u.LikesGiven != nil {
		s.LikesGiven = *u.LikesGiven
	}
	if u.CommentsMade != nil {
		s.CommentsMade = *u.CommentsMade
	}
	if u.CalorieGoalMet != nil {
		s.CalorieGoalMet = *u.CalorieGoalMet
	}
	if u.ProteinGoalMet != nil {
		s.ProteinGoalMet = *u.ProteinGoalMet
	}
	if u.WaterGoalMet != nil {
		s.WaterGoalMet = *u.WaterGoalMet
	}
	if u.MealFrequencyGoalMet != nil {
		s.MealFrequencyGoalMet = *u.MealFrequencyGoalMet
	}
}

// GetOrCreateDailySummary materializes the (user, date) row with a single
// insert-on-conflict-do-nothing followed by a fetch, so two concurrent first
// writers for the same key both end up with the one persisted row.
func (s *AnalyticsService) GetOrCreateDailySummary(ctx context.Context, userID uuid.UUID, date time.Time) (*models.DailySummary, error) {
	day := dateOnly(date)
	fresh := &models.DailySummary{UserID: userID, SummaryDate: day}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "summary_date"}},
			DoNothing: true,
		}).
		Create(fresh).Error; err != nil {
		return nil, err
	}

	var summary models.DailySummary
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND summary_date = ?", userID, day).
		First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

// UpdateDailySummary applies the provided counters, then recomputes all four
// scores and persists everything atomically with the counter change.
func (s *AnalyticsService) UpdateDailySummary(ctx context.Context, userID uuid.UUID, date time.Time, update DailySummaryUpdate) (*models.DailySummary, error) {
	summary, err := s.GetOrCreateDailySummary(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	update.apply(summary)
	RecalculateScores(summary)

	if err := s.db.WithContext(ctx).Save(summary).Error; err != nil {
		return nil, err
	}
	return summary, nil
}

// GetDailySummary returns (nil, nil) when no row exists for the date.
func (s *AnalyticsService) GetDailySummary(ctx context.Context, userID uuid.UUID, date time.Time) (*models.DailySummary, error) {
	var summary models.DailySummary
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND summary_date = ?", userID, dateOnly(date)).
		First(&summary).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

// ---------- Weekly summary ----------

type WeeklySummary struct {
	WeekStartDate time.Time `json:"week_start_date"`
	WeekEndDate   time.Time `json:"week_end_date"`

	TotalMealsLogged  int     `json:"total_meals_logged"`
	TotalCalories     int     `json:"total_calories"`
	AvgDailyCalories  float64 `json:"avg_daily_calories"`
	AvgDailyProteinG  float64 `json:"avg_daily_protein_g"`
	AvgDailyCarbsG    float64 `json:"avg_daily_carbs_g"`
	AvgDailyFatG      float64 `json:"avg_daily_fat_g"`
	TotalWaterGlasses int     `json:"total_water_glasses"`
	TotalPhotosTaken  int     `json:"total_photos_taken"`

	// Achievement rates divide by days with a summary row, not by 7.
	CalorieGoalAchievementRate       float64 `json:"calorie_goal_achievement_rate"`
	ProteinGoalAchievementRate       float64 `json:"protein_goal_achievement_rate"`
	WaterGoalAchievementRate         float64 `json:"water_goal_achievement_rate"`
	MealFrequencyGoalAchievementRate float64 `json:"meal_frequency_goal_achievement_rate"`

	AvgNutritionScore        float64 `json:"avg_nutrition_score"`
	AvgConsistencyScore      float64 `json:"avg_consistency_score"`
	AvgSocialEngagementScore float64 `json:"avg_social_engagement_score"`
	AvgOverallScore          float64 `json:"avg_overall_score"`

	DailySummaries []models.DailySummary `json:"daily_summaries"`
}

// GetWeeklySummary folds the week's daily rows into totals, per-day-present
// averages and goal achievement rates. A week with no rows returns the
// explicit zero response, not an error.
func (s *AnalyticsService) GetWeeklySummary(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*WeeklySummary, error) {
	start := dateOnly(weekStart)
	end := start.AddDate(0, 0, 6)

	var rows []models.DailySummary
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND summary_date >= ? AND summary_date <= ?", userID, start, end).
		Order("summary_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := &WeeklySummary{
		WeekStartDate:  start,
		WeekEndDate:    end,
		DailySummaries: rows,
	}
	if len(rows) == 0 {
		out.DailySummaries = []models.DailySummary{}
		return out, nil
	}

	var (
		calorieMet, proteinMet, waterMet, mealFreqMet int
		protein, carbs, fat                           float64
		nutrition, consistency, social, overall       float64
	)
	for _, r := range rows {
		out.TotalMealsLogged += r.MealsLogged
		out.TotalCalories += r.TotalCalories
		out.TotalWaterGlasses += r.WaterGlasses
		out.TotalPhotosTaken += r.PhotosTaken
		protein += r.TotalProteinG
		carbs += r.TotalCarbsG
		fat += r.TotalFatG
		nutrition += r.NutritionScore
		consistency += r.ConsistencyScore
		social += r.SocialEngagementScore
		overall += r.OverallScore
		if r.CalorieGoalMet {
			calorieMet++
		}
		if r.ProteinGoalMet {
			proteinMet++
		}
		if r.WaterGoalMet {
			waterMet++
		}
		if r.MealFrequencyGoalMet {
			mealFreqMet++
		}
	}

	days := len(rows)
	out.AvgDailyCalories = avg(float64(out.TotalCalories), days)
	out.AvgDailyProteinG = avg(protein, days)
	out.AvgDailyCarbsG = avg(carbs, days)
	out.AvgDailyFatG = avg(fat, days)
	out.CalorieGoalAchievementRate = rate(calorieMet, days)
	out.ProteinGoalAchievementRate = rate(proteinMet, days)
	out.WaterGoalAchievementRate = rate(waterMet, days)
	out.MealFrequencyGoalAchievementRate = rate(mealFreqMet, days)
	out.AvgNutritionScore = avg(nutrition, days)
	out.AvgConsistencyScore = avg(consistency, days)
	out.AvgSocialEngagementScore = avg(social, days)
	out.AvgOverallScore = avg(overall, days)

	return out, nil
}

// ---------- Monthly summary ----------

type MonthlySummary struct {
	Month int `json:"month"`
	Year  int `json:"year"`

	TotalMealsLogged int     `json:"total_meals_logged"`
	TotalDaysActive  int     `json:"total_days_active"`
	AvgDailyCalories float64 `json:"avg_daily_calories"`
	TotalPhotosTaken int     `json:"total_photos_taken"`

	BestNutritionScore     float64 `json:"best_nutrition_score"`
	BestConsistencyScore   float64 `json:"best_consistency_score"`
	LongestStreakThisMonth int     `json:"longest_streak_this_month"`

	CalorieGoalAchievementRate float64 `json:"calorie_goal_achievement_rate"`
	ProteinGoalAchievementRate float64 `json:"protein_goal_achievement_rate"`
	WaterGoalAchievementRate   float64 `json:"water_goal_achievement_rate"`

	// Percentage change against the previous month; zero when the previous
	// month has no data.
	CaloriesTrend float64 `json:"calories_trend"`
	MealsTrend    float64 `json:"meals_trend"`
	ScoreTrend    float64 `json:"score_trend"`
}

func (s *AnalyticsService) GetMonthlySummary(ctx context.Context, userID uuid.UUID, year int, month time.Month) (*MonthlySummary, error) {
	cur, err := s.monthRollup(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	prevStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	prev, err := s.monthRollup(ctx, userID, prevStart.Year(), prevStart.Month())
	if err != nil {
		return nil, err
	}

	cur.CaloriesTrend = trend(cur.AvgDailyCalories, prev.AvgDailyCalories)
	cur.MealsTrend = trend(float64(cur.TotalMealsLogged), float64(prev.TotalMealsLogged))
	cur.ScoreTrend = trend(cur.avgOverall, prev.avgOverall)

	return &cur.MonthlySummary, nil
}

type monthRollup struct {
	MonthlySummary
	avgOverall float64
}

func (s *AnalyticsService) monthRollup(ctx context.Context, userID uuid.UUID, year int, month time.Month) (*monthRollup, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	var rows []models.DailySummary
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND summary_date >= ? AND summary_date <= ?", userID, start, end).
		Order("summary_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := &monthRollup{}
	out.Year = year
	out.Month = int(month)
	if len(rows) == 0 {
		return out, nil
	}

	var (
		calories                         int
		calorieMet, proteinMet, waterMet int
		overall                          float64
		streak, longest                  int
		prevDate                         time.Time
	)
	for _, r := range rows {
		out.TotalMealsLogged += r.MealsLogged
		out.TotalPhotosTaken += r.PhotosTaken
		calories += r.TotalCalories
		overall += r.OverallScore
		if r.MealsLogged > 0 {
			out.TotalDaysActive++
			if !prevDate.IsZero() && dateOnly(r.SummaryDate).Sub(prevDate) == 24*time.Hour {
				streak++
			} else {
				streak = 1
			}
			prevDate = dateOnly(r.SummaryDate)
		} else {
			streak = 0
			prevDate = time.Time{}
		}
		if streak > longest {
			longest = streak
		}
		if r.NutritionScore > out.BestNutritionScore {
			out.BestNutritionScore = r.NutritionScore
		}
		if r.ConsistencyScore > out.BestConsistencyScore {
			out.BestConsistencyScore = r.ConsistencyScore
		}
		if r.CalorieGoalMet {
			calorieMet++
		}
		if r.ProteinGoalMet {
			proteinMet++
		}
		if r.WaterGoalMet {
			waterMet++
		}
	}

	days := len(rows)
	out.LongestStreakThisMonth = longest
	out.AvgDailyCalories = avg(float64(calories), days)
	out.CalorieGoalAchievementRate = rate(calorieMet, days)
	out.ProteinGoalAchievementRate = rate(proteinMet, days)
	out.WaterGoalAchievementRate = rate(waterMet, days)
	out.avgOverall = avg(overall, days)

	return out, nil
}

// ---------- User progress ----------

// GetUserProgress lazily materializes a zero-valued row on first read, with
// the same on-conflict upsert used for daily summaries. Streak and lifetime
// fields are read-only through this surface.
func (s *AnalyticsService) GetUserProgress(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	fresh := &models.UserProgress{UserID: userID}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(fresh).Error; err != nil {
		return nil, err
	}

	var progress models.UserProgress
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// ---------- Insights ----------

const (
	InsightStreak      = "streak"
	InsightImprovement = "improvement"
)

type Insight struct {
	InsightType       string         `json:"insight_type"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Data              map[string]any `json:"data,omitempty"`
	ActionRecommended string         `json:"action_recommended,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// GenerateInsights scans the last 30 days of summaries in descending date
// order. A streak insight (if any) always precedes an improvement insight.
func (s *AnalyticsService) GenerateInsights(ctx context.Context, userID uuid.UUID) ([]Insight, error) {
	insights := []Insight{}

	today := dateOnly(time.Now().UTC())
	start := today.AddDate(0, 0, -30)

	var recent []models.DailySummary
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND summary_date >= ? AND summary_date <= ?", userID, start, today).
		Order("summary_date DESC").
		Find(&recent).Error; err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return insights, nil
	}

	// A day extends the streak only if it is exactly today-i and has at
	// least one meal logged; any gap breaks the walk immediately.
	consecutive := 0
	for i, summary := range recent {
		expected := today.AddDate(0, 0, -i)
		if dateOnly(summary.SummaryDate).Equal(expected) && summary.MealsLogged > 0 {
			consecutive++
		} else {
			break
		}
	}

	now := time.Now().UTC()
	if consecutive >= 7 {
		insights = append(insights, Insight{
			InsightType:       InsightStreak,
			Title:             fmt.Sprintf("Amazing %d-Day Streak!", consecutive),
			Description:       fmt.Sprintf("You've been consistently logging meals for %d days straight. Keep up the excellent work!", consecutive),
			Data:              map[string]any{"streak_days": consecutive},
			ActionRecommended: "Continue your streak by logging your next meal",
			CreatedAt:         now,
		})
	} else if consecutive >= 3 {
		insights = append(insights, Insight{
			InsightType:       InsightStreak,
			Title:             fmt.Sprintf("Great %d-Day Streak!", consecutive),
			Description:       fmt.Sprintf("You're building a healthy habit! %d days of consistent logging.", consecutive),
			Data:              map[string]any{"streak_days": consecutive},
			ActionRecommended: "Keep going! Try to reach a full week",
			CreatedAt:         now,
		})
	}

	if len(recent) >= 14 {
		recentWeek := recent[:7]
		previousWeek := recent[7:14]

		var recentSum, previousSum float64
		for _, r := range recentWeek {
			recentSum += r.NutritionScore
		}
		for _, r := range previousWeek {
			previousSum += r.NutritionScore
		}
		recentAvg := recentSum / float64(len(recentWeek))
		previousAvg := previousSum / float64(len(previousWeek))
		improvement := recentAvg - previousAvg

		if improvement >= 5 {
			insights = append(insights, Insight{
				InsightType: InsightImprovement,
				Title:       "Nutrition Score Improving!",
				Description: fmt.Sprintf("Your nutrition score improved by %.1f points this week compared to last week.", improvement),
				Data: map[string]any{
					"recent_score":   recentAvg,
					"previous_score": previousAvg,
					"improvement":    improvement,
				},
				ActionRecommended: "Keep focusing on balanced meals to maintain this trend",
				CreatedAt:         now,
			})
		}
	}

	return insights, nil
}

// ---------- Achievements & combined stats ----------

func (s *AnalyticsService) ListAchievements(ctx context.Context, userID uuid.UUID, limit int) ([]models.Achievement, error) {
	if limit <= 0 {
		limit = 20
	}
	var achievements []models.Achievement
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Limit(limit).
		Find(&achievements).Error
	return achievements, err
}

type AnalyticsStats struct {
	TodaySummary       *models.DailySummary `json:"today_summary"`
	ThisWeekSummary    *WeeklySummary       `json:"this_week_summary"`
	ThisMonthSummary   *MonthlySummary      `json:"this_month_summary"`
	UserProgress       *models.UserProgress `json:"user_progress"`
	RecentAchievements []models.Achievement `json:"recent_achievements"`
	Insights           []Insight            `json:"insights"`
}

// GetStats assembles the dashboard view: today, this week, this month,
// progress, recent achievements and insights in one response.
func (s *AnalyticsService) GetStats(ctx context.Context, userID uuid.UUID) (*AnalyticsStats, error) {
	now := time.Now().UTC()
	today := dateOnly(now)

	todaySummary, err := s.GetDailySummary(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	week, err := s.GetWeeklySummary(ctx, userID, StartOfWeek(today))
	if err != nil {
		return nil, err
	}
	month, err := s.GetMonthlySummary(ctx, userID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	progress, err := s.GetUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	achievements, err := s.ListAchievements(ctx, userID, 5)
	if err != nil {
		return nil, err
	}
	insights, err := s.GenerateInsights(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &AnalyticsStats{
		TodaySummary:       todaySummary,
		ThisWeekSummary:    week,
		ThisMonthSummary:   month,
		UserProgress:       progress,
		RecentAchievements: achievements,
		Insights:           insights,
	}, nil
}

// ---------- helpers ----------

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfWeek returns the Monday of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return dateOnly(t).AddDate(0, 0, -(wd - 1))
}

func avg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func rate(met, days int) float64 {
	if days <= 0 {
		return 0
	}
	return round2(float64(met) / float64(days) * 100)
}

func trend(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return round2((cur - prev) / prev * 100)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
