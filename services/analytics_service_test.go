package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zzoohub/meallog/models"
	"github.com/zzoohub/meallog/services"
)

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return utcDate(now.Year(), now.Month(), now.Day())
}

func TestGetOrCreateDailySummaryIdempotent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "summary_idempotent")
	ctx := context.Background()

	date := utcDate(2026, 8, 10)
	first, err := svc.GetOrCreateDailySummary(ctx, user.ID, date)
	if err != nil {
		t.Fatalf("first get-or-create: %v", err)
	}
	second, err := svc.GetOrCreateDailySummary(ctx, user.ID, date.Add(13*time.Hour))
	if err != nil {
		t.Fatalf("second get-or-create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one row per (user, date), got ids %s and %s", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&models.DailySummary{}).
		Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count summaries: %v", err)
	}
	if count != 1 {
		t.Fatalf("summary rows = %d, want 1", count)
	}
}

func TestUpdateDailySummaryRecomputesScores(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "summary_scores")
	ctx := context.Background()

	date := utcDate(2026, 8, 11)
	summary, err := svc.UpdateDailySummary(ctx, user.ID, date, services.DailySummaryUpdate{
		MealsLogged:    intPtr(2),
		TotalCalories:  intPtr(1800),
		TotalProteinG:  floatPtr(90),
		TotalCarbsG:    floatPtr(200),
		TotalFatG:      floatPtr(60),
		CalorieGoalMet: boolPtr(true),
		ProteinGoalMet: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("update summary: %v", err)
	}

	// 2 of 4 goals (30) + 2 meals (15) + all macros present (20)
	if summary.NutritionScore != 65 {
		t.Fatalf("nutrition score = %v, want 65", summary.NutritionScore)
	}
	if summary.ConsistencyScore != 70 {
		t.Fatalf("consistency score = %v, want 70", summary.ConsistencyScore)
	}
	if summary.SocialEngagementScore != 0 {
		t.Fatalf("social score = %v, want 0", summary.SocialEngagementScore)
	}
	wantOverall := (65.0 + 70.0 + 0.0) / 3
	if summary.OverallScore != wantOverall {
		t.Fatalf("overall score = %v, want %v", summary.OverallScore, wantOverall)
	}

	// A partial update must leave unmentioned counters intact and rescore.
	summary, err = svc.UpdateDailySummary(ctx, user.ID, date, services.DailySummaryUpdate{
		MealsLogged: intPtr(3),
	})
	if err != nil {
		t.Fatalf("partial update: %v", err)
	}
	if summary.TotalCalories != 1800 {
		t.Fatalf("total calories after partial update = %d, want 1800", summary.TotalCalories)
	}
	if summary.NutritionScore != 70 {
		t.Fatalf("rescored nutrition = %v, want 70", summary.NutritionScore)
	}
	if summary.ConsistencyScore != 100 {
		t.Fatalf("rescored consistency = %v, want 100", summary.ConsistencyScore)
	}
}

func TestGetDailySummaryMissingIsNil(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "summary_missing")

	summary, err := svc.GetDailySummary(context.Background(), user.ID, utcDate(2026, 1, 1))
	if err != nil {
		t.Fatalf("get missing summary: %v", err)
	}
	if summary != nil {
		t.Fatalf("expected nil summary for missing date, got %+v", summary)
	}
}

func TestWeeklySummaryEmptyWeek(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "weekly_empty")

	weekStart := utcDate(2026, 8, 3) // a Monday
	out, err := svc.GetWeeklySummary(context.Background(), user.ID, weekStart)
	if err != nil {
		t.Fatalf("weekly summary: %v", err)
	}
	if !out.WeekStartDate.Equal(weekStart) || !out.WeekEndDate.Equal(weekStart.AddDate(0, 0, 6)) {
		t.Fatalf("week bounds = %v..%v", out.WeekStartDate, out.WeekEndDate)
	}
	if out.TotalMealsLogged != 0 || out.AvgDailyCalories != 0 || out.CalorieGoalAchievementRate != 0 {
		t.Fatalf("empty week should be all zeros, got %+v", out)
	}
	if out.DailySummaries == nil || len(out.DailySummaries) != 0 {
		t.Fatalf("daily summaries should be an empty slice, got %v", out.DailySummaries)
	}
}

func TestWeeklyRatesDivideByDaysPresent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "weekly_rates")
	ctx := context.Background()

	weekStart := utcDate(2026, 8, 3)

	// Three days have rows, two of them with the calorie goal met. The rate
	// divides by days present, not by seven.
	for i, met := range []bool{true, true, false} {
		_, err := svc.UpdateDailySummary(ctx, user.ID, weekStart.AddDate(0, 0, i), services.DailySummaryUpdate{
			MealsLogged:    intPtr(2),
			TotalCalories:  intPtr(1500),
			CalorieGoalMet: boolPtr(met),
		})
		if err != nil {
			t.Fatalf("seed day %d: %v", i, err)
		}
	}

	out, err := svc.GetWeeklySummary(ctx, user.ID, weekStart)
	if err != nil {
		t.Fatalf("weekly summary: %v", err)
	}
	if len(out.DailySummaries) != 3 {
		t.Fatalf("days present = %d, want 3", len(out.DailySummaries))
	}
	if out.CalorieGoalAchievementRate != 66.67 {
		t.Fatalf("calorie rate = %v, want 66.67", out.CalorieGoalAchievementRate)
	}
	if out.TotalMealsLogged != 6 {
		t.Fatalf("total meals = %d, want 6", out.TotalMealsLogged)
	}
	if out.AvgDailyCalories != 1500 {
		t.Fatalf("avg calories = %v, want 1500", out.AvgDailyCalories)
	}
}

func TestGenerateInsightsStreaks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		days      int
		wantTitle string
	}{
		{"seven day streak", 7, "Amazing 7-Day Streak!"},
		{"ten day streak", 10, "Amazing 10-Day Streak!"},
		{"five day streak", 5, "Great 5-Day Streak!"},
		{"three day streak", 3, "Great 3-Day Streak!"},
		{"two days is no streak", 2, ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db := newTestDB(t)
			svc := services.NewAnalyticsService(db)
			user := createTestUser(t, db, "streaks")
			today := todayUTC()

			for i := 0; i < tc.days; i++ {
				row := &models.DailySummary{
					UserID:      user.ID,
					SummaryDate: today.AddDate(0, 0, -i),
					MealsLogged: 2,
				}
				if err := db.Create(row).Error; err != nil {
					t.Fatalf("seed day -%d: %v", i, err)
				}
			}

			insights, err := svc.GenerateInsights(context.Background(), user.ID)
			if err != nil {
				t.Fatalf("generate insights: %v", err)
			}

			var streakTitle string
			for _, in := range insights {
				if in.InsightType == services.InsightStreak {
					streakTitle = in.Title
				}
			}
			if streakTitle != tc.wantTitle {
				t.Fatalf("streak title = %q, want %q", streakTitle, tc.wantTitle)
			}
		})
	}
}

func TestGenerateInsightsGapBreaksStreak(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "streak_gap")
	today := todayUTC()

	// Eight logged days but yesterday is missing, so the walk stops at one.
	offsets := []int{0, 2, 3, 4, 5, 6, 7, 8}
	for _, off := range offsets {
		row := &models.DailySummary{
			UserID:      user.ID,
			SummaryDate: today.AddDate(0, 0, -off),
			MealsLogged: 1,
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed day -%d: %v", off, err)
		}
	}

	insights, err := svc.GenerateInsights(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("generate insights: %v", err)
	}
	for _, in := range insights {
		if in.InsightType == services.InsightStreak {
			t.Fatalf("gap should break the streak, got %q", in.Title)
		}
	}
}

func TestGenerateInsightsZeroMealDayBreaksStreak(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "streak_zero_meal")
	today := todayUTC()

	// A summary row with no meals logged (social-only activity) must not
	// extend the streak.
	for i := 0; i < 5; i++ {
		meals := 2
		if i == 1 {
			meals = 0
		}
		row := &models.DailySummary{
			UserID:      user.ID,
			SummaryDate: today.AddDate(0, 0, -i),
			MealsLogged: meals,
			LikesGiven:  3,
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed day -%d: %v", i, err)
		}
	}

	insights, err := svc.GenerateInsights(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("generate insights: %v", err)
	}
	for _, in := range insights {
		if in.InsightType == services.InsightStreak {
			t.Fatalf("zero-meal day should break the streak, got %q", in.Title)
		}
	}
}

func TestGenerateInsightsStreakPrecedesImprovement(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "insight_order")
	today := todayUTC()

	// 14 logged days ending today: a streak plus a 10-point score jump.
	for i := 0; i < 14; i++ {
		score := 70.0
		if i >= 7 {
			score = 60.0
		}
		row := &models.DailySummary{
			UserID:         user.ID,
			SummaryDate:    today.AddDate(0, 0, -i),
			MealsLogged:    1,
			NutritionScore: score,
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed day -%d: %v", i, err)
		}
	}

	insights, err := svc.GenerateInsights(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("generate insights: %v", err)
	}
	if len(insights) != 2 {
		t.Fatalf("insights = %d, want streak and improvement", len(insights))
	}
	if insights[0].InsightType != services.InsightStreak {
		t.Fatalf("insights[0] = %q, want streak first", insights[0].InsightType)
	}
	if insights[1].InsightType != services.InsightImprovement {
		t.Fatalf("insights[1] = %q, want improvement second", insights[1].InsightType)
	}
}

func TestGenerateInsightsImprovementThreshold(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		recentAvg   float64
		prevAvg     float64
		wantInsight bool
	}{
		{"improved by five", 60, 55, true},
		{"improved by twelve", 72, 60, true},
		{"improved by under five", 59.9, 55, false},
		{"declined", 50, 60, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db := newTestDB(t)
			svc := services.NewAnalyticsService(db)
			user := createTestUser(t, db, "improvement")
			today := todayUTC()

			for i := 0; i < 14; i++ {
				score := tc.recentAvg
				if i >= 7 {
					score = tc.prevAvg
				}
				row := &models.DailySummary{
					UserID:         user.ID,
					SummaryDate:    today.AddDate(0, 0, -i),
					MealsLogged:    1,
					NutritionScore: score,
				}
				if err := db.Create(row).Error; err != nil {
					t.Fatalf("seed day -%d: %v", i, err)
				}
			}

			insights, err := svc.GenerateInsights(context.Background(), user.ID)
			if err != nil {
				t.Fatalf("generate insights: %v", err)
			}

			var improvement *services.Insight
			for i := range insights {
				if insights[i].InsightType == services.InsightImprovement {
					improvement = &insights[i]
				}
			}
			if tc.wantInsight && improvement == nil {
				t.Fatalf("expected improvement insight, got %+v", insights)
			}
			if !tc.wantInsight && improvement != nil {
				t.Fatalf("unexpected improvement insight: %+v", improvement)
			}
			if improvement != nil {
				if improvement.Title != "Nutrition Score Improving!" {
					t.Fatalf("title = %q", improvement.Title)
				}
			}
		})
	}
}

func TestGenerateInsightsNoDataIsEmpty(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "no_data")

	insights, err := svc.GenerateInsights(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("generate insights: %v", err)
	}
	if insights == nil || len(insights) != 0 {
		t.Fatalf("want empty non-nil slice, got %v", insights)
	}
}

func TestTrackEventsBatchLimit(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "batch_limit")
	ctx := context.Background()

	reqs := make([]services.EventCreateRequest, 101)
	for i := range reqs {
		reqs[i] = services.EventCreateRequest{EventType: "app_open", EventCategory: "app"}
	}
	if _, err := svc.TrackEventsBatch(ctx, user.ID, reqs); !errors.Is(err, services.ErrBadRequest) {
		t.Fatalf("oversized batch error = %v, want ErrBadRequest", err)
	}

	events, err := svc.TrackEventsBatch(ctx, user.ID, reqs[:100])
	if err != nil {
		t.Fatalf("full batch: %v", err)
	}
	if len(events) != 100 {
		t.Fatalf("created %d events, want 100", len(events))
	}
}

func TestTrackEventRejectsUnknownCategory(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "bad_category")

	_, err := svc.TrackEvent(context.Background(), user.ID, services.EventCreateRequest{
		EventType:     "something",
		EventCategory: "bogus",
	})
	if !errors.Is(err, services.ErrBadRequest) {
		t.Fatalf("unknown category error = %v, want ErrBadRequest", err)
	}
}

func TestUserProgressLazyCreate(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "progress")
	ctx := context.Background()

	progress, err := svc.GetUserProgress(ctx, user.ID)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if progress.UserID != user.ID {
		t.Fatalf("progress user = %s, want %s", progress.UserID, user.ID)
	}
	if progress.CurrentLoggingStreak != 0 || progress.TotalMealsLogged != 0 {
		t.Fatalf("fresh progress should be zero-valued, got %+v", progress)
	}

	again, err := svc.GetUserProgress(ctx, user.ID)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if !again.CreatedAt.Equal(progress.CreatedAt) {
		t.Fatalf("second read should return the same row")
	}

	var count int64
	if err := db.Model(&models.UserProgress{}).Count(&count).Error; err != nil {
		t.Fatalf("count progress rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("progress rows = %d, want 1", count)
	}
}

func TestMonthlySummaryStreakAndTrend(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewAnalyticsService(db)
	user := createTestUser(t, db, "monthly")
	ctx := context.Background()

	// July: two active days averaging 1000 kcal.
	for _, d := range []int{5, 6} {
		row := &models.DailySummary{
			UserID:        user.ID,
			SummaryDate:   utcDate(2026, 7, d),
			MealsLogged:   2,
			TotalCalories: 1000,
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed july %d: %v", d, err)
		}
	}
	// August: days 10-12 active (streak 3), day 20 active, day 21 a
	// zero-meal row that breaks the streak.
	for _, d := range []int{10, 11, 12, 20} {
		row := &models.DailySummary{
			UserID:        user.ID,
			SummaryDate:   utcDate(2026, 8, d),
			MealsLogged:   3,
			TotalCalories: 2000,
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed august %d: %v", d, err)
		}
	}
	if err := db.Create(&models.DailySummary{
		UserID:      user.ID,
		SummaryDate: utcDate(2026, 8, 21),
	}).Error; err != nil {
		t.Fatalf("seed august 21: %v", err)
	}

	out, err := svc.GetMonthlySummary(ctx, user.ID, 2026, time.August)
	if err != nil {
		t.Fatalf("monthly summary: %v", err)
	}
	if out.TotalDaysActive != 4 {
		t.Fatalf("active days = %d, want 4", out.TotalDaysActive)
	}
	if out.LongestStreakThisMonth != 3 {
		t.Fatalf("longest streak = %d, want 3", out.LongestStreakThisMonth)
	}
	// 8000 kcal over 5 rows vs 1000 avg in July: +60%.
	if out.AvgDailyCalories != 1600 {
		t.Fatalf("avg calories = %v, want 1600", out.AvgDailyCalories)
	}
	if out.CaloriesTrend != 60 {
		t.Fatalf("calories trend = %v, want 60", out.CaloriesTrend)
	}
}
