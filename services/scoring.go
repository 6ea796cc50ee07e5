package services

import (
	"math"

	"github.com/zzoohub/meallog/models"
)

// Daily score calculation. All three functions are pure: they read a summary
// snapshot and return a value in [0,100]. The overall score is always the
// unweighted mean of the other three and is recomputed whenever a counter
// changes.

// CalculateNutritionScore weighs goal achievement (60%), logging volume (20%)
// and macro balance (20%).
func CalculateNutritionScore(s *models.DailySummary) float64 {
	score := 0.0

	goalsMet := 0
	for _, met := range []bool{s.CalorieGoalMet, s.ProteinGoalMet, s.WaterGoalMet, s.MealFrequencyGoalMet} {
		if met {
			goalsMet++
		}
	}
	score += float64(goalsMet) / 4 * 60

	switch {
	case s.MealsLogged >= 3:
		score += 20
	case s.MealsLogged >= 2:
		score += 15
	case s.MealsLogged >= 1:
		score += 10
	}

	if s.TotalProteinG > 0 && s.TotalCarbsG > 0 && s.TotalFatG > 0 {
		score += 20
	}

	return math.Min(100, score)
}

// CalculateConsistencyScore is a single-day logging heuristic.
func CalculateConsistencyScore(s *models.DailySummary) float64 {
	switch {
	case s.MealsLogged >= 3:
		return 100
	case s.MealsLogged >= 2:
		return 70
	case s.MealsLogged >= 1:
		return 40
	}
	return 0
}

// CalculateSocialScore caps each interaction type so no single behavior
// dominates: posts 40%, likes 30%, comments 30%.
func CalculateSocialScore(s *models.DailySummary) float64 {
	score := math.Min(40, float64(s.PostsCreated)*20) +
		math.Min(30, float64(s.LikesGiven)*5) +
		math.Min(30, float64(s.CommentsMade)*10)
	return math.Min(100, score)
}

// RecalculateScores writes the three component scores and their mean back
// onto the summary.
func RecalculateScores(s *models.DailySummary) {
	s.NutritionScore = CalculateNutritionScore(s)
	s.ConsistencyScore = CalculateConsistencyScore(s)
	s.SocialEngagementScore = CalculateSocialScore(s)
	s.OverallScore = (s.NutritionScore + s.ConsistencyScore + s.SocialEngagementScore) / 3
}
