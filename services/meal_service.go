package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zzoohub/meallog/models"
)

type MealService struct {
	db        *gorm.DB
	analytics *AnalyticsService
	users     *UserService
}

func NewMealService(db *gorm.DB, analytics *AnalyticsService, users *UserService) *MealService {
	return &MealService{db: db, analytics: analytics, users: users}
}

type MealPhotoRequest struct {
	PhotoURL     string `json:"photo_url" binding:"required"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	FileSize     int    `json:"file_size,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	DisplayOrder int    `json:"display_order,omitempty"`
}

type MealIngredientRequest struct {
	IngredientName     string   `json:"ingredient_name" binding:"required"`
	Quantity           *float64 `json:"quantity,omitempty"`
	Unit               string   `json:"unit,omitempty"`
	CaloriesPerServing *float64 `json:"calories_per_serving,omitempty"`
	DisplayOrder       int      `json:"display_order,omitempty"`
}

type MealCreateRequest struct {
	Name           string                  `json:"name" binding:"required"`
	MealType       string                  `json:"meal_type" binding:"required"`
	Timestamp      time.Time               `json:"timestamp" binding:"required"`
	Calories       *int                    `json:"calories,omitempty"`
	Protein        *float64                `json:"protein,omitempty"`
	Carbs          *float64                `json:"carbs,omitempty"`
	Fat            *float64                `json:"fat,omitempty"`
	Fiber          *float64                `json:"fiber,omitempty"`
	Sugar          *float64                `json:"sugar,omitempty"`
	Sodium         *float64                `json:"sodium,omitempty"`
	Water          *float64                `json:"water,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	Location       datatypes.JSON          `json:"location,omitempty"`
	LocationName   string                  `json:"location_name,omitempty"`
	RestaurantName string                  `json:"restaurant_name,omitempty"`
	Photos         []MealPhotoRequest      `json:"photos,omitempty"`
	Ingredients    []MealIngredientRequest `json:"ingredients,omitempty"`
}

var mealTypes = map[string]bool{
	models.MealTypeBreakfast: true,
	models.MealTypeLunch:     true,
	models.MealTypeDinner:    true,
	models.MealTypeSnack:     true,
}

func (s *MealService) CreateMeal(ctx context.Context, userID uuid.UUID, req MealCreateRequest) (*models.Meal, error) {
	if !mealTypes[req.MealType] {
		return nil, fmt.Errorf("%w: unknown meal type %q", ErrBadRequest, req.MealType)
	}

	meal := &models.Meal{
		UserID:         userID,
		Name:           req.Name,
		MealType:       req.MealType,
		Timestamp:      req.Timestamp,
		Calories:       req.Calories,
		Protein:        req.Protein,
		Carbs:          req.Carbs,
		Fat:            req.Fat,
		Fiber:          req.Fiber,
		Sugar:          req.Sugar,
		Sodium:         req.Sodium,
		Water:          req.Water,
		Notes:          req.Notes,
		Location:       req.Location,
		LocationName:   req.LocationName,
		RestaurantName: req.RestaurantName,
	}
	for i, p := range req.Photos {
		order := p.DisplayOrder
		if order == 0 {
			order = i
		}
		meal.Photos = append(meal.Photos, models.MealPhoto{
			PhotoURL:     p.PhotoURL,
			ThumbnailURL: p.ThumbnailURL,
			Width:        p.Width,
			Height:       p.Height,
			FileSize:     p.FileSize,
			MimeType:     p.MimeType,
			DisplayOrder: order,
		})
	}
	for i, ing := range req.Ingredients {
		order := ing.DisplayOrder
		if order == 0 {
			order = i
		}
		meal.Ingredients = append(meal.Ingredients, models.MealIngredient{
			IngredientName:     ing.IngredientName,
			Quantity:           ing.Quantity,
			Unit:               ing.Unit,
			CaloriesPerServing: ing.CaloriesPerServing,
			DisplayOrder:       order,
		})
	}

	if err := s.db.WithContext(ctx).Create(meal).Error; err != nil {
		return nil, err
	}

	if err := s.syncDailySummary(ctx, userID, meal.Timestamp); err != nil {
		return nil, err
	}

	return s.GetMeal(ctx, userID, meal.ID)
}

func (s *MealService) GetMeal(ctx context.Context, userID, mealID uuid.UUID) (*models.Meal, error) {
	var meal models.Meal
	err := s.db.WithContext(ctx).
		Preload("Photos").
		Preload("Ingredients").
		Where("id = ? AND user_id = ?", mealID, userID).
		First(&meal).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: meal %s", ErrNotFound, mealID)
		}
		return nil, err
	}
	return &meal, nil
}

type MealUpdateRequest struct {
	Name           *string    `json:"name,omitempty"`
	MealType       *string    `json:"meal_type,omitempty"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
	Calories       *int       `json:"calories,omitempty"`
	Protein        *float64   `json:"protein,omitempty"`
	Carbs          *float64   `json:"carbs,omitempty"`
	Fat            *float64   `json:"fat,omitempty"`
	Fiber          *float64   `json:"fiber,omitempty"`
	Sugar          *float64   `json:"sugar,omitempty"`
	Sodium         *float64   `json:"sodium,omitempty"`
	Water          *float64   `json:"water,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	LocationName   *string    `json:"location_name,omitempty"`
	RestaurantName *string    `json:"restaurant_name,omitempty"`
}

func (s *MealService) UpdateMeal(ctx context.Context, userID, mealID uuid.UUID, update MealUpdateRequest) (*models.Meal, error) {
	meal, err := s.GetMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}

	oldDate := meal.Timestamp
	if update.Name != nil {
		meal.Name = *update.Name
	}
	if update.MealType != nil {
		if !mealTypes[*update.MealType] {
			return nil, fmt.Errorf("%w: unknown meal type %q", ErrBadRequest, *update.MealType)
		}
		meal.MealType = *update.MealType
	}
	if update.Timestamp != nil {
		meal.Timestamp = *update.Timestamp
	}
	if update.Calories != nil {
		meal.Calories = update.Calories
	}
	if update.Protein != nil {
		meal.Protein = update.Protein
	}
	if update.Carbs != nil {
		meal.Carbs = update.Carbs
	}
	if update.Fat != nil {
		meal.Fat = update.Fat
	}
	if update.Fiber != nil {
		meal.Fiber = update.Fiber
	}
	if update.Sugar != nil {
		meal.Sugar = update.Sugar
	}
	if update.Sodium != nil {
		meal.Sodium = update.Sodium
	}
	if update.Water != nil {
		meal.Water = update.Water
	}
	if update.Notes != nil {
		meal.Notes = *update.Notes
	}
	if update.LocationName != nil {
		meal.LocationName = *update.LocationName
	}
	if update.RestaurantName != nil {
		meal.RestaurantName = *update.RestaurantName
	}

	if err := s.db.WithContext(ctx).Save(meal).Error; err != nil {
		return nil, err
	}

	if err := s.syncDailySummary(ctx, userID, meal.Timestamp); err != nil {
		return nil, err
	}
	// A timestamp move leaves stale counters on the old date.
	if !dateOnly(oldDate).Equal(dateOnly(meal.Timestamp)) {
		if err := s.syncDailySummary(ctx, userID, oldDate); err != nil {
			return nil, err
		}
	}

	return s.GetMeal(ctx, userID, mealID)
}

func (s *MealService) DeleteMeal(ctx context.Context, userID, mealID uuid.UUID) error {
	meal, err := s.GetMeal(ctx, userID, mealID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(meal).Error; err != nil {
		return err
	}
	return s.syncDailySummary(ctx, userID, meal.Timestamp)
}

func (s *MealService) ListMeals(ctx context.Context, userID uuid.UUID, mealType string, from, to *time.Time, limit, offset int) ([]models.Meal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := s.db.WithContext(ctx).
		Preload("Photos").
		Preload("Ingredients").
		Where("user_id = ?", userID)
	if mealType != "" {
		q = q.Where("meal_type = ?", mealType)
	}
	if from != nil {
		q = q.Where("timestamp >= ?", *from)
	}
	if to != nil {
		q = q.Where("timestamp <= ?", *to)
	}

	var meals []models.Meal
	err := q.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&meals).Error
	return meals, err
}

// DayNutrition is the per-day rollup computed straight from meal rows.
type DayNutrition struct {
	Date           time.Time `json:"date"`
	TotalCalories  int       `json:"total_calories"`
	TotalProteinG  float64   `json:"total_protein_g"`
	TotalCarbsG    float64   `json:"total_carbs_g"`
	TotalFatG      float64   `json:"total_fat_g"`
	TotalFiberG    float64   `json:"total_fiber_g"`
	TotalWater     float64   `json:"total_water"`
	BreakfastCount int       `json:"breakfast_count"`
	LunchCount     int       `json:"lunch_count"`
	DinnerCount    int       `json:"dinner_count"`
	SnackCount     int       `json:"snack_count"`
	TotalMeals     int       `json:"total_meals"`
	PhotosTaken    int       `json:"photos_taken"`
}

func (s *MealService) GetDayNutrition(ctx context.Context, userID uuid.UUID, date time.Time) (*DayNutrition, error) {
	day := dateOnly(date)
	next := day.AddDate(0, 0, 1)

	var meals []models.Meal
	if err := s.db.WithContext(ctx).
		Preload("Photos").
		Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, day, next).
		Find(&meals).Error; err != nil {
		return nil, err
	}

	out := &DayNutrition{Date: day, TotalMeals: len(meals)}
	for _, m := range meals {
		if m.Calories != nil {
			out.TotalCalories += *m.Calories
		}
		if m.Protein != nil {
			out.TotalProteinG += *m.Protein
		}
		if m.Carbs != nil {
			out.TotalCarbsG += *m.Carbs
		}
		if m.Fat != nil {
			out.TotalFatG += *m.Fat
		}
		if m.Fiber != nil {
			out.TotalFiberG += *m.Fiber
		}
		if m.Water != nil {
			out.TotalWater += *m.Water
		}
		switch m.MealType {
		case models.MealTypeBreakfast:
			out.BreakfastCount++
		case models.MealTypeLunch:
			out.LunchCount++
		case models.MealTypeDinner:
			out.DinnerCount++
		case models.MealTypeSnack:
			out.SnackCount++
		}
		out.PhotosTaken += len(m.Photos)
	}
	return out, nil
}

// syncDailySummary recomputes the analytics daily summary for the date from
// the day's persisted meals and the user's goals, then lets the analytics
// update path re-derive the scores.
func (s *MealService) syncDailySummary(ctx context.Context, userID uuid.UUID, date time.Time) error {
	day, err := s.GetDayNutrition(ctx, userID, date)
	if err != nil {
		return err
	}
	goals, err := s.users.GetGoals(ctx, userID)
	if err != nil {
		return err
	}

	// Macro gram targets derive from the calorie budget and macro split
	// (protein 4 kcal/g).
	proteinTargetG := float64(goals.DailyCalories) * float64(goals.ProteinPercentage) / 100 / 4

	waterGlasses := int(day.TotalWater)

	calorieGoalMet := day.TotalCalories > 0 && day.TotalCalories >= goals.DailyCalories
	proteinGoalMet := proteinTargetG > 0 && day.TotalProteinG >= proteinTargetG
	waterGoalMet := waterGlasses >= goals.WaterGlassesTarget
	mealFreqGoalMet := day.TotalMeals >= goals.MealFrequency

	_, err = s.analytics.UpdateDailySummary(ctx, userID, date, DailySummaryUpdate{
		MealsLogged:          &day.TotalMeals,
		TotalCalories:        &day.TotalCalories,
		TotalProteinG:        &day.TotalProteinG,
		TotalCarbsG:          &day.TotalCarbsG,
		TotalFatG:            &day.TotalFatG,
		TotalFiberG:          &day.TotalFiberG,
		WaterGlasses:         &waterGlasses,
		PhotosTaken:          &day.PhotosTaken,
		CalorieGoalMet:       &calorieGoalMet,
		ProteinGoalMet:       &proteinGoalMet,
		WaterGoalMet:         &waterGoalMet,
		MealFrequencyGoalMet: &mealFreqGoalMet,
	})
	return err
}
