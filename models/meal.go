package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeDinner    = "dinner"
	MealTypeSnack     = "snack"
)

type Meal struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	MealType  string    `gorm:"size:20;not null" json:"meal_type"` // breakfast|lunch|dinner|snack
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	// Nutrition, all optional
	Calories *int     `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
	Sodium   *float64 `json:"sodium,omitempty"`
	Water    *float64 `json:"water,omitempty"`

	Notes          string         `json:"notes,omitempty"`
	IsVerified     bool           `gorm:"default:false" json:"is_verified"`
	Location       datatypes.JSON `json:"location,omitempty"`
	LocationName   string         `gorm:"size:255" json:"location_name,omitempty"`
	RestaurantName string         `gorm:"size:255" json:"restaurant_name,omitempty"`

	Photos      []MealPhoto      `gorm:"constraint:OnDelete:CASCADE" json:"photos"`
	Ingredients []MealIngredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredients"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *Meal) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type MealPhoto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MealID       uuid.UUID `gorm:"type:uuid;index;not null" json:"meal_id"`
	PhotoURL     string    `gorm:"not null" json:"photo_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	FileSize     int       `json:"file_size,omitempty"` // bytes
	MimeType     string    `gorm:"size:50" json:"mime_type,omitempty"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p *MealPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type MealIngredient struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MealID             uuid.UUID `gorm:"type:uuid;index;not null" json:"meal_id"`
	IngredientName     string    `gorm:"size:255;not null" json:"ingredient_name"`
	Quantity           *float64  `json:"quantity,omitempty"`
	Unit               string    `gorm:"size:50" json:"unit,omitempty"`
	CaloriesPerServing *float64  `json:"calories_per_serving,omitempty"`
	DisplayOrder       int       `gorm:"default:0" json:"display_order"`
	CreatedAt          time.Time `json:"created_at"`
}

func (i *MealIngredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
