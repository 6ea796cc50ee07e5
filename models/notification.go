package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	NotificationMealReminder       = "meal_reminder"
	NotificationGoalAchievement    = "goal_achievement"
	NotificationSocialLike         = "social_like"
	NotificationSocialComment      = "social_comment"
	NotificationSocialFollow       = "social_follow"
	NotificationStreakMilestone    = "streak_milestone"
	NotificationWeeklySummary      = "weekly_summary"
	NotificationAIInsight          = "ai_insight"
	NotificationSystemAnnouncement = "system_announcement"
)

const (
	QueueStatusPending    = "pending"
	QueueStatusProcessing = "processing"
	QueueStatusSent       = "sent"
	QueueStatusFailed     = "failed"
	QueueStatusCancelled  = "cancelled"
)

type PushToken struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Platform   string    `gorm:"size:20;primaryKey" json:"platform"` // ios|android|web
	Token      string    `gorm:"size:500;uniqueIndex;not null" json:"token"`
	DeviceID   string    `gorm:"size:100;index" json:"device_id,omitempty"`
	AppVersion string    `gorm:"size:20" json:"app_version,omitempty"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Notification struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;index:idx_notifications_user_type,priority:1;not null" json:"user_id"`
	NotificationType string         `gorm:"size:50;index:idx_notifications_user_type,priority:2;not null" json:"notification_type"`
	Title            string         `gorm:"size:255;not null" json:"title"`
	Body             string         `gorm:"size:500;not null" json:"body"`
	Data             datatypes.JSON `json:"data,omitempty"`

	ScheduledFor *time.Time `gorm:"index" json:"scheduled_for,omitempty"`
	IsDelivered  bool       `gorm:"default:false;index" json:"is_delivered"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`

	IsRead    bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	IsClicked bool       `gorm:"default:false" json:"is_clicked"`
	ClickedAt *time.Time `json:"clicked_at,omitempty"`

	DeliveryAttempts    int        `gorm:"default:0" json:"delivery_attempts"`
	LastDeliveryAttempt *time.Time `json:"last_delivery_attempt,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type NotificationTemplate struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateKey      string         `gorm:"size:100;uniqueIndex;not null" json:"template_key"`
	NotificationType string         `gorm:"size:50;not null" json:"notification_type"`
	TitleTemplate    string         `gorm:"size:255;not null" json:"title_template"`
	BodyTemplate     string         `gorm:"size:500;not null" json:"body_template"`
	Variables        datatypes.JSON `json:"variables,omitempty"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	Priority         string         `gorm:"size:10;default:normal" json:"priority"` // low|normal|high
	Language         string         `gorm:"size:5;default:en" json:"language"`      // en|ko
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (t *NotificationTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type NotificationQueue struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	NotificationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"notification_id"`
	Status         string     `gorm:"size:20;default:pending;index" json:"status"`
	ScheduledFor   time.Time  `gorm:"index;not null" json:"scheduled_for"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	RetryCount     int        `gorm:"default:0" json:"retry_count"`
	MaxRetries     int        `gorm:"default:3" json:"max_retries"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (q *NotificationQueue) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
