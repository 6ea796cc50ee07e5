package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PrivacyPublic  = "public"
	PrivacyFriends = "friends"
	PrivacyPrivate = "private"
)

type Post struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	MealID        *uuid.UUID `gorm:"type:uuid;index" json:"meal_id,omitempty"`
	Content       string     `json:"content,omitempty"`
	Privacy       string     `gorm:"size:10;default:friends" json:"privacy"` // public|friends|private
	LikesCount    int        `gorm:"default:0" json:"likes_count"`
	CommentsCount int        `gorm:"default:0" json:"comments_count"`
	SharesCount   int        `gorm:"default:0" json:"shares_count"`
	IsFeatured    bool       `gorm:"default:false" json:"is_featured"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PostLike carries a composite primary key so a user can like a post once.
type PostLike struct {
	PostID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type PostComment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PostID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"post_id"`
	UserID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	ParentCommentID *uuid.UUID `gorm:"type:uuid;index" json:"parent_comment_id,omitempty"`
	Content         string     `gorm:"not null" json:"content"`
	LikesCount      int        `gorm:"default:0" json:"likes_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *PostComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type UserFollow struct {
	FollowerID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"follower_id"`
	FollowingID uuid.UUID `gorm:"type:uuid;primaryKey" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}
