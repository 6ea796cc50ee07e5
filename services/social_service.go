package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zzoohub/meallog/models"
)

type SocialService struct {
	db            *gorm.DB
	analytics     *AnalyticsService
	notifications *NotificationService
}

func NewSocialService(db *gorm.DB, analytics *AnalyticsService, notifications *NotificationService) *SocialService {
	return &SocialService{db: db, analytics: analytics, notifications: notifications}
}

type PostCreateRequest struct {
	MealID  *uuid.UUID `json:"meal_id,omitempty"`
	Content string     `json:"content,omitempty"`
	Privacy string     `json:"privacy,omitempty"`
}

var privacyLevels = map[string]bool{
	models.PrivacyPublic: true, models.PrivacyFriends: true, models.PrivacyPrivate: true,
}

func (s *SocialService) CreatePost(ctx context.Context, userID uuid.UUID, req PostCreateRequest) (*models.Post, error) {
	privacy := req.Privacy
	if privacy == "" {
		privacy = models.PrivacyFriends
	}
	if !privacyLevels[privacy] {
		return nil, fmt.Errorf("%w: unknown privacy level %q", ErrBadRequest, privacy)
	}
	if req.MealID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Meal{}).
			Where("id = ? AND user_id = ?", *req.MealID, userID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: meal %s", ErrNotFound, *req.MealID)
		}
	}

	post := &models.Post{
		UserID:  userID,
		MealID:  req.MealID,
		Content: req.Content,
		Privacy: privacy,
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}

	if err := s.bumpDailyCounter(ctx, userID, counterPosts); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *SocialService) GetPost(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		return nil, err
	}
	return &post, nil
}

type PostUpdateRequest struct {
	Content *string `json:"content,omitempty"`
	Privacy *string `json:"privacy,omitempty"`
}

func (s *SocialService) UpdatePost(ctx context.Context, userID, postID uuid.UUID, update PostUpdateRequest) (*models.Post, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, fmt.Errorf("%w: you can only edit your own posts", ErrForbidden)
	}
	if update.Content != nil {
		post.Content = *update.Content
	}
	if update.Privacy != nil {
		if !privacyLevels[*update.Privacy] {
			return nil, fmt.Errorf("%w: unknown privacy level %q", ErrBadRequest, *update.Privacy)
		}
		post.Privacy = *update.Privacy
	}
	if err := s.db.WithContext(ctx).Save(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

func (s *SocialService) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return fmt.Errorf("%w: you can only delete your own posts", ErrForbidden)
	}
	return s.db.WithContext(ctx).Delete(post).Error
}

type LikeResult struct {
	Action     string `json:"action"` // liked|unliked
	LikesCount int    `json:"likes_count"`
}

// ToggleLike adds or removes the caller's like. The composite primary key on
// post_likes keeps it at most one per user, and the denormalized count never
// drops below zero.
func (s *SocialService) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (*LikeResult, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	var existing models.PostLike
	err = s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&existing).Error

	switch {
	case err == nil:
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return nil, err
		}
		if post.LikesCount > 0 {
			post.LikesCount--
		}
		if err := s.db.WithContext(ctx).Model(post).Update("likes_count", post.LikesCount).Error; err != nil {
			return nil, err
		}
		return &LikeResult{Action: "unliked", LikesCount: post.LikesCount}, nil

	case err == gorm.ErrRecordNotFound:
		like := &models.PostLike{PostID: postID, UserID: userID}
		if err := s.db.WithContext(ctx).Create(like).Error; err != nil {
			return nil, err
		}
		post.LikesCount++
		if err := s.db.WithContext(ctx).Model(post).Update("likes_count", post.LikesCount).Error; err != nil {
			return nil, err
		}
		if err := s.bumpDailyCounter(ctx, userID, counterLikes); err != nil {
			return nil, err
		}
		s.notifySocial(ctx, post.UserID, userID, models.NotificationSocialLike,
			"New like", "Someone liked your post")
		return &LikeResult{Action: "liked", LikesCount: post.LikesCount}, nil

	default:
		return nil, err
	}
}

type CommentCreateRequest struct {
	Content         string     `json:"content" binding:"required"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id,omitempty"`
}

func (s *SocialService) CreateComment(ctx context.Context, userID, postID uuid.UUID, req CommentCreateRequest) (*models.PostComment, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if req.ParentCommentID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.PostComment{}).
			Where("id = ? AND post_id = ?", *req.ParentCommentID, postID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: parent comment not found", ErrBadRequest)
		}
	}

	comment := &models.PostComment{
		PostID:          postID,
		UserID:          userID,
		ParentCommentID: req.ParentCommentID,
		Content:         req.Content,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}

	post.CommentsCount++
	if err := s.db.WithContext(ctx).Model(post).Update("comments_count", post.CommentsCount).Error; err != nil {
		return nil, err
	}

	if err := s.bumpDailyCounter(ctx, userID, counterComments); err != nil {
		return nil, err
	}
	s.notifySocial(ctx, post.UserID, userID, models.NotificationSocialComment,
		"New comment", "Someone commented on your post")
	return comment, nil
}

func (s *SocialService) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.PostComment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var comments []models.PostComment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	return comments, err
}

func (s *SocialService) FollowUser(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return fmt.Errorf("%w: you cannot follow yourself", ErrBadRequest)
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", followingID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, followingID)
	}

	follow := &models.UserFollow{FollowerID: followerID, FollowingID: followingID}
	if err := s.db.WithContext(ctx).FirstOrCreate(follow,
		models.UserFollow{FollowerID: followerID, FollowingID: followingID}).Error; err != nil {
		return err
	}

	s.notifySocial(ctx, followingID, followerID, models.NotificationSocialFollow,
		"New follower", "Someone started following you")
	return nil
}

func (s *SocialService) UnfollowUser(ctx context.Context, followerID, followingID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.UserFollow{}).Error
}

// GetFeed returns the caller's own posts, posts from followed users, and
// public posts, newest first.
func (s *SocialService) GetFeed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("user_id = ? OR privacy = ? OR user_id IN (?)",
			userID,
			models.PrivacyPublic,
			s.db.Model(&models.UserFollow{}).Select("following_id").Where("follower_id = ?", userID),
		).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

type SocialStats struct {
	UserID                uuid.UUID `json:"user_id"`
	FollowersCount        int64     `json:"followers_count"`
	FollowingCount        int64     `json:"following_count"`
	PostsCount            int64     `json:"posts_count"`
	TotalLikesReceived    int64     `json:"total_likes_received"`
	TotalCommentsReceived int64     `json:"total_comments_received"`
}

func (s *SocialService) GetSocialStats(ctx context.Context, userID uuid.UUID) (*SocialStats, error) {
	stats := &SocialStats{UserID: userID}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.UserFollow{}).Where("following_id = ?", userID).Count(&stats.FollowersCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.UserFollow{}).Where("follower_id = ?", userID).Count(&stats.FollowingCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Post{}).Where("user_id = ?", userID).Count(&stats.PostsCount).Error; err != nil {
		return nil, err
	}

	type sums struct {
		Likes    int64
		Comments int64
	}
	var total sums
	if err := db.Model(&models.Post{}).
		Select("COALESCE(SUM(likes_count),0) as likes, COALESCE(SUM(comments_count),0) as comments").
		Where("user_id = ?", userID).
		Scan(&total).Error; err != nil {
		return nil, err
	}
	stats.TotalLikesReceived = total.Likes
	stats.TotalCommentsReceived = total.Comments

	return stats, nil
}

// ---------- analytics / notification hooks ----------

type socialCounter int

const (
	counterPosts socialCounter = iota
	counterLikes
	counterComments
)

func (s *SocialService) bumpDailyCounter(ctx context.Context, userID uuid.UUID, which socialCounter) error {
	today := time.Now().UTC()
	summary, err := s.analytics.GetOrCreateDailySummary(ctx, userID, today)
	if err != nil {
		return err
	}
	var update DailySummaryUpdate
	switch which {
	case counterPosts:
		n := summary.PostsCreated + 1
		update.PostsCreated = &n
	case counterLikes:
		n := summary.LikesGiven + 1
		update.LikesGiven = &n
	case counterComments:
		n := summary.CommentsMade + 1
		update.CommentsMade = &n
	}
	_, err = s.analytics.UpdateDailySummary(ctx, userID, today, update)
	return err
}

// notifySocial is best-effort: a failed notification never fails the social
// action itself.
func (s *SocialService) notifySocial(ctx context.Context, recipientID, actorID uuid.UUID, notifType, title, body string) {
	if s.notifications == nil || recipientID == actorID {
		return
	}
	_, err := s.notifications.CreateNotification(ctx, recipientID, NotificationCreateRequest{
		NotificationType: notifType,
		Title:            title,
		Body:             body,
	})
	if err != nil {
		logWarn("social notification failed", "recipient", recipientID, "type", notifType, "err", err)
	}
}
