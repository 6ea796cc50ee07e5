package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zzoohub/meallog/models"
)

const maxSendBatchUsers = 1000

type NotificationService struct {
	db  *gorm.DB
	hub *RealtimeHub
}

func NewNotificationService(db *gorm.DB, hub *RealtimeHub) *NotificationService {
	return &NotificationService{db: db, hub: hub}
}

var notificationTypes = map[string]bool{
	models.NotificationMealReminder:       true,
	models.NotificationGoalAchievement:    true,
	models.NotificationSocialLike:         true,
	models.NotificationSocialComment:      true,
	models.NotificationSocialFollow:       true,
	models.NotificationStreakMilestone:    true,
	models.NotificationWeeklySummary:      true,
	models.NotificationAIInsight:          true,
	models.NotificationSystemAnnouncement: true,
}

// ---------- Push tokens ----------

type PushTokenRegisterRequest struct {
	Platform   string `json:"platform" binding:"required"`
	Token      string `json:"token" binding:"required"`
	DeviceID   string `json:"device_id,omitempty"`
	AppVersion string `json:"app_version,omitempty"`
}

var pushPlatforms = map[string]bool{"ios": true, "android": true, "web": true}

// RegisterPushToken upserts the token for (user, platform).
func (s *NotificationService) RegisterPushToken(ctx context.Context, userID uuid.UUID, req PushTokenRegisterRequest) (*models.PushToken, error) {
	if !pushPlatforms[req.Platform] {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrBadRequest, req.Platform)
	}
	token := &models.PushToken{
		UserID:     userID,
		Platform:   req.Platform,
		Token:      req.Token,
		DeviceID:   req.DeviceID,
		AppVersion: req.AppVersion,
		IsActive:   true,
		LastUsedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"token", "device_id", "app_version", "is_active", "last_used_at", "updated_at",
			}),
		}).
		Create(token).Error
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *NotificationService) DeactivatePushToken(ctx context.Context, userID uuid.UUID, platform string) error {
	return s.db.WithContext(ctx).
		Model(&models.PushToken{}).
		Where("user_id = ? AND platform = ?", userID, platform).
		Update("is_active", false).Error
}

// ---------- Notifications ----------

type NotificationCreateRequest struct {
	NotificationType string         `json:"notification_type" binding:"required"`
	Title            string         `json:"title" binding:"required"`
	Body             string         `json:"body" binding:"required"`
	Data             datatypes.JSON `json:"data,omitempty"`
	ScheduledFor     *time.Time     `json:"scheduled_for,omitempty"`
}

// CreateNotification persists the notification; immediate ones (no schedule)
// are queued for the delivery worker right away.
func (s *NotificationService) CreateNotification(ctx context.Context, userID uuid.UUID, req NotificationCreateRequest) (*models.Notification, error) {
	if !notificationTypes[req.NotificationType] {
		return nil, fmt.Errorf("%w: unknown notification type %q", ErrBadRequest, req.NotificationType)
	}
	notification := &models.Notification{
		UserID:           userID,
		NotificationType: req.NotificationType,
		Title:            req.Title,
		Body:             req.Body,
		Data:             req.Data,
		ScheduledFor:     req.ScheduledFor,
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, err
	}

	scheduledFor := time.Now().UTC()
	if req.ScheduledFor != nil {
		scheduledFor = req.ScheduledFor.UTC()
	}
	queueItem := &models.NotificationQueue{
		NotificationID: notification.ID,
		Status:         models.QueueStatusPending,
		ScheduledFor:   scheduledFor,
	}
	if err := s.db.WithContext(ctx).Create(queueItem).Error; err != nil {
		return nil, err
	}

	return notification, nil
}

type SendNotificationRequest struct {
	UserIDs          []uuid.UUID    `json:"user_ids" binding:"required"`
	NotificationType string         `json:"notification_type" binding:"required"`
	Title            string         `json:"title" binding:"required"`
	Body             string         `json:"body" binding:"required"`
	Data             datatypes.JSON `json:"data,omitempty"`
}

type DeliveryReport struct {
	TotalRecipients      int         `json:"total_recipients"`
	SuccessfulDeliveries int         `json:"successful_deliveries"`
	FailedDeliveries     int         `json:"failed_deliveries"`
	NotificationIDs      []uuid.UUID `json:"notification_ids"`
}

// SendToUsers fans one notification out to many users.
func (s *NotificationService) SendToUsers(ctx context.Context, req SendNotificationRequest) (*DeliveryReport, error) {
	if len(req.UserIDs) > maxSendBatchUsers {
		return nil, fmt.Errorf("%w: maximum %d users allowed per batch", ErrBadRequest, maxSendBatchUsers)
	}
	report := &DeliveryReport{TotalRecipients: len(req.UserIDs)}
	for _, userID := range req.UserIDs {
		n, err := s.CreateNotification(ctx, userID, NotificationCreateRequest{
			NotificationType: req.NotificationType,
			Title:            req.Title,
			Body:             req.Body,
			Data:             req.Data,
		})
		if err != nil {
			logError("notification fan-out failed", "user", userID, "err", err)
			report.FailedDeliveries++
			continue
		}
		report.NotificationIDs = append(report.NotificationIDs, n.ID)
		report.SuccessfulDeliveries++
	}
	return report, nil
}

type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	TotalCount    int64                 `json:"total_count"`
	UnreadCount   int64                 `json:"unread_count"`
	HasMore       bool                  `json:"has_more"`
}

func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) (*NotificationList, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	base := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("is_read = ?", false)
	}

	out := &NotificationList{Notifications: []models.Notification{}}
	if err := base.Count(&out.TotalCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&out.UnreadCount).Error; err != nil {
		return nil, err
	}
	if err := base.Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out.Notifications).Error; err != nil {
		return nil, err
	}
	out.HasMore = int64(offset+limit) < out.TotalCount
	return out, nil
}

type NotificationUpdateRequest struct {
	IsRead    *bool `json:"is_read,omitempty"`
	IsClicked *bool `json:"is_clicked,omitempty"`
}

func (s *NotificationService) UpdateNotification(ctx context.Context, userID, notificationID uuid.UUID, update NotificationUpdateRequest) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: notification %s", ErrNotFound, notificationID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	if update.IsRead != nil {
		notification.IsRead = *update.IsRead
		if *update.IsRead && notification.ReadAt == nil {
			notification.ReadAt = &now
		}
	}
	if update.IsClicked != nil {
		notification.IsClicked = *update.IsClicked
		if *update.IsClicked && notification.ClickedAt == nil {
			notification.ClickedAt = &now
		}
	}
	if err := s.db.WithContext(ctx).Save(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// BulkMarkRead marks the given notifications (or all unread when ids is
// empty) as read and returns the affected count.
func (s *NotificationService) BulkMarkRead(ctx context.Context, userID uuid.UUID, notificationIDs []uuid.UUID) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false)
	if len(notificationIDs) > 0 {
		q = q.Where("id IN ?", notificationIDs)
	}
	res := q.Updates(map[string]any{
		"is_read": true,
		"read_at": time.Now().UTC(),
	})
	return res.RowsAffected, res.Error
}

func (s *NotificationService) DeleteNotification(ctx context.Context, userID, notificationID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification %s", ErrNotFound, notificationID)
	}
	return nil
}

type NotificationStats struct {
	TotalNotifications       int64            `json:"total_notifications"`
	UnreadCount              int64            `json:"unread_count"`
	DeliveredCount           int64            `json:"delivered_count"`
	ClickedCount             int64            `json:"clicked_count"`
	TypeBreakdown            map[string]int64 `json:"type_breakdown"`
	RecentNotificationsCount int64            `json:"recent_notifications_count"`
	AvgDailyNotifications    float64          `json:"avg_daily_notifications"`
}

func (s *NotificationService) GetStats(ctx context.Context, userID uuid.UUID) (*NotificationStats, error) {
	db := s.db.WithContext(ctx).Model(&models.Notification{})
	stats := &NotificationStats{TypeBreakdown: map[string]int64{}}

	if err := db.Where("user_id = ?", userID).Count(&stats.TotalNotifications).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&stats.UnreadCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_delivered = ?", userID, true).
		Count(&stats.DeliveredCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_clicked = ?", userID, true).
		Count(&stats.ClickedCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND created_at >= ?", userID, time.Now().UTC().AddDate(0, 0, -7)).
		Count(&stats.RecentNotificationsCount).Error; err != nil {
		return nil, err
	}
	stats.AvgDailyNotifications = round2(float64(stats.RecentNotificationsCount) / 7.0)

	type typeCount struct {
		NotificationType string
		Count            int64
	}
	var rows []typeCount
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Select("notification_type, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("notification_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.TypeBreakdown[r.NotificationType] = r.Count
	}

	return stats, nil
}

// ---------- Templates ----------

type RenderTemplateRequest struct {
	TemplateKey string         `json:"template_key" binding:"required"`
	Language    string         `json:"language,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
}

type RenderedTemplate struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// RenderTemplate substitutes {var} placeholders into the stored template.
func (s *NotificationService) RenderTemplate(ctx context.Context, req RenderTemplateRequest) (*RenderedTemplate, error) {
	language := req.Language
	if language == "" {
		language = "en"
	}
	var template models.NotificationTemplate
	err := s.db.WithContext(ctx).
		Where("template_key = ? AND language = ? AND is_active = ?", req.TemplateKey, language, true).
		First(&template).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: template %q", ErrNotFound, req.TemplateKey)
		}
		return nil, err
	}

	title := template.TitleTemplate
	body := template.BodyTemplate
	for key, value := range req.Variables {
		placeholder := "{" + key + "}"
		title = strings.ReplaceAll(title, placeholder, fmt.Sprint(value))
		body = strings.ReplaceAll(body, placeholder, fmt.Sprint(value))
	}

	return &RenderedTemplate{Title: title, Body: body}, nil
}

// ---------- Queue delivery ----------

type QueueReport struct {
	Processed int `json:"processed"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// ProcessQueue drains due pending queue rows in one batch. Delivery is
// simulated: the notification is marked delivered and broadcast to the
// user's open websocket connections. Failures retry up to max_retries.
func (s *NotificationService) ProcessQueue(ctx context.Context, batchSize int) (*QueueReport, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	var items []models.NotificationQueue
	if err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", models.QueueStatusPending, time.Now().UTC()).
		Order("scheduled_for ASC").
		Limit(batchSize).
		Find(&items).Error; err != nil {
		return nil, err
	}

	report := &QueueReport{Processed: len(items)}
	for i := range items {
		item := &items[i]
		if err := s.deliver(ctx, item); err != nil {
			logError("notification delivery failed", "queue_item", item.ID, "err", err)
			item.RetryCount++
			if item.RetryCount >= item.MaxRetries {
				item.Status = models.QueueStatusFailed
				item.ErrorMessage = err.Error()
			}
			now := time.Now().UTC()
			item.ProcessedAt = &now
			if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
				return nil, err
			}
			report.Failed++
			continue
		}
		report.Delivered++
	}
	return report, nil
}

func (s *NotificationService) deliver(ctx context.Context, item *models.NotificationQueue) error {
	var notification models.Notification
	if err := s.db.WithContext(ctx).
		First(&notification, "id = ?", item.NotificationID).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	notification.IsDelivered = true
	notification.DeliveredAt = &now
	notification.DeliveryAttempts++
	notification.LastDeliveryAttempt = &now
	if err := s.db.WithContext(ctx).Save(&notification).Error; err != nil {
		return err
	}

	item.Status = models.QueueStatusSent
	item.ProcessedAt = &now
	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Broadcast(notification.UserID, map[string]any{
			"kind":         "notification.delivered",
			"notification": notification,
		})
	}
	return nil
}
