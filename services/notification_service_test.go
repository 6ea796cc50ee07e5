package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zzoohub/meallog/models"
	"github.com/zzoohub/meallog/services"
)

func TestCreateNotificationEnqueuesImmediately(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewNotificationService(db, nil)
	user := createTestUser(t, db, "notif_enqueue")
	ctx := context.Background()

	n, err := svc.CreateNotification(ctx, user.ID, services.NotificationCreateRequest{
		NotificationType: models.NotificationMealReminder,
		Title:            "Lunch time",
		Body:             "Don't forget to log your lunch",
	})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if n.IsDelivered {
		t.Fatalf("notification should not be delivered before the queue runs")
	}

	var item models.NotificationQueue
	if err := db.First(&item, "notification_id = ?", n.ID).Error; err != nil {
		t.Fatalf("queue row missing: %v", err)
	}
	if item.Status != models.QueueStatusPending {
		t.Fatalf("queue status = %q, want pending", item.Status)
	}
	if item.ScheduledFor.After(time.Now().UTC()) {
		t.Fatalf("immediate notification scheduled in the future: %v", item.ScheduledFor)
	}
}

func TestCreateNotificationRejectsUnknownType(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewNotificationService(db, nil)
	user := createTestUser(t, db, "notif_badtype")

	_, err := svc.CreateNotification(context.Background(), user.ID, services.NotificationCreateRequest{
		NotificationType: "carrier_pigeon",
		Title:            "x",
		Body:             "y",
	})
	if !errors.Is(err, services.ErrBadRequest) {
		t.Fatalf("unknown type error = %v, want ErrBadRequest", err)
	}
}

func TestSendToUsersFansOut(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewNotificationService(db, nil)
	a := createTestUser(t, db, "fanout_a")
	b := createTestUser(t, db, "fanout_b")
	ctx := context.Background()

	report, err := svc.SendToUsers(ctx, services.SendNotificationRequest{
		UserIDs:          []uuid.UUID{a.ID, b.ID},
		NotificationType: models.NotificationGoalAchievement,
		Title:            "New badge",
		Body:             "You earned a badge",
	})
	if err != nil {
		t.Fatalf("send to users: %v", err)
	}
	if report.TotalRecipients != 2 || report.SuccessfulDeliveries != 2 || report.FailedDeliveries != 0 {
		t.Fatalf("report = %+v, want 2 recipients all delivered", report)
	}
	if len(report.NotificationIDs) != 2 {
		t.Fatalf("notification ids = %d, want 2", len(report.NotificationIDs))
	}

	var queued int64
	if err := db.Model(&models.NotificationQueue{}).Count(&queued).Error; err != nil {
		t.Fatalf("count queue: %v", err)
	}
	if queued != 2 {
		t.Fatalf("queue rows = %d, want 2", queued)
	}

	oversized := services.SendNotificationRequest{
		UserIDs:          make([]uuid.UUID, 1001),
		NotificationType: models.NotificationGoalAchievement,
		Title:            "x",
		Body:             "y",
	}
	if _, err := svc.SendToUsers(ctx, oversized); !errors.Is(err, services.ErrBadRequest) {
		t.Fatalf("oversized batch error = %v, want ErrBadRequest", err)
	}
}

func TestProcessQueueDeliversDueItems(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewNotificationService(db, nil)
	user := createTestUser(t, db, "notif_deliver")
	ctx := context.Background()

	due, err := svc.CreateNotification(ctx, user.ID, services.NotificationCreateRequest{
		NotificationType: models.NotificationWeeklySummary,
		Title:            "Your week",
		Body:             "Weekly summary is ready",
	})
	if err != nil {
		t.Fatalf("create due notification: %v", err)
	}

	future := time.Now().UTC().Add(2 * time.Hour)
	scheduled, err := svc.CreateNotification(ctx, user.ID, services.NotificationCreateRequest{
		NotificationType: models.NotificationMealReminder,
		Title:            "Dinner",
		Body:             "Later",
		ScheduledFor:     &future,
	})
	if err != nil {
		t.Fatalf("create scheduled notification: %v", err)
	}

	report, err := svc.ProcessQueue(ctx, 50)
	if err != nil {
		t.Fatalf("process queue: %v", err)
	}
	if report.Processed != 1 || report.Delivered != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v, want 1 processed 1 delivered", report)
	}

	var delivered models.Notification
	if err := db.First(&delivered, "id = ?", due.ID).Error; err != nil {
		t.Fatalf("reload due notification: %v", err)
	}
	if !delivered.IsDelivered || delivered.DeliveredAt == nil {
		t.Fatalf("due notification not marked delivered: %+v", delivered)
	}

	var item models.NotificationQueue
	if err := db.First(&item, "notification_id = ?", due.ID).Error; err != nil {
		t.Fatalf("reload queue row: %v", err)
	}
	if item.Status != models.QueueStatusSent || item.ProcessedAt == nil {
		t.Fatalf("queue row = %+v, want sent", item)
	}

	var pending models.NotificationQueue
	if err := db.First(&pending, "notification_id = ?", scheduled.ID).Error; err != nil {
		t.Fatalf("reload scheduled row: %v", err)
	}
	if pending.Status != models.QueueStatusPending {
		t.Fatalf("future notification should stay pending, got %q", pending.Status)
	}
}

func TestProcessQueueRetriesThenFails(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewNotificationService(db, nil)
	ctx := context.Background()

	// A queue row pointing at a missing notification fails to deliver and
	// exhausts its retries.
	orphan := &models.NotificationQueue{
		NotificationID: uuid.New(),
		Status:         models.QueueStatusPending,
		ScheduledFor:   time.Now().UTC().Add(-time.Minute),
		MaxRetries:     2,
	}
	if err := db.Create(orphan).Error; err != nil {
		t.Fatalf("seed orphan queue row: %v", err)
	}

	for i := 0; i < 2; i++ {
		report, err := svc.ProcessQueue(ctx, 10)
		if err != nil {
			t.Fatalf("process run %d: %v", i, err)
		}
		if report.Failed != 1 {
			t.Fatalf("run %d failed = %d, want 1", i, report.Failed)
		}
	}

	var item models.NotificationQueue
	if err := db.First(&item, "id = ?", orphan.ID).Error; err != nil {
		t.Fatalf("reload queue row: %v", err)
	}
	if item.Status != models.QueueStatusFailed {
		t.Fatalf("status after retries = %q, want failed", item.Status)
	}
	if item.RetryCount != 2 {
		t.Fatalf("retry count = %d, want 2", item.RetryCount)
	}
	if item.ErrorMessage == "" {
		t.Fatalf("failed row should record an error message")
	}

	// A failed row never re-enters the queue.
	report, err := svc.ProcessQueue(ctx, 10)
	if err != nil {
		t.Fatalf("final process run: %v", err)
	}
	if report.Processed != 0 {
		t.Fatalf("failed row was re-processed: %+v", report)
	}
}

func TestListNotificationsCountsAndPaging(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewNotificationService(db, nil)
	user := createTestUser(t, db, "notif_list")
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		n, err := svc.CreateNotification(ctx, user.ID, services.NotificationCreateRequest{
			NotificationType: models.NotificationAIInsight,
			Title:            "Insight",
			Body:             "Something noteworthy",
		})
		if err != nil {
			t.Fatalf("create notification %d: %v", i, err)
		}
		ids = append(ids, n.ID)
	}

	if _, err := svc.UpdateNotification(ctx, user.ID, ids[0], services.NotificationUpdateRequest{
		IsRead: boolPtr(true),
	}); err != nil {
		t.Fatalf("mark one read: %v", err)
	}

	out, err := svc.ListNotifications(ctx, user.ID, 2, 0, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out.TotalCount != 5 || out.UnreadCount != 4 {
		t.Fatalf("counts = %d total / %d unread, want 5/4", out.TotalCount, out.UnreadCount)
	}
	if len(out.Notifications) != 2 || !out.HasMore {
		t.Fatalf("page = %d rows, has_more %v, want 2/true", len(out.Notifications), out.HasMore)
	}

	unread, err := svc.ListNotifications(ctx, user.ID, 10, 0, true)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if unread.TotalCount != 4 || len(unread.Notifications) != 4 {
		t.Fatalf("unread list = %d total / %d rows, want 4/4", unread.TotalCount, len(unread.Notifications))
	}
}

func TestUpdateNotificationSetsTimestampsOnce(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewNotificationService(db, nil)
	user := createTestUser(t, db, "notif_update")
	ctx := context.Background()

	n, err := svc.CreateNotification(ctx, user.ID, services.NotificationCreateRequest{
		NotificationType: models.NotificationGoalAchievement,
		Title:            "Goal met",
		Body:             "Calorie goal achieved",
	})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}

	updated, err := svc.UpdateNotification(ctx, user.ID, n.ID, services.NotificationUpdateRequest{
		IsRead:    boolPtr(true),
		IsClicked: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ReadAt == nil || updated.ClickedAt == nil {
		t.Fatalf("timestamps not set: %+v", updated)
	}
	firstReadAt := *updated.ReadAt

	again, err := svc.UpdateNotification(ctx, user.ID, n.ID, services.NotificationUpdateRequest{
		IsRead: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if !again.ReadAt.Equal(firstReadAt) {
		t.Fatalf("read_at changed on repeat update: %v vs %v", again.ReadAt, firstReadAt)
	}

	other := createTestUser(t, db, "notif_other")
	if _, err := svc.UpdateNotification(ctx, other.ID, n.ID, services.NotificationUpdateRequest{
		IsRead: boolPtr(true),
	}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("cross-user update error = %v, want ErrNotFound", err)
	}
}

func TestBulkMarkReadAndDelete(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewNotificationService(db, nil)
	user := createTestUser(t, db, "notif_bulk")
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		n, err := svc.CreateNotification(ctx, user.ID, services.NotificationCreateRequest{
			NotificationType: models.NotificationSocialComment,
			Title:            "Comment",
			Body:             "New comment on your post",
		})
		if err != nil {
			t.Fatalf("create notification %d: %v", i, err)
		}
		ids = append(ids, n.ID)
	}

	affected, err := svc.BulkMarkRead(ctx, user.ID, ids[:2])
	if err != nil {
		t.Fatalf("bulk mark read: %v", err)
	}
	if affected != 2 {
		t.Fatalf("affected = %d, want 2", affected)
	}

	// Empty id list means "all unread".
	affected, err = svc.BulkMarkRead(ctx, user.ID, nil)
	if err != nil {
		t.Fatalf("bulk mark all: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}

	if err := svc.DeleteNotification(ctx, user.ID, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteNotification(ctx, user.ID, ids[0]); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestRenderTemplateSubstitution(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewNotificationService(db, nil)
	ctx := context.Background()

	template := &models.NotificationTemplate{
		TemplateKey:      "streak_milestone",
		NotificationType: models.NotificationStreakMilestone,
		TitleTemplate:    "{days}-Day Streak!",
		BodyTemplate:     "Hi {username}, you've logged meals for {days} days in a row.",
		IsActive:         true,
		Language:         "en",
	}
	if err := db.Create(template).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}

	out, err := svc.RenderTemplate(ctx, services.RenderTemplateRequest{
		TemplateKey: "streak_milestone",
		Variables:   map[string]any{"days": 7, "username": "mina"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Title != "7-Day Streak!" {
		t.Fatalf("title = %q", out.Title)
	}
	if out.Body != "Hi mina, you've logged meals for 7 days in a row." {
		t.Fatalf("body = %q", out.Body)
	}

	if _, err := svc.RenderTemplate(ctx, services.RenderTemplateRequest{
		TemplateKey: "does_not_exist",
	}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing template error = %v, want ErrNotFound", err)
	}
}

func TestRegisterPushTokenUpserts(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := services.NewNotificationService(db, nil)
	user := createTestUser(t, db, "push_token")
	ctx := context.Background()

	if _, err := svc.RegisterPushToken(ctx, user.ID, services.PushTokenRegisterRequest{
		Platform: "ios", Token: "token-one",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.RegisterPushToken(ctx, user.ID, services.PushTokenRegisterRequest{
		Platform: "ios", Token: "token-two",
	}); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	var tokens []models.PushToken
	if err := db.Where("user_id = ?", user.ID).Find(&tokens).Error; err != nil {
		t.Fatalf("load tokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Token != "token-two" {
		t.Fatalf("tokens = %+v, want single row with token-two", tokens)
	}

	if _, err := svc.RegisterPushToken(ctx, user.ID, services.PushTokenRegisterRequest{
		Platform: "pager", Token: "x",
	}); !errors.Is(err, services.ErrBadRequest) {
		t.Fatalf("bad platform error = %v, want ErrBadRequest", err)
	}

	if err := svc.DeactivatePushToken(ctx, user.ID, "ios"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := db.Where("user_id = ?", user.ID).Find(&tokens).Error; err != nil {
		t.Fatalf("reload tokens: %v", err)
	}
	if tokens[0].IsActive {
		t.Fatalf("token should be inactive after deactivation")
	}
}
