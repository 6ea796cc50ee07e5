package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zzoohub/meallog/services"
)

type NotificationController struct {
	Svc *services.NotificationService
}

func NewNotificationController(svc *services.NotificationService) *NotificationController {
	return &NotificationController{Svc: svc}
}

func (h *NotificationController) RegisterPushToken(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req services.PushTokenRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.Svc.RegisterPushToken(c.Request.Context(), userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *NotificationController) DeactivatePushToken(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.Svc.DeactivatePushToken(c.Request.Context(), userID, c.Param("platform")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "push token deactivated"})
}

func (h *NotificationController) ListNotifications(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	out, err := h.Svc.ListNotifications(c.Request.Context(), userID,
		queryInt(c, "limit", 20), queryInt(c, "offset", 0),
		c.Query("unread_only") == "true")
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *NotificationController) UpdateNotification(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	notificationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var update services.NotificationUpdateRequest
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	notification, err := h.Svc.UpdateNotification(c.Request.Context(), userID, notificationID, update)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

type bulkMarkReadRequest struct {
	NotificationIDs []uuid.UUID `json:"notification_ids"`
}

func (h *NotificationController) BulkMarkRead(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req bulkMarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	affected, err := h.Svc.BulkMarkRead(c.Request.Context(), userID, req.NotificationIDs)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_read": affected})
}

func (h *NotificationController) DeleteNotification(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	notificationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.DeleteNotification(c.Request.Context(), userID, notificationID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
}

func (h *NotificationController) SendToUsers(c *gin.Context) {
	if _, ok := userIDFromCtx(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req services.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.Svc.SendToUsers(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *NotificationController) GetStats(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	stats, err := h.Svc.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *NotificationController) RenderTemplate(c *gin.Context) {
	var req services.RenderTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rendered, err := h.Svc.RenderTemplate(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rendered)
}
