package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zzoohub/meallog/services"
)

type AnalyticsController struct {
	Svc *services.AnalyticsService
}

func NewAnalyticsController(svc *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Svc: svc}
}

func (h *AnalyticsController) TrackEvent(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req services.EventCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	event, err := h.Svc.TrackEvent(c.Request.Context(), userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

type eventBatchRequest struct {
	Events []services.EventCreateRequest `json:"events" binding:"required"`
}

func (h *AnalyticsController) TrackEventsBatch(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req eventBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	events, err := h.Svc.TrackEventsBatch(c.Request.Context(), userID, req.Events)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"events": events, "count": len(events)})
}

func (h *AnalyticsController) GetDailySummary(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	date, ok := parseDateQuery(c, "date", time.Now().UTC())
	if !ok {
		return
	}
	summary, err := h.Svc.GetDailySummary(c.Request.Context(), userID, date)
	if err != nil {
		respondErr(c, err)
		return
	}
	// Absent days are not an error; callers get an explicit null.
	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsController) UpdateDailySummary(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	date, ok := parseDateQuery(c, "date", time.Now().UTC())
	if !ok {
		return
	}
	var update services.DailySummaryUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.Svc.UpdateDailySummary(c.Request.Context(), userID, date, update)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetWeeklySummary defaults to the Monday of the current week; a supplied
// week_start is used as given, so weeks may start on any weekday.
func (h *AnalyticsController) GetWeeklySummary(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	weekStart := services.StartOfWeek(time.Now().UTC())
	if v := c.Query("week_start"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week_start"})
			return
		}
		weekStart = d
	}
	summary, err := h.Svc.GetWeeklySummary(c.Request.Context(), userID, weekStart)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsController) GetMonthlySummary(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	now := time.Now().UTC()
	year := queryInt(c, "year", now.Year())
	month := queryInt(c, "month", int(now.Month()))
	if month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}
	summary, err := h.Svc.GetMonthlySummary(c.Request.Context(), userID, year, time.Month(month))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsController) GetUserProgress(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	progress, err := h.Svc.GetUserProgress(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *AnalyticsController) GetInsights(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	insights, err := h.Svc.GenerateInsights(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

func (h *AnalyticsController) ListAchievements(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	achievements, err := h.Svc.ListAchievements(c.Request.Context(), userID, queryInt(c, "limit", 20))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": achievements})
}

func (h *AnalyticsController) GetStats(c *gin.Context) {
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
