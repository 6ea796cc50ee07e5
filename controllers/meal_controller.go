package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zzoohub/meallog/services"
)

type MealController struct {
	Svc *services.MealService
}

func NewMealController(svc *services.MealService) *MealController {
	return &MealController{Svc: svc}
}

func (h *MealController) CreateMeal(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req services.MealCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	meal, err := h.Svc.CreateMeal(c.Request.Context(), userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

func (h *MealController) GetMeal(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	mealID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	meal, err := h.Svc.GetMeal(c.Request.Context(), userID, mealID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *MealController) UpdateMeal(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	mealID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var update services.MealUpdateRequest
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	meal, err := h.Svc.UpdateMeal(c.Request.Context(), userID, mealID, update)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *MealController) DeleteMeal(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	mealID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.DeleteMeal(c.Request.Context(), userID, mealID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "meal deleted"})
}

func (h *MealController) ListMeals(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		from = &d
	}
	if v := c.Query("to"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		to = &d
	}

	meals, err := h.Svc.ListMeals(c.Request.Context(), userID, c.Query("meal_type"),
		from, to, queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

func (h *MealController) GetDayNutrition(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	date, ok := parseDateQuery(c, "date", time.Now().UTC())
	if !ok {
		return
	}
	out, err := h.Svc.GetDayNutrition(c.Request.Context(), userID, date)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
