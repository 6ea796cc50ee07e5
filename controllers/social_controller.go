package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zzoohub/meallog/services"
)

type SocialController struct {
	Svc *services.SocialService
}

func NewSocialController(svc *services.SocialService) *SocialController {
	return &SocialController{Svc: svc}
}

func (h *SocialController) CreatePost(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req services.PostCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, err := h.Svc.CreatePost(c.Request.Context(), userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *SocialController) GetPost(c *gin.Context) {
	postID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	post, err := h.Svc.GetPost(c.Request.Context(), postID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *SocialController) UpdatePost(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	postID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var update services.PostUpdateRequest
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, err := h.Svc.UpdatePost(c.Request.Context(), userID, postID, update)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *SocialController) DeletePost(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	postID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.DeletePost(c.Request.Context(), userID, postID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (h *SocialController) ToggleLike(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	postID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.Svc.ToggleLike(c.Request.Context(), userID, postID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SocialController) CreateComment(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	postID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	comment, err := h.Svc.CreateComment(c.Request.Context(), userID, postID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *SocialController) ListComments(c *gin.Context) {
	postID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	comments, err := h.Svc.ListComments(c.Request.Context(), postID,
		queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *SocialController) FollowUser(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	targetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.FollowUser(c.Request.Context(), userID, targetID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "followed"})
}

func (h *SocialController) UnfollowUser(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	targetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.UnfollowUser(c.Request.Context(), userID, targetID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

func (h *SocialController) GetFeed(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	posts, err := h.Svc.GetFeed(c.Request.Context(), userID,
		queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *SocialController) GetStats(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	stats, err := h.Svc.GetSocialStats(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
