package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zzoohub/meallog/utils"
)

type UploadController struct{}

func NewUploadController() *UploadController { return &UploadController{} }

type uploadImageRequest struct {
	Image string `json:"image" binding:"required"` // data:<mime>;base64,<data>
	Kind  string `json:"kind,omitempty"`           // meal-photo (default) or avatar
}

func (h *UploadController) UploadImage(c *gin.Context) {
	if _, ok := userIDFromCtx(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req uploadImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefix := "meal-photos"
	if req.Kind == "avatar" {
		prefix = "avatars"
	}

	url, err := utils.UploadBase64Image(c.Request.Context(), req.Image, prefix)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
