package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abduss/quizroom/internal/auth"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts user endpoints. The protected group must already run
// the auth middleware; the admin group must additionally require the admin
// role.
func RegisterRoutes(protected, admin *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	protected.GET("/users", handler.directory)
	protected.PUT("/user/profile", handler.updateProfile)
	protected.GET("/user/data", handler.getData)
	protected.POST("/user/data", handler.saveData)
	admin.GET("/user-stats", handler.questionStats)
}

type httpHandler struct {
	service *Service
}

type updateProfileRequest struct {
	Name string `json:"name" binding:"required,max=128"`
}

type saveDataRequest struct {
	Data json.RawMessage `json:"data" binding:"required"`
}

func (h *httpHandler) directory(c *gin.Context) {
	users, err := h.service.Directory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *httpHandler) updateProfile(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), userID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated successfully", "user": profile})
}

func (h *httpHandler) getData(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	blob, err := h.service.Data(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if blob == nil {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": blob.Data, "updated_at": blob.UpdatedAt})
}

func (h *httpHandler) saveData(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req saveDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "data is required"})
		return
	}

	blob, err := h.service.SaveData(c.Request.Context(), userID, req.Data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user data saved successfully", "data": blob.Data, "updated_at": blob.UpdatedAt})
}

func (h *httpHandler) questionStats(c *gin.Context) {
	stats, err := h.service.QuestionStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
