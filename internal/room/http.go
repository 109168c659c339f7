package room

import (
	"errors"
	"net/http"

	"github.com/abduss/quizroom/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts room endpoints onto an authenticated group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/rooms", handler.create)
	group.POST("/rooms/join", handler.join)
	group.GET("/rooms/available", handler.available)
	group.GET("/rooms/my-rooms", handler.myRooms)
	group.POST("/rooms/:id/leave", handler.leave)
	group.DELETE("/rooms/:id", handler.delete)
}

type httpHandler struct {
	service *Service
}

type createRoomRequest struct {
	Name     string `json:"name" binding:"required,max=128"`
	Password string `json:"password" binding:"required,max=72"`
}

type joinRoomRequest struct {
	RoomNumber int    `json:"room_number" binding:"required,min=100,max=999"`
	Password   string `json:"password" binding:"required"`
}

func (h *httpHandler) create(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room name and password are required"})
		return
	}

	room, err := h.service.Create(c.Request.Context(), userID, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidRoom) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// ErrExhaustedRetries included: the number space ran dry
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "room created successfully", "room": room})
}

func (h *httpHandler) join(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room number and password are required"})
		return
	}

	room, err := h.service.Join(c.Request.Context(), userID, req.RoomNumber, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, ErrWrongPassword):
			c.JSON(http.StatusForbidden, gin.H{"error": "wrong room password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined room successfully", "room": room})
}

func (h *httpHandler) available(c *gin.Context) {
	rooms, err := h.service.Available(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *httpHandler) myRooms(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rooms, err := h.service.MyRooms(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *httpHandler) leave(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if err := h.service.Leave(c.Request.Context(), userID, roomID); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left room successfully"})
}

func (h *httpHandler) delete(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, roomID); err != nil {
		switch {
		case errors.Is(err, ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, ErrNotRoomCreator):
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to delete this room"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "room deleted successfully"})
}
