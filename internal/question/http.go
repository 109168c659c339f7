package question

import (
	"errors"
	"net/http"

	"github.com/abduss/quizroom/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts question endpoints onto an authenticated group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/questions", handler.create)
	group.GET("/questions", handler.listOwn)
	group.PUT("/questions/:id", handler.update)
	group.DELETE("/questions/:id", handler.delete)
	group.PATCH("/questions/:id/toggle-game", handler.toggleGame)
	group.GET("/game/questions", handler.gameQuestions)
}

type httpHandler struct {
	service *Service
}

type newQuestionBody struct {
	Text        string `json:"text" binding:"required"`
	AddresseeID string `json:"addressee_id" binding:"required,uuid"`
}

type createQuestionsRequest struct {
	Questions []newQuestionBody `json:"questions" binding:"required,min=1,dive"`
}

type updateQuestionRequest struct {
	Text        string `json:"text" binding:"required"`
	AddresseeID string `json:"addressee_id" binding:"required,uuid"`
}

func (h *httpHandler) create(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "questions array is required"})
		return
	}

	inputs := make([]NewQuestion, 0, len(req.Questions))
	for _, q := range req.Questions {
		addressee, err := uuid.Parse(q.AddresseeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid addressee id"})
			return
		}
		inputs = append(inputs, NewQuestion{Text: q.Text, AddresseeID: addressee})
	}

	created, err := h.service.Create(c.Request.Context(), userID, inputs)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuestion), errors.Is(err, ErrAddresseeNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "questions saved successfully", "questions": created})
}

func (h *httpHandler) listOwn(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	questions, err := h.service.ListOwn(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *httpHandler) update(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}

	var req updateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question text and addressee are required"})
		return
	}
	addresseeID, err := uuid.Parse(req.AddresseeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid addressee id"})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), userID, questionID, req.Text, addresseeID)
	if err != nil {
		h.writeQuestionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "question updated successfully", "question": updated})
}

func (h *httpHandler) delete(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, questionID); err != nil {
		h.writeQuestionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "question deleted successfully"})
}

func (h *httpHandler) toggleGame(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}

	toggled, err := h.service.ToggleGame(c.Request.Context(), userID, questionID)
	if err != nil {
		h.writeQuestionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "question updated successfully", "question": toggled})
}

func (h *httpHandler) gameQuestions(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var roomID *uuid.UUID
	if raw := c.Query("room_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}
		roomID = &parsed
	}

	feed, err := h.service.GameQuestions(c.Request.Context(), userID, roomID)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, ErrNotRoomMember):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": feed})
}

func (h *httpHandler) writeQuestionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
	case errors.Is(err, ErrNotQuestionOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to modify this question"})
	case errors.Is(err, ErrInvalidQuestion), errors.Is(err, ErrAddresseeNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
