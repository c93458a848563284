package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/maintenance-desk/internal/handler"
	"github.com/jwalitptl/maintenance-desk/internal/middleware"
	"github.com/jwalitptl/maintenance-desk/internal/model"
	notificationService "github.com/jwalitptl/maintenance-desk/internal/service/notification"
	"github.com/jwalitptl/maintenance-desk/internal/service/session"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
	"github.com/jwalitptl/maintenance-desk/pkg/validator"
)

// Sessions finds the live session of a user.
type Sessions interface {
	Get(userID string) (*session.Session, error)
}

type Handler struct {
	sessions Sessions
}

func NewHandler(sessions Sessions) *Handler {
	return &Handler{sessions: sessions}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("", h.CreateNotification)
		notifications.DELETE("", h.ResetNotifications)
		notifications.DELETE("/:id", h.DeleteNotification)
	}
}

func (h *Handler) store(c *gin.Context) (notificationService.Service, bool) {
	s, err := h.sessions.Get(c.GetString(middleware.ContextUserID))
	if err != nil {
		handler.RespondError(c, err)
		return nil, false
	}
	return s.Notifications, true
}

func (h *Handler) ListNotifications(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(store.List()))
}

func (h *Handler) CreateNotification(c *gin.Context) {
	var req model.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.BadRequest(validator.Describe(err), err))
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}
	record, err := store.Add(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(record))
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid notification ID", err))
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}
	if err := store.Remove(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ResetNotifications(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	if err := store.Reset(c.Request.Context()); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
