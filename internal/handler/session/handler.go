package session

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/maintenance-desk/internal/handler"
	"github.com/jwalitptl/maintenance-desk/internal/middleware"
	"github.com/jwalitptl/maintenance-desk/internal/model"
	sessionService "github.com/jwalitptl/maintenance-desk/internal/service/session"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
	"github.com/jwalitptl/maintenance-desk/pkg/validator"
)

// RegisterValidators adds the activity_signal binding rule.
func RegisterValidators() error {
	return validator.RegisterStringRule("activity_signal", func(s string) bool {
		_, ok := sessionService.ParseSignal(s)
		return ok
	})
}

type Handler struct {
	manager *sessionService.Manager
}

func NewHandler(manager *sessionService.Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, activityLimit gin.HandlerFunc) {
	session := r.Group("/session")
	{
		session.GET("", h.GetState)
		session.POST("/login", h.Login)
		session.POST("/logout", h.Logout)
		session.POST("/activity", activityLimit, h.Activity)
	}
	r.GET("/alerts", h.DrainAlerts)
}

func (h *Handler) Login(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	s, err := h.manager.Login(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(s.State()))
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.manager.Logout(c.GetString(middleware.ContextUserID)); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetState(c *gin.Context) {
	state, err := h.manager.State(c.GetString(middleware.ContextUserID))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(state))
}

func (h *Handler) Activity(c *gin.Context) {
	var req model.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.BadRequest(validator.Describe(err), err))
		return
	}
	signal, _ := sessionService.ParseSignal(req.Signal)

	if err := h.manager.Activity(c.GetString(middleware.ContextUserID), signal); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DrainAlerts(c *gin.Context) {
	alerts, err := h.manager.Alerts(c.GetString(middleware.ContextUserID))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(alerts))
}
