package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/maintenance-desk/internal/handler"
	"github.com/jwalitptl/maintenance-desk/internal/middleware"
	"github.com/jwalitptl/maintenance-desk/internal/model"
	"github.com/jwalitptl/maintenance-desk/internal/repository"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
	"github.com/jwalitptl/maintenance-desk/pkg/validator"
)

type Handler struct {
	orders   repository.OrderRepository
	comments repository.CommentRepository
}

func NewHandler(orders repository.OrderRepository, comments repository.CommentRepository) *Handler {
	return &Handler{orders: orders, comments: comments}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/comments", h.CreateComment)
	}
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid order ID", err))
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(order))
}

// CreateComment stores the comment; the outbox worker then announces it
// on the change feed.
func (h *Handler) CreateComment(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid order ID", err))
		return
	}
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		handler.RespondError(c, apperrors.Unauthorized(err).WithMessage("invalid user ID"))
		return
	}

	var req model.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.BadRequest(validator.Describe(err), err))
		return
	}

	if _, err := h.orders.GetOrder(c.Request.Context(), orderID); err != nil {
		respondLookupError(c, err)
		return
	}

	comment := &model.Comment{
		ServiceOrderID: orderID,
		UserID:         userID,
		Body:           req.Body,
	}
	if err := h.comments.CreateWithEvent(c.Request.Context(), comment); err != nil {
		handler.RespondError(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(comment))
}

func respondLookupError(c *gin.Context, err error) {
	if apperrors.IsNotFound(err) {
		handler.RespondError(c, apperrors.NotFound("service order", err))
		return
	}
	handler.RespondError(c, apperrors.Internal(err))
}
