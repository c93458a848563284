package attention

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/maintenance-desk/internal/handler"
	"github.com/jwalitptl/maintenance-desk/internal/model"
	"github.com/jwalitptl/maintenance-desk/internal/repository"
	"github.com/jwalitptl/maintenance-desk/internal/service/calibration"
	"github.com/jwalitptl/maintenance-desk/pkg/clock"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
)

type attentionResponse struct {
	model.AttentionSummary
	Active bool     `json:"active"`
	Banner []string `json:"banner"`
}

type analyzerResponse struct {
	*model.Analyzer
	Status model.CalibrationStatus `json:"calibration_status"`
}

type Handler struct {
	repo  repository.AnalyzerRepository
	clock clock.Clock
}

func NewHandler(repo repository.AnalyzerRepository, clk clock.Clock) *Handler {
	return &Handler{repo: repo, clock: clk}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	analyzers := r.Group("/analyzers")
	{
		analyzers.GET("", h.ListAnalyzers)
		analyzers.GET("/attention", h.GetAttention)
	}
}

// ListAnalyzers returns every analyzer with its derived calibration status.
func (h *Handler) ListAnalyzers(c *gin.Context) {
	analyzers, err := h.repo.ListAnalyzers(c.Request.Context())
	if err != nil {
		handler.RespondError(c, apperrors.Internal(err))
		return
	}

	now := h.clock.Now()
	out := make([]analyzerResponse, 0, len(analyzers))
	for _, a := range analyzers {
		out = append(out, analyzerResponse{
			Analyzer: a,
			Status:   calibration.ClassifyItem(a.CalibrationItem(), now),
		})
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

// GetAttention recomputes the summary from the current analyzer list on
// every request.
func (h *Handler) GetAttention(c *gin.Context) {
	analyzers, err := h.repo.ListAnalyzers(c.Request.Context())
	if err != nil {
		handler.RespondError(c, apperrors.Internal(err))
		return
	}

	summary := calibration.SummarizeAnalyzers(analyzers, h.clock.Now())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(attentionResponse{
		AttentionSummary: summary,
		Active:           summary.Active(),
		Banner:           calibration.BannerLines(summary),
	}))
}
