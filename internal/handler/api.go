package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/angelayejinyi/mfv-labeller/internal/corpus"
	"github.com/angelayejinyi/mfv-labeller/internal/models"
	"github.com/angelayejinyi/mfv-labeller/internal/repository"
	"github.com/angelayejinyi/mfv-labeller/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// recentResponsesLimit caps the raw rows in the admin responses report.
const recentResponsesLimit = 2000

// Handler handles HTTP requests.
type Handler struct {
	study     *service.Study
	corpus    *corpus.Index
	staticDir string
	logger    *zap.Logger
}

// NewHandler creates a new API handler. staticDir may be empty or
// missing; the frontend routes then degrade to informational JSON.
func NewHandler(study *service.Study, idx *corpus.Index, staticDir string, logger *zap.Logger) *Handler {
	return &Handler{
		study:     study,
		corpus:    idx,
		staticDir: staticDir,
		logger:    logger,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/register", h.Register)
	r.GET("/participant/:id/samples", h.ParticipantSamples)
	r.POST("/submit", h.Submit)

	admin := r.Group("/admin")
	{
		admin.GET("/assignments", h.AdminAssignments)
		admin.GET("/responses", h.AdminResponses)
		admin.GET("/export/responses.csv", h.ExportResponsesCSV)
	}

	r.GET("/healthz", h.Health)
	r.GET("/app-info", h.AppInfo)

	h.registerStatic(r)
}

// registerStatic serves the frontend when a static directory exists,
// including the legacy top-level asset paths browsers may still
// request.
func (h *Handler) registerStatic(r *gin.Engine) {
	if h.staticDir != "" {
		if info, err := os.Stat(h.staticDir); err == nil && info.IsDir() {
			r.Static("/static", h.staticDir)
		}
	}

	r.GET("/", h.Index)
	r.GET("/app.css", h.staticFile("app.css"))
	r.GET("/app.js", h.staticFile("app.js"))
}

// Register creates a participant with a balanced foundation pair and a
// fresh sample draw. The JSON body is optional: {"name": "..."}.
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	// Body is optional; a missing or malformed body means no name.
	_ = c.ShouldBindJSON(&req)

	payload, err := h.study.Register(req.Name)
	if err != nil {
		h.logger.Error("Failed to register participant", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, payload)
}

// ParticipantSamples returns the persisted assignment in its original
// order.
func (h *Handler) ParticipantSamples(c *gin.Context) {
	payload, err := h.study.ParticipantSamples(c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to fetch participant samples", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch samples"})
		return
	}

	c.JSON(http.StatusOK, payload)
}

// Submit stores one rating.
func (h *Handler) Submit(c *gin.Context) {
	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participant_id, sample_id, rating required"})
		return
	}

	err := h.study.SubmitRating(req.ParticipantID, *req.SampleID, *req.Rating)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
	case errors.Is(err, service.ErrInvalidRating), errors.Is(err, service.ErrUnassignedSample):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.Error("Failed to store rating", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store rating"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// AdminAssignments reports pair and single-foundation assignment
// counts.
func (h *Handler) AdminAssignments(c *gin.Context) {
	report, err := h.study.AssignmentReport()
	if err != nil {
		h.logger.Error("Failed to build assignment report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// AdminResponses reports per-foundation rating aggregates and recent
// raw responses.
func (h *Handler) AdminResponses(c *gin.Context) {
	report, err := h.study.ResponsesReport(recentResponsesLimit)
	if err != nil {
		h.logger.Error("Failed to build responses report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportResponsesCSV streams every response joined with the rated
// sample's text columns.
func (h *Handler) ExportResponsesCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=responses_export.csv")

	if err := h.study.ExportResponsesCSV(c.Writer); err != nil {
		h.logger.Error("Failed to export responses", zap.Error(err))
	}
}

// Health reports corpus status alongside liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"samples_loaded": h.corpus.Len(),
		"foundations":    h.corpus.Foundations(),
		"label_counts":   h.corpus.Summary(),
	})
}

// AppInfo is a minimal landing message for deployments without the
// frontend.
func (h *Handler) AppInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Labeling backend running. Place frontend files in the static directory to serve the UI.",
	})
}

// Index serves the frontend entry point when present.
func (h *Handler) Index(c *gin.Context) {
	index := filepath.Join(h.staticDir, "index.html")
	if h.staticDir != "" {
		if _, err := os.Stat(index); err == nil {
			c.File(index)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Index not found. Place static files in the static directory."})
}

func (h *Handler) staticFile(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := filepath.Join(h.staticDir, name)
		if h.staticDir != "" {
			if _, err := os.Stat(path); err == nil {
				c.File(path)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": name + " not found"})
	}
}
