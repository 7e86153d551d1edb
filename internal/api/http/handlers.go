package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/monitoring"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/service"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/types"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/utils"
)

// Version is reported by the health endpoints.
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	started  time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(registry *service.Registry, logger *zap.Logger, metrics *monitoring.Metrics) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		started:  time.Now(),
	}
}

// Root handles the bare liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "LMMs-Lab Writer backend",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"version":          Version,
		"uptime_seconds":   int64(time.Since(h.started).Seconds()),
		"service_registry": h.registry.Stats(),
	})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if raw := c.Query("category"); raw != "" {
		cat := types.Category(raw)
		if !cat.Valid() {
			fail(c, errdefs.Invalid("services.list", "unknown category: %s", raw))
			return
		}
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxJSONSize)

	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errdefs.Wrap(errdefs.KindInvalid, "services.execute", err, "malformed request"))
		return
	}

	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		fail(c, err)
		return
	}

	timer := monitoring.NewTimer(h.metrics, req.ToolID)
	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params)
	if err != nil {
		timer.Stop(string(errdefs.KindOf(err)))
		h.logger.Debug("tool failed",
			zap.String("tool_id", req.ToolID),
			zap.Error(err),
		)
		fail(c, err)
		return
	}
	timer.Stop("success")

	c.JSON(http.StatusOK, result)
}
