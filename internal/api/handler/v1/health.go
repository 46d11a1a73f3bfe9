package v1

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks: checks,
	}
}

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       / [get]
func (h *HealthHandler) HandleHealthcheck(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](checkCtx); err != nil {
			zap.L().Warn("healthcheck failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	ctx.JSON(status, resp)
}
