package handler

import (
	"net/http"

	"gamequest/backend/internal/database"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Storage string `json:"storage" example:"healthy"`
}

// Ping godoc
// @Summary      Liveness check
// @Tags         ops
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /ping [get]
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Healthz godoc
// @Summary      Readiness check
// @Description  Reports the storage lifecycle state. 503 until storage is healthy.
// @Tags         ops
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	state := h.store.State()
	if state != database.StateHealthy {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Storage: state.String()})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Storage: state.String()})
}
