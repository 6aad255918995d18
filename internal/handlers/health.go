package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck retourne nil si la dépendance répond.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// 🟢 GET /healthz
// Toujours 200 : un store en panne passe en mode dégradé, le serveur reste utilisable.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	stores := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			stores[name] = "down: " + err.Error()
			status = "degraded"
			continue
		}
		stores[name] = "up"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "stores": stores})
}
