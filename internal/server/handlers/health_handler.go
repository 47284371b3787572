package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves liveness and service description endpoints.
type HealthHandler struct {
	service string
	version string
	checks  map[string]HealthCheck
	now     func() time.Time
}

// NewHealthHandler builds a handler running the named checks on every /health call.
func NewHealthHandler(service, version string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{service: service, version: version, checks: checks, now: time.Now}
}

// Health reports overall status and the result of every dependency check.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	deps := gin.H{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			deps[name] = gin.H{"status": "unhealthy", "error": err.Error()}
			status = "degraded"
			continue
		}
		deps[name] = gin.H{"status": "healthy"}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"service":      h.service,
		"timestamp":    h.now().UTC().Format(time.RFC3339),
		"dependencies": deps,
	})
}

// Describe lists the service endpoints and supported commands.
func (h *HealthHandler) Describe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.service,
		"version": h.version,
		"endpoints": gin.H{
			"health":         "GET /health",
			"incoming_sms":   "POST /at/sms",
			"delivery":       "POST /at/dlr",
			"delivery_stats": "GET /at/dlr/stats",
			"send":           "POST /send-message",
			"balance":        "GET /balance",
		},
		"commands": []string{"WEATHER", "FORECAST", "RAINHISTORY", "QUOTE", "PLANTING", "HELP"},
	})
}
