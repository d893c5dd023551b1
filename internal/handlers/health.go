package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/frogcom/api/internal/database"
	"github.com/frogcom/api/internal/eventbus"
	"github.com/frogcom/api/internal/models"
	"github.com/frogcom/api/internal/provider"
)

const (
	serviceName    = "frogcom-api"
	serviceVersion = "0.2.0"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	primary   *provider.OpenAIClient
	secondary *provider.OpenAIClient
	db        *database.Postgres
	redis     *database.Redis
	events    *eventbus.Publisher
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(primary, secondary *provider.OpenAIClient, db *database.Postgres, redis *database.Redis, events *eventbus.Publisher) *HealthHandler {
	return &HealthHandler{
		primary:   primary,
		secondary: secondary,
		db:        db,
		redis:     redis,
		events:    events,
	}
}

// Health returns basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Version:   serviceVersion,
		Timestamp: time.Now().UTC(),
	})
}

// DeepHealth returns health status with dependency checks
func (h *HealthHandler) DeepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)
	allHealthy := true

	check := func(name string, healthy bool) {
		if healthy {
			deps[name] = "healthy"
		} else {
			deps[name] = "unhealthy"
			allHealthy = false
		}
	}

	check("primary_provider", h.primary.Healthy(ctx))
	check("secondary_provider", h.secondary.Healthy(ctx))

	if h.db != nil {
		check("database", h.db.Pool().Ping(ctx) == nil)
	} else {
		deps["database"] = "not configured"
	}

	if h.redis != nil {
		check("redis", h.redis.Ping(ctx) == nil)
	} else {
		deps["redis"] = "not configured"
	}

	if h.events != nil {
		check("nats", h.events.Connected())
	} else {
		deps["nats"] = "not configured"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, models.HealthResponse{
		Status:       status,
		Service:      serviceName,
		Version:      serviceVersion,
		Timestamp:    time.Now().UTC(),
		Dependencies: deps,
	})
}
