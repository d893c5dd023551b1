package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/frogcom/api/internal/llm"
	"github.com/frogcom/api/internal/middleware"
	"github.com/frogcom/api/internal/models"
)

// Model roles addressed by the LLM config endpoints.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)

// ConfigHandler exposes the two configuration stores over HTTP.
type ConfigHandler struct {
	primary   *llm.ParamsStore
	secondary *llm.ParamsStore
	settings  *llm.SettingsStore
	logger    *zap.Logger
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(primary, secondary *llm.ParamsStore, settings *llm.SettingsStore, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{
		primary:   primary,
		secondary: secondary,
		settings:  settings,
		logger:    logger,
	}
}

func (h *ConfigHandler) store(role string) *llm.ParamsStore {
	if role == RoleSecondary {
		return h.secondary
	}
	return h.primary
}

// GetLLM returns the current generation parameters for a model role.
func (h *ConfigHandler) GetLLM(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.LLMConfigResponse{
			Role:   role,
			Params: h.store(role).Get(),
		})
	}
}

// UpdateLLM applies a partial update to a model role's parameters. Unset
// fields keep their prior values; an invalid field rejects the whole update.
func (h *ConfigHandler) UpdateLLM(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var update llm.GenerationParamsUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			middleware.BadRequest(c, "malformed request body: "+err.Error())
			return
		}

		params, err := h.store(role).Update(update)
		if err != nil {
			if errors.Is(err, llm.ErrInvalidConfiguration) {
				middleware.UnprocessableEntity(c, err.Error())
				return
			}
			middleware.InternalError(c, "config update failed")
			return
		}

		h.logger.Info("llm config updated",
			zap.String("role", role),
			zap.String("model", params.Model),
			zap.Float64("temperature", params.Temperature),
		)
		c.JSON(http.StatusOK, models.LLMConfigResponse{Role: role, Params: params})
	}
}

// GetOrchestration returns the current orchestration settings.
func (h *ConfigHandler) GetOrchestration(c *gin.Context) {
	c.JSON(http.StatusOK, models.OrchestrationConfigResponse{
		OrchestrationSettings: h.settings.Get(),
	})
}

// UpdateOrchestration applies a partial update to the orchestration settings.
func (h *ConfigHandler) UpdateOrchestration(c *gin.Context) {
	var update llm.OrchestrationUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		middleware.BadRequest(c, "malformed request body: "+err.Error())
		return
	}

	settings, err := h.settings.Update(update)
	if err != nil {
		if errors.Is(err, llm.ErrInvalidConfiguration) {
			middleware.UnprocessableEntity(c, err.Error())
			return
		}
		middleware.InternalError(c, "config update failed")
		return
	}

	h.logger.Info("orchestration config updated",
		zap.Bool("enabled", settings.Enabled),
		zap.Int("rounds", settings.Rounds),
	)
	c.JSON(http.StatusOK, models.OrchestrationConfigResponse{OrchestrationSettings: settings})
}
