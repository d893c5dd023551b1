package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/frogcom/api/internal/llm"
	"github.com/frogcom/api/internal/middleware"
	"github.com/frogcom/api/internal/models"
	"github.com/frogcom/api/internal/orchestrator"
	"github.com/frogcom/api/internal/provider"
)

// GenerateHandler handles orchestrated text generation.
type GenerateHandler struct {
	engine       *orchestrator.Engine
	primaryStore *llm.ParamsStore
	breaker      *middleware.CircuitBreaker
	logger       *zap.Logger
}

// NewGenerateHandler creates a new generate handler.
func NewGenerateHandler(engine *orchestrator.Engine, primaryStore *llm.ParamsStore, breaker *middleware.CircuitBreaker, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		engine:       engine,
		primaryStore: primaryStore,
		breaker:      breaker,
		logger:       logger,
	}
}

// Generate runs the refinement loop for the request's prompt or messages.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, "malformed request body: "+err.Error())
		return
	}

	conversation, err := buildConversation(req)
	if err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	requestID := c.GetString(middleware.RequestIDKey)

	res, err := h.engine.Orchestrate(c.Request.Context(), requestID, conversation, req.Overrides())
	if err != nil {
		h.respondGenerateError(c, requestID, err)
		return
	}

	h.breaker.RecordSuccess()
	middleware.ObserveOrchestration(res.RoundsExecuted)

	resp := models.GenerateResponse{
		ID:             requestID,
		FinalText:      res.FinalText,
		Critique:       res.Critique,
		RoundsExecuted: res.RoundsExecuted,
		Model:          h.primaryStore.Get().Model,
		Created:        time.Now().Unix(),
	}
	if req.IncludeTrace {
		resp.Trace = res.Trace
	}

	c.JSON(http.StatusOK, resp)
}

func (h *GenerateHandler) respondGenerateError(c *gin.Context, requestID string, err error) {
	if errors.Is(err, llm.ErrInvalidConfiguration) {
		middleware.BadRequest(c, err.Error())
		return
	}

	var pf *orchestrator.ProviderFailure
	if errors.As(err, &pf) {
		h.breaker.RecordFailure()
		h.logger.Error("generation failed",
			zap.String("request_id", requestID),
			zap.Int("round", pf.Round),
			zap.Error(pf.Err),
		)
		switch {
		case errors.Is(err, provider.ErrTimeout):
			middleware.CountGenerationFailure("timeout")
			middleware.GatewayTimeout(c, "completion provider timed out")
		case errors.Is(err, provider.ErrInvalidParams):
			middleware.CountGenerationFailure("invalid_params")
			middleware.BadGateway(c, "completion provider rejected the generation parameters")
		default:
			middleware.CountGenerationFailure("unavailable")
			middleware.BadGateway(c, "text generation failed")
		}
		return
	}

	h.logger.Error("unexpected orchestration error",
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	middleware.InternalError(c, "text generation failed")
}

// buildConversation turns the request body into an ordered conversation.
func buildConversation(req models.GenerateRequest) ([]llm.Turn, error) {
	if len(req.Messages) > 0 {
		for i, m := range req.Messages {
			if !llm.ValidRole(m.Role) {
				return nil, fmt.Errorf("messages[%d]: unknown role %q", i, m.Role)
			}
			if strings.TrimSpace(m.Content) == "" {
				return nil, fmt.Errorf("messages[%d]: content must not be empty", i)
			}
		}
		return llm.CloneTurns(req.Messages), nil
	}

	if strings.TrimSpace(req.Prompt) != "" {
		return []llm.Turn{{Role: llm.RoleUser, Content: req.Prompt}}, nil
	}

	return nil, errors.New("either prompt or messages is required")
}
