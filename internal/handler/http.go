// Package handler exposes the choice decision layer over HTTP.
package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"saga-server/internal/middleware"
	"saga-server/internal/models"
	"saga-server/internal/service"
)

// ChoiceHandler handles HTTP requests for the choice decision layer.
type ChoiceHandler struct {
	service   service.ChoiceService
	logger    *zap.Logger
	jwtSecret string
}

// NewChoiceHandler creates a ChoiceHandler.
func NewChoiceHandler(s service.ChoiceService, jwtSecret string, logger *zap.Logger) *ChoiceHandler {
	return &ChoiceHandler{
		service:   s,
		logger:    logger.Named("ChoiceHandler"),
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers the session choice routes.
func (h *ChoiceHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	sessions := r.Group("/sessions/:session_id", middleware.Auth(h.jwtSecret, h.logger))
	{
		sessions.POST("/choices/annotate", h.annotateChoices)
		sessions.POST("/choices/select", h.selectChoice)
		sessions.POST("/actions/custom", h.submitCustomAction)
		sessions.POST("/actions/retry", h.retryLastAction)
	}
}

func (h *ChoiceHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getPlayerIDFromContext extracts the authenticated player ID set by the auth
// middleware.
func getPlayerIDFromContext(c *gin.Context) (uuid.UUID, error) {
	val, ok := c.Get(middleware.PlayerIDContextKey)
	if !ok {
		return uuid.Nil, fmt.Errorf("player ID not found in context")
	}
	playerID, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid player ID type in context: %T", val)
	}
	return playerID, nil
}

func getSessionIDParam(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("session_id"))
}

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Unauthorized"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: "Forbidden"}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "Resource not found"}
	case errors.Is(err, models.ErrNoLastAction):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrRetryInFlight):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}
	c.JSON(statusCode, apiErr)
}
