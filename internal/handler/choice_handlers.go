package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"saga-server/internal/models"
)

// annotateChoices runs raw generator choice strings through the adjustment
// pipeline and returns annotated records ready for rendering.
func (h *ChoiceHandler) annotateChoices(c *gin.Context) {
	playerID, err := getPlayerIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, err := getSessionIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid session ID format"})
		return
	}

	var req annotateChoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	records, err := h.service.AnnotateChoices(c.Request.Context(), sessionID, playerID, req.Choices)
	if err != nil {
		h.logger.Error("Error annotating choices",
			zap.Stringer("sessionID", sessionID), zap.Error(err))
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"choices": records})
}

// selectChoice records the player's selection and dispatches its action.
func (h *ChoiceHandler) selectChoice(c *gin.Context) {
	playerID, err := getPlayerIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, err := getSessionIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid session ID format"})
		return
	}

	var req selectChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	h.logger.Info("Player selected choice",
		zap.Stringer("sessionID", sessionID),
		zap.String("category", req.Category))

	err = h.service.SelectChoice(c.Request.Context(), sessionID, playerID, req.Category, req.ActionText, req.Snapshot)
	if err != nil {
		if !errors.Is(err, models.ErrBadRequest) {
			h.logger.Error("Error dispatching selected choice",
				zap.Stringer("sessionID", sessionID), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

// submitCustomAction dispatches a free-text player action.
func (h *ChoiceHandler) submitCustomAction(c *gin.Context) {
	playerID, err := getPlayerIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, err := getSessionIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid session ID format"})
		return
	}

	var req customActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	err = h.service.SubmitCustomAction(c.Request.Context(), sessionID, playerID, req.ActionText, req.Snapshot)
	if err != nil {
		if !errors.Is(err, models.ErrBadRequest) {
			h.logger.Error("Error dispatching custom action",
				zap.Stringer("sessionID", sessionID), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

// retryLastAction re-dispatches the session's memoized action.
func (h *ChoiceHandler) retryLastAction(c *gin.Context) {
	playerID, err := getPlayerIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, err := getSessionIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid session ID format"})
		return
	}

	err = h.service.RetryLastAction(c.Request.Context(), sessionID, playerID)
	if err != nil {
		// No last action and a concurrent retry are expected outcomes, not
		// server faults.
		if !errors.Is(err, models.ErrNoLastAction) && !errors.Is(err, models.ErrRetryInFlight) {
			h.logger.Error("Error retrying last action",
				zap.Stringer("sessionID", sessionID), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}
