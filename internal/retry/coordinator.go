// Package retry coordinates re-dispatching the last submitted action after a
// transient upstream failure: error classification, last-action memoization,
// and a single-flight execution guard.
package retry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var retryAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "saga_retry_attempts_total",
		Help: "Total retry attempts by outcome.",
	},
	[]string{"outcome"},
)

// LastAction is the memoized most recent submitted action.
type LastAction struct {
	Text       string          `json:"text"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// DispatchFunc sends an action to the upstream generator. correlationID is a
// fresh id minted per retry so the attempt can be traced end to end.
type DispatchFunc func(ctx context.Context, actionText string, correlationID string) error

// Coordinator is a two-state machine (Idle / RetryRunning) over the retry
// state of one session. The in-flight guard is checked and set under the
// mutex, so at most one dispatch runs at a time regardless of how many
// goroutines call ExecuteRetry; contending callers fail fast with false
// instead of queuing. State starts empty and is never persisted.
type Coordinator struct {
	logger *zap.Logger

	mu         sync.Mutex
	lastAction *LastAction
	inFlight   bool
}

func NewCoordinator(logger *zap.Logger) *Coordinator {
	return &Coordinator{logger: logger.Named("RetryCoordinator")}
}

// RecordLastAction unconditionally overwrites the memoized action with a
// fresh timestamp. Valid in any state; causes no state transition.
func (c *Coordinator) RecordLastAction(text string, snapshot json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAction = &LastAction{
		Text:       text,
		Snapshot:   snapshot,
		RecordedAt: time.Now().UTC(),
	}
}

// LastAction returns a copy of the memoized action, or nil.
func (c *Coordinator) LastAction() *LastAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastAction == nil {
		return nil
	}
	cp := *c.lastAction
	return &cp
}

// RetryInFlight reports whether a retry is currently running.
func (c *Coordinator) RetryInFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// ExecuteRetry re-invokes dispatch with the memoized action. Returns false
// without calling dispatch when no action is recorded or another retry is
// already running; otherwise transitions to RetryRunning, dispatches once,
// and transitions back to Idle whatever the outcome. Returns true only if
// dispatch succeeded. There is no cancellation: a started retry runs to
// completion before the guard releases.
func (c *Coordinator) ExecuteRetry(ctx context.Context, dispatch DispatchFunc) bool {
	c.mu.Lock()
	if c.lastAction == nil {
		c.mu.Unlock()
		retryAttemptsTotal.WithLabelValues("no_action").Inc()
		return false
	}
	if c.inFlight {
		c.mu.Unlock()
		retryAttemptsTotal.WithLabelValues("rejected").Inc()
		c.logger.Debug("Retry rejected, another retry already in flight")
		return false
	}
	c.inFlight = true
	action := *c.lastAction
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	correlationID := uuid.NewString()
	log := c.logger.With(
		zap.String("correlationID", correlationID),
		zap.Time("recordedAt", action.RecordedAt),
	)
	log.Info("Retrying last action")

	if err := dispatch(ctx, action.Text, correlationID); err != nil {
		retryAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn("Retry dispatch failed", zap.Error(err))
		return false
	}
	retryAttemptsTotal.WithLabelValues("success").Inc()
	log.Info("Retry dispatch succeeded")
	return true
}

// HandleFailure is the convenience wrapper around RecordLastAction, Classify
// and ExecuteRetry. actionText, when non-empty, is recorded as the action
// that failed. Retryable causes get exactly one retry attempt; when the
// cause is non-retryable, or the retry itself fails, the original cause is
// returned unchanged so callers can surface it verbatim.
func (c *Coordinator) HandleFailure(ctx context.Context, actionText string, snapshot json.RawMessage, cause error, dispatch DispatchFunc) error {
	if cause == nil {
		return nil
	}
	if actionText != "" {
		c.RecordLastAction(actionText, snapshot)
	}
	if Classify(cause) != Retryable {
		c.logger.Debug("Failure classified as non-retryable", zap.Error(cause))
		return cause
	}
	if c.ExecuteRetry(ctx, dispatch) {
		return nil
	}
	return cause
}
