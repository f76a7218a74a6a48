// Package clients holds outbound clients for the upstream generator.
package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saga_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
)

// Config configures the direct AI dispatcher.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	SystemPrompt string
}

// ResultHandler receives the generated narration for a dispatched action.
type ResultHandler func(ctx context.Context, sessionID uuid.UUID, text string) error

// AIDispatcher sends actions straight to an OpenAI-compatible API instead of
// the task queue. Its failures carry HTTP status codes (429, 503) that the
// retry classifier understands.
type AIDispatcher struct {
	client  *openaigo.Client
	model   string
	prompt  string
	logger  *zap.Logger
	handler ResultHandler
}

// NewAIDispatcher creates the direct dispatcher. handler may be nil, in
// which case generated text is only logged.
func NewAIDispatcher(cfg Config, handler ResultHandler, logger *zap.Logger) *AIDispatcher {
	clientCfg := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &AIDispatcher{
		client:  openaigo.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		prompt:  cfg.SystemPrompt,
		logger:  logger.Named("AIDispatcher"),
		handler: handler,
	}
}

func (d *AIDispatcher) DispatchAction(ctx context.Context, sessionID, playerID uuid.UUID, actionText, correlationID string) error {
	log := d.logger.With(
		zap.Stringer("sessionID", sessionID),
		zap.String("correlationID", correlationID),
	)

	start := time.Now()
	resp, err := d.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: d.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleSystem, Content: d.prompt},
			{Role: openaigo.ChatMessageRoleUser, Content: actionText},
		},
	})
	duration := time.Since(start)

	if err != nil {
		aiRequestsTotal.With(prometheus.Labels{"model": d.model, "status": "error"}).Inc()
		log.Warn("AI request failed", zap.Duration("duration", duration), zap.Error(err))
		return fmt.Errorf("ai dispatch failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": d.model, "status": "error_empty_response"}).Inc()
		return fmt.Errorf("ai dispatch failed: empty response")
	}

	aiRequestsTotal.With(prometheus.Labels{"model": d.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": d.model}).Observe(duration.Seconds())

	text := resp.Choices[0].Message.Content
	log.Info("AI response received",
		zap.Duration("duration", duration), zap.Int("chars", len(text)))

	if d.handler != nil {
		if err := d.handler(ctx, sessionID, text); err != nil {
			return fmt.Errorf("ai result handler failed: %w", err)
		}
	}
	return nil
}
