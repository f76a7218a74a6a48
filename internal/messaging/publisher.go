package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ActionTaskPublisher defines the interface for publishing action tasks to
// the generation queue.
type ActionTaskPublisher interface {
	PublishActionTask(ctx context.Context, payload ActionTaskPayload) error
}

// rabbitMQPublisher implements ActionTaskPublisher for RabbitMQ.
type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQActionTaskPublisher opens a channel and declares the durable
// task queue. Declaring here (rather than passively) keeps the system
// resilient to service start order; the parameters must match the
// generator-side consumer.
func NewRabbitMQActionTaskPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (ActionTaskPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("action task publisher: failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("action task publisher: failed to declare queue '%s': %w", queueName, err)
	}
	logger.Info("Action task queue declared", zap.String("queue", queueName))
	return &rabbitMQPublisher{channel: ch, queueName: queueName, logger: logger.Named("ActionTaskPublisher")}, nil
}

// PublishActionTask publishes one action task as a persistent JSON message.
func (p *rabbitMQPublisher) PublishActionTask(ctx context.Context, payload ActionTaskPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize action task %s: %w", payload.TaskID, err)
	}
	if err := p.publishMessage(ctx, body); err != nil {
		p.logger.Error("Failed to publish action task",
			zap.String("taskID", payload.TaskID),
			zap.String("sessionID", payload.SessionID),
			zap.Error(err))
		return fmt.Errorf("failed to publish action task %s: %w", payload.TaskID, err)
	}
	return nil
}

// publishMessage publishes with up to 3 attempts and a short linear backoff.
// This transport-level retry is invisible to the retry coordinator, which
// governs re-dispatching whole actions.
func (p *rabbitMQPublisher) publishMessage(ctx context.Context, body []byte) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (default)
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "saga-server",
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Warn("Publish attempt failed",
			zap.Int("attempt", attempt), zap.String("queue", p.queueName), zap.Error(err))
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return fmt.Errorf("failed to publish to queue %s after retries: %w", p.queueName, err)
}

// QueueDispatcher adapts the publisher to the service's ActionDispatcher
// interface: dispatching an action means publishing a generation task.
type QueueDispatcher struct {
	publisher ActionTaskPublisher
	language  string
}

func NewQueueDispatcher(publisher ActionTaskPublisher, language string) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher, language: language}
}

func (d *QueueDispatcher) DispatchAction(ctx context.Context, sessionID, playerID uuid.UUID, actionText, correlationID string) error {
	return d.publisher.PublishActionTask(ctx, ActionTaskPayload{
		TaskID:        uuid.NewString(),
		SessionID:     sessionID.String(),
		PlayerID:      playerID.String(),
		ActionText:    actionText,
		CorrelationID: correlationID,
		Language:      d.language,
	})
}
