// Package queue_publisher provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/logging"
	q "github.com/iliyamo/wedding-seating/internal/queue"
)

const dialTimeout = 3 * time.Second

// Publisher sends planner events to the configured change queue.  A
// connection is opened per publish; assignment changes are rare enough
// that pooling is not worth a reconnect state machine.
type Publisher struct {
	cfg config.QueueConfig
}

// New returns a Publisher, or nil when the queue is disabled.
func New(cfg config.QueueConfig) *Publisher {
	if !cfg.Enabled {
		return nil
	}
	return &Publisher{cfg: cfg}
}

// PublishAssignmentsChanged publishes an AssignmentsChangedEvent to the
// change queue.  The function attempts to be robust and to never panic;
// any error is logged and returned so the caller can choose to ignore it.
// Messages are marked as persistent.
func (p *Publisher) PublishAssignmentsChanged(ctx context.Context, event q.AssignmentsChangedEvent) error {
	if p == nil {
		return nil
	}
	conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{
		Dial:      amqp.DefaultDial(dialTimeout), // keep request latency bounded when the broker is down
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		logging.Log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logging.Log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		p.cfg.ChangedQueue, // name
		true,               // durable
		false,              // autoDelete
		false,              // exclusive
		false,              // noWait
		nil,                // args
	); err != nil {
		logging.Log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		logging.Log.Warn("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                 // default exchange
		p.cfg.ChangedQueue, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		pub,
	); err != nil {
		logging.Log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}

	logging.Log.Debug("rabbitmq: published assignments change",
		zap.String("chart", event.ChartID), zap.String("reason", event.Reason))
	return nil
}
