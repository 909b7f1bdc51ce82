package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/menu-catalog/internal/config"
	"github.com/iliyamo/menu-catalog/internal/logger"
)

// Publisher sends CatalogChangedEvent messages to a durable queue.  Each
// publish opens its own connection, so a broker outage never poisons
// long-lived state; errors are logged and returned and callers may ignore
// them.
type Publisher struct {
	url   string
	queue string
	log   *logger.Logger
}

func NewPublisher(cfg config.QueueConfig, log *logger.Logger) *Publisher {
	return &Publisher{url: cfg.URL, queue: cfg.CatalogQueue, log: log}
}

// dialTimeout bounds connection setup when ctx carries no deadline.
const dialTimeout = 30 * time.Second

// dial opens a broker connection whose TCP connect and AMQP handshake end by
// ctx's deadline.
func dial(ctx context.Context, url string) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// PublishCatalogChanged publishes ev as a persistent JSON message on the
// default exchange, routed to the catalog queue.
func (p *Publisher) PublishCatalogChanged(ctx context.Context, ev CatalogChangedEvent) error {
	conn, err := dial(ctx, p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		p.log.Warn("rabbitmq queue declare failed", "queue", p.queue, "error", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Action,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq publish failed", "queue", p.queue, "error", err)
		return err
	}
	return nil
}
