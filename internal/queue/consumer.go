package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/menu-catalog/internal/config"
	"github.com/iliyamo/menu-catalog/internal/logger"
)

// Handler processes one catalog change.  A returned error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, ev CatalogChangedEvent) error

// StartCatalogConsumer consumes the catalog queue until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s) whenever the broker
// connection drops.
func StartCatalogConsumer(ctx context.Context, cfg config.QueueConfig, handle Handler, log *logger.Logger) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := dial(ctx, cfg.URL)
		if err != nil {
			log.Warn("catalog-consumer: dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, cfg.CatalogQueue, handle, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn("catalog-consumer: consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName string, handle Handler, log *logger.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("catalog-consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	log.Info("catalog-consumer: consuming", "queue", queueName)
	for d := range msgs {
		if err := handleMessage(ctx, d.Body, handle); err != nil {
			log.Error("catalog-consumer: handle message failed", "error", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(ctx context.Context, body []byte, handle Handler) error {
	var ev CatalogChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.CatalogID == 0 {
		return errors.New("event without catalog_id")
	}
	return handle(ctx, ev)
}
