package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/asset-service/internal/config"
	"github.com/Dan9191/asset-service/internal/models"
	"github.com/Dan9191/asset-service/internal/service"
	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const connectAttempts = 10

// Processor applies one decoded transfer message
type Processor interface {
	ProcessMessage(ctx context.Context, msg models.TransferMessage) error
}

// Consumer reads transfer messages from the payment record queue
type Consumer struct {
	cfg  *config.Config
	proc Processor
	log  *logrus.Logger
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewConsumer initializes a new consumer; call Connect before Run
func NewConsumer(cfg *config.Config, proc Processor, log *logrus.Logger) *Consumer {
	return &Consumer{cfg: cfg, proc: proc, log: log}
}

// Connect dials the broker and declares the exchange, queue and binding
func (c *Consumer) Connect(ctx context.Context) error {
	dial := func() error {
		conn, err := amqp.Dial(c.cfg.AMQPURL)
		if err != nil {
			return err
		}
		c.conn = conn
		return nil
	}
	notify := func(err error, next time.Duration) {
		c.log.Warnf("Failed to connect to broker: %v. Retrying in %v...", err, next)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectAttempts-1), ctx)
	if err := backoff.RetryNotify(dial, b, notify); err != nil {
		return fmt.Errorf("failed to connect to broker after %d attempts: %w", connectAttempts, err)
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	c.ch = ch

	if err := ch.ExchangeDeclare(c.cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(c.cfg.Queue, c.cfg.RoutingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}
	return nil
}

// Run consumes deliveries until ctx is cancelled or the channel closes
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	c.log.Infof("Consuming from queue %s", c.cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// Close shuts the channel and the connection
func (c *Consumer) Close() error {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// handleDelivery acks a processed message. A message that cannot be decoded,
// is invalid, or still fails after the retry policy is nacked without requeue.
// A transient failure cut short by shutdown is requeued instead.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	log := c.log.WithField("delivery_tag", d.DeliveryTag)
	log.Debugf("Received message: %s", string(d.Body))

	var msg models.TransferMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Errorf("Discarding undecodable message: %v", err)
		c.nack(log, d)
		return
	}

	attempt := 0
	op := func() error {
		attempt++
		err := c.proc.ProcessMessage(ctx, msg)
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		log.Errorf("RetryCount: %d with error: %v", attempt, err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(c.retryPolicy(), ctx), notify); err != nil {
		if ctx.Err() != nil && !isPermanent(err) {
			log.Warnf("Shutting down, returning message to queue after %d attempts: %v", attempt, err)
			if err := d.Nack(false, true); err != nil {
				log.Errorf("Failed to requeue message: %v", err)
			}
			return
		}
		log.Errorf("Process message encounter exception after %d attempts: %v", attempt, err)
		c.nack(log, d)
		return
	}
	if attempt > 1 {
		log.Info("Retry Success")
	}
	if err := d.Ack(false); err != nil {
		log.Errorf("Failed to ack message: %v", err)
	}
}

// isPermanent reports errors that no retry can fix
func isPermanent(err error) bool {
	return errors.Is(err, service.ErrInvalidRequest) || errors.Is(err, service.ErrForbidden)
}

func (c *Consumer) nack(log *logrus.Entry, d amqp.Delivery) {
	if err := d.Nack(false, false); err != nil {
		log.Errorf("Failed to nack message: %v", err)
	}
}

// retryPolicy bounds processing to MaxAttempts tries with exponential backoff
func (c *Consumer) retryPolicy() backoff.BackOff {
	r := c.cfg.Retry
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialInterval
	b.Multiplier = r.Multiplier
	b.MaxInterval = r.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(r.MaxAttempts-1))
}
