package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"

	"inventori/internal/models"
)

const (
	// CheckQuantityQueue is the inbound channel carrying CheckQuantityEvent messages.
	CheckQuantityQueue = "check-quantity"
	// AvailableQuantityQueue is the outbound channel carrying AvailableQuantityEvent messages.
	AvailableQuantityQueue = "available-quantity"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the two
// quantity queues as durable.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, queue := range []string{CheckQuantityQueue, AvailableQuantityQueue} {
		_, err = ch.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
	}

	logger.Info("RabbitMQ client connected, quantity queues declared")

	return &Client{
		conn:    conn,
		channel: ch,
		logger:  logger,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishAvailableQuantity publishes an availability answer to the
// available-quantity queue as a persistent JSON message.
func (c *Client) PublishAvailableQuantity(event models.AvailableQuantityEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal AvailableQuantityEvent: %w", err)
	}

	err = c.channel.Publish(
		"",                     // exchange: default exchange
		AvailableQuantityQueue, // routing key: the queue name
		false,                  // mandatory
		false,                  // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			CorrelationId: uuid.New().String(),
			Timestamp:     time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("published availability event",
		zap.Uint("product_id", event.ProductID),
		zap.Bool("available", event.IsAvailable),
	)
	return nil
}

// ConsumeCheckQuantity listens for check-quantity messages and hands each
// delivery to the handler. Successful handling acks the message; a
// handler error nacks it back onto the queue.
func (c *Client) ConsumeCheckQuantity(messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		CheckQuantityQueue,                   // queue
		"inventori-"+uuid.New().String()[:8], // consumer tag
		false,                                // auto-ack: manual acknowledgement
		false,                                // exclusive
		false,                                // no-local
		false,                                // no-wait
		nil,                                  // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("waiting for check-quantity events")

	go func() {
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				c.logger.Error("error processing check-quantity message",
					zap.Uint64("delivery_tag", msg.DeliveryTag),
					zap.Error(err),
				)
				// Requeue so a transient failure gets another shot.
				if requeueErr := msg.Nack(false, true); requeueErr != nil {
					c.logger.Error("error nacking message", zap.Error(requeueErr))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				c.logger.Error("error acking message", zap.Error(ackErr))
			}
		}
	}()

	return nil
}
