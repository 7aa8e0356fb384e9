package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/mmynk/settleup/internal/models"
)

// RecurrenceFailedEvent is published for every skipped occurrence.
type RecurrenceFailedEvent struct {
	FailureID    string    `json:"failure_id"`
	ExpenseID    string    `json:"expense_id"`
	GroupID      string    `json:"group_id"`
	OccurrenceAt int64     `json:"occurrence_at"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}

func newRecurrenceFailedEvent(f models.RecurrenceFailure) RecurrenceFailedEvent {
	return RecurrenceFailedEvent{
		FailureID:    f.ID,
		ExpenseID:    f.ExpenseID,
		GroupID:      f.GroupID,
		OccurrenceAt: f.OccurrenceAt,
		Reason:       f.Reason,
		Timestamp:    time.Now().UTC(),
	}
}

// Failure converts the event back into the stored record.
func (e RecurrenceFailedEvent) Failure() models.RecurrenceFailure {
	return models.RecurrenceFailure{
		ID:           e.FailureID,
		ExpenseID:    e.ExpenseID,
		GroupID:      e.GroupID,
		OccurrenceAt: e.OccurrenceAt,
		Reason:       e.Reason,
	}
}

func decodeRecurrenceFailed(body []byte) (RecurrenceFailedEvent, error) {
	var ev RecurrenceFailedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, err
	}
	if ev.ExpenseID == "" || ev.GroupID == "" {
		return ev, errors.New("event is missing expense or group id")
	}
	return ev, nil
}

// Client publishes and consumes events on a durable direct exchange.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewClient dials url and declares the exchange, queue and binding.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := c.setup(); err != nil {
		c.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishRecurrenceFailure publishes a persistent RecurrenceFailedEvent.
func (c *Client) PublishRecurrenceFailure(ctx context.Context, f models.RecurrenceFailure) error {
	body, err := json.Marshal(newRecurrenceFailedEvent(f))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Type:         "recurrence.failed",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.InfoContext(ctx, "Published recurrence failure",
		"expense_id", f.ExpenseID,
		"group_id", f.GroupID,
		"exchange", c.exchangeName)
	return nil
}

// ConsumeRecurrenceFailures delivers events to handler until ctx is done.
// Malformed messages are dropped; handler errors requeue the message.
func (c *Client) ConsumeRecurrenceFailures(ctx context.Context, handler func(context.Context, RecurrenceFailedEvent) error) error {
	msgs, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	slog.InfoContext(ctx, "Consuming recurrence failures", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}

			ev, err := decodeRecurrenceFailed(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Dropping malformed event", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, ev); err != nil {
				slog.ErrorContext(ctx, "Failed to handle event", "error", err, "expense_id", ev.ExpenseID)
				delivery.Nack(false, true)
				continue
			}
			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// NopPublisher logs events instead of publishing them. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishRecurrenceFailure(ctx context.Context, f models.RecurrenceFailure) error {
	slog.DebugContext(ctx, "Recurrence failure not published, no broker configured", "expense_id", f.ExpenseID)
	return nil
}

// Backoff returns the delay before reconnect attempt n: 1s doubling to a 30s cap.
func Backoff(attempt int) time.Duration {
	if attempt > 5 {
		return 30 * time.Second
	}
	d := time.Second << attempt
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

// IsConnectionError reports whether err looks like a lost broker connection.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection closed", "channel closed", "eof", "broken pipe", "closed network connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
