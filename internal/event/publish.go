package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Change describes one successful mutation of a content collection.
type Change struct {
	Collection string
	Action     string
	ID         string
	Slug       string
}

// RoutingKey is "<collection>.<action>", e.g. "news.created".
func (c Change) RoutingKey() string {
	return c.Collection + "." + c.Action
}

type ContentChangedMessage struct {
	Event      string    `json:"event"`
	Timestamp  time.Time `json:"timestamp"`
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Slug       string    `json:"slug,omitempty"`
}

type PublishingChannel interface {
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	Close() error
}

type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       PublishingChannel
	exchange string
	logger   *log.Logger
}

func NewRabbitPublisher(uri, exchange string, logger *log.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connection failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel creation failed: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare failed: %w", err)
	}

	return &RabbitPublisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *RabbitPublisher) PublishContentChanged(ctx context.Context, c Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(ContentChangedMessage{
		Event:      "content." + c.Action,
		Timestamp:  time.Now().UTC(),
		Collection: c.Collection,
		ID:         c.ID,
		Slug:       c.Slug,
	})
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		c.RoutingKey(),
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
}
