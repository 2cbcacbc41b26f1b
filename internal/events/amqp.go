package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"
)

// DefaultExchange receives every event; the routing key is the event type.
const DefaultExchange = "campusfix.events"

// AMQPConfig describes the RabbitMQ connection.
type AMQPConfig struct {
	URL      string
	Exchange string
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher writes events as persistent JSON messages to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(ctx context.Context, cfg AMQPConfig) (*AMQPPublisher, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("events: amqp url is required")
	}
	exchange := strings.TrimSpace(cfg.Exchange)
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("events: dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("events: declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func newAMQPPublisherWithChannel(ch amqpChannel, exchange string) *AMQPPublisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &AMQPPublisher{channel: ch, exchange: exchange}
}

// Publish sends event with its type as routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, event, err := encode(event)
	if err != nil {
		return err
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
	observe(DriverAMQP, err)
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", event.Type, err)
	}
	return nil
}

// Close shuts the channel and connection down.
func (p *AMQPPublisher) Close() error {
	var err error
	if p.channel != nil {
		err = multierr.Append(err, p.channel.Close())
	}
	if p.conn != nil {
		err = multierr.Append(err, p.conn.Close())
	}
	return err
}
