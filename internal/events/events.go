// Package events publishes ticket lifecycle events to an external broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusfix/campusfix/pkg/metrics"
)

// Event types.
const (
	ComplaintSubmitted       = "complaint.submitted"
	ComplaintStatusChanged   = "complaint.status_changed"
	ComplaintDeleted         = "complaint.deleted"
	ApplicationSubmitted     = "application.submitted"
	ApplicationVerified      = "application.verified"
	ApplicationStatusChanged = "application.status_changed"
	ApplicationDeleted       = "application.deleted"
)

// Drivers.
const (
	DriverNone  = "none"
	DriverAMQP  = "amqp"
	DriverKafka = "kafka"
)

// Event describes something that happened to a ticket.
type Event struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	TicketID       string    `json:"ticket_id"`
	Department     string    `json:"department,omitempty"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	OwnerID        string    `json:"owner_id,omitempty"`
	ActorID        string    `json:"actor_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher hands events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Config selects and configures a publisher.
type Config struct {
	Driver string
	AMQP   AMQPConfig
	Kafka  KafkaConfig
}

// New builds the publisher named by cfg.Driver. An empty driver disables
// publishing.
func New(ctx context.Context, cfg Config) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverNone:
		return Nop{}, nil
	case DriverAMQP:
		return NewAMQPPublisher(ctx, cfg.AMQP)
	case DriverKafka:
		return NewKafkaPublisher(cfg.Kafka)
	default:
		return nil, fmt.Errorf("events: unsupported driver %q", cfg.Driver)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }

// encode fills in the envelope fields and marshals the event.
func encode(event Event) ([]byte, Event, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return nil, event, fmt.Errorf("events: marshal %s: %w", event.Type, err)
	}
	return body, event, nil
}

func observe(driver string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.EventsPublished.WithLabelValues(driver, result).Inc()
}
