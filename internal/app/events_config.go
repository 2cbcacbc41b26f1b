package app

import (
	"strings"

	"github.com/campusfix/campusfix/internal/events"
)

// PublisherConfig converts the events section into the events package representation.
// Blank broker addresses are dropped.
func (c EventsConfig) PublisherConfig() events.Config {
	brokers := make([]string, 0, len(c.Kafka.Brokers))
	for _, broker := range c.Kafka.Brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}

	return events.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		AMQP: events.AMQPConfig{
			URL:      strings.TrimSpace(c.AMQP.URL),
			Exchange: strings.TrimSpace(c.AMQP.Exchange),
		},
		Kafka: events.KafkaConfig{
			Brokers:      brokers,
			Topic:        strings.TrimSpace(c.Kafka.Topic),
			WriteTimeout: c.Kafka.WriteTimeout,
		},
	}
}
