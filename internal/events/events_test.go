package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, msg).Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(msgs).Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func TestNewSelectsDriver(t *testing.T) {
	pub, err := New(context.Background(), Config{})
	require.NoError(t, err)
	require.IsType(t, Nop{}, pub)
	require.NoError(t, pub.Publish(context.Background(), Event{Type: ComplaintSubmitted}))
	require.NoError(t, pub.Close())

	_, err = New(context.Background(), Config{Driver: "carrier-pigeon"})
	require.Error(t, err)

	_, err = New(context.Background(), Config{Driver: DriverAMQP})
	require.Error(t, err)

	_, err = New(context.Background(), Config{Driver: DriverKafka})
	require.Error(t, err)

	pub, err = New(context.Background(), Config{Driver: "KAFKA", Kafka: KafkaConfig{Brokers: []string{" localhost:9092 "}}})
	require.NoError(t, err)
	require.IsType(t, &KafkaPublisher{}, pub)
}

func TestAMQPPublisherRoutesByType(t *testing.T) {
	ch := &mockChannel{}
	ch.On("PublishWithContext", "campusfix.events", ComplaintStatusChanged, mock.MatchedBy(func(msg amqp.Publishing) bool {
		var ev Event
		if err := json.Unmarshal(msg.Body, &ev); err != nil {
			return false
		}
		return msg.ContentType == "application/json" &&
			msg.DeliveryMode == amqp.Persistent &&
			msg.MessageId == ev.ID && ev.ID != "" &&
			ev.TicketID == "C007" && ev.Status == "resolved"
	})).Return(nil).Once()
	ch.On("Close").Return(nil).Once()

	pub := newAMQPPublisherWithChannel(ch, "")
	require.NoError(t, pub.Publish(context.Background(), Event{
		Type:           ComplaintStatusChanged,
		TicketID:       "C007",
		Status:         "resolved",
		PreviousStatus: "pending",
	}))
	require.NoError(t, pub.Close())
	ch.AssertExpectations(t)
}

func TestAMQPPublisherWrapsFailure(t *testing.T) {
	ch := &mockChannel{}
	ch.On("PublishWithContext", "custom", ApplicationDeleted, mock.Anything).Return(errors.New("channel closed"))

	pub := newAMQPPublisherWithChannel(ch, "custom")
	err := pub.Publish(context.Background(), Event{Type: ApplicationDeleted, TicketID: "A001"})
	require.ErrorContains(t, err, "channel closed")
}

func TestKafkaPublisherKeysByTicket(t *testing.T) {
	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	w := &mockWriter{}
	w.On("WriteMessages", mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		var ev Event
		if err := json.Unmarshal(msgs[0].Value, &ev); err != nil {
			return false
		}
		return string(msgs[0].Key) == "A012" && ev.Type == ApplicationVerified && msgs[0].Time.Equal(at)
	})).Return(nil).Once()
	w.On("Close").Return(nil).Once()

	pub := &KafkaPublisher{writer: w}
	require.NoError(t, pub.Publish(context.Background(), Event{Type: ApplicationVerified, TicketID: "A012", OccurredAt: at}))
	require.NoError(t, pub.Close())
	w.AssertExpectations(t)
}
