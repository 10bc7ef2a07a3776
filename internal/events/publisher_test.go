package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	portsevents "github.com/SscSPs/school_fee_ledger/internal/core/ports/events"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	a := m.Called(name, durable)
	return amqp.Queue{Name: name}, a.Error(0)
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	a := m.Called(key, msg)
	return a.Error(0)
}

func TestAMQPPublisher_PublishesPersistentJSON(t *testing.T) {
	ch := new(mockChannel)
	p := &AMQPPublisher{ch: ch, queue: "fee_ledger_events"}

	event := portsevents.Event{ID: "e1", Type: portsevents.PaymentCollected, OccurredAt: time.Date(2025, 4, 5, 9, 0, 0, 0, time.UTC), ActorID: "u1", Payload: map[string]string{"receiptNumber": "RC-2025-000001"}}

	ch.On("QueueDeclare", "fee_ledger_events", true).Return(nil).Once()
	ch.On("PublishWithContext", "fee_ledger_events", mock.MatchedBy(func(msg amqp.Publishing) bool {
		var decoded portsevents.Event
		return msg.DeliveryMode == amqp.Persistent &&
			msg.ContentType == "application/json" &&
			msg.MessageId == "e1" &&
			json.Unmarshal(msg.Body, &decoded) == nil &&
			decoded.Type == portsevents.PaymentCollected
	})).Return(nil).Twice()

	require.NoError(t, p.Publish(context.Background(), event))
	require.NoError(t, p.Publish(context.Background(), event))

	ch.AssertExpectations(t)
	assert.Equal(t, int64(2), p.Metrics()["messages_published"])
	assert.NoError(t, p.Close())
}

func TestAMQPPublisher_CountsFailures(t *testing.T) {
	ch := new(mockChannel)
	p := &AMQPPublisher{ch: ch, queue: "q"}

	ch.On("QueueDeclare", "q", true).Return(nil)
	ch.On("PublishWithContext", "q", mock.Anything).Return(errors.New("channel closed"))

	err := p.Publish(context.Background(), portsevents.Event{ID: "e1", Type: portsevents.PaymentReversed})
	assert.ErrorContains(t, err, "channel closed")
	assert.Equal(t, int64(1), p.Metrics()["messages_failed"])
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), portsevents.Event{ID: "e1", Type: portsevents.StudentFeeWaived}))
	assert.NoError(t, p.Close())
}
