package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockWriter struct {
	m      sync.Mutex
	msgs   []kafkaGo.Message
	err    error
	closed bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func paidEvent() domain.OrderEvent {
	return domain.OrderEvent{
		Type:  domain.EventTypeOrderPaid,
		Order: &domain.Order{OrderID: "o1", UserID: "u1", Status: domain.OrderStatusPaid, TotalAmount: 42},
	}
}

func TestPublish_MessageShape(t *testing.T) {
	w := &mockWriter{}
	p := NewKafkaPublisher(w)

	require.NoError(t, p.Publish(context.Background(), paidEvent()))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "o1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, domain.EventTypeOrderPaid, string(msg.Headers[0].Value))

	var decoded domain.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, domain.EventTypeOrderPaid, decoded.Type)
	assert.Equal(t, "u1", decoded.Order.UserID)
}

func TestPublish_MissingOrder(t *testing.T) {
	w := &mockWriter{}
	p := NewKafkaPublisher(w)

	err := p.Publish(context.Background(), domain.OrderEvent{Type: domain.EventTypeOrderPaid})
	assert.ErrorIs(t, err, ErrMissingOrder)
	assert.Empty(t, w.msgs)
}

func TestPublish_WriterError(t *testing.T) {
	p := NewKafkaPublisher(&mockWriter{err: errors.New("leader not available")})

	err := p.Publish(context.Background(), paidEvent())
	assert.ErrorContains(t, err, "leader not available")
}

func TestClose(t *testing.T) {
	w := &mockWriter{}
	require.NoError(t, NewKafkaPublisher(w).Close())
	assert.True(t, w.closed)
}

func setupKafka(t *testing.T) (string, func()) {
	if testing.Short() {
		t.Skip("skipping Kafka container test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestKafkaPublisher_Integration(t *testing.T) {
	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()

	createTopic(t, brokerAddr, "order-events")
	time.Sleep(5 * time.Second)

	writer := NewKafkaWriter("order-events", brokerAddr)
	writer.WriteTimeout = 10 * time.Second
	p := NewKafkaPublisher(writer)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, p.Publish(ctx, paidEvent()))

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    "order-events",
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "o1", string(msg.Key))
	assert.Equal(t, domain.EventTypeOrderPaid, string(msg.Headers[0].Value))
}
