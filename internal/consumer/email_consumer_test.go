package consumer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_shop/internal/notification"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockReader hands out queued messages and then blocks until ctx ends.
type mockReader struct {
	m         sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	commitErr error
}

func (r *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.m.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.m.Unlock()
		return m, nil
	}
	r.m.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.commitErr != nil {
		return r.commitErr
	}
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *mockReader) Close() error { return nil }

type mockWriter struct {
	m    sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

// failingHandler fails every message whose body is "bad".
type failingHandler struct {
	batches [][]notification.Message
}

func (h *failingHandler) HandleBatch(_ context.Context, msgs []notification.Message) notification.BatchResult {
	h.batches = append(h.batches, msgs)
	res := notification.BatchResult{BatchItemFailures: []notification.BatchItemFailure{}}
	for _, m := range msgs {
		if string(m.Body) == "bad" {
			res.BatchItemFailures = append(res.BatchItemFailures, notification.BatchItemFailure{ItemIdentifier: m.ID})
		}
	}
	return res
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

func msg(offset int64, body string, headers ...kafka.Header) kafka.Message {
	return kafka.Message{Topic: "order-events", Partition: 0, Offset: offset, Key: []byte("o1"), Value: []byte(body), Headers: headers}
}

func newTestConsumer(reader *mockReader, writer *mockWriter, h BatchHandler, size int) *EmailConsumer {
	return NewEmailConsumer(reader, writer, h, Config{BatchSize: size, BatchWait: 50 * time.Millisecond, MaxAttempts: 3}, quietLogger())
}

func TestProcessBatch_CommitsAndRequeuesFailures(t *testing.T) {
	reader := &mockReader{queue: []kafka.Message{msg(1, "ok"), msg(2, "bad"), msg(3, "ok")}}
	writer := &mockWriter{}
	h := &failingHandler{}
	c := newTestConsumer(reader, writer, h, 10)

	require.NoError(t, c.processBatch(context.Background()))

	require.Len(t, h.batches, 1)
	assert.Len(t, h.batches[0], 3)
	assert.Equal(t, "order-events/0/2", h.batches[0][1].ID)

	assert.Len(t, reader.committed, 3)
	require.Len(t, writer.msgs, 1)
	assert.Equal(t, "bad", string(writer.msgs[0].Value))
	assert.Equal(t, 1, attemptOf(writer.msgs[0]))
}

func TestProcessBatch_RespectsBatchSize(t *testing.T) {
	reader := &mockReader{queue: []kafka.Message{msg(1, "ok"), msg(2, "ok"), msg(3, "ok")}}
	h := &failingHandler{}
	c := newTestConsumer(reader, &mockWriter{}, h, 2)

	require.NoError(t, c.processBatch(context.Background()))
	require.NoError(t, c.processBatch(context.Background()))

	require.Len(t, h.batches, 2)
	assert.Len(t, h.batches[0], 2)
	assert.Len(t, h.batches[1], 1)
	assert.Len(t, reader.committed, 3)
}

func TestProcessBatch_DropsAfterMaxAttempts(t *testing.T) {
	reader := &mockReader{queue: []kafka.Message{
		msg(1, "bad", kafka.Header{Key: HeaderAttempt, Value: []byte("2")}),
	}}
	writer := &mockWriter{}
	c := newTestConsumer(reader, writer, &failingHandler{}, 10)

	require.NoError(t, c.processBatch(context.Background()))

	assert.Empty(t, writer.msgs)
	assert.Len(t, reader.committed, 1)
}

func TestProcessBatch_RequeueFailureSkipsCommit(t *testing.T) {
	reader := &mockReader{queue: []kafka.Message{msg(1, "bad")}}
	writer := &mockWriter{err: errors.New("broker down")}
	c := newTestConsumer(reader, writer, &failingHandler{}, 10)

	err := c.processBatch(context.Background())
	assert.ErrorContains(t, err, "broker down")
	assert.Empty(t, reader.committed)
}

func TestRun_StopsOnCancel(t *testing.T) {
	reader := &mockReader{queue: []kafka.Message{msg(1, "ok")}}
	h := &failingHandler{}
	c := newTestConsumer(reader, &mockWriter{}, h, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		reader.m.Lock()
		defer reader.m.Unlock()
		return len(reader.committed) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

// brokenReader fails every fetch immediately, like a reader closed underneath.
type brokenReader struct {
	m       sync.Mutex
	fetches int
}

func (r *brokenReader) FetchMessage(context.Context) (kafka.Message, error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.fetches++
	return kafka.Message{}, io.ErrClosedPipe
}

func (r *brokenReader) CommitMessages(context.Context, ...kafka.Message) error { return nil }

func (r *brokenReader) Close() error { return nil }

func TestRun_BacksOffOnRepeatedErrors(t *testing.T) {
	reader := &brokenReader{}
	c := NewEmailConsumer(reader, &mockWriter{}, &failingHandler{}, Config{
		BatchSize:    10,
		BatchWait:    10 * time.Millisecond,
		ErrorBackoff: 20 * time.Millisecond,
	}, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	c.Run(ctx)

	reader.m.Lock()
	defer reader.m.Unlock()
	// 20ms, 40ms, 80ms, 160ms: a handful of attempts, not a hot loop.
	assert.GreaterOrEqual(t, reader.fetches, 2)
	assert.LessOrEqual(t, reader.fetches, 6)
}

func TestWithAttempt_ReplacesHeader(t *testing.T) {
	headers := withAttempt([]kafka.Header{
		{Key: "event_type", Value: []byte("ORDER_PAID")},
		{Key: HeaderAttempt, Value: []byte("1")},
	}, 2)

	assert.Len(t, headers, 2)
	assert.Equal(t, 2, attemptOf(kafka.Message{Headers: headers}))
	assert.Equal(t, "event_type", headers[0].Key)
}
