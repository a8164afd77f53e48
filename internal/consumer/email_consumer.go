package consumer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/go_shop/internal/notification"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const HeaderAttempt = "attempt"

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type BatchHandler interface {
	HandleBatch(ctx context.Context, msgs []notification.Message) notification.BatchResult
}

type Config struct {
	BatchSize   int
	BatchWait   time.Duration
	MaxAttempts int
	// ErrorBackoff is the first pause after a failed batch; it doubles per
	// consecutive failure up to maxErrorBackoff.
	ErrorBackoff time.Duration
}

const maxErrorBackoff = 30 * time.Second

// EmailConsumer feeds order events to the dispatcher in batches. Failed
// messages go to the retry topic before the batch is committed.
type EmailConsumer struct {
	reader  MessageReader
	retry   MessageWriter
	handler BatchHandler
	cfg     Config
	log     logrus.FieldLogger
}

// NewGroupReader reads both the main and the retry topic in one consumer group.
func NewGroupReader(groupID string, topics []string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MaxBytes:    10e6, // 10MB
	})
}

func NewRetryWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewEmailConsumer(reader MessageReader, retry MessageWriter, handler BatchHandler, cfg Config, log logrus.FieldLogger) *EmailConsumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.BatchWait <= 0 {
		cfg.BatchWait = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 500 * time.Millisecond
	}
	return &EmailConsumer{reader: reader, retry: retry, handler: handler, cfg: cfg, log: log}
}

func (c *EmailConsumer) Run(ctx context.Context) {
	backoff := c.cfg.ErrorBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.processBatch(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			backoff = c.cfg.ErrorBackoff
			continue
		}

		c.log.WithError(err).WithField("retry_in", backoff.String()).Error("batch processing failed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxErrorBackoff)
	}
}

func (c *EmailConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.WithError(err).Warn("error closing kafka reader")
	}
	if err := c.retry.Close(); err != nil {
		c.log.WithError(err).Warn("error closing retry writer")
	}
}

func (c *EmailConsumer) processBatch(ctx context.Context) error {
	batch, err := c.fetchBatch(ctx)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	msgs := make([]notification.Message, len(batch))
	byID := make(map[string]kafka.Message, len(batch))
	for i, m := range batch {
		id := messageID(m)
		msgs[i] = notification.Message{ID: id, Body: m.Value}
		byID[id] = m
	}

	result := c.handler.HandleBatch(ctx, msgs)

	if err := c.requeue(ctx, result.BatchItemFailures, byID); err != nil {
		// Nothing is committed, so the whole batch comes back.
		return err
	}

	if err := c.reader.CommitMessages(ctx, batch...); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"messages": len(batch),
		"failures": len(result.BatchItemFailures),
	}).Info("batch committed")
	return nil
}

// fetchBatch blocks for the first message, then collects more until the
// batch is full or BatchWait has passed.
func (c *EmailConsumer) fetchBatch(ctx context.Context) ([]kafka.Message, error) {
	first, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := []kafka.Message{first}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.BatchWait)
	defer cancel()
	for len(batch) < c.cfg.BatchSize {
		m, err := c.reader.FetchMessage(waitCtx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, err
		}
		batch = append(batch, m)
	}
	return batch, nil
}

func (c *EmailConsumer) requeue(ctx context.Context, failures []notification.BatchItemFailure, byID map[string]kafka.Message) error {
	var retries []kafka.Message
	for _, f := range failures {
		m, ok := byID[f.ItemIdentifier]
		if !ok {
			continue
		}
		attempt := attemptOf(m) + 1
		if attempt >= c.cfg.MaxAttempts {
			c.log.WithFields(logrus.Fields{"message_id": f.ItemIdentifier, "attempts": attempt}).Error("dropping message after max attempts")
			continue
		}
		retries = append(retries, kafka.Message{
			Key:     m.Key,
			Value:   m.Value,
			Headers: withAttempt(m.Headers, attempt),
		})
	}
	if len(retries) == 0 {
		return nil
	}
	if err := c.retry.WriteMessages(ctx, retries...); err != nil {
		return fmt.Errorf("requeue failed messages: %w", err)
	}
	return nil
}

func messageID(m kafka.Message) string {
	return fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset)
}

func attemptOf(m kafka.Message) int {
	for _, h := range m.Headers {
		if h.Key == HeaderAttempt {
			n, err := strconv.Atoi(string(h.Value))
			if err == nil {
				return n
			}
		}
	}
	return 0
}

func withAttempt(headers []kafka.Header, attempt int) []kafka.Header {
	out := make([]kafka.Header, 0, len(headers)+1)
	for _, h := range headers {
		if h.Key != HeaderAttempt {
			out = append(out, h)
		}
	}
	return append(out, kafka.Header{Key: HeaderAttempt, Value: []byte(strconv.Itoa(attempt))})
}
