package service

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/sirupsen/logrus"
)

type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*domain.PaymentEvent, error)
}

type OrderStatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}

// Ledger remembers which keys were already processed.
type Ledger interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

const MissingOrderIDNote = "Error: Missing orderId in metadata"

type ConfirmationResult struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Note      string `json:"note,omitempty"`
}

type ConfirmationService struct {
	verifier  WebhookVerifier
	orders    OrderStatusUpdater
	publisher EventPublisher
	ledger    Ledger
	log       logrus.FieldLogger
}

func NewConfirmationService(verifier WebhookVerifier, orders OrderStatusUpdater, publisher EventPublisher, ledger Ledger, log logrus.FieldLogger) *ConfirmationService {
	return &ConfirmationService{
		verifier:  verifier,
		orders:    orders,
		publisher: publisher,
		ledger:    ledger,
		log:       log,
	}
}

// HandleWebhook verifies a processor notification and, for a succeeded
// payment, marks the order paid and announces it. Each event id is applied once.
func (s *ConfirmationService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*ConfirmationResult, error) {
	log := logger.WithContext(ctx, s.log)

	event, err := s.verifier.VerifyWebhook(payload, signature)
	if err != nil {
		log.WithError(err).Warn("webhook signature verification failed")
		return nil, invalidf("%v", err)
	}
	log = log.WithFields(logrus.Fields{"event_id": event.ID, "event_type": event.Type})

	if event.Type != domain.EventTypePaymentIntentSucceeded {
		log.Info("unhandled payment event")
		return &ConfirmationResult{Received: true}, nil
	}

	if event.OrderID == "" {
		log.WithField("payment_intent_id", event.PaymentIntentID).Error("payment intent has no orderId in metadata")
		return &ConfirmationResult{Received: true, Note: MissingOrderIDNote}, nil
	}
	log = log.WithField("order_id", event.OrderID)

	claimed, err := s.ledger.Claim(ctx, event.ID)
	if err != nil {
		return nil, storage("claim event", err)
	}
	if !claimed {
		log.Info("payment event already processed")
		return &ConfirmationResult{Received: true, Duplicate: true}, nil
	}

	if err := s.markPaid(ctx, event.OrderID); err != nil {
		s.release(event.ID, log)
		log.WithError(err).Error("payment confirmation failed")
		return nil, err
	}

	log.Info("order marked paid")
	return &ConfirmationResult{Received: true}, nil
}

func (s *ConfirmationService) markPaid(ctx context.Context, orderID string) error {
	order, err := s.orders.UpdateOrderStatus(ctx, orderID, domain.OrderStatusPaid)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return notFoundf("order %s not found", orderID)
	}
	if err != nil {
		return storage("update order status", err)
	}

	if err := s.publisher.Publish(ctx, domain.OrderEvent{Type: domain.EventTypeOrderPaid, Order: order}); err != nil {
		return &ProviderError{Op: "publish order event", Err: err}
	}
	return nil
}

func (s *ConfirmationService) release(eventID string, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.ledger.Release(ctx, eventID); err != nil {
		log.WithError(err).Warn("ledger release failed")
	}
}
