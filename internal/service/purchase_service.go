package service

import (
	"context"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/sirupsen/logrus"
)

type PaymentProcessor interface {
	// CreatePaymentIntent charges amount, in the currency's smallest unit.
	CreatePaymentIntent(ctx context.Context, amount int64, currency, orderID string) (*domain.PaymentIntent, error)
}

type PurchaseService struct {
	payments PaymentProcessor
	log      logrus.FieldLogger
}

func NewPurchaseService(payments PaymentProcessor, log logrus.FieldLogger) *PurchaseService {
	return &PurchaseService{payments: payments, log: log}
}

// CreatePayment opens a payment intent for orderID and returns its client secret.
func (s *PurchaseService) CreatePayment(ctx context.Context, amount int64, currency, orderID string) (string, error) {
	if amount <= 0 || currency == "" || orderID == "" {
		return "", invalidf("Amount, currency, and orderId are required.")
	}

	log := logger.WithContext(ctx, s.log).WithField("order_id", orderID)
	log.Info("creating payment intent")

	pi, err := s.payments.CreatePaymentIntent(ctx, amount, currency, orderID)
	if err != nil {
		log.WithError(err).Error("create payment intent failed")
		return "", &ProviderError{Op: "create payment intent", Err: err}
	}

	log.WithField("payment_intent_id", pi.ID).Info("payment intent created")
	return pi.ClientSecret, nil
}
