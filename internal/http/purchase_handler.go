package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/service"
	"github.com/sirupsen/logrus"
)

type Purchases interface {
	CreatePayment(ctx context.Context, amount int64, currency, orderID string) (string, error)
}

type Confirmations interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*service.ConfirmationResult, error)
}

type PurchaseHandler struct {
	purchases     Purchases
	confirmations Confirmations
	timeout       time.Duration
	log           logrus.FieldLogger
}

func NewPurchaseHandler(purchases Purchases, confirmations Confirmations, timeout time.Duration, log logrus.FieldLogger) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, confirmations: confirmations, timeout: timeout, log: log}
}

// PurchaseRequestDTO carries the amount in the currency's smallest unit.
type PurchaseRequestDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	OrderID  string `json:"orderId"`
}

type PurchaseResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func (h *PurchaseHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PurchaseRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	secret, err := h.purchases.CreatePayment(ctx, req.Amount, req.Currency, req.OrderID)
	if err != nil {
		handleServiceError(ctx, w, h.log, err, "error creating payment intent")
		return
	}
	respondJSON(w, http.StatusOK, PurchaseResponse{ClientSecret: secret})
}

// Webhook needs the raw body, signature verification covers the exact bytes.
func (h *PurchaseHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Webhook Error: unable to read body", http.StatusBadRequest)
		return
	}

	res, err := h.confirmations.HandleWebhook(ctx, payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, service.ErrInvalidRequest) {
		http.Error(w, "Webhook Error: "+detail(err, service.ErrInvalidRequest), http.StatusBadRequest)
		return
	}
	if err != nil {
		handleServiceError(ctx, w, h.log, err, "Internal Server Error")
		return
	}
	respondJSON(w, http.StatusOK, res)
}
