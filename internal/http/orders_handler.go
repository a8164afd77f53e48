package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/sirupsen/logrus"
)

type Orders interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	GetShippingStatus(ctx context.Context, orderID string) (*domain.Shipment, error)
}

type OrdersHandler struct {
	orders  Orders
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewOrdersHandler(orders Orders, timeout time.Duration, log logrus.FieldLogger) *OrdersHandler {
	return &OrdersHandler{orders: orders, timeout: timeout, log: log}
}

type OrdersRequestDTO struct {
	Action  string `json:"action"`
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

func (h *OrdersHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req OrdersRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	switch req.Action {
	case "getOrder":
		order, err := h.orders.GetOrder(ctx, req.OrderID)
		if err != nil {
			handleServiceError(ctx, w, h.log, err, "error getting order")
			return
		}
		respondJSON(w, http.StatusOK, order)

	case "listOrders":
		orders, err := h.orders.ListOrders(ctx, req.UserID)
		if err != nil {
			handleServiceError(ctx, w, h.log, err, "error listing orders")
			return
		}
		respondJSON(w, http.StatusOK, orders)

	case "getShippingStatus":
		shipment, err := h.orders.GetShippingStatus(ctx, req.OrderID)
		if err != nil {
			handleServiceError(ctx, w, h.log, err, "error getting shipping status")
			return
		}
		respondJSON(w, http.StatusOK, shipment)

	default:
		h.log.WithField("action", req.Action).Warn("invalid orders action")
		respondInvalidAction(w)
	}
}
