package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/service"
	"github.com/sirupsen/logrus"
)

type CartExecutor interface {
	Execute(ctx context.Context, cmd service.CartCommand) ([]domain.CartItem, error)
}

type CartHandler struct {
	carts   CartExecutor
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewCartHandler(carts CartExecutor, timeout time.Duration, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{carts: carts, timeout: timeout, log: log}
}

type CartRequestDTO struct {
	Action    string  `json:"action"`
	UserID    string  `json:"userId"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CartResponse struct {
	Message string            `json:"message"`
	Cart    []domain.CartItem `json:"cart"`
}

func (req CartRequestDTO) command() service.CartCommand {
	switch req.Action {
	case "add":
		return service.AddItemCommand{UserID: req.UserID, ProductID: req.ProductID, Quantity: req.Quantity, Price: req.Price}
	case "remove":
		return service.RemoveItemCommand{UserID: req.UserID, ProductID: req.ProductID}
	case "get":
		return service.GetCartCommand{UserID: req.UserID}
	}
	return nil
}

func (h *CartHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CartRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	cmd := req.command()
	if cmd == nil {
		h.log.WithField("action", req.Action).Warn("invalid cart action")
		respondInvalidAction(w)
		return
	}

	items, err := h.carts.Execute(ctx, cmd)
	if err != nil {
		handleServiceError(ctx, w, h.log, err, "error processing cart request")
		return
	}

	switch cmd.(type) {
	case service.AddItemCommand:
		respondJSON(w, http.StatusOK, CartResponse{Message: "Product added to cart", Cart: items})
	case service.RemoveItemCommand:
		respondJSON(w, http.StatusOK, CartResponse{Message: "Product removed from cart", Cart: items})
	default:
		respondJSON(w, http.StatusOK, items)
	}
}
