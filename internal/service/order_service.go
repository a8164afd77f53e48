package service

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/sirupsen/logrus"
)

// OrderReader is the read side of the order store used by the storefront.
type OrderReader interface {
	GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	GetShipmentByOrderID(ctx context.Context, orderID string) (*domain.Shipment, error)
}

type OrderService struct {
	repo OrderReader
	log  logrus.FieldLogger
}

func NewOrderService(repo OrderReader, log logrus.FieldLogger) *OrderService {
	return &OrderService{repo: repo, log: log}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, invalidf("orderId is required")
	}
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, notFoundf("order %s not found", orderID)
	}
	if err != nil {
		return nil, storage("get order", err)
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	if userID == "" {
		return nil, invalidf("userId is required")
	}
	orders, err := s.repo.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, storage("list orders", err)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

func (s *OrderService) GetShippingStatus(ctx context.Context, orderID string) (*domain.Shipment, error) {
	if orderID == "" {
		return nil, invalidf("orderId is required")
	}
	shipment, err := s.repo.GetShipmentByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrShipmentNotFound) {
		return nil, notFoundf("no shipment found for order %s", orderID)
	}
	if err != nil {
		return nil, storage("get shipment", err)
	}
	return shipment, nil
}
