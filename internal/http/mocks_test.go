package http

import (
	"context"
	"io"
	"sync"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/service"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type mockCartExecutor struct {
	mu       sync.RWMutex
	commands []service.CartCommand
	items    []domain.CartItem
	err      error
}

func (m *mockCartExecutor) Execute(_ context.Context, cmd service.CartCommand) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, cmd)
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockCartExecutor) lastCommand() service.CartCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.commands) == 0 {
		return nil
	}
	return m.commands[len(m.commands)-1]
}

type mockCatalog struct {
	product  *domain.Product
	products []*domain.Product
	err      error

	created domain.Product
	patch   domain.ProductPatch
	deleted string
}

func (m *mockCatalog) CreateProduct(_ context.Context, p domain.Product) (*domain.Product, error) {
	m.created = p
	if m.err != nil {
		return nil, m.err
	}
	return &p, nil
}

func (m *mockCatalog) UpdateProduct(_ context.Context, _ string, patch domain.ProductPatch) (*domain.Product, error) {
	m.patch = patch
	return m.product, m.err
}

func (m *mockCatalog) GetProduct(_ context.Context, _ string) (*domain.Product, error) {
	return m.product, m.err
}

func (m *mockCatalog) ListProducts(_ context.Context) ([]*domain.Product, error) {
	return m.products, m.err
}

func (m *mockCatalog) DeleteProduct(_ context.Context, productID string) error {
	m.deleted = productID
	return m.err
}

type mockOrders struct {
	order    *domain.Order
	orders   []*domain.Order
	shipment *domain.Shipment
	err      error
}

func (m *mockOrders) GetOrder(_ context.Context, _ string) (*domain.Order, error) {
	return m.order, m.err
}

func (m *mockOrders) ListOrders(_ context.Context, _ string) ([]*domain.Order, error) {
	return m.orders, m.err
}

func (m *mockOrders) GetShippingStatus(_ context.Context, _ string) (*domain.Shipment, error) {
	return m.shipment, m.err
}

type mockPurchases struct {
	secret   string
	err      error
	amount   int64
	currency string
	orderID  string
}

func (m *mockPurchases) CreatePayment(_ context.Context, amount int64, currency, orderID string) (string, error) {
	m.amount, m.currency, m.orderID = amount, currency, orderID
	return m.secret, m.err
}

type mockConfirmations struct {
	result    *service.ConfirmationResult
	err       error
	payload   []byte
	signature string
}

func (m *mockConfirmations) HandleWebhook(_ context.Context, payload []byte, signature string) (*service.ConfirmationResult, error) {
	m.payload, m.signature = payload, signature
	return m.result, m.err
}

type mockRegistrations struct {
	sub    string
	tokens *domain.AuthTokens
	err    error

	confirmedEmail string
	confirmedCode  string
}

func (m *mockRegistrations) Register(_ context.Context, _, _, _ string) (string, error) {
	return m.sub, m.err
}

func (m *mockRegistrations) ConfirmRegistration(_ context.Context, email, code string) error {
	m.confirmedEmail, m.confirmedCode = email, code
	return m.err
}

func (m *mockRegistrations) Login(_ context.Context, _, _ string) (*domain.AuthTokens, error) {
	return m.tokens, m.err
}
