package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrVersionConflict  = errors.New("cart was modified concurrently")
	ErrProductNotFound  = errors.New("product not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrShipmentNotFound = errors.New("shipment not found")
)

// CartRepository defines the interface for cart data operations
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// SaveCart overwrites the stored cart only if its version still equals
	// cart.Version (0 means the cart must not exist yet). On success
	// cart.Version is advanced; otherwise ErrVersionConflict is returned.
	SaveCart(ctx context.Context, cart *domain.Cart) error
}

type ProductRepository interface {
	PutProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ReplaceProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	PutUser(ctx context.Context, u *domain.User) error
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	CreateShipment(ctx context.Context, s *domain.Shipment) error
	GetShipmentByOrderID(ctx context.Context, orderID string) (*domain.Shipment, error)
	RunMigrations(*Credentials) error
	Close() error
}
