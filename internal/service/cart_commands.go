package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
)

// CartCommand is one of AddItemCommand, RemoveItemCommand or GetCartCommand.
type CartCommand interface {
	validate() error
	cartCommand()
}

type AddItemCommand struct {
	UserID    string
	ProductID string
	Quantity  int
	Price     float64
}

type RemoveItemCommand struct {
	UserID    string
	ProductID string
}

type GetCartCommand struct {
	UserID string
}

func (AddItemCommand) cartCommand()    {}
func (RemoveItemCommand) cartCommand() {}
func (GetCartCommand) cartCommand()    {}

func (c AddItemCommand) validate() error {
	if c.UserID == "" || c.ProductID == "" {
		return invalidf("userId, productId, quantity and price are required")
	}
	if c.Quantity <= 0 {
		return invalidf("quantity must be positive")
	}
	if c.Price <= 0 {
		return invalidf("price must be positive")
	}
	return nil
}

func (c RemoveItemCommand) validate() error {
	if c.UserID == "" || c.ProductID == "" {
		return invalidf("userId and productId are required")
	}
	return nil
}

func (c GetCartCommand) validate() error {
	if c.UserID == "" {
		return invalidf("userId is required")
	}
	return nil
}

// Execute validates cmd and runs it. Invalid commands never touch the store.
func (s *CartService) Execute(ctx context.Context, cmd CartCommand) ([]domain.CartItem, error) {
	if cmd == nil {
		return nil, invalidf("missing command")
	}
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	switch c := cmd.(type) {
	case AddItemCommand:
		return s.addItem(ctx, c)
	case RemoveItemCommand:
		return s.removeItem(ctx, c)
	case GetCartCommand:
		return s.getCart(ctx, c)
	default:
		panic(fmt.Sprintf("unhandled cart command %T", cmd))
	}
}
