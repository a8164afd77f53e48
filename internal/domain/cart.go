package domain

import "time"

type Cart struct {
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem is one line of a cart. Price is the price recorded when the
// product first entered the cart; later adds only change Quantity.
type CartItem struct {
	ProductID string  `bson:"product_id" json:"productId"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Price     float64 `bson:"price" json:"price"`
}

// AddItem merges quantity into an existing line or appends a new one.
func (c *Cart) AddItem(productID string, quantity int, price float64) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
	})
}

// RemoveItem drops the line for productID, keeping the order of the rest.
// It reports false when the product is not in the cart.
func (c *Cart) RemoveItem(productID string) bool {
	for i, item := range c.Items {
		if item.ProductID == productID {
			items := make([]CartItem, 0, len(c.Items)-1)
			items = append(items, c.Items[:i]...)
			c.Items = append(items, c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy so cached carts are never mutated in place.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
