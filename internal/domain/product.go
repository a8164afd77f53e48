package domain

import "time"

type Product struct {
	ProductID   string    `bson:"_id" json:"productId"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64   `bson:"price" json:"price"`
	Size        string    `bson:"size,omitempty" json:"size,omitempty"`
	Color       string    `bson:"color,omitempty" json:"color,omitempty"`
	Stock       int       `bson:"stock" json:"stock"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// ProductPatch carries the optional fields of a catalog update. Zero values
// keep the stored value.
type ProductPatch struct {
	Name        string
	Description string
	Price       float64
	Size        string
	Color       string
	Stock       int
}

// Apply merges the patch over p.
func (pp ProductPatch) Apply(p *Product, now time.Time) {
	if pp.Name != "" {
		p.Name = pp.Name
	}
	if pp.Description != "" {
		p.Description = pp.Description
	}
	if pp.Price != 0 {
		p.Price = pp.Price
	}
	if pp.Size != "" {
		p.Size = pp.Size
	}
	if pp.Color != "" {
		p.Color = pp.Color
	}
	if pp.Stock != 0 {
		p.Stock = pp.Stock
	}
	p.UpdatedAt = now
}
