package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the storefront API.
type Product struct {
	ID       ID              `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Image    string          `json:"image"`
	Featured bool            `json:"featured"`
}

// Validate checks the invariants a product from the API must satisfy.
func (p Product) Validate() error {
	if p.ID.IsZero() {
		return fmt.Errorf("product id missing")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product %s has negative price %s", p.ID, p.Price)
	}
	if p.Stock < 0 {
		return fmt.Errorf("product %s has negative stock %d", p.ID, p.Stock)
	}
	return nil
}

// ProductInput is the admin submission for a new product. The server assigns the id.
type ProductInput struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price" validate:"gte=0"`
	Stock int             `json:"stock" validate:"gte=0"`
	Image string          `json:"image" validate:"required"`
}

// Normalize trims free-text fields in place.
func (p *ProductInput) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Image = strings.TrimSpace(p.Image)
}
