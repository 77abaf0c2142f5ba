package types

import (
	"fmt"

	"github.com/angelmondragon/storefront-client/pkg/enums"
	"github.com/shopspring/decimal"
)

// OrderLine is one product entry of a submitted order.
type OrderLine struct {
	ProductID ID              `json:"product_id" validate:"required"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a checkout submission awaiting (or past) admin approval.
type Order struct {
	ID           ID                `json:"id"`
	CustomerName string            `json:"customer_name"`
	Lines        []OrderLine       `json:"lines,omitempty"`
	Total        decimal.Decimal   `json:"total"`
	Status       enums.OrderStatus `json:"status"`
}

// LinesTotal sums the line subtotals.
func (o Order) LinesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range o.Lines {
		sum = sum.Add(line.Subtotal())
	}
	return sum
}

// Normalize fills the defaults the API is allowed to omit.
func (o *Order) Normalize() {
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
}

// Validate checks an order from the API. Orders listed without lines cannot
// be reconciled against their total and are accepted as-is.
func (o Order) Validate() error {
	if o.ID.IsZero() {
		return fmt.Errorf("order id missing")
	}
	if !o.Status.IsValid() {
		return fmt.Errorf("order %s has unknown status %q", o.ID, o.Status)
	}
	if o.Total.IsNegative() {
		return fmt.Errorf("order %s has negative total %s", o.ID, o.Total)
	}
	for i, line := range o.Lines {
		if line.Quantity < 1 {
			return fmt.Errorf("order %s line %d has quantity %d", o.ID, i, line.Quantity)
		}
	}
	if len(o.Lines) > 0 {
		if sum := o.LinesTotal(); !sum.Equal(o.Total) {
			return fmt.Errorf("order %s total %s does not match lines %s", o.ID, o.Total, sum)
		}
	}
	return nil
}

// OrderRequest is the checkout payload.
type OrderRequest struct {
	CustomerName string          `json:"customer_name" validate:"required"`
	Lines        []OrderLine     `json:"lines" validate:"required,min=1,dive"`
	Total        decimal.Decimal `json:"total"`
}
