package types

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/storefront-client/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderDecodesDashboardPayload(t *testing.T) {
	raw := `{"id": 3, "customer_name": "Ada", "total": 12.5,
		"lines": [{"product_id": 1, "quantity": 2, "unit_price": 5}, {"product_id": "p2", "quantity": 1, "unit_price": "2.5"}]}`

	var order Order
	require.NoError(t, json.Unmarshal([]byte(raw), &order))
	order.Normalize()

	assert.Equal(t, ID("3"), order.ID)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, order.LinesTotal().Equal(decimal.RequireFromString("12.5")))
	assert.NoError(t, order.Validate())
}

func TestOrderValidate(t *testing.T) {
	line := OrderLine{ProductID: "1", Quantity: 2, UnitPrice: decimal.NewFromInt(3)}

	tests := []struct {
		name    string
		order   Order
		wantErr bool
	}{
		{name: "valid", order: Order{ID: "1", Status: enums.OrderStatusApproved, Lines: []OrderLine{line}, Total: decimal.NewFromInt(6)}},
		{name: "no lines skips reconciliation", order: Order{ID: "1", Status: enums.OrderStatusPending, Total: decimal.NewFromInt(99)}},
		{name: "missing id", order: Order{Status: enums.OrderStatusPending}, wantErr: true},
		{name: "unknown status", order: Order{ID: "1", Status: "shipped"}, wantErr: true},
		{name: "total mismatch", order: Order{ID: "1", Status: enums.OrderStatusPending, Lines: []OrderLine{line}, Total: decimal.NewFromInt(7)}, wantErr: true},
		{name: "zero quantity", order: Order{ID: "1", Status: enums.OrderStatusPending, Lines: []OrderLine{{ProductID: "1"}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProductValidate(t *testing.T) {
	assert.NoError(t, Product{ID: "1", Price: decimal.Zero}.Validate())
	assert.Error(t, Product{Price: decimal.NewFromInt(1)}.Validate())
	assert.Error(t, Product{ID: "1", Price: decimal.NewFromInt(-1)}.Validate())
	assert.Error(t, Product{ID: "1", Stock: -2}.Validate())
}
