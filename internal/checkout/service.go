package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-client/internal/cart"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/types"
)

type orderPlacer interface {
	PlaceOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error)
}

// Session is the part of the session store checkout needs to drop a
// rejected customer token.
type Session interface {
	Logout(ctx context.Context, role enums.Role) error
}

// Service turns the current cart into an order.
type Service interface {
	Submit(ctx context.Context, customerName string) (*types.Order, error)
}

type service struct {
	cart    *cart.Store
	orders  orderPlacer
	session Session
	logg    *logger.Logger
}

// NewService builds a checkout service over the shared cart. session may be
// nil when no login is kept.
func NewService(c *cart.Store, orders orderPlacer, session Session, logg *logger.Logger) (Service, error) {
	if c == nil {
		return nil, fmt.Errorf("cart required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order placer required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{cart: c, orders: orders, session: session, logg: logg}, nil
}

// Submit places an order priced from the cart's snapshotted unit prices. The
// ordered units leave the cart only after the API accepts the order. An auth
// rejection logs the customer out.
func (s *service) Submit(ctx context.Context, customerName string) (*types.Order, error) {
	name := strings.TrimSpace(customerName)
	details := map[string]string{}
	if name == "" {
		details["customer_name"] = "is required"
	}
	lines := s.cart.Lines()
	if len(lines) == 0 {
		details["lines"] = "cart is empty"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout is incomplete").WithDetails(details)
	}

	req := types.OrderRequest{
		CustomerName: name,
		Lines:        make([]types.OrderLine, 0, len(lines)),
		Total:        cart.TotalOf(lines),
	}
	for _, line := range lines {
		req.Lines = append(req.Lines, line.OrderLine())
	}

	order, err := s.orders.PlaceOrder(ctx, req)
	if err != nil {
		if pkgerrors.IsAuth(err) && s.session != nil {
			if logoutErr := s.session.Logout(context.WithoutCancel(ctx), enums.RoleCustomer); logoutErr != nil {
				s.logg.Error(ctx, "checkout.logout_failed", logoutErr)
			}
		}
		return nil, err
	}
	s.cart.Deduct(lines)
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "checkout.order_placed")
	return order, nil
}
