package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/types"
	"github.com/google/uuid"
)

// Operation names label metrics and logs.
const (
	OpListProducts   = "list_products"
	OpListOrders     = "list_orders"
	OpApproveOrder   = "approve_order"
	OpCreateProduct  = "create_product"
	OpFeatureProduct = "feature_product"
	OpPlaceOrder     = "place_order"
	OpLogin          = "login"
	OpCreateAccount  = "create_account"
)

// ListProducts returns the catalog. Any held token is sent; none is required.
func (c *Client) ListProducts(ctx context.Context) ([]types.Product, error) {
	var body types.ProductList
	status, err := c.send(ctx, call{
		op:     OpListProducts,
		method: http.MethodGet,
		path:   "/api/v1/products",
		auth:   authAny,
		out:    &body,
	})
	if err != nil {
		return nil, err
	}
	if body.Products == nil {
		return nil, invalidResponse(status, OpListProducts, fmt.Errorf("products field missing"))
	}
	for _, p := range body.Products {
		if err := p.Validate(); err != nil {
			return nil, invalidResponse(status, OpListProducts, err)
		}
	}
	return body.Products, nil
}

// ListOrders returns every order. It requires the admin token.
func (c *Client) ListOrders(ctx context.Context) ([]types.Order, error) {
	var body types.OrderList
	status, err := c.send(ctx, call{
		op:     OpListOrders,
		method: http.MethodGet,
		path:   "/api/v1/orders",
		auth:   authAdmin,
		out:    &body,
	})
	if err != nil {
		return nil, err
	}
	if body.Orders == nil {
		return nil, invalidResponse(status, OpListOrders, fmt.Errorf("orders field missing"))
	}
	for i := range body.Orders {
		body.Orders[i].Normalize()
		if err := body.Orders[i].Validate(); err != nil {
			return nil, invalidResponse(status, OpListOrders, err)
		}
	}
	return body.Orders, nil
}

// ApproveOrder approves a pending order. An order the server reports as
// already approved (409) counts as success.
func (c *Client) ApproveOrder(ctx context.Context, orderID types.ID) error {
	if orderID.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	_, err := c.send(ctx, call{
		op:     OpApproveOrder,
		method: http.MethodPut,
		path:   "/api/v1/orders/" + url.PathEscape(orderID.String()) + "/approve",
		auth:   authAdmin,
		accept: func(status int) bool { return status == http.StatusConflict },
	})
	return err
}

type productPayload struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Stock int         `json:"stock"`
	Image string      `json:"image"`
}

// CreateProduct validates input locally, then creates the product. Invalid
// input never reaches the network.
func (c *Client) CreateProduct(ctx context.Context, input types.ProductInput) (*types.Product, error) {
	input.Normalize()
	if err := c.checkStruct(input); err != nil {
		return nil, err
	}

	var created types.Product
	status, err := c.send(ctx, call{
		op:     OpCreateProduct,
		method: http.MethodPost,
		path:   "/api/v1/products",
		auth:   authAdmin,
		body: productPayload{
			Name:  input.Name,
			Price: json.Number(input.Price.String()),
			Stock: input.Stock,
			Image: input.Image,
		},
		out: &created,
	})
	if err != nil {
		return nil, err
	}
	if err := created.Validate(); err != nil {
		return nil, invalidResponse(status, OpCreateProduct, err)
	}
	return &created, nil
}

// FeatureProduct marks a product for the home page.
func (c *Client) FeatureProduct(ctx context.Context, productID types.ID) error {
	if productID.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	_, err := c.send(ctx, call{
		op:     OpFeatureProduct,
		method: http.MethodPost,
		path:   "/api/v1/products/" + url.PathEscape(productID.String()) + "/add-to-home",
		auth:   authAdmin,
	})
	return err
}

type orderLinePayload struct {
	ProductID types.ID    `json:"product_id"`
	Name      string      `json:"name,omitempty"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
}

type orderPayload struct {
	CustomerName string             `json:"customer_name"`
	Lines        []orderLinePayload `json:"lines"`
	Total        json.Number        `json:"total"`
}

// PlaceOrder submits a checkout. Each call carries a fresh Idempotency-Key.
func (c *Client) PlaceOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if err := c.checkStruct(req); err != nil {
		return nil, err
	}

	payload := orderPayload{
		CustomerName: req.CustomerName,
		Lines:        make([]orderLinePayload, 0, len(req.Lines)),
		Total:        json.Number(req.Total.String()),
	}
	for _, line := range req.Lines {
		payload.Lines = append(payload.Lines, orderLinePayload{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: json.Number(line.UnitPrice.String()),
		})
	}

	var created types.Order
	status, err := c.send(ctx, call{
		op:      OpPlaceOrder,
		method:  http.MethodPost,
		path:    "/api/v1/orders",
		auth:    authCustomer,
		body:    payload,
		headers: map[string]string{HeaderIdempotencyKey: uuid.NewString()},
		out:     &created,
	})
	if err != nil {
		return nil, err
	}
	created.Normalize()
	if err := created.Validate(); err != nil {
		return nil, invalidResponse(status, OpPlaceOrder, err)
	}
	return &created, nil
}

// Login exchanges credentials for a bearer token. It does not store the token.
func (c *Client) Login(ctx context.Context, role enums.Role, creds types.Credentials) (*types.LoginResult, error) {
	var path string
	switch role {
	case enums.RoleAdmin:
		path = "/api/v1/admin/login"
	case enums.RoleCustomer:
		path = "/api/v1/auth/login"
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot log in as "+role.String())
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if err := c.checkStruct(creds); err != nil {
		return nil, err
	}

	var result types.LoginResult
	status, err := c.send(ctx, call{
		op:     OpLogin,
		method: http.MethodPost,
		path:   path,
		body:   creds,
		out:    &result,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Token) == "" {
		return nil, invalidResponse(status, OpLogin, fmt.Errorf("token missing"))
	}
	return &result, nil
}

// CreateAccount registers a customer account.
func (c *Client) CreateAccount(ctx context.Context, req types.AccountRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := c.checkStruct(req); err != nil {
		return err
	}
	_, err := c.send(ctx, call{
		op:     OpCreateAccount,
		method: http.MethodPost,
		path:   "/api/v1/users",
		body:   req,
	})
	return err
}
