package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-client/api/responses"
	"github.com/angelmondragon/storefront-client/api/validators"
	"github.com/angelmondragon/storefront-client/internal/cart"
	"github.com/angelmondragon/storefront-client/internal/checkout"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	"github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/types"
	"github.com/shopspring/decimal"
)

type catalog interface {
	ListProducts(ctx context.Context) ([]types.Product, error)
}

// sessionExpirer reports the role whose token the API will see and drops it
// once rejected.
type sessionExpirer interface {
	CurrentRole() enums.Role
	Expire(ctx context.Context, role enums.Role, err error) error
}

type routeResolver interface {
	Resolve(path string) (string, bool)
}

type cartView struct {
	Lines []cart.Line     `json:"lines"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type addItemRequest struct {
	ProductID types.ID `json:"product_id" validate:"required"`
	Quantity  int      `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type checkoutRequest struct {
	CustomerName string `json:"customer_name"`
}

type resolveView struct {
	Requested string `json:"requested"`
	Target    string `json:"target"`
	Allowed   bool   `json:"allowed"`
}

func buildCartView(c *cart.Store) cartView {
	return cartView{Lines: c.Lines(), Count: c.Count(), Total: c.Total()}
}

// listProducts signs out the role whose token was sent when the API rejects it.
func listProducts(ctx context.Context, products catalog, sessions sessionExpirer, logg *logger.Logger) ([]types.Product, error) {
	role := sessions.CurrentRole()
	list, err := products.ListProducts(ctx)
	if err != nil {
		if expireErr := sessions.Expire(ctx, role, err); expireErr != nil {
			logg.Error(ctx, "session.expire_failed", expireErr)
		}
		return nil, err
	}
	return list, nil
}

func ProductsList(products catalog, sessions sessionExpirer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := listProducts(r.Context(), products, sessions, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.ProductList{Products: list})
	}
}

func CartGet(c *cart.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, buildCartView(c))
	}
}

// CartAddItem snapshots the product as currently listed by the API.
func CartAddItem(c *cart.Store, products catalog, sessions sessionExpirer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := listProducts(r.Context(), products, sessions, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		for _, p := range list {
			if p.ID == req.ProductID {
				c.AddItem(p, req.Quantity)
				responses.WriteSuccess(w, buildCartView(c))
				return
			}
		}
		responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeNotFound, "product not found"))
	}
}

func CartSetQuantity(c *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c.SetQuantity(id, req.Quantity)
		responses.WriteSuccess(w, buildCartView(c))
	}
}

func CartRemoveItem(c *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c.RemoveItem(id)
		responses.WriteSuccess(w, buildCartView(c))
	}
}

func CartClear(c *cart.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.Clear()
		responses.WriteSuccess(w, buildCartView(c))
	}
}

func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Submit(r.Context(), req.CustomerName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func RouteResolve(guard routeResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := validators.RequiredQuery(r, "path")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, allowed := guard.Resolve(path)
		responses.WriteSuccess(w, resolveView{Requested: path, Target: target, Allowed: allowed})
	}
}
