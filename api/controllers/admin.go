package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-client/api/responses"
	"github.com/angelmondragon/storefront-client/api/validators"
	"github.com/angelmondragon/storefront-client/internal/admin"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	"github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/types"
)

type adminWorkflow interface {
	Snapshot() admin.Snapshot
	Mount(ctx context.Context) error
	ApproveAndRefresh(ctx context.Context, orderID types.ID) error
	SetField(field, value string) error
	SubmitNewProduct(ctx context.Context) (*types.Product, error)
	FeatureAndRefresh(ctx context.Context, productID types.ID) error
	ClearError()
	ActionState(key admin.ActionKey) enums.ActionState
}

// formRequest carries only the fields being edited.
type formRequest struct {
	Name  *string `json:"name,omitempty"`
	Price *string `json:"price,omitempty"`
	Stock *string `json:"stock,omitempty"`
	Image *string `json:"image,omitempty"`
}

// AdminDashboard loads both lists on the first visit. Per-list failures are
// part of the snapshot, so only an auth rejection fails the request.
func AdminDashboard(wf adminWorkflow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wf.ActionState(admin.KeyLoad) == enums.ActionStateIdle {
			if err := wf.Mount(r.Context()); errors.IsAuth(err) {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, wf.Snapshot())
	}
}

// AdminRefresh reloads both lists; a failure of either is reported.
func AdminRefresh(wf adminWorkflow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := wf.Mount(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wf.Snapshot())
	}
}

func AdminApproveOrder(wf adminWorkflow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := wf.ApproveAndRefresh(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wf.Snapshot())
	}
}

func AdminUpdateForm(wf adminWorkflow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req formRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		for field, value := range map[string]*string{
			admin.FieldName:  req.Name,
			admin.FieldPrice: req.Price,
			admin.FieldStock: req.Stock,
			admin.FieldImage: req.Image,
		} {
			if value == nil {
				continue
			}
			if err := wf.SetField(field, *value); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, wf.Snapshot().Form)
	}
}

func AdminCreateProduct(wf adminWorkflow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		created, err := wf.SubmitNewProduct(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminFeatureProduct(wf adminWorkflow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := wf.FeatureAndRefresh(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wf.Snapshot())
	}
}

func AdminClearError(wf adminWorkflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf.ClearError()
		responses.WriteSuccess(w, wf.Snapshot())
	}
}
