// Package admin drives the admin dashboard: loading orders and products,
// approving orders, creating and featuring products.
package admin

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/metrics"
	"github.com/angelmondragon/storefront-client/pkg/types"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ErrDisposed is returned by every call made after Dispose.
var ErrDisposed = errors.New("admin workflow disposed")

// API is the slice of the remote client the dashboard uses.
type API interface {
	ListOrders(ctx context.Context) ([]types.Order, error)
	ListProducts(ctx context.Context) ([]types.Product, error)
	ApproveOrder(ctx context.Context, orderID types.ID) error
	CreateProduct(ctx context.Context, input types.ProductInput) (*types.Product, error)
	FeatureProduct(ctx context.Context, productID types.ID) error
}

// Session is the slice of the session store the dashboard uses.
type Session interface {
	Logout(ctx context.Context, role enums.Role) error
}

type Params struct {
	API     API
	Session Session
	Logger  *logger.Logger
	Metrics *metrics.ActionMetrics
}

// Snapshot is a copy of the dashboard state for rendering.
type Snapshot struct {
	Orders        []types.Order                   `json:"orders"`
	Products      []types.Product                 `json:"products"`
	OrdersError   string                          `json:"orders_error,omitempty"`
	ProductsError string                          `json:"products_error,omitempty"`
	Form          Form                            `json:"form"`
	Error         string                          `json:"error,omitempty"`
	Actions       map[ActionKey]enums.ActionState `json:"actions"`
}

type Listener func(Snapshot)

// Workflow owns the dashboard state for one view lifetime. Calls made after
// Dispose fail with ErrDisposed and results landing after it are dropped.
type Workflow struct {
	api     API
	session Session
	logg    *logger.Logger
	metrics *metrics.ActionMetrics

	life   context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	disposed     bool
	orders       []types.Order
	products     []types.Product
	ordersErr    string
	productsErr  string
	form         Form
	lastErr      string
	actions      map[ActionKey]enums.ActionState
	listeners    map[int]Listener
	nextListener int
}

func New(p Params) (*Workflow, error) {
	if p.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "admin api is required")
	}
	if p.Session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session is required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	life, cancel := context.WithCancel(context.Background())
	return &Workflow{
		api:       p.API,
		session:   p.Session,
		logg:      p.Logger,
		metrics:   p.Metrics,
		life:      life,
		cancel:    cancel,
		actions:   map[ActionKey]enums.ActionState{},
		listeners: map[int]Listener{},
	}, nil
}

// Dispose cancels in-flight calls. It is safe to call more than once.
func (w *Workflow) Dispose() {
	w.mu.Lock()
	w.disposed = true
	w.listeners = map[int]Listener{}
	w.mu.Unlock()
	w.cancel()
}

// Mount loads orders and products concurrently. A failure of one list is
// recorded on its own and leaves the other list in place.
func (w *Workflow) Mount(ctx context.Context) error {
	ctx, done, err := w.begin(ctx, KeyLoad)
	if err != nil {
		return err
	}
	defer done()

	var (
		orders                 []types.Order
		products               []types.Product
		ordersErr, productsErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		orders, ordersErr = w.api.ListOrders(ctx)
		return nil
	})
	g.Go(func() error {
		products, productsErr = w.api.ListProducts(ctx)
		return nil
	})
	_ = g.Wait()

	w.mu.Lock()
	if !w.disposed {
		if ordersErr == nil {
			w.orders, w.ordersErr = orders, ""
		} else {
			w.ordersErr = ordersErr.Error()
		}
		if productsErr == nil {
			w.products, w.productsErr = products, ""
		} else {
			w.productsErr = productsErr.Error()
		}
	}
	w.mu.Unlock()

	combined := multierr.Combine(ordersErr, productsErr)
	w.finish(ctx, KeyLoad, combined)
	return combined
}

// ApproveAndRefresh approves the order and, only when that succeeds, reloads
// the orders once. The order list is never patched locally.
func (w *Workflow) ApproveAndRefresh(ctx context.Context, orderID types.ID) error {
	key := ApproveKey(orderID)
	ctx, done, err := w.begin(ctx, key)
	if err != nil {
		return err
	}
	defer done()
	ctx = w.logg.WithOrderID(ctx, orderID.String())

	if err := w.api.ApproveOrder(ctx, orderID); err != nil {
		w.finish(ctx, key, err)
		return err
	}
	err = w.refreshOrders(ctx)
	w.finish(ctx, key, err)
	if err == nil {
		w.logg.Info(ctx, "admin.order_approved")
	}
	return err
}

// SetField updates one form field as typed.
func (w *Workflow) SetField(field, value string) error {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return ErrDisposed
	}
	err := w.form.set(field, value)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.notify()
	return nil
}

func (w *Workflow) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// SubmitNewProduct creates a product from the form. On success the form is
// reset and the products reloaded; on any failure the typed fields stay.
func (w *Workflow) SubmitNewProduct(ctx context.Context) (*types.Product, error) {
	ctx, done, err := w.begin(ctx, KeyCreateProduct)
	if err != nil {
		return nil, err
	}
	defer done()

	input, err := w.Form().Input()
	if err != nil {
		w.finish(ctx, KeyCreateProduct, err)
		return nil, err
	}
	created, err := w.api.CreateProduct(ctx, input)
	if err != nil {
		w.finish(ctx, KeyCreateProduct, err)
		return nil, err
	}

	w.mu.Lock()
	if !w.disposed {
		w.form = Form{}
	}
	w.mu.Unlock()

	err = w.refreshProducts(ctx)
	w.finish(w.logg.WithProductID(ctx, created.ID.String()), KeyCreateProduct, err)
	return created, err
}

// FeatureAndRefresh features the product then reloads the products.
func (w *Workflow) FeatureAndRefresh(ctx context.Context, productID types.ID) error {
	key := FeatureKey(productID)
	ctx, done, err := w.begin(ctx, key)
	if err != nil {
		return err
	}
	defer done()
	ctx = w.logg.WithProductID(ctx, productID.String())

	if err := w.api.FeatureProduct(ctx, productID); err != nil {
		w.finish(ctx, key, err)
		return err
	}
	err = w.refreshProducts(ctx)
	w.finish(ctx, key, err)
	return err
}

// ActionState returns idle for keys never triggered.
func (w *Workflow) ActionState(key ActionKey) enums.ActionState {
	w.mu.Lock()
	defer w.mu.Unlock()
	if state, ok := w.actions[key]; ok {
		return state
	}
	return enums.ActionStateIdle
}

// Error is the latest failure message, empty once any action succeeds.
func (w *Workflow) Error() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Workflow) ClearError() {
	w.mu.Lock()
	w.lastErr = ""
	w.mu.Unlock()
	w.notify()
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Subscribe registers fn for state changes and returns the unsubscribe func.
func (w *Workflow) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	w.mu.Lock()
	id := w.nextListener
	w.nextListener++
	w.listeners[id] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.listeners, id)
			w.mu.Unlock()
		})
	}
}

func (w *Workflow) refreshOrders(ctx context.Context) error {
	orders, err := w.api.ListOrders(ctx)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed {
		return ErrDisposed
	}
	if err != nil {
		w.ordersErr = err.Error()
		return err
	}
	w.orders, w.ordersErr = orders, ""
	return nil
}

func (w *Workflow) refreshProducts(ctx context.Context) error {
	products, err := w.api.ListProducts(ctx)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed {
		return ErrDisposed
	}
	if err != nil {
		w.productsErr = err.Error()
		return err
	}
	w.products, w.productsErr = products, ""
	return nil
}

// begin moves key to pending, rejecting the trigger while it already is. The
// returned context ends with the caller's ctx or on Dispose.
func (w *Workflow) begin(ctx context.Context, key ActionKey) (context.Context, func(), error) {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return nil, nil, ErrDisposed
	}
	if w.actions[key] == enums.ActionStatePending {
		w.mu.Unlock()
		w.metrics.IncRejected(key.Action())
		return nil, nil, pkgerrors.New(pkgerrors.CodeConflict, string(key)+" already in progress").
			WithDetails(map[string]string{"action": string(key)})
	}
	w.actions[key] = enums.ActionStatePending
	w.mu.Unlock()
	w.notify()

	scoped, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(w.life, cancel)
	scoped = w.logg.WithOperation(scoped, key.Action())
	return scoped, func() {
		stop()
		cancel()
	}, nil
}

// finish settles key. Auth failures sign the admin out so later calls fail
// before reaching the network.
func (w *Workflow) finish(ctx context.Context, key ActionKey, err error) {
	if errors.Is(err, ErrDisposed) {
		return
	}
	if pkgerrors.IsAuth(err) {
		if logoutErr := w.session.Logout(context.WithoutCancel(ctx), enums.RoleAdmin); logoutErr != nil {
			w.logg.Error(ctx, "admin.forced_logout_failed", logoutErr)
		}
		w.logg.Warn(ctx, "admin.session_rejected")
	}

	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	if err == nil {
		w.actions[key] = enums.ActionStateSuccess
		w.lastErr = ""
	} else {
		w.actions[key] = enums.ActionStateFailed
		w.lastErr = errorMessage(err)
	}
	w.mu.Unlock()

	if err == nil {
		w.metrics.IncSuccess(key.Action())
	} else {
		w.metrics.IncFailure(key.Action())
		w.logg.Error(ctx, "admin.action_failed", err)
	}
	w.notify()
}

func (w *Workflow) notify() {
	w.mu.Lock()
	snap := w.snapshotLocked()
	listeners := make([]Listener, 0, len(w.listeners))
	for _, fn := range w.listeners {
		listeners = append(listeners, fn)
	}
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (w *Workflow) snapshotLocked() Snapshot {
	actions := make(map[ActionKey]enums.ActionState, len(w.actions))
	for k, v := range w.actions {
		actions[k] = v
	}
	return Snapshot{
		Orders:        append([]types.Order(nil), w.orders...),
		Products:      append([]types.Product(nil), w.products...),
		OrdersError:   w.ordersErr,
		ProductsError: w.productsErr,
		Form:          w.form,
		Error:         w.lastErr,
		Actions:       actions,
	}
}

// errorMessage prefers the typed message over the code-prefixed Error text.
func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}
