// Package remotetest runs an in-process storefront API for tests and demos.
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/storefront-client/pkg/auth"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	"github.com/angelmondragon/storefront-client/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const (
	Secret = "remotetest-secret"
	Issuer = "remotetest"

	AdminEmail       = "admin@example.com"
	AdminPassword    = "admin-pass"
	CustomerEmail    = "shopper@example.com"
	CustomerPassword = "shopper-pass"
)

// Route names for call counters and injected responses.
const (
	ListProducts   = "list_products"
	ListOrders     = "list_orders"
	ApproveOrder   = "approve_order"
	CreateProduct  = "create_product"
	FeatureProduct = "feature_product"
	PlaceOrder     = "place_order"
	CustomerLogin  = "customer_login"
	AdminLogin     = "admin_login"
	CreateAccount  = "create_account"
)

type account struct {
	password string
	role     enums.Role
}

type canned struct {
	status int
	body   string
}

// API is a fake storefront API backed by in-memory state.
type API struct {
	*httptest.Server

	mu          sync.Mutex
	products    []types.Product
	orders      []types.Order
	accounts    map[string]account
	idempotency map[string]types.Order
	nextID      int
	canned      map[string]canned
	holds       map[string]chan struct{}
	calls       map[string]*atomic.Int64
	lastHeaders map[string]http.Header
}

// New starts the fake API with a small seeded catalog and one pending order.
func New() *API {
	a := &API{
		accounts: map[string]account{
			AdminEmail:    {password: AdminPassword, role: enums.RoleAdmin},
			CustomerEmail: {password: CustomerPassword, role: enums.RoleCustomer},
		},
		idempotency: map[string]types.Order{},
		nextID:      100,
		canned:      map[string]canned{},
		holds:       map[string]chan struct{}{},
		calls:       map[string]*atomic.Int64{},
		lastHeaders: map[string]http.Header{},
	}
	for _, name := range []string{ListProducts, ListOrders, ApproveOrder, CreateProduct, FeatureProduct, PlaceOrder, CustomerLogin, AdminLogin, CreateAccount} {
		a.calls[name] = &atomic.Int64{}
	}
	a.products = []types.Product{
		{ID: "1", Name: "Field Notes", Price: decimal.RequireFromString("9.50"), Stock: 12, Image: "https://img.example.com/notes.png"},
		{ID: "2", Name: "Trail Mug", Price: decimal.RequireFromString("14.00"), Stock: 3, Image: "https://img.example.com/mug.png"},
	}
	a.orders = []types.Order{
		{
			ID:           "7",
			CustomerName: "Ada",
			Lines: []types.OrderLine{
				{ProductID: "1", Name: "Field Notes", Quantity: 2, UnitPrice: decimal.RequireFromString("9.50")},
			},
			Total:  decimal.RequireFromString("19.00"),
			Status: enums.OrderStatusPending,
		},
	}
	a.Server = httptest.NewServer(a.routes())
	return a
}

func (a *API) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.track(CustomerLogin, a.login(enums.RoleCustomer)))
		r.Post("/admin/login", a.track(AdminLogin, a.login(enums.RoleAdmin)))
		r.Post("/users", a.track(CreateAccount, a.createAccount))

		r.Get("/products", a.track(ListProducts, a.listProducts))
		r.With(a.requireRole(enums.RoleAdmin)).Post("/products", a.track(CreateProduct, a.createProduct))
		r.With(a.requireRole(enums.RoleAdmin)).Post("/products/{productId}/add-to-home", a.track(FeatureProduct, a.featureProduct))

		r.With(a.requireRole(enums.RoleAdmin)).Get("/orders", a.track(ListOrders, a.listOrders))
		r.Post("/orders", a.track(PlaceOrder, a.placeOrder))
		r.With(a.requireRole(enums.RoleAdmin)).Put("/orders/{orderId}/approve", a.track(ApproveOrder, a.approveOrder))
	})
	return r
}

// Calls reports how many requests reached the named route.
func (a *API) Calls(name string) int64 {
	counter, ok := a.calls[name]
	if !ok {
		return 0
	}
	return counter.Load()
}

// LastHeaders returns the headers of the latest request to the named route.
func (a *API) LastHeaders(name string) http.Header {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastHeaders[name].Clone()
}

// Respond makes the named route answer with status and a raw body until Reset.
func (a *API) Respond(name string, status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.canned[name] = canned{status: status, body: body}
}

// Fail makes the named route answer status with {"message": message}.
func (a *API) Fail(name string, status int, message string) {
	raw, _ := json.Marshal(types.RemoteErrorBody{Message: message})
	a.Respond(name, status, string(raw))
}

// Hold blocks requests to the named route until release is called or the
// request is cancelled.
func (a *API) Hold(name string) (release func()) {
	ch := make(chan struct{})
	a.mu.Lock()
	a.holds[name] = ch
	a.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.holds, name)
			a.mu.Unlock()
			close(ch)
		})
	}
}

// Reset clears canned responses.
func (a *API) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.canned = map[string]canned{}
}

// Token mints a bearer token the fake accepts.
func (a *API) Token(role enums.Role) string {
	token, err := auth.Mint(Secret, Issuer, time.Hour, time.Now(), string(role)+"@example.com", role)
	if err != nil {
		panic(fmt.Sprintf("remotetest: mint token: %v", err))
	}
	return token
}

// Products returns a copy of the catalog.
func (a *API) Products() []types.Product {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.Product(nil), a.products...)
}

// Orders returns a copy of the orders.
func (a *API) Orders() []types.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.Order(nil), a.orders...)
}

func (a *API) track(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.calls[name].Add(1)

		a.mu.Lock()
		a.lastHeaders[name] = r.Header.Clone()
		hold := a.holds[name]
		c, hasCanned := a.canned[name]
		a.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if hasCanned {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(c.status)
			_, _ = w.Write([]byte(c.body))
			return
		}
		next(w, r)
	}
}

func (a *API) requireRole(role enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := a.claims(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
			if claims.Role != role {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *API) claims(r *http.Request) (*auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, false
	}
	claims, err := auth.Parse(Secret, Issuer, token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (a *API) login(role enums.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds types.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
		a.mu.Lock()
		acct, ok := a.accounts[strings.ToLower(creds.Email)]
		a.mu.Unlock()
		if !ok || acct.password != creds.Password || acct.role != role {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		token, err := auth.Mint(Secret, Issuer, time.Hour, time.Now(), creds.Email, role)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, types.LoginResult{Token: token, Role: role.String()})
	}
}

func (a *API) createAccount(w http.ResponseWriter, r *http.Request) {
	var req types.AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	email := strings.ToLower(req.Email)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.accounts[email]; exists {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	a.accounts[email] = account{password: req.Password, role: enums.RoleCustomer}
	writeJSON(w, http.StatusCreated, map[string]string{"email": email})
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ProductList{Products: a.Products()})
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.OrderList{Orders: a.Orders()})
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var input types.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	a.mu.Lock()
	a.nextID++
	product := types.Product{
		ID:    types.ID(strconv.Itoa(a.nextID)),
		Name:  input.Name,
		Price: input.Price,
		Stock: input.Stock,
		Image: input.Image,
	}
	a.products = append(a.products, product)
	a.mu.Unlock()
	writeJSON(w, http.StatusCreated, product)
}

func (a *API) featureProduct(w http.ResponseWriter, r *http.Request) {
	id := types.ID(chi.URLParam(r, "productId"))
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.products {
		if a.products[i].ID == id {
			a.products[i].Featured = true
			writeJSON(w, http.StatusOK, a.products[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "product not found")
}

func (a *API) approveOrder(w http.ResponseWriter, r *http.Request) {
	id := types.ID(chi.URLParam(r, "orderId"))
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.orders {
		if a.orders[i].ID != id {
			continue
		}
		if !a.orders[i].Status.CanTransitionTo(enums.OrderStatusApproved) {
			writeError(w, http.StatusConflict, "order already approved")
			return
		}
		a.orders[i].Status = enums.OrderStatusApproved
		writeJSON(w, http.StatusOK, a.orders[i])
		return
	}
	writeError(w, http.StatusNotFound, "order not found")
}

func (a *API) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req types.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(req.CustomerName) == "" || len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "customer name and lines are required")
		return
	}
	key := r.Header.Get("Idempotency-Key")

	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.idempotency[key]; ok && key != "" {
		writeJSON(w, http.StatusOK, existing)
		return
	}
	a.nextID++
	order := types.Order{
		ID:           types.ID(strconv.Itoa(a.nextID)),
		CustomerName: req.CustomerName,
		Lines:        req.Lines,
		Status:       enums.OrderStatusPending,
	}
	order.Total = order.LinesTotal()
	if !order.Total.Equal(req.Total) {
		writeError(w, http.StatusUnprocessableEntity, "total does not match lines")
		return
	}
	a.orders = append(a.orders, order)
	if key != "" {
		a.idempotency[key] = order
	}
	writeJSON(w, http.StatusCreated, order)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.RemoteErrorBody{Message: message})
}
