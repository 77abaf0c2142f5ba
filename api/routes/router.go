package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-client/api/controllers"
	"github.com/angelmondragon/storefront-client/api/middleware"
	"github.com/angelmondragon/storefront-client/internal/admin"
	"github.com/angelmondragon/storefront-client/internal/cart"
	"github.com/angelmondragon/storefront-client/internal/checkout"
	"github.com/angelmondragon/storefront-client/internal/remote"
	guard "github.com/angelmondragon/storefront-client/internal/routes"
	"github.com/angelmondragon/storefront-client/internal/session"
	"github.com/angelmondragon/storefront-client/pkg/config"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	"github.com/angelmondragon/storefront-client/pkg/logger"
)

// Dependencies are the long-lived services the console serves.
type Dependencies struct {
	Sessions *session.Store
	Client   *remote.Client
	Cart     *cart.Store
	Checkout checkout.Service
	Guard    *guard.Guard
	Admin    *admin.Workflow
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if len(cfg.Console.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.Console.CORSOrigins))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
	})
	if cfg.Console.Metrics && deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Session(deps.Sessions, logg))

		r.Route("/session", func(r chi.Router) {
			r.Get("/", controllers.SessionGet(deps.Sessions))
			r.Post("/login", controllers.SessionLogin(deps.Sessions, deps.Client, logg))
			r.Post("/logout", controllers.SessionLogout(deps.Sessions, logg))
		})
		r.Post("/accounts", controllers.AccountCreate(deps.Client, logg))

		r.Get("/products", controllers.ProductsList(deps.Client, deps.Sessions, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart))
			r.Delete("/", controllers.CartClear(deps.Cart))
			r.Post("/items", controllers.CartAddItem(deps.Cart, deps.Client, deps.Sessions, logg))
			r.Patch("/items/{productId}", controllers.CartSetQuantity(deps.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
		})
		r.Post("/checkout", controllers.CheckoutSubmit(deps.Checkout, logg))
		r.Get("/routes/resolve", controllers.RouteResolve(deps.Guard, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
			r.Get("/dashboard", controllers.AdminDashboard(deps.Admin, logg))
			r.Post("/refresh", controllers.AdminRefresh(deps.Admin, logg))
			r.Post("/orders/{orderId}/approve", controllers.AdminApproveOrder(deps.Admin, logg))
			r.Put("/form", controllers.AdminUpdateForm(deps.Admin, logg))
			r.Post("/products", controllers.AdminCreateProduct(deps.Admin, logg))
			r.Post("/products/{productId}/feature", controllers.AdminFeatureProduct(deps.Admin, logg))
			r.Delete("/error", controllers.AdminClearError(deps.Admin))
		})
	})

	return r
}
