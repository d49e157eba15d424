package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/stockledger-backend/api/controllers"
	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/internal/agreements"
	"github.com/angelmondragon/stockledger-backend/internal/auth"
	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	"github.com/angelmondragon/stockledger-backend/internal/orders"
	product "github.com/angelmondragon/stockledger-backend/internal/products"
	"github.com/angelmondragon/stockledger-backend/internal/users"
	"github.com/angelmondragon/stockledger-backend/pkg/auth/session"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface is wired to.
type Dependencies struct {
	DB             db.Pinger
	Redis          *redis.Client
	Sessions       session.Verifier
	Gatherer       prometheus.Gatherer
	Auth           auth.Service
	Products       product.Service
	Ledger         ledger.Service
	Orders         orders.Service
	Accounts       *users.Repository
	AgreementsGate *agreements.Gate
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	loginLimit := passthrough
	idempotency := passthrough
	var cache redis.Pinger
	if deps.Redis != nil {
		loginLimit = middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)
		idempotency = middleware.Idempotency(deps.Redis, logg)
		cache = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, cache, logg))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(loginLimit).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	manager := middleware.RequireRole(logg, enums.AccountRoleWarehouseManager)
	franchise := middleware.RequireRole(logg, enums.AccountRoleFranchiseOwner)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(idempotency)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/active", controllers.ListActiveProducts(deps.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(deps.Products, logg))
			r.Get("/{productId}/stock", controllers.ProductStock(deps.Products, logg))
			r.Get("/{productId}/ledger", controllers.ProductLedger(deps.Ledger, logg))

			r.Group(func(r chi.Router) {
				r.Use(manager)
				r.Post("/", controllers.CreateProduct(deps.Products, logg))
				r.Post("/{productId}/update", controllers.UpdateProduct(deps.Products, logg))
				r.Put("/{productId}/price", controllers.UpdateProductPrice(deps.Products, logg))
				r.Put("/{productId}/thresholds", controllers.UpdateProductThresholds(deps.Products, logg))
				r.Post("/{productId}/stock", controllers.AddProductStock(deps.Products, logg))
				r.Post("/{productId}/reconcile", controllers.ReconcileProduct(deps.Products, logg))
			})
		})

		r.Get("/ledger", controllers.RecentLedger(deps.Ledger, cfg.Ledger.RecentDefault, cfg.Ledger.RecentMax, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.With(franchise).Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			r.Post("/{orderId}/status", controllers.ChangeOrderStatus(deps.Orders, logg))
			r.With(manager).Post("/{orderId}/challan", controllers.UploadChallan(deps.Orders, logg))
		})

		r.With(manager).Get("/franchises", controllers.ListFranchises(deps.Accounts, logg))
		r.With(franchise).Get("/franchise/agreement", controllers.AgreementStatus(deps.AgreementsGate, logg))
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
