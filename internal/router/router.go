package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-finance-tracker/internal/config"
	"go-finance-tracker/internal/handler"
	"go-finance-tracker/internal/middleware"
	"go-finance-tracker/internal/ratelimit"
)

type Handlers struct {
	Auth        *handler.AuthHandler
	Category    *handler.CategoryHandler
	Transaction *handler.TransactionHandler
	Report      *handler.ReportHandler
	User        *handler.UserHandler
}

func New(cfg *config.Config, chain *middleware.Chain, metrics *middleware.Metrics, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(metrics.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Endpoint())

	// Login gets a tighter per-client budget than the rest of the API so
	// credential stuffing burns out fast.
	loginPolicy := &ratelimit.Policy{MaxRequests: cfg.AuthRateLimitMax, Window: cfg.RateLimitWindow}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(chain.Protect(middleware.Options{SkipAuth: true, SkipCSRF: true, RateLimit: loginPolicy})).Post("/login", h.Auth.Login)
			auth.With(chain.Protect(middleware.Options{Roles: []string{"admin"}})).Post("/register", h.Auth.Register)
			auth.With(chain.Protect(middleware.Options{})).Post("/logout", h.Auth.Logout)
			auth.With(chain.Protect(middleware.Options{})).Get("/me", h.Auth.Me)
			auth.With(chain.Protect(middleware.Options{SkipAuth: true})).Get("/csrf", h.Auth.CSRFToken)
		})

		api.Route("/categories", func(cat chi.Router) {
			cat.Use(chain.Protect(middleware.Options{}))
			cat.Get("/", h.Category.List)
			cat.Post("/", h.Category.Create)
			cat.Put("/{category_id}", h.Category.Update)
			cat.Delete("/{category_id}", h.Category.Delete)
		})

		api.Route("/transactions", func(tx chi.Router) {
			tx.Use(chain.Protect(middleware.Options{}))
			tx.Get("/", h.Transaction.List)
			tx.Post("/", h.Transaction.Create)
			tx.Put("/{transaction_id}", h.Transaction.Update)
			tx.Delete("/{transaction_id}", h.Transaction.Delete)
		})

		api.With(chain.Protect(middleware.Options{})).Get("/reports/summary", h.Report.Summary)
		api.With(chain.Protect(middleware.Options{Roles: []string{"admin"}})).Get("/users", h.User.List)
	})

	return r
}
