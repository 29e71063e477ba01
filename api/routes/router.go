package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/recophone/recophone-backend/api/controllers"
	webhookcontrollers "github.com/recophone/recophone-backend/api/controllers/webhooks"
	"github.com/recophone/recophone-backend/api/middleware"
	"github.com/recophone/recophone-backend/internal/admin"
	"github.com/recophone/recophone-backend/internal/cart"
	"github.com/recophone/recophone-backend/internal/catalog"
	"github.com/recophone/recophone-backend/internal/finalize"
	"github.com/recophone/recophone-backend/internal/payments"
	"github.com/recophone/recophone-backend/internal/quote"
	"github.com/recophone/recophone-backend/internal/stock"
	"github.com/recophone/recophone-backend/internal/storage"
	"github.com/recophone/recophone-backend/internal/travelfee"
	"github.com/recophone/recophone-backend/pkg/config"
	"github.com/recophone/recophone-backend/pkg/db"
	"github.com/recophone/recophone-backend/pkg/logger"
	"github.com/recophone/recophone-backend/pkg/metrics"
	"github.com/recophone/recophone-backend/pkg/redis"
	"github.com/recophone/recophone-backend/pkg/stripepay"
)

// Deps bundles everything the HTTP surface needs. The constructor takes
// a struct rather than a positional list so cmd/api wiring stays
// readable as services accumulate.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DBPinger     db.Pinger
	Redis        *redis.Client
	HTTPMetrics  *metrics.HTTPMetrics
	Catalog      *catalog.Catalog
	TravelFee    *travelfee.Calculator
	Quotes       quote.Service
	Finalizer    finalize.Service
	Cart         cart.Service
	Admin        admin.Service
	Storage      storage.Backend
	Stock        stock.Service
	Payments     payments.Service
	Stripe       *stripepay.Client
	Webhooks     *payments.WebhookService
	WebhookGuard *payments.IdempotencyGuard
	BlockedDates []string
	Now          func() time.Time
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	// The schedule endpoint must advertise the same calendar the quote
	// service enforces.
	if deps.BlockedDates == nil {
		deps.BlockedDates = quote.DefaultBlockedDates
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.Redis))
	})

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.Webhooks, deps.Stripe, deps.WebhookGuard, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", controllers.CatalogCategories(deps.Catalog, logg))
			r.Get("/categories/{category}/models", controllers.CatalogModels(deps.Catalog, logg))
			r.Get("/repairs", controllers.CatalogRepairs(deps.Catalog, logg))
			r.Get("/extra-services", controllers.CatalogExtraServices(deps.Catalog, logg))
		})

		r.Post("/travel-fee", controllers.TravelFeeCompute(deps.TravelFee, logg))
		r.Get("/schedule", controllers.QuoteSchedule(deps.BlockedDates, deps.Now))

		r.Route("/quote", func(r chi.Router) {
			r.Use(middleware.SessionContext(logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))
			r.Get("/draft", controllers.QuoteDraftFetch(deps.Quotes, logg))
			r.Put("/draft", controllers.QuoteDraftSave(deps.Quotes, logg))
			r.Delete("/draft", controllers.QuoteDraftClear(deps.Quotes, logg))
			r.Post("/navigate", controllers.QuoteNavigate(deps.Quotes, logg))
			r.Post("/devices", controllers.QuoteDeviceAdd(deps.Quotes, logg))
			r.Delete("/devices/{index}", controllers.QuoteDeviceRemove(deps.Quotes, logg))
			r.Post("/device/model", controllers.QuoteModelSelect(deps.Quotes, logg))
			r.Post("/finalize", controllers.QuoteFinalize(deps.Quotes, deps.Finalizer, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.CartContext(logg))
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{lineID}", controllers.CartUpdateQuantity(deps.Cart, logg))
			r.Delete("/items/{lineID}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/coupon", controllers.CartApplyCoupon(deps.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.With(middleware.CartContext(logg), middleware.Idempotency(deps.Redis, logg)).
				Post("/session", controllers.CheckoutCreateSession(deps.Payments, logg))
			r.Get("/session/{sessionID}", controllers.CheckoutVerifySession(deps.Payments, logg))
		})

		r.Get("/stock", controllers.StockList(deps.Stock, logg))
		r.Get("/stock/brands", controllers.StockBrands(deps.Stock, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", controllers.AdminLogin(deps.Admin, cfg, logg))
		r.Post("/logout", controllers.AdminLogout(cfg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, cfg.App.IsProd(), logg))
			r.Get("/ping", controllers.AdminPing())
			r.Get("/quotes", controllers.AdminQuotes(deps.Admin, logg))
			r.Get("/quotes/{number}", controllers.AdminQuoteDetail(deps.Admin, logg))
			r.Route("/storage", func(r chi.Router) {
				r.Get("/clients", controllers.StorageClients(deps.Storage, logg))
				r.Get("/files", controllers.StorageFiles(deps.Storage, logg))
				r.Get("/download", controllers.StorageDownload(deps.Storage, logg))
			})
			r.Get("/stock", controllers.StockList(deps.Stock, logg))
		})
	})

	return r
}
