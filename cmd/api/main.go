package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/recophone/recophone-backend/api/routes"
	"github.com/recophone/recophone-backend/internal/admin"
	"github.com/recophone/recophone-backend/internal/cart"
	"github.com/recophone/recophone-backend/internal/catalog"
	"github.com/recophone/recophone-backend/internal/documents"
	"github.com/recophone/recophone-backend/internal/finalize"
	"github.com/recophone/recophone-backend/internal/payments"
	"github.com/recophone/recophone-backend/internal/quote"
	"github.com/recophone/recophone-backend/internal/stock"
	"github.com/recophone/recophone-backend/internal/storage"
	"github.com/recophone/recophone-backend/internal/travelfee"
	"github.com/recophone/recophone-backend/pkg/config"
	"github.com/recophone/recophone-backend/pkg/db"
	"github.com/recophone/recophone-backend/pkg/docstore"
	"github.com/recophone/recophone-backend/pkg/geo"
	"github.com/recophone/recophone-backend/pkg/logger"
	"github.com/recophone/recophone-backend/pkg/mail"
	"github.com/recophone/recophone-backend/pkg/metrics"
	"github.com/recophone/recophone-backend/pkg/migrate"
	"github.com/recophone/recophone-backend/pkg/redis"
	"github.com/recophone/recophone-backend/pkg/stripepay"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cat, err := catalog.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load pricing catalog", err)
		os.Exit(1)
	}

	geoClient, err := geo.NewClient(cfg.Geo)
	if err != nil {
		logg.Error(context.Background(), "failed to create geocoding client", err)
		os.Exit(1)
	}

	travelCalc, err := travelfee.NewCalculator(geoClient, cfg.TravelFee, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create travel fee calculator", err)
		os.Exit(1)
	}

	quoteService, err := quote.NewService(quote.ServiceParams{
		Store:        quote.NewStore(redisClient),
		Catalog:      cat,
		Fees:         travelCalc,
		FeeScheduler: travelfee.NewScheduler(cfg.TravelFee.Debounce),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{Store: cart.NewStore(redisClient)})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	docClient, err := docstore.NewClient(cfg.DocStore)
	if err != nil {
		logg.Error(context.Background(), "failed to create document store client", err)
		os.Exit(1)
	}

	mailSender, err := mail.NewSender(cfg.SMTP)
	if err != nil {
		logg.Error(context.Background(), "failed to create mail sender", err)
		os.Exit(1)
	}

	quoteRepo, err := finalize.NewRepository(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create quote repository", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	company := documents.DefaultCompany()
	finalizeService, err := finalize.NewService(finalize.ServiceParams{
		Documents: documents.NewBuilder(company),
		Company:   company,
		Uploader:  docClient,
		Mailer:    mailSender,
		Records:   quoteRepo,
		Drafts:    quote.NewStore(redisClient),
		Jobs:      jobMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create finalize service", err)
		os.Exit(1)
	}

	adminQuotes, err := admin.NewQuoteRepository(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin quote repository", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(admin.ServiceParams{
		AdminConfig:     cfg.Admin,
		JWTConfig:       cfg.JWT,
		RateLimitConfig: cfg.LoginRateLimit,
		RateLimiter:     redisClient,
		Quotes:          adminQuotes,
		Logger:          logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	storageBackend, err := storage.New(cfg.Storage)
	if err != nil {
		logg.Error(context.Background(), "failed to create storage backend", err)
		os.Exit(1)
	}

	stockClient, err := stock.NewClient(cfg.Stock)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock client", err)
		os.Exit(1)
	}

	stockService, err := stock.NewService(stock.ServiceParams{
		Config: cfg.Stock,
		Feed:   stockClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	stripeClient, err := stripepay.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		StripeConfig: cfg.Stripe,
		Stripe:       payments.NewStripeClient(stripeClient),
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	webhookService, err := payments.NewWebhookService(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := payments.NewIdempotencyGuard(redisClient, 48*time.Hour, "stripe-events")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DBPinger:     dbClient,
			Redis:        redisClient,
			HTTPMetrics:  httpMetrics,
			Catalog:      cat,
			TravelFee:    travelCalc,
			Quotes:       quoteService,
			Finalizer:    finalizeService,
			Cart:         cartService,
			Admin:        adminService,
			Storage:      storageBackend,
			Stock:        stockService,
			Payments:     paymentService,
			Stripe:       stripeClient,
			Webhooks:     webhookService,
			WebhookGuard: webhookGuard,
			BlockedDates: quote.DefaultBlockedDates,
			Now:          time.Now,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdown
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
