package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-extras/cobraflags"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/georgemunganga/souq-backend/internal/config"
	"github.com/georgemunganga/souq-backend/internal/database"
	"github.com/georgemunganga/souq-backend/internal/events"
	"github.com/georgemunganga/souq-backend/internal/logging"
	"github.com/georgemunganga/souq-backend/internal/modules/analytics"
	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/modules/billing"
	"github.com/georgemunganga/souq-backend/internal/modules/cart"
	"github.com/georgemunganga/souq-backend/internal/modules/catalog"
	"github.com/georgemunganga/souq-backend/internal/modules/checkout"
	"github.com/georgemunganga/souq-backend/internal/modules/order"
	"github.com/georgemunganga/souq-backend/internal/modules/payment"
	"github.com/georgemunganga/souq-backend/internal/modules/settings"
	"github.com/georgemunganga/souq-backend/internal/modules/shipping"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
	"github.com/georgemunganga/souq-backend/internal/modules/storefront"
	"github.com/georgemunganga/souq-backend/internal/modules/user"
	"github.com/georgemunganga/souq-backend/internal/tenant"
	"github.com/georgemunganga/souq-backend/internal/web"
)

const (
	cartTTL         = 7 * 24 * time.Hour
	shutdownTimeout = 15 * time.Second
)

const portFlag = "port"

var serveFlags = map[string]cobraflags.Flag{
	portFlag: &cobraflags.StringFlag{
		Name:  portFlag,
		Value: "",
		Usage: "Listen port, overrides APP_PORT",
	},
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  serveCommand,
	}
	cobraflags.RegisterMap(cmd, serveFlags)
	return cmd
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	if port := serveFlags[portFlag].GetString(); port != "" {
		cfg.AppPort = port
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing events to kafka")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newRouter(cfg, db, rdb, publisher, log),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestMiddleware is the stack every request passes through. Forwarded
// address headers are honoured only when the deployment trusts its proxy.
func requestMiddleware(cfg *config.Config, log zerolog.Logger) []func(http.Handler) http.Handler {
	mw := []func(http.Handler) http.Handler{middleware.RequestID}
	if cfg.TrustProxyHeaders {
		mw = append(mw, middleware.RealIP)
	}
	return append(mw, logging.Middleware(log), middleware.Recoverer, web.SecureHeaders)
}

// newRouter builds every module and mounts its routes. rdb may be nil.
func newRouter(cfg *config.Config, db *sql.DB, rdb *redis.Client, publisher events.Publisher, log zerolog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(requestMiddleware(cfg, log)...)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	router.Use(auth.Middleware(auth.NewCookieProvider(tokens)))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			web.Fail(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		web.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	cookies := auth.Cookies{
		RootDomain:       cfg.RootDomain,
		PathRoutingHosts: cfg.PathRoutingHosts,
		Secure:           strings.HasPrefix(cfg.AppBaseURL, "https://"),
	}
	loginLimit := web.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRatePerMinute, 10*time.Minute).Middleware

	// ── Identity ────────────────────────────────────────────
	userService := user.NewService(user.NewPostgresRepository(db))
	authService := auth.NewService(userService, tokens)
	auth.NewHandler(authService, userService, cookies, loginLimit).RegisterRoutes(router)
	user.NewHandler(userService, auth.RequireSuperAdmin).RegisterRoutes(router)

	// ── Tenancy ─────────────────────────────────────────────
	storeRepo := store.NewPostgresRepository(db)
	var tenantCache tenant.Cache
	if rdb != nil {
		tenantCache = tenant.NewRedisCache(rdb, cfg.TenantCacheTTL, log)
	}
	resolver := tenant.NewResolver(storeRepo, tenantCache, cfg.RootDomain, cfg.PathRoutingHosts, log)
	storeService := store.NewService(storeRepo, publisher, resolver, log)
	store.NewHandler(storeService, authService, cookies, loginLimit).RegisterRoutes(router)

	// ── Commerce ────────────────────────────────────────────
	catalogService := catalog.NewService(catalog.NewPostgresRepository(db))
	catalog.NewHandler(catalogService, storeService).RegisterRoutes(router)

	shippingService := shipping.NewService(shipping.NewPostgresRepository(db))
	shipping.NewHandler(shippingService, storeService).RegisterRoutes(router)

	settingsService := settings.NewService(settings.NewPostgresRepository(db))
	settings.NewHandler(settingsService, storeService).RegisterRoutes(router)

	var idempotency order.Idempotency
	var carts cart.Store = cart.NewMemoryStore(cartTTL)
	if rdb != nil {
		idempotency = order.NewRedisIdempotency(rdb, log)
		carts = cart.NewRedisStore(rdb, cartTTL)
	}
	orderService := order.NewService(order.NewPostgresRepository(db), idempotency,
		payment.NewStripeIntents(), storeService, publisher, log)
	order.NewHandler(orderService, storeService).RegisterRoutes(router)

	analytics.NewHandler(analytics.NewService(analytics.NewPostgresRepository(db)), storeService).RegisterRoutes(router)

	// ── Billing ─────────────────────────────────────────────
	var gateway payment.Gateway
	if cfg.Stripe.SecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, billing disabled")
	}
	billingService := billing.NewService(gateway, billing.NewPostgresRepository(db), storeService,
		publisher, cfg.Stripe.PriceIDs, cfg.Stripe.PublishableKey, cfg.AppBaseURL, log)
	billing.NewHandler(billingService, storeService).RegisterRoutes(router)

	// ── Storefront ──────────────────────────────────────────
	cartService := cart.NewService(carts, catalogService)
	orchestrator := checkout.NewOrchestrator(orderService, shippingService, settingsService, orderService)
	storefront.NewHandler(resolver, catalogService, shippingService, settingsService, cartService,
		orchestrator, cookies.Secure).RegisterRoutes(router)

	return router
}
