package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"parity-app/config"
	"parity-app/database"
	analyticsapi "parity-app/internal/api/analytics"
	"parity-app/internal/api/billing"
	clerkwebhooks "parity-app/internal/api/clerkwebhook"
	productsapi "parity-app/internal/api/products"
	stripewebhooks "parity-app/internal/api/stripewebhook"
	"parity-app/internal/api/users"
	routes "parity-app/internal/app/http"
	"parity-app/internal/app/http/middleware"
	"parity-app/internal/domain/access"
	"parity-app/internal/domain/plans"
	"parity-app/internal/infra/cache"
	stripeinfra "parity-app/internal/infra/stripe"
	"parity-app/internal/logging"
	"parity-app/internal/repository"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.AppEnv}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := database.InitDB(cfg.DBURL)
	if err != nil {
		slog.Error("database init failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	c := cache.New(newStore(ctx, cfg.RedisURL), cfg.CacheTTL)

	catalog := plans.NewCatalog(plans.PriceIDs{
		Basic:    cfg.StripeBasicPriceID,
		Standard: cfg.StripeStandardPriceID,
		Premium:  cfg.StripePremiumPriceID,
	})

	productRepo := repository.NewProducts(db, c)
	subRepo := repository.NewSubscriptions(db, c, catalog)
	viewRepo := repository.NewViews(db, c)
	eventRepo := repository.NewEvents(db)
	checker := access.NewChecker(subRepo, productRepo, viewRepo)

	gateway := stripeinfra.NewGateway(cfg.StripeSecretKey, cfg.AppURL+"/dashboard/subscription")

	clerkVerifier, err := svix.NewWebhook(cfg.ClerkWebhookSecret)
	if err != nil {
		slog.Error("invalid clerk webhook secret", "error", err)
		os.Exit(1)
	}

	var tokens middleware.TokenVerifier
	if cfg.ClerkIssuer != "" {
		tokens = middleware.NewOIDCVerifier(ctx, cfg.ClerkIssuer, cfg.ClerkJWKSURL)
	} else {
		tokens = middleware.NewHMACVerifier(cfg.ClerkJWTSecret)
	}

	if err := middleware.RegisterValidators(); err != nil {
		slog.Error("register validators failed", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Catalog:       catalog,
		Verifier:      tokens,
		Capabilities:  checker,
		Users:         users.NewHandler(catalog, subRepo),
		Products:      productsapi.NewHandler(productRepo, checker, repository.NewCountries(db, c)),
		Banners:       productsapi.NewBannerHandler(repository.NewBanners(db, c), viewRepo, checker),
		Billing:       billing.NewHandler(catalog, subRepo, checker, gateway),
		Analytics:     analyticsapi.NewHandler(viewRepo),
		StripeWebhook: stripewebhooks.NewHandler(cfg.StripeWebhookSecret, catalog, subRepo, eventRepo),
		ClerkWebhook:  clerkwebhooks.NewHandler(clerkVerifier, subRepo, gateway, eventRepo),
	})

	slog.Info("listening", "port", cfg.Port, "env", cfg.AppEnv)
	if err := r.Run(":" + cfg.Port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newStore(ctx context.Context, redisURL string) cache.Store {
	if redisURL == "" {
		return cache.NewMemoryStore()
	}
	client, err := cache.ConnectRedis(ctx, redisURL)
	if err != nil {
		slog.Warn("redis unavailable, using in-process cache", "error", err)
		return cache.NewMemoryStore()
	}
	return cache.NewRedisStore(client, cache.KeyPrefix)
}
