package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/dcortes/shopline-backend/api/routes"
	cartsvc "github.com/dcortes/shopline-backend/internal/cart"
	"github.com/dcortes/shopline-backend/internal/products"
	"github.com/dcortes/shopline-backend/internal/promotions"
	"github.com/dcortes/shopline-backend/pkg/cache"
	"github.com/dcortes/shopline-backend/pkg/config"
	"github.com/dcortes/shopline-backend/pkg/db"
	"github.com/dcortes/shopline-backend/pkg/logger"
	"github.com/dcortes/shopline-backend/pkg/migrate"
	"github.com/dcortes/shopline-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	productService, err := products.NewService(products.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	ruleCache, err := cache.NewRedisCache(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create promotion cache", err)
		os.Exit(1)
	}
	promotionCatalog, err := promotions.NewCatalog(promotions.NewRepository(dbClient.DB()), ruleCache, cfg.Promotions.CacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create promotion catalog", err)
		os.Exit(1)
	}

	pricer, err := cartsvc.NewPricer(promotionCatalog, cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricer", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		Repo:     cartsvc.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Products: productService,
		Pricer:   pricer,
		Config:   cfg.Cart,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, cartService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
