package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/bikebuddy/bikebuddy-backend/api/routes"
	"github.com/bikebuddy/bikebuddy-backend/internal/auth"
	"github.com/bikebuddy/bikebuddy-backend/internal/bicycles"
	"github.com/bikebuddy/bikebuddy-backend/internal/branches"
	"github.com/bikebuddy/bikebuddy-backend/internal/categories"
	"github.com/bikebuddy/bikebuddy-backend/internal/purchases"
	"github.com/bikebuddy/bikebuddy-backend/internal/rentals"
	"github.com/bikebuddy/bikebuddy-backend/internal/reports"
	"github.com/bikebuddy/bikebuddy-backend/internal/suppliers"
	"github.com/bikebuddy/bikebuddy-backend/internal/users"
	"github.com/bikebuddy/bikebuddy-backend/pkg/auth/session"
	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
	"github.com/bikebuddy/bikebuddy-backend/pkg/metrics"
	"github.com/bikebuddy/bikebuddy-backend/pkg/migrate"
	"github.com/bikebuddy/bikebuddy-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "bikebuddy-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "bikebuddy-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return multierr.Append(err, dbClient.Close())
	}
	defer func() {
		if closeErr := multierr.Combine(dbClient.Close(), redisClient.Close()); closeErr != nil {
			logg.Error(context.Background(), "error closing clients", closeErr)
		}
	}()

	if err := migrate.Prepare(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := buildServices(cfg, logg, dbClient, sessionManager, registry)
	if err != nil {
		return err
	}
	deps.Redis = redisClient
	deps.RateLimiter = redisClient
	deps.Sessions = sessionManager
	deps.Gatherer = registry
	deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)

	if admin, created, err := auth.BootstrapAdmin(ctx, dbClient, cfg.Bootstrap, cfg.Password); err != nil {
		return err
	} else if created {
		logg.Info(logg.WithField(ctx, "username", admin.Username), "bootstrap admin created")
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": dbClient.Driver(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager, reg prometheus.Registerer) (routes.Dependencies, error) {
	deps := routes.Dependencies{Config: cfg, Logger: logg, DB: dbClient}

	pricingUnit, err := enums.ParsePricingUnit(cfg.Rental.DefaultPricingUnit)
	if err != nil {
		return deps, err
	}

	var errs error
	deps.Auth, err = auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	errs = multierr.Append(errs, err)

	deps.Users, err = users.NewService(users.ServiceParams{DB: dbClient, PasswordConfig: cfg.Password, Sessions: sessions})
	errs = multierr.Append(errs, err)

	deps.Branches, err = branches.NewService(dbClient)
	errs = multierr.Append(errs, err)

	deps.Categories, err = categories.NewService(dbClient)
	errs = multierr.Append(errs, err)

	deps.Suppliers, err = suppliers.NewService(dbClient)
	errs = multierr.Append(errs, err)

	deps.Catalog, err = bicycles.NewCatalogService(bicycles.CatalogParams{
		DB:       dbClient,
		PageSize: cfg.Rental.BrowsePageSize,
	})
	errs = multierr.Append(errs, err)

	deps.Bicycles, err = bicycles.NewManageService(bicycles.ManageParams{
		DB:                 dbClient,
		PageSize:           cfg.Rental.AdminPageSize,
		DefaultPricingUnit: pricingUnit,
	})
	errs = multierr.Append(errs, err)

	deps.Rentals, err = rentals.NewService(rentals.ServiceParams{
		DB:         dbClient,
		Logger:     logg,
		Metrics:    metrics.NewRentalMetrics(reg),
		StartGrace: cfg.Rental.StartGrace,
		PageSize:   cfg.Rental.AdminPageSize,
	})
	errs = multierr.Append(errs, err)

	deps.Purchases, err = purchases.NewService(purchases.ServiceParams{
		DB:                 dbClient,
		PageSize:           cfg.Rental.AdminPageSize,
		DefaultPricingUnit: pricingUnit,
		PlaceholderImage:   cfg.Rental.PlaceholderImage,
	})
	errs = multierr.Append(errs, err)

	deps.Reports, err = reports.NewService(dbClient)
	errs = multierr.Append(errs, err)

	return deps, errs
}
