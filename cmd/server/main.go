package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"catalog/internal"
	"catalog/internal/feed"
	"catalog/internal/handler"
	"catalog/internal/jobs"
	"catalog/internal/middleware"
	"catalog/internal/postgres"
	"catalog/internal/router"
	"catalog/internal/service"
	"catalog/internal/storage"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize stores
	store := postgres.NewStore(pool)

	// Initialize file storage
	fileStorage, err := storage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.LocalURL)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	// Initialize services
	validator := service.NewValidator()
	imageService := service.NewImageService(fileStorage, logger)
	variantService := service.NewVariantService(store.Stores(), imageService, validator, logger)
	productService := service.NewProductService(store.Stores(), store, variantService, validator, logger)

	// Load templates with renderer
	logger.Info("Loading templates...")
	renderer, err := handler.NewRenderer("web/templates")
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	logger.Info("Templates loaded successfully")

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService, renderer, cfg.PageSize, logger)
	variantHandler := handler.NewVariantHandler(variantService, productService, renderer, logger)
	imageHandler := handler.NewImageHandler(imageService, logger)

	// Initialize Prometheus metrics
	metrics := middleware.NewMetrics("catalog")

	// Create router and register routes
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		router.Logger(logger),
	)

	r.Static("/static/", "./web/static")

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/", productHandler.Index)
	r.Get("/products", productHandler.Table)
	r.Post("/products", productHandler.Save)
	r.Post("/products/{uid}", productHandler.Update)
	r.Get("/products/edit/{uid}", productHandler.Edit)
	r.Delete("/products/{uid}", productHandler.Delete)
	r.Get("/products/{uid}/variants/create", variantHandler.Create)
	r.Post("/products/{uid}/variants/create", variantHandler.Save)
	r.Get("/products/{uid}/variants/{vid}/update", variantHandler.Edit)
	r.Post("/products/{uid}/variants/{vid}/update", variantHandler.Update)
	r.Get("/images/{product}/{file...}", imageHandler.Serve)

	// Start the scheduled feed import
	if cfg.Feed.Enabled {
		importer := jobs.NewImporter(
			feed.NewClient(cfg.Feed.URL),
			productService,
			cfg.Feed.Interval,
			cfg.Feed.Limit,
			logger,
		)
		go importer.Run(ctx)
		logger.Info("Feed import scheduled", "url", cfg.Feed.URL, "interval", cfg.Feed.Interval)
	}

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
