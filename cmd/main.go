package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-marketplace/internal/api"
	"inventory-marketplace/internal/auth"
	"inventory-marketplace/internal/catalog"
	"inventory-marketplace/internal/config"
	"inventory-marketplace/internal/importer"
	"inventory-marketplace/internal/inventory"
	"inventory-marketplace/internal/logging"
	"inventory-marketplace/internal/market"
	"inventory-marketplace/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const serviceName = "inventory-marketplace"

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on system environment")
	}

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Error loading configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.AppEnv)
	logger.WithFields(logrus.Fields{"app_env": cfg.AppEnv, "log_level": cfg.LogLevel}).Info("Starting service")

	// --- Database Connection ---
	db, err := sqlx.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database connection")
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		logger.WithError(err).Fatal("Failed to ping database")
	}
	logger.Info("Database connection established")

	if cfg.Migrations.Run {
		if err := store.MigrateUp(db); err != nil {
			logger.WithError(err).Fatal("Failed to apply database migrations")
		}
	}

	pg := store.NewPostgresStore(db)

	// --- Services ---
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := auth.NewService(pg, tokens, logger)
	categories := catalog.NewManager(pg, logger)
	inventoryService := inventory.NewService(pg, logger)
	coordinator := market.NewCoordinator(pg, logger)
	itemImporter := importer.New(pg, categories, inventoryService, coordinator, logger)

	// --- Initialize API Handlers ---
	httpAPIHandler := api.NewHTTPHandler(api.Services{
		Auth:       authService,
		Categories: categories,
		Inventory:  inventoryService,
		Market:     coordinator,
		Importer:   itemImporter,
	}, logger, cfg.HttpServer.MaxUploadBytes)
	grpcAPIHandler := api.NewGRPCHandler(categories, coordinator, logger)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, cfg, logger)
	registerReadinessCheck(httpRouter, logger, pg)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.WithField("port", cfg.HttpServer.Port).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server ListenAndServe error")
		}
		logger.Info("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := setupGRPCServer(cfg, logger, grpcAPIHandler)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		logger.WithError(err).WithField("port", cfg.GrpcServer.Port).Fatal("Failed to listen for gRPC")
	}

	go func() {
		logger.WithField("port", cfg.GrpcServer.Port).Info("gRPC server listening")
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.WithError(err).Fatal("gRPC server Serve error")
		}
		logger.Info("gRPC server has stopped")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, grpcServer, pg, shutdownComplete)

	<-shutdownComplete
	logger.Info("Service shutdown sequence finished")
}

func setupBaseMiddleware(router *chi.Mux, cfg *config.Config, logger *logrus.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	router.Use(middleware.Timeout(cfg.HttpServer.RequestTimeout))
	logger.Debug("Base HTTP middleware registered")
}

type pinger interface {
	Ping(ctx context.Context) error
}

// registerReadinessCheck reports whether the database is reachable.
func registerReadinessCheck(router *chi.Mux, logger *logrus.Logger, db pinger) {
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		code, dbStatus := http.StatusOK, "healthy"
		if err := db.Ping(ctx); err != nil {
			code, dbStatus = http.StatusServiceUnavailable, "unhealthy"
			logger.WithError(err).Warn("Readiness check DB ping failed")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"service":"` + serviceName + `","database":"` + dbStatus + `"}`))
	})
}

func setupGRPCServer(cfg *config.Config, logger *logrus.Logger, grpcAPIHandler *api.GRPCHandler) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(api.UnaryLoggingInterceptor(logger)))

	s.RegisterService(&api.CatalogServiceDesc, grpcAPIHandler)
	grpc_health_v1.RegisterHealthServer(s, health.NewServer())
	// Reflection is for grpcurl during development.
	if !cfg.IsProduction() {
		reflection.Register(s)
	}
	logger.WithField("service", api.CatalogServiceName).Debug("gRPC services registered")

	return s
}

func waitForShutdown(
	logger *logrus.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	pg *store.PostgresStore,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.WithField("signal", receivedSignal.String()).Info("Starting graceful shutdown")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server graceful shutdown failed")
	} else {
		logger.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		logger.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		logger.WithError(shutdownCtx.Err()).Warn("gRPC server graceful shutdown timed out, forcing stop")
		grpcServer.Stop()
	}

	if err := pg.Close(); err != nil {
		logger.WithError(err).Warn("Error closing database connection")
	}
	logger.Info("Graceful shutdown sequence completed")
}
