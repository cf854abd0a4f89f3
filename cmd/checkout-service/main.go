package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/app/setup"
	"github.com/LavaJover/agromarket-checkout-service/internal/config"
	"github.com/LavaJover/agromarket-checkout-service/internal/delivery/grpcapi"
	"github.com/LavaJover/agromarket-checkout-service/internal/delivery/http/handlers"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const (
	shutdownTimeout = 20 * time.Second
	healthInterval  = 10 * time.Second
)

func main() {
	// Reading config
	cfg := config.MustLoad()
	lg := logger.MustNew(cfg.LogConfig, "checkout-service", cfg.Env)

	if err := run(cfg, lg); err != nil {
		lg.Error("checkout service stopped with error", zap.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}
	_ = lg.Sync()
}

func run(cfg *config.CheckoutConfig, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(cfg, lg)
	if err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}
	defer deps.Close()

	ucs, err := setup.InitializeUsecases(deps)
	if err != nil {
		return fmt.Errorf("init usecases: %w", err)
	}

	// Background workers: reaper and courier status consumer
	tasks := setup.InitializeBackground(deps, ucs)
	tasks.StartAll(ctx)

	// HTTP
	router := handlers.NewRouter(
		handlers.NewCheckoutHandler(ucs.Checkout, lg.Named("http")),
		handlers.NewWebhookHandler(ucs.Checkout, lg.Named("webhook")),
		handlers.NewAuthenticator(cfg.Auth.JWTSecret),
		deps.Registry,
		lg.Named("http"),
	)
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	// gRPC health
	sqlDB, err := deps.DB.DB()
	if err != nil {
		return err
	}
	health := grpcapi.NewHealthHandler(sqlDB, lg.Named("health"))
	grpcServer := grpc.NewServer()
	health.Register(grpcServer)
	go health.Run(ctx, healthInterval)

	lis, err := net.Listen("tcp", net.JoinHostPort(cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		lg.Info("http server started", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		lg.Info("grpc server started", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		lg.Info("shutting down")
	case err = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		lg.Warn("http shutdown", zap.Error(shutdownErr))
	}
	grpcServer.GracefulStop()
	tasks.Wait()
	return err
}
