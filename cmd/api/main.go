package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Girish12277/NoteVault-GodMode-sub004/db"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/config"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/handler"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/repository"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/service"
	validatorpkg "github.com/Girish12277/NoteVault-GodMode-sub004/internal/validator"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Apply the embedded schema (idempotent DDL)
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database schema")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "NoteVault Settlement Ledger",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	// Initialize validator with custom rules
	validate := validatorpkg.New()

	// Repositories
	couponRepo := repository.NewCouponRepository(pool)
	walletRepo := repository.NewWalletRepository(pool)
	ledgerRepo := repository.NewLedgerRepository(pool)
	purchaseRepo := repository.NewPurchaseRepository(pool)
	payoutRepo := repository.NewPayoutRepository(pool)

	// Services (layered architecture: services own transactions)
	couponService := service.NewCouponService(pool, couponRepo)
	walletService := service.NewWalletService(pool, walletRepo, ledgerRepo)
	checkoutService := service.NewCheckoutService(
		pool, couponService, walletService, purchaseRepo,
		cfg.Settlement.CommissionRate(), cfg.Settlement.RefundWindow(),
	)
	refundService := service.NewRefundService(pool, walletService, ledgerRepo, purchaseRepo)
	payoutService := service.NewPayoutService(pool, walletService, payoutRepo, cfg.Settlement.MinWithdrawal)
	scheduler := service.NewMaturityScheduler(
		pool, pool, walletService, purchaseRepo,
		cfg.Settlement.MaturityInterval(), cfg.Settlement.MaturityBatchSize,
	)

	// Handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, validate)
	couponHandler := handler.NewCouponHandler(couponService, validate)
	walletHandler := handler.NewWalletHandler(walletService)
	payoutHandler := handler.NewPayoutHandler(payoutService, validate)
	refundHandler := handler.NewRefundHandler(refundService, validate)
	healthHandler := handler.NewHealthHandler(pool)

	// Routes
	app.Get("/health", healthHandler.Check)
	app.Post("/api/checkout", checkoutHandler.Checkout)
	app.Post("/api/coupons/evaluate", couponHandler.Evaluate)
	app.Get("/api/wallets/:sellerId", walletHandler.Snapshot)
	app.Post("/api/payouts", payoutHandler.RequestPayout)
	app.Post("/api/payouts/:id/result", payoutHandler.Result)
	app.Get("/api/sellers/:sellerId/payouts", payoutHandler.ListBySeller)
	app.Post("/api/refunds", refundHandler.OnRefund)

	// Start the maturity scheduler in the background
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(schedulerCtx)
	}()

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Stop the scheduler first so no maturity batch starts mid-shutdown
	stopScheduler()
	<-schedulerDone
	log.Info().Msg("maturity scheduler stopped")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
