package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fkhayef/settleup/docs"
	"github.com/fkhayef/settleup/internal/balance"
	"github.com/fkhayef/settleup/internal/config"
	"github.com/fkhayef/settleup/internal/database"
	"github.com/fkhayef/settleup/internal/expense"
	expensesplit "github.com/fkhayef/settleup/internal/expense/split"
	"github.com/fkhayef/settleup/internal/group"
	"github.com/fkhayef/settleup/internal/notification"
	"github.com/fkhayef/settleup/internal/settlement"
	"github.com/fkhayef/settleup/internal/user"
	"github.com/fkhayef/settleup/pkg/logging"
	mw "github.com/fkhayef/settleup/pkg/middleware"
)

// @title        SettleUp API
// @version      1.0
// @description  Shared expense ledger with balances and settle-up suggestions.
// @host         localhost:8080
// @BasePath     /api/v1
func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if envErr != nil {
		slog.Info("no .env file found, using environment variables")
	}

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL, database.Options{
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		ConnMaxLife:  30 * time.Minute,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("connected to database")

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		slog.Info("migrations applied")
	}

	// Split Strategy Factory (Factory Pattern)
	splitFactory := expensesplit.NewFactory()

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	// Group feature
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo)
	groupHandler := group.NewHandler(groupService)

	// Notification feature
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo, userService)
	notificationHandler := notification.NewHandler(notificationService)

	// Expense feature (with split factory injected)
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, splitFactory, groupService, notificationService)
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, groupService, notificationService)
	settlementHandler := settlement.NewHandler(settlementService)

	// Balance feature
	balanceService := balance.NewService(expenseRepo, settlementRepo, groupService, userService)
	balanceHandler := balance.NewHandler(balanceService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(mw.UserIdentity)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	docs.SwaggerInfo.Host = "localhost" + cfg.Addr()
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Mount feature routers
		r.Mount("/users", userHandler.Routes())
		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
		r.Mount("/balances", balanceHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
