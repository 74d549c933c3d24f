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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fkhayef/splitbuddy/docs"
	"github.com/fkhayef/splitbuddy/internal/authz"
	"github.com/fkhayef/splitbuddy/internal/config"
	"github.com/fkhayef/splitbuddy/internal/database"
	"github.com/fkhayef/splitbuddy/internal/expense"
	expensesplit "github.com/fkhayef/splitbuddy/internal/expense/split"
	"github.com/fkhayef/splitbuddy/internal/group"
	"github.com/fkhayef/splitbuddy/internal/mailer"
	"github.com/fkhayef/splitbuddy/internal/notification"
	"github.com/fkhayef/splitbuddy/internal/report"
	"github.com/fkhayef/splitbuddy/internal/settlement"
	"github.com/fkhayef/splitbuddy/internal/storage"
	"github.com/fkhayef/splitbuddy/internal/user"
	"github.com/fkhayef/splitbuddy/pkg/logging"
	mw "github.com/fkhayef/splitbuddy/pkg/middleware"
	"github.com/fkhayef/splitbuddy/pkg/token"
)

// @title                       SplitBuddy API
// @version                     1.0
// @description                 Shared expense tracking: groups, expenses, splits, balances and settlements.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)
	if envErr != nil {
		logger.Info("no .env file found, using environment variables")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := database.Migrate(db); err != nil {
		return err
	}

	// Outbound collaborators
	mail, err := mailer.New(cfg.SMTP, logger)
	if err != nil {
		return err
	}
	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	// Split Strategy Factory (Factory Pattern)
	splitFactory := expensesplit.NewSplitStrategyFactory(cfg.PercentReconcile)

	// Authorization checks shared by every feature
	checker := authz.NewChecker(authz.NewRepository(db))
	authzHandler := authz.NewHandler(checker)

	// Notification feature
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo, mail, logger)
	notificationHandler := notification.NewHandler(notificationService)

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, tokens, mail, cfg.PublicURL, logger)
	userHandler := user.NewHandler(userService)

	// Group feature
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo, checker, notificationService, cfg.PublicURL)
	groupHandler := group.NewHandler(groupService)

	// Expense feature (with split factory injected)
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, checker, splitFactory, objects, notificationService)
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, checker, notificationService)
	settlementHandler := settlement.NewHandler(settlementService)

	// Report feature
	reportService := report.NewService(report.NewRepository(db), checker)
	reportHandler := report.NewHandler(reportService)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := mw.NewMetrics(registry)

	authn := mw.Authenticate(tokens)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	docs.SwaggerInfo.BasePath = "/api/v1"
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", userHandler.Routes(authn))

		// Mount feature routers
		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Mount("/users", userHandler.UserRoutes())
			r.Mount("/authz", authzHandler.Routes())
			r.Mount("/groups", groupHandler.Routes())
			r.Mount("/expenses", expenseHandler.Routes())
			r.Mount("/settlements", settlementHandler.Routes())
			r.Mount("/reports", reportHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
