package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kadro-hq/be-hr-approvals/internal/client"
	"github.com/kadro-hq/be-hr-approvals/internal/handler"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/config"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/database"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/logger"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/middleware"
	"github.com/kadro-hq/be-hr-approvals/internal/repository"
	"github.com/kadro-hq/be-hr-approvals/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting HR Approvals Service")

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
		HealthCheck: cfg.Database.HealthCheck,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Optional NATS connection for notification events
	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = nats.Connect(cfg.NATS.URL,
			nats.Name(cfg.Service.Name),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("Failed to connect to NATS")
		}
		defer natsConn.Drain()
		log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
	} else {
		log.Warn().Msg("NATS_URL not set; notification events disabled")
	}

	// Initialize repositories
	employeeRepo := repository.NewEmployeeRepository(db)
	membershipRepo := repository.NewMembershipRepository(
		repository.NewOrgMembershipProvider(db),
		repository.NewLegacyRoleProvider(db),
	)
	responsibleRepo := repository.NewResponsibleRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	expenseApprovalRepo := repository.NewExpenseApprovalRepository(db)

	// Initialize services
	notifier := client.NewNotificationPublisher(natsConn, log.Logger)
	settingsService := service.NewApprovalSettingsService(orgRepo, log)
	resolver := service.NewApproverResolutionService(employeeRepo, membershipRepo, responsibleRepo, orgRepo, orgRepo, log)
	authzService := service.NewAuthorizationService(resolver, employeeRepo, membershipRepo, orgRepo, orgRepo, log)
	expenseService := service.NewExpenseService(resolver, expenseApprovalRepo, notifier, log)

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(resolver, authzService, settingsService, expenseService, log)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Approver resolution routes
	mux.HandleFunc("/api/v1/approvers/resolve", httpHandler.ResolveApprovers)
	mux.HandleFunc("/api/v1/approvers/authorized", httpHandler.AuthorizedApprovers)
	mux.HandleFunc("/api/v1/approvals/can-approve", httpHandler.CanApprove)
	mux.HandleFunc("/api/v1/approvals/hr-access", httpHandler.HRAccess)

	// Workflow configuration routes
	mux.HandleFunc("/api/v1/approval-settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			httpHandler.GetApprovalSettings(w, r)
		case http.MethodPut:
			httpHandler.UpdateApprovalSettings(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Expense approval routes
	mux.HandleFunc("/api/v1/expenses/submit", httpHandler.SubmitExpense)
	mux.HandleFunc("/api/v1/expenses/pending", httpHandler.PendingExpenseApprovals)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(30 * time.Second)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
