package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/audit"
	auditPostgres "github.com/espp/tuition-management/internal/audit/postgres"
	"github.com/espp/tuition-management/internal/auth"
	"github.com/espp/tuition-management/internal/billing"
	billingPostgres "github.com/espp/tuition-management/internal/billing/postgres"
	"github.com/espp/tuition-management/internal/core/events"
	"github.com/espp/tuition-management/internal/core/numbering"
	"github.com/espp/tuition-management/internal/payment"
	paymentPostgres "github.com/espp/tuition-management/internal/payment/postgres"
	"github.com/espp/tuition-management/internal/program"
	programPostgres "github.com/espp/tuition-management/internal/program/postgres"
	"github.com/espp/tuition-management/internal/reporting"
	reportingPostgres "github.com/espp/tuition-management/internal/reporting/postgres"
	"github.com/espp/tuition-management/internal/transport/rest"
	"github.com/espp/tuition-management/internal/user"
	userPostgres "github.com/espp/tuition-management/internal/user/postgres"
	"github.com/espp/tuition-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Format, config.Logging.Level)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the pgx connection sqlx already opened.
	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	router := chi.NewRouter()
	wireRoutes(router, db, gormDB, config, lg)

	return &Dependencies{
		Config: config,
		DB:     db,
		Router: router,
		Logger: lg,
	}, nil
}

func wireRoutes(router *chi.Mux, db *sqlx.DB, gormDB *gorm.DB, config *internal.Config, lg *slog.Logger) {
	bus := events.NewEventBus(lg)
	numbers := numbering.NewGenerator()

	auditRepo := auditPostgres.NewAuditRepository(gormDB)
	auditService := audit.NewService(auditRepo, lg)
	auditService.SubscribeToEvents(bus)

	userRepo := userPostgres.NewUserRepository(gormDB)
	programRepo := programPostgres.NewProgramRepository(gormDB)
	billRepo := billingPostgres.NewBillRepository(gormDB)
	paymentRepo := paymentPostgres.NewPaymentRepository(gormDB)
	reportingRepo := reportingPostgres.NewReportingRepository(gormDB)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(userRepo, tokenGen, config.Security.BCryptCost)

	userService := user.NewService(userRepo, authService, lg)
	programService := program.NewService(programRepo, lg)
	billingService := billing.NewService(billRepo, userRepo, programService, numbers, bus, lg)
	paymentService := payment.NewService(paymentRepo, billRepo, numbers, bus, lg)
	reportingService := reporting.NewService(reportingRepo, auditService, lg)

	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:      auth.NewHandler(authService),
		User:      user.NewHandler(userService),
		Program:   program.NewHandler(programService),
		Billing:   billing.NewHandler(billingService),
		Payment:   payment.NewHandler(paymentService),
		Reporting: reporting.NewHandler(reportingService),
	}, lg)
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
