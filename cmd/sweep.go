package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/espp/tuition-management/internal/audit"
	auditPostgres "github.com/espp/tuition-management/internal/audit/postgres"
	"github.com/espp/tuition-management/internal/billing"
	billingPostgres "github.com/espp/tuition-management/internal/billing/postgres"
	"github.com/espp/tuition-management/internal/core/events"
	"github.com/espp/tuition-management/internal/core/numbering"
	"github.com/espp/tuition-management/internal/program"
	programPostgres "github.com/espp/tuition-management/internal/program/postgres"
	userPostgres "github.com/espp/tuition-management/internal/user/postgres"
	"github.com/espp/tuition-management/pkg/logger"
)

var sweepWatch bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark pending bills past their due date as overdue",
	Long: `Run the overdue sweep once and exit, or keep running on the configured
interval with --watch. The sweep is idempotent; overlapping runs are safe.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSweeper()
	},
}

func init() {
	sweepCmd.Flags().BoolVarP(&sweepWatch, "watch", "w", false, "keep sweeping on the configured interval")
}

func runSweeper() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Format, cfg.Logging.Level)
	lg := logger.LoggerWrapper()

	sqlxDB, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer sqlxDB.Close()

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize gorm: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewEventBus(lg)
	auditService := audit.NewService(auditPostgres.NewAuditRepository(gormDB), lg)
	auditService.SubscribeToEvents(bus)

	billingService := billing.NewService(
		billingPostgres.NewBillRepository(gormDB),
		userPostgres.NewUserRepository(gormDB),
		program.NewService(programPostgres.NewProgramRepository(gormDB), lg),
		numbering.NewGenerator(),
		bus,
		lg,
	)

	// Actor 0 marks a scheduled run rather than a staff member.
	sweepOnce := func() {
		count, err := billingService.SweepOverdue(0)
		if err != nil {
			lg.Error("sweep run failed", "error", err)
			return
		}
		lg.Info("sweep run finished", "swept", count)
	}

	sweepOnce()

	if !sweepWatch || !cfg.Sweeper.Enabled {
		return
	}

	interval := cfg.Sweeper.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	lg.Info("sweeper watching", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			sweepOnce()
		case sig := <-sigChan:
			lg.Info("sweeper stopping", "signal", sig)
			return
		}
	}
}
