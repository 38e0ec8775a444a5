package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alexanderramin/pointer/internal/calendar"
	"github.com/alexanderramin/pointer/internal/db"
	"github.com/alexanderramin/pointer/internal/llm"
	"github.com/alexanderramin/pointer/internal/server"
	"github.com/alexanderramin/pointer/internal/store"
	"github.com/alexanderramin/pointer/internal/tools"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pointer",
		Short: "Personal productivity server with local AI tools",
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		port         int
		dbPath       string
		syncSchedule string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			return runServe(logger, port, dbPath, syncSchedule)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (default $POINTER_DB or ~/.pointer/pointer.db)")
	cmd.Flags().StringVar(&syncSchedule, "sync-schedule", "@every 5m", "cron schedule for calendar auto-sync")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func resolveDBPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("POINTER_DB"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".pointer", "pointer.db"), nil
}

func runServe(logger *zap.Logger, port int, dbFlag, syncSchedule string) error {
	dbPath, err := resolveDBPath(dbFlag)
	if err != nil {
		return err
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	cfg := llm.LoadConfig()
	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LogCalls {
		observer = llm.NewLogObserver(os.Stderr)
	}
	client := llm.NewOllamaClient(cfg, observer)

	st := store.New(database)
	profile := func(ctx context.Context) llm.Profile {
		mode, err := st.SpeedMode(ctx)
		if err != nil {
			logger.Warn("loading speed mode failed", zap.Error(err))
		}
		return cfg.Profile(mode)
	}
	toolSvc := tools.NewService(client, profile)

	googleCfg := calendar.LoadGoogleConfig()
	google := calendar.NewGoogleClient(googleCfg)
	reconciler := calendar.NewReconciler(google, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(syncSchedule, func() {
		autoSync(ctx, st, reconciler, logger)
	}); err != nil {
		return fmt.Errorf("registering sync schedule %q: %w", syncSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(client, toolSvc, st, google, googleCfg, reconciler, logger, port)
	return srv.Run(ctx)
}

// autoSync runs one background reconciliation pass when the calendar is
// connected and tokens are on file.
func autoSync(ctx context.Context, st *store.Store, reconciler *calendar.Reconciler, logger *zap.Logger) {
	enabled, err := st.SyncEnabled(ctx)
	if err != nil {
		logger.Warn("reading sync flag failed", zap.Error(err))
		return
	}
	if !enabled {
		return
	}

	tokens, err := st.Tokens(ctx)
	if err != nil {
		logger.Warn("loading tokens failed", zap.Error(err))
		return
	}
	if tokens == nil {
		return
	}

	switch _, err := reconciler.Sync(ctx, *tokens); {
	case err == nil:
	case errors.Is(err, calendar.ErrSyncInFlight):
		logger.Debug("skipping auto-sync, one already running")
	case errors.Is(err, calendar.ErrAuthRequired):
		logger.Warn("auto-sync needs reauthorization")
	default:
		logger.Warn("auto-sync failed", zap.Error(err))
	}
}
