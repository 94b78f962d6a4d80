package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"CaseMonitor/internal/config"
	"CaseMonitor/internal/extract"
	"CaseMonitor/internal/infrastructure/fetch"
	"CaseMonitor/internal/infrastructure/llm"
	"CaseMonitor/internal/infrastructure/storage"
	"CaseMonitor/internal/infrastructure/teams"
	"CaseMonitor/internal/infrastructure/watch"
	"CaseMonitor/internal/ports"
	"CaseMonitor/internal/usecase"
)

// Application wires configuration to the monitor use case and owns the
// process lifecycle.
type Application struct {
	cfg     config.Config
	monitor *usecase.Monitor
	db      *sql.DB
	logger  *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, logger *slog.Logger) (*Application, error) {
	patterns, err := extract.NewPatterns(cfg.Extract)
	if err != nil {
		return nil, fmt.Errorf("build extract patterns: %w", err)
	}

	judge, err := llm.NewJudge(cfg.LLM, logger.With("component", "judge"))
	if err != nil {
		return nil, fmt.Errorf("build judge: %w", err)
	}

	watcher, err := watch.NewDirectoryWatcher(cfg.Monitor, logger.With("component", "watcher"))
	if err != nil {
		return nil, fmt.Errorf("build watcher: %w", err)
	}

	var (
		db         *sql.DB
		repository ports.CaseRepository
	)
	if cfg.Database.DSN != "" {
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repository = storage.NewPostgresRepository(db)
	}

	source := fetch.NewBrowserFetcher(cfg.Fetch, cfg.Notifications.CaseBaseURL,
		logger.With("component", "fetch"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:   source,
		Judge:    judge,
		Notifier: teams.NewNotifier(cfg.Notifications.CaseBaseURL),
		Patterns: patterns,
		Logger:   logger.With("component", "pipeline"),
	}, cfg)

	monitor := usecase.NewMonitor(watcher, pipeline, repository, logger.With("component", "monitor"))

	return &Application{cfg: cfg, monitor: monitor, db: db, logger: logger}, nil
}

// Run starts the watch loop and blocks until a stop signal arrives. The
// first SIGINT/SIGTERM requests a graceful stop after the in-flight case; a
// second one terminates immediately.
func (a *Application) Run(ctx context.Context) error {
	if a.db != nil {
		defer a.db.Close()
	}

	if err := a.monitor.Start(ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		a.logger.Info("stop signal received, finishing current case", "signal", sig.String())
		go func() {
			forced := <-signals
			a.logger.Error("forced stop signal received, exiting now", "signal", forced.String())
			os.Exit(1)
		}()
	case <-ctx.Done():
	}

	return a.monitor.Stop(context.Background())
}
