package usecase

import (
	"context"
	"log/slog"

	"CaseMonitor/internal/ports"
)

// Monitor binds the directory watcher to the per-case pipeline and owns the
// already-processed marker set via the optional repository.
type Monitor struct {
	watcher    ports.Watcher
	pipeline   *Pipeline
	repository ports.CaseRepository
	logger     *slog.Logger
}

// NewMonitor returns a helper to start/stop the watch loop.
func NewMonitor(watcher ports.Watcher, pipeline *Pipeline, repository ports.CaseRepository, logger *slog.Logger) *Monitor {
	return &Monitor{watcher: watcher, pipeline: pipeline, repository: repository, logger: logger}
}

// Start registers the case handler with the watcher.
func (m *Monitor) Start(ctx context.Context) error {
	if m.watcher == nil || m.pipeline == nil {
		return nil
	}
	return m.watcher.Start(ctx, m.handleCase)
}

// Stop gracefully tears down the underlying watcher.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Stop(ctx)
}

// handleCase is the single-case failure boundary: every error is logged
// with the case identifier and the watcher proceeds to the next case.
func (m *Monitor) handleCase(ctx context.Context, caseID string) {
	if m.repository != nil {
		seen, err := m.repository.AlreadyProcessed(ctx, []string{caseID})
		if err != nil {
			m.logger.Error("load processed cases", "case_id", caseID, "error", err)
		} else if seen[caseID] {
			m.logger.Debug("case already processed", "case_id", caseID)
			return
		}
	}

	processed, err := m.pipeline.ProcessCase(ctx, caseID)
	if err != nil {
		m.logger.Error("case processing failed", "case_id", caseID, "error", err)
		return
	}

	if m.repository != nil {
		if err := m.repository.SaveProcessed(ctx, processed); err != nil {
			m.logger.Error("persist processed case", "case_id", caseID, "error", err)
		}
	}
}
