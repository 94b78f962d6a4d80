// Package watch polls a trigger directory for new case files and drives the
// per-case pipeline. Stop requests are honored between cases only; an
// in-flight case always runs to completion.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"CaseMonitor/internal/config"
	"CaseMonitor/internal/ports"
)

const (
	stableSizeRetries  = 5
	stableSizeInterval = time.Second
)

// DirectoryWatcher scans a directory for <case-id>.txt trigger files.
type DirectoryWatcher struct {
	cfg       config.MonitorConfig
	caseIDRe  *regexp.Regexp
	processed map[string]struct{}
	stop      chan struct{}
	done      chan struct{}
	logger    *slog.Logger
}

var _ ports.Watcher = (*DirectoryWatcher)(nil)

// NewDirectoryWatcher compiles the case-id filename pattern from config.
func NewDirectoryWatcher(cfg config.MonitorConfig, logger *slog.Logger) (*DirectoryWatcher, error) {
	expr, err := regexp.Compile(fmt.Sprintf(`^(\d{%d})\.txt$`, cfg.CaseIDDigits))
	if err != nil {
		return nil, fmt.Errorf("compile case id pattern: %w", err)
	}
	return &DirectoryWatcher{
		cfg:       cfg,
		caseIDRe:  expr,
		processed: map[string]struct{}{},
		logger:    logger,
	}, nil
}

// Start launches the polling loop. Files already present at startup are
// skipped unless processExisting is set.
func (w *DirectoryWatcher) Start(ctx context.Context, job func(ctx context.Context, caseID string)) error {
	if job == nil {
		return nil
	}
	if w.stop != nil {
		return nil
	}

	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create monitor dir: %w", err)
	}

	if !w.cfg.ProcessExisting {
		seeded := w.seedExisting()
		w.logger.Debug("excluded pre-existing trigger files", "count", seeded)
	}

	w.stop = make(chan struct{})
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.cfg.PollInterval)
		defer ticker.Stop()
		for {
			w.scanOnce(ctx, job)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			}
		}
	}()

	return nil
}

// Stop requests a halt and waits for the current scan to finish.
func (w *DirectoryWatcher) Stop(ctx context.Context) error {
	if w.stop == nil {
		return nil
	}
	close(w.stop)
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.stop = nil
	return nil
}

func (w *DirectoryWatcher) seedExisting() int {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if w.caseIDRe.MatchString(entry.Name()) {
			w.processed[entry.Name()] = struct{}{}
			count++
		}
	}
	return count
}

func (w *DirectoryWatcher) scanOnce(ctx context.Context, job func(ctx context.Context, caseID string)) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.logger.Error("scan monitor dir", "error", err)
		return
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if w.stopRequested(ctx) {
			return
		}
		match := w.caseIDRe.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		if _, seen := w.processed[name]; seen {
			continue
		}

		path := filepath.Join(w.cfg.Dir, name)
		if !w.waitForStableSize(ctx, path) {
			continue
		}

		job(ctx, match[1])
		w.processed[name] = struct{}{}

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			w.logger.Debug("remove trigger file", "path", path, "error", err)
		}
	}
}

// waitForStableSize avoids reading a trigger file that is still being
// written; two consecutive identical sizes count as stable.
func (w *DirectoryWatcher) waitForStableSize(ctx context.Context, path string) bool {
	lastSize := int64(-1)
	for i := 0; i < stableSizeRetries; i++ {
		if w.stopRequested(ctx) {
			return false
		}
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == lastSize {
			return true
		}
		lastSize = info.Size()
		select {
		case <-time.After(stableSizeInterval):
		case <-ctx.Done():
			return false
		case <-w.stop:
			return false
		}
	}
	w.logger.Debug("trigger file size did not settle", "path", path)
	return true
}

func (w *DirectoryWatcher) stopRequested(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-w.stop:
		return true
	default:
		return false
	}
}
