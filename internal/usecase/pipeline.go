package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"CaseMonitor/internal/clean"
	"CaseMonitor/internal/config"
	"CaseMonitor/internal/domain"
	"CaseMonitor/internal/extract"
	"CaseMonitor/internal/ports"
)

// PipelineDeps wires all driven adapters into the per-case pipeline.
type PipelineDeps struct {
	Source   ports.CaseSource
	Judge    ports.Judge
	Notifier ports.Notifier
	Patterns *extract.Patterns
	Logger   *slog.Logger
}

// Pipeline implements the end-to-end case workflow: fetch, segment, clean,
// trim, gate, judge, route, notify. One invocation owns one case transcript.
type Pipeline struct {
	source   ports.CaseSource
	judge    ports.Judge
	notifier ports.Notifier
	patterns *extract.Patterns
	logger   *slog.Logger

	cleanOpts     clean.Options
	maxChars      int
	allowPartial  bool
	notifyEnabled bool
	webhooks      webhookTargets
}

type webhookTargets struct {
	defaultURL string
	reject     string
}

// NewPipeline constructs the orchestration component from configuration.
func NewPipeline(deps PipelineDeps, cfg config.Config) *Pipeline {
	return &Pipeline{
		source:   deps.Source,
		judge:    deps.Judge,
		notifier: deps.Notifier,
		patterns: deps.Patterns,
		logger:   deps.Logger,
		cleanOpts: clean.Options{
			LogFilterEnabled: cfg.Clean.LogFilterEnabled,
			MaxLineLength:    cfg.Clean.MaxLineLength,
		},
		maxChars:      cfg.Clean.MaxChars,
		allowPartial:  cfg.LLM.AllowPartial,
		notifyEnabled: cfg.Notifications.Enabled,
		webhooks: webhookTargets{
			defaultURL: cfg.Notifications.DefaultWebhook,
			reject:     cfg.Notifications.RejectWebhook,
		},
	}
}

// ProcessCase runs one case end to end. Skip outcomes are not errors; any
// returned error is fatal for this case only and is handled by the caller.
func (p *Pipeline) ProcessCase(ctx context.Context, caseID string) (domain.ProcessedCase, error) {
	processed := domain.ProcessedCase{CaseID: caseID}

	text, err := p.source.FetchCaseText(ctx, caseID)
	if err != nil {
		return processed, fmt.Errorf("fetch case text: %w", err)
	}
	p.logger.Debug("fetched case text", "case_id", caseID, "chars", len(text))

	entries := extract.ParseEntries(text, p.patterns, p.logger)
	entries = clean.CleanEntries(entries, p.cleanOpts, p.logger)
	entries = clean.TrimToBudget(entries, p.maxChars)
	p.logger.Debug("extracted entries", "case_id", caseID, "count", len(entries))

	entries, outcome := gateCompleteness(entries, p.allowPartial)
	processed.Outcome = outcome
	switch outcome {
	case domain.OutcomeSkippedNoEntries,
		domain.OutcomeSkippedNotAnswer,
		domain.OutcomeSkippedNoAnswer:
		p.logger.Info("case skipped", "case_id", caseID, "reason", outcome)
		return processed, nil
	case domain.OutcomePartial:
		p.logger.Info("truncated to last answer", "case_id", caseID, "entries", len(entries))
	}

	result, err := p.judge.JudgeCase(ctx, caseID, entries)
	if err != nil {
		return processed, fmt.Errorf("judge case: %w", err)
	}
	processed.Verdict = result.Verdict
	processed.Reason = result.Reason

	if !p.dispatch(ctx, caseID, result) {
		processed.Outcome = domain.OutcomeNotificationFailed
	}

	p.logger.Info("case judged", "case_id", caseID, "verdict", result.Verdict)
	return processed, nil
}

// gateCompleteness applies the pre-oracle transcript gate. A transcript must
// end in an Answer; with partial mode on it is truncated to the nearest
// trailing Answer instead of being skipped. Unknown entries stay in the
// payload but never satisfy the gate.
func gateCompleteness(entries []domain.Entry, allowPartial bool) ([]domain.Entry, domain.Outcome) {
	if len(entries) == 0 {
		return entries, domain.OutcomeSkippedNoEntries
	}
	if entries[len(entries)-1].Type == domain.TypeAnswer {
		return entries, domain.OutcomeJudged
	}
	if !allowPartial {
		return entries, domain.OutcomeSkippedNotAnswer
	}

	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Type == domain.TypeAnswer {
			return entries[:i+1], domain.OutcomePartial
		}
	}
	return entries, domain.OutcomeSkippedNoAnswer
}

// dispatch routes the verdict to its notification targets and reports
// whether every attempted delivery succeeded. The default webhook is always
// targeted; the reject webhook is added for rejection-equivalent verdicts.
// Each delivery is independent: a failure on one target is logged and does
// not block the other.
func (p *Pipeline) dispatch(ctx context.Context, caseID string, result domain.JudgementResult) bool {
	if !p.notifyEnabled || p.notifier == nil {
		return true
	}

	targets := []string{p.webhooks.defaultURL}
	if result.Verdict == domain.VerdictRejected {
		targets = append(targets, p.webhooks.reject)
	}

	delivered := true
	for _, target := range targets {
		if target == "" {
			continue
		}
		if err := p.notifier.Notify(ctx, target, caseID, result); err != nil {
			p.logger.Error("notification delivery failed",
				"case_id", caseID, "webhook", target, "error", err)
			delivered = false
		}
	}
	return delivered
}
