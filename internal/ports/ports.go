package ports

import (
	"context"

	"CaseMonitor/internal/domain"
)

// CaseSource retrieves the raw transcript text for a case identifier.
type CaseSource interface {
	FetchCaseText(ctx context.Context, caseID string) (string, error)
}

// Judge asks the judgement oracle whether the trailing answer is
// contextually consistent with the preceding question.
type Judge interface {
	JudgeCase(ctx context.Context, caseID string, entries []domain.Entry) (domain.JudgementResult, error)
}

// Notifier delivers one escalation payload to a single webhook target.
type Notifier interface {
	Notify(ctx context.Context, webhookURL string, caseID string, result domain.JudgementResult) error
}

// CaseRepository persists processed cases for deduplication across restarts.
type CaseRepository interface {
	AlreadyProcessed(ctx context.Context, caseIDs []string) (map[string]bool, error)
	SaveProcessed(ctx context.Context, processed domain.ProcessedCase) error
}

// Watcher drives the per-case pipeline whenever a new case is observed.
type Watcher interface {
	Start(ctx context.Context, job func(ctx context.Context, caseID string)) error
	Stop(ctx context.Context) error
}
