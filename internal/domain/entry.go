package domain

// EntryType classifies a transcript record by its header keyword.
type EntryType string

const (
	TypeQuestion EntryType = "Question"
	TypeAnswer   EntryType = "Answer"
	TypeUnknown  EntryType = "Unknown"
)

// Entry is one classified record extracted from a case transcript.
// Data holds the fence-bounded body verbatim (order-preserved lines).
type Entry struct {
	Date string    `json:"date"`
	Type EntryType `json:"type"`
	Data string    `json:"data"`
}

// Verdict is the categorical outcome of a judgement call.
type Verdict string

const (
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
	VerdictUnknown  Verdict = "unknown"
	VerdictUnparsed Verdict = "unparsed"
)

// JudgementResult pairs the parsed verdict with the oracle's raw reply.
// Reason is empty when no explicit reason line was found.
type JudgementResult struct {
	Verdict Verdict
	Reason  string
	RawText string
}

// Outcome describes how a case run ended; logged by the watcher.
type Outcome string

const (
	OutcomeJudged             Outcome = "judged"
	OutcomePartial            Outcome = "partial"
	OutcomeSkippedNoEntries   Outcome = "skipped_no_entries"
	OutcomeSkippedNotAnswer   Outcome = "skipped_last_entry_not_answer"
	OutcomeSkippedNoAnswer    Outcome = "skipped_no_answer_entry"
	OutcomeNotificationFailed Outcome = "notification_failed"
)

// ProcessedCase is the audit snapshot persisted after a case run.
type ProcessedCase struct {
	CaseID  string
	Verdict Verdict
	Reason  string
	Outcome Outcome
}
