package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"CaseMonitor/internal/domain"
)

var (
	resultExpr = regexp.MustCompile(`査閲結果：\s*(承認|却下|不明)`)
	reasonExpr = regexp.MustCompile(`理由：\s*(.+)`)
)

// rejectDecisions are the fallback-path decision values treated as a
// rejection, matched case-insensitively.
var rejectDecisions = map[string]struct{}{
	"却下": {}, "reject": {}, "rejected": {}, "ng": {}, "fail": {},
}

var approveDecisions = map[string]struct{}{
	"承認": {}, "approve": {}, "approved": {}, "ok": {}, "pass": {},
}

// ParseVerdict extracts a verdict from the oracle's free-text reply.
//
// The localized marker lines are tried first; the JSON fallback is consulted
// only when no marker line is present. When both fail the verdict degrades
// to Unparsed with the raw reply as the reason.
func ParseVerdict(raw string) domain.JudgementResult {
	result := domain.JudgementResult{RawText: raw}

	if match := resultExpr.FindStringSubmatch(raw); match != nil {
		switch match[1] {
		case "承認":
			result.Verdict = domain.VerdictApproved
		case "却下":
			result.Verdict = domain.VerdictRejected
		default:
			result.Verdict = domain.VerdictUnknown
		}
		if reason := reasonExpr.FindStringSubmatch(raw); reason != nil {
			result.Reason = strings.TrimSpace(reason[1])
		}
		return result
	}

	if decision, ok := decodeDecision(raw); ok {
		normalized := strings.ToLower(strings.TrimSpace(decision))
		if _, rejected := rejectDecisions[normalized]; rejected {
			result.Verdict = domain.VerdictRejected
		} else if _, approved := approveDecisions[normalized]; approved {
			result.Verdict = domain.VerdictApproved
		} else {
			result.Verdict = domain.VerdictUnknown
		}
		result.Reason = decision
		return result
	}

	result.Verdict = domain.VerdictUnparsed
	result.Reason = raw
	return result
}

// decodeDecision parses the reply as a JSON object, first directly, then
// from the first-to-last brace span, and reads its decision field.
func decodeDecision(raw string) (string, bool) {
	if decision, ok := decisionField(raw); ok {
		return decision, true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return decisionField(raw[start : end+1])
}

func decisionField(text string) (string, bool) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return "", false
	}
	value, ok := payload["decision"]
	if !ok || value == nil {
		return "", false
	}
	// Non-string scalars are coerced; a numeric decision still yields a
	// verdict instead of degrading to Unparsed.
	decision, ok := value.(string)
	if !ok {
		decision = fmt.Sprint(value)
	}
	if decision == "" {
		return "", false
	}
	return decision, true
}
