// Package clean removes noise from entry bodies and enforces the global
// character budget before entries are handed to the judgement oracle.
package clean

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"CaseMonitor/internal/domain"
)

var (
	// Lines that are entirely a bracket-style meta marker, e.g. 【Status】
	// or [attachment].
	metaLineExpr = regexp.MustCompile(`^(【.*】|\[.*\])$`)

	// Lines that start like log output: a date, a time, or a severity token.
	logLineExpr = regexp.MustCompile(
		`^\s*(\d{4}-\d{2}-\d{2}|\d{2}:\d{2}:\d{2}|INFO|ERROR|DEBUG|TRACE|WARN|WARNING)\b`)

	// Lines that are entirely a bracket/brace-delimited structured payload.
	jsonLineExpr = regexp.MustCompile(`^\s*[{\[].*[}\]]\s*$`)
)

// Options controls the optional log-filter pass.
type Options struct {
	LogFilterEnabled bool
	MaxLineLength    int
}

// StripMeta drops blank lines and whole-line meta markers from text. When
// the pass would empty a non-empty input, the input is returned unchanged.
func StripMeta(text string) string {
	if cleaned, ok := attemptStripMeta(text); ok {
		return cleaned
	}
	return text
}

func attemptStripMeta(text string) (string, bool) {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if metaLineExpr.MatchString(stripped) {
			continue
		}
		kept = append(kept, line)
	}

	cleaned := strings.TrimSpace(strings.Join(kept, "\n"))
	if cleaned == "" && text != "" {
		return "", false
	}
	return cleaned, true
}

// StripLogs drops log-shaped, structured-payload, and overlong lines. The
// same fallback invariant as StripMeta applies independently to this pass.
func StripLogs(text string, maxLineLength int) string {
	if cleaned, ok := attemptStripLogs(text, maxLineLength); ok {
		return cleaned
	}
	return text
}

func attemptStripLogs(text string, maxLineLength int) (string, bool) {
	if text == "" {
		return "", true
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if logLineExpr.MatchString(stripped) {
			continue
		}
		if jsonLineExpr.MatchString(stripped) {
			continue
		}
		if utf8.RuneCountInString(stripped) > maxLineLength {
			continue
		}
		kept = append(kept, line)
	}

	cleaned := strings.TrimSpace(strings.Join(kept, "\n"))
	if cleaned == "" {
		return "", false
	}
	return cleaned, true
}

// CleanEntries applies both passes to every entry body and drops entries
// that end up empty. Entry order is preserved.
func CleanEntries(entries []domain.Entry, opts Options, logger *slog.Logger) []domain.Entry {
	cleaned := make([]domain.Entry, 0, len(entries))
	for _, entry := range entries {
		body := StripMeta(entry.Data)
		if opts.LogFilterEnabled {
			body = StripLogs(body, opts.MaxLineLength)
		}
		if body == "" {
			if logger != nil {
				logger.Debug("dropping empty entry", "type", entry.Type)
			}
			continue
		}
		entry.Data = body
		cleaned = append(cleaned, entry)
	}
	return cleaned
}
