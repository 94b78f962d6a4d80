// Package teams delivers escalation payloads as Adaptive Cards to Microsoft
// Teams incoming webhooks.
package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"CaseMonitor/internal/domain"
	"CaseMonitor/internal/ports"
)

// Notifier posts one Adaptive Card per webhook target.
type Notifier struct {
	caseBaseURL string
	client      *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the case-link base URL used inside cards.
func NewNotifier(caseBaseURL string) *Notifier {
	return &Notifier{
		caseBaseURL: caseBaseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts the card for one case to a single webhook. Callers dispatch
// to each target independently; a failure here must not block the others.
func (n *Notifier) Notify(ctx context.Context, webhookURL string, caseID string, result domain.JudgementResult) error {
	if webhookURL == "" {
		return fmt.Errorf("teams webhook url is empty")
	}

	card := map[string]any{
		"type":    "message",
		"summary": cardSummary(caseID, result),
		"attachments": []map[string]any{
			{
				"contentType": "application/vnd.microsoft.card.adaptive",
				"content": map[string]any{
					"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
					"type":    "AdaptiveCard",
					"version": "1.4",
					"body":    buildCardBody(caseID, buildCaseURL(n.caseBaseURL, caseID), result),
				},
			},
		},
	}

	body, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("teams error: %s", resp.Status)
	}

	return nil
}

func cardSummary(caseID string, result domain.JudgementResult) string {
	if result.Verdict == domain.VerdictRejected {
		return fmt.Sprintf("Case ID %s caseid mismatch", caseID)
	}
	return strings.TrimSpace(fmt.Sprintf("Case ID %s %s", caseID, verdictLabel(result.Verdict)))
}

// buildCaseURL appends the case id to the base URL, treating query-style
// bases (ending in "=" or containing "?") as prefixes.
func buildCaseURL(base, caseID string) string {
	if strings.Contains(base, "?") || strings.HasSuffix(base, "=") {
		return base + caseID
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + caseID
}
