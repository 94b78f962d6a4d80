package teams

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"CaseMonitor/internal/domain"
)

type capturedCard struct {
	Type        string `json:"type"`
	Summary     string `json:"summary"`
	Attachments []struct {
		Content struct {
			Body []map[string]any `json:"body"`
		} `json:"content"`
	} `json:"attachments"`
}

func postCard(t *testing.T, result domain.JudgementResult) capturedCard {
	t.Helper()

	var card capturedCard
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
			t.Errorf("decode card: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewNotifier("http://cases.example.org/")
	if err := notifier.Notify(context.Background(), server.URL, "12345678", result); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	return card
}

func TestNotifyRejectedBuildsUrgentCard(t *testing.T) {
	t.Parallel()

	card := postCard(t, domain.JudgementResult{
		Verdict: domain.VerdictRejected,
		Reason:  "別案件の回答です。",
		RawText: "査閲結果：却下",
	})

	if !strings.Contains(card.Summary, "caseid mismatch") {
		t.Fatalf("rejected summary should flag a mismatch: %q", card.Summary)
	}

	body := card.Attachments[0].Content.Body
	if len(body) != 1 {
		t.Fatalf("expected one container, got %d", len(body))
	}
	if body[0]["style"] != "attention" {
		t.Fatalf("rejection container should be attention-styled, got %v", body[0]["style"])
	}

	raw, _ := json.Marshal(body)
	if !strings.Contains(string(raw), "別案件の回答です。") {
		t.Fatal("reason missing from card body")
	}
	if !strings.Contains(string(raw), "http://cases.example.org/12345678") {
		t.Fatal("case link missing from card body")
	}
}

func TestNotifyApprovedBuildsConfirmationCard(t *testing.T) {
	t.Parallel()

	card := postCard(t, domain.JudgementResult{
		Verdict: domain.VerdictApproved,
		Reason:  "整合しています。",
		RawText: "査閲結果：承認",
	})

	raw, _ := json.Marshal(card.Attachments[0].Content.Body)
	if !strings.Contains(string(raw), "チケット承認") {
		t.Fatal("approval headline missing")
	}
	if !strings.Contains(string(raw), "整合しています。") {
		t.Fatal("reason missing from approval card")
	}
}

func TestNotifyUnparsedBuildsNeutralCardWithRawText(t *testing.T) {
	t.Parallel()

	card := postCard(t, domain.JudgementResult{
		Verdict: domain.VerdictUnparsed,
		Reason:  "自由形式の返答",
		RawText: "自由形式の返答",
	})

	raw, _ := json.Marshal(card.Attachments[0].Content.Body)
	if strings.Contains(string(raw), "attention") {
		t.Fatal("neutral card should not be attention-styled")
	}
	if !strings.Contains(string(raw), "自由形式の返答") {
		t.Fatal("raw reply missing from neutral card")
	}
}

func TestNotifyServerErrorReported(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusBadRequest)
	}))
	defer server.Close()

	notifier := NewNotifier("http://cases.example.org/")
	err := notifier.Notify(context.Background(), server.URL, "12345678", domain.JudgementResult{
		Verdict: domain.VerdictApproved,
	})
	if err == nil {
		t.Fatal("expected error on non-success webhook response")
	}
}

func TestBuildCaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base string
		want string
	}{
		{"http://cases.example.org/", "http://cases.example.org/12345678"},
		{"http://cases.example.org", "http://cases.example.org/12345678"},
		{"http://cases.example.org/view?id=", "http://cases.example.org/view?id=12345678"},
		{"http://cases.example.org/view?case=1&id=", "http://cases.example.org/view?case=1&id=12345678"},
	}
	for _, tt := range tests {
		if got := buildCaseURL(tt.base, "12345678"); got != tt.want {
			t.Fatalf("buildCaseURL(%q): expected %q, got %q", tt.base, tt.want, got)
		}
	}
}
