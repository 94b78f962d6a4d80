package llm

import (
	"testing"

	"CaseMonitor/internal/domain"
)

func TestParseVerdictPrimaryMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		verdict domain.Verdict
		reason  string
	}{
		{
			name:    "approved",
			raw:     "査閲結果：承認\n理由：同じ案件への自然な回答です。",
			verdict: domain.VerdictApproved,
			reason:  "同じ案件への自然な回答です。",
		},
		{
			name:    "rejected",
			raw:     "査閲結果：却下\n理由：別案件の話題に見えます。",
			verdict: domain.VerdictRejected,
			reason:  "別案件の話題に見えます。",
		},
		{
			name:    "unknown",
			raw:     "査閲結果：不明\n理由：情報が少なすぎます。",
			verdict: domain.VerdictUnknown,
			reason:  "情報が少なすぎます。",
		},
		{
			name:    "marker without reason",
			raw:     "前置きの文。査閲結果：承認",
			verdict: domain.VerdictApproved,
			reason:  "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseVerdict(tt.raw)
			if got.Verdict != tt.verdict {
				t.Fatalf("verdict: expected %s, got %s", tt.verdict, got.Verdict)
			}
			if got.Reason != tt.reason {
				t.Fatalf("reason: expected %q, got %q", tt.reason, got.Reason)
			}
			if got.RawText != tt.raw {
				t.Fatalf("raw text not retained")
			}
		})
	}
}

func TestParseVerdictJSONFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		verdict domain.Verdict
	}{
		{"reject", `{"decision": "reject"}`, domain.VerdictRejected},
		{"rejected", `{"decision": "Rejected"}`, domain.VerdictRejected},
		{"ng", `{"decision": "NG"}`, domain.VerdictRejected},
		{"fail", `{"decision": "fail"}`, domain.VerdictRejected},
		{"approve", `{"decision": "approve"}`, domain.VerdictApproved},
		{"other decision", `{"decision": "maybe"}`, domain.VerdictUnknown},
		{"numeric decision coerced", `{"decision": 123}`, domain.VerdictUnknown},
		{
			"brace span with surrounding prose",
			`判定の結果は以下の通りです。{"decision": "fail"} ご確認ください。`,
			domain.VerdictRejected,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseVerdict(tt.raw)
			if got.Verdict != tt.verdict {
				t.Fatalf("expected %s, got %s", tt.verdict, got.Verdict)
			}
		})
	}
}

func TestParseVerdictPrimaryWinsOverFallback(t *testing.T) {
	t.Parallel()

	raw := "査閲結果：承認\n理由：整合しています。\n{\"decision\": \"reject\"}"
	got := ParseVerdict(raw)
	if got.Verdict != domain.VerdictApproved {
		t.Fatalf("primary marker should take precedence, got %s", got.Verdict)
	}
}

func TestParseVerdictUnparsed(t *testing.T) {
	t.Parallel()

	raw := "完全に自由形式の返答で、マーカーもJSONもありません。"
	got := ParseVerdict(raw)
	if got.Verdict != domain.VerdictUnparsed {
		t.Fatalf("expected Unparsed, got %s", got.Verdict)
	}
	if got.Reason != raw {
		t.Fatalf("raw reply should become the reason, got %q", got.Reason)
	}
}

func TestParseVerdictMalformedJSONUnparsed(t *testing.T) {
	t.Parallel()

	got := ParseVerdict(`{"decision": unterminated`)
	if got.Verdict != domain.VerdictUnparsed {
		t.Fatalf("expected Unparsed for malformed JSON, got %s", got.Verdict)
	}
}
