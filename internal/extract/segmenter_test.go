package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"CaseMonitor/internal/config"
	"CaseMonitor/internal/domain"
)

func testPatterns(t *testing.T, cfg config.ExtractConfig) *Patterns {
	t.Helper()
	if cfg.SeparatorPattern == "" {
		cfg.SeparatorPattern = `^(ー+|-+)$`
	}
	if cfg.QuestionKeywords == "" {
		cfg.QuestionKeywords = "QUESTION"
	}
	if cfg.AnswerKeywords == "" {
		cfg.AnswerKeywords = "ANSWER"
	}
	if cfg.HeaderDatePattern == "" {
		cfg.HeaderDatePattern = `\d{4}/\d{2}/\d{2}\s+\d{2}:\d{2}`
	}
	patterns, err := NewPatterns(cfg)
	if err != nil {
		t.Fatalf("NewPatterns returned error: %v", err)
	}
	return patterns
}

func TestParseEntriesSingleRecord(t *testing.T) {
	t.Parallel()

	text := "ー\n2024/01/01 09:00 QUESTION\n------\nHello\nー"
	entries := ParseEntries(text, testPatterns(t, config.ExtractConfig{}), nil)

	want := []domain.Entry{
		{Date: "2024/01/01 09:00", Type: domain.TypeQuestion, Data: "Hello"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}
}

func TestParseEntriesNoFences(t *testing.T) {
	t.Parallel()

	text := "just some text\nwith no fence lines\nat all"
	entries := ParseEntries(text, testPatterns(t, config.ExtractConfig{}), nil)
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}
}

func TestParseEntriesMalformedHeaderDiscarded(t *testing.T) {
	t.Parallel()

	text := "ー\nno date here at all\n------\nlost body\nー\n" +
		"2024/02/02 10:30 ANSWER\n------\nkept body\nー"
	entries := ParseEntries(text, testPatterns(t, config.ExtractConfig{}), nil)

	want := []domain.Entry{
		{Date: "2024/02/02 10:30", Type: domain.TypeAnswer, Data: "kept body"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}
}

func TestParseEntriesUnterminatedRecordDiscarded(t *testing.T) {
	t.Parallel()

	text := "ー\n2024/03/03 11:00 QUESTION\n------\nbody without closing fence"
	entries := ParseEntries(text, testPatterns(t, config.ExtractConfig{}), nil)
	if len(entries) != 0 {
		t.Fatalf("expected unterminated record to be discarded, got %d entries", len(entries))
	}
}

func TestParseEntriesMultiLineBodyPreservesOrder(t *testing.T) {
	t.Parallel()

	text := "ー\n2024/01/01 09:00 QUESTION\nー\nfirst line\nsecond line\nthird line\nー"
	entries := ParseEntries(text, testPatterns(t, config.ExtractConfig{}), nil)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Data != "first line\nsecond line\nthird line" {
		t.Fatalf("unexpected body: %q", entries[0].Data)
	}
}

func TestParseEntriesFullWidthSpaceNormalized(t *testing.T) {
	t.Parallel()

	text := "ー\n2024/04/04　12:00　ANSWER\nー\nbody\nー"
	entries := ParseEntries(text, testPatterns(t, config.ExtractConfig{}), nil)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Type != domain.TypeAnswer {
		t.Fatalf("expected Answer, got %s", entries[0].Type)
	}
	if entries[0].Date != "2024/04/04 12:00" {
		t.Fatalf("unexpected date token: %q", entries[0].Date)
	}
}

func TestParseEntriesKeywordCaseInsensitive(t *testing.T) {
	t.Parallel()

	text := "ー\n2024/05/05 08:15 question\nー\nlowercase keyword\nー"
	entries := ParseEntries(text, testPatterns(t, config.ExtractConfig{}), nil)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Type != domain.TypeQuestion {
		t.Fatalf("expected Question, got %s", entries[0].Type)
	}
}

func TestParseEntriesMultipleKeywords(t *testing.T) {
	t.Parallel()

	patterns := testPatterns(t, config.ExtractConfig{
		QuestionKeywords: "QUESTION, 質問",
		AnswerKeywords:   "ANSWER, 回答",
	})

	text := "ー\n2024/06/06 09:00 質問\nー\nquestion body\nー\n" +
		"2024/06/06 10:00 回答\nー\nanswer body\nー"
	entries := ParseEntries(text, patterns, nil)

	want := []domain.Entry{
		{Date: "2024/06/06 09:00", Type: domain.TypeQuestion, Data: "question body"},
		{Date: "2024/06/06 10:00", Type: domain.TypeAnswer, Data: "answer body"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}
}

func TestParseEntriesBlankLinesBeforeHeader(t *testing.T) {
	t.Parallel()

	text := "ー\n\n\n2024/07/07 14:00 ANSWER\nー\nbody\nー"
	entries := ParseEntries(text, testPatterns(t, config.ExtractConfig{}), nil)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Type != domain.TypeAnswer {
		t.Fatalf("expected Answer, got %s", entries[0].Type)
	}
}

func TestParseEntriesFenceAnchoredAtLineStart(t *testing.T) {
	t.Parallel()

	// Unanchored separator pattern: a fence token mid-line must not split
	// the record.
	patterns := testPatterns(t, config.ExtractConfig{SeparatorPattern: `ー+`})

	text := "prose mentioning ー mid-line\nー\n2024/01/01 09:00 QUESTION\nー\nbody with ー inside\nー"
	entries := ParseEntries(text, patterns, nil)

	want := []domain.Entry{
		{Date: "2024/01/01 09:00", Type: domain.TypeQuestion, Data: "body with ー inside"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}
}

func TestNewPatternsRejectsBadSeparator(t *testing.T) {
	t.Parallel()

	_, err := NewPatterns(config.ExtractConfig{
		SeparatorPattern:  `^(ー+$`,
		QuestionKeywords:  "QUESTION",
		AnswerKeywords:    "ANSWER",
		HeaderDatePattern: `\d{4}`,
	})
	if err == nil {
		t.Fatal("expected error for invalid separator pattern")
	}
}
