package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"CaseMonitor/internal/config"
	"CaseMonitor/internal/domain"
)

const maxHeaderMissSamples = 5

// Patterns holds the compiled expressions driving segmentation and header
// classification. Compile once from config and share across cases.
type Patterns struct {
	separator        *regexp.Regexp
	header           *regexp.Regexp
	questionKeywords []string
	answerKeywords   []string
}

// NewPatterns compiles the fence and header expressions. The header
// expression requires the date token followed non-greedily by one of the
// configured type keywords, matched case-insensitively.
func NewPatterns(cfg config.ExtractConfig) (*Patterns, error) {
	separator, err := regexp.Compile(cfg.SeparatorPattern)
	if err != nil {
		return nil, fmt.Errorf("compile separator pattern: %w", err)
	}

	questions := cfg.QuestionKeywordList()
	answers := cfg.AnswerKeywordList()
	keywords := make([]string, 0, len(questions)+len(answers))
	for _, kw := range append(append([]string{}, questions...), answers...) {
		keywords = append(keywords, regexp.QuoteMeta(kw))
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no type keywords configured")
	}

	headerExpr := fmt.Sprintf(`(?i)(?P<date>%s).*?(?P<type>%s)`,
		cfg.HeaderDatePattern, strings.Join(keywords, "|"))
	header, err := regexp.Compile(headerExpr)
	if err != nil {
		return nil, fmt.Errorf("compile header pattern: %w", err)
	}

	return &Patterns{
		separator:        separator,
		header:           header,
		questionKeywords: questions,
		answerKeywords:   answers,
	}, nil
}

// ParseEntries splits raw transcript text into ordered, classified entries.
//
// A record is bounded by three fence lines: one opens it, the next closes
// the header section, and the third closes the body. Records whose header
// does not match the pattern are consumed and discarded; an unterminated
// record at end of input is discarded, not flushed.
func ParseEntries(text string, patterns *Patterns, logger *slog.Logger) []domain.Entry {
	lines := splitLines(text)
	entries := make([]domain.Entry, 0)

	var (
		separatorHits int
		headerHits    int
		headerMisses  []string
	)

	i := 0
	for i < len(lines) {
		if !patterns.isFence(lines[i]) {
			i++
			continue
		}

		separatorHits++
		i++
		for i < len(lines) && lines[i] == "" {
			i++
		}
		if i >= len(lines) {
			break
		}

		header := lines[i]
		headerNorm := strings.ReplaceAll(header, "　", " ")
		match := patterns.header.FindStringSubmatch(headerNorm)
		i++

		for i < len(lines) && !patterns.isFence(lines[i]) {
			i++
		}
		if i >= len(lines) {
			break
		}

		i++
		var contentLines []string
		for i < len(lines) && !patterns.isFence(lines[i]) {
			contentLines = append(contentLines, lines[i])
			i++
		}

		if match == nil {
			if len(headerMisses) < maxHeaderMissSamples {
				headerMisses = append(headerMisses, header)
			}
			continue
		}

		headerHits++
		entries = append(entries, domain.Entry{
			Date: match[patterns.header.SubexpIndex("date")],
			Type: patterns.classify(match[patterns.header.SubexpIndex("type")]),
			Data: strings.TrimSpace(strings.Join(contentLines, "\n")),
		})
	}

	if logger != nil {
		logger.Debug("parse entries",
			"lines", len(lines),
			"separator_hits", separatorHits,
			"header_hits", headerHits,
			"entries", len(entries))
		if len(headerMisses) > 0 {
			logger.Debug("discarded records with unmatched headers", "samples", headerMisses)
		}
	}

	return entries
}

// isFence reports whether a line is a record fence. The separator pattern is
// anchored at the line start; a fence token appearing mid-line never opens or
// closes a record.
func (p *Patterns) isFence(line string) bool {
	loc := p.separator.FindStringIndex(line)
	return loc != nil && loc[0] == 0
}

func (p *Patterns) classify(keyword string) domain.EntryType {
	for _, kw := range p.questionKeywords {
		if strings.EqualFold(keyword, kw) {
			return domain.TypeQuestion
		}
	}
	for _, kw := range p.answerKeywords {
		if strings.EqualFold(keyword, kw) {
			return domain.TypeAnswer
		}
	}
	return domain.TypeUnknown
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}
