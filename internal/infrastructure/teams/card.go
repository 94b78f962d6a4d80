package teams

import (
	"fmt"

	"CaseMonitor/internal/domain"
)

type block = map[string]any

// buildCardBody assembles the Adaptive Card body. Rejections get an
// attention-styled urgent container, approvals a confirmation, everything
// else a neutral card carrying the raw reply.
func buildCardBody(caseID, caseURL string, result domain.JudgementResult) []block {
	caseLink := block{
		"type":    "TextBlock",
		"text":    fmt.Sprintf("[Case #%s](%s)", caseID, caseURL),
		"wrap":    true,
		"spacing": "Small",
	}

	switch result.Verdict {
	case domain.VerdictRejected:
		return []block{
			{
				"type":  "Container",
				"style": "attention",
				"items": []block{
					{
						"type":   "TextBlock",
						"text":   "🚨 受付番号不一致の可能性",
						"size":   "Large",
						"weight": "Bolder",
						"color":  "Attention",
						"wrap":   true,
					},
					caseLink,
					{
						"type":    "TextBlock",
						"text":    "LLMが caseid mismatch を検知しました。異なる受付番号への回答が申告されています。至急確認してください。",
						"wrap":    true,
						"spacing": "Medium",
						"color":   "Attention",
					},
					{
						"type":    "TextBlock",
						"text":    fmt.Sprintf("理由：%s", reasonOrRaw(result)),
						"wrap":    true,
						"spacing": "Small",
					},
				},
				"bleed": true,
			},
		}

	case domain.VerdictApproved:
		items := []block{
			{
				"type":   "TextBlock",
				"text":   "✅ **チケット承認**",
				"size":   "Large",
				"weight": "Bolder",
				"color":  "Good",
				"wrap":   true,
			},
			caseLink,
		}
		if result.Reason != "" {
			items = append(items, block{
				"type": "TextBlock",
				"text": fmt.Sprintf("理由：%s", result.Reason),
				"wrap": true,
			})
		} else {
			items = append(items, block{"type": "TextBlock", "text": result.RawText, "wrap": true})
		}
		return []block{{"type": "Container", "items": items, "bleed": true}}

	default:
		return []block{
			{
				"type": "Container",
				"items": []block{
					{
						"type":   "TextBlock",
						"text":   fmt.Sprintf("❔ 判定%s", verdictLabel(result.Verdict)),
						"size":   "Large",
						"weight": "Bolder",
						"wrap":   true,
					},
					caseLink,
					{"type": "TextBlock", "text": result.RawText, "wrap": true},
				},
			},
		}
	}
}

func reasonOrRaw(result domain.JudgementResult) string {
	if result.Reason != "" {
		return result.Reason
	}
	return result.RawText
}

func verdictLabel(verdict domain.Verdict) string {
	switch verdict {
	case domain.VerdictApproved:
		return "承認"
	case domain.VerdictRejected:
		return "却下"
	default:
		return "不明"
	}
}
