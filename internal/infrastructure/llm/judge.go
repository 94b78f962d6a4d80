package llm

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"CaseMonitor/internal/config"
	"CaseMonitor/internal/domain"
	"CaseMonitor/internal/ports"
)

const entriesPlaceholder = "{entries}"

const defaultPrompt = `あなたはサポートチケットの内容整合性を確認するAIです。

入力として、ある案件（チケット）に関する履歴が時系列順に与えられます。
各履歴は以下の構造を持ちます：
- type: question (質問) または answer (回答)
- created_on: 作成日時
- text: 質問または回答の本文とコメント（ログやノイズは削除済み）

あなたの任務は、「最後の回答（type=answer）」が
本当にこの案件の直近の質問（type=question）に対する
文脈的に正しい回答であるかどうかを判定することです。

### 判定のポイント：
- 内容の正確性・品質は評価しない（例：回答が正しいかどうかは無関係）。
- あくまで **話の流れ・文脈の整合性** のみを判断する。
- 「別案件の話題」「全く異なるテーマ」「明らかに関係ない文脈」なら取り違えの可能性あり。
- 受付番号などのIDや案件名の判定はすでに前処理済み。ここでは回答の内容のみ、同案件の内容であるかのみ判断する。

### 出力フォーマット：
必ず以下の形式で出力してください：

査閲結果：<承認|却下|不明>
理由：<客観的な理由>

#### 定義：
- **承認**：最後の回答が、同じ案件に関する質問に自然に対応している。
- **却下**：最後の回答が、異なる案件・別テーマ・文脈の異なる質問に対応している。
- **不明**：情報が少なすぎる・文脈が判断できない。

### 履歴
{entries}
`

// Judge asks an OpenAI-compatible endpoint whether the trailing answer of a
// transcript is contextually consistent with its question.
type Judge struct {
	client *openai.Client
	model  string
	prompt string
	temp   float32
	logger *slog.Logger
}

var _ ports.Judge = (*Judge)(nil)

// NewJudge builds the oracle client from configuration. A client TLS
// certificate pair, when configured, is attached to the transport.
func NewJudge(cfg config.LLMConfig, logger *slog.Logger) (*Judge, error) {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	// The client appends /chat/completions itself; a base configured with
	// the full endpoint path must not double it.
	baseURL = strings.TrimSuffix(baseURL, "/chat/completions")
	clientCfg.BaseURL = baseURL

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.CertFile != "" {
		keyFile := cfg.KeyFile
		if keyFile == "" {
			keyFile = cfg.CertFile
		}
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
		}
	}
	clientCfg.HTTPClient = httpClient

	prompt := strings.TrimSpace(cfg.Prompt)
	if prompt == "" {
		prompt = defaultPrompt
	}

	return &Judge{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		prompt: prompt,
		temp:   cfg.Temperature,
		logger: logger,
	}, nil
}

// JudgeCase sends one synchronous chat request and parses the verdict from
// the reply text. A transport error or non-success response is fatal for
// the case; there is no retry at this layer.
func (j *Judge) JudgeCase(ctx context.Context, caseID string, entries []domain.Entry) (domain.JudgementResult, error) {
	payload, err := marshalEntries(entries)
	if err != nil {
		return domain.JudgementResult{}, fmt.Errorf("marshal entries: %w", err)
	}

	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       j.model,
		Temperature: j.temp,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: j.renderPrompt(payload)},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Case ID: %s の判定をお願いします。", caseID)},
		},
	})
	if err != nil {
		return domain.JudgementResult{}, fmt.Errorf("judgement request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.JudgementResult{}, fmt.Errorf("judgement reply has no choices")
	}

	return ParseVerdict(resp.Choices[0].Message.Content), nil
}

func (j *Judge) renderPrompt(entriesPayload string) string {
	if !strings.Contains(j.prompt, entriesPlaceholder) {
		if j.logger != nil {
			j.logger.Warn("prompt template has no {entries} placeholder, using it verbatim")
		}
		return j.prompt
	}
	return strings.ReplaceAll(j.prompt, entriesPlaceholder, entriesPayload)
}

// marshalEntries serializes entries to the prompt schema: type (lowered),
// created_on, text.
func marshalEntries(entries []domain.Entry) (string, error) {
	type item struct {
		Type      string `json:"type"`
		CreatedOn string `json:"created_on"`
		Text      string `json:"text"`
	}

	items := make([]item, 0, len(entries))
	for _, entry := range entries {
		items = append(items, item{
			Type:      strings.ToLower(string(entry.Type)),
			CreatedOn: entry.Date,
			Text:      entry.Data,
		})
	}

	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
