// Package llm talks to the Gemini generateContent API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cancaonovachor/nova-internal-tools/internal/config"
	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
)

const promptBodyRunes = 3000

// GeminiClient implements the text-enrichment operations on top of the
// Gemini REST API. Structured calls (translation, term extraction) run on
// the lite model with JSON responses; free-text calls use the main model.
type GeminiClient struct {
	endpoint   string
	model      string
	liteModel  string
	apiKey     string
	httpClient *http.Client
}

var _ ports.TextEnricher = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.EnrichmentConfig) *GeminiClient {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	lite := cfg.LiteModel
	if lite == "" {
		lite = cfg.Model
	}

	return &GeminiClient{
		endpoint:  strings.TrimSuffix(cfg.Endpoint, "/"),
		model:     cfg.Model,
		liteModel: lite,
		apiKey:    cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Summarize produces a 3-4 sentence Japanese summary of the article.
func (c *GeminiClient) Summarize(ctx context.Context, title, body string) (string, error) {
	prompt := fmt.Sprintf(`以下の記事を3-4文で要約してください。

タイトル: %s

本文:
%s

【ルール】
- 日本語で要約
- 重要な情報（日時、場所、内容）を含める
- 合唱関係者が興味を持つポイントを強調
- 前置きや「この記事は」などの導入文は不要
- 要約のみを出力`, title, clipRunes(body, promptBodyRunes))

	text, err := c.generate(ctx, c.model, prompt, false, false)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Translate renders the title in natural Japanese. Japanese input comes back
// unchanged.
func (c *GeminiClient) Translate(ctx context.Context, title string) (string, error) {
	prompt := fmt.Sprintf(`以下の記事タイトルを自然な日本語に翻訳してください。
タイトルが既に日本語の場合は、そのまま返してください。

タイトル: %s

出力形式（JSON）:
{
    "title_ja": "日本語タイトル"
}`, title)

	raw, err := c.generate(ctx, c.liteModel, prompt, true, false)
	if err != nil {
		return "", fmt.Errorf("translate title: %w", err)
	}

	var result struct {
		TitleJA string `json:"title_ja"`
	}
	if err := decodeModelJSON(raw, &result); err != nil {
		return "", fmt.Errorf("translate title: %w", err)
	}
	if strings.TrimSpace(result.TitleJA) == "" {
		return "", fmt.Errorf("translate title: model returned empty title")
	}

	return strings.TrimSpace(result.TitleJA), nil
}

// ExtractKeyTerms pulls choral-music proper nouns out of the title. An empty
// list is a valid result meaning there is nothing to annotate.
func (c *GeminiClient) ExtractKeyTerms(ctx context.Context, title string) ([]string, error) {
	prompt := fmt.Sprintf(`以下のタイトルから、合唱音楽に関連する固有名詞を抽出してください。

タイトル: %s

【抽出対象】
- 人名（作曲家、指揮者、歌手など）
- 合唱団・オーケストラ名
- 作品名・曲名
- 音楽イベント・フェスティバル名

【抽出しないもの】
- 月名、曜日、年号（December, Monday, 2025など）
- 一般的な場所名（葬儀場、大学、ホールなどの一般名詞）
- 普通名詞や形容詞

出力形式（JSON）:
{
    "proper_nouns": ["固有名詞1", "固有名詞2", ...]
}

固有名詞が見つからない場合は空の配列を返してください。`, title)

	raw, err := c.generate(ctx, c.liteModel, prompt, true, false)
	if err != nil {
		return nil, fmt.Errorf("extract terms: %w", err)
	}

	var result struct {
		ProperNouns []string `json:"proper_nouns"`
	}
	if err := decodeModelJSON(raw, &result); err != nil {
		return nil, fmt.Errorf("extract terms: %w", err)
	}

	return result.ProperNouns, nil
}

// ExplainTerms produces one glossary line per term, grounded by web search.
func (c *GeminiClient) ExplainTerms(ctx context.Context, terms []string) (string, error) {
	prompt := fmt.Sprintf(`以下の固有名詞について、それぞれ1-2文で簡潔に日本語で解説してください。
合唱音楽や音楽に関連する文脈を優先して説明してください。

固有名詞: %s

【重要なルール】
- 前置きや挨拶は絶対に書かないこと（「承知しました」「以下に記載します」等は禁止）
- 解説は必ず日本語で書くこと
- 以下の形式のみで出力すること：

・固有名詞名: 解説文
・固有名詞名: 解説文

わからない場合や一般的すぎる単語（月名、曜日など）はスキップしてください。`, strings.Join(terms, ", "))

	text, err := c.generate(ctx, c.model, prompt, false, true)
	if err != nil {
		return "", fmt.Errorf("explain terms: %w", err)
	}
	return strings.TrimSpace(text), nil
}

type generateRequest struct {
	Contents         []requestContent  `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	Tools            []requestTool     `json:"tools,omitempty"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type requestTool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) generate(ctx context.Context, model, prompt string, jsonResponse, withSearch bool) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || model == "" {
		return "", fmt.Errorf("gemini client misconfigured")
	}

	reqBody := generateRequest{
		Contents: []requestContent{
			{Parts: []requestPart{{Text: prompt}}},
		},
	}
	if jsonResponse {
		reqBody.GenerationConfig = &generationConfig{ResponseMIMEType: "application/json"}
	}
	if withSearch {
		reqBody.Tools = []requestTool{{GoogleSearch: &struct{}{}}}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var text strings.Builder
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return text.String(), nil
}

// decodeModelJSON parses the model's JSON output, tolerating markdown fences
// and one repair pass for raw control characters inside string literals.
func decodeModelJSON(raw string, v any) error {
	text := stripFences(strings.TrimSpace(raw))

	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	repaired := escapeControlChars(text)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}

// stripFences removes a leading ```json line and a trailing ``` line.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if strings.HasSuffix(s, "```") {
		if idx := strings.LastIndex(s, "\n"); idx >= 0 {
			s = s[:idx]
		}
	}

	return strings.TrimSpace(s)
}

// escapeControlChars rewrites raw newlines, carriage returns, and tabs that
// models sometimes emit inside JSON string literals.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}

		switch {
		case inString && r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '"':
			inString = !inString
			b.WriteRune(r)
		case inString && r == '\n':
			b.WriteString(`\n`)
		case inString && r == '\r':
			b.WriteString(`\r`)
		case inString && r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

func clipRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
