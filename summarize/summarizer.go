// Package summarize turns fetched newsletter emails into a narration-ready
// script via the OpenAI chat completions API.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ashantanu/UltraAutomations/config"
	"github.com/ashantanu/UltraAutomations/types"
	"github.com/rs/zerolog"
)

const systemPrompt = `You are a podcast scriptwriter for a daily AI news show. You receive one or more newsletter emails and produce a spoken summary.

You MUST respond with ONLY valid JSON — no preamble, no markdown, no explanation. The JSON object has exactly these keys:
- "title": a short episode title including today's main topic
- "audio_script": the full narration script (see format below)
- "description": a 2-3 sentence video description

The "audio_script" MUST follow this exact structure:

<opening remarks>
===
<item> <first news item>
<item> <second news item>
<item> <...more items>
===
<closing remarks>

Rules for the script:
- Use the literal delimiter "===" on its own line exactly twice: after the opening and before the closing.
- Prefix every news item with the literal token "<item>".
- Write for the ear: short sentences, no URLs, no markdown, spell out abbreviations on first use.
- Cover the most important stories; skip sponsor messages and housekeeping.`

// Summarizer calls the chat completions endpoint with the fetched emails.
type Summarizer struct {
	cfg        config.SummaryConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(cfg config.SummaryConfig, logger zerolog.Logger) *Summarizer {
	return &Summarizer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger.With().Str("stage", "summarize").Logger(),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize produces one Summary covering all the given emails.
func (s *Summarizer) Summarize(ctx context.Context, emails []types.Email) (*types.Summary, error) {
	if len(emails) == 0 {
		return nil, fmt.Errorf("summarize: no emails to summarize")
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	s.logger.Info().Int("emails", len(emails)).Str("model", s.cfg.Model).Msg("summarizing")

	reqBody := chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(emails, s.cfg.EmailBodyCharLimit)},
		},
		Temperature: 0.7,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return nil, fmt.Errorf("parse openai response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	summary, err := parseSummary(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("title", summary.Title).Msg("summary ready")
	return summary, nil
}

// buildUserPrompt concatenates the emails, truncating each body to charLimit
// so one oversized newsletter cannot blow the context window.
func buildUserPrompt(emails []types.Email, charLimit int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Summarize the following %d newsletter email(s) into today's episode.\n\n", len(emails)))
	for i, e := range emails {
		sb.WriteString(fmt.Sprintf("--- EMAIL %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\n\n", e.Sender, e.Subject, e.Date.Format(time.RFC1123)))
		sb.WriteString(truncate(e.Body, charLimit))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Respond ONLY with valid JSON. No markdown. No explanation.")
	return sb.String()
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "\n[truncated]"
}

func parseSummary(content string) (*types.Summary, error) {
	content = cleanJSON(content)
	var summary types.Summary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		return nil, fmt.Errorf("parse summary JSON: %w\nraw content: %s", err, content[:min(200, len(content))])
	}
	if summary.Script == "" {
		return nil, fmt.Errorf("summary JSON missing audio_script")
	}
	if summary.Title == "" {
		return nil, fmt.Errorf("summary JSON missing title")
	}
	return &summary, nil
}

// cleanJSON strips markdown fences if the model wraps its response in
// ```json ... ```
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
