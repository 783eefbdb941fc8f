// Package tts adapts the OpenAI speech API into the narration pipeline.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrSynthesisFailed wraps every error returned by the speech collaborator.
// The adapter performs no retries; retry policy belongs to the caller.
var ErrSynthesisFailed = errors.New("speech synthesis failed")

const speechEndpoint = "https://api.openai.com/v1/audio/speech"

// fallbackInstructions is used when the prompt store is unreachable or the
// delivery-instructions prompt is missing.
const fallbackInstructions = "Speak clearly and naturally with a professional tone."

// Client synthesizes one text unit at a time into an mp3 clip.
type Client struct {
	httpClient *http.Client
	model      string
	voice      string
	promptName string
	store      *PromptStore
	logger     zerolog.Logger

	once         sync.Once
	instructions string
}

// New creates a speech client. store may be nil, in which case the
// hard-coded fallback instructions are used.
func New(model, voice, promptName string, store *PromptStore, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		model:      model,
		voice:      voice,
		promptName: promptName,
		store:      store,
		logger:     logger.With().Str("stage", "tts").Logger(),
	}
}

type speechRequest struct {
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Input        string `json:"input"`
	Instructions string `json:"instructions,omitempty"`
}

// Synthesize turns one text unit into an audio clip written to outPath.
func (c *Client) Synthesize(ctx context.Context, text, outPath string) error {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY not set", ErrSynthesisFailed)
	}

	body, err := json.Marshal(speechRequest{
		Model:        c.model,
		Voice:        c.voice,
		Input:        text,
		Instructions: c.deliveryInstructions(ctx),
	})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrSynthesisFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, speechEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrSynthesisFailed, resp.StatusCode, bytes.TrimSpace(msg))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrSynthesisFailed, outPath, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrSynthesisFailed, outPath, err)
	}
	return nil
}

// deliveryInstructions fetches the TTS instructions prompt once per client
// lifetime, falling back to the built-in default on any failure.
func (c *Client) deliveryInstructions(ctx context.Context) string {
	c.once.Do(func() {
		c.instructions = fallbackInstructions
		if c.store == nil || c.promptName == "" {
			return
		}
		prompt, err := c.store.GetPrompt(ctx, c.promptName)
		if err != nil {
			c.logger.Warn().Err(err).Str("prompt", c.promptName).
				Msg("prompt store unavailable, using fallback instructions")
			return
		}
		c.instructions = prompt
	})
	return c.instructions
}
