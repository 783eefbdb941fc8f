package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultPromptHost = "https://cloud.langfuse.com"

// PromptStore fetches managed prompts from a Langfuse instance. Credentials
// come from LANGFUSE_PUBLIC_KEY / LANGFUSE_SECRET_KEY; LANGFUSE_HOST
// overrides the cloud default.
type PromptStore struct {
	httpClient *http.Client
	host       string
	publicKey  string
	secretKey  string
}

// NewPromptStore builds a store from the environment. It returns nil when
// no credentials are configured so callers fall back to their defaults.
func NewPromptStore() *PromptStore {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		return nil
	}
	host := os.Getenv("LANGFUSE_HOST")
	if host == "" {
		host = defaultPromptHost
	}
	return &PromptStore{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		host:       host,
		publicKey:  publicKey,
		secretKey:  secretKey,
	}
}

type promptResponse struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// GetPrompt returns the current production version of a named text prompt.
func (s *PromptStore) GetPrompt(ctx context.Context, name string) (string, error) {
	url := fmt.Sprintf("%s/api/public/v2/prompts/%s", s.host, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.publicKey, s.secretKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("prompt store request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("prompt store returned status %d for %q", resp.StatusCode, name)
	}

	var pr promptResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("parse prompt response: %w", err)
	}
	if pr.Prompt == "" {
		return "", fmt.Errorf("prompt %q is empty", name)
	}
	return pr.Prompt, nil
}
