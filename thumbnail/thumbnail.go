// Package thumbnail produces the still image used both as the video frame
// and as the YouTube thumbnail. The template path is preferred: ffmpeg
// stamps a dated title onto a prepared background. When no template exists
// the image is generated from scratch via the OpenAI images API.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ashantanu/UltraAutomations/config"
	"github.com/rs/zerolog"
)

type Generator struct {
	cfg        config.ThumbnailConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(cfg config.ThumbnailConfig, logger zerolog.Logger) *Generator {
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger.With().Str("stage", "thumbnail").Logger(),
	}
}

// FromTemplate stamps the configured title and date onto the template image.
func (g *Generator) FromTemplate(ctx context.Context, date time.Time, outPath string) error {
	if g.cfg.TemplatePath == "" {
		return fmt.Errorf("thumbnail: no template configured")
	}
	if _, err := os.Stat(g.cfg.TemplatePath); err != nil {
		return fmt.Errorf("thumbnail template: %w", err)
	}

	text := fmt.Sprintf("%s\n%s", g.cfg.TitleText, date.Format(g.cfg.DateFormat))
	args := drawTextArgs(g.cfg.TemplatePath, text, g.cfg.FontSize, outPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	g.logger.Debug().Strs("args", args).Msg("stamping template")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg drawtext: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	g.logger.Info().Str("output", outPath).Msg("thumbnail stamped from template")
	return nil
}

// drawTextArgs overlays text centered on the lower third of the image.
func drawTextArgs(templatePath, text string, fontSize int, outPath string) []string {
	filter := fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=%d:borderw=3:bordercolor=black:x=(w-text_w)/2:y=h*0.7",
		escapeDrawText(text), fontSize,
	)
	return []string{
		"-y",
		"-i", templatePath,
		"-vf", filter,
		"-frames:v", "1",
		outPath,
	}
}

// escapeDrawText quotes text for a drawtext filter argument. Backslash goes
// first so it does not re-escape the others.
func escapeDrawText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate creates a background image from a text prompt and writes it to
// outPath. Used when no template is available.
func (g *Generator) Generate(ctx context.Context, prompt, outPath string) error {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY not set")
	}

	reqBody := imageRequest{
		Model:          "dall-e-3",
		Prompt:         prompt,
		N:              1,
		Size:           "1792x1024",
		ResponseFormat: "b64_json",
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/images/generations", bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	g.logger.Info().Msg("generating thumbnail image")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var imgResp imageResponse
	if err := json.Unmarshal(respBytes, &imgResp); err != nil {
		return fmt.Errorf("parse image response: %w", err)
	}
	if imgResp.Error != nil {
		return fmt.Errorf("image error: %s", imgResp.Error.Message)
	}
	if len(imgResp.Data) == 0 {
		return fmt.Errorf("image API returned no data")
	}

	decoded, err := base64.StdEncoding.DecodeString(imgResp.Data[0].B64JSON)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if err := os.WriteFile(outPath, decoded, 0644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	g.logger.Info().Str("output", outPath).Msg("thumbnail generated")
	return nil
}
