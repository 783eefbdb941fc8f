// Package emailfetch pulls newsletter emails from a Gmail inbox. The
// pipeline probes configured sources cheaply before committing to a run,
// then fetches full bodies only when at least one source has mail.
package emailfetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ashantanu/UltraAutomations/config"
	"github.com/ashantanu/UltraAutomations/types"
	"github.com/rs/zerolog"
)

// TimeWindow bounds a mailbox query. Gmail's after: operator has day
// granularity, so From is truncated to the start of its day.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// WindowFor builds the lookback window ending at target.
func WindowFor(target time.Time, lookback time.Duration) TimeWindow {
	return TimeWindow{From: target.Add(-lookback), To: target}
}

// ProbeResult summarizes what one source has waiting without fetching bodies.
type ProbeResult struct {
	Source  string   `json:"source"`
	Count   int      `json:"count"`
	Samples []string `json:"samples,omitempty"`
}

// Client reads from Gmail using env refresh-token credentials. The service
// is built lazily so constructing a Client never touches the network.
type Client struct {
	cfg    config.EmailConfig
	logger zerolog.Logger
	svc    *gmail.Service
}

func New(cfg config.EmailConfig, logger zerolog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger.With().Str("stage", "email").Logger(),
	}
}

// Probe counts messages from source inside the window and collects up to
// three subject snippets. It never downloads message bodies.
func (c *Client) Probe(ctx context.Context, source string, window TimeWindow) (*ProbeResult, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	query := buildQuery(source, window)
	c.logger.Debug().Str("query", query).Msg("probing source")

	resp, err := svc.Users.Messages.List("me").Q(query).MaxResults(c.cfg.MaxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list %q: %w", source, err)
	}

	result := &ProbeResult{Source: source, Count: len(resp.Messages)}
	for i, m := range resp.Messages {
		if i >= 3 {
			break
		}
		msg, err := svc.Users.Messages.Get("me", m.Id).Format("metadata").MetadataHeaders("Subject").Context(ctx).Do()
		if err != nil {
			c.logger.Warn().Err(err).Str("id", m.Id).Msg("probe sample fetch failed")
			continue
		}
		result.Samples = append(result.Samples, headerValue(msg.Payload, "Subject"))
	}
	return result, nil
}

// Fetch downloads the full messages from source inside the window, newest
// first as Gmail returns them.
func (c *Client) Fetch(ctx context.Context, source string, window TimeWindow) ([]types.Email, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	query := buildQuery(source, window)
	resp, err := svc.Users.Messages.List("me").Q(query).MaxResults(c.cfg.MaxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list %q: %w", source, err)
	}

	emails := make([]types.Email, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msg, err := svc.Users.Messages.Get("me", m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("gmail get %s: %w", m.Id, err)
		}
		email := parseMessage(msg, source)
		c.logger.Info().Str("subject", email.Subject).Time("date", email.Date).Msg("fetched email")
		emails = append(emails, email)
	}
	return emails, nil
}

// buildQuery translates the window into Gmail search syntax. after: takes a
// date, not a time, so the window effectively starts at midnight of From's day.
func buildQuery(source string, window TimeWindow) string {
	return fmt.Sprintf("from:%s after:%s", source, window.From.Format("2006/01/02"))
}

func (c *Client) service(ctx context.Context) (*gmail.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}

	clientID := os.Getenv("GMAIL_CLIENT_ID")
	clientSecret := os.Getenv("GMAIL_CLIENT_SECRET")
	refreshToken := os.Getenv("GMAIL_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET, or GMAIL_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	c.svc = svc
	return svc, nil
}

func parseMessage(msg *gmail.Message, source string) types.Email {
	email := types.Email{
		Sender:  headerValue(msg.Payload, "From"),
		Subject: headerValue(msg.Payload, "Subject"),
		Body:    extractBody(msg.Payload),
		Source:  source,
	}
	if raw := headerValue(msg.Payload, "Date"); raw != "" {
		if t, err := mail.ParseDate(raw); err == nil {
			email.Date = t.UTC()
		}
	}
	if email.Date.IsZero() && msg.InternalDate > 0 {
		email.Date = time.UnixMilli(msg.InternalDate).UTC()
	}
	return email
}

func headerValue(part *gmail.MessagePart, name string) string {
	if part == nil {
		return ""
	}
	for _, h := range part.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// extractBody returns the first text/plain part anywhere in the tree. Only
// when none exists does it fall back to the root part's own body, so an
// html alternative listed before the plain one can never win.
func extractBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if body := plainTextBody(part); body != "" {
		return body
	}
	if part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	return ""
}

func plainTextBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, p := range part.Parts {
		if body := plainTextBody(p); body != "" {
			return body
		}
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}
