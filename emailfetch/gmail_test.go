package emailfetch

import (
	"encoding/base64"
	"testing"
	"time"

	"google.golang.org/api/gmail/v1"
)

func TestWindowFor(t *testing.T) {
	target := time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)
	w := WindowFor(target, 24*time.Hour)
	if !w.To.Equal(target) {
		t.Errorf("To = %v, want %v", w.To, target)
	}
	want := time.Date(2025, 6, 9, 8, 30, 0, 0, time.UTC)
	if !w.From.Equal(want) {
		t.Errorf("From = %v, want %v", w.From, want)
	}
}

func TestBuildQuery(t *testing.T) {
	w := TimeWindow{
		From: time.Date(2025, 6, 9, 8, 30, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC),
	}
	got := buildQuery("news@smol.ai", w)
	want := "from:news@smol.ai after:2025/06/09"
	if got != want {
		t.Errorf("buildQuery = %q, want %q", got, want)
	}
}

func encode(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestParseMessage(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "AI News <news@smol.ai>"},
				{Name: "Subject", Value: "[AINews] Daily Digest"},
				{Name: "Date", Value: "Tue, 10 Jun 2025 07:00:00 +0000"},
			},
			Parts: []*gmail.MessagePart{
				{
					MimeType: "text/html",
					Body:     &gmail.MessagePartBody{Data: encode("<p>html</p>")},
				},
				{
					MimeType: "text/plain",
					Body:     &gmail.MessagePartBody{Data: encode("plain body")},
				},
			},
		},
	}

	email := parseMessage(msg, "news@smol.ai")
	if email.Sender != "AI News <news@smol.ai>" {
		t.Errorf("Sender = %q", email.Sender)
	}
	if email.Subject != "[AINews] Daily Digest" {
		t.Errorf("Subject = %q", email.Subject)
	}
	if email.Body != "plain body" {
		t.Errorf("Body = %q, want plain text part over html", email.Body)
	}
	if email.Source != "news@smol.ai" {
		t.Errorf("Source = %q", email.Source)
	}
	want := time.Date(2025, 6, 10, 7, 0, 0, 0, time.UTC)
	if !email.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", email.Date, want)
	}
}

func TestParseMessageInternalDateFallback(t *testing.T) {
	msg := &gmail.Message{
		InternalDate: time.Date(2025, 6, 10, 7, 0, 0, 0, time.UTC).UnixMilli(),
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: encode("body")},
		},
	}
	email := parseMessage(msg, "src")
	if email.Date.IsZero() {
		t.Fatal("Date not derived from internal timestamp")
	}
	if email.Body != "body" {
		t.Errorf("Body = %q", email.Body)
	}
}

func TestExtractBodyPlainBeatsEarlierHTML(t *testing.T) {
	// multipart/mixed wrapping an alternative that lists html first: the
	// plain part must still win even though the html sibling is reached
	// earlier in traversal order.
	part := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>html</p>")}},
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("plain")}},
				},
			},
		},
	}
	if got := extractBody(part); got != "plain" {
		t.Errorf("extractBody = %q, want %q", got, "plain")
	}
}

func TestExtractBodyRootFallback(t *testing.T) {
	// A single-part html message has no plain part; the root body is the
	// only thing left to use.
	part := &gmail.MessagePart{
		MimeType: "text/html",
		Body:     &gmail.MessagePartBody{Data: encode("<p>only html</p>")},
	}
	if got := extractBody(part); got != "<p>only html</p>" {
		t.Errorf("extractBody = %q", got)
	}

	// Nested html with no root body yields nothing rather than html.
	wrapped := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>html</p>")}},
		},
	}
	if got := extractBody(wrapped); got != "" {
		t.Errorf("extractBody = %q, want empty", got)
	}
}

func TestExtractBodyNested(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("deep")}},
				},
			},
		},
	}
	if got := extractBody(part); got != "deep" {
		t.Errorf("extractBody = %q, want %q", got, "deep")
	}
}
