package summarize

import (
	"strings"
	"testing"
	"time"

	"github.com/ashantanu/UltraAutomations/types"
)

func TestParseSummary(t *testing.T) {
	content := "```json\n{\"title\":\"AI News: June 10\",\"audio_script\":\"Hello\\n===\\n<item> A\\n===\\nBye\",\"description\":\"Today's stories.\"}\n```"
	summary, err := parseSummary(content)
	if err != nil {
		t.Fatalf("parseSummary: %v", err)
	}
	if summary.Title != "AI News: June 10" {
		t.Errorf("Title = %q", summary.Title)
	}
	if !strings.Contains(summary.Script, "<item> A") {
		t.Errorf("Script = %q", summary.Script)
	}
	if summary.Description != "Today's stories." {
		t.Errorf("Description = %q", summary.Description)
	}
}

func TestParseSummaryRejectsMissingFields(t *testing.T) {
	if _, err := parseSummary(`{"title":"x","description":"y"}`); err == nil {
		t.Error("expected error for missing audio_script")
	}
	if _, err := parseSummary(`{"audio_script":"x"}`); err == nil {
		t.Error("expected error for missing title")
	}
	if _, err := parseSummary("not json at all"); err == nil {
		t.Error("expected error for unparseable content")
	}
}

func TestCleanJSON(t *testing.T) {
	cases := []struct{ in, want string }{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tc := range cases {
		if got := cleanJSON(tc.in); got != tc.want {
			t.Errorf("cleanJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildUserPromptTruncatesBodies(t *testing.T) {
	long := strings.Repeat("x", 500)
	emails := []types.Email{
		{Sender: "a@b.c", Subject: "One", Date: time.Now(), Body: long},
		{Sender: "d@e.f", Subject: "Two", Date: time.Now(), Body: "short"},
	}
	prompt := buildUserPrompt(emails, 100)
	if strings.Contains(prompt, long) {
		t.Error("long body was not truncated")
	}
	if !strings.Contains(prompt, "[truncated]") {
		t.Error("truncation marker missing")
	}
	if !strings.Contains(prompt, "short") {
		t.Error("short body missing")
	}
	if !strings.Contains(prompt, "--- EMAIL 2 ---") {
		t.Error("emails are not numbered")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abc", 0); got != "abc" {
		t.Errorf("limit 0 must disable truncation, got %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("short input modified: %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc\n[truncated]" {
		t.Errorf("truncate = %q", got)
	}
}
