package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
script:
  section_delimiter: "---"
  section_pause_ms: 750
email:
  sources:
    - digest@example.com
    - weekly@example.com
video:
  fps: 30
paths:
  output: out
  background_music: assets/bg.mp3
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Script.SectionDelimiter != "---" {
		t.Errorf("SectionDelimiter = %q", cfg.Script.SectionDelimiter)
	}
	if cfg.Script.SectionPauseMs != 750 {
		t.Errorf("SectionPauseMs = %d", cfg.Script.SectionPauseMs)
	}
	// Unset keys keep their defaults.
	if cfg.Script.ItemDelimiter != "<item>" {
		t.Errorf("ItemDelimiter = %q, want default", cfg.Script.ItemDelimiter)
	}
	if cfg.Video.FPS != 30 {
		t.Errorf("FPS = %d", cfg.Video.FPS)
	}
	if cfg.Video.Preset != "ultrafast" {
		t.Errorf("Preset = %q, want default", cfg.Video.Preset)
	}
	if len(cfg.Email.Sources) != 2 || cfg.Email.Sources[0] != "digest@example.com" {
		t.Errorf("Sources = %v", cfg.Email.Sources)
	}
	if cfg.Paths.BackgroundMusic != "assets/bg.mp3" {
		t.Errorf("BackgroundMusic = %q", cfg.Paths.BackgroundMusic)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"empty section delimiter", "script:\n  section_delimiter: \"\"", "section_delimiter"},
		{"negative pause", "script:\n  item_pause_ms: -1", "pauses"},
		{"no sources", "email:\n  sources: []", "sources"},
		{"zero lookback", "email:\n  lookback_hours: 0", "lookback"},
		{"empty output", "paths:\n  output: \"\"", "output"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
