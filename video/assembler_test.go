package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewAssemblerValidatesConfigs(t *testing.T) {
	if _, err := NewAssembler(DefaultConfig(), DefaultMixConfig(), zerolog.Nop()); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}

	bad := DefaultConfig()
	bad.FPS = 0
	if _, err := NewAssembler(bad, DefaultMixConfig(), zerolog.Nop()); err == nil {
		t.Fatal("expected error for invalid video config")
	}

	if _, err := NewAssembler(DefaultConfig(), MixConfig{MainVolume: 2}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for invalid mix config")
	}
}

func TestVerifyOutput(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.mp4")
	if err := verifyOutput(missing); !errors.Is(err, ErrEncodeFailed) {
		t.Errorf("missing file: err = %v, want ErrEncodeFailed", err)
	}

	// An encoder exiting zero after writing nothing is still a failure.
	empty := filepath.Join(dir, "empty.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := verifyOutput(empty); !errors.Is(err, ErrEncodeFailed) {
		t.Errorf("empty file: err = %v, want ErrEncodeFailed", err)
	}

	ok := filepath.Join(dir, "ok.mp4")
	if err := os.WriteFile(ok, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := verifyOutput(ok); err != nil {
		t.Errorf("non-empty file rejected: %v", err)
	}
}

func TestEncodeArgs(t *testing.T) {
	cfg := DefaultConfig()
	args := encodeArgs("thumb.png", "mixed.mp3", cfg, "out.mp4")
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-loop 1",
		"-framerate 24",
		"-c:v libx264",
		"-tune stillimage",
		"-preset ultrafast",
		"-threads 2",
		"-b:v 1000k",
		"-b:a 128k",
		"-shortest",
		// Robustness flags: favor finishing the encode over strict sync.
		"-max_muxing_queue_size 1024",
		"-thread_queue_size 512",
		"-err_detect ignore_err",
		"-max_error_rate 0.1",
		"-max_interleave_delta 0",
		"-vsync 0",
		"-async 1",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("encode args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output path must be last: %v", args)
	}
}

func TestCreateFailsPreflightBeforeMixing(t *testing.T) {
	a, err := NewAssembler(DefaultConfig(), DefaultMixConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	res := a.Create(context.Background(), Input{
		NarrationPath: filepath.Join(dir, "missing.mp3"),
		ImagePath:     filepath.Join(dir, "missing.png"),
		OutputPath:    filepath.Join(dir, "out.mp4"),
	})
	if res.Success {
		t.Fatal("expected failure for missing inputs")
	}
	if !errors.Is(res.Err, ErrResourceUnavailable) {
		t.Errorf("res.Err = %v, want ErrResourceUnavailable", res.Err)
	}
	if res.OutputPath != "" {
		t.Errorf("failed result carries an output path: %q", res.OutputPath)
	}
}

func TestCreateRejectsIncompleteInput(t *testing.T) {
	a, err := NewAssembler(DefaultConfig(), DefaultMixConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	res := a.Create(context.Background(), Input{})
	if res.Success || res.Err == nil {
		t.Fatalf("expected failure for empty input, got %+v", res)
	}
}
