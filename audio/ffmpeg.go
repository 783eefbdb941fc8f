package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// sampleRate matches the mp3 clips produced by the speech collaborator so
// silence gaps concatenate cleanly with them.
const sampleRate = 24000

// silenceArgs renders a silent mp3 of the given duration.
func silenceArgs(d time.Duration, outPath string) []string {
	return []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", sampleRate),
		"-t", formatSeconds(d.Seconds()),
		"-c:a", "libmp3lame",
		"-q:a", "9",
		outPath,
	}
}

// concatArgs joins the listed clips in order, re-encoding so segment and
// silence clips with differing encoder settings still concatenate.
func concatArgs(listPath, outPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "libmp3lame",
		"-q:a", "2",
		outPath,
	}
}

func formatSeconds(sec float64) string {
	return fmt.Sprintf("%.3f", sec)
}

// escapeConcatPath quotes a path for an ffmpeg concat list entry.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

func runFFmpeg(ctx context.Context, logger zerolog.Logger, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	logger.Debug().Strs("args", args).Msg("running ffmpeg")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String(), 400))
	}
	return nil
}

// tail keeps the last n bytes of ffmpeg stderr, where the actual error is.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
