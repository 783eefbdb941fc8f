package video

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
)

// Mixer overlays the narration track with optional background music.
// Narration problems are fatal; background music is cosmetic, so any
// failure while processing it is logged and recovered by falling back to a
// narration-only mix.
type Mixer struct {
	cfg    MixConfig
	logger zerolog.Logger
}

func NewMixer(cfg MixConfig, logger zerolog.Logger) *Mixer {
	return &Mixer{cfg: cfg, logger: logger.With().Str("stage", "mix").Logger()}
}

// Mix writes the final audio track for the video to outPath. The output
// duration always equals the narration duration: shorter background music
// is looped whole and truncated, longer background music is cut off.
func (m *Mixer) Mix(ctx context.Context, narrationPath, backgroundPath, outPath string) error {
	narrationSec, err := ProbeDuration(ctx, narrationPath)
	if err != nil {
		return fmt.Errorf("probe narration %s: %w", narrationPath, err)
	}

	if backgroundPath != "" {
		err := m.mixWithBackground(ctx, narrationPath, backgroundPath, narrationSec, outPath)
		if err == nil {
			return nil
		}
		m.logger.Warn().Err(err).Str("background_music", backgroundPath).
			Msg("background music processing failed, falling back to narration only")
	}

	if err := runFFmpeg(ctx, m.logger, narrationOnlyArgs(narrationPath, m.cfg.MainVolume, outPath)); err != nil {
		return fmt.Errorf("narration-only mix: %w", err)
	}
	return nil
}

func (m *Mixer) mixWithBackground(ctx context.Context, narrationPath, backgroundPath string, narrationSec float64, outPath string) error {
	backgroundSec, err := ProbeDuration(ctx, backgroundPath)
	if err != nil {
		return fmt.Errorf("probe background music: %w", err)
	}

	loops := loopCount(narrationSec, backgroundSec)
	if loops > 0 {
		m.logger.Info().
			Float64("background_sec", backgroundSec).
			Float64("narration_sec", narrationSec).
			Int("loops", loops).
			Msg("looping background music to cover narration")
	}

	args := mixArgs(narrationPath, backgroundPath, loops, narrationSec, m.cfg, outPath)
	if err := runFFmpeg(ctx, m.logger, args); err != nil {
		return fmt.Errorf("mix background music: %w", err)
	}
	return nil
}

// loopCount returns the number of extra whole repetitions of the background
// clip needed to cover the narration. Zero means the clip is already long
// enough (or unusable, which the mix itself will surface).
func loopCount(narrationSec, backgroundSec float64) int {
	if backgroundSec <= 0 || backgroundSec >= narrationSec {
		return 0
	}
	return int(narrationSec/backgroundSec) + 1
}

// mixArgs builds the ffmpeg invocation that scales both tracks, trims the
// looped background to exactly the narration duration, and overlays them.
func mixArgs(narrationPath, backgroundPath string, loops int, narrationSec float64, cfg MixConfig, outPath string) []string {
	filter := fmt.Sprintf(
		"[0:a]volume=%s[main];[1:a]volume=%s,atrim=0:%s[bg];[main][bg]amix=inputs=2:duration=first:normalize=0[mix]",
		formatVolume(cfg.MainVolume),
		formatVolume(cfg.BackgroundVolume),
		formatSeconds(narrationSec),
	)
	return []string{
		"-y",
		"-i", narrationPath,
		"-stream_loop", strconv.Itoa(loops),
		"-i", backgroundPath,
		"-filter_complex", filter,
		"-map", "[mix]",
		"-t", formatSeconds(narrationSec),
		"-c:a", "libmp3lame",
		"-q:a", "2",
		outPath,
	}
}

func narrationOnlyArgs(narrationPath string, mainVolume float64, outPath string) []string {
	return []string{
		"-y",
		"-i", narrationPath,
		"-filter:a", "volume=" + formatVolume(mainVolume),
		"-c:a", "libmp3lame",
		"-q:a", "2",
		outPath,
	}
}

func formatVolume(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
