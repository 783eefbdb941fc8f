package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Assembler builds the final video: the still image held for the full
// duration of the mixed audio track, encoded with settings tuned for
// resource-constrained hosts.
type Assembler struct {
	videoCfg Config
	mixer    *Mixer
	logger   zerolog.Logger
}

// NewAssembler validates both configs up front; they are never mutated
// afterwards.
func NewAssembler(videoCfg Config, mixCfg MixConfig, logger zerolog.Logger) (*Assembler, error) {
	if err := videoCfg.Validate(); err != nil {
		return nil, err
	}
	if err := mixCfg.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{
		videoCfg: videoCfg,
		mixer:    NewMixer(mixCfg, logger),
		logger:   logger.With().Str("stage", "video").Logger(),
	}, nil
}

// Create runs the resource preflight, mixes the audio tracks, and encodes
// the video. All outcomes are reported through the Result; the mixed scratch
// track is removed on success and failure alike.
func (a *Assembler) Create(ctx context.Context, in Input) Result {
	if err := in.Validate(); err != nil {
		return failure(err)
	}

	paths := map[string]string{
		"narration":        in.NarrationPath,
		"image":            in.ImagePath,
		"output":           in.OutputPath,
		"background_music": in.BackgroundMusicPath,
	}
	if err := ValidateResources(paths, a.videoCfg.MinFreeSpaceGB); err != nil {
		return failure(err)
	}

	mixedPath := filepath.Join(filepath.Dir(in.OutputPath), fmt.Sprintf("mixed_%s.mp3", uuid.NewString()[:8]))
	defer os.Remove(mixedPath)

	if err := a.mixer.Mix(ctx, in.NarrationPath, in.BackgroundMusicPath, mixedPath); err != nil {
		return failure(err)
	}

	a.logger.Info().Str("image", in.ImagePath).Str("output", in.OutputPath).Msg("encoding video")
	if err := runFFmpeg(ctx, a.logger, encodeArgs(in.ImagePath, mixedPath, a.videoCfg, in.OutputPath)); err != nil {
		return failure(a.diagnose(ctx, in, fmt.Errorf("%w: %v", ErrEncodeFailed, err)))
	}
	if err := verifyOutput(in.OutputPath); err != nil {
		return failure(a.diagnose(ctx, in, err))
	}

	a.logger.Info().Str("output", in.OutputPath).Msg("video created")
	return Result{
		Success:    true,
		Message:    fmt.Sprintf("video successfully created at %s", in.OutputPath),
		OutputPath: in.OutputPath,
	}
}

// verifyOutput rejects encodes that exited cleanly but wrote nothing: a
// missing or zero-byte file is a failure regardless of the encoder's exit
// status.
func verifyOutput(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: output file was not created: %s", ErrEncodeFailed, path)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("%w: output file is empty: %s", ErrEncodeFailed, path)
	}
	return nil
}

// encodeArgs builds the ffmpeg invocation for the single-frame video. The
// queue-size, error-tolerance, and sync flags favor completing the encode
// on constrained hosts over strict A/V sync precision.
func encodeArgs(imagePath, audioPath string, cfg Config, outPath string) []string {
	return []string{
		"-y",
		"-max_error_rate", "0.1",
		"-loop", "1",
		"-framerate", strconv.Itoa(cfg.FPS),
		"-thread_queue_size", "512",
		"-i", imagePath,
		"-err_detect", "ignore_err",
		"-i", audioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-preset", cfg.Preset,
		"-threads", strconv.Itoa(cfg.Threads),
		"-b:v", cfg.VideoBitrate,
		"-c:a", "aac",
		"-b:a", cfg.AudioBitrate,
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(cfg.FPS),
		"-shortest",
		"-max_muxing_queue_size", "1024",
		"-max_interleave_delta", "0",
		"-vsync", "0",
		"-async", "1",
		"-movflags", "+faststart",
		outPath,
	}
}

// diagnose attaches post-mortem context to an encode failure so it can be
// debugged without re-running the pipeline.
func (a *Assembler) diagnose(ctx context.Context, in Input, err error) error {
	freeGB := -1.0
	if free, ferr := freeSpace(filepath.Dir(in.OutputPath)); ferr == nil {
		freeGB = float64(free) / bytesPerGB
	}
	narrationSec, _ := ProbeDuration(ctx, in.NarrationPath)
	return fmt.Errorf("%w (narration=%s image=%s output=%s free_space_gb=%.2f narration_sec=%.2f)",
		err, in.NarrationPath, in.ImagePath, in.OutputPath, freeGB, narrationSec)
}
