// Package video mixes the narration track with optional background music
// and assembles the final still-image video.
package video

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrResourceUnavailable reports a missing input path, an unwritable
	// output directory, or insufficient disk space.
	ErrResourceUnavailable = errors.New("resource unavailable")
	// ErrEncodeFailed reports an encode that produced no usable output.
	ErrEncodeFailed = errors.New("encode failed")
)

var bitratePattern = regexp.MustCompile(`^\d+k$`)

var allowedPresets = map[string]struct{}{
	"ultrafast": {},
	"superfast": {},
	"veryfast":  {},
	"faster":    {},
	"fast":      {},
	"medium":    {},
	"slow":      {},
	"slower":    {},
	"veryslow":  {},
}

// Config holds the encoding parameters for the still-image video. It is
// immutable once validated and shared by reference across a pipeline run.
type Config struct {
	FPS            int
	VideoBitrate   string
	AudioBitrate   string
	MinFreeSpaceGB float64
	Preset         string
	Threads        int
}

// DefaultConfig favors low memory and CPU use over encode speed or quality.
func DefaultConfig() Config {
	return Config{
		FPS:            24,
		VideoBitrate:   "1000k",
		AudioBitrate:   "128k",
		MinFreeSpaceGB: 1.0,
		Preset:         "ultrafast",
		Threads:        2,
	}
}

func (c Config) Validate() error {
	if c.FPS < 1 || c.FPS > 60 {
		return fmt.Errorf("video config: fps %d out of range 1..60", c.FPS)
	}
	if !bitratePattern.MatchString(c.VideoBitrate) {
		return fmt.Errorf("video config: video bitrate %q must look like '1000k'", c.VideoBitrate)
	}
	if !bitratePattern.MatchString(c.AudioBitrate) {
		return fmt.Errorf("video config: audio bitrate %q must look like '128k'", c.AudioBitrate)
	}
	if c.MinFreeSpaceGB <= 0 {
		return fmt.Errorf("video config: min free space %.2fGB must be positive", c.MinFreeSpaceGB)
	}
	if _, ok := allowedPresets[c.Preset]; !ok {
		return fmt.Errorf("video config: unknown encoder preset %q", c.Preset)
	}
	if c.Threads < 1 || c.Threads > 8 {
		return fmt.Errorf("video config: threads %d out of range 1..8", c.Threads)
	}
	return nil
}

// MixConfig holds the relative volume of each audio track.
type MixConfig struct {
	MainVolume       float64
	BackgroundVolume float64
}

// DefaultMixConfig keeps background music barely audible under narration.
func DefaultMixConfig() MixConfig {
	return MixConfig{MainVolume: 1.0, BackgroundVolume: 0.025}
}

func (c MixConfig) Validate() error {
	if c.MainVolume < 0 || c.MainVolume > 1 {
		return fmt.Errorf("audio config: main volume %.3f out of range 0..1", c.MainVolume)
	}
	if c.BackgroundVolume < 0 || c.BackgroundVolume > 1 {
		return fmt.Errorf("audio config: background volume %.3f out of range 0..1", c.BackgroundVolume)
	}
	return nil
}

// Input describes one video assembly request. Paths are validated for
// presence here and for existence/permissions by the preflight check; the
// output's parent directory is created lazily there.
type Input struct {
	NarrationPath       string
	ImagePath           string
	OutputPath          string
	BackgroundMusicPath string // optional
}

func (in Input) Validate() error {
	if in.NarrationPath == "" {
		return fmt.Errorf("video input: narration path is required")
	}
	if in.ImagePath == "" {
		return fmt.Errorf("video input: image path is required")
	}
	if in.OutputPath == "" {
		return fmt.Errorf("video input: output path is required")
	}
	return nil
}

// Result is the terminal outcome of one assembly. It is returned exactly
// once and never retried internally.
type Result struct {
	Success    bool
	Message    string
	OutputPath string // present iff Success
	Err        error  // present iff !Success
}

func failure(err error) Result {
	return Result{Success: false, Message: err.Error(), Err: err}
}
