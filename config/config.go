package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Script    ScriptConfig    `yaml:"script"`
	Summary   SummaryConfig   `yaml:"summary"`
	TTS       TTSConfig       `yaml:"tts"`
	Email     EmailConfig     `yaml:"email"`
	Video     VideoConfig     `yaml:"video"`
	Audio     AudioConfig     `yaml:"audio"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Upload    UploadConfig    `yaml:"upload"`
	Paths     PathsConfig     `yaml:"paths"`
}

type ScriptConfig struct {
	SectionDelimiter string `yaml:"section_delimiter"`
	ItemDelimiter    string `yaml:"item_delimiter"`
	SectionPauseMs   int    `yaml:"section_pause_ms"`
	ItemPauseMs      int    `yaml:"item_pause_ms"`
}

type SummaryConfig struct {
	Model              string `yaml:"model"`
	EmailBodyCharLimit int    `yaml:"email_body_char_limit"`
}

type TTSConfig struct {
	Model              string `yaml:"model"`
	Voice              string `yaml:"voice"`
	InstructionsPrompt string `yaml:"instructions_prompt"`
}

type EmailConfig struct {
	Sources       []string `yaml:"sources"`
	LookbackHours int      `yaml:"lookback_hours"`
	MaxResults    int64    `yaml:"max_results"`
}

type VideoConfig struct {
	FPS            int     `yaml:"fps"`
	VideoBitrate   string  `yaml:"video_bitrate"`
	AudioBitrate   string  `yaml:"audio_bitrate"`
	MinFreeSpaceGB float64 `yaml:"min_free_space_gb"`
	Preset         string  `yaml:"preset"`
	Threads        int     `yaml:"threads"`
}

type AudioConfig struct {
	MainVolume       float64 `yaml:"main_volume"`
	BackgroundVolume float64 `yaml:"background_volume"`
}

type ThumbnailConfig struct {
	TemplatePath string `yaml:"template_path"`
	TitleText    string `yaml:"title_text"`
	DateFormat   string `yaml:"date_format"`
	FontSize     int    `yaml:"font_size"`
}

type UploadConfig struct {
	PrivacyStatus           string `yaml:"privacy_status"`
	CategoryID              string `yaml:"category_id"`
	DefaultLanguage         string `yaml:"default_language"`
	PlaylistName            string `yaml:"playlist_name"`
	CreatePlaylistIfMissing bool   `yaml:"create_playlist_if_not_exists"`
	NotifySubscribers       bool   `yaml:"notify_subscribers"`
}

type PathsConfig struct {
	Output          string `yaml:"output"`
	BackgroundMusic string `yaml:"background_music"`
}

// Default returns the configuration used when config.yaml omits a value.
func Default() *Config {
	return &Config{
		Script: ScriptConfig{
			SectionDelimiter: "===",
			ItemDelimiter:    "<item>",
			SectionPauseMs:   1000,
			ItemPauseMs:      500,
		},
		Summary: SummaryConfig{
			Model:              "gpt-4.1",
			EmailBodyCharLimit: 2000,
		},
		TTS: TTSConfig{
			Model:              "gpt-4o-mini-tts",
			Voice:              "sage",
			InstructionsPrompt: "news-summary-tts-instructions",
		},
		Email: EmailConfig{
			Sources:       []string{"news@smol.ai"},
			LookbackHours: 24,
			MaxResults:    10,
		},
		Video: VideoConfig{
			FPS:            24,
			VideoBitrate:   "1000k",
			AudioBitrate:   "128k",
			MinFreeSpaceGB: 1.0,
			Preset:         "ultrafast",
			Threads:        2,
		},
		Audio: AudioConfig{
			MainVolume:       1.0,
			BackgroundVolume: 0.025,
		},
		Thumbnail: ThumbnailConfig{
			TemplatePath: "assets/thumbnail_template.png",
			TitleText:    "Daily AI News",
			DateFormat:   "Jan 2, 2006",
			FontSize:     64,
		},
		Upload: UploadConfig{
			PrivacyStatus:   "private",
			CategoryID:      "28", // Science & Technology
			DefaultLanguage: "en",
		},
		Paths: PathsConfig{
			Output: "output",
		},
	}
}

// Load reads a yaml config file over the defaults and validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Script.SectionDelimiter == "" {
		return fmt.Errorf("config: script.section_delimiter must not be empty")
	}
	if c.Script.ItemDelimiter == "" {
		return fmt.Errorf("config: script.item_delimiter must not be empty")
	}
	if c.Script.SectionPauseMs < 0 || c.Script.ItemPauseMs < 0 {
		return fmt.Errorf("config: script pauses must not be negative")
	}
	if len(c.Email.Sources) == 0 {
		return fmt.Errorf("config: email.sources must name at least one source")
	}
	if c.Email.LookbackHours <= 0 {
		return fmt.Errorf("config: email.lookback_hours must be positive")
	}
	if c.Email.MaxResults <= 0 {
		return fmt.Errorf("config: email.max_results must be positive")
	}
	if c.Summary.EmailBodyCharLimit <= 0 {
		return fmt.Errorf("config: summary.email_body_char_limit must be positive")
	}
	if c.Paths.Output == "" {
		return fmt.Errorf("config: paths.output must not be empty")
	}
	return nil
}
