package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ashantanu/UltraAutomations/audio"
	"github.com/ashantanu/UltraAutomations/config"
	"github.com/ashantanu/UltraAutomations/emailfetch"
	"github.com/ashantanu/UltraAutomations/pipeline"
	"github.com/ashantanu/UltraAutomations/summarize"
	"github.com/ashantanu/UltraAutomations/thumbnail"
	"github.com/ashantanu/UltraAutomations/tts"
	"github.com/ashantanu/UltraAutomations/upload"
	"github.com/ashantanu/UltraAutomations/video"
)

var (
	configPath string
	skipUpload bool
	verbose    bool
)

func main() {
	// .env is local dev only; CI injects secrets directly.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "ultra",
		Short: "Turns newsletter emails into narrated news videos",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	root.PersistentFlags().BoolVar(&skipUpload, "skip-upload", false, "keep the video locally instead of uploading")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(runCmd(), generateCmd(), probeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Probe the inbox and produce today's video if there is mail",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			p := buildPipeline(cfg, logger)
			res, err := p.RunFromEmail(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			logger.Info().Str("status", string(res.Status)).Msg(res.Message)
			return nil
		},
	}
}

func generateCmd() *cobra.Command {
	var title, scriptFile string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Produce a video from a prepared script file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(scriptFile)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			p := buildPipeline(cfg, logger)
			res, err := p.RunFromText(cmd.Context(), title, string(data))
			if err != nil {
				return err
			}
			logger.Info().Str("status", string(res.Status)).Str("video", res.State.VideoPath).Msg(res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "video title")
	cmd.Flags().StringVar(&scriptFile, "script", "", "path to the script text file")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report what each configured source has waiting, without producing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			client := emailfetch.New(cfg.Email, logger)
			window := emailfetch.WindowFor(time.Now(), time.Duration(cfg.Email.LookbackHours)*time.Hour)
			for _, source := range cfg.Email.Sources {
				probe, err := client.Probe(cmd.Context(), source, window)
				if err != nil {
					return err
				}
				logger.Info().Str("source", probe.Source).Int("count", probe.Count).Strs("samples", probe.Samples).Msg("probe")
			}
			return nil
		},
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

func buildPipeline(cfg *config.Config, logger zerolog.Logger) *pipeline.Pipeline {
	store := tts.NewPromptStore()
	synth := tts.New(cfg.TTS.Model, cfg.TTS.Voice, cfg.TTS.InstructionsPrompt, store, logger)
	stitcher := audio.NewStitcher(
		synth,
		time.Duration(cfg.Script.SectionPauseMs)*time.Millisecond,
		time.Duration(cfg.Script.ItemPauseMs)*time.Millisecond,
		logger,
	)

	assembler, err := video.NewAssembler(
		video.Config{
			FPS:            cfg.Video.FPS,
			VideoBitrate:   cfg.Video.VideoBitrate,
			AudioBitrate:   cfg.Video.AudioBitrate,
			MinFreeSpaceGB: cfg.Video.MinFreeSpaceGB,
			Preset:         cfg.Video.Preset,
			Threads:        cfg.Video.Threads,
		},
		video.MixConfig{
			MainVolume:       cfg.Audio.MainVolume,
			BackgroundVolume: cfg.Audio.BackgroundVolume,
		},
		logger,
	)
	if err != nil {
		// Config passed Validate at load time; only a programming error gets here.
		logger.Fatal().Err(err).Msg("video assembler init failed")
	}

	deps := pipeline.Deps{
		Email:     emailfetch.New(cfg.Email, logger),
		Summarize: summarize.New(cfg.Summary, logger),
		Narrate:   stitcher,
		Image:     thumbnail.New(cfg.Thumbnail, logger),
		Assemble:  assembler,
	}
	if !skipUpload {
		deps.Upload = upload.New(logger)
	}
	return pipeline.New(cfg, deps, logger)
}
