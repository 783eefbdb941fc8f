// Package pipeline orchestrates one end-to-end run: probe the inbox,
// summarize, segment, narrate, assemble the video, and upload it.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashantanu/UltraAutomations/config"
	"github.com/ashantanu/UltraAutomations/emailfetch"
	"github.com/ashantanu/UltraAutomations/script"
	"github.com/ashantanu/UltraAutomations/types"
	"github.com/ashantanu/UltraAutomations/video"
)

// ErrNoSourceData means every configured source came back empty from the
// probe. It is the skip signal, not a failure.
var ErrNoSourceData = errors.New("no source data in window")

// Status is the terminal state of one run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result reports one run. State is populated even on failure so the run can
// be inspected and resumed by hand.
type Result struct {
	Status  Status
	Message string
	State   *types.PipelineState
}

// EmailClient probes and fetches one source inbox.
type EmailClient interface {
	Probe(ctx context.Context, source string, window emailfetch.TimeWindow) (*emailfetch.ProbeResult, error)
	Fetch(ctx context.Context, source string, window emailfetch.TimeWindow) ([]types.Email, error)
}

// Summarizer turns fetched emails into a narration-ready summary.
type Summarizer interface {
	Summarize(ctx context.Context, emails []types.Email) (*types.Summary, error)
}

// NarrationBuilder renders the segmented script into one audio file.
type NarrationBuilder interface {
	Run(ctx context.Context, units []script.Unit, scratchDir, outPath string) error
}

// ImageSource produces the still frame: a stamped template when available,
// a generated image otherwise.
type ImageSource interface {
	FromTemplate(ctx context.Context, date time.Time, outPath string) error
	Generate(ctx context.Context, prompt, outPath string) error
}

// VideoAssembler encodes the final video from narration and image.
type VideoAssembler interface {
	Create(ctx context.Context, in video.Input) video.Result
}

// Uploader publishes the finished video.
type Uploader interface {
	Upload(ctx context.Context, req types.UploadRequest) (*types.UploadResult, error)
}

// Deps are the stage collaborators. A nil Uploader disables the upload stage.
type Deps struct {
	Email     EmailClient
	Summarize Summarizer
	Narrate   NarrationBuilder
	Image     ImageSource
	Assemble  VideoAssembler
	Upload    Uploader
}

type Pipeline struct {
	cfg    *config.Config
	deps   Deps
	logger zerolog.Logger
}

func New(cfg *config.Config, deps Deps, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With().Str("stage", "pipeline").Logger(),
	}
}

// RunFromEmail probes every configured source over the lookback window. If
// all are empty the run is skipped without touching any downstream stage.
// Otherwise the emails are fetched, summarized, and handed to the run.
func (p *Pipeline) RunFromEmail(ctx context.Context, target time.Time) (*Result, error) {
	window := emailfetch.WindowFor(target, time.Duration(p.cfg.Email.LookbackHours)*time.Hour)

	total := 0
	for _, source := range p.cfg.Email.Sources {
		probe, err := p.deps.Email.Probe(ctx, source, window)
		if err != nil {
			return failedResult(fmt.Errorf("probe %s: %w", source, err))
		}
		p.logger.Info().Str("source", source).Int("count", probe.Count).Strs("samples", probe.Samples).Msg("probed source")
		total += probe.Count
	}
	if total == 0 {
		p.logger.Info().Time("window_from", window.From).Time("window_to", window.To).Msg("all sources empty, skipping run")
		return &Result{
			Status:  StatusSkipped,
			Message: fmt.Sprintf("%s: no emails from %d source(s)", ErrNoSourceData, len(p.cfg.Email.Sources)),
		}, nil
	}

	var emails []types.Email
	for _, source := range p.cfg.Email.Sources {
		fetched, err := p.deps.Email.Fetch(ctx, source, window)
		if err != nil {
			return failedResult(fmt.Errorf("fetch %s: %w", source, err))
		}
		emails = append(emails, fetched...)
	}

	summary, err := p.deps.Summarize.Summarize(ctx, emails)
	if err != nil {
		return failedResult(fmt.Errorf("summarize: %w", err))
	}
	return p.run(ctx, summary, len(emails))
}

// failedResult wraps a failure that happened before any run state existed,
// so callers always receive a terminal status alongside the error.
func failedResult(err error) (*Result, error) {
	return &Result{Status: StatusFailed, Message: err.Error()}, err
}

// RunFromText runs the pipeline on a prepared script, bypassing the email
// and summarization stages.
func (p *Pipeline) RunFromText(ctx context.Context, title, scriptText string) (*Result, error) {
	summary := &types.Summary{
		Title:       title,
		Script:      scriptText,
		Description: title,
	}
	return p.run(ctx, summary, 0)
}

type stage struct {
	name string
	fn   func(ctx context.Context) error
}

// run executes the media stages in order. The first stage to fail records
// its error in the state and stops the run; the state file is written
// regardless of outcome.
func (p *Pipeline) run(ctx context.Context, summary *types.Summary, emailCount int) (*Result, error) {
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(p.cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	scratchDir, err := os.MkdirTemp("", "pipeline_"+runID+"_")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	state := &types.PipelineState{
		RunID:           runID,
		StartedAt:       time.Now().UTC().Format(time.RFC3339),
		SourceText:      summary.Script,
		Title:           summary.Title,
		Description:     summary.Description,
		EmailsProcessed: emailCount,
	}
	logger := p.logger.With().Str("run_id", runID).Logger()
	logger.Info().Str("title", summary.Title).Msg("run started")

	var units []script.Unit
	stages := []stage{
		{"segment", func(ctx context.Context) error {
			var err error
			units, err = script.Segment(summary.Script, p.cfg.Script.SectionDelimiter, p.cfg.Script.ItemDelimiter)
			if err != nil {
				return err
			}
			logger.Info().Int("units", len(units)).Msg("script segmented")
			return nil
		}},
		{"narrate", func(ctx context.Context) error {
			narrationPath := filepath.Join(runDir, "narration.mp3")
			if err := p.deps.Narrate.Run(ctx, units, scratchDir, narrationPath); err != nil {
				return err
			}
			state.NarrationPath = narrationPath
			return nil
		}},
		{"image", func(ctx context.Context) error {
			imagePath := filepath.Join(runDir, "thumbnail.png")
			if err := p.deps.Image.FromTemplate(ctx, time.Now(), imagePath); err != nil {
				logger.Warn().Err(err).Msg("template thumbnail failed, generating image")
				prompt := fmt.Sprintf("A clean modern thumbnail background for a tech news video titled %q, bold abstract shapes, no text", summary.Title)
				if err := p.deps.Image.Generate(ctx, prompt, imagePath); err != nil {
					return err
				}
			}
			state.ImagePath = imagePath
			state.ThumbnailPath = imagePath
			return nil
		}},
		{"assemble", func(ctx context.Context) error {
			videoPath := filepath.Join(runDir, "video.mp4")
			res := p.deps.Assemble.Create(ctx, video.Input{
				NarrationPath:       state.NarrationPath,
				ImagePath:           state.ImagePath,
				OutputPath:          videoPath,
				BackgroundMusicPath: p.backgroundMusicPath(),
			})
			if !res.Success {
				return res.Err
			}
			state.VideoPath = res.OutputPath
			return nil
		}},
		{"upload", func(ctx context.Context) error {
			if p.deps.Upload == nil {
				logger.Info().Msg("upload disabled, keeping video locally")
				return nil
			}
			result, err := p.deps.Upload.Upload(ctx, types.UploadRequest{
				VideoPath:         state.VideoPath,
				Title:             summary.Title,
				Description:       summary.Description,
				ThumbnailPath:     state.ThumbnailPath,
				PrivacyStatus:     p.cfg.Upload.PrivacyStatus,
				CategoryID:        p.cfg.Upload.CategoryID,
				Language:          p.cfg.Upload.DefaultLanguage,
				PlaylistName:      p.cfg.Upload.PlaylistName,
				CreatePlaylist:    p.cfg.Upload.CreatePlaylistIfMissing,
				NotifySubscribers: p.cfg.Upload.NotifySubscribers,
			})
			if err != nil {
				return err
			}
			state.VideoID = result.VideoID
			state.VideoURL = result.VideoURL
			state.PlaylistID = result.PlaylistID
			return nil
		}},
	}

	var runErr error
	for _, st := range stages {
		if err := st.fn(ctx); err != nil {
			runErr = fmt.Errorf("%s: %w", st.name, err)
			state.Error = runErr.Error()
			logger.Error().Err(err).Str("failed_stage", st.name).Msg("run failed")
			break
		}
	}

	state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	if err := saveState(runDir, state); err != nil {
		logger.Warn().Err(err).Msg("state save failed")
	}

	if runErr != nil {
		return &Result{Status: StatusFailed, Message: runErr.Error(), State: state}, runErr
	}
	logger.Info().Str("video", state.VideoPath).Str("url", state.VideoURL).Msg("run complete")
	return &Result{Status: StatusSuccess, Message: "run complete", State: state}, nil
}

// backgroundMusicPath returns the configured track only when it actually
// exists; the assembler treats an empty path as "no background music".
func (p *Pipeline) backgroundMusicPath() string {
	path := p.cfg.Paths.BackgroundMusic
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		p.logger.Warn().Str("path", path).Msg("background music missing, proceeding without it")
		return ""
	}
	return path
}

func saveState(runDir string, state *types.PipelineState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, "state.json"), data, 0644)
}
