// Package audio builds the single narration track for a pipeline run.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashantanu/UltraAutomations/script"
)

// Synthesizer turns one text unit into a speech clip at outPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// Stitcher synthesizes every script unit and concatenates the clips, with
// silence gaps between sections and between items, into one narration file.
type Stitcher struct {
	synth        Synthesizer
	sectionPause time.Duration
	itemPause    time.Duration
	workers      int
	logger       zerolog.Logger
}

// NewStitcher creates a stitcher. Segment synthesis runs on a small bounded
// worker pool; concatenation order is always unit order, never completion
// order.
func NewStitcher(synth Synthesizer, sectionPause, itemPause time.Duration, logger zerolog.Logger) *Stitcher {
	return &Stitcher{
		synth:        synth,
		sectionPause: sectionPause,
		itemPause:    itemPause,
		workers:      3,
		logger:       logger.With().Str("stage", "audio").Logger(),
	}
}

// planEntry is one element of the concat plan: a synthesized segment
// (unitIndex >= 0) or a silence gap of the given duration.
type planEntry struct {
	unitIndex int
	pause     time.Duration
}

// buildPlan lays out segments and pauses in playback order: section pause
// after the opening, item pause between consecutive items, section pause
// before the closing. Both section pauses are always emitted, so a script
// with no items gets two adjacent ones. A single-unit script gets no
// padding at all.
func buildPlan(units []script.Unit, sectionPause, itemPause time.Duration) []planEntry {
	if len(units) <= 1 {
		var plan []planEntry
		for i := range units {
			plan = append(plan, planEntry{unitIndex: i})
		}
		return plan
	}

	addPause := func(plan []planEntry, d time.Duration) []planEntry {
		if d > 0 {
			plan = append(plan, planEntry{unitIndex: -1, pause: d})
		}
		return plan
	}

	last := len(units) - 1
	plan := []planEntry{{unitIndex: 0}}
	plan = addPause(plan, sectionPause)
	for i := 1; i < last; i++ {
		if i > 1 {
			plan = addPause(plan, itemPause)
		}
		plan = append(plan, planEntry{unitIndex: i})
	}
	plan = addPause(plan, sectionPause)
	return append(plan, planEntry{unitIndex: last})
}

// Run produces the narration file at outPath. Per-segment clips and silence
// clips live in scratchDir and are the caller's to discard after the run.
// Any segment synthesis failure aborts the whole stitch; partial narrations
// are never emitted.
func (s *Stitcher) Run(ctx context.Context, units []script.Unit, scratchDir, outPath string) error {
	if len(units) == 0 {
		return fmt.Errorf("no script units to synthesize")
	}

	s.logger.Info().Int("units", len(units)).Msg("synthesizing narration segments")
	segments, err := s.synthesizeUnits(ctx, units, scratchDir)
	if err != nil {
		return err
	}

	plan := buildPlan(units, s.sectionPause, s.itemPause)
	files, err := s.materializePlan(ctx, plan, segments, scratchDir)
	if err != nil {
		return err
	}

	listPath := filepath.Join(scratchDir, "narration_concat.txt")
	if err := writeConcatList(files, listPath); err != nil {
		return err
	}
	if err := runFFmpeg(ctx, s.logger, concatArgs(listPath, outPath)); err != nil {
		return fmt.Errorf("concatenate narration: %w", err)
	}

	s.logger.Info().Str("narration", outPath).Int("segments", len(units)).Msg("narration track ready")
	return nil
}

// synthesizeUnits runs segment synthesis concurrently and returns the clip
// paths indexed by unit position. The first failure cancels the rest.
func (s *Stitcher) synthesizeUnits(ctx context.Context, units []script.Unit, dir string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	paths := make([]string, len(units))
	errs := make([]error, len(units))
	sem := make(chan struct{}, s.workers)

	var wg sync.WaitGroup
	for i := range units {
		wg.Add(1)
		go func(i int, unit script.Unit) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}

			out := filepath.Join(dir, fmt.Sprintf("segment_%03d_%s.mp3", i, unit.Label))
			s.logger.Debug().Str("segment", unit.Label).Msg("synthesizing segment")
			if err := s.synth.Synthesize(ctx, unit.Text, out); err != nil {
				errs[i] = fmt.Errorf("segment %q: %w", unit.Label, err)
				cancel()
				return
			}
			paths[i] = out
		}(i, units[i])
	}
	wg.Wait()

	// Prefer the causing error over cancellation fallout from its siblings.
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// materializePlan renders one silence clip per distinct pause duration and
// returns the ordered file list for concatenation.
func (s *Stitcher) materializePlan(ctx context.Context, plan []planEntry, segments []string, dir string) ([]string, error) {
	silence := make(map[time.Duration]string)
	files := make([]string, 0, len(plan))
	for _, entry := range plan {
		if entry.unitIndex >= 0 {
			files = append(files, segments[entry.unitIndex])
			continue
		}
		path, ok := silence[entry.pause]
		if !ok {
			path = filepath.Join(dir, fmt.Sprintf("silence_%dms.mp3", entry.pause.Milliseconds()))
			if err := runFFmpeg(ctx, s.logger, silenceArgs(entry.pause, path)); err != nil {
				return nil, fmt.Errorf("render %v silence: %w", entry.pause, err)
			}
			silence[entry.pause] = path
		}
		files = append(files, path)
	}
	return files, nil
}

// writeConcatList writes an ffmpeg concat-demuxer list file.
func writeConcatList(files []string, listPath string) error {
	var b []byte
	for _, f := range files {
		b = append(b, fmt.Sprintf("file '%s'\n", escapeConcatPath(f))...)
	}
	if err := os.WriteFile(listPath, b, 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}
