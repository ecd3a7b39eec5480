package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dubber/internal/combiner"
	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/media"
	"dubber/internal/project"
	"dubber/internal/reconcile"
	"dubber/internal/services"
	"dubber/internal/synthesis"
	"dubber/internal/timeline"
)

// Stage names one step of the export state machine.
type Stage string

const (
	StagePreprocess      Stage = "preprocess"
	StageGenerateAudio   Stage = "generate_audio"
	StageProcessSegments Stage = "process_segments"
	StageConcatenate     Stage = "concatenate"
	StageCombine         Stage = "combine"
	StageMixMusic        Stage = "mix_background_music"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// Progress reports stage, percent complete, and a human-readable message.
type Progress func(stage Stage, percent float64, message string)

// Options control one export run.
type Options struct {
	Quality        string
	Subtitles      bool
	MusicPath      string
	Force          bool
	OutputPath     string
	ConflictPolicy reconcile.Policy
	Progress       Progress
}

// OptionsFromProject seeds options from the project's saved preferences.
func OptionsFromProject(proj *project.Project) Options {
	return Options{
		Quality:        proj.Export.Quality,
		Subtitles:      proj.Export.SubtitlesEnabled,
		MusicPath:      proj.Export.MusicPath,
		ConflictPolicy: reconcile.PolicyTruncate,
	}
}

// AudioGenerator produces per-segment audio and subtitle artifacts.
// *synthesis.Service is the production implementation.
type AudioGenerator interface {
	GenerateSegmentAudio(ctx context.Context, seg *timeline.Segment, vertical bool, dir string) (synthesis.Artifact, error)
}

// SaveFunc persists the project after timeline mutations. May be nil.
type SaveFunc func(*project.Project) error

// Pipeline drives an export: per-video preprocessing, audio generation with
// reconciliation, segment splicing, concatenation, optional multi-video
// combination, and background music mixing. Intermediate artifacts are
// removed on success and failure alike.
type Pipeline struct {
	cfg    *config.Config
	engine media.Engine
	synth  AudioGenerator
	save   SaveFunc
	logger *slog.Logger
}

// New wires an export pipeline.
func New(cfg *config.Config, engine media.Engine, synth AudioGenerator, save SaveFunc, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:    cfg,
		engine: engine,
		synth:  synth,
		save:   save,
		logger: logging.WithComponent(logger, "export"),
	}
}

// timelineEpsilon absorbs float drift when comparing segment boundaries.
const timelineEpsilon = 0.01

// Export runs the full state machine and returns the final output path.
func (p *Pipeline) Export(ctx context.Context, proj *project.Project, opts Options) (string, error) {
	report := func(stage Stage, percent float64, message string) {
		if opts.Progress != nil {
			opts.Progress(stage, percent, message)
		}
	}
	fail := func(percent float64, err error) (string, error) {
		report(StageFailed, percent, err.Error())
		return "", err
	}

	videos := proj.VideosInOrder()
	if len(videos) == 0 {
		return fail(0, services.Wrap(services.ErrValidation, "export", "", "project has no videos", nil))
	}
	if opts.Quality == "" {
		opts.Quality = proj.Export.Quality
	}
	if opts.ConflictPolicy == "" {
		opts.ConflictPolicy = reconcile.PolicyTruncate
	}

	if err := p.cfg.EnsureDirectories(); err != nil {
		return fail(0, err)
	}
	tempDir, err := os.MkdirTemp(p.cfg.Paths.TempDir, "export-*")
	if err != nil {
		return fail(0, fmt.Errorf("create temp directory: %w", err))
	}
	defer os.RemoveAll(tempDir)

	processed := make([]string, 0, len(videos))
	for i, video := range videos {
		base := float64(i) / float64(len(videos)) * 80
		span := 80.0 / float64(len(videos))
		scoped := func(stage Stage, fraction float64, message string) {
			report(stage, base+fraction*span, message)
		}
		out := filepath.Join(tempDir, fmt.Sprintf("video-%02d.mp4", video.Order))
		if err := p.exportVideo(ctx, proj, video, opts, tempDir, out, scoped); err != nil {
			return fail(base, err)
		}
		processed = append(processed, out)
	}

	combined := processed[0]
	if len(processed) > 1 {
		compat := combiner.CheckCompatibility(videos)
		for _, warning := range compat.Warnings {
			p.logger.Warn("combination warning", logging.String("detail", warning))
		}
		combined = filepath.Join(tempDir, "combined.mp4")
		report(StageCombine, 85, fmt.Sprintf("combining %d videos", len(processed)))
		if err := combiner.New(p.engine, p.logger).Combine(ctx, processed, compat, opts.Force, opts.Quality, combined); err != nil {
			return fail(85, err)
		}
	}

	output := p.resolveOutputPath(proj, opts)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fail(90, fmt.Errorf("create output directory: %w", err))
	}

	if opts.MusicPath != "" {
		report(StageMixMusic, 95, "mixing background music")
		gain := media.GainSpec{
			VoiceBoostDB:     p.cfg.Mix.VoiceBoostDB,
			MusicReductionDB: p.cfg.Mix.MusicReductionDB,
		}
		fade := media.FadeSpec{Seconds: p.cfg.Mix.FadeSeconds}
		if err := p.engine.MixAudioTrack(ctx, combined, opts.MusicPath, output, gain, fade); err != nil {
			return fail(95, services.Wrap(services.ErrEncoding, string(StageMixMusic), "mix", opts.MusicPath, err))
		}
	} else if err := copyFile(combined, output); err != nil {
		return fail(95, err)
	}

	report(StageDone, 100, output)
	p.logger.Info("export complete", logging.String("output", output))
	return output, nil
}

// exportVideo runs Preprocess -> GenerateAudio -> ProcessSegments ->
// Concatenate for one video, writing the result to out.
func (p *Pipeline) exportVideo(ctx context.Context, proj *project.Project, video *timeline.Video, opts Options, tempDir, out string, report func(Stage, float64, string)) error {
	report(StagePreprocess, 0.02, fmt.Sprintf("preparing %s", filepath.Base(video.Path)))

	info, err := p.engine.Probe(ctx, video.Path)
	if err != nil {
		return services.Wrap(services.ErrProbe, string(StagePreprocess), "probe", video.Path, err)
	}

	// Videos without an audio stream get a temporary silent track so every
	// downstream mux and concat sees a uniform stream layout. The original
	// path is restored on every exit.
	sourceHasAudio := info.HasAudio
	if !info.HasAudio {
		silent := filepath.Join(tempDir, fmt.Sprintf("silent-%s.mp4", video.ID))
		if err := p.engine.AddSilentAudio(ctx, video.Path, silent); err != nil {
			return services.Wrap(services.ErrEncoding, string(StagePreprocess), "add_silent_audio", video.Path, err)
		}
		originalPath := video.Path
		video.Path = silent
		defer func() {
			video.Path = originalPath
			os.Remove(silent)
		}()
	}

	tl := video.Timeline
	if err := p.generateAudio(ctx, proj, video, opts, report); err != nil {
		return err
	}

	parts, err := p.processSegments(ctx, video, opts, sourceHasAudio, tempDir, report)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return services.Wrap(services.ErrValidation, string(StageProcessSegments), "",
			fmt.Sprintf("video %q produced no parts (duration %.2f)", filepath.Base(video.Path), tl.VideoDuration), nil)
	}

	report(StageConcatenate, 0.9, fmt.Sprintf("joining %d parts", len(parts)))
	if err := p.engine.Concatenate(ctx, parts, out); err != nil {
		return services.Wrap(services.ErrEncoding, string(StageConcatenate), "concat",
			fmt.Sprintf("%d parts", len(parts)), err)
	}
	return nil
}

// generateAudio synthesizes missing segment audio, reconciles durations, and
// persists accepted timeline mutations immediately.
func (p *Pipeline) generateAudio(ctx context.Context, proj *project.Project, video *timeline.Video, opts Options, report func(Stage, float64, string)) error {
	tl := video.Timeline
	segments := tl.Sorted()
	audioDir := filepath.Join(p.cfg.Paths.CacheDir, "audio")
	vertical := video.Orientation != timeline.OrientationHorizontal

	for i, seg := range segments {
		report(StageGenerateAudio, 0.05+0.30*float64(i)/float64(len(segments)),
			fmt.Sprintf("synthesizing %q", seg.Name))

		if seg.HasAudio() {
			if _, statErr := os.Stat(seg.AudioPath); statErr == nil {
				continue
			}
			seg.AudioPath = ""
			seg.SubtitlePath = ""
		}

		artifact, err := p.synth.GenerateSegmentAudio(ctx, seg, vertical, audioDir)
		if err != nil {
			return err
		}
		seg.AudioPath = artifact.AudioPath
		seg.SubtitlePath = artifact.SubtitlePath

		outcome := reconcile.Reconcile(tl, seg, artifact.Duration)
		switch outcome.Kind {
		case reconcile.KindExtended:
			p.logger.Info("segment extended to fit audio",
				logging.String("segment", seg.Name),
				logging.Float64("previous_end", outcome.PreviousEnd),
				logging.Float64("new_end", outcome.NewEnd))
		case reconcile.KindConflict:
			if opts.ConflictPolicy == reconcile.PolicyShift {
				if shiftErr := reconcile.ShiftLater(tl, seg, artifact.Duration); shiftErr != nil {
					p.logger.Warn("shift failed, falling back to truncation",
						logging.String("segment", seg.Name), logging.Error(shiftErr))
				}
			} else {
				p.logger.Warn("audio exceeds headroom, truncating at export",
					logging.String("segment", seg.Name),
					logging.String("conflict", outcome.Conflict.String()))
			}
		default:
			if outcome.ShortenCandidate {
				p.logger.Info("audio much shorter than window",
					logging.String("segment", seg.Name),
					logging.Float64("audio", artifact.Duration),
					logging.Float64("window", seg.Duration()))
			}
		}

		// Persist immediately so a crash mid-export keeps accepted
		// extensions.
		if p.save != nil {
			if saveErr := p.save(proj); saveErr != nil {
				return fmt.Errorf("persist timeline: %w", saveErr)
			}
		}
	}
	return nil
}

// processSegments walks the timeline in order, producing re-encoded gap
// parts for untouched intervals and muxed voice-over parts per segment.
func (p *Pipeline) processSegments(ctx context.Context, video *timeline.Video, opts Options, sourceHasAudio bool, tempDir string, report func(Stage, float64, string)) ([]string, error) {
	tl := video.Timeline
	segments := tl.Sorted()

	var parts []string
	partIndex := 0
	nextPart := func(kind string) string {
		partIndex++
		return filepath.Join(tempDir, fmt.Sprintf("part-%s-%03d-%s.mp4", video.ID, partIndex, kind))
	}
	addGap := func(from, to float64) error {
		gapPath := nextPart("gap")
		if err := p.engine.ExtractWindow(ctx, video.Path, from, to, gapPath, true); err != nil {
			return services.Wrap(services.ErrEncoding, string(StageProcessSegments), "extract_gap",
				fmt.Sprintf("[%.2f, %.2f)", from, to), err)
		}
		parts = append(parts, gapPath)
		return nil
	}

	cursor := 0.0
	for i, seg := range segments {
		if seg.StartTime > cursor+timelineEpsilon {
			if err := addGap(cursor, seg.StartTime); err != nil {
				return nil, err
			}
		}
		report(StageProcessSegments, 0.4+0.35*float64(i)/float64(len(segments)),
			fmt.Sprintf("processing %q", seg.Name))

		segPath := nextPart("seg")
		if err := p.processSegment(ctx, video, seg, opts, sourceHasAudio, tempDir, segPath); err != nil {
			return nil, err
		}
		parts = append(parts, segPath)
		cursor = seg.EndTime
	}
	if tl.VideoDuration > cursor+timelineEpsilon {
		if err := addGap(cursor, tl.VideoDuration); err != nil {
			return nil, err
		}
	}
	return parts, nil
}

// processSegment extracts the segment's window, optionally burns styled
// subtitles, and muxes the synthesized voice over it. The part duration is
// pinned to the segment window so overlong audio is clipped at mux time.
func (p *Pipeline) processSegment(ctx context.Context, video *timeline.Video, seg *timeline.Segment, opts Options, sourceHasAudio bool, tempDir, dst string) error {
	extract := strings.TrimSuffix(dst, ".mp4") + "-src.mp4"
	if err := p.engine.ExtractWindow(ctx, video.Path, seg.StartTime, seg.EndTime, extract, false); err != nil {
		return services.Wrap(services.ErrEncoding, string(StageProcessSegments), "extract_segment", seg.Name, err)
	}

	subtitlePath := ""
	if opts.Subtitles && seg.SubtitlePath != "" {
		assPath := strings.TrimSuffix(dst, ".mp4") + ".ass"
		if err := buildStyledSubtitles(seg, video.Timeline, assPath); err != nil {
			p.logger.Warn("subtitle styling failed, exporting without burn-in",
				logging.String("segment", seg.Name), logging.Error(err))
		} else {
			subtitlePath = assPath
		}
	}

	err := p.engine.Mux(ctx, media.MuxRequest{
		VideoPath:      extract,
		AudioPath:      seg.AudioPath,
		SubtitlePath:   subtitlePath,
		OutputPath:     dst,
		MixSourceAudio: sourceHasAudio,
		Quality:        opts.Quality,
		DurationCap:    seg.Duration(),
	})
	if err != nil {
		return services.Wrap(services.ErrEncoding, string(StageProcessSegments), "mux", seg.Name, err)
	}
	return nil
}

func (p *Pipeline) resolveOutputPath(proj *project.Project, opts Options) string {
	if strings.TrimSpace(opts.OutputPath) != "" {
		return opts.OutputPath
	}
	name := strings.TrimSpace(proj.Name)
	if name == "" {
		name = "export"
	}
	return filepath.Join(p.cfg.Paths.OutputDir, strings.ReplaceAll(name, " ", "-")+".mp4")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open combined file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy output file: %w", err)
	}
	return out.Close()
}
