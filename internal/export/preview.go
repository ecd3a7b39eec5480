package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dubber/internal/project"
	"dubber/internal/reconcile"
	"dubber/internal/services"
	"dubber/internal/timeline"
)

// ExportPreview renders a single segment (window extraction, subtitle burn,
// voice mux) without touching the rest of the timeline. Useful for checking
// a voice or style choice before a full export.
func (p *Pipeline) ExportPreview(ctx context.Context, proj *project.Project, videoID, segmentID string, opts Options) (string, error) {
	video := proj.Video(videoID)
	if video == nil {
		return "", services.Wrap(services.ErrValidation, "preview", "", fmt.Sprintf("unknown video %q", videoID), nil)
	}
	seg := video.Timeline.Segment(segmentID)
	if seg == nil {
		return "", services.Wrap(services.ErrValidation, "preview", "", fmt.Sprintf("unknown segment %q", segmentID), nil)
	}
	if opts.Quality == "" {
		opts.Quality = proj.Export.Quality
	}

	if err := p.cfg.EnsureDirectories(); err != nil {
		return "", err
	}
	tempDir, err := os.MkdirTemp(p.cfg.Paths.TempDir, "preview-*")
	if err != nil {
		return "", fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	info, err := p.engine.Probe(ctx, video.Path)
	if err != nil {
		return "", services.Wrap(services.ErrProbe, "preview", "probe", video.Path, err)
	}

	if !seg.HasAudio() || !fileExists(seg.AudioPath) {
		vertical := video.Orientation != timeline.OrientationHorizontal
		artifact, err := p.synth.GenerateSegmentAudio(ctx, seg, vertical, filepath.Join(p.cfg.Paths.CacheDir, "audio"))
		if err != nil {
			return "", err
		}
		seg.AudioPath = artifact.AudioPath
		seg.SubtitlePath = artifact.SubtitlePath
		reconcile.Reconcile(video.Timeline, seg, artifact.Duration)
		if p.save != nil {
			if saveErr := p.save(proj); saveErr != nil {
				return "", fmt.Errorf("persist timeline: %w", saveErr)
			}
		}
	}

	staging := filepath.Join(tempDir, "preview.mp4")
	if err := p.processSegment(ctx, video, seg, opts, info.HasAudio, tempDir, staging); err != nil {
		return "", err
	}

	output := opts.OutputPath
	if strings.TrimSpace(output) == "" {
		name := strings.ReplaceAll(strings.TrimSpace(seg.Name), " ", "-")
		if name == "" {
			name = seg.ID
		}
		output = filepath.Join(p.cfg.Paths.OutputDir, fmt.Sprintf("preview-%s.mp4", name))
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := copyFile(staging, output); err != nil {
		return "", err
	}
	return output, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
