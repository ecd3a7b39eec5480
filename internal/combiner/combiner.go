package combiner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"dubber/internal/logging"
	"dubber/internal/media"
	"dubber/internal/services"
	"dubber/internal/timeline"
)

// Specs is the normalization target derived from the inputs.
type Specs struct {
	Width              int
	Height             int
	FPS                float64
	Orientation        timeline.Orientation
	NeedsScaling       bool
	NeedsFPSConversion bool
	NeedsReencoding    bool
}

// NeedsNormalization reports whether the fast concat path is off the table.
func (s Specs) NeedsNormalization() bool {
	return s.NeedsScaling || s.NeedsFPSConversion || s.NeedsReencoding
}

// Report is the compatibility decision for a set of videos.
type Report struct {
	Compatible bool
	Warnings   []string
	Specs      Specs
}

// aspectTolerance is the spread beyond which letterboxing warnings fire.
const aspectTolerance = 0.05

// CheckCompatibility decides whether the videos can be concatenated and how.
// Mixed orientations are a hard incompatibility; everything else downgrades
// to warnings plus normalization flags.
func CheckCompatibility(videos []*timeline.Video) Report {
	if len(videos) <= 1 {
		report := Report{Compatible: true}
		if len(videos) == 1 {
			report.Specs = specsFor(videos)
		}
		return report
	}

	orientations := map[timeline.Orientation]bool{}
	for _, video := range videos {
		orientations[video.Orientation] = true
	}
	if len(orientations) > 1 {
		names := make([]string, 0, len(orientations))
		for orientation := range orientations {
			names = append(names, string(orientation))
		}
		sort.Strings(names)
		return Report{
			Compatible: false,
			Warnings: []string{fmt.Sprintf(
				"cannot combine videos with different orientations: %s", strings.Join(names, ", "))},
		}
	}

	report := Report{Compatible: true, Specs: specsFor(videos)}

	minAspect, maxAspect := aspectSpread(videos)
	if maxAspect-minAspect > aspectTolerance {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"different aspect ratios detected (%.3f to %.3f); scaling may add black bars", minAspect, maxAspect))
	}
	if report.Specs.NeedsScaling {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"different resolutions detected; videos will be scaled to %dx%d", report.Specs.Width, report.Specs.Height))
	}
	if report.Specs.NeedsFPSConversion {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"different frame rates detected; videos will be converted to %g fps", report.Specs.FPS))
	}
	if report.Specs.NeedsReencoding {
		report.Warnings = append(report.Warnings, "different codecs detected; videos will be re-encoded")
	}
	return report
}

func specsFor(videos []*timeline.Video) Specs {
	specs := Specs{Orientation: videos[0].Orientation}

	resolutions := map[[2]int]bool{}
	fpsValues := map[float64]bool{}
	codecs := map[string]bool{}
	for _, video := range videos {
		tl := video.Timeline
		if tl == nil {
			continue
		}
		if tl.Width > 0 && tl.Height > 0 {
			resolutions[[2]int{tl.Width, tl.Height}] = true
			if tl.Width > specs.Width {
				specs.Width = tl.Width
			}
			if tl.Height > specs.Height {
				specs.Height = tl.Height
			}
		}
		if tl.FPS > 0 {
			fpsValues[tl.FPS] = true
			if tl.FPS > specs.FPS {
				specs.FPS = tl.FPS
			}
		}
		if tl.Codec != "" {
			codecs[tl.Codec] = true
		}
	}
	if specs.Width == 0 || specs.Height == 0 {
		specs.Width, specs.Height = 1920, 1080
	}
	if specs.FPS == 0 {
		specs.FPS = 30
	}
	specs.NeedsScaling = len(resolutions) > 1
	specs.NeedsFPSConversion = len(fpsValues) > 1
	specs.NeedsReencoding = len(codecs) > 1
	return specs
}

func aspectSpread(videos []*timeline.Video) (lo, hi float64) {
	for _, video := range videos {
		if video.AspectRatio <= 0 {
			continue
		}
		if lo == 0 || video.AspectRatio < lo {
			lo = video.AspectRatio
		}
		if video.AspectRatio > hi {
			hi = video.AspectRatio
		}
	}
	return lo, hi
}

// Combiner joins processed per-video outputs into one file.
type Combiner struct {
	engine media.Engine
	logger *slog.Logger
}

// New constructs a combiner over the given media engine.
func New(engine media.Engine, logger *slog.Logger) *Combiner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Combiner{engine: engine, logger: logging.WithComponent(logger, "combiner")}
}

// Combine concatenates the processed videos into dst. Incompatible inputs are
// refused unless force is set. When no normalization is needed the fast
// stream-copy path runs first; on its failure, or when normalization is
// required, each input is scaled/letterboxed/re-encoded to the target specs.
func (c *Combiner) Combine(ctx context.Context, paths []string, report Report, force bool, quality, dst string) error {
	if len(paths) == 0 {
		return services.Wrap(services.ErrValidation, "combine", "", "no videos to combine", nil)
	}
	if !report.Compatible && !force {
		return services.Wrap(services.ErrValidation, "combine", "",
			strings.Join(report.Warnings, "; "), nil)
	}
	if !report.Compatible {
		c.logger.Warn("forcing combination of incompatible videos", logging.String("warnings", strings.Join(report.Warnings, "; ")))
	}

	target := media.Target{Width: report.Specs.Width, Height: report.Specs.Height, FPS: report.Specs.FPS}
	if target.Width == 0 || target.Height == 0 {
		target.Width, target.Height = 1920, 1080
	}
	if target.FPS == 0 {
		target.FPS = 30
	}

	if !report.Specs.NeedsNormalization() && !force {
		err := c.engine.Concatenate(ctx, paths, dst)
		if err == nil {
			c.logger.Info("combined videos via stream copy", logging.Int("inputs", len(paths)))
			return nil
		}
		// The only built-in automatic recovery at the media layer.
		c.logger.Warn("stream-copy concat failed, retrying with normalization", logging.Error(err))
	}

	if err := c.engine.ConcatenateNormalized(ctx, paths, target, quality, dst); err != nil {
		return services.Wrap(services.ErrEncoding, "combine", "normalize",
			fmt.Sprintf("%d inputs", len(paths)), err)
	}
	c.logger.Info("combined videos with normalization",
		logging.Int("inputs", len(paths)),
		logging.String("target", fmt.Sprintf("%dx%d@%g", target.Width, target.Height, target.FPS)))
	return nil
}
