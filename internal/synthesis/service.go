package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/services"
	"dubber/internal/subtitles"
	"dubber/internal/synthesis/ttscache"
	"dubber/internal/timeline"
)

// ProbeDuration measures an audio file's length in seconds.
type ProbeDuration func(ctx context.Context, path string) (float64, error)

// Artifact is the on-disk result of generating one segment's audio.
type Artifact struct {
	AudioPath    string
	SubtitlePath string
	Duration     float64
	Cached       bool
}

// Service generates per-segment voice audio and subtitle files, consulting
// the cache before calling the provider.
type Service struct {
	synth  Synthesizer
	cache  *ttscache.Store
	probe  ProbeDuration
	cfg    *config.Config
	logger *slog.Logger
}

// NewService wires the synthesis collaborators together.
func NewService(synth Synthesizer, cache *ttscache.Store, probe ProbeDuration, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		synth:  synth,
		cache:  cache,
		probe:  probe,
		cfg:    cfg,
		logger: logging.WithComponent(logger, "synthesis"),
	}
}

// GenerateSegmentAudio produces (or reuses) the audio and subtitle artifacts
// for a segment. vertical selects the tighter subtitle chunking targets.
// Partial files from a failed attempt are removed before returning.
func (s *Service) GenerateSegmentAudio(ctx context.Context, seg *timeline.Segment, vertical bool, dir string) (Artifact, error) {
	key := ttscache.Key(seg.Text, seg.Voice, seg.Rate, seg.Volume, seg.Pitch)

	if s.cache != nil {
		entry, ok, err := s.cache.Lookup(ctx, key)
		if err != nil {
			return Artifact{}, err
		}
		if ok {
			duration, err := s.probe(ctx, entry.AudioPath)
			if err != nil {
				return Artifact{}, services.Wrap(services.ErrProbe, "generate_audio", "probe",
					fmt.Sprintf("cached audio %q", entry.AudioPath), err)
			}
			s.logger.Debug("cache hit", logging.String("segment", seg.Name), logging.String("key", key))
			return Artifact{
				AudioPath:    entry.AudioPath,
				SubtitlePath: entry.SubtitlePath,
				Duration:     duration,
				Cached:       true,
			}, nil
		}
	}

	result, err := s.synth.Synthesize(ctx, Request{
		Text:   seg.Text,
		Voice:  seg.Voice,
		Rate:   seg.Rate,
		Volume: seg.Volume,
		Pitch:  seg.Pitch,
	})
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrSynthesis, "generate_audio", "synthesize",
			fmt.Sprintf("segment %q", seg.Name), err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create audio directory: %w", err)
	}
	audioPath := filepath.Join(dir, key+".mp3")
	subtitlePath := filepath.Join(dir, key+".srt")

	committed := false
	defer func() {
		if !committed {
			os.Remove(audioPath)
			os.Remove(subtitlePath)
		}
	}()

	if err := os.WriteFile(audioPath, result.Audio, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("write audio file: %w", err)
	}

	duration, err := s.probe(ctx, audioPath)
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrProbe, "generate_audio", "probe", audioPath, err)
	}

	cues := s.buildCues(seg.Text, result.Words, vertical, duration)
	if err := subtitles.WriteSRTFile(subtitlePath, cues); err != nil {
		return Artifact{}, err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, key, audioPath, subtitlePath); err != nil {
			return Artifact{}, err
		}
	}
	committed = true

	s.logger.Info("synthesized segment audio",
		logging.String("segment", seg.Name),
		logging.Float64("duration", duration),
		logging.Int("cues", len(cues)))
	return Artifact{
		AudioPath:    audioPath,
		SubtitlePath: subtitlePath,
		Duration:     duration,
	}, nil
}

func (s *Service) buildCues(text string, words []subtitles.WordTiming, vertical bool, audioDuration float64) []subtitles.Cue {
	if len(words) > 0 {
		return subtitles.ClampToDuration(subtitles.ChunkWords(words, vertical), audioDuration)
	}
	budget := s.cfg.Subtitles.CharBudgetHorizontal
	if vertical {
		budget = s.cfg.Subtitles.CharBudgetVertical
	}
	return subtitles.ChunkText(text, budget, audioDuration)
}
