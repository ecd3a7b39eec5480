package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/media/ffprobe"
)

const outputTailLimit = 2000

// FFmpeg implements Engine by shelling out to ffmpeg/ffprobe.
type FFmpeg struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewFFmpeg constructs the subprocess-backed engine.
func NewFFmpeg(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FFmpeg{cfg: cfg, logger: logging.WithComponent(logger, "media")}
}

// Probe reads duration and stream metadata via ffprobe.
func (f *FFmpeg) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	result, err := ffprobe.Inspect(ctx, f.cfg.Media.FFprobeBinary, path)
	if err != nil {
		return ProbeInfo{}, err
	}
	info := result.Video()
	return ProbeInfo{
		Duration: info.Duration,
		Width:    info.Width,
		Height:   info.Height,
		FPS:      info.FPS,
		Codec:    info.Codec,
		HasAudio: info.HasAudio,
	}, nil
}

// ExtractWindow cuts [start, end) out of src. Stream copy is used unless the
// caller asks for a normalized re-encode; re-encoded windows always carry an
// audio track so later concatenation sees a uniform stream layout.
func (f *FFmpeg) ExtractWindow(ctx context.Context, src string, start, end float64, dst string, reencode bool) error {
	if end <= start {
		return fmt.Errorf("extract window: end %.3f not after start %.3f", end, start)
	}
	duration := end - start

	args := []string{
		"-ss", formatSeconds(start),
		"-i", src,
		"-t", formatSeconds(duration),
	}

	if reencode {
		info, err := f.Probe(ctx, src)
		if err != nil {
			return err
		}
		args = append(args,
			"-c:v", f.cfg.Media.VideoCodec,
			"-preset", f.cfg.Media.Preset,
			"-crf", strconv.Itoa(f.cfg.Media.BalancedCRF),
			"-pix_fmt", "yuv420p",
		)
		if info.HasAudio {
			args = append(args, "-c:a", f.cfg.Media.AudioCodec)
		} else {
			args = append(args,
				"-f", "lavfi",
				"-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
				"-shortest",
				"-c:a", f.cfg.Media.AudioCodec,
			)
		}
	} else {
		args = append(args, "-c", "copy", "-avoid_negative_ts", "make_zero")
	}

	args = append(args, "-y", dst)
	return f.run(ctx, args)
}

// Mux combines a video window with its voice track, optionally burning
// subtitles and mixing the window's own audio underneath.
func (f *FFmpeg) Mux(ctx context.Context, req MuxRequest) error {
	args := []string{
		"-i", req.VideoPath,
		"-i", req.AudioPath,
	}

	if req.SubtitlePath != "" {
		args = append(args, "-vf", "ass="+escapeFilterPath(req.SubtitlePath))
	}

	args = append(args,
		"-filter_complex", muxAudioFilter(req.MixSourceAudio),
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", f.cfg.Media.VideoCodec,
		"-preset", f.cfg.PresetForQuality(req.Quality),
		"-crf", strconv.Itoa(f.cfg.CRFForQuality(req.Quality)),
		"-c:a", f.cfg.Media.AudioCodec,
	)

	if req.DurationCap > 0 {
		args = append(args, "-t", formatSeconds(req.DurationCap))
	}

	args = append(args, "-y", req.OutputPath)
	return f.run(ctx, args)
}

// Concatenate joins the parts in order via the concat demuxer without
// re-encoding.
func (f *FFmpeg) Concatenate(ctx context.Context, paths []string, dst string) error {
	if len(paths) == 0 {
		return errors.New("concatenate: no input parts")
	}

	listPath, err := writeConcatList(filepath.Dir(dst), paths)
	if err != nil {
		return err
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", dst,
	}
	return f.run(ctx, args)
}

// ConcatenateNormalized scales each input to the target with letterboxing,
// unifies the frame rate, and re-encodes. Inputs without audio are expected
// to have been given a silent track beforehand.
func (f *FFmpeg) ConcatenateNormalized(ctx context.Context, paths []string, target Target, quality, dst string) error {
	if len(paths) == 0 {
		return errors.New("concatenate normalized: no input parts")
	}

	args := make([]string, 0, len(paths)*2+16)
	for _, path := range paths {
		args = append(args, "-i", path)
	}
	args = append(args,
		"-filter_complex", normalizeConcatFilter(len(paths), target),
		"-map", "[outv]",
		"-map", "[outa]",
		"-c:v", f.cfg.Media.VideoCodec,
		"-preset", f.cfg.PresetForQuality(quality),
		"-crf", strconv.Itoa(f.cfg.CRFForQuality(quality)),
		"-c:a", f.cfg.Media.AudioCodec,
		"-y", dst,
	)
	return f.run(ctx, args)
}

// MixAudioTrack mixes looped background music under the video's audio with
// asymmetric gain and a fade-out before the end.
func (f *FFmpeg) MixAudioTrack(ctx context.Context, videoPath, musicPath, dst string, gain GainSpec, fade FadeSpec) error {
	videoInfo, err := f.Probe(ctx, videoPath)
	if err != nil {
		return err
	}
	musicInfo, err := f.Probe(ctx, musicPath)
	if err != nil {
		return err
	}
	if videoInfo.Duration <= 0 {
		return fmt.Errorf("mix audio: video %q has no duration", videoPath)
	}

	filter := musicMixFilter(videoInfo.Duration, musicInfo.Duration, gain, fade)
	args := []string{
		"-i", videoPath,
		"-i", musicPath,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", f.cfg.Media.AudioCodec,
		"-y", dst,
	}
	return f.run(ctx, args)
}

// AddSilentAudio writes a copy of src with a silent stereo track.
func (f *FFmpeg) AddSilentAudio(ctx context.Context, src, dst string) error {
	args := []string{
		"-i", src,
		"-f", "lavfi",
		"-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		"-c:v", "copy",
		"-c:a", f.cfg.Media.AudioCodec,
		"-shortest",
		"-y", dst,
	}
	return f.run(ctx, args)
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	timeout := time.Duration(f.cfg.Media.ProcessTimeout) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	binary := f.cfg.Media.FFmpegBinary
	full := append([]string{"-hide_banner", "-loglevel", "error"}, args...)

	f.logger.Debug("running ffmpeg", logging.String("args", strings.Join(args, " ")))

	cmd := exec.CommandContext(ctx, binary, full...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg timed out after %s: %w", timeout, ctx.Err())
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(string(output), outputTailLimit))
	}
	return nil
}

// muxAudioFilter selects the mux audio graph: either the window's own audio
// mixed under the voice track, or the voice track passed through alone.
func muxAudioFilter(mixSourceAudio bool) string {
	if mixSourceAudio {
		return "[0:a][1:a]amix=inputs=2:duration=first:dropout_transition=0[aout]"
	}
	return "[1:a]anull[aout]"
}

// normalizeConcatFilter builds the per-input scale/pad/fps chain plus the
// concat node for n inputs.
func normalizeConcatFilter(n int, target Target) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%s,setsar=1[v%d];",
			i, target.Width, target.Height, target.Width, target.Height, formatSeconds(target.FPS), i)
		fmt.Fprintf(&b, "[%d:a]anull[a%d];", i, i)
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=1[outv][outa]", n)
	return b.String()
}

// musicMixFilter loops the music to cover the video, applies asymmetric gain,
// fades the music out before the end, and trims it to the video duration.
func musicMixFilter(videoDuration, musicDuration float64, gain GainSpec, fade FadeSpec) string {
	loops := 0
	if musicDuration > 0 && musicDuration < videoDuration {
		loops = int(videoDuration/musicDuration) + 1
	}

	fadeStart := videoDuration - fade.Seconds
	if fadeStart < 0 {
		fadeStart = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[0:a]volume=%ddB[voice];", gain.VoiceBoostDB)
	fmt.Fprintf(&b, "[1:a]aloop=loop=%d:size=2e9,volume=-%ddB,afade=t=out:st=%s:d=%s,atrim=0:%s[music];",
		loops, gain.MusicReductionDB, formatSeconds(fadeStart), formatSeconds(fade.Seconds), formatSeconds(videoDuration))
	b.WriteString("[voice][music]amix=inputs=2:duration=first:dropout_transition=0[aout]")
	return b.String()
}

// writeConcatList writes a concat demuxer list file next to the destination.
func writeConcatList(dir string, paths []string) (string, error) {
	file, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("create concat list: %w", err)
	}
	defer file.Close()

	var b strings.Builder
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if _, err := file.WriteString(b.String()); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("write concat list: %w", err)
	}
	return file.Name(), nil
}

// escapeFilterPath escapes a path for use inside an ffmpeg filter argument.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
		`,`, `\,`,
	)
	return replacer.Replace(path)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
