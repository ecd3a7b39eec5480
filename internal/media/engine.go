package media

import "context"

// ProbeInfo carries the stream metadata the rest of the system depends on.
type ProbeInfo struct {
	Duration float64
	Width    int
	Height   int
	FPS      float64
	Codec    string
	HasAudio bool
}

// MuxRequest describes a segment mux: extracted video window plus synthesized
// voice audio, optionally burning a styled subtitle file.
type MuxRequest struct {
	VideoPath    string
	AudioPath    string
	SubtitlePath string
	OutputPath   string
	// MixSourceAudio mixes the window's own audio under the voice track.
	// When false the voice track becomes the only audio stream.
	MixSourceAudio bool
	Quality        string
	// DurationCap pins the output duration in seconds; audio longer than
	// the window is clipped at mux time. Zero means no cap.
	DurationCap float64
}

// GainSpec controls the asymmetric gain applied while mixing music.
type GainSpec struct {
	VoiceBoostDB     int
	MusicReductionDB int
}

// FadeSpec controls the fade-out applied to the music track.
type FadeSpec struct {
	Seconds float64
}

// Target describes the normalization target for multi-source concatenation.
type Target struct {
	Width  int
	Height int
	FPS    float64
}

// Engine is the media-encoding collaborator contract. All operations are
// synchronous and idempotent given identical inputs.
type Engine interface {
	// Probe reads duration and stream metadata.
	Probe(ctx context.Context, path string) (ProbeInfo, error)
	// ExtractWindow cuts [start, end) out of src. With reencode the window
	// is normalized for concatenation safety (uniform codec, pixel format,
	// and a silent audio track when the source has none).
	ExtractWindow(ctx context.Context, src string, start, end float64, dst string, reencode bool) error
	// Mux combines a video window with voice audio and optional subtitles.
	Mux(ctx context.Context, req MuxRequest) error
	// Concatenate joins parts in order without re-encoding.
	Concatenate(ctx context.Context, paths []string, dst string) error
	// ConcatenateNormalized scales each input to the target with
	// aspect-preserving letterboxing, unifies frame rate, and re-encodes.
	ConcatenateNormalized(ctx context.Context, paths []string, target Target, quality, dst string) error
	// MixAudioTrack loops/trims music under the video's audio with
	// asymmetric gain and a fade-out before the end.
	MixAudioTrack(ctx context.Context, videoPath, musicPath, dst string, gain GainSpec, fade FadeSpec) error
	// AddSilentAudio writes a copy of src with a silent stereo track so
	// downstream muxes see a uniform stream layout.
	AddSilentAudio(ctx context.Context, src, dst string) error
}
