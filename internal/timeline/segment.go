package timeline

import (
	"strings"

	"github.com/google/uuid"
)

// Default synthesis parameters applied when a segment does not override them.
const (
	DefaultRate   = "+0%"
	DefaultVolume = "+0%"
	DefaultPitch  = "+0Hz"
)

// SubtitleStyle controls the rendered appearance of a segment's subtitles.
type SubtitleStyle struct {
	FontName     string  `json:"font_name"`
	FontSize     int     `json:"font_size"`
	PrimaryColor string  `json:"primary_color"`
	MarginV      int     `json:"margin_v"`
	BorderStyle  int     `json:"border_style"`
	Outline      float64 `json:"outline"`
	Shadow       float64 `json:"shadow"`
}

// DefaultSubtitleStyle returns the style used when a segment does not carry
// one of its own.
func DefaultSubtitleStyle() SubtitleStyle {
	return SubtitleStyle{
		FontSize:     16,
		PrimaryColor: "&H00FFFFFF",
		MarginV:      50,
		BorderStyle:  1,
		Outline:      2,
		Shadow:       1,
	}
}

// Segment is a voice-over unit bound to one video's timeline.
type Segment struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Language  string  `json:"language"`

	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
	Pitch  string `json:"pitch"`

	// Artifact paths are empty until audio generation has run.
	AudioPath    string `json:"audio_path,omitempty"`
	SubtitlePath string `json:"subtitle_path,omitempty"`

	Style SubtitleStyle `json:"subtitle_style"`

	// VideoID is a non-owning back-reference to the owning video.
	VideoID string `json:"video_id"`
}

// NewSegment builds a segment with defaulted synthesis parameters. The caller
// is expected to insert it through Timeline.AddSegment, which validates it.
func NewSegment(name string, start, end float64, text, voice, language string) *Segment {
	return &Segment{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		StartTime: start,
		EndTime:   end,
		Text:      strings.TrimSpace(text),
		Language:  strings.TrimSpace(language),
		Voice:     strings.TrimSpace(voice),
		Rate:      DefaultRate,
		Volume:    DefaultVolume,
		Pitch:     DefaultPitch,
		Style:     DefaultSubtitleStyle(),
	}
}

// Duration returns the declared segment window length in seconds.
func (s *Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Overlaps reports whether the two segments' [start, end) windows intersect.
func (s *Segment) Overlaps(other *Segment) bool {
	return !(s.EndTime <= other.StartTime || s.StartTime >= other.EndTime)
}

// HasAudio reports whether an audio artifact path has been recorded.
func (s *Segment) HasAudio() bool {
	return s.AudioPath != ""
}
