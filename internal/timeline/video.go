package timeline

import (
	"math"

	"github.com/google/uuid"
)

// Orientation classifies a video's aspect ratio.
type Orientation string

const (
	OrientationHorizontal Orientation = "horizontal"
	OrientationVertical   Orientation = "vertical"
	OrientationSquare     Orientation = "square"
)

// StreamInfo carries the probed metadata cached on a video and its timeline.
type StreamInfo struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Codec    string  `json:"codec"`
	HasAudio bool    `json:"has_audio"`
}

// Video is one source media file in a project. Aspect ratio and orientation
// are computed once from the probe and treated as immutable.
type Video struct {
	ID          string      `json:"id"`
	Path        string      `json:"path"`
	Order       int         `json:"order"`
	AspectRatio float64     `json:"aspect_ratio"`
	Orientation Orientation `json:"orientation"`
	HasAudio    bool        `json:"has_audio"`
	Timeline    *Timeline   `json:"timeline"`
}

// NewVideo creates a video and its timeline from probed stream metadata.
func NewVideo(path string, order int, info StreamInfo) *Video {
	aspect := aspectRatio(info.Width, info.Height)
	return &Video{
		ID:          uuid.NewString(),
		Path:        path,
		Order:       order,
		AspectRatio: aspect,
		Orientation: OrientationFor(aspect),
		HasAudio:    info.HasAudio,
		Timeline:    NewTimeline(info),
	}
}

// OrientationFor classifies an aspect ratio.
func OrientationFor(aspect float64) Orientation {
	switch {
	case aspect > 1.1:
		return OrientationHorizontal
	case aspect < 0.9 && aspect > 0:
		return OrientationVertical
	default:
		return OrientationSquare
	}
}

func aspectRatio(width, height int) float64 {
	if height <= 0 {
		return 0
	}
	return math.Round(float64(width)/float64(height)*1000) / 1000
}
