package project

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"dubber/internal/timeline"
)

// ExportPrefs are the project-level export preferences.
type ExportPrefs struct {
	Quality          string `json:"quality"`
	SubtitlesEnabled bool   `json:"subtitles_enabled"`
	MusicPath        string `json:"music_path,omitempty"`
}

// Project is the persisted unit of work: an ordered set of videos, each with
// its own timeline, plus export preferences.
type Project struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Videos    []*timeline.Video `json:"videos"`
	Export    ExportPrefs       `json:"export"`
}

// New creates an empty project with default export preferences.
func New(name string) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
		Export: ExportPrefs{
			Quality:          "balanced",
			SubtitlesEnabled: true,
		},
	}
}

// AddVideo appends a probed video at the next order position and binds its
// fresh timeline.
func (p *Project) AddVideo(path string, info timeline.StreamInfo) *timeline.Video {
	video := timeline.NewVideo(path, len(p.Videos)+1, info)
	p.Videos = append(p.Videos, video)
	return video
}

// RemoveVideo deletes the video with the given id and renumbers the rest;
// false when not found.
func (p *Project) RemoveVideo(id string) bool {
	for i, video := range p.Videos {
		if video.ID == id {
			p.Videos = append(p.Videos[:i], p.Videos[i+1:]...)
			for j, remaining := range p.Videos {
				remaining.Order = j + 1
			}
			return true
		}
	}
	return false
}

// Video returns the video with the given id, or nil.
func (p *Project) Video(id string) *timeline.Video {
	for _, video := range p.Videos {
		if video.ID == id {
			return video
		}
	}
	return nil
}

// VideosInOrder returns the videos sorted by their export order.
func (p *Project) VideosInOrder() []*timeline.Video {
	sorted := make([]*timeline.Video, len(p.Videos))
	copy(sorted, p.Videos)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Order < sorted[j-1].Order; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}

// SegmentCount totals segments across all videos.
func (p *Project) SegmentCount() int {
	count := 0
	for _, video := range p.Videos {
		if video.Timeline != nil {
			count += len(video.Timeline.Segments)
		}
	}
	return count
}
