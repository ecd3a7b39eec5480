package timeline

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// ValidationKind names the class of a segment validation failure.
type ValidationKind string

const (
	KindInvalidRange    ValidationKind = "invalid_range"
	KindMissingField    ValidationKind = "missing_field"
	KindExceedsDuration ValidationKind = "exceeds_video_duration"
	KindOverlaps        ValidationKind = "overlaps"
)

// ValidationError reports why a segment mutation was rejected. For overlap
// rejections Overlapping lists the existing segments in the way.
type ValidationError struct {
	Kind        ValidationKind
	Message     string
	Overlapping []*Segment
}

func (e *ValidationError) Error() string {
	if len(e.Overlapping) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Overlapping))
	for _, seg := range e.Overlapping {
		names = append(names, fmt.Sprintf("%q [%.2f, %.2f)", seg.Name, seg.StartTime, seg.EndTime))
	}
	return e.Message + ": " + strings.Join(names, ", ")
}

// Timeline holds the ordered, non-overlapping segments for one video plus the
// stream metadata cached at creation.
type Timeline struct {
	VideoDuration float64    `json:"video_duration"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	FPS           float64    `json:"fps"`
	Codec         string     `json:"codec"`
	Segments      []*Segment `json:"segments"`
}

// NewTimeline builds an empty timeline caching the probed stream metadata.
func NewTimeline(info StreamInfo) *Timeline {
	return &Timeline{
		VideoDuration: info.Duration,
		Width:         info.Width,
		Height:        info.Height,
		FPS:           info.FPS,
		Codec:         info.Codec,
	}
}

// AddSegment validates and inserts a segment, keeping start-time order.
// Validation order: range, required fields, video bounds, overlap.
func (t *Timeline) AddSegment(seg *Segment) error {
	if err := t.validate(seg, ""); err != nil {
		return err
	}
	t.Segments = append(t.Segments, seg)
	t.sortSegments()
	return nil
}

// RemoveSegment deletes the segment with the given id; false when not found.
func (t *Timeline) RemoveSegment(id string) bool {
	for i, seg := range t.Segments {
		if seg.ID == id {
			t.Segments = append(t.Segments[:i], t.Segments[i+1:]...)
			return true
		}
	}
	return false
}

// Segment returns the segment with the given id, or nil.
func (t *Timeline) Segment(id string) *Segment {
	for _, seg := range t.Segments {
		if seg.ID == id {
			return seg
		}
	}
	return nil
}

// SegmentAt returns the segment whose window covers the given time, or nil.
// Windows are half-open, so a segment's end time belongs to the next one.
func (t *Timeline) SegmentAt(at float64) *Segment {
	for _, seg := range t.Segments {
		if at >= seg.StartTime && at < seg.EndTime {
			return seg
		}
	}
	return nil
}

// SegmentUpdate holds the mutable fields of UpdateSegment; nil pointers leave
// the current value untouched.
type SegmentUpdate struct {
	Name      *string
	StartTime *float64
	EndTime   *float64
	Text      *string
	Language  *string
	Voice     *string
	Rate      *string
	Volume    *string
	Pitch     *string
	Style     *SubtitleStyle
}

// UpdateSegment applies the update and re-validates. On failure the segment
// is restored and the validation error returned; ok is false when the id is
// unknown.
func (t *Timeline) UpdateSegment(id string, update SegmentUpdate) (bool, error) {
	seg := t.Segment(id)
	if seg == nil {
		return false, nil
	}

	saved := *seg
	applyString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	applyString(&seg.Name, update.Name)
	applyString(&seg.Text, update.Text)
	applyString(&seg.Language, update.Language)
	applyString(&seg.Voice, update.Voice)
	applyString(&seg.Rate, update.Rate)
	applyString(&seg.Volume, update.Volume)
	applyString(&seg.Pitch, update.Pitch)
	if update.StartTime != nil {
		seg.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		seg.EndTime = *update.EndTime
	}
	if update.Style != nil {
		seg.Style = *update.Style
	}

	if err := t.validate(seg, seg.ID); err != nil {
		*seg = saved
		return true, err
	}
	if seg.StartTime != saved.StartTime {
		t.sortSegments()
	}
	return true, nil
}

func (t *Timeline) validate(seg *Segment, skipID string) error {
	if seg.StartTime < 0 || seg.EndTime <= seg.StartTime {
		return &ValidationError{
			Kind:    KindInvalidRange,
			Message: fmt.Sprintf("invalid time range [%.2f, %.2f)", seg.StartTime, seg.EndTime),
		}
	}
	if strings.TrimSpace(seg.Text) == "" {
		return &ValidationError{Kind: KindMissingField, Message: "segment text is empty"}
	}
	if strings.TrimSpace(seg.Language) == "" {
		return &ValidationError{Kind: KindMissingField, Message: "segment language is empty"}
	}
	if t.VideoDuration > 0 && seg.EndTime > t.VideoDuration {
		return &ValidationError{
			Kind:    KindExceedsDuration,
			Message: fmt.Sprintf("segment end %.2f exceeds video duration %.2f", seg.EndTime, t.VideoDuration),
		}
	}

	var overlapping []*Segment
	for _, other := range t.Segments {
		if skipID != "" && other.ID == skipID {
			continue
		}
		if seg.Overlaps(other) {
			overlapping = append(overlapping, other)
		}
	}
	if len(overlapping) > 0 {
		return &ValidationError{
			Kind:        KindOverlaps,
			Message:     "segment overlaps existing segments",
			Overlapping: overlapping,
		}
	}
	return nil
}

func (t *Timeline) sortSegments() {
	sort.SliceStable(t.Segments, func(i, j int) bool {
		return t.Segments[i].StartTime < t.Segments[j].StartTime
	})
}

// Sorted returns the segments in ascending start-time order. The slice is
// shared with the timeline; callers must not reorder it.
func (t *Timeline) Sorted() []*Segment {
	t.sortSegments()
	return t.Segments
}

// OverlapPair names two segments whose windows intersect.
type OverlapPair struct {
	A *Segment
	B *Segment
}

// CheckOverlaps audits the whole timeline and returns every intersecting
// pair. An intact timeline returns none.
func (t *Timeline) CheckOverlaps() []OverlapPair {
	var pairs []OverlapPair
	for i := 0; i < len(t.Segments); i++ {
		for j := i + 1; j < len(t.Segments); j++ {
			if t.Segments[i].Overlaps(t.Segments[j]) {
				pairs = append(pairs, OverlapPair{A: t.Segments[i], B: t.Segments[j]})
			}
		}
	}
	return pairs
}

// Validate audits invariants that can drift after external mutation: overlap
// pairs, out-of-bounds segments, and recorded audio artifacts missing on
// disk. It returns human-readable findings, empty when the timeline is sound.
func (t *Timeline) Validate() []string {
	var issues []string
	for _, pair := range t.CheckOverlaps() {
		issues = append(issues, fmt.Sprintf("segments %q and %q overlap", pair.A.Name, pair.B.Name))
	}
	for _, seg := range t.Segments {
		if t.VideoDuration > 0 && seg.EndTime > t.VideoDuration {
			issues = append(issues, fmt.Sprintf("segment %q ends at %.2f beyond video duration %.2f", seg.Name, seg.EndTime, t.VideoDuration))
		}
		if seg.AudioPath != "" {
			if _, err := os.Stat(seg.AudioPath); err != nil {
				issues = append(issues, fmt.Sprintf("segment %q references missing audio file %q", seg.Name, seg.AudioPath))
			}
		}
	}
	return issues
}

// CoverageStats summarizes how much of the video the segments cover.
type CoverageStats struct {
	SegmentCount   int
	CoveredSeconds float64
	CoveredPercent float64
	GapCount       int
}

// Coverage computes segment coverage over the video duration. Gaps include
// leading and trailing untouched intervals.
func (t *Timeline) Coverage() CoverageStats {
	stats := CoverageStats{SegmentCount: len(t.Segments)}
	if len(t.Segments) == 0 {
		if t.VideoDuration > 0 {
			stats.GapCount = 1
		}
		return stats
	}

	sorted := t.Sorted()
	cursor := 0.0
	for _, seg := range sorted {
		if seg.StartTime > cursor {
			stats.GapCount++
		}
		stats.CoveredSeconds += seg.Duration()
		if seg.EndTime > cursor {
			cursor = seg.EndTime
		}
	}
	if t.VideoDuration > cursor {
		stats.GapCount++
	}
	if t.VideoDuration > 0 {
		stats.CoveredPercent = stats.CoveredSeconds / t.VideoDuration * 100
	}
	return stats
}
