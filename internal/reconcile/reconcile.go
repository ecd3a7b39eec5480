package reconcile

import (
	"fmt"

	"dubber/internal/timeline"
)

// Kind names the outcome of reconciling one segment.
type Kind string

const (
	// KindUnchanged means the audio fits the declared window.
	KindUnchanged Kind = "unchanged"
	// KindExtended means the segment's end was moved to match the audio.
	KindExtended Kind = "extended"
	// KindConflict means the audio outgrows the available headroom and the
	// caller must choose a resolution.
	KindConflict Kind = "conflict"
)

// Policy selects what the pipeline does with a conflict it cannot defer.
type Policy string

const (
	// PolicyTruncate accepts the conflict and clips the audio at export.
	PolicyTruncate Policy = "truncate"
	// PolicyShift moves all later segments forward to make room.
	PolicyShift Policy = "shift"
)

// Conflict reports an audio overage that exceeds the available headroom.
// Not an error: a decision point returned to the caller.
type Conflict struct {
	// Overage is how much longer the audio is than the declared window.
	Overage float64
	// Headroom is the free room between the segment's end and the next
	// segment's start (or the end of the video).
	Headroom float64
	// SuggestedRateDelta is the speech-rate change, in percent, that would
	// make a resynthesis fit the declared window.
	SuggestedRateDelta float64
}

func (c Conflict) String() string {
	return fmt.Sprintf("audio overruns window by %.2fs with %.2fs headroom (resynthesis at %+.1f%% rate would fit)",
		c.Overage, c.Headroom, c.SuggestedRateDelta)
}

// Outcome is the result of reconciling one segment against its measured
// audio duration.
type Outcome struct {
	Kind          Kind
	AudioDuration float64
	// ShortenCandidate is set on unchanged outcomes where the audio fills
	// less than half the declared window.
	ShortenCandidate bool
	// PreviousEnd and NewEnd are set on extended outcomes.
	PreviousEnd float64
	NewEnd      float64
	// Conflict is set on conflict outcomes.
	Conflict *Conflict
}

// Reconcile compares a segment's declared window against the measured audio
// duration and extends the segment in place when there is room. It never
// produces overlap or pushes a segment past the video end; when the audio
// cannot fit it returns a conflict and leaves the segment untouched.
// Reconciling an already-reconciled segment is a no-op.
func Reconcile(tl *timeline.Timeline, seg *timeline.Segment, audioDuration float64) Outcome {
	declared := seg.Duration()

	if audioDuration <= declared {
		return Outcome{
			Kind:             KindUnchanged,
			AudioDuration:    audioDuration,
			ShortenCandidate: audioDuration < declared*0.5,
		}
	}

	nextStart := nextSegmentStart(tl, seg)
	if audioDuration <= nextStart-seg.StartTime {
		previous := seg.EndTime
		newEnd := seg.StartTime + audioDuration
		if newEnd > tl.VideoDuration {
			newEnd = tl.VideoDuration
		}
		seg.EndTime = newEnd
		return Outcome{
			Kind:          KindExtended,
			AudioDuration: audioDuration,
			PreviousEnd:   previous,
			NewEnd:        newEnd,
		}
	}

	return Outcome{
		Kind:          KindConflict,
		AudioDuration: audioDuration,
		Conflict: &Conflict{
			Overage:            audioDuration - declared,
			Headroom:           nextStart - seg.EndTime,
			SuggestedRateDelta: (declared/audioDuration - 1) * 100,
		},
	}
}

// ShiftLater resolves a conflict by pushing every later segment forward just
// enough to extend this one to its audio duration. The cascade applies
// atomically: if any shifted segment would run past the video end, nothing
// moves and an error is returned.
func ShiftLater(tl *timeline.Timeline, seg *timeline.Segment, audioDuration float64) error {
	nextStart := nextSegmentStart(tl, seg)
	shift := seg.StartTime + audioDuration - nextStart
	if shift <= 0 {
		// There is room already; a plain reconcile handles it.
		Reconcile(tl, seg, audioDuration)
		return nil
	}

	newEnd := seg.StartTime + audioDuration
	if newEnd > tl.VideoDuration {
		return fmt.Errorf("cannot extend segment %q to %.2fs of audio: would end at %.2f beyond video duration %.2f",
			seg.Name, audioDuration, newEnd, tl.VideoDuration)
	}

	later := laterSegments(tl, seg)
	for _, other := range later {
		if other.EndTime+shift > tl.VideoDuration {
			return fmt.Errorf("cannot shift segment %q by %.2fs: would end at %.2f beyond video duration %.2f",
				other.Name, shift, other.EndTime+shift, tl.VideoDuration)
		}
	}

	for _, other := range later {
		other.StartTime += shift
		other.EndTime += shift
	}
	seg.EndTime = newEnd
	return nil
}

// nextSegmentStart returns the start of the first segment after seg, or the
// video duration when seg is last.
func nextSegmentStart(tl *timeline.Timeline, seg *timeline.Segment) float64 {
	next := tl.VideoDuration
	for _, other := range tl.Segments {
		if other.ID == seg.ID {
			continue
		}
		if other.StartTime >= seg.EndTime && other.StartTime < next {
			next = other.StartTime
		}
	}
	return next
}

func laterSegments(tl *timeline.Timeline, seg *timeline.Segment) []*timeline.Segment {
	var later []*timeline.Segment
	for _, other := range tl.Sorted() {
		if other.ID != seg.ID && other.StartTime >= seg.EndTime {
			later = append(later, other)
		}
	}
	return later
}
