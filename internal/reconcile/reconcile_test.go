package reconcile

import (
	"math"
	"testing"

	"dubber/internal/timeline"
)

func testTimeline(t *testing.T, duration float64) *timeline.Timeline {
	t.Helper()
	return timeline.NewTimeline(timeline.StreamInfo{Duration: duration, Width: 1920, Height: 1080})
}

func addSegment(t *testing.T, tl *timeline.Timeline, name string, start, end float64) *timeline.Segment {
	t.Helper()
	seg := timeline.NewSegment(name, start, end, "narration", "voice", "en")
	if err := tl.AddSegment(seg); err != nil {
		t.Fatalf("AddSegment(%s): %v", name, err)
	}
	return seg
}

func TestAudioFitsLeavesSegmentUnchanged(t *testing.T) {
	tl := testTimeline(t, 60)
	seg := addSegment(t, tl, "a", 10, 20)

	outcome := Reconcile(tl, seg, 8)
	if outcome.Kind != KindUnchanged || outcome.ShortenCandidate {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if seg.EndTime != 20 {
		t.Fatalf("segment mutated: end=%v", seg.EndTime)
	}
}

func TestVeryShortAudioFlagsShortenCandidate(t *testing.T) {
	tl := testTimeline(t, 60)
	seg := addSegment(t, tl, "a", 10, 20)

	outcome := Reconcile(tl, seg, 4)
	if outcome.Kind != KindUnchanged || !outcome.ShortenCandidate {
		t.Fatalf("expected shorten candidate, got %+v", outcome)
	}
}

func TestExtendsIntoTrailingHeadroom(t *testing.T) {
	tl := testTimeline(t, 60)
	seg := addSegment(t, tl, "a", 10, 20)

	outcome := Reconcile(tl, seg, 14)
	if outcome.Kind != KindExtended {
		t.Fatalf("expected extension, got %+v", outcome)
	}
	if seg.EndTime != 24 || outcome.NewEnd != 24 || outcome.PreviousEnd != 20 {
		t.Fatalf("unexpected extension: seg.end=%v outcome=%+v", seg.EndTime, outcome)
	}
}

func TestConflictReportsOverageAndHeadroom(t *testing.T) {
	tl := testTimeline(t, 60)
	seg := addSegment(t, tl, "a", 10, 20)
	addSegment(t, tl, "b", 23, 30)

	outcome := Reconcile(tl, seg, 16)
	if outcome.Kind != KindConflict || outcome.Conflict == nil {
		t.Fatalf("expected conflict, got %+v", outcome)
	}
	if outcome.Conflict.Overage != 6 {
		t.Fatalf("overage = %v, want 6", outcome.Conflict.Overage)
	}
	if outcome.Conflict.Headroom != 3 {
		t.Fatalf("headroom = %v, want 3", outcome.Conflict.Headroom)
	}
	// Resynthesizing 16s of speech into a 10s window: (10/16 - 1) x 100.
	if math.Abs(outcome.Conflict.SuggestedRateDelta-(-37.5)) > 1e-9 {
		t.Fatalf("rate delta = %v, want -37.5", outcome.Conflict.SuggestedRateDelta)
	}
	if seg.EndTime != 20 {
		t.Fatalf("conflict must not mutate segment, end=%v", seg.EndTime)
	}
}

func TestExtensionStopsAtNextSegment(t *testing.T) {
	tl := testTimeline(t, 60)
	seg := addSegment(t, tl, "a", 10, 20)
	addSegment(t, tl, "b", 25, 30)

	// 15s of audio fits exactly into [10, 25).
	outcome := Reconcile(tl, seg, 15)
	if outcome.Kind != KindExtended || seg.EndTime != 25 {
		t.Fatalf("expected extension to 25, got %+v end=%v", outcome, seg.EndTime)
	}
	if pairs := tl.CheckOverlaps(); len(pairs) != 0 {
		t.Fatalf("extension introduced overlap: %+v", pairs)
	}
}

func TestExtensionNeverExceedsVideoDuration(t *testing.T) {
	tl := testTimeline(t, 30)
	seg := addSegment(t, tl, "a", 20, 25)

	outcome := Reconcile(tl, seg, 12)
	if outcome.Kind != KindConflict {
		t.Fatalf("expected conflict when audio outruns the video, got %+v", outcome)
	}

	outcome = Reconcile(tl, seg, 9)
	if outcome.Kind != KindExtended || seg.EndTime != 29 {
		t.Fatalf("expected extension to 29, got %+v end=%v", outcome, seg.EndTime)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	tl := testTimeline(t, 60)
	seg := addSegment(t, tl, "a", 10, 20)

	first := Reconcile(tl, seg, 14)
	if first.Kind != KindExtended {
		t.Fatalf("setup: %+v", first)
	}
	second := Reconcile(tl, seg, 14)
	if second.Kind != KindUnchanged || seg.EndTime != 24 {
		t.Fatalf("second run mutated segment: %+v end=%v", second, seg.EndTime)
	}
}

func TestShiftLaterCascades(t *testing.T) {
	tl := testTimeline(t, 60)
	seg := addSegment(t, tl, "a", 10, 20)
	b := addSegment(t, tl, "b", 23, 30)
	c := addSegment(t, tl, "c", 35, 40)

	if err := ShiftLater(tl, seg, 16); err != nil {
		t.Fatalf("ShiftLater: %v", err)
	}
	// a needs [10, 26); b and c move forward by 3s.
	if seg.EndTime != 26 {
		t.Fatalf("segment end = %v, want 26", seg.EndTime)
	}
	if b.StartTime != 26 || b.EndTime != 33 {
		t.Fatalf("b = [%v, %v), want [26, 33)", b.StartTime, b.EndTime)
	}
	if c.StartTime != 38 || c.EndTime != 43 {
		t.Fatalf("c = [%v, %v), want [38, 43)", c.StartTime, c.EndTime)
	}
	if pairs := tl.CheckOverlaps(); len(pairs) != 0 {
		t.Fatalf("shift introduced overlap: %+v", pairs)
	}
}

func TestShiftLaterIsAtomic(t *testing.T) {
	tl := testTimeline(t, 40)
	seg := addSegment(t, tl, "a", 10, 20)
	b := addSegment(t, tl, "b", 23, 30)
	c := addSegment(t, tl, "c", 35, 39)

	// Shifting by 3s would push c to [38, 42) past the 40s video.
	if err := ShiftLater(tl, seg, 16); err == nil {
		t.Fatal("expected shift to fail")
	}
	if seg.EndTime != 20 || b.StartTime != 23 || c.StartTime != 35 {
		t.Fatalf("failed shift must not move anything: a.end=%v b.start=%v c.start=%v",
			seg.EndTime, b.StartTime, c.StartTime)
	}
}

func TestShiftLaterRejectsLastSegmentPastVideoEnd(t *testing.T) {
	tl := testTimeline(t, 60)
	addSegment(t, tl, "a", 10, 20)
	seg := addSegment(t, tl, "b", 50, 55)

	// Nothing comes after b, so there is nobody to shift: 14s of audio from
	// 50s would end at 64s, past the 60s video.
	if err := ShiftLater(tl, seg, 14); err == nil {
		t.Fatal("expected shift to fail")
	}
	if seg.EndTime != 55 {
		t.Fatalf("failed shift must not move the segment, end=%v", seg.EndTime)
	}
	for _, issue := range tl.Validate() {
		t.Fatalf("timeline invariant broken: %s", issue)
	}
}

func TestShiftLaterWithRoomFallsBackToExtension(t *testing.T) {
	tl := testTimeline(t, 60)
	seg := addSegment(t, tl, "a", 10, 20)

	if err := ShiftLater(tl, seg, 14); err != nil {
		t.Fatalf("ShiftLater: %v", err)
	}
	if seg.EndTime != 24 {
		t.Fatalf("segment end = %v, want 24", seg.EndTime)
	}
}
