package combiner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dubber/internal/media"
	"dubber/internal/services"
	"dubber/internal/timeline"
)

func videoWith(t *testing.T, width, height int, fps float64, codec string) *timeline.Video {
	t.Helper()
	return timeline.NewVideo("v.mp4", 1, timeline.StreamInfo{
		Duration: 30, Width: width, Height: height, FPS: fps, Codec: codec,
	})
}

func TestOrientationMismatchIsHardIncompatibility(t *testing.T) {
	horizontal := videoWith(t, 1920, 1080, 30, "h264")
	vertical := videoWith(t, 1080, 1920, 30, "h264")

	report := CheckCompatibility([]*timeline.Video{horizontal, vertical})
	if report.Compatible {
		t.Fatal("expected incompatible report")
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "orientation") {
		t.Fatalf("expected orientation warning, got %v", report.Warnings)
	}
}

func TestMatchingVideosAreCleanlyCompatible(t *testing.T) {
	a := videoWith(t, 1920, 1080, 30, "h264")
	b := videoWith(t, 1920, 1080, 30, "h264")

	report := CheckCompatibility([]*timeline.Video{a, b})
	if !report.Compatible || len(report.Warnings) != 0 {
		t.Fatalf("expected clean report, got %+v", report)
	}
	if report.Specs.NeedsNormalization() {
		t.Fatalf("no normalization expected: %+v", report.Specs)
	}
	if report.Specs.Width != 1920 || report.Specs.Height != 1080 || report.Specs.FPS != 30 {
		t.Fatalf("unexpected target specs: %+v", report.Specs)
	}
}

func TestMixedSpecsWarnAndFlagNormalization(t *testing.T) {
	a := videoWith(t, 1920, 1080, 30, "h264")
	b := videoWith(t, 1280, 720, 25, "hevc")

	report := CheckCompatibility([]*timeline.Video{a, b})
	if !report.Compatible {
		t.Fatalf("mixed specs should stay compatible: %+v", report)
	}
	specs := report.Specs
	if !specs.NeedsScaling || !specs.NeedsFPSConversion || !specs.NeedsReencoding {
		t.Fatalf("expected all normalization flags: %+v", specs)
	}
	if specs.Width != 1920 || specs.Height != 1080 || specs.FPS != 30 {
		t.Fatalf("target must be the max of each spec: %+v", specs)
	}
	if len(report.Warnings) < 3 {
		t.Fatalf("expected warnings for resolution, fps, and codec: %v", report.Warnings)
	}
}

func TestAspectSpreadWarning(t *testing.T) {
	wide := videoWith(t, 2560, 1080, 30, "h264") // 2.370
	tv := videoWith(t, 1920, 1080, 30, "h264")   // 1.778

	report := CheckCompatibility([]*timeline.Video{wide, tv})
	found := false
	for _, warning := range report.Warnings {
		if strings.Contains(warning, "aspect ratios") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected aspect ratio warning, got %v", report.Warnings)
	}
}

type fakeEngine struct {
	media.Engine
	concatErr      error
	concatCalls    int
	normalizeErr   error
	normalizeCalls int
	lastTarget     media.Target
}

func (f *fakeEngine) Concatenate(ctx context.Context, paths []string, dst string) error {
	f.concatCalls++
	return f.concatErr
}

func (f *fakeEngine) ConcatenateNormalized(ctx context.Context, paths []string, target media.Target, quality, dst string) error {
	f.normalizeCalls++
	f.lastTarget = target
	return f.normalizeErr
}

func TestCombineUsesFastPathWhenSpecsMatch(t *testing.T) {
	engine := &fakeEngine{}
	report := Report{Compatible: true, Specs: Specs{Width: 1920, Height: 1080, FPS: 30}}

	err := New(engine, nil).Combine(context.Background(), []string{"a.mp4", "b.mp4"}, report, false, "balanced", "out.mp4")
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if engine.concatCalls != 1 || engine.normalizeCalls != 0 {
		t.Fatalf("expected fast path only: concat=%d normalize=%d", engine.concatCalls, engine.normalizeCalls)
	}
}

func TestCombineRetriesNormalizedOnFastPathFailure(t *testing.T) {
	engine := &fakeEngine{concatErr: errors.New("stream copy refused")}
	report := Report{Compatible: true, Specs: Specs{Width: 1920, Height: 1080, FPS: 30}}

	err := New(engine, nil).Combine(context.Background(), []string{"a.mp4", "b.mp4"}, report, false, "balanced", "out.mp4")
	if err != nil {
		t.Fatalf("expected automatic recovery, got %v", err)
	}
	if engine.concatCalls != 1 || engine.normalizeCalls != 1 {
		t.Fatalf("expected fallback after fast path: concat=%d normalize=%d", engine.concatCalls, engine.normalizeCalls)
	}
	if engine.lastTarget.Width != 1920 || engine.lastTarget.FPS != 30 {
		t.Fatalf("unexpected normalization target: %+v", engine.lastTarget)
	}
}

func TestCombineGoesStraightToNormalizedWhenFlagged(t *testing.T) {
	engine := &fakeEngine{}
	report := Report{Compatible: true, Specs: Specs{Width: 1920, Height: 1080, FPS: 30, NeedsScaling: true}}

	if err := New(engine, nil).Combine(context.Background(), []string{"a.mp4"}, report, false, "high", "out.mp4"); err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if engine.concatCalls != 0 || engine.normalizeCalls != 1 {
		t.Fatalf("expected normalized path only: concat=%d normalize=%d", engine.concatCalls, engine.normalizeCalls)
	}
}

func TestCombineRefusesIncompatibleWithoutForce(t *testing.T) {
	engine := &fakeEngine{}
	report := Report{Compatible: false, Warnings: []string{"orientation mismatch"}}

	err := New(engine, nil).Combine(context.Background(), []string{"a.mp4", "b.mp4"}, report, false, "balanced", "out.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation refusal, got %v", err)
	}
	if engine.concatCalls != 0 && engine.normalizeCalls != 0 {
		t.Fatal("refusal must not touch the engine")
	}

	// force overrides the refusal and normalizes.
	if err := New(engine, nil).Combine(context.Background(), []string{"a.mp4", "b.mp4"}, report, true, "balanced", "out.mp4"); err != nil {
		t.Fatalf("forced combine: %v", err)
	}
	if engine.normalizeCalls != 1 {
		t.Fatalf("forced combine must normalize, calls=%d", engine.normalizeCalls)
	}
}

func TestCombinePropagatesNormalizationFailure(t *testing.T) {
	engine := &fakeEngine{
		concatErr:    errors.New("copy failed"),
		normalizeErr: errors.New("encode failed"),
	}
	report := Report{Compatible: true, Specs: Specs{Width: 1920, Height: 1080, FPS: 30}}

	err := New(engine, nil).Combine(context.Background(), []string{"a.mp4"}, report, false, "balanced", "out.mp4")
	if !errors.Is(err, services.ErrEncoding) {
		t.Fatalf("expected encoding marker, got %v", err)
	}
}
