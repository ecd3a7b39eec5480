package ffprobe

import "testing"

func TestVideoSummary(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080, RFrameRate: "30000/1001"},
			{CodecType: "audio", CodecName: "aac"},
		},
		Format: Format{Duration: "123.45"},
	}

	info := result.Video()
	if info.Width != 1920 || info.Height != 1080 {
		t.Fatalf("unexpected dimensions: %dx%d", info.Width, info.Height)
	}
	if info.Codec != "h264" {
		t.Fatalf("unexpected codec: %q", info.Codec)
	}
	if info.FPS != 29.97 {
		t.Fatalf("unexpected fps: %v", info.FPS)
	}
	if !info.HasAudio {
		t.Fatal("expected audio stream to be detected")
	}
	if info.Duration != 123.45 {
		t.Fatalf("unexpected duration: %v", info.Duration)
	}
}

func TestVideoSummaryNoAudio(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Width: 720, Height: 1280, RFrameRate: "25/1"}},
		Format:  Format{Duration: "10"},
	}
	info := result.Video()
	if info.HasAudio {
		t.Fatal("expected no audio stream")
	}
	if info.FPS != 25 {
		t.Fatalf("unexpected fps: %v", info.FPS)
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Duration: "9.5"},
			{CodecType: "audio", Duration: "10.25"},
		},
	}
	if got := result.DurationSeconds(); got != 10.25 {
		t.Fatalf("expected longest stream duration, got %v", got)
	}
}

func TestParseFrameRateMalformed(t *testing.T) {
	for _, raw := range []string{"", "30/0", "abc", "1/abc"} {
		if got := parseFrameRate(raw); got != 0 {
			t.Fatalf("parseFrameRate(%q) = %v, want 0", raw, got)
		}
	}
}
