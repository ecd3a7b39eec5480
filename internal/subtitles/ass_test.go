package subtitles

import (
	"strings"
	"testing"
)

func TestWriteASSAppliesStyle(t *testing.T) {
	cues := []Cue{{Index: 1, Start: 0.5, End: 2.25, Text: "Hello\nworld"}}
	style := Style{FontName: "Noto Sans KR", FontSize: 24, MarginV: 40, Outline: 1.5}

	var out strings.Builder
	if err := WriteASS(&out, cues, style, 1080, 1920); err != nil {
		t.Fatalf("WriteASS: %v", err)
	}
	doc := out.String()

	if !strings.Contains(doc, "PlayResX: 1080") || !strings.Contains(doc, "PlayResY: 1920") {
		t.Fatalf("missing play resolution:\n%s", doc)
	}
	if !strings.Contains(doc, "Style: Default,Noto Sans KR,24,&H00FFFFFF,") {
		t.Fatalf("style line missing overrides:\n%s", doc)
	}
	if !strings.Contains(doc, ",1,1.5,0,2,10,10,40,0") {
		t.Fatalf("style line missing border/margin values:\n%s", doc)
	}
	if !strings.Contains(doc, `Dialogue: 0,0:00:00.50,0:00:02.25,Default,,0,0,0,,Hello\Nworld`) {
		t.Fatalf("dialogue line wrong:\n%s", doc)
	}
}

func TestWriteASSDefaultsZeroStyle(t *testing.T) {
	var out strings.Builder
	if err := WriteASS(&out, []Cue{{Start: 0, End: 1, Text: "x"}}, Style{}, 0, 0); err != nil {
		t.Fatalf("WriteASS: %v", err)
	}
	doc := out.String()
	if !strings.Contains(doc, "Style: Default,Roboto,20,&H00FFFFFF,") {
		t.Fatalf("expected default style line:\n%s", doc)
	}
	if !strings.Contains(doc, "PlayResX: 1920") {
		t.Fatalf("expected default play resolution:\n%s", doc)
	}
}

func TestWriteASSBorderlessFallsBackToOpaqueBox(t *testing.T) {
	style := Style{BorderStyle: 1, Outline: 0, Shadow: 0}

	var out strings.Builder
	if err := WriteASS(&out, []Cue{{Start: 0, End: 1, Text: "x"}}, style, 1920, 1080); err != nil {
		t.Fatalf("WriteASS: %v", err)
	}
	if !strings.Contains(out.String(), ",3,0,0,2,10,10,30,0") {
		t.Fatalf("expected opaque-box border style:\n%s", out.String())
	}
}

func TestFontForLanguage(t *testing.T) {
	cases := map[string]string{
		"en":        "Roboto",
		"english":   "Roboto",
		"hi":        "Noto Sans Devanagari",
		"hindi":     "Noto Sans Devanagari",
		"ta":        "Noto Sans Tamil",
		"ko":        "Noto Sans KR",
		"korean":    "Noto Sans KR",
		"unknown":   "Roboto",
		"":          "Roboto",
		"  FR  ":    "Roboto",
		"malayalam": "Noto Sans Malayalam",
	}
	for lang, want := range cases {
		if got := FontForLanguage(lang); got != want {
			t.Fatalf("FontForLanguage(%q) = %q, want %q", lang, got, want)
		}
	}
}
