package synthesis

import "testing"

func TestDefaultVoice(t *testing.T) {
	cases := map[string]string{
		"en":      "en-US-AriaNeural",
		"en-GB":   "en-US-AriaNeural",
		"hi":      "hi-IN-SwaraNeural",
		"hindi":   "hi-IN-SwaraNeural",
		"ta-IN":   "ta-IN-PallaviNeural",
		"ko":      "ko-KR-SunHiNeural",
		"fr":      "fr-FR-DeniseNeural",
		"zz-wat":  "en-US-AriaNeural",
		"":        "en-US-AriaNeural",
		"unknown": "en-US-AriaNeural",
	}
	for lang, want := range cases {
		if got := DefaultVoice(lang); got != want {
			t.Fatalf("DefaultVoice(%q) = %q, want %q", lang, got, want)
		}
	}
}
