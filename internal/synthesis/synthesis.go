package synthesis

import (
	"context"
	"strings"

	"golang.org/x/text/language"

	"dubber/internal/subtitles"
)

// Request is one speech synthesis call. Rate and Volume are signed
// percentages ("+10%"); Pitch is signed Hz ("-2Hz").
type Request struct {
	Text   string
	Voice  string
	Rate   string
	Volume string
	Pitch  string
}

// Result carries the synthesized audio and, when the provider streams them,
// per-word timings for the chunker.
type Result struct {
	Audio []byte
	Words []subtitles.WordTiming
}

// Voice describes one provider voice.
type Voice struct {
	ShortName    string
	Locale       string
	Gender       string
	FriendlyName string
}

// Synthesizer is the speech provider contract.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Result, error)
	ListVoices(ctx context.Context) ([]Voice, error)
}

// defaultVoices maps base languages to a sensible provider voice.
var defaultVoices = map[string]string{
	"en": "en-US-AriaNeural",
	"fr": "fr-FR-DeniseNeural",
	"hi": "hi-IN-SwaraNeural",
	"ta": "ta-IN-PallaviNeural",
	"te": "te-IN-ShrutiNeural",
	"kn": "kn-IN-SapnaNeural",
	"ml": "ml-IN-SobhanaNeural",
	"ko": "ko-KR-SunHiNeural",
}

// DefaultVoice picks the default voice for a language name or BCP 47 tag.
// Unrecognized languages fall back to the English default.
func DefaultVoice(lang string) string {
	key := strings.ToLower(strings.TrimSpace(lang))
	if key == "" {
		return defaultVoices["en"]
	}
	if voice, ok := defaultVoices[key]; ok {
		return voice
	}
	if tag, err := language.Parse(key); err == nil {
		base, _ := tag.Base()
		if voice, ok := defaultVoices[base.String()]; ok {
			return voice
		}
	}
	// Accept full names like "hindi" the way the font table does.
	if len(key) >= 2 {
		if voice, ok := defaultVoices[key[:2]]; ok {
			return voice
		}
	}
	return defaultVoices["en"]
}
