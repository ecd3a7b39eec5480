package subtitles

import (
	"strings"
	"testing"
)

const ticksPerSecond = int64(TicksPerSecond)

// wordStream builds back-to-back words of the given duration in seconds.
func wordStream(durationSec float64, texts ...string) []WordTiming {
	ticks := int64(durationSec * float64(ticksPerSecond))
	words := make([]WordTiming, 0, len(texts))
	var offset int64
	for _, text := range texts {
		words = append(words, WordTiming{Text: text, Offset: offset, Duration: ticks})
		offset += ticks
	}
	return words
}

func TestChunkShortSentenceEndsOnFinalWord(t *testing.T) {
	words := []WordTiming{
		{Text: "Hello", Offset: 0, Duration: 5000000},
		{Text: "world.", Offset: 5000000, Duration: 5000000},
	}
	cues := ChunkWords(words, false)
	if len(cues) != 1 {
		t.Fatalf("expected a single cue, got %d", len(cues))
	}
	if cues[0].Text != "Hello world." {
		t.Fatalf("unexpected text: %q", cues[0].Text)
	}
	line := FormatTimestamp(cues[0].Start) + " --> " + FormatTimestamp(cues[0].End)
	if line != "00:00:00,000 --> 00:00:01,000" {
		t.Fatalf("unexpected timing line: %q", line)
	}
}

func TestChunkBreaksOnSentenceEnd(t *testing.T) {
	// One-second words; the sentence ends at 3.0s, past 0.7 x 4.0 = 2.8s.
	words := wordStream(1, "First", "sentence", "done.", "Next", "part", "here.")
	cues := ChunkWords(words, false)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d: %+v", len(cues), cues)
	}
	if cues[0].Text != "First sentence done." || cues[0].End != 3 {
		t.Fatalf("unexpected first cue: %+v", cues[0])
	}
	if cues[1].Start != 3 || cues[1].End != 6 {
		t.Fatalf("unexpected second cue: %+v", cues[1])
	}
}

func TestChunkForcedBreakWithoutPunctuation(t *testing.T) {
	words := wordStream(1, "a", "b", "c", "d", "e", "f", "g", "h")
	cues := ChunkWords(words, false)
	// Forced break at 1.1 x 4.0 = 4.4s, so the first chunk closes on the
	// word ending at 5s.
	if len(cues) < 2 {
		t.Fatalf("expected forced break, got %d cues", len(cues))
	}
	if cues[0].End != 5 {
		t.Fatalf("expected first chunk to close at 5s, got %v", cues[0].End)
	}
}

func TestChunkBreaksOnSilenceGap(t *testing.T) {
	// 3.4s of speech then a 200ms gap: pause break (needs 0.8 x 4.0 = 3.2s).
	words := wordStream(1.7, "alpha", "beta")
	words = append(words, WordTiming{
		Text:     "gamma",
		Offset:   words[1].Offset + words[1].Duration + 2*ticksPerSecond/10,
		Duration: 2 * ticksPerSecond,
	})
	cues := ChunkWords(words, false)
	if len(cues) != 2 {
		t.Fatalf("expected gap break, got %d cues: %+v", len(cues), cues)
	}
	if cues[0].Text != "alpha beta" {
		t.Fatalf("unexpected first cue text: %q", cues[0].Text)
	}
}

func TestNonFinalCuesMeetMinimumDuration(t *testing.T) {
	words := wordStream(1, "One", "two", "three.", "Four", "five", "six.", "Seven", "eight", "nine.")
	cues := ChunkWords(words, false)
	if len(cues) < 2 {
		t.Fatalf("expected multiple cues, got %d", len(cues))
	}
	for _, cue := range cues[:len(cues)-1] {
		if cue.End-cue.Start < 2.0 {
			t.Fatalf("non-final cue shorter than minimum: %+v", cue)
		}
	}
}

func TestChunkVerticalUsesTighterTargets(t *testing.T) {
	// Vertical forced break at 1.1 x 3.0 = 3.3s.
	words := wordStream(1, "a", "b", "c", "d", "e", "f")
	cues := ChunkWords(words, true)
	if cues[0].End != 4 {
		t.Fatalf("expected vertical chunk to close at 4s, got %v", cues[0].End)
	}
}

func TestChunkPropertiesHold(t *testing.T) {
	words := wordStream(0.8,
		"The", "quick", "brown", "fox,", "jumps", "over", "the", "lazy", "dog.",
		"Then", "it", "runs", "away", "and", "hides", "behind", "the", "barn.",
	)
	total := words[len(words)-1].EndSeconds()
	cues := ChunkWords(words, false)
	if len(cues) == 0 {
		t.Fatal("expected cues")
	}
	for i, cue := range cues {
		if cue.End <= cue.Start {
			t.Fatalf("cue %d has non-positive duration: %+v", i, cue)
		}
		if i > 0 && cue.Start < cues[i-1].End {
			t.Fatalf("cue %d overlaps previous: %+v %+v", i, cues[i-1], cue)
		}
	}
	if last := cues[len(cues)-1]; last.End > total {
		t.Fatalf("final cue end %v exceeds audio duration %v", last.End, total)
	}
}

func TestChunkKeepsWordsBeforeTrailingBlankTiming(t *testing.T) {
	// Providers pad their streams with blank timing events; words accumulated
	// before the padding must still come out.
	words := []WordTiming{
		{Text: "Hello", Offset: 0, Duration: 5000000},
		{Text: "world.", Offset: 5000000, Duration: 5000000},
		{Text: "  ", Offset: 10000000, Duration: 1000000},
	}
	cues := ChunkWords(words, false)
	if len(cues) != 1 {
		t.Fatalf("expected a single cue, got %d: %+v", len(cues), cues)
	}
	if cues[0].Text != "Hello world." {
		t.Fatalf("unexpected text: %q", cues[0].Text)
	}
	if cues[0].End != 1 {
		t.Fatalf("cue should end with the last real word, got %v", cues[0].End)
	}
}

func TestChunkTextFallbackSpreadsEvenly(t *testing.T) {
	text := strings.Repeat("word ", 40) // 200 chars
	cues := ChunkText(strings.TrimSpace(text), 100, 10)
	if len(cues) != 2 {
		t.Fatalf("expected 2 chunks under a 100-char budget, got %d", len(cues))
	}
	if cues[0].Start != 0 || cues[0].End != 5 || cues[1].Start != 5 || cues[1].End != 10 {
		t.Fatalf("expected even spread: %+v", cues)
	}
	for _, cue := range cues {
		if len(cue.Text) > 100 {
			t.Fatalf("chunk exceeds budget: %d chars", len(cue.Text))
		}
	}
}

func TestChunkTextBudgetCountsRunesNotBytes(t *testing.T) {
	// "नमस्ते" is 6 runes but 18 bytes; two words plus a space fit a 13-char
	// budget exactly, a byte count would split after every word.
	text := "नमस्ते नमस्ते नमस्ते"
	cues := ChunkText(text, 13, 6)
	if len(cues) != 2 {
		t.Fatalf("expected 2 chunks under a 13-char budget, got %d: %+v", len(cues), cues)
	}
	if cues[0].Text != "नमस्ते नमस्ते" {
		t.Fatalf("unexpected first chunk: %q", cues[0].Text)
	}
	if cues[1].Text != "नमस्ते" {
		t.Fatalf("unexpected second chunk: %q", cues[1].Text)
	}
}

func TestChunkTextEmptyInputs(t *testing.T) {
	if cues := ChunkText("", 100, 10); cues != nil {
		t.Fatalf("expected nil for empty text, got %+v", cues)
	}
	if cues := ChunkText("hello", 100, 0); cues != nil {
		t.Fatalf("expected nil for unknown duration, got %+v", cues)
	}
}

func TestClampToDuration(t *testing.T) {
	cues := []Cue{
		{Index: 1, Start: 0, End: 4, Text: "a"},
		{Index: 2, Start: 4, End: 9, Text: "b"},
		{Index: 3, Start: 9, End: 12, Text: "c"},
	}
	clamped := ClampToDuration(cues, 8)
	if len(clamped) != 2 {
		t.Fatalf("expected cue past the end to be dropped, got %d", len(clamped))
	}
	if clamped[1].End != 8 {
		t.Fatalf("expected last cue clamped to 8, got %v", clamped[1].End)
	}
	if clamped[0].Index != 1 || clamped[1].Index != 2 {
		t.Fatalf("expected reindexing, got %+v", clamped)
	}
}
