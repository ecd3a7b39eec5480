package subtitles

import (
	"strings"
	"unicode/utf8"
)

// TicksPerSecond is the resolution of provider word timings (100ns ticks).
const TicksPerSecond = 1e7

// WordTiming is one word from the synthesis provider's timing stream.
// Offset and Duration are in 100-nanosecond ticks. Never persisted.
type WordTiming struct {
	Text     string
	Offset   int64
	Duration int64
}

// StartSeconds returns the word's start time in seconds.
func (w WordTiming) StartSeconds() float64 {
	return float64(w.Offset) / TicksPerSecond
}

// EndSeconds returns the word's end time in seconds.
func (w WordTiming) EndSeconds() float64 {
	return float64(w.Offset+w.Duration) / TicksPerSecond
}

// Cue is one subtitle entry. Start and End are seconds.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// chunkTargets are the per-orientation duration bounds for a cue.
type chunkTargets struct {
	max float64
	min float64
}

func targetsForOrientation(vertical bool) chunkTargets {
	if vertical {
		return chunkTargets{max: 3.0, min: 1.5}
	}
	return chunkTargets{max: 4.0, min: 2.0}
}

// minimum silence between words that counts as a natural pause.
const pauseGapSeconds = 0.150

var conjunctionWords = map[string]bool{
	"and": true, "but": true, "or": true, "so": true,
	"yet": true, "then": true, "also": true,
}

// ChunkWords converts a word timing stream into cues with natural-looking
// boundaries. vertical selects the tighter duration targets used for
// vertical and square videos.
func ChunkWords(words []WordTiming, vertical bool) []Cue {
	targets := targetsForOrientation(vertical)

	var cues []Cue
	var chunk []string
	var chunkStart, chunkEnd float64

	for i, word := range words {
		text := strings.TrimSpace(word.Text)
		if text == "" {
			continue
		}
		if len(chunk) == 0 {
			chunkStart = word.StartSeconds()
		}
		chunk = append(chunk, text)
		chunkEnd = word.EndSeconds()
		duration := chunkEnd - chunkStart

		breakHere := false
		switch {
		case endsSentence(text) && duration >= 0.7*targets.max:
			breakHere = true
		case (pauseToken(text) || gapAfter(words, i) >= pauseGapSeconds) && duration >= 0.8*targets.max:
			breakHere = true
		case duration >= 1.1*targets.max:
			breakHere = true
		}
		// Orphan micro-chunks read badly; hold the break until the chunk
		// reaches the minimum.
		if breakHere && duration < targets.min {
			breakHere = false
		}

		if breakHere {
			cues = append(cues, Cue{
				Index: len(cues) + 1,
				Start: chunkStart,
				End:   chunkEnd,
				Text:  strings.Join(chunk, " "),
			})
			chunk = chunk[:0]
		}
	}
	// Flush whatever the final words accumulated. Providers pad their streams
	// with blank timings, so the last word is not necessarily the last entry.
	if len(chunk) > 0 {
		cues = append(cues, Cue{
			Index: len(cues) + 1,
			Start: chunkStart,
			End:   chunkEnd,
			Text:  strings.Join(chunk, " "),
		})
	}
	return cues
}

// ChunkText is the fallback when no word timings are available: split the
// text by a character budget and spread the chunks evenly across the known
// audio duration.
func ChunkText(text string, charBudget int, audioDuration float64) []Cue {
	words := strings.Fields(text)
	if len(words) == 0 || audioDuration <= 0 {
		return nil
	}
	if charBudget <= 0 {
		charBudget = 100
	}

	// The budget counts characters, not bytes: multi-byte scripts would hit
	// a byte budget several times too early.
	var chunks []string
	var current strings.Builder
	currentRunes := 0
	for _, word := range words {
		wordRunes := utf8.RuneCountInString(word)
		if currentRunes > 0 && currentRunes+1+wordRunes > charBudget {
			chunks = append(chunks, current.String())
			current.Reset()
			currentRunes = 0
		}
		if currentRunes > 0 {
			current.WriteByte(' ')
			currentRunes++
		}
		current.WriteString(word)
		currentRunes += wordRunes
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	per := audioDuration / float64(len(chunks))
	cues := make([]Cue, 0, len(chunks))
	for i, chunk := range chunks {
		cues = append(cues, Cue{
			Index: i + 1,
			Start: float64(i) * per,
			End:   float64(i+1) * per,
			Text:  chunk,
		})
	}
	return cues
}

// ClampToDuration caps the final cue's end at the measured audio duration.
// Cues that would collapse to nothing are dropped.
func ClampToDuration(cues []Cue, audioDuration float64) []Cue {
	if audioDuration <= 0 {
		return cues
	}
	clamped := cues[:0]
	for _, cue := range cues {
		if cue.Start >= audioDuration {
			continue
		}
		if cue.End > audioDuration {
			cue.End = audioDuration
		}
		cue.Index = len(clamped) + 1
		clamped = append(clamped, cue)
	}
	return clamped
}

func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?")
}

func pauseToken(word string) bool {
	if strings.HasSuffix(word, ",") || strings.HasSuffix(word, ";") ||
		strings.HasSuffix(word, ":") || strings.HasSuffix(word, "-") {
		return true
	}
	return conjunctionWords[strings.ToLower(strings.Trim(word, ".,;:!?-"))]
}

// gapAfter returns the silence between word i and the next word, in seconds.
func gapAfter(words []WordTiming, i int) float64 {
	if i+1 >= len(words) {
		return 0
	}
	gap := words[i+1].StartSeconds() - words[i].EndSeconds()
	if gap < 0 {
		return 0
	}
	return gap
}
