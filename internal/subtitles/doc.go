// Package subtitles turns provider word timings into subtitle cues and
// serializes them as SRT or styled ASS. Chunk boundaries follow sentence
// ends, pause tokens, and silence gaps, bounded by per-orientation duration
// targets; a character-budget fallback covers providers that send no word
// timings.
package subtitles
