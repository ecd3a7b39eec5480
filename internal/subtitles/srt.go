package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// FormatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm).
// Milliseconds are rounded, not truncated, with overflow carried into the
// larger units.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	millis := totalMillis % 1000
	totalSeconds := totalMillis / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d",
		totalSeconds/3600, (totalSeconds/60)%60, totalSeconds%60, millis)
}

// WriteSRT serializes the cues in SRT interchange format.
func WriteSRT(w io.Writer, cues []Cue) error {
	buffered := bufio.NewWriter(w)
	for i, cue := range cues {
		index := cue.Index
		if index == 0 {
			index = i + 1
		}
		fmt.Fprintf(buffered, "%d\n%s --> %s\n%s\n\n",
			index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), strings.TrimSpace(cue.Text))
	}
	return buffered.Flush()
}

// ParseSRT reads cues back from SRT interchange format. Malformed blocks are
// skipped rather than failing the whole file.
func ParseSRT(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cues []Cue
	var block []string
	flush := func() {
		if cue, ok := parseBlock(block); ok {
			cue.Index = len(cues) + 1
			cues = append(cues, cue)
		}
		block = block[:0]
	}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	flush()
	return cues, nil
}

// ReadSRTFile parses the SRT file at path.
func ReadSRTFile(path string) ([]Cue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subtitle file: %w", err)
	}
	defer file.Close()
	return ParseSRT(file)
}

func parseBlock(block []string) (Cue, bool) {
	// Index line, timing line, then one or more text lines. The index line
	// is optional in files written by other tools.
	timingIdx := -1
	for i, line := range block {
		if strings.Contains(line, "-->") {
			timingIdx = i
			break
		}
	}
	if timingIdx < 0 || timingIdx+1 >= len(block) {
		return Cue{}, false
	}
	startRaw, endRaw, _ := strings.Cut(block[timingIdx], "-->")
	start, okStart := parseTimestamp(startRaw)
	end, okEnd := parseTimestamp(endRaw)
	if !okStart || !okEnd {
		return Cue{}, false
	}
	return Cue{
		Start: start,
		End:   end,
		Text:  strings.Join(block[timingIdx+1:], "\n"),
	}, true
}

// parseTimestamp accepts HH:MM:SS,mmm (comma or dot millisecond separator).
func parseTimestamp(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ".", ","))
	var h, m, s, ms int
	if _, err := fmt.Sscanf(raw, "%d:%d:%d,%d", &h, &m, &s, &ms); err != nil {
		return 0, false
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, true
}

// WriteSRTFile writes the cues to path, creating parent directories.
func WriteSRTFile(path string, cues []Cue) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create subtitle directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create subtitle file: %w", err)
	}
	defer file.Close()
	if err := WriteSRT(file, cues); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	return nil
}
