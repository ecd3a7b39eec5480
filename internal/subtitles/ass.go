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

// Style holds the ASS rendering parameters the export pipeline can override
// per segment.
type Style struct {
	FontName     string
	FontSize     int
	PrimaryColor string
	MarginV      int
	BorderStyle  int
	Outline      float64
	Shadow       float64
}

// DefaultStyle returns the baseline subtitle appearance.
func DefaultStyle() Style {
	return Style{
		FontName:     "Roboto",
		FontSize:     20,
		PrimaryColor: "&H00FFFFFF",
		MarginV:      30,
		BorderStyle:  1,
		Outline:      0.5,
		Shadow:       0,
	}
}

var languageFonts = map[string]string{
	"en": "Roboto", "english": "Roboto",
	"fr": "Roboto", "french": "Roboto",
	"hi": "Noto Sans Devanagari", "hindi": "Noto Sans Devanagari",
	"ta": "Noto Sans Tamil", "tamil": "Noto Sans Tamil",
	"te": "Noto Sans Telugu", "telugu": "Noto Sans Telugu",
	"kn": "Noto Sans Kannada", "kannada": "Noto Sans Kannada",
	"ml": "Noto Sans Malayalam", "malayalam": "Noto Sans Malayalam",
	"ko": "Noto Sans KR", "korean": "Noto Sans KR",
}

// FontForLanguage maps a language code or name to a renderable font family.
// Both bare codes ("hi") and full names ("hindi") are accepted; locale tags
// like "hi-IN" fall back to the code prefix.
func FontForLanguage(language string) string {
	key := strings.ToLower(strings.TrimSpace(language))
	if font, ok := languageFonts[key]; ok {
		return font
	}
	if len(key) > 2 {
		if font, ok := languageFonts[key[:2]]; ok {
			return font
		}
	}
	return "Roboto"
}

// normalize fills zero-value fields from the default style.
func (s Style) normalize() Style {
	def := DefaultStyle()
	if strings.TrimSpace(s.FontName) == "" {
		s.FontName = def.FontName
	}
	if s.FontSize <= 0 {
		s.FontSize = def.FontSize
	}
	if strings.TrimSpace(s.PrimaryColor) == "" {
		s.PrimaryColor = def.PrimaryColor
	}
	if s.MarginV <= 0 {
		s.MarginV = def.MarginV
	}
	if s.BorderStyle <= 0 {
		s.BorderStyle = def.BorderStyle
	}
	// An outlined style with no outline and no shadow leaves white text
	// unreadable on bright video; fall back to the opaque box.
	if s.BorderStyle == 1 && s.Outline == 0 && s.Shadow == 0 {
		s.BorderStyle = 3
	}
	return s
}

// WriteASS renders the cues as a complete ASS document with one Default
// style. Display resolution follows the target video so margins scale
// predictably.
func WriteASS(w io.Writer, cues []Cue, style Style, playResX, playResY int) error {
	style = style.normalize()
	if playResX <= 0 || playResY <= 0 {
		playResX, playResY = 1920, 1080
	}

	buffered := bufio.NewWriter(w)
	fmt.Fprintf(buffered, "[Script Info]\nScriptType: v4.00+\nPlayResX: %d\nPlayResY: %d\nWrapStyle: 0\n\n", playResX, playResY)

	buffered.WriteString("[V4+ Styles]\n")
	buffered.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(buffered, "Style: Default,%s,%d,%s,&H000000FF,&H00000000,&H80000000,-1,0,0,0,100,100,0,0,%d,%s,%s,2,10,10,%d,0\n\n",
		style.FontName, style.FontSize, style.PrimaryColor,
		style.BorderStyle, formatASSFloat(style.Outline), formatASSFloat(style.Shadow), style.MarginV)

	buffered.WriteString("[Events]\n")
	buffered.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, cue := range cues {
		fmt.Fprintf(buffered, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTimestamp(cue.Start), formatASSTimestamp(cue.End), escapeASSText(cue.Text))
	}
	return buffered.Flush()
}

// WriteASSFile writes the cues as a styled ASS document at path.
func WriteASSFile(path string, cues []Cue, style Style, playResX, playResY int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create subtitle directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create subtitle file: %w", err)
	}
	defer file.Close()
	if err := WriteASS(file, cues, style, playResX, playResY); err != nil {
		return fmt.Errorf("write styled subtitles: %w", err)
	}
	return nil
}

// formatASSTimestamp renders seconds as H:MM:SS.cc with rounded centiseconds.
func formatASSTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalCentis := int64(math.Round(seconds * 100))
	centis := totalCentis % 100
	totalSeconds := totalCentis / 100
	return fmt.Sprintf("%d:%02d:%02d.%02d",
		totalSeconds/3600, (totalSeconds/60)%60, totalSeconds%60, centis)
}

func formatASSFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func escapeASSText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", `\N`)
}
