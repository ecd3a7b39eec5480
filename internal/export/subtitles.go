package export

import (
	"errors"
	"strings"

	"dubber/internal/subtitles"
	"dubber/internal/timeline"
)

// buildStyledSubtitles converts a segment's cached SRT cues into a styled ASS
// document sized for the target video.
func buildStyledSubtitles(seg *timeline.Segment, tl *timeline.Timeline, assPath string) error {
	cues, err := subtitles.ReadSRTFile(seg.SubtitlePath)
	if err != nil {
		return err
	}
	if len(cues) == 0 {
		return errors.New("subtitle file has no cues")
	}

	style := subtitles.Style{
		FontName:     seg.Style.FontName,
		FontSize:     seg.Style.FontSize,
		PrimaryColor: seg.Style.PrimaryColor,
		MarginV:      seg.Style.MarginV,
		BorderStyle:  seg.Style.BorderStyle,
		Outline:      seg.Style.Outline,
		Shadow:       seg.Style.Shadow,
	}
	if strings.TrimSpace(style.FontName) == "" {
		style.FontName = subtitles.FontForLanguage(seg.Language)
	}
	return subtitles.WriteASSFile(assPath, cues, style, tl.Width, tl.Height)
}
