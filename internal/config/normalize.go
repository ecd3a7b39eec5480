package config

import "strings"

// normalize expands paths and fills zero values with defaults so later code
// never needs to re-check.
func (c *Config) normalize() error {
	defaults := Default()

	for _, field := range []struct {
		value    *string
		fallback string
	}{
		{&c.Paths.ProjectsDir, defaults.Paths.ProjectsDir},
		{&c.Paths.TempDir, defaults.Paths.TempDir},
		{&c.Paths.CacheDir, defaults.Paths.CacheDir},
		{&c.Paths.OutputDir, defaults.Paths.OutputDir},
		{&c.Paths.LogDir, defaults.Paths.LogDir},
	} {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(*field.value)
		if err != nil {
			return err
		}
		*field.value = expanded
	}

	if strings.TrimSpace(c.Media.FFmpegBinary) == "" {
		c.Media.FFmpegBinary = defaults.Media.FFmpegBinary
	}
	if strings.TrimSpace(c.Media.FFprobeBinary) == "" {
		c.Media.FFprobeBinary = defaults.Media.FFprobeBinary
	}
	if strings.TrimSpace(c.Media.VideoCodec) == "" {
		c.Media.VideoCodec = defaults.Media.VideoCodec
	}
	if strings.TrimSpace(c.Media.AudioCodec) == "" {
		c.Media.AudioCodec = defaults.Media.AudioCodec
	}
	if strings.TrimSpace(c.Media.Preset) == "" {
		c.Media.Preset = defaults.Media.Preset
	}
	if c.Media.BalancedCRF <= 0 {
		c.Media.BalancedCRF = defaults.Media.BalancedCRF
	}
	if c.Media.HighCRF <= 0 {
		c.Media.HighCRF = defaults.Media.HighCRF
	}
	if c.Media.LosslessCRF < 0 {
		c.Media.LosslessCRF = defaults.Media.LosslessCRF
	}
	if c.Media.ProcessTimeout <= 0 {
		c.Media.ProcessTimeout = defaults.Media.ProcessTimeout
	}

	if c.Synthesis.TimeoutSeconds <= 0 {
		c.Synthesis.TimeoutSeconds = defaults.Synthesis.TimeoutSeconds
	}
	if c.Synthesis.MaxAttempts <= 0 {
		c.Synthesis.MaxAttempts = defaults.Synthesis.MaxAttempts
	}
	if c.Synthesis.BackoffBase <= 0 {
		c.Synthesis.BackoffBase = defaults.Synthesis.BackoffBase
	}
	if c.Synthesis.BackoffCap <= 0 {
		c.Synthesis.BackoffCap = defaults.Synthesis.BackoffCap
	}
	c.Synthesis.Endpoint = strings.TrimSpace(c.Synthesis.Endpoint)
	c.Synthesis.ProxyURL = strings.TrimSpace(c.Synthesis.ProxyURL)

	if c.Mix.VoiceBoostDB == 0 {
		c.Mix.VoiceBoostDB = defaults.Mix.VoiceBoostDB
	}
	if c.Mix.MusicReductionDB == 0 {
		c.Mix.MusicReductionDB = defaults.Mix.MusicReductionDB
	}
	if c.Mix.FadeSeconds <= 0 {
		c.Mix.FadeSeconds = defaults.Mix.FadeSeconds
	}

	if c.Subtitles.CharBudgetHorizontal <= 0 {
		c.Subtitles.CharBudgetHorizontal = defaults.Subtitles.CharBudgetHorizontal
	}
	if c.Subtitles.CharBudgetVertical <= 0 {
		c.Subtitles.CharBudgetVertical = defaults.Subtitles.CharBudgetVertical
	}

	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}

	return nil
}
