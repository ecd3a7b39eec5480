package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration values that normalization cannot repair.
func (c *Config) Validate() error {
	if c.Media.BalancedCRF < 0 || c.Media.BalancedCRF > 51 {
		return fmt.Errorf("media.balanced_crf must be within [0, 51], got %d", c.Media.BalancedCRF)
	}
	if c.Media.HighCRF < 0 || c.Media.HighCRF > 51 {
		return fmt.Errorf("media.high_crf must be within [0, 51], got %d", c.Media.HighCRF)
	}
	if c.Media.LosslessCRF < 0 || c.Media.LosslessCRF > 51 {
		return fmt.Errorf("media.lossless_crf must be within [0, 51], got %d", c.Media.LosslessCRF)
	}
	if c.Synthesis.BackoffCap < c.Synthesis.BackoffBase {
		return fmt.Errorf("synthesis.backoff_cap_seconds (%d) must not be below backoff_base_seconds (%d)",
			c.Synthesis.BackoffCap, c.Synthesis.BackoffBase)
	}
	if c.Mix.VoiceBoostDB < 0 {
		return fmt.Errorf("mix.voice_boost_db must not be negative, got %d", c.Mix.VoiceBoostDB)
	}
	if c.Mix.MusicReductionDB < 0 {
		return fmt.Errorf("mix.music_reduction_db must not be negative, got %d", c.Mix.MusicReductionDB)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
