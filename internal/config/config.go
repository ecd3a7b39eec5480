package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ProjectsDir string `toml:"projects_dir"`
	TempDir     string `toml:"temp_dir"`
	CacheDir    string `toml:"cache_dir"`
	OutputDir   string `toml:"output_dir"`
	LogDir      string `toml:"log_dir"`
}

// Media contains the media engine binaries and encode parameters.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	VideoCodec    string `toml:"video_codec"`
	AudioCodec    string `toml:"audio_codec"`
	Preset        string `toml:"preset"`
	BalancedCRF   int    `toml:"balanced_crf"`
	HighCRF       int    `toml:"high_crf"`
	LosslessCRF   int    `toml:"lossless_crf"`
	// ProcessTimeout bounds a single subprocess invocation, in seconds.
	ProcessTimeout int `toml:"process_timeout"`
}

// Synthesis contains the speech synthesis transport settings.
type Synthesis struct {
	Endpoint       string `toml:"endpoint"`
	ProxyURL       string `toml:"proxy_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
	BackoffBase    int    `toml:"backoff_base_seconds"`
	BackoffCap     int    `toml:"backoff_cap_seconds"`
}

// Mix contains background music mixing parameters.
type Mix struct {
	VoiceBoostDB     int     `toml:"voice_boost_db"`
	MusicReductionDB int     `toml:"music_reduction_db"`
	FadeSeconds      float64 `toml:"fade_seconds"`
}

// Subtitles contains subtitle generation settings.
type Subtitles struct {
	Enabled bool `toml:"enabled"`
	// Fallback chunking character budgets, used when the provider sends no
	// word timings.
	CharBudgetHorizontal int `toml:"char_budget_horizontal"`
	CharBudgetVertical   int `toml:"char_budget_vertical"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dubber.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Media     Media     `toml:"media"`
	Synthesis Synthesis `toml:"synthesis"`
	Mix       Mix       `toml:"mix"`
	Subtitles Subtitles `toml:"subtitles"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dubber/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dubber.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories dubber needs to operate.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ProjectsDir, c.Paths.TempDir, c.Paths.CacheDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CRFForQuality maps a quality preset name to its CRF value.
func (c *Config) CRFForQuality(quality string) int {
	switch strings.ToLower(strings.TrimSpace(quality)) {
	case "lossless":
		return c.Media.LosslessCRF
	case "high":
		return c.Media.HighCRF
	default:
		return c.Media.BalancedCRF
	}
}

// PresetForQuality maps a quality preset name to the encoder preset.
func (c *Config) PresetForQuality(quality string) string {
	switch strings.ToLower(strings.TrimSpace(quality)) {
	case "lossless", "high":
		return "slow"
	default:
		return c.Media.Preset
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
