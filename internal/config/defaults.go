package config

const (
	defaultProjectsDir = "~/.local/share/dubber/projects"
	defaultTempDir     = "~/.local/share/dubber/temp"
	defaultCacheDir    = "~/.cache/dubber"
	defaultOutputDir   = "~/dubber-output"
	defaultLogDir      = "~/.local/share/dubber/logs"

	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultVideoCodec     = "libx264"
	defaultAudioCodec     = "aac"
	defaultPreset         = "medium"
	defaultBalancedCRF    = 23
	defaultHighCRF        = 18
	defaultLosslessCRF    = 0
	defaultProcessTimeout = 300

	defaultSynthesisTimeoutSeconds = 30
	defaultSynthesisMaxAttempts    = 3
	defaultSynthesisBackoffBase    = 4
	defaultSynthesisBackoffCap     = 10

	defaultVoiceBoostDB     = 3
	defaultMusicReductionDB = 16
	defaultFadeSeconds      = 3.0

	defaultCharBudgetHorizontal = 100
	defaultCharBudgetVertical   = 45

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectsDir: defaultProjectsDir,
			TempDir:     defaultTempDir,
			CacheDir:    defaultCacheDir,
			OutputDir:   defaultOutputDir,
			LogDir:      defaultLogDir,
		},
		Media: Media{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			VideoCodec:     defaultVideoCodec,
			AudioCodec:     defaultAudioCodec,
			Preset:         defaultPreset,
			BalancedCRF:    defaultBalancedCRF,
			HighCRF:        defaultHighCRF,
			LosslessCRF:    defaultLosslessCRF,
			ProcessTimeout: defaultProcessTimeout,
		},
		Synthesis: Synthesis{
			TimeoutSeconds: defaultSynthesisTimeoutSeconds,
			MaxAttempts:    defaultSynthesisMaxAttempts,
			BackoffBase:    defaultSynthesisBackoffBase,
			BackoffCap:     defaultSynthesisBackoffCap,
		},
		Mix: Mix{
			VoiceBoostDB:     defaultVoiceBoostDB,
			MusicReductionDB: defaultMusicReductionDB,
			FadeSeconds:      defaultFadeSeconds,
		},
		Subtitles: Subtitles{
			Enabled:              true,
			CharBudgetHorizontal: defaultCharBudgetHorizontal,
			CharBudgetVertical:   defaultCharBudgetVertical,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
