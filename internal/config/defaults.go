package config

const (
	defaultProvider       = "drive"
	defaultTextDir        = "TXTResults"
	defaultOutput         = "subtitle_output.srt"
	defaultFormat         = "srt"
	defaultConcurrency    = 1
	defaultBurst          = 1
	defaultCleanupTimeout = 30
	defaultLogFormat      = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		OCR: OCR{
			Provider:       defaultProvider,
			CleanupTimeout: defaultCleanupTimeout,
		},
		Paths: Paths{
			TextDir: defaultTextDir,
			Output:  defaultOutput,
		},
		Run: Run{
			Concurrency: defaultConcurrency,
			Burst:       defaultBurst,
			Extensions:  []string{".jpeg", ".jpg", ".png", ".bmp"},
			Format:      defaultFormat,
		},
		Logging: Logging{
			Format: defaultLogFormat,
		},
	}
}
