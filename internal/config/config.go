package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// OCR selects and configures the recognition backend.
type OCR struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	// Drive service account or authorized user JSON
	CredentialsFile string `toml:"credentials_file"`
	Model           string `toml:"model"`
	Language        string `toml:"language"`
	Prompt          string `toml:"prompt"`
	// Drive resumable upload chunk size in bytes, 0 for the client default
	ChunkSize int `toml:"chunk_size"`
	// seconds allowed for deleting a remote document after a failure
	CleanupTimeout int `toml:"cleanup_timeout"`
}

// Paths contains input and output locations.
type Paths struct {
	TextDir string `toml:"text_dir"`
	Output  string `toml:"output"`
}

// Run controls how a batch is processed.
type Run struct {
	Concurrency int `toml:"concurrency"`
	// requests per second across all workers; 0 disables limiting
	Rate       float64  `toml:"rate"`
	Burst      int      `toml:"burst"`
	FailFast   bool     `toml:"fail_fast"`
	ReuseCache bool     `toml:"reuse_cache"`
	Extensions []string `toml:"extensions"`
	Format     string   `toml:"format"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format  string `toml:"format"`
	Verbose bool   `toml:"verbose"`
}

// Config encapsulates all configuration values for ocrsub.
type Config struct {
	OCR     OCR     `toml:"ocr"`
	Paths   Paths   `toml:"paths"`
	Run     Run     `toml:"run"`
	Logging Logging `toml:"logging"`
}

// files read into the environment before normalization; existing variables win
var envFiles = []string{".env"}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ocrsub/config.toml")
}

// Load locates, parses, and validates a configuration file. It also reads
// .env files and applies environment overrides. A missing file is not an
// error; the defaults are used instead.
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
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadEnvFiles(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ocrsub.toml")
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

// ExpandPath exposes the path expansion rules for flag values.
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
