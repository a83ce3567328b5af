package config

import (
	"fmt"
	"os"
	"strings"
)

// API key variables by provider
var apiKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

const driveCredentialsEnv = "OCRSUB_DRIVE_CREDENTIALS"

func (c *Config) normalize() error {
	c.normalizeOCR()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRun()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeOCR() {
	c.OCR.Provider = strings.ToLower(strings.TrimSpace(c.OCR.Provider))
	if c.OCR.Provider == "" {
		c.OCR.Provider = defaultProvider
	}
	c.OCR.Model = strings.TrimSpace(c.OCR.Model)
	c.OCR.Language = strings.TrimSpace(c.OCR.Language)
	if c.OCR.CleanupTimeout <= 0 {
		c.OCR.CleanupTimeout = defaultCleanupTimeout
	}

	c.ApplyEnv()
}

// ApplyEnv overrides credentials with environment variables for the
// configured provider. Call again after changing the provider.
func (c *Config) ApplyEnv() {
	if name, ok := apiKeyEnv[c.OCR.Provider]; ok {
		if value, ok := lookupEnv(name); ok {
			c.OCR.APIKey = value
		}
	}
	if value, ok := lookupEnv(driveCredentialsEnv); ok {
		c.OCR.CredentialsFile = value
	}
}

func lookupEnv(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TextDir) == "" {
		c.Paths.TextDir = defaultTextDir
	}
	if strings.TrimSpace(c.Paths.Output) == "" {
		c.Paths.Output = defaultOutput
	}
	if c.OCR.CredentialsFile, err = expandPath(c.OCR.CredentialsFile); err != nil {
		return fmt.Errorf("ocr.credentials_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeRun() {
	c.Run.Format = strings.ToLower(strings.TrimSpace(c.Run.Format))
	if c.Run.Format == "" {
		c.Run.Format = defaultFormat
	}
	if c.Run.Burst <= 0 {
		c.Run.Burst = defaultBurst
	}

	exts := make([]string, 0, len(c.Run.Extensions))
	for _, ext := range c.Run.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Run.Extensions = exts
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
