package config

import (
	"errors"
	"fmt"

	"github.com/mgpai22/ocrsub/internal/ocr"
	"github.com/mgpai22/ocrsub/internal/subtitle"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOCR() error {
	known := false
	for _, p := range ocr.Providers() {
		if string(p) == c.OCR.Provider {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("ocr.provider %q is not supported (use one of %v)", c.OCR.Provider, ocr.Providers())
	}
	if c.OCR.ChunkSize < 0 {
		return errors.New("ocr.chunk_size must not be negative")
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.Concurrency < 1 {
		return errors.New("run.concurrency must be at least 1")
	}
	if c.Run.Rate < 0 {
		return errors.New("run.rate must not be negative")
	}
	if len(c.Run.Extensions) == 0 {
		return errors.New("run.extensions must list at least one extension")
	}
	if _, err := subtitle.ParseFormat(c.Run.Format); err != nil {
		return fmt.Errorf("run.format: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format %q must be auto, console, or json", c.Logging.Format)
	}
}
