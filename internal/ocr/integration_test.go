package ocr

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mgpai22/ocrsub/internal/frames"
)

// writeBlankFrame writes a white strip the size of a cropped subtitle line.
func writeBlankFrame(t *testing.T) frames.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.White)
		}
	}

	path := filepath.Join(t.TempDir(), "0_00_01_000__0_00_02_000_blank.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create frame: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return frames.NewImage(path)
}

func runBlankFrame(t *testing.T, provider Provider, opts Options) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend, err := Factory(ctx, provider, opts)
	if err != nil {
		t.Fatalf("Factory error: %v", err)
	}

	r := NewRecognizer(backend, RecognizerOptions{TextDir: t.TempDir()})
	text, err := r.Recognize(ctx, writeBlankFrame(t))
	if err != nil {
		t.Fatalf("Recognize error: %v", err)
	}
	if text != "" {
		t.Errorf("blank frame recognized as %q", text)
	}
}

// Integration test: only runs if GEMINI_API_KEY is set
func TestGeminiBackendIntegration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set; skipping integration test")
	}
	runBlankFrame(t, ProviderGemini, Options{APIKey: apiKey})
}

// Integration test: only runs if OPENAI_API_KEY is set
func TestOpenAIBackendIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set; skipping integration test")
	}
	runBlankFrame(t, ProviderOpenAI, Options{APIKey: apiKey})
}

// Integration test: only runs if OCRSUB_DRIVE_CREDENTIALS is set
func TestDriveBackendIntegration(t *testing.T) {
	creds := os.Getenv("OCRSUB_DRIVE_CREDENTIALS")
	if creds == "" {
		t.Skip("OCRSUB_DRIVE_CREDENTIALS not set; skipping integration test")
	}
	runBlankFrame(t, ProviderDrive, Options{CredentialsFile: creds})
}

// Integration test: only runs if ANTHROPIC_API_KEY is set
func TestAnthropicBackendIntegration(t *testing.T) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		t.Skip("ANTHROPIC_API_KEY not set; skipping integration test")
	}
	runBlankFrame(t, ProviderAnthropic, Options{APIKey: apiKey})
}
