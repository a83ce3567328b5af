package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mgpai22/ocrsub/internal/frames"
)

// ErrEmptyExport means the backend returned a zero-byte text export. It is
// kept apart from a document that only holds preamble lines, which yields "".
var ErrEmptyExport = errors.New("backend returned an empty export")

// Document is a transient conversion resource created from one image.
type Document struct {
	// remote handle passed to Export and Delete
	ID       string
	URI      string
	MIMEType string
	// image bytes for backends that keep nothing server side
	Data []byte
}

// Backend is a document-OCR service: create a document from an image with
// text conversion, export it as plain text, delete it.
type Backend interface {
	Name() string
	// Preamble is the number of leading lines the conversion prepends to
	// every text export.
	Preamble() int
	Create(ctx context.Context, img frames.Image) (*Document, error)
	Export(ctx context.Context, doc *Document, w io.Writer) error
	Delete(ctx context.Context, doc *Document) error
}

// RemoteServiceError wraps any failure talking to the OCR backend.
type RemoteServiceError struct {
	Backend string
	Op      string
	Image   string
	Err     error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Backend, e.Op, e.Image, e.Err)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// OCR service provider
type Provider string

const (
	ProviderDrive     Provider = "drive"
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Providers lists every supported provider.
func Providers() []Provider {
	return []Provider{ProviderDrive, ProviderGemini, ProviderOpenAI, ProviderAnthropic}
}

// backend options
type Options struct {
	APIKey string
	// Drive service account or authorized user JSON; empty means ADC
	CredentialsFile string
	Model           string
	// language hint, e.g. "en" or "japanese"
	Language string
	// Drive resumable upload chunk size in bytes
	ChunkSize int
	Prompt    string
}

// creates Backend based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	opts Options,
) (Backend, error) {
	switch provider {
	case ProviderDrive:
		return NewDriveBackend(ctx, opts)
	case ProviderGemini:
		return NewGeminiBackend(ctx, opts)
	case ProviderOpenAI:
		return NewOpenAIBackend(ctx, opts)
	case ProviderAnthropic:
		return NewAnthropicBackend(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s", provider)
	}
}

// marker the LLM backends are asked to answer with for frames without text
const noTextMarker = "NO_TEXT"

// builds the OCR prompt for LLM backends
func buildPrompt(opts Options) string {
	var sb strings.Builder

	sb.WriteString("This image is a cropped video frame containing a subtitle. ")
	sb.WriteString("Transcribe all of the subtitle text exactly as it appears, preserving line breaks. ")
	sb.WriteString("Do not translate, correct, or describe the image. ")

	if opts.Language != "" {
		sb.WriteString(fmt.Sprintf("The text is in %s. ", opts.Language))
	}

	if opts.Prompt != "" {
		sb.WriteString(opts.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString(fmt.Sprintf("If the image contains no text, answer with exactly %s. ", noTextMarker))
	sb.WriteString("Return ONLY the text, no commentary or markdown formatting.")

	return sb.String()
}

// normalizes an LLM answer into a plain text export body
func cleanTextResponse(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = ""
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if s == noTextMarker {
		return ""
	}
	return s
}

// writes an LLM answer as a newline-terminated text document, so "no text"
// still produces a non-empty export
func writeTextExport(w io.Writer, text string) error {
	_, err := io.WriteString(w, text+"\n")
	return err
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
