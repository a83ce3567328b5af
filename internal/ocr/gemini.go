package ocr

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/genai"

	"github.com/mgpai22/ocrsub/internal/frames"
)

// implements Backend using the Gemini Files API and a vision prompt
type GeminiBackend struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiBackend(ctx context.Context, opts Options) (*GeminiBackend, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiBackend{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (b *GeminiBackend) Name() string {
	return string(ProviderGemini)
}

func (b *GeminiBackend) Preamble() int {
	return 0
}

// uploads the image; the uploaded file is the remote document
func (b *GeminiBackend) Create(ctx context.Context, img frames.Image) (*Document, error) {
	uploaded, err := b.client.Files.UploadFromPath(ctx, img.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	mimeType := uploaded.MIMEType
	if mimeType == "" {
		mimeType = img.MIMEType()
	}

	return &Document{
		ID:       uploaded.Name,
		URI:      uploaded.URI,
		MIMEType: mimeType,
	}, nil
}

func (b *GeminiBackend) Export(ctx context.Context, doc *Document, w io.Writer) error {
	parts := []*genai.Part{
		genai.NewPartFromText(buildPrompt(b.options)),
		genai.NewPartFromURI(doc.URI, doc.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := b.client.Models.GenerateContent(ctx, b.model, contents, nil)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	text, err := b.parseResponse(result)
	if err != nil {
		return err
	}

	return writeTextExport(w, text)
}

func (b *GeminiBackend) Delete(ctx context.Context, doc *Document) error {
	if _, err := b.client.Files.Delete(ctx, doc.ID, nil); err != nil {
		return fmt.Errorf("failed to delete uploaded image: %w", err)
	}
	return nil
}

func (b *GeminiBackend) parseResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
		if responseText != "" {
			break
		}
	}

	if responseText == "" {
		return "", fmt.Errorf("no text in Gemini response")
	}

	return cleanTextResponse(responseText), nil
}
