package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mgpai22/ocrsub/internal/frames"
)

// implements Backend using Anthropic Claude image input
type AnthropicBackend struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicBackend(
	ctx context.Context,
	opts Options,
) (*AnthropicBackend, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(opts.APIKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicBackend{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (b *AnthropicBackend) Name() string {
	return string(ProviderAnthropic)
}

func (b *AnthropicBackend) Preamble() int {
	return 0
}

func (b *AnthropicBackend) Create(ctx context.Context, img frames.Image) (*Document, error) {
	return loadInlineDocument(img)
}

func (b *AnthropicBackend) Export(ctx context.Context, doc *Document, w io.Writer) error {
	message, err := b.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     b.model,
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewImageBlockBase64(
						doc.MIMEType,
						base64.StdEncoding.EncodeToString(doc.Data),
					),
					anthropic.NewTextBlock(buildPrompt(b.options)),
				),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	text, err := b.parseResponse(message)
	if err != nil {
		return err
	}

	return writeTextExport(w, text)
}

func (b *AnthropicBackend) Delete(ctx context.Context, doc *Document) error {
	doc.Data = nil
	return nil
}

func (b *AnthropicBackend) parseResponse(message *anthropic.Message) (string, error) {
	if message == nil || len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	if responseText == "" {
		return "", fmt.Errorf("no text in Anthropic response")
	}

	return cleanTextResponse(responseText), nil
}
