package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/ocrsub/internal/frames"
)

// implements Backend using OpenAI Chat Completions with image input. Images
// travel inline, so nothing is stored server side and Delete has no work.
type OpenAIBackend struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAIBackend(
	ctx context.Context,
	opts Options,
) (*OpenAIBackend, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(opts.APIKey))

	model := opts.Model
	if model == "" {
		model = "gpt-5-mini"
	}

	return &OpenAIBackend{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (b *OpenAIBackend) Name() string {
	return string(ProviderOpenAI)
}

func (b *OpenAIBackend) Preamble() int {
	return 0
}

func (b *OpenAIBackend) Create(ctx context.Context, img frames.Image) (*Document, error) {
	return loadInlineDocument(img)
}

func (b *OpenAIBackend) Export(ctx context.Context, doc *Document, w io.Writer) error {
	dataURL := fmt.Sprintf(
		"data:%s;base64,%s",
		doc.MIMEType,
		base64.StdEncoding.EncodeToString(doc.Data),
	)

	completion, err := b.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
					openai.TextContentPart(buildPrompt(b.options)),
					openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: dataURL,
					}),
				}),
			},
			Model: b.model,
		},
	)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	text, err := b.parseResponse(completion)
	if err != nil {
		return err
	}

	return writeTextExport(w, text)
}

func (b *OpenAIBackend) Delete(ctx context.Context, doc *Document) error {
	doc.Data = nil
	return nil
}

func (b *OpenAIBackend) parseResponse(completion *openai.ChatCompletion) (string, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	responseText := completion.Choices[0].Message.Content
	if responseText == "" {
		return "", fmt.Errorf("no text in OpenAI response")
	}

	return cleanTextResponse(responseText), nil
}

// reads img into a Document for backends that send images inline
func loadInlineDocument(img frames.Image) (*Document, error) {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", img.Path)
	}
	return &Document{
		ID:       uuid.NewString(),
		MIMEType: img.MIMEType(),
		Data:     data,
	}, nil
}
