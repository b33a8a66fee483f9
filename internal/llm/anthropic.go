package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sambhav874/tuition-teacher/internal/attachment"
	"github.com/sambhav874/tuition-teacher/internal/domain"
)

const anthropicMaxTokens = 8192

// Anthropic generates replies with the Anthropic Messages API.
type Anthropic struct {
	client *anthropic.Client
	model  string
}

// NewAnthropic creates an Anthropic generator.
func NewAnthropic(apiKey, model string) *Anthropic {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Anthropic{client: &client, model: model}
}

// Model returns the model name.
func (a *Anthropic) Model() string {
	return a.model
}

// Generate sends the conversation and returns the concatenated text blocks.
func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, t := range req.History {
		if t.Role == domain.RoleAgent {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Text)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Text)))
		}
	}

	messages = append(messages, anthropic.NewUserMessage(anthropicUserBlocks(req.Prompt, imageAttachments(req.Attachments))...))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

// anthropicUserBlocks builds the current turn. The API rejects empty text
// blocks, so an empty prompt adds none.
func anthropicUserBlocks(prompt string, images []attachment.Attachment) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(images)+1)
	if hasText(prompt) {
		blocks = append(blocks, anthropic.NewTextBlock(prompt))
	}
	for _, img := range images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)))
	}
	if len(blocks) == 0 {
		blocks = append(blocks, anthropic.NewTextBlock(attachmentOnlyPrompt))
	}
	return blocks
}
