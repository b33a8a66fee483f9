package llm

import (
	"context"
	"fmt"

	openrouter "github.com/revrost/go-openrouter"
	"github.com/sambhav874/tuition-teacher/internal/attachment"
	"github.com/sambhav874/tuition-teacher/internal/domain"
)

// OpenRouter generates replies through the OpenRouter chat completions API.
// Audio attachments are dropped; images are sent as image_url parts.
type OpenRouter struct {
	client *openrouter.Client
	model  string
}

// NewOpenRouter creates an OpenRouter generator.
func NewOpenRouter(apiKey, model string) *OpenRouter {
	return &OpenRouter{client: openrouter.NewClient(apiKey), model: model}
}

// Model returns the model slug.
func (o *OpenRouter) Model() string {
	return o.model
}

// Generate sends the conversation and returns the reply text.
func (o *OpenRouter) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]openrouter.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openrouter.ChatCompletionMessage{
			Role:    openrouter.ChatMessageRoleSystem,
			Content: openrouter.Content{Text: req.System},
		})
	}
	for _, t := range req.History {
		role := openrouter.ChatMessageRoleUser
		if t.Role == domain.RoleAgent {
			role = openrouter.ChatMessageRoleAssistant
		}
		messages = append(messages, openrouter.ChatCompletionMessage{
			Role:    role,
			Content: openrouter.Content{Text: t.Text},
		})
	}

	messages = append(messages, openRouterUserMessage(req.Prompt, imageAttachments(req.Attachments)))

	resp, err := o.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content.Text == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content.Text, nil
}

// openRouterUserMessage builds the current turn without empty text content.
func openRouterUserMessage(prompt string, images []attachment.Attachment) openrouter.ChatCompletionMessage {
	msg := openrouter.ChatCompletionMessage{Role: openrouter.ChatMessageRoleUser}
	if len(images) == 0 {
		if !hasText(prompt) {
			prompt = attachmentOnlyPrompt
		}
		msg.Content = openrouter.Content{Text: prompt}
		return msg
	}

	parts := make([]openrouter.ChatMessagePart, 0, len(images)+1)
	if hasText(prompt) {
		parts = append(parts, openrouter.ChatMessagePart{
			Type: openrouter.ChatMessagePartTypeText,
			Text: prompt,
		})
	}
	for _, img := range images {
		parts = append(parts, openrouter.ChatMessagePart{
			Type:     openrouter.ChatMessagePartTypeImageURL,
			ImageURL: &openrouter.ChatMessageImageURL{URL: img.DataURI()},
		})
	}
	msg.Content = openrouter.Content{Multi: parts}
	return msg
}
