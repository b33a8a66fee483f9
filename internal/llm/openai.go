package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sambhav874/tuition-teacher/internal/attachment"
	"github.com/sambhav874/tuition-teacher/internal/domain"
)

// OpenAI generates replies with the OpenAI chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI generator.
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{client: &client, model: model}
}

// Model returns the model name.
func (o *OpenAI) Model() string {
	return o.model
}

// Generate sends the conversation and returns the reply text.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, t := range req.History {
		if t.Role == domain.RoleAgent {
			messages = append(messages, openai.AssistantMessage(t.Text))
		} else {
			messages = append(messages, openai.UserMessage(t.Text))
		}
	}

	messages = append(messages, openAIUserMessage(req.Prompt, imageAttachments(req.Attachments)))

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return completion.Choices[0].Message.Content, nil
}

// openAIUserMessage builds the current turn without empty text content.
func openAIUserMessage(prompt string, images []attachment.Attachment) openai.ChatCompletionMessageParamUnion {
	if len(images) == 0 {
		if !hasText(prompt) {
			prompt = attachmentOnlyPrompt
		}
		return openai.UserMessage(prompt)
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(images)+1)
	if hasText(prompt) {
		parts = append(parts, openai.TextContentPart(prompt))
	}
	for _, img := range images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: img.DataURI(),
		}))
	}
	return openai.UserMessage(parts)
}
