// Package llm talks to hosted large-language-model APIs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sambhav874/tuition-teacher/internal/attachment"
	"github.com/sambhav874/tuition-teacher/internal/domain"
	"github.com/sambhav874/tuition-teacher/internal/normalize"
)

// Provider names accepted by New.
const (
	ProviderGoogle     = "google"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrMissingAPIKey is returned when the selected provider has no key.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrUnknownProvider is returned for unsupported provider names.
	ErrUnknownProvider = errors.New("unknown LLM provider")
)

// Turn is one prior exchange in the conversation history.
type Turn struct {
	Role domain.Role
	Text string
}

// Request is a single generation call.
type Request struct {
	System      string
	History     []Turn
	Prompt      string
	Attachments []attachment.Attachment
	Mode        domain.Mode
}

// Generator produces model text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Model returns the model identifier used for generation.
	Model() string
}

// Config selects and configures a provider.
type Config struct {
	Provider   string
	Model      string
	ImageModel string
	APIKey     string
}

// Default model identifiers per provider.
var defaultModels = map[string]string{
	ProviderGoogle:     "gemini-2.5-flash",
	ProviderOpenRouter: "google/gemini-2.5-flash",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderAnthropic:  "claude-3-5-haiku-latest",
}

// attachmentOnlyPrompt stands in for the prompt when a turn has no text and
// none of its attachments can be sent to the provider.
const attachmentOnlyPrompt = "(The student sent an attachment without any text.)"

// DefaultImageModel is the Gemini model used for illustrations.
const DefaultImageModel = "gemini-2.5-flash-image"

// New builds the Generator for cfg.Provider. The Illustrator is nil for
// providers without image generation.
func New(ctx context.Context, cfg Config) (Generator, normalize.Illustrator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderGoogle
	}
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("%s: %w", provider, ErrMissingAPIKey)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModels[provider]
	}

	switch provider {
	case ProviderGoogle:
		imageModel := cfg.ImageModel
		if imageModel == "" {
			imageModel = DefaultImageModel
		}
		g, err := NewGemini(ctx, cfg.APIKey, model, imageModel)
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	case ProviderOpenRouter:
		return NewOpenRouter(cfg.APIKey, model), nil, nil
	case ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, model), nil, nil
	case ProviderAnthropic:
		return NewAnthropic(cfg.APIKey, model), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// KnownProvider reports whether name is a supported provider.
func KnownProvider(name string) bool {
	_, ok := defaultModels[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

// imageAttachments filters attachments down to images, for providers that
// cannot accept audio inline.
func imageAttachments(atts []attachment.Attachment) []attachment.Attachment {
	var out []attachment.Attachment
	for _, a := range atts {
		if a.IsImage() {
			out = append(out, a)
		}
	}
	return out
}

// Ensure providers implement Generator.
var (
	_ Generator             = (*Gemini)(nil)
	_ Generator             = (*OpenRouter)(nil)
	_ Generator             = (*OpenAI)(nil)
	_ Generator             = (*Anthropic)(nil)
	_ normalize.Illustrator = (*Gemini)(nil)
)
