package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	openrouter "github.com/revrost/go-openrouter"

	"github.com/sambhav874/tuition-teacher/internal/attachment"
	"github.com/sambhav874/tuition-teacher/internal/domain"
)

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, _, err := New(context.Background(), Config{Provider: ProviderOpenAI})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	t.Parallel()

	_, _, err := New(context.Background(), Config{Provider: "carrier-pigeon", APIKey: "k"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestNewSelectsProviderAndDefaultModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider       string
		wantModel      string
		wantIllustrate bool
	}{
		{ProviderOpenRouter, "google/gemini-2.5-flash", false},
		{ProviderOpenAI, "gpt-4o-mini", false},
		{ProviderAnthropic, "claude-3-5-haiku-latest", false},
	}
	for _, tt := range tests {
		gen, ill, err := New(context.Background(), Config{Provider: tt.provider, APIKey: "test-key"})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.provider, err)
		}
		if gen.Model() != tt.wantModel {
			t.Errorf("%s: model = %q, want %q", tt.provider, gen.Model(), tt.wantModel)
		}
		if (ill != nil) != tt.wantIllustrate {
			t.Errorf("%s: illustrator presence = %v", tt.provider, ill != nil)
		}
	}
}

func TestNewGoogleProvidesIllustrator(t *testing.T) {
	t.Parallel()

	gen, ill, err := New(context.Background(), Config{APIKey: "test-key", Model: "gemini-custom"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Model() != "gemini-custom" {
		t.Errorf("model = %q", gen.Model())
	}
	if ill == nil {
		t.Fatal("expected gemini to provide an illustrator")
	}
}

func TestKnownProvider(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"google", "OpenRouter", " openai ", "anthropic"} {
		if !KnownProvider(name) {
			t.Errorf("expected %q to be known", name)
		}
	}
	if KnownProvider("ollama") {
		t.Error("ollama should not be known")
	}
}

func TestImageAttachmentsDropsAudio(t *testing.T) {
	t.Parallel()

	got := imageAttachments([]attachment.Attachment{
		{MIMEType: "image/jpeg"},
		{MIMEType: "audio/webm"},
		{MIMEType: "image/png"},
	})
	if len(got) != 2 || got[0].MIMEType != "image/jpeg" || got[1].MIMEType != "image/png" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
}

func TestResponseSchemaPerMode(t *testing.T) {
	t.Parallel()

	if responseSchema(domain.ModeNotes) != nil {
		t.Error("notes should not be schema constrained")
	}
	if responseSchema(domain.ModeMockTest) != mockTestSchema {
		t.Error("mock test should use the mock test schema")
	}
	if responseSchema(domain.ModeEnglishTutor) != standardSchema {
		t.Error("english tutor should use the standard schema")
	}
}

var (
	testImage = attachment.Attachment{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}
	testAudio = attachment.Attachment{MIMEType: "audio/webm", Data: []byte{0x1a, 0x45}}
)

func TestGeminiUserContentSkipsEmptyText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		prompt    string
		atts      []attachment.Attachment
		wantParts int
	}{
		{"text only", "hello", nil, 1},
		{"audio only", "", []attachment.Attachment{testAudio}, 1},
		{"image with blank text", "   ", []attachment.Attachment{testImage}, 1},
		{"text and image", "what is this?", []attachment.Attachment{testImage}, 2},
		{"nothing", "", nil, 1},
	}
	for _, tt := range tests {
		content := geminiUserContent(tt.prompt, tt.atts)
		if content.Role != "user" {
			t.Errorf("%s: role = %q", tt.name, content.Role)
		}
		if len(content.Parts) != tt.wantParts {
			t.Fatalf("%s: got %d parts, want %d", tt.name, len(content.Parts), tt.wantParts)
		}
		for i, part := range content.Parts {
			if strings.TrimSpace(part.Text) == "" && part.InlineData == nil {
				t.Errorf("%s: part %d carries no data", tt.name, i)
			}
		}
	}
}

func TestOpenAIUserMessageSkipsEmptyText(t *testing.T) {
	t.Parallel()

	for _, images := range [][]attachment.Attachment{nil, {testImage}} {
		data, err := json.Marshal(openAIUserMessage("", images))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body := string(data)
		if strings.Contains(body, `"text":""`) || strings.Contains(body, `"content":""`) {
			t.Errorf("message has empty text: %s", body)
		}
	}

	data, err := json.Marshal(openAIUserMessage("hi", []attachment.Attachment{testImage}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "hi") || !strings.Contains(string(data), "data:image/jpeg;base64,") {
		t.Errorf("unexpected message: %s", data)
	}
}

func TestOpenRouterUserMessageSkipsEmptyText(t *testing.T) {
	t.Parallel()

	msg := openRouterUserMessage("", []attachment.Attachment{testImage})
	if len(msg.Content.Multi) != 1 || msg.Content.Multi[0].Type != openrouter.ChatMessagePartTypeImageURL {
		t.Fatalf("expected a single image part, got %+v", msg.Content.Multi)
	}

	msg = openRouterUserMessage(" ", nil)
	if msg.Content.Text != attachmentOnlyPrompt {
		t.Errorf("text = %q, want stand-in prompt", msg.Content.Text)
	}

	msg = openRouterUserMessage("hi", nil)
	if msg.Content.Text != "hi" || msg.Role != openrouter.ChatMessageRoleUser {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestAnthropicUserBlocksSkipsEmptyText(t *testing.T) {
	t.Parallel()

	blocks := anthropicUserBlocks("", []attachment.Attachment{testImage})
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"type":"text"`) {
		t.Errorf("image-only turn should have no text block: %s", data)
	}

	blocks = anthropicUserBlocks("", nil)
	data, err = json.Marshal(blocks)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"text":""`) {
		t.Errorf("empty text block sent: %s", data)
	}
}
