package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sambhav874/tuition-teacher/internal/attachment"
	"github.com/sambhav874/tuition-teacher/internal/domain"
	"github.com/sambhav874/tuition-teacher/internal/prompt"
	"google.golang.org/genai"
)

// Gemini generates replies and illustrations with the Google Gen AI SDK.
type Gemini struct {
	client     *genai.Client
	model      string
	imageModel string
}

// NewGemini creates a Gemini client for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model, imageModel string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, imageModel: imageModel}, nil
}

// Model returns the text model name.
func (g *Gemini) Model() string {
	return g.model
}

// Generate sends the conversation and returns the JSON text of the reply.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		role := "user"
		if t.Role == domain.RoleAgent {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Text}},
		})
	}

	contents = append(contents, geminiUserContent(req.Prompt, req.Attachments))

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(req.Mode),
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Illustrate renders description as a simple line drawing.
func (g *Gemini) Illustrate(ctx context.Context, description string) ([]byte, string, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: description + prompt.IllustrationSuffix}},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.imageModel, contents, nil)
	if err != nil {
		return nil, "", fmt.Errorf("gemini illustrate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, "", nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, part.InlineData.MIMEType, nil
		}
	}
	return nil, "", nil
}

// geminiUserContent builds the current turn. Parts without data are
// rejected by the API, so an empty prompt adds no text part.
func geminiUserContent(prompt string, atts []attachment.Attachment) *genai.Content {
	parts := make([]*genai.Part, 0, len(atts)+1)
	if hasText(prompt) {
		parts = append(parts, &genai.Part{Text: prompt})
	}
	for _, a := range atts {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: a.MIMEType, Data: a.Data},
		})
	}
	if len(parts) == 0 {
		parts = append(parts, &genai.Part{Text: attachmentOnlyPrompt})
	}
	return &genai.Content{Role: "user", Parts: parts}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// responseSchema constrains standard-shaped and mock test replies. Notes
// are requested as free-form JSON.
func responseSchema(mode domain.Mode) *genai.Schema {
	switch mode {
	case domain.ModeNotes:
		return nil
	case domain.ModeMockTest:
		return mockTestSchema
	default:
		return standardSchema
	}
}

var str = &genai.Schema{Type: genai.TypeString}

var standardSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"content": {Type: genai.TypeString, Description: "The main response content in Markdown format."},
		"metadata": {
			Type:        genai.TypeObject,
			Description: "Optional metadata for the response.",
			Properties: map[string]*genai.Schema{
				"tricks": {
					Type:        genai.TypeArray,
					Items:       str,
					Description: "List of memory tricks or mnemonics.",
				},
				"illustration": {
					Type:        genai.TypeString,
					Description: "A detailed description of a simple, black-and-white line drawing that would help explain this concept.",
				},
				"videos": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"id": str, "title": str, "url": str, "thumbnail": str,
						},
						Required: []string{"id", "title", "url", "thumbnail"},
					},
					Description: "List of helpful YouTube videos.",
				},
				"quiz": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"question": str,
						"options":  {Type: genai.TypeArray, Items: str},
						"answer":   str,
					},
					Required:    []string{"question", "options", "answer"},
					Description: "A quick quiz question to test understanding.",
				},
				"references": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type:       genai.TypeObject,
						Properties: map[string]*genai.Schema{"title": str, "url": str},
						Required:   []string{"title", "url"},
					},
					Description: "List of references or sources.",
				},
			},
		},
	},
	Required: []string{"content"},
}

var mockTestSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"testTitle": {Type: genai.TypeString, Description: "The title of the mock test."},
		"questions": {
			Type:        genai.TypeArray,
			Description: "The list of questions in the mock test.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":       {Type: genai.TypeString, Description: "A unique identifier for the question."},
					"type":     {Type: genai.TypeString, Enum: []string{"objective", "theoretical", "numerical"}},
					"question": {Type: genai.TypeString, Description: "The question text."},
					"options":  {Type: genai.TypeArray, Items: str, Description: "Options for objective questions."},
					"answer":   {Type: genai.TypeString, Description: "The correct answer for objective questions."},
					"solution": {Type: genai.TypeString, Description: "The detailed solution for theoretical or numerical questions."},
					"marks":    {Type: genai.TypeNumber, Description: "The marks assigned to this question."},
				},
				Required: []string{"id", "type", "question", "marks"},
			},
		},
	},
	Required: []string{"testTitle", "questions"},
}
