package normalize

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sambhav874/tuition-teacher/internal/domain"
)

const (
	defaultImageMIME     = "image/png"
	defaultMockTestTitle = "Mock Test"
)

// Illustrator renders a text description into an image.
// A nil data slice with a nil error means no image was produced.
type Illustrator interface {
	Illustrate(ctx context.Context, description string) (data []byte, mimeType string, err error)
}

// Reply is a normalized agent message.
type Reply struct {
	Content  string
	Metadata *domain.MessageMetadata
	Stage    Stage
}

// Normalizer maps model output onto message metadata for a mode.
type Normalizer struct {
	illustrator Illustrator
	logger      *slog.Logger
}

// New creates a Normalizer. illustrator may be nil, in which case
// illustrations are kept as text descriptions.
func New(illustrator Illustrator, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{illustrator: illustrator, logger: logger}
}

// Normalize parses raw model output for mode. Output that holds no JSON
// object becomes plain content with no metadata.
func (n *Normalizer) Normalize(ctx context.Context, raw string, mode domain.Mode) Reply {
	obj, stage, err := ExtractJSON(raw)
	if err != nil {
		n.logger.Warn("model output is not JSON, using raw text", "mode", mode, "length", len(raw))
		return Reply{Content: raw, Stage: StageFallback}
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(obj, &fields); err != nil {
		return Reply{Content: raw, Stage: StageFallback}
	}

	md := &domain.MessageMetadata{Type: mode, Data: obj}
	var content string

	switch mode {
	case domain.ModeNotes:
		content = stringField(fields, "content")
		md.Topic = stringField(fields, "topic")
		md.Summary = stringField(fields, "summary")
		decodeField(fields, "flashcards", &md.Flashcards)
		md.Illustration = stringField(fields, "illustration")
	case domain.ModeMockTest:
		content = mockTestContent(stringField(fields, "testTitle"))
	default:
		content = stringField(fields, "content")
		var meta map[string]json.RawMessage
		if decodeField(fields, "metadata", &meta) {
			mergeStandard(md, meta)
		}
	}

	// A stray object in prose, or JSON with nothing to show, reads better as text.
	if strings.TrimSpace(content) == "" && !md.HasExtras() {
		n.logger.Warn("model JSON has no displayable fields, using raw text", "mode", mode, "stage", stage)
		return Reply{Content: raw, Stage: StageFallback}
	}

	if mode != domain.ModeMockTest {
		n.illustrate(ctx, md)
	}

	return Reply{Content: content, Metadata: md, Stage: stage}
}

func (n *Normalizer) illustrate(ctx context.Context, md *domain.MessageMetadata) {
	if n.illustrator == nil || md.Illustration == "" || strings.HasPrefix(md.Illustration, "data:image") {
		return
	}

	data, mimeType, err := n.illustrator.Illustrate(ctx, md.Illustration)
	if err != nil {
		n.logger.Warn("illustration generation failed, keeping description", "error", err)
		return
	}
	if len(data) == 0 {
		return
	}
	if mimeType == "" {
		mimeType = defaultImageMIME
	}
	md.Illustration = fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func mockTestContent(title string) string {
	if strings.TrimSpace(title) == "" {
		title = defaultMockTestTitle
	}
	return fmt.Sprintf("### %s\n\nHere is your mock test. Please answer the questions below.", title)
}

func mergeStandard(md *domain.MessageMetadata, meta map[string]json.RawMessage) {
	decodeField(meta, "tricks", &md.Tricks)
	md.Illustration = stringField(meta, "illustration")
	decodeField(meta, "videos", &md.Videos)
	var quiz domain.Quiz
	if decodeField(meta, "quiz", &quiz) && quiz.Question != "" {
		md.Quiz = &quiz
	}
	var mockTest domain.MockTest
	if decodeField(meta, "mockTest", &mockTest) && len(mockTest.Questions) > 0 {
		md.MockTest = &mockTest
	}
	decodeField(meta, "references", &md.References)
}

// decodeField decodes fields[key] into dst, ignoring absent or mistyped values.
func decodeField(fields map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := fields[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var s string
	decodeField(fields, key, &s)
	return s
}
