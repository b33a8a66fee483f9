package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sambhav874/tuition-teacher/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIllustrator struct {
	data  []byte
	mime  string
	err   error
	calls []string
}

func (f *fakeIllustrator) Illustrate(_ context.Context, description string) ([]byte, string, error) {
	f.calls = append(f.calls, description)
	return f.data, f.mime, f.err
}

func TestExtractJSONStages(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantStage Stage
		wantKey   string
		wantErr   bool
	}{
		{
			name:      "valid json",
			raw:       `{"content":"hi"}`,
			wantStage: StageDirect,
			wantKey:   "content",
		},
		{
			name:      "fenced block",
			raw:       "Here you go:\n```json\n{\"content\":\"fenced\"}\n```\nEnjoy!",
			wantStage: StageFenced,
			wantKey:   "content",
		},
		{
			name:      "bare fence",
			raw:       "```\n{\"topic\":\"x\"}\n```",
			wantStage: StageFenced,
			wantKey:   "topic",
		},
		{
			name:      "surrounding prose",
			raw:       `Sure! {"content":"braced","metadata":{"tricks":["a"]}} Hope this helps.`,
			wantStage: StageBraces,
			wantKey:   "metadata",
		},
		{
			name:    "no json",
			raw:     "Just a friendly sentence.",
			wantErr: true,
		},
		{
			name:    "array is not an object",
			raw:     `[1,2,3]`,
			wantErr: true,
		},
		{
			name:    "broken braces",
			raw:     `answer: {"content": "unterminated}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, stage, err := ExtractJSON(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoJSON)
				assert.Equal(t, StageFallback, stage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStage, stage)

			var m map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(obj, &m))
			assert.Contains(t, m, tt.wantKey)
		})
	}
}

func TestNormalizeFallsBackToRawText(t *testing.T) {
	n := New(nil, nil)
	raw := "I could not format this as JSON."

	reply := n.Normalize(context.Background(), raw, domain.ModeStandard)

	assert.Equal(t, raw, reply.Content)
	assert.Nil(t, reply.Metadata)
	assert.Equal(t, StageFallback, reply.Stage)
}

func TestNormalizeStandardCopiesMetadata(t *testing.T) {
	n := New(nil, nil)
	raw := `{
		"content": "Photosynthesis turns light into food.",
		"metadata": {
			"tricks": ["Plants cook with sunlight"],
			"videos": [{"id":"v1","title":"Photosynthesis","url":"https://www.youtube.com/results?search_query=photosynthesis","thumbnail":""}],
			"quiz": {"question":"What do plants need?","options":["Light","Sand"],"answer":"Light"},
			"references": [{"title":"Biology 101","url":"https://example.org"}]
		}
	}`

	reply := n.Normalize(context.Background(), raw, domain.ModeStandard)

	require.NotNil(t, reply.Metadata)
	assert.Equal(t, StageDirect, reply.Stage)
	assert.Equal(t, "Photosynthesis turns light into food.", reply.Content)
	assert.Equal(t, domain.ModeStandard, reply.Metadata.Type)
	assert.Equal(t, []string{"Plants cook with sunlight"}, reply.Metadata.Tricks)
	require.Len(t, reply.Metadata.Videos, 1)
	require.NotNil(t, reply.Metadata.Quiz)
	assert.Equal(t, "Light", reply.Metadata.Quiz.Answer)
	require.Len(t, reply.Metadata.References, 1)
	assert.JSONEq(t, raw, string(reply.Metadata.Data))
}

func TestNormalizeStandardIgnoresMistypedFields(t *testing.T) {
	n := New(nil, nil)
	raw := `{"content":"ok","metadata":{"tricks":"not a list","quiz":{"question":"Q","options":["a"],"answer":"a"}}}`

	reply := n.Normalize(context.Background(), raw, domain.ModeEnglishTutor)

	require.NotNil(t, reply.Metadata)
	assert.Equal(t, domain.ModeEnglishTutor, reply.Metadata.Type)
	assert.Nil(t, reply.Metadata.Tricks)
	require.NotNil(t, reply.Metadata.Quiz)
}

func TestNormalizeNotes(t *testing.T) {
	n := New(nil, nil)
	raw := "```json\n" + `{"topic":"Cells","content":"# Cells\nThe unit of life.","summary":"Cells are small.","flashcards":[{"front":"Cell","back":"Basic unit of life"}]}` + "\n```"

	reply := n.Normalize(context.Background(), raw, domain.ModeNotes)

	require.NotNil(t, reply.Metadata)
	assert.Equal(t, StageFenced, reply.Stage)
	assert.Equal(t, "# Cells\nThe unit of life.", reply.Content)
	assert.Equal(t, "Cells", reply.Metadata.Topic)
	assert.Equal(t, "Cells are small.", reply.Metadata.Summary)
	assert.Equal(t, []domain.Flashcard{{Front: "Cell", Back: "Basic unit of life"}}, reply.Metadata.Flashcards)
}

func TestNormalizeMockTest(t *testing.T) {
	ill := &fakeIllustrator{data: []byte("png")}
	n := New(ill, nil)
	raw := `{"testTitle":"Algebra Basics","questions":[{"id":"1","type":"numerical","question":"Solve x+1=2","solution":"x=1","marks":2}]}`

	reply := n.Normalize(context.Background(), raw, domain.ModeMockTest)

	assert.Equal(t, "### Algebra Basics\n\nHere is your mock test. Please answer the questions below.", reply.Content)
	require.NotNil(t, reply.Metadata)
	assert.Equal(t, domain.ModeMockTest, reply.Metadata.Type)
	qs := reply.Metadata.MockTestQuestions()
	require.Len(t, qs, 1)
	assert.Equal(t, domain.QuestionNumerical, qs[0].Type)
	assert.Equal(t, float64(2), qs[0].Marks)
	assert.Empty(t, ill.calls)
}

func TestNormalizeIllustrationReplacedWithImage(t *testing.T) {
	ill := &fakeIllustrator{data: []byte{0x89, 'P', 'N', 'G'}}
	n := New(ill, nil)
	raw := `{"content":"c","metadata":{"illustration":"A sun shining on a leaf"}}`

	reply := n.Normalize(context.Background(), raw, domain.ModeStandard)

	require.Equal(t, []string{"A sun shining on a leaf"}, ill.calls)
	assert.Equal(t, "data:image/png;base64,iVBORw==", reply.Metadata.Illustration)
}

func TestNormalizeIllustrationFailureKeepsDescription(t *testing.T) {
	ill := &fakeIllustrator{err: errors.New("quota exceeded")}
	n := New(ill, nil)
	raw := `{"content":"c","metadata":{"illustration":"A triangle"}}`

	reply := n.Normalize(context.Background(), raw, domain.ModeStandard)

	assert.Equal(t, "A triangle", reply.Metadata.Illustration)
}

func TestNormalizeIllustrationEmptyResultKeepsDescription(t *testing.T) {
	ill := &fakeIllustrator{}
	n := New(ill, nil)
	raw := `{"content":"c","metadata":{"illustration":"A square"}}`

	reply := n.Normalize(context.Background(), raw, domain.ModeStandard)

	assert.Len(t, ill.calls, 1)
	assert.Equal(t, "A square", reply.Metadata.Illustration)
}

func TestNormalizeEmbeddedIllustrationSkipsGeneration(t *testing.T) {
	ill := &fakeIllustrator{data: []byte("x")}
	n := New(ill, nil)
	raw := `{"content":"c","metadata":{"illustration":"data:image/png;base64,AAAA"}}`

	reply := n.Normalize(context.Background(), raw, domain.ModeStandard)

	assert.Empty(t, ill.calls)
	assert.Equal(t, "data:image/png;base64,AAAA", reply.Metadata.Illustration)
}

func TestNormalizeProseWithStrayObjectKeepsRawText(t *testing.T) {
	n := New(nil, nil)
	raw := `Great question! In code you might write {"x": 1} to build an object.`

	reply := n.Normalize(context.Background(), raw, domain.ModeStandard)

	assert.Equal(t, raw, reply.Content)
	assert.Nil(t, reply.Metadata)
	assert.Equal(t, StageFallback, reply.Stage)
}

func TestNormalizeMetadataWithoutContentKeepsMetadata(t *testing.T) {
	n := New(nil, nil)
	raw := `{"metadata":{"quiz":{"question":"2+2?","options":["3","4"],"answer":"4"}}}`

	reply := n.Normalize(context.Background(), raw, domain.ModeStandard)

	assert.Empty(t, reply.Content)
	assert.Equal(t, StageDirect, reply.Stage)
	require.NotNil(t, reply.Metadata)
	require.NotNil(t, reply.Metadata.Quiz)
	assert.Equal(t, "4", reply.Metadata.Quiz.Answer)
}

func TestNormalizeMockTestWithoutTitle(t *testing.T) {
	n := New(nil, nil)
	raw := `{"questions":[{"id":"1","type":"objective","question":"1+1?","options":["2","3"],"answer":"2","marks":1}]}`

	reply := n.Normalize(context.Background(), raw, domain.ModeMockTest)

	assert.Equal(t, "### Mock Test\n\nHere is your mock test. Please answer the questions below.", reply.Content)
	require.NotNil(t, reply.Metadata)
	assert.Len(t, reply.Metadata.MockTestQuestions(), 1)
}
