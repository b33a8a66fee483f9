package domain

import (
	"encoding/json"
)

// VideoRef points at a helpful video or video search.
type VideoRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

// Quiz is a single multiple-choice question.
type Quiz struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Reference is a source or further-reading link.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Flashcard is a term/definition pair produced in notes mode.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// QuestionType classifies a mock test question.
type QuestionType string

const (
	QuestionObjective   QuestionType = "objective"
	QuestionTheoretical QuestionType = "theoretical"
	QuestionNumerical   QuestionType = "numerical"
)

// MockTestQuestion is one question of a generated mock test.
type MockTestQuestion struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Question string       `json:"question"`
	Options  []string     `json:"options,omitempty"`
	Answer   string       `json:"answer,omitempty"`
	Solution string       `json:"solution,omitempty"`
	Marks    float64      `json:"marks"`
}

// MockTest is the legacy mock test shape stored directly on metadata.
type MockTest struct {
	Title     string             `json:"title"`
	Questions []MockTestQuestion `json:"questions"`
}

// MockTestPayload is the schema-driven shape stored under metadata.data.
type MockTestPayload struct {
	TestTitle string             `json:"testTitle"`
	Questions []MockTestQuestion `json:"questions"`
}

// MessageMetadata carries the structured extras of an agent reply. Type
// names the mode whose fields are populated.
type MessageMetadata struct {
	Type         Mode            `json:"type,omitempty"`
	Tricks       []string        `json:"tricks,omitempty"`
	Illustration string          `json:"illustration,omitempty"`
	Videos       []VideoRef      `json:"videos,omitempty"`
	Quiz         *Quiz           `json:"quiz,omitempty"`
	MockTest     *MockTest       `json:"mockTest,omitempty"`
	Flashcards   []Flashcard     `json:"flashcards,omitempty"`
	References   []Reference     `json:"references,omitempty"`
	Topic        string          `json:"topic,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// MockTestQuestions returns the questions of a mock test reply, reading the
// schema-driven data.questions first and the legacy mockTest second.
func (m *MessageMetadata) MockTestQuestions() []MockTestQuestion {
	if m == nil {
		return nil
	}
	if len(m.Data) > 0 {
		var payload MockTestPayload
		if err := json.Unmarshal(m.Data, &payload); err == nil && len(payload.Questions) > 0 {
			return payload.Questions
		}
	}
	if m.MockTest != nil {
		return m.MockTest.Questions
	}
	return nil
}

// HasExtras reports whether any mode field beyond Type and Data is set.
func (m *MessageMetadata) HasExtras() bool {
	if m == nil {
		return false
	}
	return len(m.Tricks) > 0 ||
		m.Illustration != "" ||
		len(m.Videos) > 0 ||
		m.Quiz != nil ||
		m.MockTest != nil ||
		len(m.Flashcards) > 0 ||
		len(m.References) > 0 ||
		m.Topic != "" ||
		m.Summary != ""
}

// Clone returns a deep copy of m.
func (m MessageMetadata) Clone() MessageMetadata {
	out := m
	out.Tricks = cloneSlice(m.Tricks)
	out.Videos = cloneSlice(m.Videos)
	out.Flashcards = cloneSlice(m.Flashcards)
	out.References = cloneSlice(m.References)
	if m.Data != nil {
		out.Data = append(json.RawMessage(nil), m.Data...)
	}
	if m.Quiz != nil {
		q := *m.Quiz
		q.Options = cloneSlice(m.Quiz.Options)
		out.Quiz = &q
	}
	if m.MockTest != nil {
		mt := *m.MockTest
		mt.Questions = cloneSlice(m.MockTest.Questions)
		out.MockTest = &mt
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append([]T(nil), in...)
}
