package session

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sambhav874/tuition-teacher/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	n := 0
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return New(domain.NewAppState(),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
}

func TestCreateSessionIsEmptyAndActive(t *testing.T) {
	s := newTestStore()

	first := s.CreateSession()
	second := s.CreateSession()

	current, ok := s.CurrentSessionID()
	require.True(t, ok)
	assert.Equal(t, second, current)

	sess, ok := s.Session(second)
	require.True(t, ok)
	assert.Empty(t, sess.Messages)
	assert.Equal(t, domain.DefaultSessionTitle, sess.Title)
	assert.Equal(t, sess.CreatedAt, sess.UpdatedAt)

	list := s.Sessions()
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
}

func TestAddMessageFirstUserMessageSetsTitle(t *testing.T) {
	s := newTestStore()
	id := s.CreateSession()

	msg, ok := s.AddMessage(id, domain.MessageDraft{Role: domain.RoleUser, Content: "What is 2+2?"})
	require.True(t, ok)
	assert.NotEmpty(t, msg.ID)
	assert.NotZero(t, msg.Timestamp)

	sess, _ := s.Session(id)
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, "What is 2+2?", sess.Title)
}

func TestAddMessageTitleTruncation(t *testing.T) {
	s := newTestStore()
	id := s.CreateSession()

	long := strings.Repeat("a", 31)
	s.AddMessage(id, domain.MessageDraft{Role: domain.RoleUser, Content: long})
	sess, _ := s.Session(id)
	assert.Equal(t, strings.Repeat("a", 30)+"...", sess.Title)

	// Later user messages never change the title.
	s.AddMessage(id, domain.MessageDraft{Role: domain.RoleUser, Content: "second"})
	sess, _ = s.Session(id)
	assert.Equal(t, strings.Repeat("a", 30)+"...", sess.Title)
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "hello", "hello"},
		{"exactly thirty", strings.Repeat("x", 30), strings.Repeat("x", 30)},
		{"thirty one", strings.Repeat("x", 31), strings.Repeat("x", 30) + "..."},
		{"multibyte", strings.Repeat("é", 35), strings.Repeat("é", 30) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.in))
		})
	}
}

func TestAddMessageAgentFirstKeepsDefaultTitle(t *testing.T) {
	s := newTestStore()
	id := s.CreateSession()

	s.AddMessage(id, domain.MessageDraft{Role: domain.RoleAgent, Content: "Hi there"})
	s.AddMessage(id, domain.MessageDraft{Role: domain.RoleUser, Content: "Question"})

	sess, _ := s.Session(id)
	assert.Equal(t, domain.DefaultSessionTitle, sess.Title)
}

func TestAddMessagePreservesInsertionOrder(t *testing.T) {
	s := newTestStore()
	id := s.CreateSession()

	for i := 0; i < 10; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAgent
		}
		_, ok := s.AddMessage(id, domain.MessageDraft{Role: role, Content: fmt.Sprintf("msg-%d", i)})
		require.True(t, ok)
	}

	sess, _ := s.Session(id)
	require.Len(t, sess.Messages, 10)
	for i, m := range sess.Messages {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), m.Content)
	}
}

func TestAddMessageMovesSessionToFront(t *testing.T) {
	s := newTestStore()
	older := s.CreateSession()
	newer := s.CreateSession()

	s.AddMessage(older, domain.MessageDraft{Role: domain.RoleUser, Content: "bump"})

	list := s.Sessions()
	require.Len(t, list, 2)
	assert.Equal(t, older, list[0].ID)
	assert.Equal(t, newer, list[1].ID)
}

func TestAddMessageUnknownSessionIsNoop(t *testing.T) {
	s := newTestStore()
	s.CreateSession()
	before := s.Snapshot()

	_, ok := s.AddMessage("missing", domain.MessageDraft{Role: domain.RoleUser, Content: "x"})
	assert.False(t, ok)
	assert.Equal(t, before, s.Snapshot())
}

func TestMessagesAreImmutableAfterAppend(t *testing.T) {
	s := newTestStore()
	id := s.CreateSession()

	attachments := []string{"data:image/png;base64,AA=="}
	md := &domain.MessageMetadata{Tricks: []string{"trick"}}
	s.AddMessage(id, domain.MessageDraft{Role: domain.RoleAgent, Content: "c", Attachments: attachments, Metadata: md})

	attachments[0] = "mutated"
	md.Tricks[0] = "mutated"

	sess, _ := s.Session(id)
	sess.Messages[0].Content = "mutated copy"

	stored, _ := s.Session(id)
	assert.Equal(t, "c", stored.Messages[0].Content)
	assert.Equal(t, "data:image/png;base64,AA==", stored.Messages[0].Attachments[0])
	assert.Equal(t, "trick", stored.Messages[0].Metadata.Tricks[0])
}

func TestDeleteSessionActivePointer(t *testing.T) {
	s := newTestStore()
	a := s.CreateSession()
	b := s.CreateSession()

	// b is active; deleting a leaves it alone.
	s.DeleteSession(a)
	current, ok := s.CurrentSessionID()
	require.True(t, ok)
	assert.Equal(t, b, current)

	s.DeleteSession(b)
	_, ok = s.CurrentSessionID()
	assert.False(t, ok)
	assert.Empty(t, s.Sessions())
}

func TestSelectSessionDoesNotValidate(t *testing.T) {
	s := newTestStore()
	s.SelectSession("does-not-exist")

	current, ok := s.CurrentSessionID()
	require.True(t, ok)
	assert.Equal(t, "does-not-exist", current)
}

func TestProfile(t *testing.T) {
	s := newTestStore()
	s.SetUserName("Asha")
	s.SetUserGrade("5")

	name, grade := s.Profile()
	assert.Equal(t, "Asha", name)
	assert.Equal(t, "5", grade)
	assert.Equal(t, "Asha", s.Snapshot().UserName)
}

func TestNewDoesNotAliasSeedState(t *testing.T) {
	seed := domain.NewAppState()
	seed.Sessions = append(seed.Sessions, domain.Session{ID: "s1", Title: "Seed"})

	s := New(seed)
	seed.Sessions[0].Title = "changed"

	sess, ok := s.Session("s1")
	require.True(t, ok)
	assert.Equal(t, "Seed", sess.Title)
}
