package tutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sambhav874/tuition-teacher/internal/domain"
)

// Transcript renders messages as the plain-text export format.
func Transcript(messages []domain.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		label := "AI"
		if m.Role == domain.RoleUser {
			label = "User"
		}
		parts = append(parts, fmt.Sprintf("[%s]:\n%s\n\n", label, m.Content))
	}
	return strings.Join(parts, "---\n\n")
}

// ExportFileName names a transcript download, e.g. mock-test-2024-05-01.txt.
func ExportFileName(mode string, at time.Time) string {
	prefix := "chat"
	if mode != "" {
		prefix = string(domain.ParseMode(mode))
	}
	return fmt.Sprintf("%s-%s.txt", prefix, at.UTC().Format("2006-01-02"))
}

// Export returns the transcript of one session.
func (s *Service) Export(ctx context.Context, userID, sessionID string) (string, error) {
	sess, err := s.Session(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	return Transcript(sess.Messages), nil
}
