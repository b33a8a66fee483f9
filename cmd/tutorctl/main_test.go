package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sambhav874/tuition-teacher/internal/domain"
	"github.com/sambhav874/tuition-teacher/internal/store"
	"github.com/sambhav874/tuition-teacher/internal/tutor"
)

func seedDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tutor.db")
	repo, err := store.NewSQLite(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	now := time.Now()
	if err := repo.UpsertUser(ctx, &domain.User{
		UserID: "anon_1", Username: "anon_1",
		LastSeenAt: now, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	current := "s1"
	state := domain.AppState{
		CurrentSessionID: &current,
		Sessions: []domain.Session{{
			ID:        "s1",
			Title:     "Photosynthesis",
			CreatedAt: now.UnixMilli(),
			UpdatedAt: now.UnixMilli(),
			Messages: []domain.Message{
				{ID: "m1", Role: domain.RoleUser, Content: "What is photosynthesis?", Timestamp: now.UnixMilli()},
				{ID: "m2", Role: domain.RoleAgent, Content: "Plants making food from light.", Timestamp: now.UnixMilli()},
			},
		}},
	}
	if err := repo.SaveState(ctx, "anon_1", state); err != nil {
		t.Fatalf("save state: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUsersList(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "--db", db, "users", "list")
	if err != nil {
		t.Fatalf("users list: %v", err)
	}
	if !strings.Contains(out, "USER ID") || !strings.Contains(out, "anon_1") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSessionsListMarksCurrent(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "--db", db, "sessions", "list", "--user", "anon_1")
	if err != nil {
		t.Fatalf("sessions list: %v", err)
	}
	if !strings.Contains(out, "SESSION ID") || !strings.Contains(out, "Photosynthesis") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	line := ""
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, "s1") {
			line = l
		}
	}
	if !strings.Contains(line, "*") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSessionsListUnknownUser(t *testing.T) {
	db := seedDB(t)

	_, err := execute(t, "--db", db, "sessions", "list", "--user", "nobody")
	if !errors.Is(err, errNoState) {
		t.Fatalf("expected errNoState, got %v", err)
	}
}

func TestExportToStdout(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "--db", db, "export", "--user", "anon_1", "--session", "s1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := "[User]:\nWhat is photosynthesis?\n\n---\n\n[AI]:\nPlants making food from light.\n\n"
	if out != want {
		t.Fatalf("transcript = %q, want %q", out, want)
	}
}

func TestExportToFile(t *testing.T) {
	db := seedDB(t)
	target := filepath.Join(t.TempDir(), "out.txt")

	if _, err := execute(t, "--db", db, "export", "--user", "anon_1", "--session", "s1", "--out", target); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "[User]:\nWhat is photosynthesis?") {
		t.Fatalf("unexpected file contents: %q", data)
	}
}

func TestExportUnknownSession(t *testing.T) {
	db := seedDB(t)

	_, err := execute(t, "--db", db, "export", "--user", "anon_1", "--session", "missing")
	if !errors.Is(err, tutor.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCleanupKeepsFreshState(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "--db", db, "cleanup", "--ttl", "1h")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if !strings.Contains(out, "cleaned 0 state(s)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCleanupRejectsNonPositiveTTL(t *testing.T) {
	db := seedDB(t)

	if _, err := execute(t, "--db", db, "cleanup", "--ttl", "0s"); err == nil {
		t.Fatal("expected an error for zero ttl")
	}
}
