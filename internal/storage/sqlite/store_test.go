package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"taskboard/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, email, name string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), email, "hash", name)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func seedProject(t *testing.T, s *Store, ownerID int64, name string) models.Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), ownerID, name, "")
	if err != nil {
		t.Fatalf("seed project %s: %v", name, err)
	}
	return p
}

func firstStatus(t *testing.T, s *Store, projectID int64) models.Status {
	t.Helper()
	statuses, err := s.ProjectStatuses(context.Background(), projectID)
	if err != nil {
		t.Fatalf("statuses: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("project has no statuses")
	}
	return statuses[0]
}
