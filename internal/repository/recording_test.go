package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kmankan/converse-chronicle/internal/config"
	"github.com/kmankan/converse-chronicle/internal/domain"
	"github.com/kmankan/converse-chronicle/internal/storage"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := storage.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func sampleRecording() domain.Recording {
	return domain.Recording{
		UserID:          "user-1",
		Title:           "standup notes",
		FilePath:        "user-1/rec-1.m4a",
		Transcript:      "hi there",
		Summary:         "a short chat",
		DurationSeconds: 42,
		Topics:          []string{"greeting", "planning"},
		Utterances: []domain.Utterance{
			{Speaker: "A", Transcript: "hi", Start: 0, End: 1},
			{Speaker: "B", Transcript: "there", Start: 1, End: 2.5},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewRecordingRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, sampleRecording())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected recording, got nil")
	}
	if got.Title != "standup notes" || got.Transcript != "hi there" || got.DurationSeconds != 42 {
		t.Errorf("unexpected recording fields: %+v", got)
	}
	if len(got.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(got.Topics))
	}
	if len(got.Utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(got.Utterances))
	}
	// Utterances come back in insertion order.
	if got.Utterances[0].Transcript != "hi" || got.Utterances[1].Transcript != "there" {
		t.Errorf("utterances out of order: %+v", got.Utterances)
	}
	if got.Utterances[1].End != 2.5 {
		t.Errorf("expected end 2.5, got %v", got.Utterances[1].End)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	repo := NewRecordingRepository(newTestDB(t))

	got, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing id, got %+v", got)
	}
}

func TestDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordingRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, sampleRecording())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, table := range []string{"recording_topics", "recording_utterances"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("expected no %s rows after delete, got %d", table, count)
		}
	}
}

// Foreign-key enforcement in SQLite is per connection; holding the first
// pooled connection forces the delete onto a fresh one, which must still
// cascade.
func TestDeleteCascadesAcrossConnections(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordingRepository(db)
	ctx := context.Background()

	pinned, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("pin connection: %v", err)
	}
	defer pinned.Close()

	created, err := repo.Create(ctx, sampleRecording())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, table := range []string{"recording_topics", "recording_utterances"} {
		var count int
		if err := pinned.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("orphaned %s rows after delete: %d", table, count)
		}
	}
}

func TestDeleteMissingReturnsErrNotFound(t *testing.T) {
	repo := NewRecordingRepository(newTestDB(t))

	err := repo.Delete(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateFieldsPartial(t *testing.T) {
	repo := NewRecordingRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, sampleRecording())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTitle := "renamed"
	updated, err := repo.UpdateFields(ctx, created.ID, &newTitle, nil)
	if err != nil {
		t.Fatalf("update title: %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("expected title renamed, got %q", updated.Title)
	}
	if updated.Transcript != "hi there" {
		t.Errorf("transcript changed on title-only update: %q", updated.Transcript)
	}

	newTranscript := "rewritten"
	updated, err = repo.UpdateFields(ctx, created.ID, nil, &newTranscript)
	if err != nil {
		t.Fatalf("update transcript: %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("title changed on transcript-only update: %q", updated.Title)
	}
	if updated.Transcript != "rewritten" {
		t.Errorf("expected transcript rewritten, got %q", updated.Transcript)
	}
}

func TestUpdateFieldsMissingReturnsErrNotFound(t *testing.T) {
	repo := NewRecordingRepository(newTestDB(t))

	title := "x"
	_, err := repo.UpdateFields(context.Background(), "missing", &title, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByUserProjection(t *testing.T) {
	repo := NewRecordingRepository(newTestDB(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, sampleRecording()); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := sampleRecording()
	other.UserID = "user-2"
	if _, err := repo.Create(ctx, other); err != nil {
		t.Fatalf("create other: %v", err)
	}

	summaries, err := repo.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	s := summaries[0]
	if s.Title != "standup notes" || s.DurationSeconds != 42 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if len(s.Topics) != 2 {
		t.Errorf("expected topics in summary, got %v", s.Topics)
	}
}
