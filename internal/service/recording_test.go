package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/kmankan/converse-chronicle/internal/config"
	"github.com/kmankan/converse-chronicle/internal/repository"
	"github.com/kmankan/converse-chronicle/internal/storage"
	"github.com/kmankan/converse-chronicle/internal/transcribe"
)

type stubTranscriber struct {
	result transcribe.Result
	err    error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (transcribe.Result, error) {
	return s.result, s.err
}

type stubStore struct {
	uploaded map[string][]byte
	removed  []string

	uploadErr error
	signErr   error
}

func newStubStore() *stubStore {
	return &stubStore{uploaded: make(map[string][]byte)}
}

func (s *stubStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploaded[key] = data
	return nil
}

func (s *stubStore) PresignedGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return "https://signed.example/" + key, nil
}

func (s *stubStore) Remove(_ context.Context, key string) error {
	s.removed = append(s.removed, key)
	delete(s.uploaded, key)
	return nil
}

type stubProber struct {
	seconds int
	err     error
}

func (s *stubProber) Probe(_ context.Context, _ []byte) (int, error) {
	return s.seconds, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc         *RecordingService
	db          *sql.DB
	store       *stubStore
	transcriber *stubTranscriber
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := storage.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	store := newStubStore()
	transcriber := &stubTranscriber{
		result: transcribe.Result{
			Transcript: "hi there",
			Summary:    "a short greeting",
			Topics:     []string{"greeting"},
			Utterances: []transcribe.Utterance{
				{Speaker: "speaker_0", Text: "hi there", Start: 0, End: 1.5},
			},
		},
	}

	svc := NewRecordingService(
		repository.NewRecordingRepository(db),
		store,
		transcriber,
		&stubProber{seconds: 42},
		15*time.Minute,
		discardLogger(),
		nil,
	)
	return &fixture{svc: svc, db: db, store: store, transcriber: transcriber}
}

func TestCreateIngestsRecording(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, "user-1", []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if rec.DurationSeconds != 42 {
		t.Errorf("expected duration 42, got %d", rec.DurationSeconds)
	}
	if rec.Transcript != "hi there" || rec.Summary != "a short greeting" {
		t.Errorf("unexpected derived fields: %+v", rec)
	}
	if len(rec.Topics) != 1 || rec.Topics[0] != "greeting" {
		t.Errorf("unexpected topics: %v", rec.Topics)
	}
	if len(rec.Utterances) != 1 || rec.Utterances[0].Transcript != "hi there" {
		t.Errorf("unexpected utterances: %+v", rec.Utterances)
	}

	wantKey := "user-1/" + rec.ID + ".m4a"
	if rec.FilePath != wantKey {
		t.Errorf("expected file path %q, got %q", wantKey, rec.FilePath)
	}
	if _, ok := f.store.uploaded[wantKey]; !ok {
		t.Errorf("audio not uploaded under %q; uploads: %v", wantKey, f.store.uploaded)
	}
}

func TestCreateUsesPlaceholderTitle(t *testing.T) {
	f := newFixture(t)
	f.transcriber.result.Title = ""

	rec, err := f.svc.Create(context.Background(), "user-1", []byte("audio"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pattern := regexp.MustCompile(`^conversation_\d{4}-\d{2}-\d{2}$`)
	if !pattern.MatchString(rec.Title) {
		t.Errorf("expected placeholder title, got %q", rec.Title)
	}
}

func TestCreateKeepsDerivedTitle(t *testing.T) {
	f := newFixture(t)
	f.transcriber.result.Title = "quarterly planning"

	rec, err := f.svc.Create(context.Background(), "user-1", []byte("audio"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Title != "quarterly planning" {
		t.Errorf("expected derived title, got %q", rec.Title)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, "", []byte("audio")); !errors.Is(err, ErrMissingUserID) {
		t.Errorf("expected ErrMissingUserID, got %v", err)
	}
	if _, err := f.svc.Create(ctx, "user-1", nil); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestCreateRemovesUploadOnInsertFailure(t *testing.T) {
	f := newFixture(t)

	// Closing the handle makes the insert fail after the upload succeeded.
	f.db.Close()

	_, err := f.svc.Create(context.Background(), "user-1", []byte("audio"))
	if err == nil {
		t.Fatal("expected create to fail")
	}
	if len(f.store.removed) != 1 {
		t.Fatalf("expected 1 compensating remove, got %v", f.store.removed)
	}
	if len(f.store.uploaded) != 0 {
		t.Errorf("expected no orphaned objects, got %v", f.store.uploaded)
	}
}

func TestGetAttachesSignedURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "user-1", []byte("audio"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := f.svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected recording")
	}
	want := "https://signed.example/" + created.FilePath
	if got.RecordingURL != want {
		t.Errorf("expected signed url %q, got %q", want, got.RecordingURL)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing id, got %+v", got)
	}
}

func TestDeleteRemovesRowAndObject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "user-1", []byte("audio"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := f.svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("expected recording gone, got %+v", got)
	}
	if len(f.store.removed) != 1 || f.store.removed[0] != created.FilePath {
		t.Errorf("expected object %q removed, got %v", created.FilePath, f.store.removed)
	}
}

func TestDeleteMissingReturnsErrNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Delete(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected repository.ErrNotFound, got %v", err)
	}
}

func TestListExcludesTranscript(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, "user-1", []byte("audio")); err != nil {
		t.Fatalf("create: %v", err)
	}

	summaries, err := f.svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].DurationSeconds != 42 {
		t.Errorf("unexpected summary: %+v", summaries[0])
	}

	if _, err := f.svc.List(ctx, ""); !errors.Is(err, ErrMissingUserID) {
		t.Errorf("expected ErrMissingUserID for empty user, got %v", err)
	}
}

func TestPlaceholderTitle(t *testing.T) {
	now := time.Date(2025, time.March, 7, 10, 30, 0, 0, time.UTC)
	if got := placeholderTitle(now); got != "conversation_2025-03-07" {
		t.Errorf("placeholderTitle = %q", got)
	}
}
