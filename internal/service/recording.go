package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kmankan/converse-chronicle/internal/domain"
	"github.com/kmankan/converse-chronicle/internal/observe"
	"github.com/kmankan/converse-chronicle/internal/repository"
	"github.com/kmankan/converse-chronicle/internal/transcribe"
)

// Stored audio always uses one extension and content type, regardless of the
// uploaded container.
const (
	audioExtension   = ".m4a"
	audioContentType = "audio/mp4"
)

// Transcriber converts an audio buffer into a transcript and derived metadata.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (transcribe.Result, error)
}

// ObjectStore persists audio blobs and mints signed read URLs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

// DurationProber measures audio playback length in whole seconds.
type DurationProber interface {
	Probe(ctx context.Context, audio []byte) (int, error)
}

type RecordingService struct {
	repo        *repository.RecordingRepository
	store       ObjectStore
	transcriber Transcriber
	prober      DurationProber
	urlTTL      time.Duration
	logger      *slog.Logger
	metrics     *observe.Metrics
}

func NewRecordingService(
	repo *repository.RecordingRepository,
	store ObjectStore,
	transcriber Transcriber,
	prober DurationProber,
	urlTTL time.Duration,
	logger *slog.Logger,
	metrics *observe.Metrics,
) *RecordingService {
	return &RecordingService{
		repo:        repo,
		store:       store,
		transcriber: transcriber,
		prober:      prober,
		urlTTL:      urlTTL,
		logger:      logger,
		metrics:     metrics,
	}
}

// Create ingests one voice memo: probe duration, transcribe, upload the audio
// to object storage under {userID}/{recordingID}.m4a, then insert the
// Recording with its topics and utterances in one transaction. If the insert
// fails after the upload succeeded, the uploaded object is removed again so
// storage does not accumulate orphans.
func (s *RecordingService) Create(ctx context.Context, userID string, audio []byte) (*domain.Recording, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	duration, err := s.prober.Probe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}

	transcribeStart := time.Now()
	result, err := s.transcriber.Transcribe(ctx, audio, "recording"+audioExtension)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	if s.metrics != nil {
		s.metrics.TranscriptionDuration.Record(ctx, time.Since(transcribeStart).Seconds())
	}

	id := uuid.NewString()
	key := fmt.Sprintf("%s/%s%s", userID, id, audioExtension)

	if err := s.store.Upload(ctx, key, audio, audioContentType); err != nil {
		s.countStoreError(ctx, "upload")
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	title := result.Title
	if title == "" {
		title = placeholderTitle(time.Now().UTC())
	}

	utterances := make([]domain.Utterance, 0, len(result.Utterances))
	for _, u := range result.Utterances {
		utterances = append(utterances, domain.Utterance{
			Speaker:    u.Speaker,
			Transcript: u.Text,
			Start:      u.Start,
			End:        u.End,
		})
	}

	rec, err := s.repo.Create(ctx, domain.Recording{
		ID:              id,
		UserID:          userID,
		Title:           title,
		FilePath:        key,
		Transcript:      result.Transcript,
		Summary:         result.Summary,
		DurationSeconds: duration,
		Topics:          result.Topics,
		Utterances:      utterances,
	})
	if err != nil {
		// Compensate: the row is the source of truth, so an uploaded object
		// without a row must not be left behind.
		if removeErr := s.store.Remove(ctx, key); removeErr != nil {
			s.countStoreError(ctx, "remove")
			s.logger.Warn("failed to remove orphaned audio after insert failure",
				slog.String("key", key), slog.Any("error", removeErr))
		}
		return nil, fmt.Errorf("persist recording: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordingsIngested.Add(ctx, 1)
	}
	s.logger.Info("recording created",
		slog.String("id", rec.ID),
		slog.String("user_id", userID),
		slog.Int("duration_seconds", duration),
	)
	return &rec, nil
}

// Get reads one recording with its children. When found, a signed URL for the
// stored audio is attached. A missing id yields (nil, nil), not an error.
func (s *RecordingService) Get(ctx context.Context, id string) (*domain.Recording, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	url, err := s.store.PresignedGet(ctx, rec.FilePath, s.urlTTL)
	if err != nil {
		s.countStoreError(ctx, "presign")
		return nil, fmt.Errorf("sign recording url: %w", err)
	}
	rec.RecordingURL = url
	return rec, nil
}

// List returns summaries for a user's recordings. Transcript, summary and
// utterances never appear in list responses.
func (s *RecordingService) List(ctx context.Context, userID string) ([]domain.RecordingSummary, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	return s.repo.ListByUser(ctx, userID)
}

// Update overwrites title and/or transcript. Nil fields stay untouched.
func (s *RecordingService) Update(ctx context.Context, id string, title, transcript *string) (*domain.Recording, error) {
	return s.repo.UpdateFields(ctx, id, title, transcript)
}

// Delete removes the recording row (children cascade), then removes the
// stored audio best-effort. A storage failure is logged, not returned: the
// row is already gone and the delete must not appear to have failed.
// Deleting an unknown id propagates repository.ErrNotFound.
func (s *RecordingService) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return repository.ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.store.Remove(ctx, rec.FilePath); err != nil {
		s.countStoreError(ctx, "remove")
		s.logger.Warn("failed to remove stored audio for deleted recording",
			slog.String("id", id), slog.String("key", rec.FilePath), slog.Any("error", err))
	}

	s.logger.Info("recording deleted", slog.String("id", id))
	return nil
}

func (s *RecordingService) countStoreError(ctx context.Context, op string) {
	if s.metrics != nil {
		s.metrics.ObjectStoreErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}
}

// placeholderTitle is used when the transcription supplies no title.
func placeholderTitle(now time.Time) string {
	return "conversation_" + now.Format("2006-01-02")
}
