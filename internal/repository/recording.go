package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kmankan/converse-chronicle/internal/domain"
)

// ErrNotFound is returned when no recording matches the requested id.
var ErrNotFound = errors.New("recording not found")

type RecordingRepository struct {
	db *sql.DB
}

func NewRecordingRepository(db *sql.DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

// Create inserts the recording together with its topic and utterance children
// in a single transaction, so readers never observe a partially ingested
// recording.
func (r *RecordingRepository) Create(ctx context.Context, rec domain.Recording) (domain.Recording, error) {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Recording{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recordings (id, user_id, title, file_path, transcript, summary, duration_seconds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.UserID, rec.Title, rec.FilePath, rec.Transcript, rec.Summary, rec.DurationSeconds, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return domain.Recording{}, fmt.Errorf("insert recording: %w", err)
	}

	for _, topic := range rec.Topics {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO recording_topics (id, recording_id, topic)
			VALUES ($1, $2, $3)
		`, uuid.NewString(), rec.ID, topic)
		if err != nil {
			return domain.Recording{}, fmt.Errorf("insert topic: %w", err)
		}
	}

	for i, utt := range rec.Utterances {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO recording_utterances (id, recording_id, speaker, transcript, start_seconds, end_seconds, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.NewString(), rec.ID, utt.Speaker, utt.Transcript, utt.Start, utt.End, i)
		if err != nil {
			return domain.Recording{}, fmt.Errorf("insert utterance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Recording{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// GetByID reads one recording with its topics and utterances. It returns
// (nil, nil) when the id does not exist.
func (r *RecordingRepository) GetByID(ctx context.Context, id string) (*domain.Recording, error) {
	var rec domain.Recording
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, file_path, transcript, summary, duration_seconds, created_at, updated_at
		FROM recordings
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.FilePath, &rec.Transcript, &rec.Summary, &rec.DurationSeconds, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if rec.Topics, err = r.topicsFor(ctx, rec.ID); err != nil {
		return nil, err
	}
	if rec.Utterances, err = r.utterancesFor(ctx, rec.ID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByUser returns summaries for all of a user's recordings, newest first.
// Transcript, summary and utterances are never part of list responses.
func (r *RecordingRepository) ListByUser(ctx context.Context, userID string) ([]domain.RecordingSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, duration_seconds, created_at, updated_at
		FROM recordings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.RecordingSummary, 0)
	for rows.Next() {
		var s domain.RecordingSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.DurationSeconds, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range summaries {
		if summaries[i].Topics, err = r.topicsFor(ctx, summaries[i].ID); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

// UpdateFields overwrites title and/or transcript. Nil fields are left
// untouched. Returns the updated recording, or ErrNotFound.
func (r *RecordingRepository) UpdateFields(ctx context.Context, id string, title, transcript *string) (*domain.Recording, error) {
	if title == nil && transcript == nil {
		rec, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, ErrNotFound
		}
		return rec, nil
	}

	query := `UPDATE recordings SET updated_at = $1`
	args := []any{time.Now().UTC()}
	if title != nil {
		args = append(args, *title)
		query += fmt.Sprintf(", title = $%d", len(args))
	}
	if transcript != nil {
		args = append(args, *transcript)
		query += fmt.Sprintf(", transcript = $%d", len(args))
	}
	args = append(args, id)
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes the recording row; topics and utterances cascade via the
// schema. Deleting an unknown id returns ErrNotFound.
func (r *RecordingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RecordingRepository) topicsFor(ctx context.Context, recordingID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT topic FROM recording_topics WHERE recording_id = $1
	`, recordingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	topics := make([]string, 0)
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

func (r *RecordingRepository) utterancesFor(ctx context.Context, recordingID string) ([]domain.Utterance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT speaker, transcript, start_seconds, end_seconds
		FROM recording_utterances
		WHERE recording_id = $1
		ORDER BY position
	`, recordingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	utterances := make([]domain.Utterance, 0)
	for rows.Next() {
		var u domain.Utterance
		if err := rows.Scan(&u.Speaker, &u.Transcript, &u.Start, &u.End); err != nil {
			return nil, err
		}
		utterances = append(utterances, u)
	}
	return utterances, rows.Err()
}
