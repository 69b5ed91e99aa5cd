package storage

import (
	"context"
	"database/sql"
	"errors"
)

// RunMigrations applies the schema. Statements are idempotent so the call is
// safe on every startup. The DDL sticks to types both Postgres and SQLite
// understand.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("db is nil")
	}

	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS recordings (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    file_path TEXT NOT NULL,
    transcript TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recordings_user_id
    ON recordings (user_id);

CREATE TABLE IF NOT EXISTS recording_topics (
    id TEXT PRIMARY KEY,
    recording_id TEXT NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
    topic TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recording_topics_recording_id
    ON recording_topics (recording_id);

CREATE TABLE IF NOT EXISTS recording_utterances (
    id TEXT PRIMARY KEY,
    recording_id TEXT NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
    speaker TEXT NOT NULL,
    transcript TEXT NOT NULL,
    start_seconds REAL NOT NULL,
    end_seconds REAL NOT NULL,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recording_utterances_recording_id
    ON recording_utterances (recording_id);
`
