package domain

import "time"

// Recording is one ingested voice memo together with everything derived from
// it: transcript, summary, topic labels, and speaker utterances. FilePath is
// the object-storage key of the uploaded audio; RecordingURL is a signed,
// time-limited link minted at read time and never persisted.
type Recording struct {
	ID              string      `json:"id" db:"id"`
	UserID          string      `json:"userId" db:"user_id"`
	Title           string      `json:"title" db:"title"`
	FilePath        string      `json:"filePath" db:"file_path"`
	Transcript      string      `json:"transcript" db:"transcript"`
	Summary         string      `json:"summary" db:"summary"`
	DurationSeconds int         `json:"duration" db:"duration_seconds"`
	Topics          []string    `json:"topics"`
	Utterances      []Utterance `json:"utterances"`
	RecordingURL    string      `json:"recordingUrl,omitempty"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" db:"updated_at"`
}

// Utterance is one speaker-attributed span of a recording's transcript.
// Start and End are offsets in seconds from the beginning of the audio.
type Utterance struct {
	Speaker    string  `json:"speaker" db:"speaker"`
	Transcript string  `json:"transcript" db:"transcript"`
	Start      float64 `json:"start" db:"start_seconds"`
	End        float64 `json:"end" db:"end_seconds"`
}

// RecordingSummary is the list projection of a Recording. Transcript, summary
// and utterances are deliberately excluded to bound list payload sizes.
type RecordingSummary struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	DurationSeconds int       `json:"duration" db:"duration_seconds"`
	Topics          []string  `json:"topics"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}
