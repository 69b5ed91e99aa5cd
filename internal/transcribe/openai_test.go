package transcribe

import (
	"testing"
)

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name    string
		content string
		title   string
		summary string
		topics  int
		wantErr bool
	}{
		{
			name:    "plain JSON",
			content: `{"title": "standup", "summary": "quick sync", "topics": ["work", "planning"]}`,
			title:   "standup",
			summary: "quick sync",
			topics:  2,
		},
		{
			name: "fenced JSON",
			content: "```json\n" +
				`{"title": "memo", "summary": "notes", "topics": ["ideas"]}` +
				"\n```",
			title:   "memo",
			summary: "notes",
			topics:  1,
		},
		{
			name:    "null title",
			content: `{"title": null, "summary": "no title here", "topics": []}`,
			title:   "",
			summary: "no title here",
		},
		{
			name:    "whitespace title trimmed",
			content: `{"title": "  padded  ", "summary": "s", "topics": []}`,
			title:   "padded",
			summary: "s",
		},
		{
			name:    "not JSON",
			content: "sorry, I cannot do that",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := parseMetadata(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMetadata: %v", err)
			}
			if meta.Title != tt.title {
				t.Errorf("title = %q, want %q", meta.Title, tt.title)
			}
			if meta.Summary != tt.summary {
				t.Errorf("summary = %q, want %q", meta.Summary, tt.summary)
			}
			if len(meta.Topics) != tt.topics {
				t.Errorf("topics = %v, want %d entries", meta.Topics, tt.topics)
			}
		})
	}
}

func TestAppendUtterance(t *testing.T) {
	var utterances []Utterance

	utterances = appendUtterance(utterances, "hello", 0, 1.2)
	utterances = appendUtterance(utterances, "   ", 1.2, 2) // dropped
	utterances = appendUtterance(utterances, " world ", 2, 3)

	if len(utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utterances))
	}
	if utterances[0].Speaker != defaultSpeaker {
		t.Errorf("expected speaker %q, got %q", defaultSpeaker, utterances[0].Speaker)
	}
	if utterances[1].Text != "world" {
		t.Errorf("expected trimmed text, got %q", utterances[1].Text)
	}
	if utterances[1].Start != 2 || utterances[1].End != 3 {
		t.Errorf("unexpected offsets: %+v", utterances[1])
	}
}
