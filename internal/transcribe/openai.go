// Package transcribe turns raw audio into a transcript plus derived metadata
// (title, summary, topics, speaker utterances) using the OpenAI API.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kmankan/converse-chronicle/internal/config"
)

// Result is everything the transcription step derives from one audio buffer.
// Title may be empty; the caller decides the fallback.
type Result struct {
	Transcript string
	Title      string
	Summary    string
	Topics     []string
	Utterances []Utterance
}

// Utterance is one speaker-attributed span with offsets in seconds.
type Utterance struct {
	Speaker string
	Text    string
	Start   float64
	End     float64
}

const metadataSystemPrompt = `You analyse a voice memo transcript. Respond with strict JSON only, no markdown:
{"title": "short descriptive title or null", "summary": "2-3 sentence summary", "topics": ["up to 5 short topic labels"]}`

type Client struct {
	api             *openai.Client
	transcribeModel string
	summaryModel    string
}

func New(cfg config.OpenAIConfig) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:             openai.NewClientWithConfig(clientCfg),
		transcribeModel: cfg.TranscribeModel,
		summaryModel:    cfg.SummaryModel,
	}
}

// Transcribe runs speech-to-text over the audio buffer, then a single chat
// completion over the transcript to derive title, summary and topics. Whisper
// does not diarize, so every utterance carries the same speaker label.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (Result, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}

	result := Result{Transcript: strings.TrimSpace(resp.Text)}
	for _, seg := range resp.Segments {
		result.Utterances = appendUtterance(result.Utterances, seg.Text, seg.Start, seg.End)
	}

	meta, err := c.deriveMetadata(ctx, result.Transcript)
	if err != nil {
		return Result{}, err
	}
	result.Title = meta.Title
	result.Summary = meta.Summary
	result.Topics = meta.Topics
	return result, nil
}

type metadata struct {
	Title   string   `json:"-"`
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`

	// RawTitle absorbs both "title": "…" and "title": null.
	RawTitle *string `json:"title"`
}

func (c *Client) deriveMetadata(ctx context.Context, transcript string) (metadata, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.summaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: metadataSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return metadata{}, fmt.Errorf("derive metadata: %w", err)
	}
	if len(resp.Choices) == 0 {
		return metadata{}, fmt.Errorf("derive metadata: no choices returned")
	}
	return parseMetadata(resp.Choices[0].Message.Content)
}

// parseMetadata decodes the model's JSON reply, tolerating a markdown code
// fence around it.
func parseMetadata(content string) (metadata, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var meta metadata
	if err := json.Unmarshal([]byte(content), &meta); err != nil {
		return metadata{}, fmt.Errorf("parse metadata reply: %w", err)
	}
	if meta.RawTitle != nil {
		meta.Title = strings.TrimSpace(*meta.RawTitle)
	}
	return meta, nil
}

// defaultSpeaker labels utterances when no diarization is available.
const defaultSpeaker = "speaker_0"

// appendUtterance adds one transcript segment, dropping empty spans.
func appendUtterance(utterances []Utterance, text string, start, end float64) []Utterance {
	text = strings.TrimSpace(text)
	if text == "" {
		return utterances
	}
	return append(utterances, Utterance{
		Speaker: defaultSpeaker,
		Text:    text,
		Start:   start,
		End:     end,
	})
}
