package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kmankan/converse-chronicle/internal/domain"
)

// Client talks to the converse-chronicle backend and downloads signed audio
// URLs to local storage.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// GetRecording fetches one recording's full record, signed URL included.
func (c *Client) GetRecording(ctx context.Context, id string) (domain.Recording, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/recordings/"+id, nil)
	if err != nil {
		return domain.Recording{}, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Recording{}, fmt.Errorf("fetch recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Recording{}, fmt.Errorf("recording %s not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Recording{}, fmt.Errorf("fetch recording: unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Data domain.Recording `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return domain.Recording{}, fmt.Errorf("decode recording: %w", err)
	}
	return envelope.Data, nil
}

// DownloadAudio fetches the signed URL and writes the audio to
// dir/<id>.m4a, returning the local path.
func (c *Client) DownloadAudio(ctx context.Context, url, dir, id string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download audio: unexpected status %d", resp.StatusCode)
	}

	path := filepath.Join(dir, id+".m4a")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close audio file: %w", err)
	}
	return path, nil
}
