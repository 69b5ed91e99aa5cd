// Command chronicle is the terminal review client: it fetches one recording
// from the backend, downloads its audio, and plays it back with a transcript
// view.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/kmankan/converse-chronicle/internal/tui"
)

func main() {
	_ = godotenv.Load()

	serverURL := flag.String("server", envOr("CHRONICLE_SERVER", "http://localhost:8080"), "backend base URL")
	token := flag.String("token", os.Getenv("API_TOKEN"), "bearer token for the backend API")
	cacheDir := flag.String("cache", defaultCacheDir(), "directory for downloaded audio")
	flag.Parse()

	recordingID := flag.Arg(0)
	if recordingID == "" {
		fmt.Fprintln(os.Stderr, "usage: chronicle [flags] <recording-id>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	client := tui.NewClient(*serverURL, *token)
	model := tui.New(client, recordingID, *cacheDir)

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chronicle: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return "audio-cache"
	}
	return filepath.Join(base, "converse-chronicle")
}
