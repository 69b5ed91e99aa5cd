package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/kmankan/converse-chronicle/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := config.Config{HTTPPort: "0", ShutdownTimeout: time.Second}
	srv := New(cfg, http.NewServeMux(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after clean shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRunReturnsListenError(t *testing.T) {
	cfg := config.Config{HTTPPort: "notaport", ShutdownTimeout: time.Second}
	srv := New(cfg, http.NewServeMux(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected listen error")
	}
}
