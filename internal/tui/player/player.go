// Package player plays a local audio file through the system speaker with
// pause and seek support. Formats beep cannot decode natively (m4a from the
// backend in particular) are transcoded to wav via ffmpeg first.
package player

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

const ffmpegBinary = "ffmpeg"

type Player struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	done     chan struct{}
	doneOnce sync.Once
}

// Open decodes the audio file at path and hands it to the speaker, paused.
// Call Toggle to start playback. The caller must Close the player to release
// the audio device.
func Open(path string) (*Player, error) {
	path, err := ensurePlayable(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("player: open %q: %w", path, err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("player: unsupported format %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("player: decode %q: %w", path, err)
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
		streamer.Close()
		return nil, fmt.Errorf("player: init speaker: %w", err)
	}

	p := &Player{
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: streamer, Paused: true},
		done:     make(chan struct{}),
	}
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(p.signalDone)))
	return p, nil
}

// Toggle flips between playing and paused and reports whether the player is
// now playing.
func (p *Player) Toggle() bool {
	speaker.Lock()
	p.ctrl.Paused = !p.ctrl.Paused
	playing := !p.ctrl.Paused
	speaker.Unlock()
	return playing
}

// Position reports the current playback offset.
func (p *Player) Position() time.Duration {
	speaker.Lock()
	n := p.streamer.Position()
	speaker.Unlock()
	return p.format.SampleRate.D(n)
}

// Duration reports the total playback length.
func (p *Player) Duration() time.Duration {
	speaker.Lock()
	n := p.streamer.Len()
	speaker.Unlock()
	return p.format.SampleRate.D(n)
}

// SeekBy moves the playback position by delta, clamped to the stream bounds.
func (p *Player) SeekBy(delta time.Duration) error {
	speaker.Lock()
	defer speaker.Unlock()

	target := clampSeek(p.streamer.Position()+p.format.SampleRate.N(delta), p.streamer.Len())
	if err := p.streamer.Seek(target); err != nil {
		return fmt.Errorf("player: seek: %w", err)
	}
	return nil
}

// Done is closed when playback reaches the end of the stream or the player
// is closed, so waiters never block past the player's lifetime.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Close stops playback and releases the decoder. Clearing the speaker drops
// the end-of-stream callback, so done is signalled here as well.
func (p *Player) Close() error {
	speaker.Clear()
	p.signalDone()
	return p.streamer.Close()
}

func (p *Player) signalDone() {
	p.doneOnce.Do(func() { close(p.done) })
}

// clampSeek bounds a sample target to [0, length-1].
func clampSeek(target, length int) int {
	if target < 0 {
		return 0
	}
	if length > 0 && target >= length {
		return length - 1
	}
	return target
}

// ensurePlayable returns a path to a decodable audio file, transcoding to wav
// next to the original when the container is not mp3 or wav.
func ensurePlayable(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".wav":
		return path, nil
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	cmd := exec.Command(ffmpegBinary, "-y", "-i", path, "-ac", "2", out)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("player: transcode %q: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
