// Package media measures audio playback duration by shelling out to ffprobe
// over a scratch file.
package media

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const ffprobeBinary = "ffprobe"

// FFProbe probes audio duration via the ffprobe binary on PATH.
type FFProbe struct {
	// Binary overrides the ffprobe executable. Empty means "ffprobe".
	Binary string
}

// Probe writes audio to a scratch file, asks ffprobe for the container
// duration, and reports it rounded to the nearest whole second. The scratch
// file is removed on every exit path.
func (p FFProbe) Probe(ctx context.Context, audio []byte) (int, error) {
	tmp, err := os.CreateTemp("", "cc-probe-*.m4a")
	if err != nil {
		return 0, fmt.Errorf("probe: create scratch file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("probe: write scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("probe: close scratch file: %w", err)
	}

	binary := p.Binary
	if binary == "" {
		binary = ffprobeBinary
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		tmp.Name(),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("probe: ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return ParseDuration(stdout.String())
}

// ParseDuration converts ffprobe's duration output (fractional seconds) to
// whole seconds, rounding to nearest.
func ParseDuration(output string) (int, error) {
	raw := strings.TrimSpace(output)
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("probe: parse duration %q: %w", raw, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("probe: negative duration %q", raw)
	}
	return int(math.Round(seconds)), nil
}
