// Package tui is the terminal detail view for one recording: it fetches the
// record over HTTP, downloads the audio to local storage, and drives a
// play/pause/seek audio player.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kmankan/converse-chronicle/internal/domain"
	"github.com/kmankan/converse-chronicle/internal/tui/player"
)

// Phase tracks the view's loading state machine:
// loading → (error | loaded).
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseError
	PhaseLoaded
)

const (
	seekStep     = 5 * time.Second
	tickInterval = 250 * time.Millisecond
	maxUtterance = 12
)

// Messages.

type recordingMsg struct{ rec domain.Recording }

type audioReadyMsg struct{ path string }

type playerReadyMsg struct{ pl *player.Player }

type playbackDoneMsg struct{}

type tickMsg time.Time

type loadFailedMsg struct{ err error }

// Model is the root bubbletea model for the detail view.
type Model struct {
	client      *Client
	recordingID string
	cacheDir    string

	phase   Phase
	errText string

	rec       domain.Recording
	audioPath string

	pl       *player.Player
	playing  bool
	position time.Duration
	duration time.Duration

	statusText string
	width      int
	height     int
}

// New creates the detail view for one recording id.
func New(client *Client, recordingID, cacheDir string) Model {
	return Model{
		client:      client,
		recordingID: recordingID,
		cacheDir:    cacheDir,
		phase:       PhaseLoading,
		statusText:  "Fetching recording…",
	}
}

// Init starts the fetch → download → player chain.
func (m Model) Init() tea.Cmd {
	return fetchRecordingCmd(m.client, m.recordingID)
}

func fetchRecordingCmd(client *Client, id string) tea.Cmd {
	return func() tea.Msg {
		rec, err := client.GetRecording(context.Background(), id)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return recordingMsg{rec: rec}
	}
}

func downloadAudioCmd(client *Client, url, dir, id string) tea.Cmd {
	return func() tea.Msg {
		path, err := client.DownloadAudio(context.Background(), url, dir, id)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return audioReadyMsg{path: path}
	}
}

func openPlayerCmd(path string) tea.Cmd {
	return func() tea.Msg {
		pl, err := player.Open(path)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return playerReadyMsg{pl: pl}
	}
}

func waitPlaybackDoneCmd(pl *player.Player) tea.Cmd {
	return func() tea.Msg {
		<-pl.Done()
		return playbackDoneMsg{}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case recordingMsg:
		m.rec = msg.rec
		m.statusText = "Downloading audio…"
		if m.rec.RecordingURL == "" {
			m.phase = PhaseError
			m.errText = "recording has no audio URL"
			return m, nil
		}
		return m, downloadAudioCmd(m.client, m.rec.RecordingURL, m.cacheDir, m.rec.ID)

	case audioReadyMsg:
		m.audioPath = msg.path
		m.statusText = "Preparing player…"
		return m, openPlayerCmd(msg.path)

	case playerReadyMsg:
		m.pl = msg.pl
		m.phase = PhaseLoaded
		m.duration = m.pl.Duration()
		m.statusText = ""
		return m, tea.Batch(waitPlaybackDoneCmd(m.pl), tickCmd())

	case playbackDoneMsg:
		m.playing = false
		if m.pl != nil {
			m.position = m.duration
		}
		return m, nil

	case tickMsg:
		if m.pl == nil {
			return m, nil
		}
		m.position = m.pl.Position()
		return m, tickCmd()

	case loadFailedMsg:
		m.phase = PhaseError
		m.errText = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.pl != nil {
			m.pl.Close()
		}
		return m, tea.Quit

	case " ":
		if m.pl != nil {
			m.playing = m.pl.Toggle()
		}
		return m, nil

	case "left":
		if m.pl != nil {
			if err := m.pl.SeekBy(-seekStep); err == nil {
				m.position = m.pl.Position()
			}
		}
		return m, nil

	case "right":
		if m.pl != nil {
			if err := m.pl.SeekBy(seekStep); err == nil {
				m.position = m.pl.Position()
			}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.phase {
	case PhaseError:
		return errorStyle.Render("Error: "+m.errText) + "\n\n" + helpStyle.Render("q: quit")
	case PhaseLoading:
		return m.statusText + "\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.rec.Title))
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("%s · %s",
		m.rec.CreatedAt.Local().Format("Jan 2 2006 15:04"),
		fmtDuration(time.Duration(m.rec.DurationSeconds)*time.Second),
	)))
	b.WriteString("\n\n")

	if m.rec.Summary != "" {
		b.WriteString(summaryStyle.Render(m.rec.Summary))
		b.WriteString("\n\n")
	}

	for i, u := range m.rec.Utterances {
		if i >= maxUtterance {
			b.WriteString(metaStyle.Render(fmt.Sprintf("… %d more", len(m.rec.Utterances)-maxUtterance)))
			b.WriteString("\n")
			break
		}
		b.WriteString(offsetStyle.Render(fmtDuration(time.Duration(u.Start * float64(time.Second)))))
		b.WriteString(" ")
		b.WriteString(speakerStyle.Render(u.Speaker + ":"))
		b.WriteString(" ")
		b.WriteString(u.Transcript)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(playbarStyle.Render(m.playbackLine()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space: play/pause · ←/→: seek 5s · q: quit"))
	return b.String()
}

func (m Model) playbackLine() string {
	icon := "▶"
	if m.playing {
		icon = "⏸"
	}
	return fmt.Sprintf("%s %s / %s %s",
		icon,
		fmtDuration(m.position),
		fmtDuration(m.duration),
		progressBar(m.position, m.duration, 30),
	)
}

// fmtDuration renders mm:ss (or h:mm:ss past an hour).
func fmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	mn := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mn, s)
	}
	return fmt.Sprintf("%02d:%02d", mn, s)
}

// progressBar renders a fixed-width unicode bar for position within total.
func progressBar(position, total time.Duration, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = int(float64(width) * float64(position) / float64(total))
		if filled > width {
			filled = width
		}
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
