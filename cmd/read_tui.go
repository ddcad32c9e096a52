// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Rene Varlow, WPPS Project

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/varlow/wpps/pkg/sp"
)

// Messages
type readTickMsg time.Time
type readChunkMsg int // words in the chunk
type readDoneMsg struct{}
type readFailMsg struct {
	err error
}

// readModel is the Bubble Tea model for the read progress display
type readModel struct {
	connInfo  string
	expected  uint64
	received  uint64
	startTime time.Time
	bar       progress.Model
	spin      spinner.Model
	width     int
	done      bool
	failed    error
	aborted   bool
	quitting  bool
}

func initialReadModel(connInfo string, expected uint64) readModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 50

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return readModel{
		connInfo:  connInfo,
		expected:  expected,
		startTime: time.Now(),
		bar:       bar,
		spin:      spin,
		width:     80,
	}
}

func (m readModel) Init() tea.Cmd {
	return tea.Batch(
		readTickCmd(),
		m.spin.Tick,
		tea.EnterAltScreen,
	)
}

func readTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return readTickMsg(t)
	})
}

func (m readModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.aborted = true
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 12; w > 10 {
			m.bar.Width = w
		}

	case readTickMsg:
		// Keep the elapsed time and rate moving between chunks.
		return m, readTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case readChunkMsg:
		m.received += uint64(msg)

	case readDoneMsg:
		m.done = true
		m.quitting = true
		return m, tea.Quit

	case readFailMsg:
		m.failed = msg.err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m readModel) percent() float64 {
	if m.expected == 0 {
		return 1.0
	}
	pct := float64(m.received) / float64(m.expected)
	if pct > 1.0 {
		pct = 1.0
	}
	return pct
}

func (m readModel) View() string {
	if m.quitting {
		return "Finishing...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("WPPS - MEMORY READ"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Press 'q' to abort", m.connInfo)))
	s.WriteString("\n\n")

	elapsed := time.Since(m.startTime)
	rate := 0.0
	if elapsed.Seconds() > 0 {
		rate = float64(m.received) / elapsed.Seconds()
	}

	content := strings.Builder{}
	if m.received == 0 {
		// The daemon is entering programming mode and seeking to the
		// start address; nothing arrives until the first full chunk.
		content.WriteString(m.spin.View() + " Waiting for first chunk...")
	} else {
		content.WriteString(m.bar.ViewAs(m.percent()))
	}
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Words:"),
		statsValueStyle.Render(fmt.Sprintf("%d / %d", m.received, m.expected)),
		statsLabelStyle.Render("Rate:"),
		statsValueStyle.Render(fmt.Sprintf("%.0f words/s", rate)),
		statsLabelStyle.Render("Elapsed:"),
		statsValueStyle.Render(elapsed.Round(time.Second).String()),
	))

	s.WriteString(boxStyle.Render(content.String()))
	s.WriteString("\n")

	return s.String()
}

// runReadTUI drives the stream under a progress display. The returned
// words are only valid when err is nil.
func runReadTUI(conn Connection, connInfo string, request *sp.Packet, expected uint64) ([]uint16, error) {
	program := tea.NewProgram(initialReadModel(connInfo, expected))

	var words []uint16
	go func() {
		streamed, err := streamRead(conn, request, func(chunkWords int) {
			program.Send(readChunkMsg(chunkWords))
		})
		if err != nil {
			program.Send(readFailMsg{err: err})
			return
		}
		words = streamed
		program.Send(readDoneMsg{})
	}()

	final, err := program.Run()
	if err != nil {
		return nil, err
	}

	m := final.(readModel)
	if m.aborted {
		return nil, fmt.Errorf("aborted after %d words", m.received)
	}
	if m.failed != nil {
		return nil, m.failed
	}
	return words, nil
}
