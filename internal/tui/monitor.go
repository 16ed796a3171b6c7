// Package tui renders live batch progress while a cross-validation run is in
// flight: one row per condition, one column per backend.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ar-nair/kinval/internal/reactor"
	"github.com/ar-nair/kinval/internal/xval"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type cellStatus int

const (
	cellPending cellStatus = iota
	cellOK
	cellFailed
)

type progressMsg xval.Progress

type doneMsg []*xval.Bundle

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	conditions []*reactor.Condition
	backends   []string
	col        map[string]int

	status    [][]cellStatus
	lastErr   error
	completed int
	total     int

	start   time.Time
	done    bool
	bundles []*xval.Bundle
	cancel  context.CancelFunc

	width int
}

func newModel(conditions []*reactor.Condition, backends []string, cancel context.CancelFunc) model {
	col := make(map[string]int, len(backends))
	for i, name := range backends {
		col[name] = i
	}
	status := make([][]cellStatus, len(conditions))
	for i := range status {
		status[i] = make([]cellStatus, len(backends))
	}
	return model{
		conditions: conditions,
		backends:   backends,
		col:        col,
		status:     status,
		total:      len(conditions) * len(backends),
		start:      time.Now(),
		cancel:     cancel,
		width:      80,
	}
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case progressMsg:
		bi, ok := m.col[msg.Backend]
		if ok && msg.ConditionIndex < len(m.status) {
			if msg.Err != nil {
				m.status[msg.ConditionIndex][bi] = cellFailed
				m.lastErr = msg.Err
			} else {
				m.status[msg.ConditionIndex][bi] = cellOK
			}
			m.completed++
		}
		return m, nil
	case doneMsg:
		m.done = true
		m.bundles = msg
		return m, tea.Quit
	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	var sb strings.Builder

	elapsed := time.Since(m.start).Truncate(100 * time.Millisecond)
	sb.WriteString(cyan.Render("kinval") + dim.Render(fmt.Sprintf("  %d/%d runs  %s", m.completed, m.total, elapsed)))
	sb.WriteString("\n\n")

	colWidth := 10
	for _, name := range m.backends {
		if len(name)+2 > colWidth {
			colWidth = len(name) + 2
		}
	}

	sb.WriteString(dim.Render(pad("condition", 34)))
	for _, name := range m.backends {
		sb.WriteString(dim.Render(pad(name, colWidth)))
	}
	sb.WriteString("\n")

	for ci, cond := range m.conditions {
		sb.WriteString(white.Render(pad(truncate(cond.String(), 32), 34)))
		for bi := range m.backends {
			switch m.status[ci][bi] {
			case cellOK:
				sb.WriteString(green.Render(pad("ok", colWidth)))
			case cellFailed:
				sb.WriteString(red.Render(pad("fail", colWidth)))
			default:
				sb.WriteString(dimmer.Render(pad("·", colWidth)))
			}
		}
		sb.WriteString("\n")
	}

	if m.lastErr != nil {
		sb.WriteString("\n" + red.Render(truncate(m.lastErr.Error(), m.width-2)) + "\n")
	}
	sb.WriteString("\n" + dimmer.Render("q: cancel"))
	return sb.String()
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s + " "
	}
	return s + strings.Repeat(" ", w-len(s))
}

func truncate(s string, w int) string {
	if w < 1 {
		w = 1
	}
	if len(s) <= w {
		return s
	}
	return s[:w-1] + "…"
}

// Monitor runs the batch under a live progress view and returns its bundles.
// Pressing q cancels the remaining runs; bundles assembled so far are still
// returned.
func Monitor(ctx context.Context, b *xval.Batch, conditions []*reactor.Condition, backends []string) ([]*xval.Bundle, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered to full batch size so workers never block on a slow redraw.
	progress := make(chan xval.Progress, len(conditions)*len(backends))
	b.Notify(progress)

	p := tea.NewProgram(newModel(conditions, backends, cancel))

	go func() {
		bundles := b.Run(ctx)
		close(progress)
		p.Send(doneMsg(bundles))
	}()
	go func() {
		for ev := range progress {
			p.Send(progressMsg(ev))
		}
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(model).bundles, nil
}
