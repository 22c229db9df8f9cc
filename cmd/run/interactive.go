package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/wasm-console/errors"
	"github.com/wippyai/wasm-console/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// outputLines is the number of transcript lines kept on screen.
const outputLines = 20

type modelState int

const (
	stateRunning modelState = iota
	stateDone
)

// transcriptLine is one line of the session, either guest output or a line
// the user entered.
type transcriptLine struct {
	text  string
	input bool
}

type interactiveModel struct {
	err        error
	cancel     context.CancelFunc
	stdin      *io.PipeWriter
	output     chan string
	cfg        runtime.Config
	transcript []transcriptLine
	input      textinput.Model
	state      modelState
}

// outputMsg carries one guest output line.
type outputMsg string

// doneMsg reports that the entry point returned.
type doneMsg struct {
	err error
}

// sentMsg reports that an entered line reached the guest's input, or why it
// could not.
type sentMsg struct {
	err error
}

func newInteractiveModel(cfg runtime.Config) *interactiveModel {
	pr, pw := io.Pipe()
	output := make(chan string, 64)

	cfg.Stdin = pr
	cfg.Stdout = &lineWriter{lines: output}

	ti := textinput.New()
	ti.Placeholder = "input line"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()

	return &interactiveModel{
		cfg:    cfg,
		stdin:  pw,
		output: output,
		input:  ti,
		state:  stateRunning,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	return tea.Batch(textinput.Blink, m.runGuest(ctx), m.waitForOutput())
}

func (m *interactiveModel) runGuest(ctx context.Context) tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		err := runtime.Run(ctx, cfg)
		close(m.output)
		return doneMsg{err: err}
	}
}

func (m *interactiveModel) waitForOutput() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-m.output
		if !ok {
			return nil
		}
		return outputMsg(line)
	}
}

func (m *interactiveModel) sendLine(line string) tea.Cmd {
	return func() tea.Msg {
		_, err := io.WriteString(m.stdin, line+"\n")
		return sentMsg{err: err}
	}
}

func (m *interactiveModel) shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.stdin.Close()
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.state == stateRunning {
				m.err = context.Canceled
			}
			m.shutdown()
			return m, tea.Quit

		case "q":
			if m.state == stateDone {
				return m, tea.Quit
			}

		case "ctrl+d":
			if m.state == stateRunning {
				m.stdin.Close()
			}
			return m, nil

		case "enter":
			if m.state == stateRunning {
				line := m.input.Value()
				m.input.Reset()
				m.transcript = append(m.transcript, transcriptLine{text: line, input: true})
				return m, m.sendLine(line)
			}
			return m, tea.Quit
		}

	case outputMsg:
		m.transcript = append(m.transcript, transcriptLine{text: string(msg)})
		return m, m.waitForOutput()

	case sentMsg:
		if msg.err != nil && m.state == stateRunning {
			m.transcript = append(m.transcript, transcriptLine{text: "input closed"})
		}
		return m, nil

	case doneMsg:
		m.err = msg.err
		m.state = stateDone
		m.input.Blur()
		m.stdin.Close()
		return m, nil
	}

	if m.state == stateRunning {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("WASM Console"))
	b.WriteString(" ")
	b.WriteString(m.cfg.ModulePath)
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(m.cfg.EntryPoint))
	b.WriteString("\n\n")

	lines := m.transcript
	if len(lines) > outputLines {
		lines = lines[len(lines)-outputLines:]
	}
	for _, l := range lines {
		if l.input {
			b.WriteString(inputStyle.Render("> " + l.text))
		} else {
			b.WriteString(l.text)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.state {
	case stateRunning:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter send line • ctrl+d end input • ctrl+c quit"))

	case stateDone:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.cfg.EntryPoint + " returned"))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter/q quit"))
	}

	return b.String()
}

// lineWriter splits console output into lines for the TUI.
type lineWriter struct {
	lines chan<- string
	buf   bytes.Buffer
	mu    sync.Mutex
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line stays buffered until its newline arrives.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.lines <- strings.TrimSuffix(line, "\n")
	}
	return len(p), nil
}

func runInteractive(cfg runtime.Config) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.Environment("interactive mode requires a terminal")
	}

	m := newInteractiveModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	m.shutdown()
	if err != nil {
		return err
	}
	return final.(*interactiveModel).err
}
