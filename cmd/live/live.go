package live

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/cwkey/cmd/common"
	"github.com/gigurra/cwkey/cmd/keyer"
	"github.com/gigurra/cwkey/cmd/keyer/sink"
	"github.com/spf13/cobra"
)

type Params struct {
	WPM    int    `short:"w" help:"Speed in words per minute (0 = from config)." default:"0"`
	Tone   bool   `short:"t" help:"Also key an audio tone (requires CGO on Linux)." default:"false"`
	Config string `optional:"true" help:"Config file (default ~/.cwkey/config.json)."`
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	stateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	repeatStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	historyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

const historySize = 5

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "live",
		Short: "Interactive Morse keyer",
		Long: `Type text and key it out live. Enter queues the line behind the message
that is playing, Tab toggles repeat for the next message, Ctrl+S lets the
current message finish, Esc cuts it, Ctrl+C quits.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "live: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func run(params *Params) error {
	cfg, err := common.LoadConfig(params.Config)
	if err != nil {
		return err
	}
	if params.WPM > 0 {
		cfg.WPM = params.WPM
	}

	lamp := &sink.Level{}
	out := sink.Tee{lamp}
	if params.Tone {
		if !sink.AudioAvailable {
			slog.Warn("audio requires CGO on Linux, tone falls back to the terminal bell")
		}
		tone, err := sink.NewTone(os.Stdout, cfg.Tone.FrequencyHz, cfg.Tone.Volume)
		if err != nil {
			return fmt.Errorf("failed to open audio: %w", err)
		}
		defer func() { _ = tone.Close() }()
		out = append(out, tone)
	}

	// Diagnostics would tear the alt screen; errors are shown in the view.
	kc := cfg.KeyerConfig()
	kc.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := keyer.New(kc, out)
	if err != nil {
		return err
	}

	m := newModel(engine, lamp, cfg.TickInterval(), time.Now())
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type tickMsg time.Time

type model struct {
	engine  *keyer.Engine
	lamp    *sink.Level
	tick    time.Duration
	last    time.Time
	input   string
	repeat  bool
	history []string
	err     error
}

func newModel(engine *keyer.Engine, lamp *sink.Level, tick time.Duration, now time.Time) model {
	return model{
		engine: engine,
		lamp:   lamp,
		tick:   tick,
		last:   now,
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd(m.tick)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		now := time.Time(msg)
		if elapsed := now.Sub(m.last); elapsed > 0 {
			m.engine.Tick(elapsed)
		}
		m.last = now
		return m, tickCmd(m.tick)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.engine.Interrupt()
			return m, tea.Quit
		case "enter":
			return m.submit(), nil
		case "tab":
			m.repeat = !m.repeat
		case "ctrl+s":
			m.engine.Stop()
		case "esc":
			m.engine.Interrupt()
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case " ":
			m.input += " "
		default:
			if msg.Type == tea.KeyRunes {
				m.input += strings.ToUpper(string(msg.Runes))
			}
		}
	}
	return m, nil
}

func (m model) submit() model {
	text := strings.TrimSpace(m.input)
	if text == "" {
		return m
	}
	if err := m.engine.Submit(text, m.repeat); err != nil {
		m.err = err
		return m
	}
	m.err = nil
	m.input = ""
	m.history = append(m.history, text)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
	return m
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cwkey live"))
	b.WriteString(fmt.Sprintf("  %v/unit\n\n", m.engine.DotDuration()))

	b.WriteString(sink.Lamp(m.lamp.On()))
	b.WriteString("  ")
	state := m.engine.State()
	switch state {
	case keyer.StateIdle:
		b.WriteString(idleStyle.Render(state.String()))
	case keyer.StateRepeating:
		b.WriteString(repeatStyle.Render(state.String()))
	default:
		b.WriteString(stateStyle.Render(state.String()))
	}
	if state != keyer.StateIdle {
		index, length := m.engine.Progress()
		b.WriteString(fmt.Sprintf("  %s", progressBar(index, length, 30)))
	}
	if m.engine.Pending() {
		b.WriteString("  (next queued)")
	}
	b.WriteString("\n\n")

	repeat := "once"
	if m.repeat {
		repeat = "repeat"
	}
	b.WriteString(fmt.Sprintf("> %s_  [%s]\n", m.input, repeat))
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	if len(m.history) > 0 {
		b.WriteString("\n")
		for _, h := range m.history {
			b.WriteString(historyStyle.Render("  " + h))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: send • tab: repeat • ctrl+s: stop after pass • esc: cut • ctrl+c: quit"))
	return b.String()
}

func progressBar(index, length uint32, width int) string {
	if length == 0 {
		return strings.Repeat("░", width)
	}
	filled := int(uint64(index+1) * uint64(width) / uint64(length))
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
