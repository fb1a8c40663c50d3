// Package sink provides actuators for keyer engines: a terminal lamp, the
// terminal bell, an audio tone and helpers to combine them.
package sink

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/cwkey/cmd/keyer"
)

var (
	_ keyer.Sink = (*Console)(nil)
	_ keyer.Sink = (*Bell)(nil)
	_ keyer.Sink = (*Level)(nil)
	_ keyer.Sink = Tee(nil)
)

var (
	onStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("46"))
	offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Lamp renders a fixed-width key indicator.
func Lamp(on bool) string {
	if on {
		return onStyle.Render("    XXX    ")
	}
	return offStyle.Render("           ")
}

// Console redraws a lamp on a single terminal line whenever the level changes.
type Console struct {
	w       io.Writer
	last    bool
	started bool
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Signal(on bool) {
	if c.started && on == c.last {
		return
	}
	c.started = true
	c.last = on
	_, _ = fmt.Fprint(c.w, "\r"+Lamp(on))
}

// Bell rings the terminal bell on every rising edge.
type Bell struct {
	w    io.Writer
	last bool
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Signal(on bool) {
	if on && !b.last {
		_, _ = fmt.Fprint(b.w, "\a")
	}
	b.last = on
}

// Level remembers the last signal and counts rising edges.
type Level struct {
	on    bool
	edges int
}

func (l *Level) Signal(on bool) {
	if on && !l.on {
		l.edges++
	}
	l.on = on
}

func (l *Level) On() bool   { return l.on }
func (l *Level) Edges() int { return l.edges }

// Tee forwards every signal to all of its sinks in order.
type Tee []keyer.Sink

func (t Tee) Signal(on bool) {
	for _, s := range t {
		s.Signal(on)
	}
}
