package play

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gen2brain/beeep"
	"github.com/gigurra/cwkey/cmd/common"
	"github.com/gigurra/cwkey/cmd/common/config"
	"github.com/gigurra/cwkey/cmd/keyer"
	"github.com/gigurra/cwkey/cmd/keyer/sink"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	beeepNotify = beeep.Notify
	isTerminal  = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
)

type Params struct {
	Text   []string `pos:"true" optional:"true" help:"Text to send. If none provided, reads lines from stdin."`
	Repeat bool     `short:"r" help:"Repeat the message until interrupted." default:"false"`
	DotMs  int      `short:"d" help:"Unit duration in milliseconds (0 = from config)." default:"0"`
	WPM    int      `short:"w" help:"Speed in words per minute, overrides --dot-ms (0 = from config)." default:"0"`
	TickMs int      `short:"t" help:"Tick interval in milliseconds (0 = from config)." default:"0"`
	Sink   []string `short:"s" optional:"true" help:"Actuators: console, tone, bell, none. Repeatable (default from config)."`
	Clip   bool     `short:"c" help:"Send the clipboard contents." default:"false"`
	Watch  string   `optional:"true" help:"Send this file and send it again whenever it changes."`
	Notify bool     `short:"n" help:"Show a desktop notification when the transmission ends." default:"false"`
	Config string   `optional:"true" help:"Config file (default ~/.cwkey/config.json)."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "play",
		Short: "Key text as Morse code in real time",
		Long: `Encode text and key it out on one or more actuators, driven by a periodic tick.

A new message is queued behind the one playing and starts at the next message
boundary. Press Ctrl+C to cut the transmission.

Examples:
  cwkey play "cq cq de cwkey"
  cwkey play -r -s tone -w 18 vvv
  cwkey play --watch beacon.txt -r
  echo "hello world" | cwkey play -s console -s bell`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := run(ctx, params, os.Stdin, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func resolveConfig(params *Params) (*config.Config, error) {
	cfg, err := common.LoadConfig(params.Config)
	if err != nil {
		return nil, err
	}

	if params.DotMs > 0 {
		cfg.DotMs = params.DotMs
		cfg.WPM = 0
	}
	if params.WPM > 0 {
		cfg.WPM = params.WPM
	}
	if params.TickMs > 0 {
		cfg.TickMs = params.TickMs
	}
	if len(params.Sink) > 0 {
		cfg.Sinks = params.Sink
	}
	return cfg, nil
}

// actuators is the combined sink built from the configured names.
type actuators struct {
	sink.Tee
	console bool // a console lamp is attached and owns the current line
	closers []func() error
}

// release turns every actuator off and closes the ones holding devices.
func (a *actuators) release() {
	a.Signal(false)
	for _, c := range a.closers {
		_ = c()
	}
}

func buildSink(names []string, cfg *config.Config, stdout io.Writer) (*actuators, error) {
	names = lo.Uniq(lo.Map(names, func(n string, _ int) string {
		return strings.ToLower(strings.TrimSpace(n))
	}))

	out := &actuators{}
	for _, name := range names {
		switch name {
		case "console":
			if !isTerminal() {
				slog.Warn("stdout is not a terminal, console sink disabled")
				continue
			}
			out.Tee = append(out.Tee, sink.NewConsole(stdout))
			out.console = true
		case "bell":
			out.Tee = append(out.Tee, sink.NewBell(stdout))
		case "tone":
			if !sink.AudioAvailable {
				slog.Warn("audio requires CGO on Linux, tone sink falls back to the terminal bell")
			}
			tone, err := sink.NewTone(stdout, cfg.Tone.FrequencyHz, cfg.Tone.Volume)
			if err != nil {
				return nil, fmt.Errorf("failed to open audio: %w", err)
			}
			out.Tee = append(out.Tee, tone)
			out.closers = append(out.closers, tone.Close)
		case "none", "":
		default:
			return nil, fmt.Errorf("unknown sink %q (want console, tone, bell or none)", name)
		}
	}
	return out, nil
}

func run(ctx context.Context, params *Params, stdin io.Reader, stdout io.Writer) error {
	cfg, err := resolveConfig(params)
	if err != nil {
		return err
	}

	src, hold, err := openSource(ctx, params, stdin)
	if err != nil {
		return err
	}

	out, err := buildSink(cfg.Sinks, cfg, stdout)
	if err != nil {
		return err
	}
	defer out.release()

	engine, err := keyer.New(cfg.KeyerConfig(), out)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	l := &loop{engine: engine, hold: hold}
	err = l.run(ctx, ticker.C, src, time.Now())
	if out.console {
		fmt.Fprintln(stdout)
	}
	if err != nil {
		return err
	}

	if params.Notify && ctx.Err() == nil {
		if err := beeepNotify("cwkey", "Transmission finished", ""); err != nil {
			slog.Warn("failed to show notification", "error", err)
		}
	}
	return nil
}

type message struct {
	text   string
	repeat bool
	strict bool // encoding errors abort instead of being skipped
}

// loop owns the engine. Everything that touches it runs on this goroutine.
type loop struct {
	engine *keyer.Engine
	hold   bool // keep running after the source is drained
	queue  []message
}

// run drives the engine until the source is drained and playback is idle, or
// ctx is cancelled.
func (l *loop) run(ctx context.Context, ticks <-chan time.Time, src <-chan message, start time.Time) error {
	last := start
	drained := false

	for {
		if err := l.feed(); err != nil {
			return err
		}
		if drained && !l.hold && len(l.queue) == 0 && l.engine.State() == keyer.StateIdle {
			return nil
		}

		select {
		case <-ctx.Done():
			l.engine.Interrupt()
			return nil
		case msg, ok := <-src:
			if !ok {
				drained = true
				src = nil
				continue
			}
			l.queue = append(l.queue, msg)
		case now := <-ticks:
			elapsed := now.Sub(last)
			last = now
			if elapsed < 0 {
				elapsed = 0
			}
			l.engine.Tick(elapsed)
		}
	}
}

// feed hands the oldest queued message to the engine once its next slot is
// free.
func (l *loop) feed() error {
	for len(l.queue) > 0 && !l.engine.Pending() {
		msg := l.queue[0]
		l.queue = l.queue[1:]
		err := l.engine.Submit(msg.text, msg.repeat)
		if err == nil {
			return nil
		}
		if msg.strict {
			return err
		}
		// Already logged by the engine; move on to the next one.
	}
	return nil
}
