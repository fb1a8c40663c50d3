// Package keyer turns text into a Morse on/off pattern and plays it back from
// a periodic tick.
//
// An Engine holds two fixed-capacity bit buffers. The live one is playing,
// the other one holds the next message. Submit always writes into the next
// buffer; it becomes live at the end of the current pass, or on the next Tick
// if nothing is playing. Engine is not safe for concurrent use: Submit, Tick,
// Stop, Interrupt and Reset must be serialised by the caller.
package keyer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gigurra/cwkey/cmd/keyer/bitbuf"
)

const (
	DefaultDotDuration = 60 * time.Millisecond
	DefaultCapacity    = 1024
)

var ErrInvalidConfig = errors.New("invalid keyer config")

// Sink receives the signal level once per Tick. It runs on the tick cadence
// and must not block.
type Sink interface {
	Signal(on bool)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(on bool)

func (f SinkFunc) Signal(on bool) { f(on) }

type Config struct {
	DotDuration time.Duration // Duration of one unit
	Capacity    int           // Bytes per buffer, header included
	Logger      *slog.Logger  // Diagnostics; slog.Default() if nil
}

func DefaultConfig() Config {
	return Config{
		DotDuration: DefaultDotDuration,
		Capacity:    DefaultCapacity,
	}
}

// DotDurationForWPM converts words per minute to a unit duration using the
// PARIS standard word of 50 units.
func DotDurationForWPM(wpm int) time.Duration {
	if wpm <= 0 {
		return DefaultDotDuration
	}
	return time.Duration(float64(time.Minute) / (50 * float64(wpm)))
}

type State int

const (
	StateIdle State = iota
	StatePlaying
	StateRepeating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateRepeating:
		return "repeating"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Engine struct {
	buffers [2]*bitbuf.Buffer
	live    int // index of the live buffer, the other one is next

	repeat     bool
	repeatNext bool

	dot      time.Duration
	elapsed  time.Duration // since the start of the current pass
	bitIndex uint32

	sink Sink
	log  *slog.Logger
}

// New allocates both buffers. No further allocation happens during playback.
func New(cfg Config, sink Sink) (*Engine, error) {
	if cfg.DotDuration <= 0 {
		return nil, fmt.Errorf("%w: dot duration must be positive, got %v", ErrInvalidConfig, cfg.DotDuration)
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: sink is required", ErrInvalidConfig)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		dot:  cfg.DotDuration,
		sink: sink,
		log:  logger,
	}
	for i := range e.buffers {
		buf, err := bitbuf.New(cfg.Capacity)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		e.buffers[i] = buf
	}
	return e, nil
}

func (e *Engine) liveBuf() *bitbuf.Buffer { return e.buffers[e.live] }
func (e *Engine) nextBuf() *bitbuf.Buffer { return e.buffers[1-e.live] }

// Submit encodes text into the next buffer. A repeating live message finishes
// its current pass and then yields. The repeat flags are updated even when
// encoding fails; the next buffer is then empty.
func (e *Engine) Submit(text string, repeat bool) error {
	err := Encode(e.nextBuf(), text)
	e.repeatNext = repeat
	e.repeat = false
	if err != nil {
		e.log.Error("morse submit failed", "error", err)
		return err
	}
	e.log.Debug("morse message queued", "units", e.nextBuf().Len(), "repeat", repeat)
	return nil
}

// Tick advances playback by elapsed and sends the current signal level to the
// sink. Nothing happens while both buffers are empty.
func (e *Engine) Tick(elapsed time.Duration) {
	if e.liveBuf().Empty() && e.nextBuf().Empty() {
		return
	}

	e.elapsed += elapsed
	units := e.elapsed / e.dot

	// Compared before narrowing so a huge tick cannot wrap back into the message.
	var index uint32
	if units >= time.Duration(e.liveBuf().Len()) {
		if !e.repeat {
			e.swap()
		}
		e.elapsed = 0
	} else {
		index = uint32(units)
	}
	e.bitIndex = index

	// The swap may have left nothing live; the pattern ends off.
	live := e.liveBuf()
	e.sink.Signal(!live.Empty() && live.Bit(index))
}

func (e *Engine) swap() {
	e.live = 1 - e.live
	e.repeat = e.repeatNext
	e.repeatNext = false
	e.nextBuf().Clear()
}

// Stop lets the current pass finish, then moves on to the next message or
// goes idle.
func (e *Engine) Stop() {
	e.repeat = false
}

// Interrupt drops the live message at once. The sink is not touched, so the
// last level it received stays in effect until the next Tick.
func (e *Engine) Interrupt() {
	e.liveBuf().Clear()
	e.repeat = false
	e.bitIndex = 0
}

// Reset empties both buffers and clears all playback state.
func (e *Engine) Reset() {
	for _, buf := range e.buffers {
		buf.Clear()
	}
	e.live = 0
	e.repeat = false
	e.repeatNext = false
	e.elapsed = 0
	e.bitIndex = 0
}

func (e *Engine) State() State {
	switch {
	case e.liveBuf().Empty() && e.nextBuf().Empty():
		return StateIdle
	case e.repeat && !e.liveBuf().Empty():
		return StateRepeating
	default:
		return StatePlaying
	}
}

// Pending reports whether a message is waiting in the next buffer.
func (e *Engine) Pending() bool {
	return !e.nextBuf().Empty()
}

// Progress returns the unit index last sent to the sink and the length of the
// live message.
func (e *Engine) Progress() (index, length uint32) {
	return e.bitIndex, e.liveBuf().Len()
}

func (e *Engine) DotDuration() time.Duration {
	return e.dot
}
