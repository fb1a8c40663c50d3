package keyer

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gigurra/cwkey/cmd/keyer/bitbuf"
)

const testDot = 10 * time.Millisecond

type recorder struct {
	levels []bool
}

func (r *recorder) Signal(on bool) {
	r.levels = append(r.levels, on)
}

func newTestEngine(t *testing.T, capacity int) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e, err := New(Config{
		DotDuration: testDot,
		Capacity:    capacity,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, rec)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e, rec
}

func tickN(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.Tick(testDot)
	}
}

// pattern encodes text on its own and returns its unit levels.
func pattern(t *testing.T, text string) []bool {
	t.Helper()
	buf, _ := bitbuf.New(DefaultCapacity)
	if err := Encode(buf, text); err != nil {
		t.Fatalf("Encode(%q) failed: %v", text, err)
	}
	levels := make([]bool, buf.Len())
	for i := range levels {
		levels[i] = buf.Bit(uint32(i))
	}
	return levels
}

func assertLevels(t *testing.T, got, want []bool) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d levels, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("level %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	sink := SinkFunc(func(bool) {})
	tests := []struct {
		name string
		cfg  Config
		sink Sink
	}{
		{"zero dot", Config{DotDuration: 0, Capacity: 64}, sink},
		{"negative dot", Config{DotDuration: -time.Second, Capacity: 64}, sink},
		{"tiny capacity", Config{DotDuration: testDot, Capacity: 4}, sink},
		{"nil sink", Config{DotDuration: testDot, Capacity: 64}, nil},
	}

	for _, tc := range tests {
		if _, err := New(tc.cfg, tc.sink); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: New error = %v, want ErrInvalidConfig", tc.name, err)
		}
	}
}

func TestTick_IdleIsNoop(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	tickN(e, 100)
	e.Tick(time.Hour)

	if len(rec.levels) != 0 {
		t.Errorf("sink called %d times while idle, want 0", len(rec.levels))
	}
	if e.State() != StateIdle {
		t.Errorf("State() = %v, want idle", e.State())
	}
}

func TestSubmit_RepeatIsStable(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	if err := e.Submit("E", true); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	single := pattern(t, "E")
	if len(single) != 16 {
		t.Fatalf("E encodes to %d units, want 16", len(single))
	}

	passes := 25
	tickN(e, passes*len(single))

	var want []bool
	for i := 0; i < passes; i++ {
		want = append(want, single...)
	}
	assertLevels(t, rec.levels, want)

	if e.State() != StateRepeating {
		t.Errorf("State() = %v, want repeating", e.State())
	}
	if e.Pending() {
		t.Error("Pending() = true, want false")
	}
}

func TestSubmit_QueueDoesNotDisturbLive(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	_ = e.Submit("A", true)

	a := pattern(t, "A")
	b := pattern(t, "B")

	tickN(e, 5)
	if err := e.Submit("B", false); err != nil {
		t.Fatalf("Submit(B) failed: %v", err)
	}
	if e.State() != StatePlaying {
		t.Errorf("State() = %v after queuing, want playing", e.State())
	}
	if !e.Pending() {
		t.Error("Pending() = false after queuing B")
	}

	// Rest of the A pass, all of B, then the tick that finds B finished.
	tickN(e, len(a)-5+len(b)+1)

	var want []bool
	want = append(want, a...)
	want = append(want, b...)
	want = append(want, false)
	assertLevels(t, rec.levels, want)

	if e.State() != StateIdle {
		t.Errorf("State() = %v, want idle after B", e.State())
	}

	tickN(e, 10)
	if len(rec.levels) != len(want) {
		t.Errorf("sink called %d more times after going idle", len(rec.levels)-len(want))
	}
}

func TestSubmit_RepeatNextRepeatsAfterSwap(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	_ = e.Submit("T", false)
	tickN(e, 3)
	_ = e.Submit("E", true)

	tt := pattern(t, "T")
	ee := pattern(t, "E")
	tickN(e, len(tt)-3+3*len(ee))

	var want []bool
	want = append(want, tt...)
	for i := 0; i < 3; i++ {
		want = append(want, ee...)
	}
	assertLevels(t, rec.levels, want)
	if e.State() != StateRepeating {
		t.Errorf("State() = %v, want repeating", e.State())
	}
}

func TestTick_BoundaryStartsAtIndexZero(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	_ = e.Submit("T", true)

	// One huge tick lands far past the end; playback restarts at unit 0.
	e.Tick(time.Hour)
	idx, length := e.Progress()
	if idx != 0 {
		t.Errorf("Progress() index = %d, want 0", idx)
	}
	if length != uint32(len(pattern(t, "T"))) {
		t.Errorf("Progress() length = %d, want %d", length, len(pattern(t, "T")))
	}
	if rec.levels[0] {
		t.Error("first level = true, want false")
	}
}

func TestTick_HugeTickReachesBoundary(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	_ = e.Submit("T", true)
	e.Tick(testDot) // unit 0

	// 2^32 + 4 units would read unit 4 (on) if the index were narrowed first.
	e.Tick(time.Duration(1<<32)*testDot + 4*testDot)

	if idx, length := e.Progress(); idx != 0 || length != 18 {
		t.Errorf("Progress() = (%d, %d), want (0, 18)", idx, length)
	}
	if rec.levels[len(rec.levels)-1] {
		t.Error("last level = true, want false at the start of the next pass")
	}
	if e.State() != StateRepeating {
		t.Errorf("State() = %v, want repeating", e.State())
	}
}

func TestTick_TruncatesElapsed(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	_ = e.Submit("T", false) // off off off on on on ...
	e.Tick(time.Millisecond) // boundary tick, unit 0

	// 7ms steps: 7, 14, 21, 28, 35 -> units 0, 1, 2, 2, 3
	for i := 0; i < 5; i++ {
		e.Tick(7 * time.Millisecond)
	}
	want := []bool{false, false, false, false, false, true}
	assertLevels(t, rec.levels, want)
	if idx, _ := e.Progress(); idx != 3 {
		t.Errorf("Progress() index = %d, want 3", idx)
	}
}

func TestStop_FinishesPassThenIdles(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	_ = e.Submit("E", true)
	ee := pattern(t, "E")

	tickN(e, len(ee)+4)
	e.Stop()
	if e.State() != StatePlaying {
		t.Errorf("State() = %v after Stop, want playing", e.State())
	}

	tickN(e, len(ee)-4+1)
	var want []bool
	want = append(want, ee...)
	want = append(want, ee...)
	want = append(want, false)
	assertLevels(t, rec.levels, want)

	if e.State() != StateIdle {
		t.Errorf("State() = %v, want idle", e.State())
	}
}

func TestInterrupt_StopsImmediately(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	_ = e.Submit("T", true)
	tickN(e, 5) // unit 4 is on

	e.Interrupt()
	if idx, length := e.Progress(); idx != 0 || length != 0 {
		t.Errorf("Progress() = (%d, %d) after Interrupt, want (0, 0)", idx, length)
	}
	if e.State() != StateIdle {
		t.Errorf("State() = %v, want idle", e.State())
	}

	calls := len(rec.levels)
	tickN(e, 10)
	if len(rec.levels) != calls {
		t.Errorf("sink called %d times after Interrupt, want 0", len(rec.levels)-calls)
	}
	if !rec.levels[calls-1] {
		t.Error("last level = false; Interrupt must not force the sink off")
	}
}

func TestInterrupt_MovesToQueued(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	_ = e.Submit("T", true)
	tickN(e, 5)
	_ = e.Submit("E", false)
	e.Interrupt()

	ee := pattern(t, "E")
	tickN(e, len(ee))
	assertLevels(t, rec.levels[5:], ee)
}

func TestSubmit_FailuresLeaveEngineIdle(t *testing.T) {
	e, rec := newTestEngine(t, 8) // 32 units

	err := e.Submit("Hi!", false)
	if !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("Submit(Hi!) error = %v, want ErrInvalidCharacter", err)
	}
	if e.Pending() {
		t.Error("Pending() = true after invalid submit")
	}

	err = e.Submit("SOS", false) // 42 units
	if !errors.Is(err, bitbuf.ErrOverflow) {
		t.Errorf("Submit(SOS) error = %v, want ErrOverflow", err)
	}
	if e.Pending() {
		t.Error("Pending() = true after overflowing submit")
	}

	tickN(e, 50)
	if len(rec.levels) != 0 {
		t.Errorf("sink called %d times after failed submits, want 0", len(rec.levels))
	}
}

func TestSubmit_FailureClearsRepeat(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	_ = e.Submit("E", true)
	ee := pattern(t, "E")
	tickN(e, 2)

	_ = e.Submit("!", true)
	tickN(e, len(ee)-2+1)

	var want []bool
	want = append(want, ee...)
	want = append(want, false)
	assertLevels(t, rec.levels, want)
	if e.State() != StateIdle {
		t.Errorf("State() = %v, want idle", e.State())
	}
}

func TestReset(t *testing.T) {
	e, rec := newTestEngine(t, 64)
	_ = e.Submit("A", true)
	tickN(e, 3)
	_ = e.Submit("B", false)

	e.Reset()
	if e.State() != StateIdle || e.Pending() {
		t.Errorf("after Reset: State() = %v, Pending() = %v", e.State(), e.Pending())
	}
	calls := len(rec.levels)
	tickN(e, 10)
	if len(rec.levels) != calls {
		t.Error("sink called after Reset")
	}
}

func TestDotDurationForWPM(t *testing.T) {
	tests := []struct {
		wpm  int
		want time.Duration
	}{
		{20, 60 * time.Millisecond},
		{10, 120 * time.Millisecond},
		{0, DefaultDotDuration},
		{-3, DefaultDotDuration},
	}

	for _, tc := range tests {
		if got := DotDurationForWPM(tc.wpm); got != tc.want {
			t.Errorf("DotDurationForWPM(%d) = %v, want %v", tc.wpm, got, tc.want)
		}
	}
}
