//go:build linux && !cgo

package sink

import "io"

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = false

// Tone falls back to the terminal bell when audio is not compiled in.
type Tone struct {
	bell *Bell
}

func NewTone(fallback io.Writer, frequency, volume float64) (*Tone, error) {
	return &Tone{bell: NewBell(fallback)}, nil
}

func (t *Tone) Signal(on bool) {
	t.bell.Signal(on)
}

func (t *Tone) Close() error {
	return nil
}
