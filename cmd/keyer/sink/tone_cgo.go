//go:build (linux && cgo) || windows || darwin

package sink

import (
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

const sampleRate = 44100

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(beep.SampleRate(sampleRate), beep.SampleRate(sampleRate).N(time.Second/20))
	})
	return speakerErr
}

// Tone keys a continuous sine tone on the speaker. Signal only stores the
// level; the speaker goroutine reads it while streaming.
type Tone struct {
	on       atomic.Bool
	streamer *toneStreamer
}

// NewTone starts streaming silence at the given frequency and volume (0..1).
// fallback is only written to by builds without audio.
func NewTone(fallback io.Writer, frequency, volume float64) (*Tone, error) {
	if err := initSpeaker(); err != nil {
		return nil, err
	}
	t := &Tone{}
	t.streamer = &toneStreamer{
		on:        &t.on,
		frequency: frequency,
		volume:    volume,
		// 5ms ramp to avoid clicks
		step: 1 / (float64(sampleRate) * 0.005),
	}
	speaker.Play(t.streamer)
	return t, nil
}

func (t *Tone) Signal(on bool) {
	t.on.Store(on)
}

// Close silences the tone and removes it from the speaker.
func (t *Tone) Close() error {
	t.on.Store(false)
	speaker.Clear()
	return nil
}

type toneStreamer struct {
	on        *atomic.Bool
	frequency float64
	volume    float64
	step      float64
	envelope  float64
	position  int
}

func (s *toneStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	target := 0.0
	if s.on.Load() {
		target = 1.0
	}
	for i := range samples {
		if s.envelope < target {
			s.envelope = math.Min(target, s.envelope+s.step)
		} else if s.envelope > target {
			s.envelope = math.Max(target, s.envelope-s.step)
		}

		phase := 2 * math.Pi * s.frequency * float64(s.position) / float64(sampleRate)
		value := math.Sin(phase) * s.envelope * s.volume
		samples[i][0] = value
		samples[i][1] = value
		s.position = (s.position + 1) % sampleRate
	}
	return len(samples), true
}

func (s *toneStreamer) Err() error {
	return nil
}
