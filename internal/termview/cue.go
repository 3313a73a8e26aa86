package termview

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Cue plays short tones for hits and deaths. A nil or uninitialised Cue is
// silent.
type Cue struct {
	mu          sync.Mutex
	initialized bool
	played      int
}

// NewCue opens the speaker. The game runs fine without sound, so callers
// usually log the error and keep the returned silent Cue.
func NewCue() (*Cue, error) {
	c := &Cue{}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return c, err
	}
	c.initialized = true
	return c, nil
}

// Hit plays a high blip.
func (c *Cue) Hit() { c.tone(880, 50*time.Millisecond) }

// Death plays a longer low tone.
func (c *Cue) Death() { c.tone(220, 200*time.Millisecond) }

// Played returns how many tones were requested while initialised.
func (c *Cue) Played() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.played
}

func (c *Cue) tone(freq float64, d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	c.played++
	speaker.Play(beep.Take(sampleRate.N(d), sine))
}

// Close silences queued tones.
func (c *Cue) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		speaker.Clear()
		c.initialized = false
	}
}
