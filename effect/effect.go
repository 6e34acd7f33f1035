package effect

import (
	"time"

	"github.com/fogleman/ease"
)

// FPS returns the frame interval for n frames per second.
func FPS(n int) time.Duration {
	return time.Second / time.Duration(n)
}

// Pulse is a flash that starts at full intensity when triggered and decays to zero over its duration.
type Pulse struct {
	Duration time.Duration

	// Easing shapes the decay. It maps elapsed progress in [0, 1] to [0, 1].
	Easing func(float64) float64

	start time.Time
}

// NewPulse creates a pulse that fades out over d.
func NewPulse(d time.Duration) *Pulse {
	return &Pulse{
		Duration: d,
		Easing:   ease.OutQuad,
	}
}

// Trigger restarts the pulse at t.
func (p *Pulse) Trigger(t time.Time) {
	p.start = t
}

// Value returns the intensity of the pulse at t, between 0.0 and 1.0.
func (p *Pulse) Value(t time.Time) float64 {
	if p.start.IsZero() || p.Duration <= 0 || t.Before(p.start) {
		return 0
	}

	elapsed := t.Sub(p.start)
	if elapsed >= p.Duration {
		return 0
	}

	progress := float64(elapsed) / float64(p.Duration)
	return 1 - p.Easing(progress)
}

// Active reports whether the pulse still has some intensity at t.
func (p *Pulse) Active(t time.Time) bool {
	return p.Value(t) > 0
}
