package metrics

import (
	"math"

	"github.com/pathintegral/mppi/internal/dynamo"
)

// ControlEffort measures what the planner's action regularizer pays for:
// the time-weighted integral of squared actuation over an episode, with the
// largest single command tracked separately. Observe weights each command
// by the gap to the previous timestamp, so Value approximates the integral
// of |u|^2 dt regardless of the planning rate.
type ControlEffort struct {
	integral float64
	peak     float64
	lastT    float64
	started  bool
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string {
	return "control_effort"
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	sq := 0.0
	for _, v := range u {
		sq += v * v
		if a := math.Abs(v); a > c.peak {
			c.peak = a
		}
	}
	if c.started {
		if dt := t - c.lastT; dt > 0 {
			c.integral += sq * dt
		}
	}
	c.started = true
	c.lastT = t
}

func (c *ControlEffort) Value() float64 {
	return c.integral
}

// Peak reports the largest absolute command component seen since the last
// Reset.
func (c *ControlEffort) Peak() float64 {
	return c.peak
}

func (c *ControlEffort) Reset() {
	c.integral = 0
	c.peak = 0
	c.lastT = 0
	c.started = false
}
