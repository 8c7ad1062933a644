package physics

import (
	"fmt"

	"github.com/pathintegral/mppi/internal/dynamo"
)

// PointMass is a planar omnidirectional robot: a damped unit mass pushed
// by a 2-D force. State is [x, y, vx, vy].
type PointMass struct {
	Mass     float64
	Damping  float64
	MaxForce float64
}

func NewPointMass() *PointMass {
	return &PointMass{
		Mass:     1.0,
		Damping:  0.5,
		MaxForce: 5.0,
	}
}

func (p *PointMass) StateDim() int {
	return 4
}

func (p *PointMass) ControlDim() int {
	return 2
}

func (p *PointMass) ActuatorLimits() (min, max []float64) {
	return []float64{-p.MaxForce, -p.MaxForce}, []float64{p.MaxForce, p.MaxForce}
}

func (p *PointMass) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	fx, fy := 0.0, 0.0
	if len(u) >= 2 {
		fx = u[0]
		fy = u[1]
	}
	return dynamo.State{
		x[2],
		x[3],
		(fx - p.Damping*x[2]) / p.Mass,
		(fy - p.Damping*x[3]) / p.Mass,
	}
}

func (p *PointMass) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":      p.Mass,
		"damping":   p.Damping,
		"max_force": p.MaxForce,
	}
}

func (p *PointMass) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		if value <= 0 {
			return fmt.Errorf("%w: mass must be positive", dynamo.ErrParameterBounds)
		}
		p.Mass = value
	case "damping":
		p.Damping = value
	case "max_force":
		p.MaxForce = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
