package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/pathintegral/mppi/internal/dynamo"
)

func TestPendulumRestingEquilibrium(t *testing.T) {
	p := NewPendulum()
	dx := p.Derive(dynamo.State{0, 0}, dynamo.Control{0}, 0)
	if dx[0] != 0 || dx[1] != 0 {
		t.Errorf("hanging pendulum should be at rest, got %v", dx)
	}
}

func TestPendulumTorqueAccelerates(t *testing.T) {
	p := NewPendulum()
	dx := p.Derive(dynamo.State{0, 0}, dynamo.Control{1.0}, 0)
	if dx[1] <= 0 {
		t.Errorf("positive torque should accelerate positively, got %v", dx[1])
	}
}

func TestPendulumEnergyAtBottom(t *testing.T) {
	p := NewPendulum()
	if e := p.Energy(dynamo.State{0, 0}); e != 0 {
		t.Errorf("energy at rest should be 0, got %v", e)
	}
	top := p.Energy(dynamo.State{math.Pi, 0})
	want := 2 * p.Mass * p.Gravity * p.Length
	if math.Abs(top-want) > 1e-12 {
		t.Errorf("energy at top = %v, want %v", top, want)
	}
}

func TestCartPoleUprightUnstable(t *testing.T) {
	c := NewCartPole()
	dx := c.Derive(dynamo.State{0, 0, 0.1, 0}, dynamo.Control{0}, 0)
	if dx[3] <= 0 {
		t.Errorf("tilted pole should fall further, got thetaacc %v", dx[3])
	}
}

func TestCartPoleForceMovesCart(t *testing.T) {
	c := NewCartPole()
	dx := c.Derive(dynamo.State{0, 0, 0, 0}, dynamo.Control{5.0}, 0)
	if dx[1] <= 0 {
		t.Errorf("positive force should accelerate cart, got %v", dx[1])
	}
}

func TestPointMassDamping(t *testing.T) {
	p := NewPointMass()
	dx := p.Derive(dynamo.State{0, 0, 1.0, -1.0}, dynamo.Control{0, 0}, 0)
	if dx[2] >= 0 || dx[3] <= 0 {
		t.Errorf("damping should oppose velocity, got %v", dx)
	}
}

func TestActuatorLimits(t *testing.T) {
	systems := []dynamo.System{NewPendulum(), NewCartPole(), NewPointMass()}
	for _, s := range systems {
		a, ok := s.(dynamo.Actuated)
		if !ok {
			t.Fatalf("%T should expose actuator limits", s)
		}
		min, max := a.ActuatorLimits()
		if len(min) != s.ControlDim() || len(max) != s.ControlDim() {
			t.Errorf("%T limits have wrong dimension", s)
		}
		for i := range min {
			if min[i] >= 0 || max[i] <= 0 {
				t.Errorf("%T limit %d = [%v, %v] does not straddle zero", s, i, min[i], max[i])
			}
		}
	}
}

func TestSetParamUnknown(t *testing.T) {
	for _, c := range []dynamo.Configurable{NewPendulum(), NewCartPole(), NewPointMass()} {
		if err := c.SetParam("bogus", 1.0); err == nil {
			t.Errorf("%T should reject unknown params", c)
		}
	}
}

func TestSetParamRejectsNonPositiveMass(t *testing.T) {
	p := NewPendulum()
	err := p.SetParam("mass", 0)
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("err = %v, want ErrParameterBounds", err)
	}
	if p.Mass != 1.0 {
		t.Errorf("rejected value must not be applied, mass = %v", p.Mass)
	}
}
