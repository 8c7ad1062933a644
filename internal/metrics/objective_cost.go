package metrics

import (
	"math"

	"github.com/pathintegral/mppi/internal/dynamo"
)

// ObjectiveCost averages the planning objective along the executed
// trajectory, the headline number for comparing planner settings.
type ObjectiveCost struct {
	name    string
	obj     dynamo.Objective
	sum     float64
	samples int
}

func NewObjectiveCost(obj dynamo.Objective) *ObjectiveCost {
	return &ObjectiveCost{name: "objective_cost", obj: obj}
}

func (m *ObjectiveCost) Name() string {
	return m.name
}

func (m *ObjectiveCost) Observe(x dynamo.State, u dynamo.Control, t float64) {
	m.sum += m.obj.RunningCost(x)
	m.samples++
}

func (m *ObjectiveCost) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *ObjectiveCost) Reset() {
	m.sum = 0
	m.samples = 0
}

// Stability reports the fraction of steps with every state component
// inside a threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	for _, val := range x {
		if math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
