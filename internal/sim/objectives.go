package sim

import (
	"math"

	"github.com/pathintegral/mppi/internal/dynamo"
)

// SwingUp drives a pendulum from hanging (theta = 0) to inverted. The
// angle term vanishes at the top; the velocity term discourages spinning
// through it.
type SwingUp struct {
	AngleWeight    float64
	VelocityWeight float64
}

func NewSwingUp() *SwingUp {
	return &SwingUp{AngleWeight: 5.0, VelocityWeight: 0.1}
}

func (o *SwingUp) RunningCost(x dynamo.State) float64 {
	upright := 1.0 + math.Cos(x[0]) // 0 at theta = pi
	return o.AngleWeight*upright*upright + o.VelocityWeight*x[1]*x[1]
}

// Balance keeps a cartpole upright and centered.
type Balance struct {
	AngleWeight    float64
	PositionWeight float64
	VelocityWeight float64
}

func NewBalance() *Balance {
	return &Balance{AngleWeight: 10.0, PositionWeight: 0.5, VelocityWeight: 0.1}
}

func (o *Balance) RunningCost(x dynamo.State) float64 {
	return o.PositionWeight*x[0]*x[0] +
		o.VelocityWeight*x[1]*x[1] +
		o.AngleWeight*x[2]*x[2] +
		o.VelocityWeight*x[3]*x[3]
}

// GoalReach steers a planar point mass to a goal position and penalizes
// residual distance heavily at the end of the horizon.
type GoalReach struct {
	Goal           [2]float64
	SpeedWeight    float64
	TerminalWeight float64
}

func NewGoalReach(gx, gy float64) *GoalReach {
	return &GoalReach{Goal: [2]float64{gx, gy}, SpeedWeight: 0.05, TerminalWeight: 10.0}
}

func (o *GoalReach) distSq(x dynamo.State) float64 {
	dx := x[0] - o.Goal[0]
	dy := x[1] - o.Goal[1]
	return dx*dx + dy*dy
}

func (o *GoalReach) RunningCost(x dynamo.State) float64 {
	return o.distSq(x) + o.SpeedWeight*(x[2]*x[2]+x[3]*x[3])
}

func (o *GoalReach) TerminalCost(x dynamo.State, u dynamo.Control) float64 {
	return o.TerminalWeight * o.distSq(x)
}
