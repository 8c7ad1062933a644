package mppi

import (
	"github.com/pathintegral/mppi/internal/dynamo"
)

// sequence owns the nominal control trajectory U (horizon x nu). U persists
// across planning cycles until Reset; everything else the planner touches
// is recomputed and discarded each cycle.
type sequence struct {
	horizon    int
	nu         int
	uMin, uMax []float64
	perCommand int
	filter     *savgol // nil when output filtering is disabled

	u [][]float64
}

func newSequence(cfg Config) *sequence {
	s := &sequence{
		horizon:    cfg.Horizon,
		nu:         cfg.NU(),
		uMin:       cfg.UMin,
		uMax:       cfg.UMax,
		perCommand: cfg.UPerCommand,
	}
	if cfg.FilterU {
		s.filter = newSavgol(cfg.Horizon, sgfOrder)
	}
	s.resetFrom(cfg.USeqInit)
	return s
}

// shift rolls the sequence one step into the future: slot t takes slot
// t+1's value and the final slot keeps its prior value as the warm-start
// placeholder.
func (s *sequence) shift() {
	for t := 0; t < s.horizon-1; t++ {
		copy(s.u[t], s.u[t+1])
	}
}

// applyCorrection adds the importance-weighted noise barycenter to every
// horizon slot. This is the MPPI update rule.
func (s *sequence) applyCorrection(omega []float64, noise *Tensor) {
	for t := 0; t < s.horizon; t++ {
		row := s.u[t]
		for k := 0; k < noise.K; k++ {
			eps := noise.Vec(k, t)
			for i := 0; i < s.nu; i++ {
				row[i] += omega[k] * eps[i]
			}
		}
	}
}

func (s *sequence) clip() {
	for t := 0; t < s.horizon; t++ {
		clipVec(s.u[t], s.uMin, s.uMax)
	}
}

func (s *sequence) smooth() error {
	if s.filter == nil {
		return nil
	}
	return s.filter.Smooth(s.u)
}

// commands copies out the head of the sequence, one control per command
// slot. The copies are clipped so smoothing overshoot never leaks an
// out-of-bounds action to the plant.
func (s *sequence) commands() []dynamo.Control {
	out := make([]dynamo.Control, s.perCommand)
	for i := range out {
		row := append([]float64(nil), s.u[i]...)
		clipVec(row, s.uMin, s.uMax)
		out[i] = dynamo.Control(row)
	}
	return out
}

func (s *sequence) zeroCommands() []dynamo.Control {
	out := make([]dynamo.Control, s.perCommand)
	for i := range out {
		out[i] = make(dynamo.Control, s.nu)
	}
	return out
}

func (s *sequence) resetFrom(rows [][]float64) {
	s.u = make([][]float64, s.horizon)
	for t := range s.u {
		s.u[t] = append([]float64(nil), rows[t]...)
	}
}

// snapshot returns a copy of the nominal sequence for diagnostics.
func (s *sequence) snapshot() [][]float64 {
	out := make([][]float64, s.horizon)
	for t := range out {
		out[t] = append([]float64(nil), s.u[t]...)
	}
	return out
}

func clipVec(v, lo, hi []float64) {
	for i := range v {
		if v[i] < lo[i] {
			v[i] = lo[i]
		} else if v[i] > hi[i] {
			v[i] = hi[i]
		}
	}
}
