package config

import "github.com/pathintegral/mppi/internal/mppi"

func plannerPreset(nx int, sigma [][]float64, lambda float64, noiseAbs bool) mppi.Config {
	p := mppi.DefaultConfig()
	p.NX = nx
	p.NoiseSigma = sigma
	p.Lambda = lambda
	p.NoiseAbsCost = noiseAbs
	p.SampleNullAction = true
	return p
}

var Presets = map[string]map[string]*Config{
	"pendulum": {
		// theta = 0 is the hanging rest position; the objective's zero is
		// the inverted pose at theta = pi.
		"swingup": {
			World: "pendulum", Objective: "swingup", Integrator: "rk4",
			Dt: 0.05, Cycles: 150,
			InitState: InitStateConfig{Theta: 0.0},
			Planner:   plannerPreset(2, [][]float64{{1.0}}, 1.0, false),
		},
		"hold": {
			World: "pendulum", Objective: "swingup", Integrator: "rk4",
			Dt: 0.05, Cycles: 80,
			InitState: InitStateConfig{Theta: 2.9},
			Planner:   plannerPreset(2, [][]float64{{0.25}}, 0.5, false),
		},
	},
	"cartpole": {
		"balance": {
			World: "cartpole", Objective: "balance", Integrator: "rk4",
			Dt: 0.02, Cycles: 250,
			InitState: InitStateConfig{Theta: 0.2},
			Planner:   plannerPreset(4, [][]float64{{4.0}}, 1.0, false),
		},
		"recover": {
			World: "cartpole", Objective: "balance", Integrator: "rk4",
			Dt: 0.02, Cycles: 250,
			InitState: InitStateConfig{Theta: 0.6},
			Planner:   plannerPreset(4, [][]float64{{9.0}}, 2.0, true),
		},
	},
	"pointmass": {
		"goal": {
			World: "pointmass", Objective: "goal", Integrator: "euler",
			Dt: 0.05, Cycles: 120,
			Goal:      GoalConfig{X: 2.0, Y: 1.0},
			Planner:   plannerPreset(4, [][]float64{{1.0, 0}, {0, 1.0}}, 1.0, false),
			InitState: InitStateConfig{},
		},
	},
}

func GetPreset(world, preset string) *Config {
	worldPresets, ok := Presets[world]
	if !ok {
		return nil
	}
	cfg, ok := worldPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(world string) []string {
	worldPresets, ok := Presets[world]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(worldPresets))
	for name := range worldPresets {
		names = append(names, name)
	}
	return names
}
