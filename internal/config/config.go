package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pathintegral/mppi/internal/mppi"
)

const (
	DefaultDt     = 0.05
	DefaultCycles = 100
)

type Config struct {
	World      string          `yaml:"world"`
	Objective  string          `yaml:"objective"`
	Integrator string          `yaml:"integrator"`
	Dt         float64         `yaml:"dt"`
	Cycles     int             `yaml:"cycles"`
	Workers    int             `yaml:"workers"`
	InitState  InitStateConfig `yaml:"init_state"`
	Goal       GoalConfig      `yaml:"goal"`
	Planner    mppi.Config     `yaml:"planner"`
}

type InitStateConfig struct {
	Theta float64 `yaml:"theta"`
	Omega float64 `yaml:"omega"`
	Pos   float64 `yaml:"pos"`
	Vel   float64 `yaml:"vel"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	VX    float64 `yaml:"vx"`
	VY    float64 `yaml:"vy"`
}

type GoalConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		World:      "pendulum",
		Objective:  "swingup",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Cycles:     DefaultCycles,
		InitState:  InitStateConfig{Theta: 0},
		Planner:    mppi.DefaultConfig(),
	}
	cfg.Planner.NX = 2
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) GetInitState() []float64 {
	switch c.World {
	case "cartpole":
		return []float64{c.InitState.Pos, c.InitState.Vel, c.InitState.Theta, c.InitState.Omega}
	case "pointmass":
		return []float64{c.InitState.X, c.InitState.Y, c.InitState.VX, c.InitState.VY}
	default:
		return []float64{c.InitState.Theta, c.InitState.Omega}
	}
}
