package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pathintegral/mppi/internal/experiment"
)

type ExportData struct {
	World      string             `json:"world"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Controls   [][]float64        `json:"controls"`
	MinCosts   []float64          `json:"min_costs"`
	MeanCosts  []float64          `json:"mean_costs"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ExportJSON writes a full episode record, including the per-cycle cost
// summaries the CSV trajectory omits.
func ExportJSON(path string, info RunInfo, result *experiment.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeJSON(file, info, result)
}

func ExportJSONTo(w io.Writer, info RunInfo, result *experiment.Result) error {
	return writeJSON(w, info, result)
}

func writeJSON(w io.Writer, info RunInfo, result *experiment.Result) error {
	data := ExportData{
		World:      info.World,
		Integrator: info.Integrator,
		Dt:         info.Dt,
		Steps:      result.StepsTaken,
		Times:      result.Times,
		States:     make([][]float64, len(result.States)),
		Controls:   make([][]float64, len(result.Controls)),
		MinCosts:   result.MinCosts,
		MeanCosts:  result.MeanCosts,
		Metrics:    result.Metrics,
	}

	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
