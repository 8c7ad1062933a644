package optim

import (
	"context"
	"math"
)

// Evaluator scores one parameter assignment; lower is better. Evaluations
// that fail are skipped rather than aborting the sweep.
type Evaluator func(ctx context.Context, params map[string]float64) (float64, error)

// GridSearch exhaustively sweeps the cross product of parameter ranges,
// used to tune planner settings (temperature, noise scale) against an
// episode metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

func (g *GridSearch) Search(ctx context.Context, evaluate Evaluator) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), evaluate, &best, &bestParams)
	if err != nil {
		return bestParams, best, err
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	evaluate Evaluator,
	best *float64,
	bestParams *map[string]float64,
) error {
	if depth == len(g.paramNames) {
		val, err := evaluate(ctx, current)
		if err != nil {
			return nil // skip failed points
		}
		if val < *best {
			*best = val
			copied := make(map[string]float64, len(current))
			for k, v := range current {
				copied[k] = v
			}
			*bestParams = copied
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		current[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, current, evaluate, best, bestParams); err != nil {
			return err
		}
	}
	delete(current, paramName)
	return nil
}
