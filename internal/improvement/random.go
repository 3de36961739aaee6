package improvement

import (
	"context"
	"math"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/objective"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/utils"
)

// Random samples Trials points uniformly and keeps the best
type Random struct {
	opts Options
}

// NewRandom creates the uniform sampling strategy
func NewRandom(opts Options) *Random {
	return &Random{opts: opts}
}

func (r *Random) Name() string { return "random" }

func (r *Random) BudgetKind() models.BudgetKind { return models.BudgetTotal }

func (r *Random) Run(ctx context.Context, obj *objective.Normalizer, space *models.SearchSpace, budget models.Budget) (*models.BestSolution, error) {
	total, err := prepare(ctx, r, obj, space, budget)
	if err != nil {
		return nil, err
	}
	f := obj.PositionalMaximizer()
	rng := utils.NewRandSource(r.opts.Seed)
	log := r.opts.Logger.With("strategy", r.Name(), "seed", rng.Seed())

	var bestX []float64
	bestY := math.Inf(-1)
	for i := 0; i < total; i++ {
		x := rng.UniformVector(space.Lower(), space.Upper())
		y, err := f(ctx, x)
		if err != nil {
			return nil, err
		}
		if y > bestY {
			bestX, bestY = x, y
		}
	}
	log.Info("search finished", "evaluations", total, "best", bestY)
	return solution(space, bestX, bestY)
}
