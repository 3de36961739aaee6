package improvement

import (
	"context"
	"math"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/objective"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/utils"
)

const (
	defaultStepSize = 0.1
	minStepSize     = 1e-3
)

// HillClimb minimizes the named objective by best-neighbor hill climbing with
// step halving and random restarts. Trials is the total number of evaluations.
type HillClimb struct {
	opts        Options
	explorer    ParameterExplorer
	convergence ConvergenceStrategy
}

// NewHillClimb creates a hill-climbing strategy
func NewHillClimb(opts Options) *HillClimb {
	if opts.StepSize <= 0 {
		opts.StepSize = defaultStepSize
	}
	return &HillClimb{
		opts:        opts,
		explorer:    NewCoordinateExplorer(),
		convergence: NewCombinedStrategy(opts.Convergence),
	}
}

// WithExplorer sets a custom neighborhood
func (h *HillClimb) WithExplorer(explorer ParameterExplorer) *HillClimb {
	h.explorer = explorer
	return h
}

func (h *HillClimb) Name() string { return "hillclimb" }

func (h *HillClimb) BudgetKind() models.BudgetKind { return models.BudgetTotal }

// climb is the state of one run
type climb struct {
	ctx    context.Context
	f      func(context.Context, map[string]float64) (float64, error)
	space  *models.SearchSpace
	budget int
	used   int

	bestX     []float64
	bestScore float64
}

func (c *climb) exhausted() bool { return c.used >= c.budget }

func (c *climb) eval(x []float64) (float64, error) {
	score, err := namedCall(c.ctx, c.f, c.space, x)
	if err != nil {
		return 0, err
	}
	c.used++
	if score < c.bestScore {
		c.bestX, c.bestScore = x, score
	}
	return score, nil
}

func (h *HillClimb) Run(ctx context.Context, obj *objective.Normalizer, space *models.SearchSpace, budget models.Budget) (*models.BestSolution, error) {
	total, err := prepare(ctx, h, obj, space, budget)
	if err != nil {
		return nil, err
	}
	rng := utils.NewRandSource(h.opts.Seed)
	log := h.opts.Logger.With("strategy", h.Name(), "seed", rng.Seed())
	c := &climb{ctx: ctx, f: obj.NamedMinimizer(), space: space, budget: total, bestScore: math.Inf(1)}

	// start from the best of the startup samples
	startup := budget.Startup(h.BudgetKind())
	var current []float64
	currentScore := math.Inf(1)
	for i := 0; i < startup; i++ {
		x := rng.UniformVector(space.Lower(), space.Upper())
		score, err := c.eval(x)
		if err != nil {
			return nil, err
		}
		if score < currentScore {
			current, currentScore = x, score
		}
	}

	step := h.opts.StepSize
	history := &History{}
	history.Add(OptimizationStep{Iteration: c.used, Point: current, Score: currentScore})
	restarts := 0

	for !c.exhausted() {
		neighbors := h.explorer.GenerateNeighbors(space, current, step)
		improved := false
		for _, n := range neighbors {
			if c.exhausted() {
				break
			}
			score, err := c.eval(n)
			if err != nil {
				return nil, err
			}
			if score < currentScore {
				current, currentScore = n, score
				improved = true
			}
		}
		if !improved {
			step *= 0.5
		}
		history.Add(OptimizationStep{Iteration: c.used, Point: current, Score: currentScore})

		converged, reason := h.convergence.CheckConvergence(history.Steps())
		if step < minStepSize || len(neighbors) == 0 {
			converged, reason = true, "step below minimum"
		}
		if converged && !c.exhausted() {
			restarts++
			log.Debug("restarting", "reason", reason, "evaluations", c.used, "best", -c.bestScore)
			current = rng.UniformVector(space.Lower(), space.Upper())
			currentScore, err = c.eval(current)
			if err != nil {
				return nil, err
			}
			step = h.opts.StepSize
			history = &History{}
			history.Add(OptimizationStep{Iteration: c.used, Point: current, Score: currentScore})
		}
	}

	log.Info("search finished", "evaluations", c.used, "restarts", restarts, "best", -c.bestScore)
	return solution(space, c.bestX, -c.bestScore)
}
