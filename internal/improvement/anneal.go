package improvement

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/objective"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/utils"
)

const (
	annealFinalRatio = 1e-3
	annealSigmaStart = 0.25
	annealSigmaEnd   = 0.01
)

// Anneal minimizes the named objective by simulated annealing. The startup share
// of Trials is sampled at random and seeds the temperature; the rest are
// Metropolis steps with a geometric cooling schedule.
type Anneal struct {
	opts Options
}

// NewAnneal creates the simulated annealing strategy
func NewAnneal(opts Options) *Anneal {
	return &Anneal{opts: opts}
}

func (a *Anneal) Name() string { return "anneal" }

func (a *Anneal) BudgetKind() models.BudgetKind { return models.BudgetTotal }

func (a *Anneal) Run(ctx context.Context, obj *objective.Normalizer, space *models.SearchSpace, budget models.Budget) (*models.BestSolution, error) {
	total, err := prepare(ctx, a, obj, space, budget)
	if err != nil {
		return nil, err
	}
	f := obj.NamedMinimizer()
	rng := utils.NewRandSource(a.opts.Seed)
	log := a.opts.Logger.With("strategy", a.Name(), "seed", rng.Seed())

	startup := budget.Startup(a.BudgetKind())
	var (
		current      []float64
		currentScore = math.Inf(1)
		bestX        []float64
		bestScore    = math.Inf(1)
		initial      = make([]float64, 0, startup)
	)
	for i := 0; i < startup; i++ {
		x := rng.UniformVector(space.Lower(), space.Upper())
		score, err := namedCall(ctx, f, space, x)
		if err != nil {
			return nil, err
		}
		initial = append(initial, score)
		if score < currentScore {
			current, currentScore = x, score
		}
	}
	bestX, bestScore = current, currentScore

	temp := initialTemperature(initial, currentScore)
	steps := total - startup
	cooling := math.Pow(annealFinalRatio, 1/math.Max(float64(steps), 1))
	log.Info("search started", "trials", total, "startup", startup, "temperature", temp)

	for k := 0; k < steps; k++ {
		frac := float64(k) / math.Max(float64(steps-1), 1)
		spread := annealSigmaStart * math.Pow(annealSigmaEnd/annealSigmaStart, frac)

		proposal := make([]float64, len(current))
		for d := range proposal {
			proposal[d] = rng.NormFloat64(current[d], spread*space.Dimension(d).Width())
		}
		proposal = space.Clip(proposal)

		score, err := namedCall(ctx, f, space, proposal)
		if err != nil {
			return nil, err
		}
		delta := score - currentScore
		if delta <= 0 || rng.Float64() < math.Exp(-delta/temp) {
			current, currentScore = proposal, score
		}
		if score < bestScore {
			bestX, bestScore = proposal, score
		}
		temp *= cooling
	}

	log.Info("search finished", "evaluations", total, "best", -bestScore)
	return solution(space, bestX, -bestScore)
}

// initialTemperature is the spread of the startup scores, or a tenth of the
// starting score's magnitude when they do not spread
func initialTemperature(scores []float64, start float64) float64 {
	if sd, err := stats.StandardDeviation(scores); err == nil && sd > 0 {
		return sd
	}
	return math.Max(0.1*math.Abs(start), 1)
}
