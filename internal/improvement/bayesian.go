package improvement

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/objective"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/utils"
)

const (
	defaultXi          = 0.01
	defaultKappa       = 2.576
	defaultCandidates  = 1000
	refineTop          = 5
	refineSteps        = 20
	duplicateTolerance = 1e-12
	minPredictiveSigma = 1e-6
)

// Bayesian maximizes the positional objective with a Gaussian process surrogate.
// It evaluates InitPoints random points and then Trials points chosen by the
// acquisition function, InitPoints+Trials evaluations in total.
type Bayesian struct {
	opts Options
}

// NewBayesian creates the Gaussian process strategy
func NewBayesian(opts Options) (*Bayesian, error) {
	switch opts.Acquisition {
	case "":
		opts.Acquisition = AcquisitionEI
	case AcquisitionEI, AcquisitionUCB, AcquisitionPI:
	default:
		return nil, models.ConfigErrorf("strategy.acquisition", "unknown acquisition %q", opts.Acquisition)
	}
	if opts.Xi <= 0 {
		opts.Xi = defaultXi
	}
	if opts.Kappa <= 0 {
		opts.Kappa = defaultKappa
	}
	if opts.Candidates <= 0 {
		opts.Candidates = defaultCandidates
	}
	return &Bayesian{opts: opts}, nil
}

func (b *Bayesian) Name() string { return "bayesian" }

func (b *Bayesian) BudgetKind() models.BudgetKind { return models.BudgetSplit }

func (b *Bayesian) Run(ctx context.Context, obj *objective.Normalizer, space *models.SearchSpace, budget models.Budget) (*models.BestSolution, error) {
	total, err := prepare(ctx, b, obj, space, budget)
	if err != nil {
		return nil, err
	}
	f := obj.PositionalMaximizer()
	rng := utils.NewRandSource(b.opts.Seed)
	log := b.opts.Logger.With("strategy", b.Name(), "seed", rng.Seed())
	log.Info("search started", "init_points", budget.InitPoints, "trials", budget.Trials, "acquisition", b.opts.Acquisition)

	dim := space.Len()
	var (
		us    [][]float64
		ys    []float64
		bestX []float64
		bestY = math.Inf(-1)
	)
	for i := 0; i < total; i++ {
		var u []float64
		if i >= budget.InitPoints && len(ys) >= 2 {
			u = b.propose(rng, us, ys)
			if u == nil {
				log.Debug("surrogate unavailable, sampling at random", "trial", i+1)
			}
		}
		if u == nil {
			u = randomUnit(rng, dim)
		}

		x := space.Clip(space.Denormalize(u))
		y, err := f(ctx, x)
		if err != nil {
			return nil, err
		}
		us = append(us, space.Normalize(x))
		ys = append(ys, y)
		if y > bestY {
			bestY = y
			bestX = x
		}
	}

	log.Info("search finished", "evaluations", total, "best", bestY)
	return solution(space, bestX, bestY)
}

// propose returns the next point in the unit cube, or nil when the surrogate cannot
// be fitted or only suggests an already observed point
func (b *Bayesian) propose(rng *utils.RandSource, us [][]float64, ys []float64) []float64 {
	gp, err := fitGP(us, ys)
	if err != nil {
		return nil
	}
	best := math.Inf(-1)
	for _, y := range ys {
		best = math.Max(best, gp.standardize(y))
	}
	dim := len(us[0])

	type scored struct {
		u []float64
		a float64
	}
	cands := make([]scored, b.opts.Candidates)
	for i := range cands {
		u := randomUnit(rng, dim)
		cands[i] = scored{u: u, a: b.acquire(gp, u, best)}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].a > cands[j].a })

	top := cands[:min(refineTop, len(cands))]
	for k := range top {
		c := &top[k]
		width := 0.05
		for s := 0; s < refineSteps; s++ {
			u := make([]float64, dim)
			for d := range u {
				u[d] = utils.ClampFloat64(c.u[d]+rng.NormFloat64(0, width), 0, 1)
			}
			if a := b.acquire(gp, u, best); a > c.a {
				c.u, c.a = u, a
			} else {
				width *= 0.8
			}
		}
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].a > top[j].a })

	next := top[0].u
	for _, u := range us {
		if utils.SquaredDistance(u, next) < duplicateTolerance {
			return nil
		}
	}
	return next
}

// acquire scores u for maximization; larger is more promising
func (b *Bayesian) acquire(gp *gaussianProcess, u []float64, best float64) float64 {
	mu, sigma := gp.predict(u)
	return b.score(mu, sigma, best)
}

// score applies the acquisition function to a posterior mean and deviation
func (b *Bayesian) score(mu, sigma, best float64) float64 {
	sigma = math.Max(sigma, minPredictiveSigma)
	switch b.opts.Acquisition {
	case AcquisitionUCB:
		return mu + b.opts.Kappa*sigma
	case AcquisitionPI:
		return distuv.UnitNormal.CDF((mu - best - b.opts.Xi) / sigma)
	default:
		improvement := mu - best - b.opts.Xi
		z := improvement / sigma
		return improvement*distuv.UnitNormal.CDF(z) + sigma*distuv.UnitNormal.Prob(z)
	}
}

func randomUnit(rng *utils.RandSource, dim int) []float64 {
	u := make([]float64, dim)
	for i := range u {
		u[i] = rng.Float64()
	}
	return u
}
