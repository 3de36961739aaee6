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
	defaultGamma         = 0.25
	defaultTPECandidates = 24
	defaultTPEStartup    = 10
	uniformCandidates    = 0.25
	priorMean            = 0.5
	priorSigma           = 1.0
	priorWeight          = 1.0
)

// TPE minimizes the named objective with a tree-structured Parzen estimator.
// Trials is the total number of evaluations; the first InitPoints of them (ten
// when unset) are random.
type TPE struct {
	opts Options
}

// NewTPE creates the Parzen estimator strategy
func NewTPE(opts Options) (*TPE, error) {
	if opts.Gamma == 0 {
		opts.Gamma = defaultGamma
	}
	if opts.Gamma <= 0 || opts.Gamma >= 1 {
		return nil, models.ConfigErrorf("strategy.gamma", "must be in (0, 1), got %g", opts.Gamma)
	}
	if opts.Candidates <= 0 {
		opts.Candidates = defaultTPECandidates
	}
	return &TPE{opts: opts}, nil
}

func (t *TPE) Name() string { return "tpe" }

func (t *TPE) BudgetKind() models.BudgetKind { return models.BudgetTotal }

func (t *TPE) Run(ctx context.Context, obj *objective.Normalizer, space *models.SearchSpace, budget models.Budget) (*models.BestSolution, error) {
	total, err := prepare(ctx, t, obj, space, budget)
	if err != nil {
		return nil, err
	}
	startup := budget.InitPoints
	if startup == 0 {
		startup = min(defaultTPEStartup, total)
	}
	f := obj.NamedMinimizer()
	rng := utils.NewRandSource(t.opts.Seed)
	log := t.opts.Logger.With("strategy", t.Name(), "seed", rng.Seed())
	log.Info("search started", "trials", total, "startup", startup, "gamma", t.opts.Gamma)

	var (
		us        [][]float64
		scores    []float64
		bestX     []float64
		bestScore = math.Inf(1)
	)
	for i := 0; i < total; i++ {
		var u []float64
		if i < startup {
			u = randomUnit(rng, space.Len())
		} else {
			u = t.propose(rng, us, scores)
		}
		x := space.Clip(space.Denormalize(u))
		score, err := namedCall(ctx, f, space, x)
		if err != nil {
			return nil, err
		}
		us = append(us, space.Normalize(x))
		scores = append(scores, score)
		if score < bestScore {
			bestScore = score
			bestX = x
		}
	}

	log.Info("search finished", "evaluations", total, "best", -bestScore)
	return solution(space, bestX, -bestScore)
}

// propose splits observations into good and bad by the gamma quantile and
// returns the candidate that maximizes l(x)/g(x). Most candidates are drawn
// from the good density, the rest uniformly so the search can leave a cluster.
func (t *TPE) propose(rng *utils.RandSource, us [][]float64, scores []float64) []float64 {
	dim := len(us[0])
	if len(scores) < 2 {
		return randomUnit(rng, dim)
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	nGood := int(math.Ceil(t.opts.Gamma * float64(len(scores))))
	nGood = utils.Clamp(nGood, 1, len(scores)-1)

	good := make([]parzen, dim)
	bad := make([]parzen, dim)
	for d := 0; d < dim; d++ {
		var gv, bv []float64
		for rank, idx := range order {
			if rank < nGood {
				gv = append(gv, us[idx][d])
			} else {
				bv = append(bv, us[idx][d])
			}
		}
		good[d] = newParzen(gv)
		bad[d] = newParzen(bv)
	}

	var next []float64
	bestRatio := math.Inf(-1)
	for c := 0; c < t.opts.Candidates; c++ {
		uniform := rng.Float64() < uniformCandidates
		u := make([]float64, dim)
		ratio := 0.0
		for d := 0; d < dim; d++ {
			if uniform {
				u[d] = rng.Float64()
			} else {
				u[d] = good[d].sample(rng)
			}
			ratio += math.Log(good[d].density(u[d])) - math.Log(bad[d].density(u[d]))
		}
		if next == nil || ratio > bestRatio {
			next, bestRatio = u, ratio
		}
	}
	return next
}

// parzen is a mixture of normals truncated to [0, 1], one per observation plus a wide prior
type parzen struct {
	comps  []distuv.Normal
	mass   []float64
	weight []float64
}

// newParzen places one component on every observation. A component's
// bandwidth is the larger gap to its sorted neighbours (or the unit bounds),
// clamped to [priorSigma/min(100, n+1), priorSigma].
func newParzen(obs []float64) parzen {
	mus := append([]float64(nil), obs...)
	sort.Float64s(mus)
	n := len(mus)
	floor := priorSigma / math.Min(100, float64(n+1))

	p := parzen{}
	add := func(mu, sigma, w float64) {
		c := distuv.Normal{Mu: mu, Sigma: sigma}
		p.comps = append(p.comps, c)
		p.mass = append(p.mass, c.CDF(1)-c.CDF(0))
		p.weight = append(p.weight, w)
	}
	for i, mu := range mus {
		left, right := mu, 1-mu
		if i > 0 {
			left = mu - mus[i-1]
		}
		if i < n-1 {
			right = mus[i+1] - mu
		}
		add(mu, utils.ClampFloat64(math.Max(left, right), floor, priorSigma), 1)
	}
	add(priorMean, priorSigma, priorWeight)

	total := 0.0
	for _, w := range p.weight {
		total += w
	}
	for i := range p.weight {
		p.weight[i] /= total
	}
	return p
}

// density is the weighted mixture density at u
func (p parzen) density(u float64) float64 {
	sum := 0.0
	for i, c := range p.comps {
		sum += p.weight[i] * c.Prob(u) / p.mass[i]
	}
	return sum + 1e-300
}

// sample draws from the mixture by rejection into [0, 1]
func (p parzen) sample(rng *utils.RandSource) float64 {
	i, r := 0, rng.Float64()
	for ; i < len(p.weight)-1; i++ {
		if r < p.weight[i] {
			break
		}
		r -= p.weight[i]
	}
	c := p.comps[i]
	for try := 0; try < 100; try++ {
		v := rng.NormFloat64(c.Mu, c.Sigma)
		if v >= 0 && v <= 1 {
			return v
		}
	}
	return utils.ClampFloat64(c.Mu, 0, 1)
}
