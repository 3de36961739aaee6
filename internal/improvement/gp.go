package improvement

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/utils"
)

// errNotPositiveDefinite is returned when the kernel matrix cannot be factorized even with jitter
var errNotPositiveDefinite = errors.New("kernel matrix is not positive definite")

// lengthScaleGrid is searched by marginal likelihood on every fit
var lengthScaleGrid = []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.2, 2.0}

const (
	gpNoise        = 1e-6
	gpJitterTries  = 5
	gpJitterFactor = 10
)

// gaussianProcess is a zero-mean GP with a Matern 5/2 kernel over the unit cube.
// Targets are standardized before fitting; predictions are in standardized units.
type gaussianProcess struct {
	x           [][]float64
	mean, scale float64
	lengthScale float64
	chol        mat.Cholesky
	alpha       *mat.VecDense
}

func matern52(sqDist, lengthScale float64) float64 {
	r := math.Sqrt(5*sqDist) / lengthScale
	return (1 + r + r*r/3) * math.Exp(-r)
}

// fitGP fits a GP to observations x (unit cube) and y, choosing the length scale
// with the highest log marginal likelihood
func fitGP(x [][]float64, y []float64) (*gaussianProcess, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, errors.New("gp needs matching non-empty observations")
	}

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	variance := 0.0
	for _, v := range y {
		variance += (v - mean) * (v - mean)
	}
	scale := math.Sqrt(variance / float64(n))
	if scale == 0 || math.IsNaN(scale) {
		scale = 1
	}
	ys := make([]float64, n)
	for i, v := range y {
		ys[i] = (v - mean) / scale
	}
	target := mat.NewVecDense(n, ys)

	var best *gaussianProcess
	bestLML := math.Inf(-1)
	for _, ls := range lengthScaleGrid {
		gp := &gaussianProcess{x: x, mean: mean, scale: scale, lengthScale: ls}
		if err := gp.factorize(); err != nil {
			continue
		}
		alpha := mat.NewVecDense(n, nil)
		if err := gp.chol.SolveVecTo(alpha, target); err != nil {
			continue
		}
		gp.alpha = alpha
		lml := -0.5*mat.Dot(target, alpha) - 0.5*gp.chol.LogDet() - 0.5*float64(n)*math.Log(2*math.Pi)
		if math.IsNaN(lml) {
			continue
		}
		if lml > bestLML {
			bestLML = lml
			best = gp
		}
	}
	if best == nil {
		return nil, errNotPositiveDefinite
	}
	return best, nil
}

func (gp *gaussianProcess) factorize() error {
	n := len(gp.x)
	jitter := gpNoise
	for try := 0; try < gpJitterTries; try++ {
		k := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := matern52(utils.SquaredDistance(gp.x[i], gp.x[j]), gp.lengthScale)
				if i == j {
					v += jitter
				}
				k.SetSym(i, j, v)
			}
		}
		if gp.chol.Factorize(k) {
			return nil
		}
		jitter *= gpJitterFactor
	}
	return errNotPositiveDefinite
}

// predict returns the posterior mean and standard deviation at u in standardized units
func (gp *gaussianProcess) predict(u []float64) (mu, sigma float64) {
	n := len(gp.x)
	kstar := mat.NewVecDense(n, nil)
	for i, xi := range gp.x {
		kstar.SetVec(i, matern52(utils.SquaredDistance(u, xi), gp.lengthScale))
	}
	mu = mat.Dot(kstar, gp.alpha)

	v := mat.NewVecDense(n, nil)
	if err := gp.chol.SolveVecTo(v, kstar); err != nil {
		return mu, minPredictiveSigma
	}
	variance := 1 + gpNoise - mat.Dot(kstar, v)
	return mu, math.Max(math.Sqrt(math.Max(variance, 0)), minPredictiveSigma)
}

// standardize maps a raw target into the GP's units
func (gp *gaussianProcess) standardize(y float64) float64 {
	return (y - gp.mean) / gp.scale
}
