package improvement

import (
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// ParameterExplorer defines strategies for exploring the neighborhood of a point
type ParameterExplorer interface {
	// GenerateNeighbors creates neighboring points of base; step is a fraction of each dimension's width
	GenerateNeighbors(space *models.SearchSpace, base []float64, step float64) [][]float64
	// Name returns the name of the exploration strategy
	Name() string
}

// CoordinateExplorer moves one coordinate at a time up and down by step.
// Neighbors are clipped into the space; moves that clip back onto base are dropped.
type CoordinateExplorer struct{}

// NewCoordinateExplorer creates a coordinate explorer
func NewCoordinateExplorer() *CoordinateExplorer {
	return &CoordinateExplorer{}
}

func (e *CoordinateExplorer) Name() string {
	return "coordinate"
}

func (e *CoordinateExplorer) GenerateNeighbors(space *models.SearchSpace, base []float64, step float64) [][]float64 {
	neighbors := make([][]float64, 0, 2*len(base))
	for i := 0; i < space.Len() && i < len(base); i++ {
		delta := step * space.Dimension(i).Width()
		for _, sign := range []float64{1, -1} {
			n := append([]float64(nil), base...)
			n[i] += sign * delta
			n = space.Clip(n)
			if n[i] == base[i] {
				continue
			}
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}
