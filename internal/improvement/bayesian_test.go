package improvement

import (
	"math"
	"testing"
)

func TestAcquisitionDegenerateSigma(t *testing.T) {
	for _, kind := range []string{AcquisitionEI, AcquisitionPI, AcquisitionUCB} {
		t.Run(kind, func(t *testing.T) {
			b, err := NewBayesian(Options{Acquisition: kind})
			if err != nil {
				t.Fatalf("NewBayesian() error = %v", err)
			}
			for _, sigma := range []float64{0, -1, math.Copysign(0, -1)} {
				above := b.score(1, sigma, 0.5)
				below := b.score(0, sigma, 0.5)
				if math.IsNaN(above) || math.IsInf(above, 0) || math.IsNaN(below) || math.IsInf(below, 0) {
					t.Fatalf("sigma=%v: scores %v, %v are not finite", sigma, above, below)
				}
				if above <= below {
					t.Errorf("sigma=%v: score above the incumbent %v <= below %v", sigma, above, below)
				}
			}
		})
	}
}
