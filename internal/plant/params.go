package plant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params are the physical constants of the plant model.
// An exported model file overrides any subset of them.
type Params struct {
	Hours       int        `yaml:"hours"`
	FeedBase    float64    `yaml:"feed_base"`  // kmol/h
	FeedSwing   float64    `yaml:"feed_swing"` // daily amplitude, kmol/h
	Capacity    [2]float64 `yaml:"capacity"`   // kmol/h per column
	EnergyCoeff [2]float64 `yaml:"energy_coeff"`
	Residence   [2]float64 `yaml:"residence"` // hours
	MidTemp     float64    `yaml:"mid_temp"`
	TempScale   float64    `yaml:"temp_scale"`
	GasFracLow  float64    `yaml:"gas_frac_low"`
	GasFracSpan float64    `yaml:"gas_frac_span"`
	LiquidYield float64    `yaml:"liquid_yield"`
	LiquidScale float64    `yaml:"liquid_scale"` // degrees above ambient for on-spec liquid
	AmbientTemp float64    `yaml:"ambient_temp"`
	GasPrice    float64    `yaml:"gas_price"`
	LiquidPrice float64    `yaml:"liquid_price"`
}

// DefaultParams returns the reference plant
func DefaultParams() Params {
	return Params{
		Hours:       24,
		FeedBase:    100,
		FeedSwing:   20,
		Capacity:    [2]float64{60, 50},
		EnergyCoeff: [2]float64{0.38, 0.45},
		Residence:   [2]float64{0.5, 0.75},
		MidTemp:     60,
		TempScale:   10,
		GasFracLow:  0.2,
		GasFracSpan: 0.6,
		LiquidYield: 0.9,
		LiquidScale: 15,
		AmbientTemp: 20,
		GasPrice:    30,
		LiquidPrice: 10,
	}
}

// LoadParams reads an exported model file on top of the defaults
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read exported model %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse exported model %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return p, fmt.Errorf("invalid exported model %s: %w", path, err)
	}
	return p, nil
}

func (p Params) validate() error {
	if p.Hours <= 0 {
		return fmt.Errorf("hours must be positive, got %d", p.Hours)
	}
	if p.FeedBase <= 0 || p.FeedSwing < 0 || p.FeedSwing >= p.FeedBase {
		return fmt.Errorf("feed must stay positive (base %g, swing %g)", p.FeedBase, p.FeedSwing)
	}
	for i := 0; i < 2; i++ {
		if p.Capacity[i] <= 0 {
			return fmt.Errorf("column %d capacity must be positive", i+1)
		}
		if p.Residence[i] < 0 {
			return fmt.Errorf("column %d residence cannot be negative", i+1)
		}
	}
	if p.TempScale <= 0 || p.LiquidScale <= 0 {
		return fmt.Errorf("temp_scale and liquid_scale must be positive")
	}
	if p.GasFracLow < 0 || p.GasFracLow+p.GasFracSpan > 1 {
		return fmt.Errorf("gas fraction range must lie in [0, 1]")
	}
	return nil
}
