package plant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/oracle"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
)

// Output field names
const (
	FieldTotalRevenue     = "total_revenue"
	FieldGasProduction    = "gas_production"
	FieldLiquidProduction = "liquid_production"
	FieldEnergyCost       = "energy_cost"
	FieldFlared           = "flared"
	FieldHours            = "hours"
)

// Setup is the operating point of one run: the feed share sent to the first
// column and the temperature of each column.
type Setup struct {
	FlowAllocRateToDec1 float64
	Dec1Temperature     float64
	Dec2Temperature     float64
}

// Arity is the number of positional inputs the plant expects
const Arity = 3

// SetupFromInputs maps positional inputs onto a Setup
func SetupFromInputs(x []float64) (Setup, error) {
	if len(x) != Arity {
		return Setup{}, fmt.Errorf("plant expects %d inputs, got %d", Arity, len(x))
	}
	s := Setup{FlowAllocRateToDec1: x[0], Dec1Temperature: x[1], Dec2Temperature: x[2]}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Setup{}, fmt.Errorf("plant inputs must be finite, got %v", x)
		}
	}
	if s.FlowAllocRateToDec1 < 0 || s.FlowAllocRateToDec1 > 1 {
		return Setup{}, fmt.Errorf("flow allocation %g is not a fraction", s.FlowAllocRateToDec1)
	}
	return s, nil
}

// columnTotals accumulates products of one column
type columnTotals struct {
	Feed   float64
	Gas    float64
	Liquid float64
	Energy float64
	Flared float64
}

// Plant is a deterministic two-column gas processing plant driven by an hourly
// feed over a fixed horizon. Runs without a reset in between continue from the
// previous clock and inventory.
type Plant struct {
	params  Params
	log     *slog.Logger
	verbose bool
	show    bool

	setup    *Setup
	clock    float64
	queue    *EventQueue
	columns  [2]columnTotals
	hasRun   bool
	runCount int
	closed   bool
}

// Option configures a Plant
type Option func(*Plant)

// WithLogger sets the plant logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Plant) { p.log = l }
}

// WithVerbose logs every processed event at debug level
func WithVerbose(v bool) Option {
	return func(p *Plant) { p.verbose = v }
}

// WithTerminals logs the per-column totals after every run
func WithTerminals(v bool) Option {
	return func(p *Plant) { p.show = v }
}

// New creates a plant with the given parameters
func New(params Params, opts ...Option) (*Plant, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	p := &Plant{
		params: params,
		log:    logger.Default,
		queue:  NewEventQueue(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Params returns the effective plant parameters, including static prices
func (p *Plant) Params() Params { return p.params }

func (p *Plant) Arity() int { return Arity }

// ConfigureStatic sets product prices; unknown parameters are rejected.
// A rejected call leaves the parameters unchanged.
func (p *Plant) ConfigureStatic(ctx context.Context, params map[string]float64) error {
	next := p.params
	for name, v := range params {
		switch name {
		case "gas_price":
			next.GasPrice = v
		case "liquid_price":
			next.LiquidPrice = v
		case "feed_base":
			next.FeedBase = v
		default:
			return fmt.Errorf("unknown static parameter %q", name)
		}
	}
	if err := next.validate(); err != nil {
		return err
	}
	p.params = next
	return nil
}

// SetProductPrices sets the gas and liquid prices
func (p *Plant) SetProductPrices(gas, liquid float64) {
	p.params.GasPrice = gas
	p.params.LiquidPrice = liquid
}

func (p *Plant) Setup(ctx context.Context, inputs []float64) error {
	if p.closed {
		return errors.New("plant is closed")
	}
	s, err := SetupFromInputs(inputs)
	if err != nil {
		return err
	}
	p.setup = &s
	return nil
}

// Run simulates one horizon starting at the current clock
func (p *Plant) Run(ctx context.Context) error {
	if p.closed {
		return errors.New("plant is closed")
	}
	if p.setup == nil {
		return errors.New("run called before setup")
	}
	start := p.clock
	end := start + float64(p.params.Hours)

	for h := 0; h < p.params.Hours; h++ {
		p.queue.Schedule(&Event{Type: EventTypeFeedArrival, Time: start + float64(h), Priority: 1})
	}
	p.queue.Schedule(&Event{Type: EventTypeHorizonEnd, Time: end, Priority: 2})

	for {
		ev := p.queue.Next()
		if ev == nil {
			break
		}
		p.clock = ev.Time
		if ev.Type == EventTypeHorizonEnd {
			// batches still in a column at the horizon are lost
			p.queue.Clear()
			break
		}
		p.handle(ev)
	}
	p.clock = end
	p.hasRun = true
	p.runCount++

	if p.show {
		for i, c := range p.columns {
			p.log.Info("column terminal",
				"column", i+1,
				"feed", c.Feed,
				"gas", c.Gas,
				"liquid", c.Liquid,
				"energy", c.Energy,
				"flared", c.Flared)
		}
	}
	return nil
}

func (p *Plant) handle(ev *Event) {
	switch ev.Type {
	case EventTypeFeedArrival:
		feed := p.feedAt(ev.Time)
		share := [2]float64{p.setup.FlowAllocRateToDec1, 1 - p.setup.FlowAllocRateToDec1}
		for i := 0; i < 2; i++ {
			p.queue.Schedule(&Event{
				Type:   EventTypeBatchComplete,
				Time:   ev.Time + p.params.Residence[i],
				Column: i,
				Flow:   feed * share[i],
			})
		}
	case EventTypeBatchComplete:
		p.processBatch(ev.Column, ev.Flow)
	}
	if p.verbose {
		p.log.Debug("plant event", "type", ev.Type, "time", ev.Time, "column", ev.Column+1, "flow", ev.Flow)
	}
}

// feedAt is the hourly feed with a daily swing
func (p *Plant) feedAt(hour float64) float64 {
	return p.params.FeedBase + p.params.FeedSwing*math.Sin(2*math.Pi*hour/24)
}

// processBatch separates flow in column i. Flow above capacity is flared.
func (p *Plant) processBatch(i int, flow float64) {
	temp := p.temperature(i)
	processed := math.Min(flow, p.params.Capacity[i])
	flared := flow - processed

	frac := p.gasFraction(temp)
	gas := processed * frac
	liquid := processed * (1 - frac) * p.params.LiquidYield * p.liquidQuality(temp)
	dt := (temp - p.params.AmbientTemp) / 10
	energy := p.params.EnergyCoeff[i] * processed * dt * dt

	c := &p.columns[i]
	c.Feed += flow
	c.Gas += gas
	c.Liquid += liquid
	c.Energy += energy
	c.Flared += flared
}

func (p *Plant) temperature(i int) float64 {
	if i == 0 {
		return p.setup.Dec1Temperature
	}
	return p.setup.Dec2Temperature
}

func (p *Plant) gasFraction(temp float64) float64 {
	return p.params.GasFracLow + p.params.GasFracSpan/(1+math.Exp(-(temp-p.params.MidTemp)/p.params.TempScale))
}

// liquidQuality is the on-spec share of the liquid; a cold column leaves light ends in it
func (p *Plant) liquidQuality(temp float64) float64 {
	above := math.Max(temp-p.params.AmbientTemp, 0)
	return 1 - math.Exp(-above/p.params.LiquidScale)
}

// Output returns the cumulative results since the last reset
func (p *Plant) Output(ctx context.Context) (oracle.Output, error) {
	if !p.hasRun {
		return nil, errors.New("no completed run")
	}
	var gas, liquid, energy, flared float64
	for _, c := range p.columns {
		gas += c.Gas
		liquid += c.Liquid
		energy += c.Energy
		flared += c.Flared
	}
	return oracle.Values{
		FieldTotalRevenue:     p.params.GasPrice*gas + p.params.LiquidPrice*liquid - energy,
		FieldGasProduction:    gas,
		FieldLiquidProduction: liquid,
		FieldEnergyCost:       energy,
		FieldFlared:           flared,
		FieldHours:            p.clock,
	}, nil
}

// Reset restores the initial state; static parameters are kept
func (p *Plant) Reset(ctx context.Context) error {
	if p.closed {
		return errors.New("plant is closed")
	}
	p.setup = nil
	p.clock = 0
	p.queue.Clear()
	p.columns = [2]columnTotals{}
	p.hasRun = false
	return nil
}

// Runs returns how many horizons were simulated in total
func (p *Plant) Runs() int { return p.runCount }

func (p *Plant) Close() error {
	p.closed = true
	return nil
}
