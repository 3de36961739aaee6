package models

import (
	"math"
)

// Dimension is a named, bounded continuous input of the oracle.
// Bounds are inclusive and the value is immutable once created.
type Dimension struct {
	name  string
	lower float64
	upper float64
}

// NewDimension validates and creates a dimension
func NewDimension(name string, lower, upper float64) (Dimension, error) {
	if name == "" {
		return Dimension{}, ConfigErrorf("dimension", "name cannot be empty")
	}
	if math.IsNaN(lower) || math.IsNaN(upper) || math.IsInf(lower, 0) || math.IsInf(upper, 0) {
		return Dimension{}, ConfigErrorf(name, "bounds must be finite, got [%g, %g]", lower, upper)
	}
	if lower >= upper {
		return Dimension{}, ConfigErrorf(name, "lower bound %g must be below upper bound %g", lower, upper)
	}
	return Dimension{name: name, lower: lower, upper: upper}, nil
}

func (d Dimension) Name() string   { return d.name }
func (d Dimension) Lower() float64 { return d.lower }
func (d Dimension) Upper() float64 { return d.upper }
func (d Dimension) Width() float64 { return d.upper - d.lower }
func (d Dimension) IsZero() bool   { return d.name == "" }
func (d Dimension) String() string { return d.name }

// Contains reports whether v lies in [lower, upper]
func (d Dimension) Contains(v float64) bool {
	return v >= d.lower && v <= d.upper
}

// SearchSpace is an ordered, immutable list of dimensions with unique names.
// Insertion order is the positional argument order passed to the oracle.
type SearchSpace struct {
	dims  []Dimension
	index map[string]int
}

// NewSearchSpace builds a search space from dims, in the given order
func NewSearchSpace(dims ...Dimension) (*SearchSpace, error) {
	if len(dims) == 0 {
		return nil, ConfigErrorf("space", "at least one dimension must be defined")
	}
	s := &SearchSpace{
		dims:  make([]Dimension, len(dims)),
		index: make(map[string]int, len(dims)),
	}
	for i, d := range dims {
		if d.IsZero() {
			return nil, ConfigErrorf("space", "dimension %d was not created with NewDimension", i)
		}
		if _, dup := s.index[d.name]; dup {
			return nil, ConfigErrorf("space", "duplicate dimension name: %s", d.name)
		}
		s.index[d.name] = i
		s.dims[i] = d
	}
	return s, nil
}

// Len returns the number of dimensions
func (s *SearchSpace) Len() int { return len(s.dims) }

// Dimension returns the i-th dimension
func (s *SearchSpace) Dimension(i int) Dimension { return s.dims[i] }

// Dimensions returns a copy of the ordered dimensions
func (s *SearchSpace) Dimensions() []Dimension {
	out := make([]Dimension, len(s.dims))
	copy(out, s.dims)
	return out
}

// Names returns the dimension names in positional order
func (s *SearchSpace) Names() []string {
	names := make([]string, len(s.dims))
	for i, d := range s.dims {
		names[i] = d.name
	}
	return names
}

// Index returns the position of the named dimension
func (s *SearchSpace) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Lower returns the lower bounds in positional order
func (s *SearchSpace) Lower() []float64 {
	out := make([]float64, len(s.dims))
	for i, d := range s.dims {
		out[i] = d.lower
	}
	return out
}

// Upper returns the upper bounds in positional order
func (s *SearchSpace) Upper() []float64 {
	out := make([]float64, len(s.dims))
	for i, d := range s.dims {
		out[i] = d.upper
	}
	return out
}

// Contains reports whether x has the right arity and every coordinate is within bounds (inclusive)
func (s *SearchSpace) Contains(x []float64) bool {
	if len(x) != len(s.dims) {
		return false
	}
	for i, d := range s.dims {
		if !d.Contains(x[i]) {
			return false
		}
	}
	return true
}

// ToPositional converts named arguments to a slice aligned with the space order.
// Every dimension must be present and no unknown names are accepted.
func (s *SearchSpace) ToPositional(named map[string]float64) ([]float64, error) {
	if len(named) != len(s.dims) {
		return nil, ConfigErrorf("point", "expected %d named values, got %d", len(s.dims), len(named))
	}
	x := make([]float64, len(s.dims))
	for name, v := range named {
		i, ok := s.index[name]
		if !ok {
			return nil, ConfigErrorf("point", "unknown dimension %q", name)
		}
		x[i] = v
	}
	return x, nil
}

// ToNamed converts a positional slice into a Point
func (s *SearchSpace) ToNamed(x []float64) (Point, error) {
	if len(x) != len(s.dims) {
		return Point{}, ConfigErrorf("point", "expected %d values, got %d", len(s.dims), len(x))
	}
	values := make([]float64, len(x))
	copy(values, x)
	return Point{names: s.Names(), values: values}, nil
}

// Clip returns a copy of x with each coordinate clamped to its bounds.
// Strategies use it on their own proposals; the oracle adapter never clips.
func (s *SearchSpace) Clip(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		d := s.dims[i]
		out[i] = math.Min(math.Max(v, d.lower), d.upper)
	}
	return out
}

// Normalize maps x into the unit hypercube
func (s *SearchSpace) Normalize(x []float64) []float64 {
	u := make([]float64, len(x))
	for i, v := range x {
		d := s.dims[i]
		u[i] = (v - d.lower) / d.Width()
	}
	return u
}

// Denormalize maps u from the unit hypercube back into the space
func (s *SearchSpace) Denormalize(u []float64) []float64 {
	x := make([]float64, len(u))
	for i, v := range u {
		d := s.dims[i]
		x[i] = d.lower + v*d.Width()
	}
	return x
}

// SpaceBuilder collects dimensions in insertion order and reports the first error on Build
type SpaceBuilder struct {
	dims []Dimension
	err  error
}

// NewSpaceBuilder creates an empty builder
func NewSpaceBuilder() *SpaceBuilder {
	return &SpaceBuilder{}
}

// Add appends a dimension
func (b *SpaceBuilder) Add(name string, lower, upper float64) *SpaceBuilder {
	if b.err != nil {
		return b
	}
	d, err := NewDimension(name, lower, upper)
	if err != nil {
		b.err = err
		return b
	}
	b.dims = append(b.dims, d)
	return b
}

// Build creates the search space
func (b *SpaceBuilder) Build() (*SearchSpace, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewSearchSpace(b.dims...)
}
