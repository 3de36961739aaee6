package models

import (
	"strconv"
	"strings"
)

// Point is a candidate input: ordered name/value pairs aligned with a SearchSpace
type Point struct {
	names  []string
	values []float64
}

// NewPoint builds a point from a named map in the order of space
func NewPoint(space *SearchSpace, named map[string]float64) (Point, error) {
	x, err := space.ToPositional(named)
	if err != nil {
		return Point{}, err
	}
	return Point{names: space.Names(), values: x}, nil
}

// Len returns the number of coordinates
func (p Point) Len() int { return len(p.values) }

// Names returns the coordinate names in order
func (p Point) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Values returns the positional representation
func (p Point) Values() []float64 {
	out := make([]float64, len(p.values))
	copy(out, p.values)
	return out
}

// Map returns the named representation
func (p Point) Map() map[string]float64 {
	m := make(map[string]float64, len(p.values))
	for i, name := range p.names {
		m[name] = p.values[i]
	}
	return m
}

// Value returns the named coordinate
func (p Point) Value(name string) (float64, bool) {
	for i, n := range p.names {
		if n == name {
			return p.values[i], true
		}
	}
	return 0, false
}

// String renders the point as {name: value, ...} in space order
func (p Point) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range p.names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(p.values[i], 'g', -1, 64))
	}
	b.WriteByte('}')
	return b.String()
}
