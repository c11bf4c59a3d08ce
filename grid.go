package randsample

import (
	"fmt"
	"math"

	vec2d "github.com/flywave/go3d/float64/vec2"
	"gonum.org/v1/gonum/floats"
)

const (
	latDegrees = 180.
	lonDegrees = 360.

	MaxLatticeSize = 1 << 24
)

// Lattice holds the candidate values for each axis. Its size is taken from the
// full-sphere degree count and only the endpoints come from the bounding box, so
// a small box at high precision still gets 180*prec+1 latitudes spread over the
// box span.
type Lattice struct {
	BBox      BoundingBox
	Precision float64
	Lat       []float64
	Lon       []float64
}

func latticeSize(degrees, prec float64) (int, error) {
	n := math.Floor(degrees*prec) + 1
	if n < 2 {
		return 0, fmt.Errorf("%w: %v gives fewer than 2 lattice points over %v degrees", ErrInvalidPrecision, prec, degrees)
	}
	if n > MaxLatticeSize {
		return 0, fmt.Errorf("%w: %v gives %v lattice points, limit is %d", ErrInvalidPrecision, prec, n, MaxLatticeSize)
	}
	return int(n), nil
}

func NewLattice(bbox BoundingBox, prec float64) (*Lattice, error) {
	if math.IsNaN(prec) || math.IsInf(prec, 0) || prec <= 0 {
		return nil, fmt.Errorf("%w: %v must be a positive number", ErrInvalidPrecision, prec)
	}
	if err := bbox.Validate(); err != nil {
		return nil, err
	}

	nlat, err := latticeSize(latDegrees, prec)
	if err != nil {
		return nil, err
	}
	nlon, err := latticeSize(lonDegrees, prec)
	if err != nil {
		return nil, err
	}

	l := &Lattice{BBox: bbox, Precision: prec}
	l.Lat = floats.Span(make([]float64, nlat), bbox.LatMax, bbox.LatMin)
	l.Lon = floats.Span(make([]float64, nlon), bbox.LonMin, bbox.LonMax)
	return l, nil
}

// Step is the spacing between neighbouring lattice values, latitude first.
func (l *Lattice) Step() [2]float64 {
	return [2]float64{
		(l.BBox.LatMax - l.BBox.LatMin) / float64(len(l.Lat)-1),
		(l.BBox.LonMax - l.BBox.LonMin) / float64(len(l.Lon)-1),
	}
}

func (l *Lattice) Count() int {
	return len(l.Lat) * len(l.Lon)
}

func (l *Lattice) GetRect() vec2d.Rect {
	return vec2d.Rect{
		Min: vec2d.T{l.BBox.LonMin, l.BBox.LatMin},
		Max: vec2d.T{l.BBox.LonMax, l.BBox.LatMax},
	}
}
