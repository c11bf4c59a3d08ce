package randsample

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	vec2d "github.com/flywave/go3d/float64/vec2"
)

var (
	ErrGeneration         = errors.New("randsample: random sample generation failed")
	ErrInvalidBoundingBox = errors.New("randsample: invalid bounding box")
	ErrInvalidPrecision   = errors.New("randsample: invalid precision")
	ErrOffRaster          = errors.New("randsample: sampling point is off the raster")
	ErrProbe              = errors.New("randsample: raster probe failed")
	ErrExport             = errors.New("randsample: export failed")
)

// BoundingBox keeps the (lat_max, lon_max, lat_min, lon_min) order used on the command line.
type BoundingBox struct {
	LatMax float64 `json:"lat_max"`
	LonMax float64 `json:"lon_max"`
	LatMin float64 `json:"lat_min"`
	LonMin float64 `json:"lon_min"`
}

func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: want lat_max,lon_max,lat_min,lon_min, got %q", ErrInvalidBoundingBox, s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("%w: %v", ErrInvalidBoundingBox, err)
		}
		v[i] = f
	}
	bbox := BoundingBox{LatMax: v[0], LonMax: v[1], LatMin: v[2], LonMin: v[3]}
	return bbox, bbox.Validate()
}

func (b BoundingBox) Validate() error {
	switch {
	case b.LatMax <= b.LatMin:
		return fmt.Errorf("%w: lat_max %v must be greater than lat_min %v", ErrInvalidBoundingBox, b.LatMax, b.LatMin)
	case b.LonMax <= b.LonMin:
		return fmt.Errorf("%w: lon_max %v must be greater than lon_min %v", ErrInvalidBoundingBox, b.LonMax, b.LonMin)
	case b.LatMax > 90 || b.LatMin < -90:
		return fmt.Errorf("%w: latitude outside [-90, 90]", ErrInvalidBoundingBox)
	case b.LonMax > 180 || b.LonMin < -180:
		return fmt.Errorf("%w: longitude outside [-180, 180]", ErrInvalidBoundingBox)
	}
	return nil
}

func (b BoundingBox) Contains(c LatLon) bool {
	return c.Lat >= b.LatMin && c.Lat <= b.LatMax && c.Lon >= b.LonMin && c.Lon <= b.LonMax
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", b.LatMax, b.LonMax, b.LatMin, b.LonMin)
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// XY returns the point in raster axis order (lon, lat).
func (c LatLon) XY() vec2d.T {
	return vec2d.T{c.Lon, c.Lat}
}

func (c LatLon) String() string {
	return fmt.Sprintf("[%v, %v]", c.Lat, c.Lon)
}

type Coordinates []LatLon

func (s Coordinates) Len() int {
	return len(s)
}

func (s Coordinates) XY() []vec2d.T {
	ret := make([]vec2d.T, len(s))
	for i := range s {
		ret[i] = s[i].XY()
	}
	return ret
}

// Value is a raster sample. Valid is false when the point fell off the raster or on no-data.
type Value struct {
	Value float64
	Valid bool
}

func Missing() Value {
	return Value{}
}

type Record struct {
	ID    int
	Value float64
	Point vec2d.T
}

type PointError struct {
	Index int
	Point LatLon
	Err   error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("point %d %s: %v", e.Index, e.Point, e.Err)
}

func (e *PointError) Unwrap() error {
	return e.Err
}
