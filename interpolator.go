package randsample

import (
	"fmt"
	"strings"
)

type Resampling string

const (
	NEAREST    Resampling = "nearest"
	BILINEAR   Resampling = "bilinear"
	HYPERBOLIC Resampling = "hyperbolic"
)

func ParseResampling(s string) (Resampling, error) {
	switch r := Resampling(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return NEAREST, nil
	case NEAREST, BILINEAR, HYPERBOLIC:
		return r, nil
	default:
		return "", fmt.Errorf("unknown resampling %q: must be nearest, bilinear or hyperbolic", s)
	}
}

// Interpolator blends the four pixels around a point. x grows east and y grows
// south from the north-west pixel, both in [0, 1).
type Interpolator interface {
	Interpolate(southWest, southEast, northWest, northEast, x, y float64) float64
}

func (r Resampling) Interpolator() Interpolator {
	switch r {
	case BILINEAR:
		return &BilinearInterpolator{}
	case HYPERBOLIC:
		return &HyperbolicInterpolator{}
	}
	return nil
}

type BilinearInterpolator struct{}

func (i *BilinearInterpolator) Interpolate(sw, se, nw, ne, x, y float64) float64 {
	return Lerp(Lerp(nw, sw, y), Lerp(ne, se, y), x)
}

type HyperbolicInterpolator struct{}

func (i *HyperbolicInterpolator) Interpolate(sw, se, nw, ne, x, y float64) float64 {
	// measured from the south-west corner
	v := 1 - y
	a00 := sw
	a10 := se - sw
	a01 := nw - sw
	a11 := sw - se - nw + ne
	return a00 + a10*x + a01*v + a11*x*v
}
