package randsample

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBilinearCorners(t *testing.T) {
	a := assert.New(t)
	i := &BilinearInterpolator{}

	sw, se, nw, ne := 1.0, 2.0, 3.0, 4.0
	a.Equal(nw, i.Interpolate(sw, se, nw, ne, 0, 0))
	a.Equal(ne, i.Interpolate(sw, se, nw, ne, 1, 0))
	a.Equal(sw, i.Interpolate(sw, se, nw, ne, 0, 1))
	a.Equal(se, i.Interpolate(sw, se, nw, ne, 1, 1))
	a.Equal(2.5, i.Interpolate(sw, se, nw, ne, 0.5, 0.5))
}

func TestHyperbolicMatchesBilinear(t *testing.T) {
	b := &BilinearInterpolator{}
	h := &HyperbolicInterpolator{}

	cells := [][4]float64{
		{1, 2, 3, 4},
		{10, -5, 0, 7.5},
		{100, 100, 100, 100},
	}
	for _, c := range cells {
		for x := 0.0; x <= 1; x += 0.25 {
			for y := 0.0; y <= 1; y += 0.25 {
				assert.InDelta(t,
					b.Interpolate(c[0], c[1], c[2], c[3], x, y),
					h.Interpolate(c[0], c[1], c[2], c[3], x, y),
					1e-9, "%v at %v,%v", c, x, y)
			}
		}
	}
}

func TestParseResampling(t *testing.T) {
	a := assert.New(t)

	for in, want := range map[string]Resampling{
		"":           NEAREST,
		"nearest":    NEAREST,
		"Bilinear":   BILINEAR,
		"hyperbolic": HYPERBOLIC,
	} {
		got, err := ParseResampling(in)
		a.NoError(err, in)
		a.Equal(want, got, in)
	}
	_, err := ParseResampling("cubic")
	a.Error(err)

	a.Nil(NEAREST.Interpolator())
	a.IsType(&BilinearInterpolator{}, BILINEAR.Interpolator())
	a.IsType(&HyperbolicInterpolator{}, HYPERBOLIC.Interpolator())
}
