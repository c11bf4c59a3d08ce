package randsample

import (
	"fmt"
	"strings"

	"github.com/flywave/go-geoid"
)

func ParseVerticalDatum(s string) (*geoid.VerticalDatum, error) {
	var d geoid.VerticalDatum
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return nil, nil
	case "hae", "ellipsoid":
		d = geoid.HAE
	case "egm84":
		d = geoid.EGM84
	case "egm96":
		d = geoid.EGM96
	case "egm2008", "egm08":
		d = geoid.EGM2008
	default:
		return nil, fmt.Errorf("unknown vertical datum %q", s)
	}
	return &d, nil
}

// heightConverter turns orthometric raster heights into ellipsoidal heights.
type heightConverter struct {
	model   geoid.VerticalDatum
	offset  float64
	convert func(lat, lon, h float64) float64
}

func newHeightConverter(model *geoid.VerticalDatum, offset float64) *heightConverter {
	if model == nil || *model == geoid.UNKNOWN || (*model == geoid.HAE && offset == 0) {
		return nil
	}
	c := &heightConverter{model: *model, offset: offset}
	if c.model != geoid.HAE {
		gid := geoid.NewGeoid(c.model, false)
		c.convert = func(lat, lon, h float64) float64 {
			return gid.ConvertHeight(lat, lon, h, geoid.GEOIDTOELLIPSOID)
		}
	}
	return c
}

func (c *heightConverter) Convert(pos LatLon, v Value) Value {
	if c == nil || !v.Valid {
		return v
	}
	if c.convert == nil {
		v.Value += c.offset
		return v
	}
	v.Value = c.convert(pos.Lat, pos.Lon, v.Value)
	return v
}
