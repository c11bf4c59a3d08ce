package randsample

import (
	"fmt"
	"os"

	vec2d "github.com/flywave/go3d/float64/vec2"

	"github.com/flywave/go-geom/general"
)

// ReadPoints loads point and multipoint features from a GeoJSON file as lat/lon
// coordinates. Features of other geometry types are skipped and counted.
func ReadPoints(path string, epsg int) (Coordinates, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	return ParsePoints(data, epsg)
}

func ParsePoints(data []byte, epsg int) (Coordinates, int, error) {
	fcs, err := general.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, 0, fmt.Errorf("parse feature collection: %w", err)
	}

	pos := make([]vec2d.T, 0, len(fcs.Features))
	skipped := 0
	for _, feas := range fcs.Features {
		switch g := feas.Geometry.(type) {
		case *general.Point:
			pos = append(pos, vec2d.T{g.X(), g.Y()})
		case *general.MultiPoint:
			for _, p := range g.Points() {
				pos = append(pos, vec2d.T{p.X(), p.Y()})
			}
		default:
			skipped++
		}
	}

	if !isGeographic(epsg) {
		proj, err := newProj(epsg)
		if err != nil {
			return nil, 0, err
		}
		if !proj.Eq(epsg4326()) {
			pos = proj.TransformTo(epsg4326(), pos)
		}
	}

	ret := make(Coordinates, len(pos))
	for i, p := range pos {
		ret[i] = LatLon{Lat: p[1], Lon: p[0]}
	}
	return ret, skipped, nil
}
