package randsample

import (
	"fmt"
	"sync"

	vec2d "github.com/flywave/go3d/float64/vec2"

	"github.com/flywave/go-geo"
)

const EPSG4326 = 4326

var epsg4326 = sync.OnceValue(func() geo.Proj {
	return geo.NewProj(EPSG4326)
})

func isGeographic(epsg int) bool {
	return epsg == 0 || epsg == EPSG4326
}

func newProj(epsg int) (geo.Proj, error) {
	proj := geo.NewProj(epsg)
	// proj init failures come back as a nil *SRSProj4 inside the interface
	if p, ok := proj.(*geo.SRSProj4); proj == nil || (ok && p == nil) {
		return nil, fmt.Errorf("unsupported spatial reference EPSG:%d", epsg)
	}
	return proj, nil
}

// reprojector moves lon/lat points from EPSG:4326 into another CRS. The zero value
// and EPSG:4326 leave points untouched.
type reprojector struct {
	epsg int
	proj geo.Proj
}

func newReprojector(epsg int) (*reprojector, error) {
	r := &reprojector{epsg: epsg}
	if isGeographic(epsg) {
		return r, nil
	}
	proj, err := newProj(epsg)
	if err != nil {
		return nil, err
	}
	if proj.Eq(epsg4326()) {
		return r, nil
	}
	r.proj = proj
	return r, nil
}

func (r *reprojector) Transform(pts []vec2d.T) []vec2d.T {
	if r == nil || r.proj == nil {
		return pts
	}
	in := make([]vec2d.T, len(pts))
	copy(in, pts)
	return epsg4326().TransformTo(r.proj, in)
}
