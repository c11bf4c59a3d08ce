package randsample

import (
	"fmt"
	"math"
	"os"

	vec2d "github.com/flywave/go3d/float64/vec2"

	"github.com/flywave/go-cog"
)

const (
	default_no_data = float64(-9999)
)

// Raster is a north-up grid of one or more bands held in memory. Pixel (0, 0) is
// the north-west corner of Bounds.
type Raster struct {
	Width  int
	Height int
	Bounds vec2d.Rect
	NoData float64
	EPSG   int
	bands  [][]float64
	reproj *reprojector
}

func NewRaster(bounds vec2d.Rect, width, height int, noData float64, bands ...[]float64) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	if bounds.Max[0] <= bounds.Min[0] || bounds.Max[1] <= bounds.Min[1] {
		return nil, fmt.Errorf("invalid raster bounds %v", bounds)
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster has no bands")
	}
	for i, b := range bands {
		if len(b) != width*height {
			return nil, fmt.Errorf("band %d has %d pixels, want %d", i+1, len(b), width*height)
		}
	}
	return &Raster{
		Width:  width,
		Height: height,
		Bounds: bounds,
		NoData: noData,
		EPSG:   EPSG4326,
		bands:  bands,
	}, nil
}

// ReadRaster loads the first image of a GeoTIFF/COG file. Pixel-interleaved
// samples are split into bands. A nil noData takes the file's GDAL_NODATA tag,
// falling back to -9999.
func ReadRaster(path string, noData *float64) (r *Raster, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	// go-cog panics on files it cannot parse
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("cannot read raster %s: %v", path, rec)
		}
	}()
	rd := cog.Read(path)
	if rd == nil || len(rd.Data) == 0 {
		return nil, fmt.Errorf("cannot read raster %s", path)
	}

	si := rd.GetSize(0)
	width, height := int(si[0]), int(si[1])

	data, err := toFloat64s(rd.Data[0])
	if err != nil {
		return nil, fmt.Errorf("raster %s: %w", path, err)
	}
	if width <= 0 || height <= 0 || len(data)%(width*height) != 0 {
		return nil, fmt.Errorf("raster %s: %d samples do not fit a %dx%d grid", path, len(data), width, height)
	}
	bands := splitBands(data, width*height, len(data)/(width*height))

	nd := default_no_data
	if noData != nil {
		nd = *noData
	} else if tag := rd.GetNoData(0); tag != nil {
		nd = *tag
	}
	r, err = NewRaster(rd.GetBounds(0), width, height, nd, bands...)
	if err != nil {
		return nil, fmt.Errorf("raster %s: %w", path, err)
	}

	epsgcode, err := rd.GetEPSGCode(0)
	if err != nil {
		return nil, fmt.Errorf("raster %s: %w", path, err)
	}
	if err := r.SetEPSG(int(epsgcode)); err != nil {
		return nil, fmt.Errorf("raster %s: %w", path, err)
	}
	return r, nil
}

func splitBands(data []float64, pixels, count int) [][]float64 {
	if count == 1 {
		return [][]float64{data}
	}
	bands := make([][]float64, count)
	for b := range bands {
		bands[b] = make([]float64, pixels)
		for i := 0; i < pixels; i++ {
			bands[b][i] = data[i*count+b]
		}
	}
	return bands
}

func toFloat64s(v interface{}) ([]float64, error) {
	switch d := v.(type) {
	case []float64:
		return d, nil
	case []float32:
		return convert(d), nil
	case []int8:
		return convert(d), nil
	case []uint8:
		return convert(d), nil
	case []int16:
		return convert(d), nil
	case []uint16:
		return convert(d), nil
	case []int32:
		return convert(d), nil
	case []uint32:
		return convert(d), nil
	case []int64:
		return convert(d), nil
	case []uint64:
		return convert(d), nil
	default:
		return nil, fmt.Errorf("unsupported sample type %T", v)
	}
}

type number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

func convert[T number](src []T) []float64 {
	ret := make([]float64, len(src))
	for i, v := range src {
		ret[i] = float64(v)
	}
	return ret
}

// SetEPSG declares the raster CRS; lon/lat queries are reprojected into it.
func (r *Raster) SetEPSG(epsg int) error {
	reproj, err := newReprojector(epsg)
	if err != nil {
		return err
	}
	if epsg == 0 {
		epsg = EPSG4326
	}
	r.EPSG = epsg
	r.reproj = reproj
	return nil
}

func (r *Raster) BandCount() int {
	return len(r.bands)
}

func (r *Raster) PixelSize() [2]float64 {
	return [2]float64{
		(r.Bounds.Max[0] - r.Bounds.Min[0]) / float64(r.Width),
		(r.Bounds.Max[1] - r.Bounds.Min[1]) / float64(r.Height),
	}
}

func (r *Raster) band(band int) ([]float64, error) {
	if band < 1 || band > len(r.bands) {
		return nil, fmt.Errorf("band %d out of range 1..%d", band, len(r.bands))
	}
	return r.bands[band-1], nil
}

// Pixel returns the fractional column and row of a point in raster CRS.
func (r *Raster) Pixel(p vec2d.T) (float64, float64) {
	ps := r.PixelSize()
	return (p[0] - r.Bounds.Min[0]) / ps[0], (r.Bounds.Max[1] - p[1]) / ps[1]
}

func (r *Raster) contains(col, row float64) bool {
	return col >= 0 && row >= 0 && col < float64(r.Width) && row < float64(r.Height)
}

func (r *Raster) at(data []float64, x, y int) float64 {
	x = clamp(x, 0, r.Width-1)
	y = clamp(y, 0, r.Height-1)
	return data[y*r.Width+x]
}

// Sample looks up the given points (raster CRS, x/y order) in one pass.
func (r *Raster) Sample(band int, pts []vec2d.T, method Resampling) ([]Value, error) {
	data, err := r.band(band)
	if err != nil {
		return nil, err
	}
	interpolator := method.Interpolator()
	ret := make([]Value, len(pts))
	for i, p := range pts {
		if interpolator == nil {
			ret[i] = r.nearest(data, p)
		} else {
			ret[i] = r.interpolate(data, p, interpolator)
		}
	}
	return ret, nil
}

func (r *Raster) nearest(data []float64, p vec2d.T) Value {
	col, row := r.Pixel(p)
	if !r.contains(col, row) {
		return Missing()
	}
	v := r.at(data, int(math.Floor(col)), int(math.Floor(row)))
	if isNoData(v, r.NoData) {
		return Missing()
	}
	return Value{Value: v, Valid: true}
}

func (r *Raster) interpolate(data []float64, p vec2d.T, interpolator Interpolator) Value {
	col, row := r.Pixel(p)
	if !r.contains(col, row) {
		return Missing()
	}
	if home := r.at(data, int(math.Floor(col)), int(math.Floor(row))); isNoData(home, r.NoData) {
		return Missing()
	}

	// neighbours are taken around pixel centres
	cx, cy := col-0.5, row-0.5
	xFloor, yFloor := int(math.Floor(cx)), int(math.Floor(cy))
	xAmount, yAmount := cx-float64(xFloor), cy-float64(yFloor)

	northWest := r.at(data, xFloor, yFloor)
	northEast := r.at(data, xFloor+1, yFloor)
	southWest := r.at(data, xFloor, yFloor+1)
	southEast := r.at(data, xFloor+1, yFloor+1)

	avg := getAverageExceptForNoDataValue(r.NoData, r.NoData, southWest, southEast, northWest, northEast)
	for _, h := range []*float64{&northWest, &northEast, &southWest, &southEast} {
		if isNoData(*h, r.NoData) {
			*h = avg
		}
	}
	return Value{Value: interpolator.Interpolate(southWest, southEast, northWest, northEast, xAmount, yAmount), Valid: true}
}
