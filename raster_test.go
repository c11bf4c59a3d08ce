package randsample

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	vec2d "github.com/flywave/go3d/float64/vec2"

	"github.com/flywave/go-cog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRaster covers lon 0..4, lat 0..2 with 1 degree pixels:
//
//	1 2 3 4
//	5 6 7 8
func newTestRaster(t *testing.T, bands ...[]float64) *Raster {
	t.Helper()
	if len(bands) == 0 {
		bands = [][]float64{{1, 2, 3, 4, 5, 6, 7, 8}}
	}
	r, err := NewRaster(vec2d.Rect{Min: vec2d.T{0, 0}, Max: vec2d.T{4, 2}}, 4, 2, default_no_data, bands...)
	require.NoError(t, err)
	return r
}

func TestRasterNearest(t *testing.T) {
	a := assert.New(t)
	r := newTestRaster(t)

	values, err := r.Sample(1, []vec2d.T{
		{0.5, 1.5},
		{3.5, 0.5},
		{1.99, 1.01},
		{0, 2},
		{5, 1},
		{-0.1, 1},
		{4, 1},
		{2, 0},
	}, NEAREST)
	require.NoError(t, err)

	a.Equal(Value{Value: 1, Valid: true}, values[0])
	a.Equal(Value{Value: 8, Valid: true}, values[1])
	a.Equal(Value{Value: 2, Valid: true}, values[2])
	a.Equal(Value{Value: 1, Valid: true}, values[3])
	for _, v := range values[4:] {
		a.Equal(Missing(), v)
	}
}

func TestRasterNoData(t *testing.T) {
	r := newTestRaster(t, []float64{default_no_data, math.NaN(), 3, 4, 5, 6, 7, 8})

	values, err := r.Sample(1, []vec2d.T{{0.5, 1.5}, {1.5, 1.5}, {2.5, 1.5}}, NEAREST)
	require.NoError(t, err)
	assert.False(t, values[0].Valid)
	assert.False(t, values[1].Valid)
	assert.Equal(t, Value{Value: 3, Valid: true}, values[2])
}

func TestRasterBilinear(t *testing.T) {
	a := assert.New(t)
	r := newTestRaster(t)

	values, err := r.Sample(1, []vec2d.T{{1, 1}, {0.5, 1.5}, {9, 9}}, BILINEAR)
	require.NoError(t, err)
	a.InDelta(3.5, values[0].Value, 1e-9)
	a.True(values[0].Valid)
	a.InDelta(1, values[1].Value, 1e-9)
	a.False(values[2].Valid)

	// a no-data neighbour takes the average of the valid ones
	r = newTestRaster(t, []float64{1, default_no_data, 3, 4, 5, 6, 7, 8})
	values, err = r.Sample(1, []vec2d.T{{1, 1}}, BILINEAR)
	require.NoError(t, err)
	a.InDelta(4, values[0].Value, 1e-9)
}

func TestRasterBands(t *testing.T) {
	a := assert.New(t)

	bands := splitBands([]float64{1, 10, 2, 20, 3, 30, 4, 40, 5, 50, 6, 60, 7, 70, 8, 80}, 8, 2)
	a.Equal([]float64{1, 2, 3, 4, 5, 6, 7, 8}, bands[0])
	a.Equal([]float64{10, 20, 30, 40, 50, 60, 70, 80}, bands[1])

	r := newTestRaster(t, bands...)
	a.Equal(2, r.BandCount())

	values, err := r.Sample(2, []vec2d.T{{2.5, 0.5}}, NEAREST)
	require.NoError(t, err)
	a.Equal(Value{Value: 70, Valid: true}, values[0])

	_, err = r.Sample(3, []vec2d.T{{2.5, 0.5}}, NEAREST)
	a.Error(err)
	_, err = r.Sample(0, []vec2d.T{{2.5, 0.5}}, NEAREST)
	a.Error(err)
}

func TestToFloat64s(t *testing.T) {
	got, err := toFloat64s([]uint8{1, 255})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 255}, got)

	got, err = toFloat64s([]float32{0.5, -2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -2}, got)

	_, err = toFloat64s([]string{"x"})
	assert.Error(t, err)
}

func TestNewRasterInvalid(t *testing.T) {
	bounds := vec2d.Rect{Min: vec2d.T{0, 0}, Max: vec2d.T{4, 2}}

	_, err := NewRaster(bounds, 0, 2, default_no_data, []float64{})
	assert.Error(t, err)
	_, err = NewRaster(vec2d.Rect{Min: vec2d.T{4, 0}, Max: vec2d.T{0, 2}}, 4, 2, default_no_data, make([]float64, 8))
	assert.Error(t, err)
	_, err = NewRaster(bounds, 4, 2, default_no_data)
	assert.Error(t, err)
	_, err = NewRaster(bounds, 4, 2, default_no_data, make([]float64, 7))
	assert.Error(t, err)
}

func TestReadRasterMissingFile(t *testing.T) {
	_, err := ReadRaster("does-not-exist.tif", nil)
	assert.Error(t, err)
}

// writeTestGeoTIFF writes a 32x16 EPSG:4326 GeoTIFF covering lon -16..16,
// lat 29..45 with 1 degree pixels. Pixel (col, row) holds row*100+col.
func writeTestGeoTIFF(t *testing.T, noData *string, edit func([]float64)) string {
	t.Helper()
	const width, height = 32, 16
	tiledata := make([]float64, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			tiledata[row*width+col] = float64(row*100 + col)
		}
	}
	if edit != nil {
		edit(tiledata)
	}

	path := filepath.Join(t.TempDir(), "dem.tif")
	rect := image.Rect(0, 0, width, height)
	src := cog.NewSource(tiledata, &rect, cog.CTLZW)
	bbox := vec2d.Rect{Min: vec2d.T{-16, 29}, Max: vec2d.T{16, 45}}
	require.NoError(t, cog.WriteTile(path, src, bbox, epsg4326(), [2]uint32{width, height}, noData))
	return path
}

// testGeoTIFFValue is the pixel value writeTestGeoTIFF stores under a point.
func testGeoTIFFValue(p LatLon) float64 {
	col := math.Floor(p.Lon + 16)
	row := math.Floor(45 - p.Lat)
	return row*100 + col
}

func TestReadRasterGeoTIFF(t *testing.T) {
	a := assert.New(t)
	r, err := ReadRaster(writeTestGeoTIFF(t, nil, nil), nil)
	require.NoError(t, err)

	a.Equal(32, r.Width)
	a.Equal(16, r.Height)
	a.Equal(EPSG4326, r.EPSG)
	a.Equal(1, r.BandCount())
	a.InDelta(-16, r.Bounds.Min[0], 1e-9)
	a.InDelta(29, r.Bounds.Min[1], 1e-9)
	a.InDelta(16, r.Bounds.Max[0], 1e-9)
	a.InDelta(45, r.Bounds.Max[1], 1e-9)
	a.Equal(default_no_data, r.NoData)

	values, err := r.Sample(1, []vec2d.T{{-15.5, 44.5}, {0.25, 40.75}, {15.9, 29.1}, {17, 40}}, NEAREST)
	require.NoError(t, err)
	a.Equal([]Value{
		{Value: 0, Valid: true},
		{Value: 416, Valid: true},
		{Value: 1531, Valid: true},
		Missing(),
	}, values)
}

func TestReadRasterNoDataTag(t *testing.T) {
	a := assert.New(t)
	tag := "-32768"
	path := writeTestGeoTIFF(t, &tag, func(d []float64) { d[0] = -32768 })
	corner := []vec2d.T{{-15.5, 44.5}}

	r, err := ReadRaster(path, nil)
	require.NoError(t, err)
	a.Equal(-32768.0, r.NoData)
	values, err := r.Sample(1, corner, NEAREST)
	require.NoError(t, err)
	a.Equal([]Value{Missing()}, values)

	explicit := default_no_data
	r, err = ReadRaster(path, &explicit)
	require.NoError(t, err)
	a.Equal(default_no_data, r.NoData)
	values, err = r.Sample(1, corner, NEAREST)
	require.NoError(t, err)
	a.Equal([]Value{{Value: -32768, Valid: true}}, values)
}

func TestReadRasterNotATiff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.tif")
	require.NoError(t, os.WriteFile(path, []byte("elevation notes, not an image\n"), 0o644))

	var err error
	assert.NotPanics(t, func() {
		_, err = ReadRaster(path, nil)
	})
	assert.Error(t, err)

	_, err = OpenProbe(ProbeSpec{Path: path})
	assert.ErrorIs(t, err, ErrProbe)
}
