package randsample

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/flywave/go-geoid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	records []Record
	failAt  int
	closed  bool
}

func (s *memorySink) Write(_ context.Context, rec Record) error {
	if s.failAt > 0 && rec.ID == s.failAt {
		return errors.New("disk full")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

type shortProbe struct{}

func (shortProbe) Sample(context.Context, Coordinates) ([]Value, error) {
	return []Value{{Value: 1, Valid: true}}, nil
}

func (shortProbe) Close() error { return nil }

func TestExportToWithoutRaster(t *testing.T) {
	a := assert.New(t)

	s, err := Generate(testBBox, 100, 10, SampleOptions{Seed: seedOf(1)})
	require.NoError(t, err)

	sink := &memorySink{}
	m := NewMetrics()
	require.NoError(t, ExportTo(context.Background(), sink, nil, s.Pairs(), ExportOptions{Metrics: m}))

	require.Len(t, sink.records, 100)
	for i, rec := range sink.records {
		a.Equal(i+1, rec.ID)
		a.Equal(0.0, rec.Value)
		a.Equal(s.Lon[i], rec.Point[0])
		a.Equal(s.Lat[i], rec.Point[1])
		a.True(testBBox.Contains(LatLon{Lat: rec.Point[1], Lon: rec.Point[0]}))
	}
	a.Equal(100.0, testutil.ToFloat64(m.Records))
}

func TestExportToBackendParity(t *testing.T) {
	r := newTestRaster(t)
	s, err := Generate(BoundingBox{LatMax: 2.5, LonMax: 5, LatMin: -0.5, LonMin: -1}, 200, 10, SampleOptions{Seed: seedOf(3)})
	require.NoError(t, err)
	coords := s.Pairs()

	bulk, err := NewRasterProbe(r, ProbeSpec{})
	require.NoError(t, err)
	external := newGdalProbe(ProbeSpec{Path: "dem.tif", Runner: rasterRunner(t, r)})

	fromBulk := &memorySink{}
	require.NoError(t, ExportTo(context.Background(), fromBulk, bulk, coords, ExportOptions{}))
	fromExternal := &memorySink{}
	require.NoError(t, ExportTo(context.Background(), fromExternal, external, coords, ExportOptions{}))

	assert.Equal(t, fromBulk.records, fromExternal.records)

	// the box overhangs the raster, so both hits and misses are present
	var hits int
	for _, rec := range fromBulk.records {
		if rec.Value != 0 {
			hits++
		}
	}
	assert.Greater(t, hits, 0)
	assert.Less(t, hits, len(coords))
}

func TestExportToOffRasterIsZero(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	p, err := NewRasterProbe(newTestRaster(t), ProbeSpec{})
	require.NoError(t, err)

	sink := &memorySink{}
	coords := Coordinates{{Lat: 1.5, Lon: 0.5}, {Lat: 30, Lon: 30}}
	require.NoError(t, ExportTo(context.Background(), sink, p, coords, ExportOptions{Logger: &logger}))

	assert.Equal(t, 1.0, sink.records[0].Value)
	assert.Equal(t, 0.0, sink.records[1].Value)
	assert.Contains(t, buf.String(), "sample successfully exported")
}

func TestExportToHeightOffset(t *testing.T) {
	p, err := NewRasterProbe(newTestRaster(t), ProbeSpec{})
	require.NoError(t, err)

	hae := geoid.HAE
	sink := &memorySink{}
	coords := Coordinates{{Lat: 1.5, Lon: 0.5}, {Lat: 30, Lon: 30}}
	require.NoError(t, ExportTo(context.Background(), sink, p, coords, ExportOptions{HeightModel: &hae, HeightOffset: 10}))

	assert.Equal(t, 11.0, sink.records[0].Value)
	assert.Equal(t, 0.0, sink.records[1].Value)
}

func TestExportToErrors(t *testing.T) {
	coords := Coordinates{{Lat: 1.5, Lon: 0.5}, {Lat: 1.5, Lon: 1.5}, {Lat: 1.5, Lon: 2.5}}

	err := ExportTo(context.Background(), &memorySink{failAt: 2}, nil, coords, ExportOptions{})
	assert.ErrorIs(t, err, ErrExport)
	assert.Contains(t, err.Error(), "disk full")

	err = ExportTo(context.Background(), &memorySink{}, shortProbe{}, coords, ExportOptions{})
	assert.ErrorIs(t, err, ErrProbe)

	failing := newGdalProbe(ProbeSpec{Path: "dem.tif", Runner: func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("not found")
	}})
	sink := &memorySink{}
	err = ExportTo(context.Background(), sink, failing, coords, ExportOptions{})
	var pe *PointError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 0, pe.Index)
	assert.ErrorIs(t, err, ErrProbe)
	assert.Empty(t, sink.records)

	sink = &memorySink{}
	err = ExportTo(context.Background(), sink, nil, coords, ExportOptions{EPSG: 999999})
	assert.ErrorIs(t, err, ErrExport)
	assert.Empty(t, sink.records)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = ExportTo(ctx, &memorySink{}, nil, coords, ExportOptions{})
	assert.ErrorIs(t, err, ErrExport)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportToProgress(t *testing.T) {
	coords := Coordinates{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 3}}

	var calls [][2]int
	opts := ExportOptions{Progress: func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}}
	require.NoError(t, ExportTo(context.Background(), &memorySink{}, nil, coords, opts))
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestExportGeoJSONFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sample.geojson")
	s, err := Generate(testBBox, 25, 10, SampleOptions{Seed: seedOf(1)})
	require.NoError(t, err)

	m := NewMetrics()
	require.NoError(t, Export(context.Background(), out, s.Pairs(), ExportOptions{Metrics: m}))

	fc := readFeatureCollection(t, out)
	assert.Len(t, fc.Features, 25)
	assert.Equal(t, 25.0, testutil.ToFloat64(m.Records))
}

func TestExportGeoTIFFValues(t *testing.T) {
	a := assert.New(t)
	tif := writeTestGeoTIFF(t, nil, nil)
	out := filepath.Join(t.TempDir(), "sample.geojson")

	s, err := Generate(testBBox, 200, 10, SampleOptions{Seed: seedOf(7)})
	require.NoError(t, err)
	coords := s.Pairs()
	require.NoError(t, Export(context.Background(), out, coords, ExportOptions{
		Raster: &ProbeSpec{Path: tif},
	}))

	fc := readFeatureCollection(t, out)
	require.Len(t, fc.Features, len(coords))
	for i, f := range fc.Features {
		a.Equal(float64(i+1), f.Properties["cod_id"])
		a.Equal([]float64{coords[i].Lon, coords[i].Lat}, f.Geometry.Coordinates)
		a.Equal(testGeoTIFFValue(coords[i]), f.Properties["value"], "record %d at %v", i+1, coords[i])
	}
}

func TestExportErrors(t *testing.T) {
	dir := t.TempDir()
	coords := Coordinates{{Lat: 1, Lon: 1}}

	err := Export(context.Background(), filepath.Join(dir, "missing", "out.geojson"), coords, ExportOptions{})
	assert.ErrorIs(t, err, ErrExport)

	err = Export(context.Background(), filepath.Join(dir, "out.geojson"), coords, ExportOptions{
		Raster: &ProbeSpec{Path: filepath.Join(dir, "nope.tif")},
	})
	assert.ErrorIs(t, err, ErrProbe)

	// the sink is created before the raster is opened
	_, statErr := os.Stat(filepath.Join(dir, "out.geojson"))
	assert.NoError(t, statErr)
}
