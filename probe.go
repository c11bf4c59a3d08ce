package randsample

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Probe returns one Value per coordinate, in input order.
type Probe interface {
	io.Closer
	Sample(ctx context.Context, coords Coordinates) ([]Value, error)
}

// PointProbe is implemented by probes that answer one point at a time. The
// exporter interleaves them with writing instead of probing up front.
type PointProbe interface {
	Probe
	SamplePoint(ctx context.Context, c LatLon) (Value, error)
}

type Backend int

const (
	BulkBackend Backend = iota
	ExternalBackend
)

func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rasterio", "bulk", "cog", "":
		return BulkBackend, nil
	case "gdal", "external":
		return ExternalBackend, nil
	default:
		return 0, fmt.Errorf("unknown raster backend %q: must be gdal or rasterio", s)
	}
}

func (b Backend) String() string {
	switch b {
	case BulkBackend:
		return "rasterio"
	case ExternalBackend:
		return "gdal"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

const (
	DefaultGdalCommand = "gdallocationinfo"
	DefaultTimeout     = 30 * time.Second
)

type ProbeSpec struct {
	Path       string
	Backend    Backend
	Band       int
	NoData     *float64
	Resampling Resampling
	// external backend only
	Command string
	Timeout time.Duration
	Runner  CommandRunner

	Logger  *zerolog.Logger
	Metrics *Metrics
}

func (s *ProbeSpec) band() int {
	if s.Band <= 0 {
		return 1
	}
	return s.Band
}

func (s *ProbeSpec) noData() float64 {
	if s.NoData == nil {
		return default_no_data
	}
	return *s.NoData
}

func OpenProbe(spec ProbeSpec) (Probe, error) {
	if spec.Path == "" {
		return nil, fmt.Errorf("%w: no raster path", ErrProbe)
	}
	switch spec.Backend {
	case BulkBackend:
		return openBulkProbe(spec)
	case ExternalBackend:
		return newGdalProbe(spec), nil
	default:
		return nil, fmt.Errorf("%w: unsupported backend %v", ErrProbe, spec.Backend)
	}
}

func logOffRaster(logger *zerolog.Logger, m *Metrics, c LatLon) {
	m.miss()
	logger.Warn().Float64("lat", c.Lat).Float64("lon", c.Lon).Msg("sampling point is off the raster file")
}
