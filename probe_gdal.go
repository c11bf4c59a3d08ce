package randsample

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CommandRunner runs an external command and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// gdalProbe wraps gdallocationinfo, one process per point.
type gdalProbe struct {
	path    string
	band    int
	noData  float64
	command string
	timeout time.Duration
	run     CommandRunner
	logger  *zerolog.Logger
	metrics *Metrics
}

func newGdalProbe(spec ProbeSpec) *gdalProbe {
	p := &gdalProbe{
		path:    spec.Path,
		band:    spec.band(),
		noData:  spec.noData(),
		command: spec.Command,
		timeout: spec.Timeout,
		run:     spec.Runner,
		logger:  loggerOrNop(spec.Logger),
		metrics: spec.Metrics,
	}
	if p.command == "" {
		p.command = DefaultGdalCommand
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.run == nil {
		p.run = execRunner
	}
	return p
}

func (p *gdalProbe) args(c LatLon) []string {
	return []string{
		p.path,
		"-b", strconv.Itoa(p.band),
		"-wgs84",
		strconv.FormatFloat(c.Lon, 'f', -1, 64),
		strconv.FormatFloat(c.Lat, 'f', -1, 64),
		"-valonly",
	}
}

// query returns ErrOffRaster when the command prints no number, any other error
// means the command itself failed.
func (p *gdalProbe) query(ctx context.Context, c LatLon) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.run(ctx, p.command, p.args(c)...)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, ErrOffRaster
	}
	if isNoData(value, p.noData) {
		return 0, ErrOffRaster
	}
	return value, nil
}

func (p *gdalProbe) SamplePoint(ctx context.Context, c LatLon) (Value, error) {
	p.metrics.probe()
	value, err := p.query(ctx, c)
	switch {
	case err == nil:
		return Value{Value: value, Valid: true}, nil
	case errors.Is(err, ErrOffRaster):
		logOffRaster(p.logger, p.metrics, c)
		return Missing(), nil
	default:
		p.metrics.fail()
		p.logger.Error().Err(err).Float64("lat", c.Lat).Float64("lon", c.Lon).Msg("error sampling point (gdallocationinfo)")
		return Missing(), err
	}
}

func (p *gdalProbe) Sample(ctx context.Context, coords Coordinates) ([]Value, error) {
	values := make([]Value, len(coords))
	for i, c := range coords {
		v, err := p.SamplePoint(ctx, c)
		if err != nil {
			return nil, &PointError{Index: i, Point: c, Err: err}
		}
		values[i] = v
	}
	return values, nil
}

func (p *gdalProbe) Close() error {
	return nil
}
