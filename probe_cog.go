package randsample

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type bulkProbe struct {
	raster     *Raster
	band       int
	resampling Resampling
	logger     *zerolog.Logger
	metrics    *Metrics
}

func openBulkProbe(spec ProbeSpec) (Probe, error) {
	r, err := ReadRaster(spec.Path, spec.NoData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	return NewRasterProbe(r, spec)
}

// NewRasterProbe samples an already loaded raster.
func NewRasterProbe(r *Raster, spec ProbeSpec) (Probe, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil raster", ErrProbe)
	}
	if _, err := r.band(spec.band()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	resampling := spec.Resampling
	if resampling == "" {
		resampling = NEAREST
	}
	return &bulkProbe{
		raster:     r,
		band:       spec.band(),
		resampling: resampling,
		logger:     loggerOrNop(spec.Logger),
		metrics:    spec.Metrics,
	}, nil
}

func (p *bulkProbe) Sample(ctx context.Context, coords Coordinates) ([]Value, error) {
	if p.raster == nil {
		return nil, fmt.Errorf("%w: probe is closed", ErrProbe)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	p.logger.Info().Int("points", len(coords)).Int("band", p.band).Str("resampling", string(p.resampling)).Msg("sampling values on raster file")

	pts := p.raster.reproj.Transform(coords.XY())
	values, err := p.raster.Sample(p.band, pts, p.resampling)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	for i := range values {
		p.metrics.probe()
		if !values[i].Valid {
			logOffRaster(p.logger, p.metrics, coords[i])
		}
	}
	return values, nil
}

func (p *bulkProbe) Close() error {
	p.raster = nil
	return nil
}
