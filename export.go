package randsample

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flywave/go-geoid"
	"github.com/rs/zerolog"
)

type ExportOptions struct {
	// EPSG of the output geometries, 4326 when zero.
	EPSG   int
	Format Format
	Table  string
	// Raster, when set, is probed for each point. Without it every value is 0.
	Raster *ProbeSpec

	HeightModel  *geoid.VerticalDatum
	HeightOffset float64

	Progress func(done, total int)
	Logger   *zerolog.Logger
	Metrics  *Metrics
}

func (o *ExportOptions) epsg() int {
	if o.EPSG == 0 {
		return EPSG4326
	}
	return o.EPSG
}

// Export writes one point record per coordinate to target. The sink and the
// raster probe are opened here and closed before returning.
func Export(ctx context.Context, target string, coords Coordinates, opts ExportOptions) (err error) {
	logger := loggerOrNop(opts.Logger)
	logger.Info().Str("target", target).Int("points", len(coords)).Int("epsg", opts.epsg()).Msg("exporting sample")

	sink, err := CreateSink(ctx, target, SinkOptions{
		Format: opts.Format,
		EPSG:   opts.epsg(),
		Table:  opts.Table,
		Logger: logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("error opening output")
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("%w: close output: %w", ErrExport, cerr))
		}
	}()

	var probe Probe
	if opts.Raster != nil {
		spec := *opts.Raster
		if spec.Logger == nil {
			spec.Logger = logger
		}
		if spec.Metrics == nil {
			spec.Metrics = opts.Metrics
		}
		logger.Info().Str("raster", spec.Path).Stringer("backend", spec.Backend).Msg("sampling values on raster file")
		if probe, err = OpenProbe(spec); err != nil {
			logger.Error().Err(err).Msg("error opening raster")
			return err
		}
		defer func() {
			if cerr := probe.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("%w: close raster: %w", ErrProbe, cerr))
			}
		}()
	}

	if err = ExportTo(ctx, sink, probe, coords, opts); err != nil {
		logger.Error().Err(err).Msg("error exporting sample")
	}
	return err
}

// ExportTo joins coords with probe values and writes them to sink. A probe that
// implements PointProbe is asked point by point inside the write loop, any other
// probe answers for all points before the first write.
func ExportTo(ctx context.Context, sink Sink, probe Probe, coords Coordinates, opts ExportOptions) error {
	start := time.Now()
	logger := loggerOrNop(opts.Logger)

	reproj, err := newReprojector(opts.epsg())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	heights := newHeightConverter(opts.HeightModel, opts.HeightOffset)

	pointProbe, perPoint := probe.(PointProbe)
	var values []Value
	if probe != nil && !perPoint {
		if values, err = probe.Sample(ctx, coords); err != nil {
			return err
		}
		if len(values) != len(coords) {
			return fmt.Errorf("%w: %d values for %d points", ErrProbe, len(values), len(coords))
		}
	}

	points := reproj.Transform(coords.XY())
	total := len(coords)
	for i, c := range coords {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrExport, err)
		}

		var v Value
		switch {
		case perPoint:
			if v, err = pointProbe.SamplePoint(ctx, c); err != nil {
				return &PointError{Index: i, Point: c, Err: err}
			}
		case values != nil:
			v = values[i]
		}
		v = heights.Convert(c, v)

		rec := Record{ID: i + 1, Point: points[i]}
		if v.Valid {
			rec.Value = v.Value
		}
		if err := sink.Write(ctx, rec); err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrExport, rec.ID, err)
		}
		opts.Metrics.record()
		if opts.Progress != nil {
			opts.Progress(i+1, total)
		}
	}

	opts.Metrics.observeExport(time.Since(start).Seconds())
	logger.Info().Int("records", total).Dur("elapsed", time.Since(start)).Msg("sample successfully exported")
	return nil
}
