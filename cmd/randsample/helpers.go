package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	randsample "github.com/flywave/go-randsample"
	"github.com/flywave/go-randsample/internal/config"
	"github.com/flywave/go-randsample/internal/logging"
	"github.com/flywave/go-randsample/internal/storage"
)

// session holds what one command invocation shares: settings, the run logger,
// metrics and a scratch directory for remote files.
type session struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *randsample.Metrics
	tmpDir  string
	store   storage.ObjectStore
}

var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"gdal-cmd":   "gdal.command",
	"nodata":     "raster.nodata",
	"table":      "postgis.table",
}

func newSession(cmd *cobra.Command, stderr io.Writer) (*session, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.New(path)
	if err != nil {
		return nil, err
	}
	for name, key := range flagKeys {
		// an unchanged flag would shadow keys that have no config default
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, stderr).
		With().Str("run_id", uuid.NewString()).Logger()

	tmpDir, err := os.MkdirTemp("", "randsample-")
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		logger:  logger,
		metrics: randsample.NewMetrics(),
		tmpDir:  tmpDir,
	}, nil
}

func (s *session) objectStore(ctx context.Context) (storage.ObjectStore, error) {
	if s.store != nil {
		return s.store, nil
	}
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Region:    s.cfg.S3.Region,
		Endpoint:  s.cfg.S3.Endpoint,
		AccessKey: s.cfg.S3.AccessKey,
		SecretKey: s.cfg.S3.SecretKey,
	})
	if err != nil {
		return nil, err
	}
	s.store = store
	return store, nil
}

// fetch returns a local path for uri, downloading s3:// objects first.
func (s *session) fetch(ctx context.Context, uri string) (string, error) {
	if !storage.IsS3(uri) {
		return uri, nil
	}
	store, err := s.objectStore(ctx)
	if err != nil {
		return "", err
	}
	s.logger.Info().Str("uri", uri).Msg("downloading input")
	return storage.Fetch(ctx, store, uri, s.tmpDir)
}

// close writes the metrics textfile when one is configured and removes the
// scratch directory.
func (s *session) close() {
	if s.cfg.Metrics.File != "" {
		if err := s.metrics.WriteTextfile(s.cfg.Metrics.File); err != nil {
			s.logger.Warn().Err(err).Str("file", s.cfg.Metrics.File).Msg("error writing metrics")
		}
	}
	os.RemoveAll(s.tmpDir)
}

// exportFlags are shared by every command that writes a sample.
type exportFlags struct {
	out         string
	format      string
	epsg        int
	raster      string
	backend     string
	band        int
	resample    string
	geoid       string
	heightShift float64
}

func (f *exportFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.out, "out", "", "Output file, s3:// object or postgres:// URL (required)")
	fs.StringVar(&f.format, "format", "", "Output format: shp, geojson, postgis (default from --out)")
	fs.IntVar(&f.epsg, "epsg", randsample.EPSG4326, "EPSG code of the output geometries")
	fs.StringVar(&f.raster, "raster", "", "Raster to sample values from, local path or s3:// object")
	fs.StringVar(&f.backend, "backend", "rasterio", "Raster backend: rasterio or gdal")
	fs.IntVar(&f.band, "band", 1, "Raster band, 1-based")
	fs.StringVar(&f.resample, "resample", "nearest", "Resampling for the rasterio backend: nearest, bilinear, hyperbolic")
	fs.StringVar(&f.geoid, "geoid", "", "Convert sampled heights from this geoid to the ellipsoid: egm84, egm96, egm2008")
	fs.Float64Var(&f.heightShift, "height-offset", 0, "Constant added to converted heights")
	fs.String("gdal-cmd", "", "Path of the gdallocationinfo executable")
	fs.Float64("nodata", 0, "Raster no-data value (default from the raster, else -9999)")
	fs.String("table", "", "PostGIS table name")
}

func (f *exportFlags) options(ctx context.Context, s *session) (randsample.ExportOptions, error) {
	opts := randsample.ExportOptions{
		EPSG:         f.epsg,
		Table:        s.cfg.PostGIS.Table,
		HeightOffset: f.heightShift,
		Logger:       &s.logger,
		Metrics:      s.metrics,
	}
	if f.format != "" {
		format, err := randsample.ParseFormat(f.format)
		if err != nil {
			return opts, err
		}
		opts.Format = format
	}
	model, err := randsample.ParseVerticalDatum(f.geoid)
	if err != nil {
		return opts, err
	}
	opts.HeightModel = model

	if f.raster == "" {
		if model != nil {
			return opts, fmt.Errorf("--geoid needs --raster")
		}
		return opts, nil
	}
	backend, err := randsample.ParseBackend(f.backend)
	if err != nil {
		return opts, err
	}
	resampling, err := randsample.ParseResampling(f.resample)
	if err != nil {
		return opts, err
	}
	path, err := s.fetch(ctx, f.raster)
	if err != nil {
		return opts, err
	}
	opts.Raster = &randsample.ProbeSpec{
		Path:       path,
		Backend:    backend,
		Band:       f.band,
		NoData:     s.cfg.Raster.NoData,
		Resampling: resampling,
		Command:    s.cfg.Gdal.Command,
		Timeout:    s.cfg.Gdal.Timeout,
	}
	return opts, nil
}

// export writes coords to the --out target. Remote targets are written to the
// scratch directory and uploaded with their sidecar files afterwards.
func (f *exportFlags) export(ctx context.Context, s *session, coords randsample.Coordinates) error {
	if f.out == "" {
		return fmt.Errorf("--out is required")
	}
	opts, err := f.options(ctx, s)
	if err != nil {
		return err
	}

	total := len(coords)
	step := total / 10
	if step == 0 {
		step = 1
	}
	opts.Progress = func(done, total int) {
		if done%step == 0 || done == total {
			s.logger.Debug().Int("done", done).Int("total", total).Msg("export progress")
		}
	}

	if !storage.IsS3(f.out) {
		return randsample.Export(ctx, f.out, coords, opts)
	}

	format := opts.Format
	if format == "" {
		format = randsample.DetectFormat(f.out)
	}
	if format == randsample.FormatPostGIS {
		return fmt.Errorf("postgis output cannot be written to %s", f.out)
	}
	_, key, err := storage.ParseS3(f.out)
	if err != nil {
		return err
	}
	local := filepath.Join(s.tmpDir, filepath.Base(key))
	if err := randsample.Export(ctx, local, coords, opts); err != nil {
		return err
	}
	files := []string{local}
	if format == randsample.FormatShapefile {
		files = randsample.ShapefileParts(local)
	}
	store, err := s.objectStore(ctx)
	if err != nil {
		return err
	}
	s.logger.Info().Str("uri", f.out).Int("files", len(files)).Msg("uploading output")
	return storage.Publish(ctx, store, f.out, files...)
}
