package randsample

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Sink receives point records in id order. Close flushes and releases it and
// must be called on every path.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

type Format string

const (
	FormatShapefile Format = "shp"
	FormatGeoJSON   Format = "geojson"
	FormatPostGIS   Format = "postgis"
)

const (
	fieldID    = "cod_id"
	fieldValue = "value"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatShapefile, FormatGeoJSON, FormatPostGIS:
		return f, nil
	case "shapefile", "esri shapefile":
		return FormatShapefile, nil
	case "json":
		return FormatGeoJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q: must be shp, geojson or postgis", s)
	}
}

// DetectFormat guesses the format from the output target.
func DetectFormat(target string) Format {
	if strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://") {
		return FormatPostGIS
	}
	switch strings.ToLower(filepath.Ext(target)) {
	case ".geojson", ".json":
		return FormatGeoJSON
	}
	return FormatShapefile
}

type SinkOptions struct {
	Format Format
	EPSG   int
	// Table is the PostGIS table name.
	Table  string
	Logger *zerolog.Logger
}

func CreateSink(ctx context.Context, target string, opts SinkOptions) (Sink, error) {
	format := opts.Format
	if format == "" {
		format = DetectFormat(target)
	}
	epsg := opts.EPSG
	if epsg == 0 {
		epsg = EPSG4326
	}

	var (
		sink Sink
		err  error
	)
	switch format {
	case FormatShapefile:
		sink, err = createShapefile(target, epsg, loggerOrNop(opts.Logger))
	case FormatGeoJSON:
		sink, err = createGeoJSON(target, epsg)
	case FormatPostGIS:
		sink, err = createPostGIS(ctx, target, opts.Table, epsg)
	default:
		err = fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	return sink, nil
}
