package randsample

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rs/zerolog"
)

var esriWKT = map[int]string{
	4326: `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`,
	3857: `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Mercator_Auxiliary_Sphere"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",0.0],PARAMETER["Standard_Parallel_1",0.0],PARAMETER["Auxiliary_Sphere_Type",0.0],UNIT["Meter",1.0]]`,
}

const (
	valueFieldSize = 24
	valueFieldPrec = 10
)

type shapefileSink struct {
	w *shp.Writer
}

// ShapefileParts lists the files written for a .shp target.
func ShapefileParts(target string) []string {
	base := strings.TrimSuffix(target, filepath.Ext(target))
	return []string{base + ".shp", base + ".shx", base + ".dbf", base + ".prj"}
}

func createShapefile(target string, epsg int, logger *zerolog.Logger) (Sink, error) {
	if !strings.EqualFold(filepath.Ext(target), ".shp") {
		return nil, fmt.Errorf("shapefile target %q must end in .shp", target)
	}
	w, err := shp.Create(target, shp.POINT)
	if err != nil {
		return nil, err
	}
	if err := w.SetFields([]shp.Field{
		shp.NumberField(fieldID, 10),
		shp.FloatField(fieldValue, valueFieldSize, valueFieldPrec),
	}); err != nil {
		w.Close()
		return nil, err
	}

	parts := ShapefileParts(target)
	if wkt, ok := esriWKT[epsg]; ok {
		if err := os.WriteFile(parts[3], []byte(wkt), 0o644); err != nil {
			w.Close()
			return nil, err
		}
	} else {
		logger.Warn().Int("epsg", epsg).Msg("no .prj definition for spatial reference, shapefile written without one")
	}
	return &shapefileSink{w: w}, nil
}

func (s *shapefileSink) Write(_ context.Context, rec Record) error {
	row := int(s.w.Write(&shp.Point{X: rec.Point[0], Y: rec.Point[1]}))
	if err := s.w.WriteAttribute(row, 0, rec.ID); err != nil {
		return err
	}
	return s.w.WriteAttribute(row, 1, dbfFloat(rec.Value))
}

// dbfFloat formats v for the value column, switching to exponent notation
// when the fixed form does not fit.
func dbfFloat(v float64) string {
	if s := strconv.FormatFloat(v, 'f', valueFieldPrec, 64); len(s) <= valueFieldSize {
		return s
	}
	// -d.<prec>e+ddd
	return strconv.FormatFloat(v, 'e', valueFieldSize-8, 64)
}

func (s *shapefileSink) Close() error {
	if s.w == nil {
		return nil
	}
	// go-shp drops header write errors on close
	s.w.Close()
	s.w = nil
	return nil
}
