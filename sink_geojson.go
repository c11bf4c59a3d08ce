package randsample

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// geojsonSink streams a FeatureCollection. The declared EPSG goes into a named
// "crs" member.
type geojsonSink struct {
	f     *os.File
	w     *bufio.Writer
	count int
}

func crsMember(epsg int) map[string]interface{} {
	return map[string]interface{}{
		"type": "name",
		"properties": map[string]interface{}{
			"name": fmt.Sprintf("urn:ogc:def:crs:EPSG::%d", epsg),
		},
	}
}

func createGeoJSON(target string, epsg int) (Sink, error) {
	f, err := os.Create(target)
	if err != nil {
		return nil, err
	}
	crs, err := json.Marshal(crsMember(epsg))
	if err != nil {
		f.Close()
		return nil, err
	}
	s := &geojsonSink{f: f, w: bufio.NewWriter(f)}
	if _, err := fmt.Fprintf(s.w, `{"type":"FeatureCollection","crs":%s,"features":[`, crs); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *geojsonSink) Write(_ context.Context, rec Record) error {
	feature := geojson.NewFeature(orb.Point{rec.Point[0], rec.Point[1]})
	feature.Properties[fieldID] = rec.ID
	feature.Properties[fieldValue] = rec.Value

	b, err := json.Marshal(feature)
	if err != nil {
		return err
	}
	if s.count > 0 {
		if err := s.w.WriteByte(','); err != nil {
			return err
		}
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	s.count++
	return nil
}

func (s *geojsonSink) Close() error {
	if s.f == nil {
		return nil
	}
	_, werr := s.w.WriteString("]}\n")
	ferr := s.w.Flush()
	cerr := s.f.Close()
	s.f = nil
	return errors.Join(werr, ferr, cerr)
}
