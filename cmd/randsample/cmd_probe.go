package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	randsample "github.com/flywave/go-randsample"
)

func newProbeCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		points     string
		pointsEPSG int
		ef         exportFlags
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Sample a raster at existing GeoJSON points",
		Long: `Read point and multipoint features from a GeoJSON FeatureCollection,
look up the raster value under each point and export the result the same way
the sample command does. Other geometry types are skipped.`,
		Example: `  randsample probe --points wells.geojson --raster dem.tif --out wells.shp`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, stderr)
			if err != nil {
				return err
			}
			defer s.close()

			path, err := s.fetch(cmd.Context(), points)
			if err != nil {
				return err
			}
			coords, skipped, err := randsample.ReadPoints(path, pointsEPSG)
			if err != nil {
				return err
			}
			if skipped > 0 {
				s.logger.Warn().Int("skipped", skipped).Msg("features without point geometry skipped")
			}
			if len(coords) == 0 {
				return fmt.Errorf("no points in %s", points)
			}
			if err := ef.export(cmd.Context(), s, coords); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "wrote %d points to %s\n", len(coords), ef.out)
			return nil
		},
	}
	cmd.Flags().StringVar(&points, "points", "", "GeoJSON FeatureCollection with the points to probe (required)")
	cmd.Flags().IntVar(&pointsEPSG, "points-epsg", randsample.EPSG4326, "EPSG code of the input points")
	ef.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("points")
	_ = cmd.MarkFlagRequired("raster")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
