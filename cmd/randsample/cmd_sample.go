package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	randsample "github.com/flywave/go-randsample"
)

func newSampleCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		bbox string
		size int
		prec float64
		seed int64
		ef   exportFlags
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw a random coordinate sample and export it",
		Long: `Draw size random coordinates from a lattice over the bounding box and
write them as point features. The lattice spacing is 1/prec degrees.

With --raster each point carries the raster value under it. Points off the
raster, or on no-data, are written with value 0.`,
		Example: `  randsample sample --bbox 42,10,32,-10 --size 100 --prec 10 --seed 1 --out sample.shp
  randsample sample --bbox 42,10,32,-10 --raster dem.tif --backend gdal --out sample.geojson`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			box, err := randsample.ParseBoundingBox(bbox)
			if err != nil {
				return err
			}
			s, err := newSession(cmd, stderr)
			if err != nil {
				return err
			}
			defer s.close()

			opts := randsample.SampleOptions{Logger: &s.logger}
			if cmd.Flags().Changed("seed") {
				opts.Seed = &seed
			}
			sample, err := randsample.Generate(box, size, prec, opts)
			if err != nil {
				return err
			}
			if err := ef.export(cmd.Context(), s, sample.Pairs()); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "wrote %d points to %s (seed %d)\n", sample.Len(), ef.out, sample.Seed)
			return nil
		},
	}
	cmd.Flags().StringVar(&bbox, "bbox", "", "Bounding box as lat_max,lon_max,lat_min,lon_min (required)")
	cmd.Flags().IntVar(&size, "size", 100, "Number of points to draw")
	cmd.Flags().Float64Var(&prec, "prec", 10, "Lattice points per degree")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for a reproducible draw")
	ef.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("bbox")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
