package main

import (
	"bufio"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cityscape/internal/geo"
)

var (
	fetchOut   string
	fetchBBox  string
	fetchLimit int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Download buildings inside a bounding box to a GeoJSON file",
	Long:  "Queries a Socrata GeoJSON dataset (the Calgary 3D buildings by default) with a within_box filter, keeps the footprints overlapping the box, and writes them as a FeatureCollection that view and serve read.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := geo.CalgaryBuildingsURL
		if len(args) > 0 {
			base = args[0]
		}
		box, err := geo.ParseBBox(fetchBBox)
		if err != nil {
			return err
		}
		src, err := geo.WithinBoxURL(base, box, fetchLimit)
		if err != nil {
			return err
		}

		buildings, err := geo.FetchBuildings(cmd.Context(), nil, src)
		if err != nil {
			return err
		}
		kept := geo.Within(buildings, box)
		if extent, ok := geo.Bounds(kept); ok {
			zap.L().Info("fetch: buildings in box",
				zap.Int("fetched", len(buildings)),
				zap.Int("kept", len(kept)),
				zap.Stringer("extent", extent),
			)
		}

		out := fetchOut
		if out == "" {
			out = cfg.Server.Source
		}
		return writeFeatures(cmd.OutOrStdout(), out, kept)
	},
}

// writeFeatures writes buildings as GeoJSON to path, or to stdout for "-".
func writeFeatures(stdout io.Writer, path string, buildings []geo.Building) error {
	w := stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "fetch: create output")
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	if err := geo.EncodeFeatureCollection(bw, buildings); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return eris.Wrap(err, "fetch: flush")
	}
	zap.L().Info("fetch: wrote buildings", zap.String("output", path), zap.Int("buildings", len(buildings)))
	return nil
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOut, "output", "o", "", "output file, - for stdout (default server.source)")
	fetchCmd.Flags().StringVar(&fetchBBox, "bbox", geo.DowntownCalgary.String(), "west,south,east,north in degrees")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 1000, "row limit sent to the dataset (0 for none)")
	rootCmd.AddCommand(fetchCmd)
}
