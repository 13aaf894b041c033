package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/access-cli/internal/geo"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Print the region centroid table used for facilities without coordinates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := geo.LoadCentroids(cfg.Dataset.CentroidsPath)
		if err != nil {
			return err
		}
		formatCentroids(os.Stdout, table)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}

func formatCentroids(out io.Writer, t *geo.CentroidTable) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "City:\t%s\t%.4f\t%.4f\n", t.City.Name, t.City.Point.Lat, t.City.Point.Lon)
	_, _ = fmt.Fprintf(w, "Jitter:\t±%.3f°\t(fallback ±%.3f°)\t\n\n", t.JitterDeg, t.FallbackJitterDeg)
	_, _ = fmt.Fprintln(w, "REGION\tLATITUDE\tLONGITUDE\t")
	for _, c := range t.Regions {
		_, _ = fmt.Fprintf(w, "%s\t%.4f\t%.4f\t\n", c.Name, c.Point.Lat, c.Point.Lon)
	}
	_ = w.Flush()
}
