package cmd

import (
	"fmt"

	"github.com/histmap/histmap/pkg/polity"
	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:     "locate",
	Short:   "List the active polities whose boundary contains a point",
	Example: `  histmap locate --year 100 --lat 41.9 --lon 12.5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		year, err := yearFlag(cmd)
		if err != nil {
			return err
		}
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return fmt.Errorf("coordinates out of range: %g, %g", lat, lon)
		}

		hits := c.ActiveAtPoint(year, polity.Point{Lat: lat, Lon: lon})
		if len(hits) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No polity covers %g, %g in %s.\n", lat, lon, polity.FormatYear(year))
			return nil
		}
		printActive(cmd.OutOrStdout(), year, hits)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(locateCmd)
	locateCmd.Flags().IntP("year", "y", 0, "Year to query (default timeline.default_year)")
	locateCmd.Flags().Float64("lat", 0, "Latitude in degrees")
	locateCmd.Flags().Float64("lon", 0, "Longitude in degrees")
	locateCmd.MarkFlagRequired("lat")
	locateCmd.MarkFlagRequired("lon")
}
