package cmd

import (
	"encoding/json"

	"github.com/histmap/histmap/pkg/session"
	"github.com/spf13/cobra"
)

var detailsCmd = &cobra.Command{
	Use:   "details <polity-id>",
	Short: "Fetch the four category summaries for a polity",
	Args:  cobra.ExactArgs(1),
	Example: `  histmap details roman --year 117
  histmap details ancient-egypt --year -1500 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		p, err := lookupPolity(c, args[0])
		if err != nil {
			return err
		}
		year, err := yearFlag(cmd)
		if err != nil {
			return err
		}
		agg, err := newAggregator(cmd)
		if err != nil {
			return err
		}

		d := agg.LoadDetails(cmd.Context(), p, year)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		}
		session.TextView{W: cmd.OutOrStdout()}.ShowResolved(d.Header, d.Body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detailsCmd)
	detailsCmd.Flags().IntP("year", "y", 0, "Selected year shown in the header (default timeline.default_year)")
	detailsCmd.Flags().Bool("json", false, "Print JSON, including each summary's outcome")
}
