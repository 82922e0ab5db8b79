package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/histmap/histmap/pkg/polity"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// activeCmd represents the active command
var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "List the polities that existed in a year",
	Example: `  histmap active --year 1500
  histmap active --year -3000 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		year, err := yearFlag(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		active := c.ActiveAt(year)
		if asJSON {
			return printActiveJSON(cmd.OutOrStdout(), year, active)
		}
		printActive(cmd.OutOrStdout(), year, active)
		return nil
	},
}

// yearFlag returns --year, or timeline.default_year when the flag is unset.
func yearFlag(cmd *cobra.Command) (int, error) {
	if cmd.Flags().Changed("year") {
		return cmd.Flags().GetInt("year")
	}
	return viper.GetInt("timeline.default_year"), nil
}

func printActive(w io.Writer, year int, active []polity.Polity) {
	if len(active) == 0 {
		fmt.Fprintf(w, "No mapped polity for %s.\n", polity.FormatYear(year))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFROM\tTO\t")
	for _, p := range active {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", p.ID, p.Name, polity.FormatYear(p.Interval.Start), polity.FormatYear(p.Interval.End))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d active in %s\n", len(active), polity.FormatYear(year))
}

func printActiveJSON(w io.Writer, year int, active []polity.Polity) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Year     int             `json:"year"`
		Label    string          `json:"label"`
		Count    int             `json:"count"`
		Polities []polity.Polity `json:"polities"`
	}{year, polity.FormatYear(year), len(active), active})
}

func init() {
	rootCmd.AddCommand(activeCmd)
	activeCmd.Flags().IntP("year", "y", 0, "Year to query (negative for BC; default timeline.default_year)")
	activeCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}
