package cmd

import (
	"fmt"

	"github.com/histmap/histmap/internal/utils"
	"github.com/histmap/histmap/pkg/polity"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <polity-id>",
	Short: "Fetch a single category summary for a polity",
	Args:  cobra.ExactArgs(1),
	Example: `  histmap summary mongol --category economy
  histmap summary eu -c culture --query`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		p, err := lookupPolity(c, args[0])
		if err != nil {
			return err
		}
		categoryFlag, _ := cmd.Flags().GetString("category")
		category, err := polity.ParseCategory(categoryFlag)
		if err != nil {
			return err
		}
		client, err := newWikiClient(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showQuery, _ := cmd.Flags().GetBool("query"); showQuery {
			fmt.Fprintf(out, "query: %s\n", client.Query(p.ReferenceTitle, category))
		}

		s := client.Lookup(cmd.Context(), p, category)
		utils.Log.Debugf("%s/%s outcome: %s", p.ID, category, s.Outcome)
		if s.Title != "" {
			fmt.Fprintf(out, "%s (%s)\n%s\n\n", s.Title, category.Title(), client.ArticleURL(s.Title))
		}
		fmt.Fprintln(out, s.Text())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringP("category", "c", "politics", "Category: politics, economy, demographics, culture")
	summaryCmd.Flags().Bool("query", false, "Also print the search query that was sent")
}
