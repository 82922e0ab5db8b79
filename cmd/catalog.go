package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/histmap/histmap/internal/utils"
	"github.com/histmap/histmap/pkg/catalog"
	"github.com/histmap/histmap/pkg/polity"
	"github.com/histmap/histmap/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect, export and import the polity catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every polity in catalog order",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tFROM\tTO\tSPAN\tREFERENCE\t")
		for _, p := range c.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s years\t%s\t\n",
				p.ID, p.Name,
				polity.FormatYear(p.Interval.Start), polity.FormatYear(p.Interval.End),
				humanize.Comma(int64(p.Interval.Span())),
				p.ReferenceTitle)
		}
		w.Flush()

		first, last := c.Bounds()
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d polities from %s to %s\n", c.Len(), polity.FormatYear(first), polity.FormatYear(last))
		return nil
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the current catalog as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		formatFlag, _ := cmd.Flags().GetString("format")

		format := catalog.Format(formatFlag)
		if formatFlag == "" {
			format = catalog.FormatFromPath(output)
		}
		if format != catalog.FormatYAML && format != catalog.FormatJSON {
			return fmt.Errorf("unknown format %q (available: yaml, json)", formatFlag)
		}

		if output == "" {
			return catalog.Encode(cmd.OutOrStdout(), c, format)
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		if err := catalog.Encode(f, c, format); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		utils.Log.Infof("Wrote %d polities to %s", c.Len(), output)
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a catalog file into the SQLite catalog database",
	Long: `Load a YAML or JSON catalog file into the SQLite catalog database, replacing
its contents. Added, updated and removed polities are printed and kept in the
database's change log. Point catalog.db (or --catalog-db) at the database to use
it afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.Load(args[0])
		if err != nil {
			return err
		}
		dbPath, err := utils.GetAbsDBPath(viper.GetString("catalog.db"))
		if err != nil {
			return err
		}

		changes, err := importCatalog(cmd.Context(), dbPath, args[0], c)
		if err != nil {
			return err
		}

		for _, ch := range changes {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s (%s)\n", ch.ChangeType, ch.PolityID, ch.Name)
		}
		utils.Log.Infof("Imported %d polities into %s (%d changes)", c.Len(), dbPath, len(changes))
		return nil
	},
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics about the catalog database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := utils.GetAbsDBPath(viper.GetString("catalog.db"))
		if err != nil {
			return err
		}
		info, err := os.Stat(dbPath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("database file not found: %s", dbPath)
			}
			return err
		}

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return err
		}
		recent, err := db.ListRecentChanges(cmd.Context(), 10)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Database:   %s (%s)\n", dbPath, humanize.Bytes(uint64(info.Size())))
		fmt.Fprintf(out, "Polities:   %d\n", stats.Polities)
		if stats.Polities > 0 {
			fmt.Fprintf(out, "Years:      %s to %s\n", polity.FormatYear(stats.FirstYear), polity.FormatYear(stats.LastYear))
		}
		fmt.Fprintf(out, "Imports:    %d", stats.Imports)
		if !stats.LastImport.IsZero() {
			fmt.Fprintf(out, " (last %s)", humanize.Time(stats.LastImport))
		}
		fmt.Fprintln(out)

		if len(recent) > 0 {
			fmt.Fprintln(out, "\nRecent changes:")
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			for _, ch := range recent {
				fmt.Fprintf(w, "  %s\t%s\t%s\t\n", humanize.Time(ch.OccurredAt), ch.ChangeType, ch.PolityID)
			}
			w.Flush()
		}
		return nil
	},
}

var catalogChangesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent catalog changes recorded by imports (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		dbPath, err := utils.GetAbsDBPath(viper.GetString("catalog.db"))
		if err != nil {
			return err
		}
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("database not found: %s", dbPath)
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		changes, err := db.ListRecentChanges(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, c := range changes {
			ts := c.OccurredAt.Format("2006-01-02 15:04:05")
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-7s  %s  %s\n", ts, c.ChangeType, c.PolityID, c.Name)
		}
		return nil
	},
}

// importCatalog replaces the database contents with c while holding the
// database lock.
func importCatalog(ctx context.Context, dbPath, source string, c *catalog.Catalog) ([]storage.Change, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	lock, err := utils.NewDBLock(dbPath)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.ReplacePolities(ctx, source, c.All())
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
	catalogCmd.AddCommand(catalogChangesCmd)

	catalogExportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	catalogExportCmd.Flags().StringP("format", "f", "", "yaml or json (default from the output extension, else yaml)")
	catalogChangesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
}
