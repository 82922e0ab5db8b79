package cmd

import (
	"github.com/histmap/histmap/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web map with the year slider",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		agg, err := newAggregator(cmd)
		if err != nil {
			return err
		}

		listenAddr := viper.GetString("server.listen")
		if cmd.Flags().Changed("listen") {
			listenAddr, _ = cmd.Flags().GetString("listen")
		}

		s := server.New(c, agg, viper.GetInt("timeline.default_year"), viper.GetString("wiki.source_name"))
		return s.Start(cmd.Context(), listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address (default server.listen)")
}
