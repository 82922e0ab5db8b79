package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/histmap/histmap/internal/utils"
	"github.com/histmap/histmap/pkg/polity"
	"github.com/histmap/histmap/pkg/whttp"
	"github.com/histmap/histmap/pkg/wiki"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "histmap",
	Short: "Explore which historical polities existed in a given year.",
	Long: `histmap answers "which states and empires existed in year N?" and fetches a
short politics, economy, demographics and culture summary for each of them.

Use it from the command line, in an interactive session (histmap explore) or
as a web map with a year slider (histmap serve).`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.histmap.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("catalog", "", "Catalog file (YAML or JSON) to use instead of the built-in one")
	rootCmd.PersistentFlags().String("catalog-db", "", "SQLite catalog database to use instead of the built-in catalog")

	viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("catalog"))
	viper.BindPFlag("catalog.db", rootCmd.PersistentFlags().Lookup("catalog-db"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A .env in the working directory is optional.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error reading .env: %s\n", err)
	}

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".histmap")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("HISTMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".histmap.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Could not create config file %s: %s", configPath, err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setDefaults() {
	viper.SetDefault("wiki.endpoint", wiki.DefaultEndpoint)
	viper.SetDefault("wiki.article_base", wiki.DefaultArticleBase)
	viper.SetDefault("wiki.user_agent", whttp.DefaultUserAgent)
	viper.SetDefault("wiki.timeout", "15s")
	viper.SetDefault("wiki.retries", 0)
	viper.SetDefault("wiki.source_name", wiki.DefaultSourceName)
	for _, c := range polity.Categories {
		viper.SetDefault("categories."+string(c), wiki.DefaultKeywords[c])
	}
	viper.SetDefault("catalog.path", "")
	viper.SetDefault("catalog.db", "")
	viper.SetDefault("timeline.default_year", 1500)
	viper.SetDefault("server.listen", ":8080")
}
