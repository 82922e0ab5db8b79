package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/histmap/histmap/internal/utils"
	"github.com/histmap/histmap/pkg/catalog"
	"github.com/histmap/histmap/pkg/details"
	"github.com/histmap/histmap/pkg/polity"
	"github.com/histmap/histmap/pkg/storage"
	"github.com/histmap/histmap/pkg/whttp"
	"github.com/histmap/histmap/pkg/wiki"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadCatalog picks the catalog source: a catalog database, then a catalog
// file, then the built-in catalog.
func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if dbPath := viper.GetString("catalog.db"); dbPath != "" {
		absPath, err := utils.GetAbsDBPath(dbPath)
		if err != nil {
			return nil, err
		}
		db, err := storage.Open(absPath)
		if err != nil {
			return nil, fmt.Errorf("opening catalog database %s: %w", absPath, err)
		}
		defer db.Close()

		ps, err := db.ListPolities(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading catalog database %s: %w", absPath, err)
		}
		if len(ps) == 0 {
			return nil, fmt.Errorf("catalog database %s is empty, run 'histmap catalog import' first", absPath)
		}
		utils.Log.Debugf("Loaded %d polities from %s", len(ps), absPath)
		return catalog.New(ps)
	}

	if path := viper.GetString("catalog.path"); path != "" {
		c, err := catalog.Load(path)
		if err != nil {
			return nil, err
		}
		utils.Log.Debugf("Loaded %d polities from %s", c.Len(), path)
		return c, nil
	}

	return catalog.Default(), nil
}

// newWikiClient builds the knowledge-source client from configuration.
func newWikiClient(cmd *cobra.Command) (*wiki.Client, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	httpClient, err := whttp.NewClient(whttp.ClientConfig{
		Timeout: viper.GetDuration("wiki.timeout"),
		Retries: viper.GetInt("wiki.retries"),
		Proxy:   proxy,
	})
	if err != nil {
		return nil, err
	}

	keywords := map[polity.Category][]string{}
	for _, c := range polity.Categories {
		keywords[c] = stringList("categories." + string(c))
	}

	return wiki.New(wiki.Config{
		Endpoint:    viper.GetString("wiki.endpoint"),
		ArticleBase: viper.GetString("wiki.article_base"),
		SourceName:  viper.GetString("wiki.source_name"),
		UserAgent:   viper.GetString("wiki.user_agent"),
		Keywords:    keywords,
		HTTPClient:  httpClient,
	}), nil
}

func newAggregator(cmd *cobra.Command) (*details.Aggregator, error) {
	client, err := newWikiClient(cmd)
	if err != nil {
		return nil, err
	}
	return details.New(client), nil
}

// stringList reads a key that is either a YAML list or a comma-separated
// string (the form environment variables take).
func stringList(key string) []string {
	var raw []string
	switch v := viper.Get(key).(type) {
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []interface{}:
		for _, item := range v {
			raw = append(raw, fmt.Sprint(item))
		}
	}

	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// lookupPolity resolves an id against the catalog with a helpful error.
func lookupPolity(c *catalog.Catalog, id string) (polity.Polity, error) {
	p, ok := c.Lookup(id)
	if !ok {
		return polity.Polity{}, fmt.Errorf("unknown polity %q (see 'histmap catalog list')", id)
	}
	return p, nil
}
