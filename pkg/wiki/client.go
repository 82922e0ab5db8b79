package wiki

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/histmap/histmap/internal/metrics"
	"github.com/histmap/histmap/internal/utils"
	"github.com/histmap/histmap/pkg/polity"
	"github.com/histmap/histmap/pkg/whttp"
	"github.com/tidwall/gjson"
)

const (
	DefaultEndpoint    = "https://en.wikipedia.org/w/api.php"
	DefaultArticleBase = "https://en.wikipedia.org/wiki/"
	DefaultSourceName  = "Wikipedia"
)

// Config holds the knowledge-source settings. Zero values fall back to the
// English Wikipedia defaults.
type Config struct {
	Endpoint    string
	ArticleBase string
	// SourceName appears in the failure placeholder.
	SourceName string
	UserAgent  string
	// Keywords overrides DefaultKeywords per category.
	Keywords   map[polity.Category][]string
	HTTPClient *retryablehttp.Client
}

// DefaultConfig returns a Config pointing at English Wikipedia.
func DefaultConfig() Config {
	return Config{
		Endpoint:    DefaultEndpoint,
		ArticleBase: DefaultArticleBase,
		SourceName:  DefaultSourceName,
		UserAgent:   whttp.DefaultUserAgent,
	}
}

// Client performs the two-step search/extract lookup. It keeps no cache:
// every call goes to the network.
type Client struct {
	endpoint    string
	articleBase string
	sourceName  string
	userAgent   string
	keywords    map[polity.Category][]string
	http        *retryablehttp.Client
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.ArticleBase == "" {
		cfg.ArticleBase = def.ArticleBase
	}
	if cfg.SourceName == "" {
		cfg.SourceName = def.SourceName
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient, _ = whttp.NewClient(whttp.ClientConfig{Timeout: 15 * time.Second})
	}
	return &Client{
		endpoint:    cfg.Endpoint,
		articleBase: cfg.ArticleBase,
		sourceName:  cfg.SourceName,
		userAgent:   cfg.UserAgent,
		keywords:    mergeKeywords(cfg.Keywords),
		http:        cfg.HTTPClient,
	}
}

// Query returns the search string used for a reference title and category.
func (c *Client) Query(referenceTitle string, category polity.Category) string {
	return BuildQuery(referenceTitle, c.keywords[category])
}

// FetchSummary returns the user-facing text for one category of a polity.
// It never fails: empty results and transport errors become placeholders.
func (c *Client) FetchSummary(ctx context.Context, p polity.Polity, category polity.Category) string {
	return c.Lookup(ctx, p, category).Text()
}

// Lookup searches for the best article for the category, then fetches its
// introductory extract. The search falls back to the reference title when it
// has no hits.
func (c *Client) Lookup(ctx context.Context, p polity.Polity, category polity.Category) Summary {
	s := Summary{
		Category:   category,
		PolityID:   p.ID,
		PolityName: p.Name,
		sourceName: c.sourceName,
	}

	title, snippet, err := c.search(ctx, c.Query(p.ReferenceTitle, category))
	if err != nil {
		return c.fail(s, "search", err)
	}
	if title == "" {
		title = p.ReferenceTitle
	}
	s.Title = title
	s.Snippet = snippet

	extract, err := c.extract(ctx, title)
	if err != nil {
		return c.fail(s, "extract", err)
	}
	s.Extract = extract
	if extract == "" {
		s.Outcome = Empty
	} else {
		s.Outcome = Resolved
	}

	utils.Log.Debugf("[wiki] %s/%s resolved to %q (%s)", p.ID, category, title, s.Outcome)
	metrics.SummariesTotal.WithLabelValues(string(category), string(s.Outcome)).Inc()
	return s
}

func (c *Client) fail(s Summary, step string, err error) Summary {
	utils.Log.Debugf("[wiki] %s/%s %s failed: %v", s.PolityID, s.Category, step, err)
	s.Outcome = TransportFailure
	s.Extract = ""
	metrics.SummariesTotal.WithLabelValues(string(s.Category), string(s.Outcome)).Inc()
	return s
}

// ArticleURL links to the human-readable article for a reference title.
func (c *Client) ArticleURL(referenceTitle string) string {
	return ArticleURL(c.articleBase, referenceTitle)
}

// ArticleURL joins base and the title with spaces as underscores, path-escaped.
func ArticleURL(base, referenceTitle string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(strings.ReplaceAll(referenceTitle, " ", "_"))
}

// search returns the top hit's title and snippet, or "" when there are none.
func (c *Client) search(ctx context.Context, query string) (string, string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("utf8", "1")
	params.Set("format", "json")
	params.Set("origin", "*")

	body, err := c.get(ctx, "search", params)
	if err != nil {
		return "", "", err
	}
	top := gjson.Get(body, "query.search.0")
	return top.Get("title").String(), snippetText(top.Get("snippet").String()), nil
}

// extract returns the plain-text intro of the first page in the response.
func (c *Client) extract(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("titles", title)
	params.Set("format", "json")
	params.Set("origin", "*")

	body, err := c.get(ctx, "extract", params)
	if err != nil {
		return "", err
	}

	var text string
	gjson.Get(body, "query.pages").ForEach(func(_, page gjson.Result) bool {
		text = page.Get("extract").String()
		return false
	})
	return plainExtract(text), nil
}

// get issues one API request and returns the body once it is known to be JSON.
func (c *Client) get(ctx context.Context, step string, params url.Values) (string, error) {
	t0 := time.Now()
	metrics.WikiRequestsTotal.WithLabelValues(step).Inc()

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method:  "GET",
		URL:     c.endpoint + "?" + params.Encode(),
		Headers: []whttp.WHTTPHeader{{Name: "User-Agent", Value: c.userAgent}},
	}, c.http)
	metrics.WikiDurationMs.WithLabelValues(step).Observe(float64(time.Since(t0).Milliseconds()))

	if err != nil {
		metrics.WikiFailTotal.WithLabelValues(step).Inc()
		return "", err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		metrics.WikiFailTotal.WithLabelValues(step).Inc()
		return "", fmt.Errorf("%s returned HTTP %d", step, res.StatusCode)
	}
	if !gjson.Valid(res.BodyString) {
		metrics.WikiFailTotal.WithLabelValues(step).Inc()
		return "", fmt.Errorf("%s returned malformed JSON", step)
	}
	return res.BodyString, nil
}
