package details

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/histmap/histmap/internal/metrics"
	"github.com/histmap/histmap/internal/utils"
	"github.com/histmap/histmap/pkg/polity"
	"github.com/histmap/histmap/pkg/wiki"
)

// Fetcher resolves one category summary. It must always return, folding
// failures into the Summary.
type Fetcher interface {
	Lookup(ctx context.Context, p polity.Polity, c polity.Category) wiki.Summary
}

// ArticleLinker is optionally implemented by a Fetcher to link the header to
// the polity's reference article.
type ArticleLinker interface {
	ArticleURL(referenceTitle string) string
}

// Header is known as soon as a load starts.
type Header struct {
	RequestID  string `json:"request_id"`
	PolityID   string `json:"polity_id"`
	Name       string `json:"name"`
	Year       int    `json:"year"`
	YearLabel  string `json:"year_label"`
	Period     string `json:"period"`
	ArticleURL string `json:"article_url,omitempty"`
}

// Details is the combined result of a load.
type Details struct {
	Header    Header                     `json:"header"`
	Body      map[polity.Category]string `json:"body"`
	Summaries []wiki.Summary             `json:"summaries"`
}

// Period renders the header sentence that pairs the selected year with the
// polity's whole existence interval.
func Period(p polity.Polity, year int) string {
	return fmt.Sprintf("Shown for %s (existence: %s to %s).",
		polity.FormatYear(year), polity.FormatYear(p.Interval.Start), polity.FormatYear(p.Interval.End))
}

// NewHeader builds the header for p at year. articleURL may be empty.
func NewHeader(p polity.Polity, year int, articleURL string) Header {
	return Header{
		RequestID:  uuid.NewString(),
		PolityID:   p.ID,
		Name:       p.Name,
		Year:       year,
		YearLabel:  polity.FormatYear(year),
		Period:     Period(p, year),
		ArticleURL: articleURL,
	}
}

// Aggregator fans the four category lookups out and joins them.
type Aggregator struct {
	fetcher Fetcher
}

func New(f Fetcher) *Aggregator {
	return &Aggregator{fetcher: f}
}

// Load is an in-flight detail load. Header is set before Begin returns.
type Load struct {
	Header Header

	done    chan struct{}
	details Details
}

// Done is closed once every category has resolved.
func (l *Load) Done() <-chan struct{} { return l.done }

// Wait blocks until every category has resolved and returns the result.
// There is no timeout beyond what ctx imposes on the individual lookups.
func (l *Load) Wait() Details {
	<-l.done
	return l.details
}

// Begin starts a load and returns immediately. The caller can render an
// interim state from the returned Load's Header.
func (a *Aggregator) Begin(ctx context.Context, p polity.Polity, year int) *Load {
	var articleURL string
	if linker, ok := a.fetcher.(ArticleLinker); ok {
		articleURL = linker.ArticleURL(p.ReferenceTitle)
	}

	l := &Load{
		Header: NewHeader(p, year, articleURL),
		done:   make(chan struct{}),
	}
	metrics.DetailLoadsTotal.Inc()
	utils.Log.Debugf("[details] %s: loading %s for %s", l.Header.RequestID, p.ID, l.Header.YearLabel)

	go a.run(ctx, p, l)
	return l
}

// LoadDetails is Begin followed by Wait.
func (a *Aggregator) LoadDetails(ctx context.Context, p polity.Polity, year int) Details {
	return a.Begin(ctx, p, year).Wait()
}

func (a *Aggregator) run(ctx context.Context, p polity.Polity, l *Load) {
	t0 := time.Now()
	summaries := make([]wiki.Summary, len(polity.Categories))

	var wg sync.WaitGroup
	for i, c := range polity.Categories {
		wg.Add(1)
		go func(i int, c polity.Category) {
			defer wg.Done()
			summaries[i] = a.fetcher.Lookup(ctx, p, c)
		}(i, c)
	}
	wg.Wait()

	body := make(map[polity.Category]string, len(summaries))
	for i, s := range summaries {
		body[polity.Categories[i]] = s.Text()
	}
	l.details = Details{Header: l.Header, Body: body, Summaries: summaries}

	metrics.DetailDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	utils.Log.Debugf("[details] %s: resolved %s in %s", l.Header.RequestID, p.ID, time.Since(t0).Round(time.Millisecond))
	close(l.done)
}
