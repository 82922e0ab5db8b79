package server

import (
	"context"
	"net/http"
	"time"

	"github.com/histmap/histmap/internal/metrics"
	"github.com/histmap/histmap/internal/utils"
	"github.com/histmap/histmap/pkg/catalog"
	"github.com/histmap/histmap/pkg/details"
)

type Server struct {
	Catalog     *catalog.Catalog
	Details     *details.Aggregator
	DefaultYear int
	// SourceName labels the knowledge source in the page footer.
	SourceName string

	mux *http.ServeMux
}

func New(c *catalog.Catalog, agg *details.Aggregator, defaultYear int, sourceName string) *Server {
	s := &Server{
		Catalog:     c,
		Details:     agg,
		DefaultYear: defaultYear,
		SourceName:  sourceName,
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Pages and htmx fragments
	s.handle("GET /{$}", s.handleIndex)
	s.handle("GET /timeline", s.handleTimeline)
	s.handle("GET /panel/{id}", s.handlePanel)
	s.handle("GET /panel/{id}/body", s.handlePanelBody)

	// API Group
	s.handle("GET /api/polities", s.handlePolities)
	s.handle("GET /api/polities/{id}", s.handlePolity)
	s.handle("GET /api/polities/{id}/details", s.handleDetails)
	s.handle("GET /api/locate", s.handleLocate)
	s.handle("GET /api/health", s.handleHealth)
	s.handle("OPTIONS /api/", s.handlePreflight)

	s.mux.Handle("GET /metrics", metrics.Handler())
}

// handle registers h and counts its requests under the route pattern.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsTotal.WithLabelValues(pattern).Inc()
		h(w, r)
	})
}

func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		utils.Log.Infof("Starting server on %s (%d polities)", addr, s.Catalog.Len())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		utils.Log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
