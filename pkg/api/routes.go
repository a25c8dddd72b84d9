package api

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"github.com/JoneySinx/V2/pkg/metrics"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// JSON API, compressed. GET patterns also match HEAD.
	mux.Handle("GET /api/search", gzhttp.GzipHandler(http.HandlerFunc(s.HandleSearch)))
	mux.Handle("GET /api/search/next", gzhttp.GzipHandler(http.HandlerFunc(s.HandleSearchNext)))
	mux.Handle("GET /api/files/{id}", gzhttp.GzipHandler(http.HandlerFunc(s.HandleFile)))
	mux.Handle("GET /api/partitions", gzhttp.GzipHandler(http.HandlerFunc(s.HandlePartitions)))
	mux.Handle("GET /api/stats", gzhttp.GzipHandler(http.HandlerFunc(s.HandleStats)))
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	// Pages and downloads
	mux.HandleFunc("GET /{$}", s.HandleIndex)
	mux.HandleFunc("GET /watch/{id}", s.HandleWatch)
	mux.HandleFunc("GET /download/{id}", s.HandleDownload)
}

// Handler returns every route wrapped in the CORS and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return metrics.Middleware(CorsMiddleware(mux))
}
