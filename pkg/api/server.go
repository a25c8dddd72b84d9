package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/log"
	"github.com/JoneySinx/V2/pkg/remote"
	"github.com/JoneySinx/V2/pkg/search"
)

var logger = log.ForService("web")

// Options configure a Server.
type Options struct {
	// PageSize is the default number of results per search page.
	PageSize int

	// ChunkTimeout bounds every remote chunk fetch of a download.
	ChunkTimeout time.Duration

	// PublicURL is the base URL download links are built from.
	PublicURL string
}

type Server struct {
	engine    *search.Engine
	cursors   *search.CursorCache
	transport remote.Transport

	pageSize     atomic.Int64
	chunkTimeout time.Duration
	publicURL    string
}

func NewServer(engine *search.Engine, cursors *search.CursorCache, transport remote.Transport, opts Options) *Server {
	s := &Server{
		engine:       engine,
		cursors:      cursors,
		transport:    transport,
		chunkTimeout: opts.ChunkTimeout,
		publicURL:    opts.PublicURL,
	}
	s.SetPageSize(opts.PageSize)
	return s
}

// SetPageSize changes the default page size of subsequent searches.
func (s *Server) SetPageSize(n int) {
	if n <= 0 {
		n = 12
	}
	s.pageSize.Store(int64(n))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warnf("Error encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

// writeFailure answers a JSON request that failed with err.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
	}
	s.writeError(w, status, http.StatusText(status), err.Error())
}

// statusFor maps an error onto the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrRangeNotSatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrCursorExpired):
		return http.StatusGone
	case errors.Is(err, core.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range, X-Session-ID")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Range, Content-Length, Accept-Ranges")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
