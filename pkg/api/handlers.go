package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/search"
	"github.com/JoneySinx/V2/pkg/version"
)

// sessionHeader optionally identifies the client a cursor is issued to.
const sessionHeader = "X-Session-ID"

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := search.ParseParams(r.URL.Query(), int(s.pageSize.Load()))

	// API requires a query parameter
	if q.Raw == "" {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'q' is required")
		return
	}

	cursor := ""
	if s.cursors != nil {
		cursor = search.NewCursorKey(r.Header.Get(sessionHeader))
	}
	s.runSearch(w, r, q, cursor)
}

// HandleSearchNext serves another page of a search started with HandleSearch.
// The cursor identifies the query; offset selects the page.
func (s *Server) HandleSearchNext(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	if cursor == "" || s.cursors == nil {
		s.writeError(w, http.StatusBadRequest, "Missing cursor", "Query parameter 'cursor' is required")
		return
	}

	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		s.writeError(w, http.StatusBadRequest, "Invalid offset", "Query parameter 'offset' must be a non-negative integer")
		return
	}

	q, err := s.cursors.Get(cursor)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.runSearch(w, r, q.WithOffset(offset), cursor)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, q search.Query, cursor string) {
	res, err := s.engine.Search(r.Context(), q)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	response := SearchResponse{
		Query:      q.Raw,
		Scope:      q.Scope.String(),
		Language:   q.Language,
		Results:    make([]FileResponse, len(res.Records)),
		Count:      len(res.Records),
		Total:      res.Total,
		Offset:     q.Offset,
		Limit:      q.Limit,
		NextOffset: res.NextOffset,
		HasMore:    res.HasMore(),
	}
	if res.Source != nil {
		response.Source = res.Source.String()
	}
	for i, record := range res.Records {
		response.Results[i] = s.fileResponse(record)
	}

	if res.HasMore() && cursor != "" {
		s.cursors.Put(cursor, q.Continue(res))
		response.Cursor = cursor
	}

	s.writeJSON(w, http.StatusOK, response)
}

// HandleFile returns one indexed record by id, looked up across partitions in
// priority order.
func (s *Server) HandleFile(w http.ResponseWriter, r *http.Request) {
	record, err := s.engine.Lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.fileResponse(record))
}

func (s *Server) fileResponse(record core.FileRecord) FileResponse {
	resp := FileResponse{
		ID:        record.ID,
		Name:      record.Name,
		Caption:   record.Caption,
		Size:      record.Size,
		Partition: record.Partition.String(),
	}
	if id, err := strconv.ParseInt(record.Locator, 10, 64); err == nil {
		resp.WatchURL = s.link("watch", id)
		resp.DownloadURL = s.link("download", id)
	}
	return resp
}

// link builds an absolute URL under the public base URL.
func (s *Server) link(kind string, id int64) string {
	u, err := url.JoinPath(s.publicURL, kind, strconv.FormatInt(id, 10))
	if err != nil {
		return fmt.Sprintf("/%s/%d", kind, id)
	}
	return u
}

func (s *Server) HandlePartitions(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	partitions := make([]PartitionResponse, len(stats.Partitions))
	for i, p := range stats.Partitions {
		partitions[i] = PartitionResponse{
			Name:     p.Partition.String(),
			Priority: i,
			Files:    p.Files,
		}
	}

	languages := s.engine.Options().Languages
	if languages == nil {
		languages = []string{}
	}

	s.writeJSON(w, http.StatusOK, ListPartitionsResponse{
		Partitions: partitions,
		Count:      len(partitions),
		Languages:  languages,
	})
}

func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to get stats", err.Error())
		return
	}

	response := StatsResponse{Stats: stats}
	if s.cursors != nil {
		response.Cursors = s.cursors.Len()
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
