package api

import (
	"time"

	"github.com/JoneySinx/V2/pkg/search"
)

type FileResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Caption     string `json:"caption,omitempty"`
	Size        int64  `json:"size"`
	Partition   string `json:"partition"`
	WatchURL    string `json:"watch_url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

type SearchResponse struct {
	Query      string         `json:"query"`
	Scope      string         `json:"scope"`
	Language   string         `json:"lang,omitempty"`
	Results    []FileResponse `json:"results"`
	Count      int            `json:"count"`
	Total      int            `json:"total"`
	Offset     int            `json:"offset"`
	Limit      int            `json:"limit"`
	NextOffset string         `json:"next_offset"`
	HasMore    bool           `json:"has_more"`
	Source     string         `json:"source,omitempty"`
	Cursor     string         `json:"cursor,omitempty"`
}

type PartitionResponse struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Files    int    `json:"files"`
}

type ListPartitionsResponse struct {
	Partitions []PartitionResponse `json:"partitions"`
	Count      int                 `json:"count"`
	Languages  []string            `json:"languages"`
}

type StatsResponse struct {
	*search.Stats
	Cursors int `json:"cursors"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
