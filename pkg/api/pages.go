package api

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/a-h/templ"
)

// WatchData is rendered by the playback pages.
type WatchData struct {
	Filename string
	MimeType string
	Source   string
}

// vlcURL hands a download URL to VLC through its URL scheme.
func vlcURL(source string) templ.SafeURL {
	return templ.SafeURL("vlc://" + string(templ.URL(source)))
}

//go:generate templ generate

func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, IndexPage())
}

// HandleWatch renders the playback page of an object.
func (s *Server) HandleWatch(w http.ResponseWriter, r *http.Request) {
	id, err := parseObjectID(r)
	if err != nil {
		s.writePlainError(w, err)
		return
	}

	info, err := s.transport.Resolve(r.Context(), id)
	if err != nil {
		s.writePlainError(w, err)
		return
	}

	d := WatchData{
		Filename: info.Filename,
		MimeType: info.MimeType,
		Source:   s.link("download", id),
	}
	if d.MimeType == "" {
		d.MimeType = mime.TypeByExtension(path.Ext(d.Filename))
	}
	if d.MimeType == "" {
		d.MimeType = "video/mp4"
	}
	if d.Filename == "" {
		d.Filename = "Unknown Video"
	}

	if strings.HasPrefix(d.MimeType, "video/") {
		s.render(w, r, WatchPage(d))
		return
	}
	s.render(w, r, NotStreamablePage(d))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		logger.Warnf("rendering %s: %v", r.URL.Path, err)
	}
}
