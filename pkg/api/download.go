package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/google/uuid"

	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/metrics"
	"github.com/JoneySinx/V2/pkg/remote"
	"github.com/JoneySinx/V2/pkg/stream"
)

func parseObjectID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("object id %q: %w", raw, core.ErrInvalidInput)
	}
	return id, nil
}

// displayName is the filename a download is offered as. Objects without one
// get a random name.
func displayName(info remote.ObjectInfo) string {
	if info.Filename != "" {
		return info.Filename
	}
	return uuid.NewString()[:8] + ".jpg"
}

func contentType(info remote.ObjectInfo, filename string) string {
	if info.MimeType != "" {
		return info.MimeType
	}
	if t := mime.TypeByExtension(path.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func contentDisposition(filename string) string {
	encoded := url.PathEscape(filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, encoded, encoded)
}

// HandleDownload streams an object, honouring a single byte range. HEAD
// requests get the headers only.
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
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

	iv, err := stream.ParseRange(r.Header.Get("Range"), info.Size)
	if err != nil {
		w.Header().Set("Content-Range", stream.UnsatisfiedRange(info.Size))
		metrics.RecordDownload(http.StatusRequestedRangeNotSatisfiable, 0)
		http.Error(w, "416: Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	plan, err := stream.NewPlan(iv, info.ChunkSize)
	if err != nil {
		s.writePlainError(w, err)
		return
	}

	filename := displayName(info)
	h := w.Header()
	h.Set("Content-Type", contentType(info, filename))
	h.Set("Content-Disposition", contentDisposition(filename))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Length", strconv.FormatInt(iv.Length(), 10))

	status := http.StatusOK
	if iv.Partial {
		status = http.StatusPartialContent
		h.Set("Content-Range", iv.ContentRange(info.Size))
	}
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		metrics.RecordDownload(status, 0)
		return
	}

	body := stream.NewBody(r.Context(), s.transport, info.Locator, plan, stream.WithFetchTimeout(s.chunkTimeout))
	defer body.Close()

	n, err := body.WriteTo(w)
	metrics.RecordDownload(status, n)
	switch {
	case err == nil:
		logger.Debugf("sent %d bytes of object %d", n, id)
	case errors.Is(err, context.Canceled):
		logger.Debugf("client left after %d bytes of object %d", n, id)
	default:
		// Headers are gone; all that is left is to cut the response short.
		logger.Warnf("streaming object %d stopped after %d bytes: %v", id, n, err)
	}
}

// writePlainError answers a page or download request that failed with err.
func (s *Server) writePlainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
	}

	text := http.StatusText(status)
	switch status {
	case http.StatusBadRequest:
		text = "Invalid object id"
	case http.StatusNotFound:
		text = "File not found"
	}
	http.Error(w, text, status)
}
