// Package remote provides the chunk sources media objects are streamed from.
package remote

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JoneySinx/V2/pkg/config"
	"github.com/JoneySinx/V2/pkg/log"
)

var logger = log.ForService("remote")

// ObjectInfo describes a resolved remote object.
type ObjectInfo struct {
	ID        int64
	Size      int64
	ChunkSize int64

	// Filename and MimeType are empty when the source does not know them.
	Filename string
	MimeType string

	// Locator is passed back to FetchChunk.
	Locator string
}

// Transport resolves object ids and fetches objects in fixed size chunks.
// FetchChunk returns core.ErrEndOfData for a chunk past the end of the
// object.
type Transport interface {
	Resolve(ctx context.Context, id int64) (ObjectInfo, error)
	FetchChunk(ctx context.Context, locator string, index int64) ([]byte, error)
}

// Uploader is implemented by transports that can store new objects.
type Uploader interface {
	Upload(ctx context.Context, id int64, filename, contentType string, r io.Reader, size int64) error
}

// AsUploader returns the Uploader behind t, looking through wrappers that
// expose Unwrap.
func AsUploader(t Transport) (Uploader, bool) {
	for t != nil {
		if u, ok := t.(Uploader); ok {
			return u, true
		}
		w, ok := t.(interface{ Unwrap() Transport })
		if !ok {
			return nil, false
		}
		t = w.Unwrap()
	}
	return nil, false
}

// New builds the transport described by cfg, rate limited when configured.
func New(cfg config.RemoteConfig) (Transport, error) {
	var t Transport
	switch cfg.Kind {
	case "memory":
		t = NewMemoryTransport(cfg.ChunkSize)
	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating minio client: %w", err)
		}
		t = NewMinioTransport(client, cfg.Bucket, cfg.Prefix, cfg.ChunkSize)
	default:
		return nil, fmt.Errorf("unknown remote kind %q", cfg.Kind)
	}

	logger.Debugf("using %s transport (chunk size %d)", cfg.Kind, cfg.ChunkSize)
	return NewRateLimited(t, cfg.RequestsPerSecond, cfg.Burst), nil
}
