package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/minio/minio-go/v7"

	"github.com/JoneySinx/V2/pkg/core"
)

// filenameMeta is the user metadata key holding an object's display name.
const filenameMeta = "Filename"

// MinioTransport reads objects from MinIO or any S3 compatible store. Object
// ids map to keys under prefix; chunks are fetched with ranged GETs.
type MinioTransport struct {
	client    *minio.Client
	bucket    string
	prefix    string
	chunkSize int64
}

func NewMinioTransport(client *minio.Client, bucket, prefix string, chunkSize int64) *MinioTransport {
	return &MinioTransport{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		chunkSize: chunkSize,
	}
}

func (s *MinioTransport) key(id int64) string {
	return path.Join(s.prefix, strconv.FormatInt(id, 10))
}

func (s *MinioTransport) Resolve(ctx context.Context, id int64) (ObjectInfo, error) {
	key := s.key(id)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, classify(fmt.Sprintf("stat %s", key), err)
	}

	mimeType := info.ContentType
	if mimeType == "application/octet-stream" || mimeType == "binary/octet-stream" {
		mimeType = ""
	}

	return ObjectInfo{
		ID:        id,
		Size:      info.Size,
		ChunkSize: s.chunkSize,
		Filename:  info.UserMetadata[filenameMeta],
		MimeType:  mimeType,
		Locator:   key,
	}, nil
}

func (s *MinioTransport) FetchChunk(ctx context.Context, locator string, index int64) ([]byte, error) {
	if index < 0 {
		return nil, core.ErrEndOfData
	}

	off := index * s.chunkSize
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, off+s.chunkSize-1); err != nil {
		return nil, fmt.Errorf("chunk %d of %s: %w", index, locator, core.ErrInvalidInput)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, locator, opts)
	if err != nil {
		return nil, classify(fmt.Sprintf("get %s", locator), err)
	}
	defer func() {
		if err := obj.Close(); err != nil {
			logger.Warnf("failed to close %s: %v", locator, err)
		}
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "InvalidRange" {
			return nil, core.ErrEndOfData
		}
		return nil, classify(fmt.Sprintf("reading chunk %d of %s", index, locator), err)
	}
	if len(data) == 0 {
		return nil, core.ErrEndOfData
	}
	return data, nil
}

// Upload stores r under id, recording filename as object metadata.
func (s *MinioTransport) Upload(ctx context.Context, id int64, filename, contentType string, r io.Reader, size int64) error {
	key := s.key(id)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{filenameMeta: filename},
	})
	if err != nil {
		return classify(fmt.Sprintf("put %s", key), err)
	}
	return nil
}

// classify maps client errors onto the core error taxonomy.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, core.ErrUpstreamTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	}

	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrUpstreamUnavailable, err)
}
