package remote

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/JoneySinx/V2/pkg/core"
)

type memoryObject struct {
	data     []byte
	filename string
	mimeType string
}

// MemoryTransport keeps objects in memory. Thread-safe for concurrent reads
// and writes.
type MemoryTransport struct {
	mu        sync.RWMutex
	objects   map[int64]memoryObject
	chunkSize int64
}

func NewMemoryTransport(chunkSize int64) *MemoryTransport {
	return &MemoryTransport{
		objects:   make(map[int64]memoryObject),
		chunkSize: chunkSize,
	}
}

// Put stores a copy of data under id.
func (m *MemoryTransport) Put(id int64, filename, mimeType string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	m.objects[id] = memoryObject{data: copied, filename: filename, mimeType: mimeType}
}

// Upload reads r fully and stores it under id. size is only checked when
// positive.
func (m *MemoryTransport) Upload(ctx context.Context, id int64, filename, contentType string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading object %d: %w", id, err)
	}
	if size > 0 && int64(len(data)) != size {
		return fmt.Errorf("object %d: read %d bytes, expected %d: %w", id, len(data), size, core.ErrInvalidInput)
	}
	m.Put(id, filename, contentType, data)
	return nil
}

func (m *MemoryTransport) Resolve(_ context.Context, id int64) (ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[id]
	if !ok {
		return ObjectInfo{}, fmt.Errorf("object %d: %w", id, core.ErrNotFound)
	}

	return ObjectInfo{
		ID:        id,
		Size:      int64(len(obj.data)),
		ChunkSize: m.chunkSize,
		Filename:  obj.filename,
		MimeType:  obj.mimeType,
		Locator:   strconv.FormatInt(id, 10),
	}, nil
}

func (m *MemoryTransport) FetchChunk(ctx context.Context, locator string, index int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(locator, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("locator %q: %w", locator, core.ErrInvalidInput)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %d: %w", id, core.ErrNotFound)
	}

	start := index * m.chunkSize
	if index < 0 || start >= int64(len(obj.data)) {
		return nil, core.ErrEndOfData
	}
	end := min(start+m.chunkSize, int64(len(obj.data)))

	// Return a copy to prevent external mutation
	chunk := make([]byte, end-start)
	copy(chunk, obj.data[start:end])
	return chunk, nil
}
