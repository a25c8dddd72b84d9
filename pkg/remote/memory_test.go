package remote

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/stream"
)

func TestMemoryTransport(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryTransport(4)
	m.Put(7, "clip.mp4", "video/mp4", []byte("0123456789"))

	info, err := m.Resolve(ctx, 7)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.Size != 10 || info.ChunkSize != 4 || info.Filename != "clip.mp4" || info.MimeType != "video/mp4" {
		t.Errorf("info = %+v", info)
	}

	tests := []struct {
		index int64
		want  string
	}{
		{0, "0123"},
		{1, "4567"},
		{2, "89"},
	}
	for _, tt := range tests {
		got, err := m.FetchChunk(ctx, info.Locator, tt.index)
		if err != nil {
			t.Fatalf("FetchChunk(%d) failed: %v", tt.index, err)
		}
		if string(got) != tt.want {
			t.Errorf("FetchChunk(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}

	if _, err := m.FetchChunk(ctx, info.Locator, 3); !errors.Is(err, core.ErrEndOfData) {
		t.Errorf("expected ErrEndOfData, got %v", err)
	}
	if _, err := m.Resolve(ctx, 8); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.FetchChunk(ctx, "nope", 0); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMemoryTransportCopiesData(t *testing.T) {
	data := []byte("abcdef")
	m := NewMemoryTransport(8)
	m.Put(1, "", "", data)
	data[0] = 'X'

	got, err := m.FetchChunk(context.Background(), "1", 0)
	if err != nil {
		t.Fatalf("FetchChunk failed: %v", err)
	}
	if string(got) != "abcdef" {
		t.Errorf("stored data was mutated: %q", got)
	}
}

func TestMemoryTransportStreamsRanges(t *testing.T) {
	ctx := context.Background()
	data := bytes.Repeat([]byte("finder"), 1000)
	m := NewMemoryTransport(64)
	m.Put(3, "x.mkv", "", data)

	info, err := m.Resolve(ctx, 3)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	iv, err := stream.ParseRange("bytes=100-4000", info.Size)
	if err != nil {
		t.Fatalf("ParseRange failed: %v", err)
	}
	plan, err := stream.NewPlan(iv, info.ChunkSize)
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}

	var buf bytes.Buffer
	if _, err := stream.NewBody(ctx, m, info.Locator, plan).WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), data[100:4001]) {
		t.Error("streamed range differs from the stored object")
	}
}

func TestMemoryTransportUpload(t *testing.T) {
	ctx := context.Background()
	limited := NewRateLimited(NewMemoryTransport(4), 1000, 1)

	up, ok := AsUploader(limited)
	if !ok {
		t.Fatal("expected the memory transport behind the limiter to accept uploads")
	}
	if err := up.Upload(ctx, 9, "clip.png", "image/png", strings.NewReader("0123456789"), 10); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	info, err := limited.Resolve(ctx, 9)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.Size != 10 || info.Filename != "clip.png" || info.MimeType != "image/png" {
		t.Errorf("unexpected object info: %+v", info)
	}

	err = up.Upload(ctx, 10, "", "", strings.NewReader("short"), 10)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for a size mismatch, got %v", err)
	}
}

func TestAsUploaderWithoutUploader(t *testing.T) {
	if _, ok := AsUploader(readOnlyTransport{}); ok {
		t.Error("expected a read-only transport to be rejected")
	}
}

type readOnlyTransport struct{}

func (readOnlyTransport) Resolve(context.Context, int64) (ObjectInfo, error) {
	return ObjectInfo{}, core.ErrNotFound
}

func (readOnlyTransport) FetchChunk(context.Context, string, int64) ([]byte, error) {
	return nil, core.ErrEndOfData
}
