package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/log"
	"github.com/JoneySinx/V2/pkg/metrics"
)

var logger = log.ForService("stream")

// ChunkSource fetches fixed size chunks of a remote object by index. A chunk
// past the end of the object yields core.ErrEndOfData.
type ChunkSource interface {
	FetchChunk(ctx context.Context, locator string, index int64) ([]byte, error)
}

// Body produces the bytes of a Plan chunk by chunk. It is consumed once.
type Body struct {
	ctx          context.Context
	src          ChunkSource
	locator      string
	plan         Plan
	fetchTimeout time.Duration

	next int64
	done bool
}

// BodyOption configures a Body created by NewBody.
type BodyOption func(*Body)

// WithFetchTimeout bounds every chunk fetch.
func WithFetchTimeout(d time.Duration) BodyOption {
	return func(b *Body) {
		b.fetchTimeout = d
	}
}

// NewBody returns a body reading plan from src. Cancelling ctx stops it
// before the next fetch.
func NewBody(ctx context.Context, src ChunkSource, locator string, plan Plan, opts ...BodyOption) *Body {
	b := &Body{
		ctx:     ctx,
		src:     src,
		locator: locator,
		plan:    plan,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Next returns the next trimmed chunk, or io.EOF once the plan is exhausted
// or the source reports the end of the object.
func (b *Body) Next() ([]byte, error) {
	if b.done || b.next >= b.plan.ChunkCount {
		b.done = true
		return nil, io.EOF
	}
	if err := b.ctx.Err(); err != nil {
		b.done = true
		return nil, err
	}

	i := b.next
	buf, err := b.fetch(b.plan.FirstChunk + i)
	if errors.Is(err, core.ErrEndOfData) {
		logger.Debugf("%s ended at chunk %d", b.locator, b.plan.FirstChunk+i)
		b.done = true
		return nil, io.EOF
	}
	if err != nil {
		b.done = true
		return nil, err
	}
	b.next++

	end := int64(len(buf))
	if i == b.plan.ChunkCount-1 {
		end = min(end, b.plan.TrailingKeep)
	}
	start := int64(0)
	if i == 0 {
		start = min(b.plan.LeadingTrim, end)
	}
	return buf[start:end], nil
}

func (b *Body) fetch(index int64) ([]byte, error) {
	ctx := b.ctx
	if b.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	buf, err := b.src.FetchChunk(ctx, b.locator, index)
	metrics.RecordChunkFetch(time.Since(start), err)
	if err != nil && !errors.Is(err, core.ErrEndOfData) {
		if errors.Is(err, context.DeadlineExceeded) && b.ctx.Err() == nil {
			return nil, fmt.Errorf("fetching chunk %d of %s: %w: %w", index, b.locator, core.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("fetching chunk %d of %s: %w", index, b.locator, err)
	}
	return buf, err
}

// WriteTo writes every remaining chunk to w, flushing after each one when w
// supports it. It stops at the first fetch or write error.
func (b *Body) WriteTo(w io.Writer) (int64, error) {
	flusher, _ := w.(http.Flusher)

	var written int64
	for {
		buf, err := b.Next()
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}

		n, err := w.Write(buf)
		written += int64(n)
		if err != nil {
			b.done = true
			return written, fmt.Errorf("writing chunk: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// Close stops the body; later calls to Next return io.EOF.
func (b *Body) Close() error {
	b.done = true
	return nil
}
