package stream

import (
	"fmt"

	"github.com/JoneySinx/V2/pkg/core"
)

// Plan is the sequence of chunk reads covering an Interval. Reading
// ChunkCount chunks starting at FirstChunk, dropping LeadingTrim bytes from
// the first and keeping TrailingKeep bytes of the last, yields exactly the
// bytes of the interval. Offsets within the last chunk are counted from the
// start of that chunk, so a single chunk plan keeps bytes
// [LeadingTrim, TrailingKeep).
type Plan struct {
	FirstChunk   int64
	LeadingTrim  int64
	TrailingKeep int64
	ChunkCount   int64
	ChunkSize    int64
}

// NewPlan computes the chunk reads for iv. An empty interval plans no reads.
func NewPlan(iv Interval, chunkSize int64) (Plan, error) {
	if chunkSize <= 0 {
		return Plan{}, fmt.Errorf("chunk size %d: %w", chunkSize, core.ErrInvalidInput)
	}
	if iv.Start < 0 {
		return Plan{}, fmt.Errorf("range start %d: %w", iv.Start, core.ErrInvalidInput)
	}
	if iv.Length() == 0 {
		return Plan{ChunkSize: chunkSize}, nil
	}

	aligned := iv.Start - iv.Start%chunkSize
	return Plan{
		FirstChunk:   aligned / chunkSize,
		LeadingTrim:  iv.Start - aligned,
		TrailingKeep: iv.End%chunkSize + 1,
		ChunkCount:   iv.End/chunkSize - iv.Start/chunkSize + 1,
		ChunkSize:    chunkSize,
	}, nil
}

// Length is the number of bytes the plan yields when every chunk is full.
func (p Plan) Length() int64 {
	switch p.ChunkCount {
	case 0:
		return 0
	case 1:
		return p.TrailingKeep - p.LeadingTrim
	default:
		return (p.ChunkSize - p.LeadingTrim) + (p.ChunkCount-2)*p.ChunkSize + p.TrailingKeep
	}
}
