// Package stream turns HTTP byte range requests into reads of a remote object
// that can only be fetched in fixed size chunks addressed by index.
package stream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JoneySinx/V2/pkg/core"
)

// Interval is an inclusive byte range of an object. Partial is set when the
// interval came from a Range header.
type Interval struct {
	Start   int64
	End     int64
	Partial bool
}

// Length is the number of bytes in the interval. Empty objects have length 0.
func (iv Interval) Length() int64 {
	if iv.End < iv.Start {
		return 0
	}
	return iv.End - iv.Start + 1
}

// ContentRange renders the Content-Range value for a satisfied request.
func (iv Interval) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", iv.Start, iv.End, size)
}

// UnsatisfiedRange renders the Content-Range value sent with a 416 response.
func UnsatisfiedRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// ParseRange parses a Range header against an object of size bytes. An empty
// header selects the whole object. Only the single range form
// "bytes=<start>-[<end>]" is accepted; an omitted end means the last byte.
// Ranges are never clamped: an end past the object, a negative start or an
// end before the start fail with core.ErrRangeNotSatisfiable, as do suffix
// ranges, multiple ranges and anything unparsable.
func ParseRange(header string, size int64) (Interval, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Interval{Start: 0, End: size - 1}, nil
	}

	byteRange, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(byteRange, ",") {
		return Interval{}, malformed(header)
	}

	startStr, endStr, ok := strings.Cut(strings.TrimSpace(byteRange), "-")
	if !ok || !isDigits(startStr) {
		return Interval{}, malformed(header)
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return Interval{}, malformed(header)
	}

	end := size - 1
	if endStr != "" {
		if !isDigits(endStr) {
			return Interval{}, malformed(header)
		}
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return Interval{}, malformed(header)
		}
	}

	if start < 0 || end < start || end >= size {
		return Interval{}, fmt.Errorf("range %d-%d of %d bytes: %w", start, end, size, core.ErrRangeNotSatisfiable)
	}

	return Interval{Start: start, End: end, Partial: true}, nil
}

func malformed(header string) error {
	return fmt.Errorf("malformed range %q: %w: %w", header, core.ErrRangeNotSatisfiable, core.ErrInvalidInput)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
