package stream

import (
	"errors"
	"testing"

	"github.com/JoneySinx/V2/pkg/core"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		size    int64
		want    Interval
		wantErr bool
	}{
		{name: "no header", header: "", size: 100, want: Interval{Start: 0, End: 99}},
		{name: "no header empty object", header: "", size: 0, want: Interval{Start: 0, End: -1}},
		{name: "open end", header: "bytes=0-", size: 100, want: Interval{Start: 0, End: 99, Partial: true}},
		{name: "closed", header: "bytes=10-19", size: 100, want: Interval{Start: 10, End: 19, Partial: true}},
		{name: "single byte", header: "bytes=99-99", size: 100, want: Interval{Start: 99, End: 99, Partial: true}},
		{name: "last byte open", header: "bytes=99-", size: 100, want: Interval{Start: 99, End: 99, Partial: true}},
		{name: "surrounding space", header: "  bytes=1-2 ", size: 100, want: Interval{Start: 1, End: 2, Partial: true}},
		{name: "end past size", header: "bytes=150-200", size: 100, wantErr: true},
		{name: "end equals size", header: "bytes=0-100", size: 100, wantErr: true},
		{name: "start past size", header: "bytes=100-", size: 100, wantErr: true},
		{name: "end before start", header: "bytes=20-10", size: 100, wantErr: true},
		{name: "suffix", header: "bytes=-10", size: 100, wantErr: true},
		{name: "multi range", header: "bytes=0-1,5-6", size: 100, wantErr: true},
		{name: "wrong unit", header: "items=0-1", size: 100, wantErr: true},
		{name: "garbage", header: "bytes=a-b", size: 100, wantErr: true},
		{name: "signed", header: "bytes=+1-5", size: 100, wantErr: true},
		{name: "no dash", header: "bytes=5", size: 100, wantErr: true},
		{name: "empty object", header: "bytes=0-", size: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)
			if tt.wantErr {
				if !errors.Is(err, core.ErrRangeNotSatisfiable) {
					t.Fatalf("expected ErrRangeNotSatisfiable, got %v (%+v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseRange(%q, %d) = %+v, want %+v", tt.header, tt.size, got, tt.want)
			}
		})
	}
}

func TestRangeHeaders(t *testing.T) {
	iv := Interval{Start: 0, End: 99, Partial: true}
	if got := iv.ContentRange(100); got != "bytes 0-99/100" {
		t.Errorf("ContentRange = %q", got)
	}
	if got := UnsatisfiedRange(100); got != "bytes */100" {
		t.Errorf("UnsatisfiedRange = %q", got)
	}
	if iv.Length() != 100 {
		t.Errorf("Length = %d", iv.Length())
	}
	if (Interval{Start: 0, End: -1}).Length() != 0 {
		t.Error("empty interval should have length 0")
	}
}
