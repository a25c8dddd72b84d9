package search

import (
	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/storage"
)

// Variant is the kind of text query an attempt runs.
type Variant int

const (
	Exact Variant = iota
	Prefix
)

func (v Variant) String() string {
	if v == Prefix {
		return "prefix"
	}
	return "exact"
}

// Attempt is one store query of a cascade.
type Attempt struct {
	Variant   Variant
	Partition core.Partition
	Text      storage.TextQuery
	Offset    int
	Limit     int
}

// Pin fixes the partition and variant that answered the first page of a
// search. Later pages of a pinned query are read from that attempt only.
type Pin struct {
	Partition core.Partition
	Variant   Variant
}

// Plan lists the attempts for q in the order they are tried. Exact attempts
// come first, one per partition of the scope in priority order. Prefix
// attempts follow in the same partition order, but only for the first page
// and only when the prefix text is not empty. A pinned query plans its
// single pinned attempt at q.Offset. An empty query plans nothing.
func Plan(q Query) []Attempt {
	if q.Text == "" {
		return nil
	}

	if q.Pin != nil {
		if q.Pin.Variant == Prefix && q.PrefixText == "" {
			return nil
		}
		return []Attempt{q.attempt(q.Pin.Variant, q.Pin.Partition)}
	}

	partitions := q.Scope.Partitions()
	attempts := make([]Attempt, 0, 2*len(partitions))
	for _, p := range partitions {
		attempts = append(attempts, q.attempt(Exact, p))
	}

	if q.Offset != 0 || q.PrefixText == "" {
		return attempts
	}

	for _, p := range partitions {
		attempts = append(attempts, q.attempt(Prefix, p))
	}
	return attempts
}

func (q Query) attempt(v Variant, p core.Partition) Attempt {
	text := storage.TextQuery{Text: q.Text}
	if v == Prefix {
		text = storage.TextQuery{Text: q.PrefixText, Prefix: true}
	}
	return Attempt{
		Variant:   v,
		Partition: p,
		Text:      text,
		Offset:    q.Offset,
		Limit:     q.Limit,
	}
}

// stages splits attempts into runs of the same variant, keeping order.
func stages(attempts []Attempt) [][]Attempt {
	var out [][]Attempt
	for i := 0; i < len(attempts); {
		j := i
		for j < len(attempts) && attempts[j].Variant == attempts[i].Variant {
			j++
		}
		out = append(out, attempts[i:j])
		i = j
	}
	return out
}
