package core

import (
	"fmt"
	"strings"
)

// Partition identifies one of the independently searchable, independently
// deletable stores. The set is fixed; Partitions lists it in search priority
// order.
type Partition int

const (
	Primary Partition = iota
	Cloud
	Archive
)

// Partitions is the cascade order used when a search targets every partition.
var Partitions = []Partition{Primary, Cloud, Archive}

// DefaultPartition is used when a scope is empty or unknown.
const DefaultPartition = Primary

func (p Partition) String() string {
	switch p {
	case Primary:
		return "primary"
	case Cloud:
		return "cloud"
	case Archive:
		return "archive"
	default:
		return "unknown"
	}
}

// ParsePartition maps a partition name to its identifier.
func ParsePartition(name string) (Partition, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "primary":
		return Primary, true
	case "cloud":
		return Cloud, true
	case "archive", "archives":
		return Archive, true
	}
	return DefaultPartition, false
}

// ScopeAll is the scope name selecting every partition.
const ScopeAll = "all"

// Scope selects the partitions a search or delete operates on.
type Scope struct {
	All       bool
	Partition Partition
}

// ParseScope never fails: an empty or unknown name selects the default
// partition.
func ParseScope(name string) Scope {
	if s, ok := LookupScope(name); ok {
		return s
	}
	return Scope{Partition: DefaultPartition}
}

// LookupScope is the strict variant of ParseScope, used where falling back to
// the default partition would be destructive.
func LookupScope(name string) (Scope, bool) {
	if strings.EqualFold(strings.TrimSpace(name), ScopeAll) {
		return Scope{All: true}, true
	}
	p, ok := ParsePartition(name)
	if !ok {
		return Scope{}, false
	}
	return Scope{Partition: p}, true
}

// Partitions returns the partitions covered by the scope in priority order.
func (s Scope) Partitions() []Partition {
	if s.All {
		out := make([]Partition, len(Partitions))
		copy(out, Partitions)
		return out
	}
	return []Partition{s.Partition}
}

func (s Scope) String() string {
	if s.All {
		return ScopeAll
	}
	return s.Partition.String()
}

func (p Partition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Partition) UnmarshalText(text []byte) error {
	parsed, ok := ParsePartition(string(text))
	if !ok {
		return fmt.Errorf("partition %q: %w", text, ErrInvalidInput)
	}
	*p = parsed
	return nil
}
