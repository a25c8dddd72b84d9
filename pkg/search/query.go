package search

import (
	"strconv"
	"strings"

	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/query"
)

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// Query is a search request with its text already normalized.
type Query struct {
	// Raw is the text as typed by the user.
	Raw string

	// Text is Raw after query.Normalize. An empty Text never reaches a store.
	Text string

	// PrefixText is the prefix form of Text used by the fallback pass.
	PrefixText string

	Scope core.Scope

	// Offset is the index of the first record of the page.
	Offset int

	// Limit is the page size.
	Limit int

	// Language, when set, keeps only records whose name contains it.
	Language string

	// Pin is set by Continue once a page has been answered.
	Pin *Pin
}

// NewQuery normalizes raw and clamps offset and limit. A limit outside
// 1..MaxLimit falls back to defaultLimit.
func NewQuery(raw string, scope core.Scope, offset, limit, defaultLimit int, language string) Query {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > MaxLimit {
		limit = defaultLimit
	}

	text := query.Normalize(raw)
	return Query{
		Raw:        raw,
		Text:       text,
		PrefixText: query.Prefix(text),
		Scope:      scope,
		Offset:     offset,
		Limit:      limit,
		Language:   strings.ToLower(strings.TrimSpace(language)),
	}
}

// WithOffset returns a copy of q starting at offset.
func (q Query) WithOffset(offset int) Query {
	if offset < 0 {
		offset = 0
	}
	q.Offset = offset
	return q
}

// Continue returns q pinned to the partition and variant that produced res,
// so the next pages continue where the first one was found instead of
// re-running the cascade.
func (q Query) Continue(res *Result) Query {
	if res == nil || res.Source == nil {
		return q
	}
	q.Pin = &Pin{Partition: *res.Source, Variant: res.Variant}
	return q
}

// ParseParams parses HTTP query parameters into a Query. Parsing is lenient:
// missing or invalid values fall back to their defaults.
//
// Supported parameters:
//   - q: Search text
//   - scope: Partition name or "all" (unknown names select the default partition)
//   - offset: Index of the first result (non-negative integer, defaults to 0)
//   - limit: Results per page (1..MaxLimit, defaults to defaultLimit)
//   - lang: Language filter
//
// Example:
//
//	q := ParseParams(r.URL.Query(), 12)
func ParseParams(queryParams map[string][]string, defaultLimit int) Query {
	get := func(key string) string {
		if v := queryParams[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	offset, err := strconv.Atoi(get("offset"))
	if err != nil {
		offset = 0
	}
	limit, err := strconv.Atoi(get("limit"))
	if err != nil {
		limit = defaultLimit
	}

	return NewQuery(get("q"), core.ParseScope(get("scope")), offset, limit, defaultLimit, get("lang"))
}
