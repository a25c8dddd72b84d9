// Package search runs cascading full text searches over the partition stores.
//
// A search targets either a single partition or every partition. When it
// targets every partition the partitions are tried in priority order (primary,
// cloud, archive) and the first partition returning results answers the whole
// search; results are never merged across partitions. When an exact search of
// the first page finds nothing, the same cascade is repeated with a prefix
// query built from the leading characters of each query word.
//
// Pagination is offset based. A Result carries the offset of the next page, or
// an empty string when the current page is the last. CursorCache remembers the
// query behind a page so a client can ask for the next page with an opaque
// cursor instead of resending the query.
package search
