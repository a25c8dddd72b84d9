package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/log"
	"github.com/JoneySinx/V2/pkg/metrics"
	"github.com/JoneySinx/V2/pkg/query"
	"github.com/JoneySinx/V2/pkg/storage"
)

var logger = log.ForService("search")

// Store is the document store of a single partition.
type Store interface {
	Search(ctx context.Context, q storage.TextQuery, offset, limit int) ([]core.FileRecord, int, error)
	Delete(ctx context.Context, q storage.TextQuery) (int64, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string) (core.FileRecord, error)
}

// StoreFunc returns the store backing a partition.
type StoreFunc func(core.Partition) (Store, error)

// FromManager adapts a storage manager to a StoreFunc.
func FromManager(m *storage.Manager) StoreFunc {
	return func(p core.Partition) (Store, error) {
		s, err := m.Store(p)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Options are the engine tunables. They can be swapped at runtime with
// SetOptions.
type Options struct {
	// Concurrent runs the attempts of a cascade stage in parallel. The
	// partition with the highest priority that has results still wins.
	Concurrent bool

	// Timeout bounds every store call. Zero means no bound.
	Timeout time.Duration

	// Languages restricts the accepted language filters. Empty accepts any.
	Languages []string
}

// Result is one page of a search.
type Result struct {
	Records []core.FileRecord `json:"results"`

	// Total is the number of matches in Source, or the number of records kept
	// by the language filter when one was applied.
	Total int `json:"total"`

	// NextOffset is the offset of the next page, or "" on the last page.
	NextOffset string `json:"next_offset"`

	// Source is the partition that answered. Nil when nothing matched.
	Source *core.Partition `json:"source,omitempty"`

	Variant Variant `json:"-"`
}

// HasMore reports whether another page exists.
func (r *Result) HasMore() bool {
	return r.NextOffset != ""
}

// Engine runs cascading searches over the partition stores.
type Engine struct {
	stores StoreFunc

	mu   sync.RWMutex
	opts Options
}

// NewEngine returns an engine searching the partitions resolved by stores.
func NewEngine(stores StoreFunc, opts Options) *Engine {
	return &Engine{stores: stores, opts: opts}
}

// Options returns the tunables currently in effect.
func (e *Engine) Options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opts
}

// SetOptions replaces the tunables used by subsequent searches.
func (e *Engine) SetOptions(opts Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts
}

// outcome is the answer of a single attempt.
type outcome struct {
	attempt Attempt
	records []core.FileRecord
	total   int
}

// Search runs the cascade planned for q and returns the first non-empty
// page. Store failures and timeouts are logged and counted, then treated as
// an empty partition; Search only fails for an unsupported language filter
// or a cancelled context.
func (e *Engine) Search(ctx context.Context, q Query) (*Result, error) {
	opts := e.Options()

	if q.Language != "" && len(opts.Languages) > 0 && !slices.Contains(opts.Languages, q.Language) {
		return nil, fmt.Errorf("language %q: %w", q.Language, core.ErrInvalidInput)
	}

	attempts := Plan(q)
	if len(attempts) == 0 {
		return &Result{}, nil
	}

	for _, stage := range stages(attempts) {
		var hit *outcome
		if opts.Concurrent {
			hit = e.runConcurrent(ctx, stage, opts.Timeout)
		} else {
			hit = e.runSequential(ctx, stage, opts.Timeout)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if hit != nil {
			metrics.RecordSearch(hit.attempt.Partition.String(), hit.attempt.Variant.String())
			logger.Debugf("%q answered by %s (%s, %d total)", q.Text, hit.attempt.Partition, hit.attempt.Variant, hit.total)
			return page(q, hit), nil
		}
	}

	metrics.RecordSearch("none", Exact.String())
	return &Result{}, nil
}

// page builds the result for a winning attempt. The next offset is computed
// from the unfiltered total, so a language filtered page may announce a next
// page whose records are all filtered out.
func page(q Query, hit *outcome) *Result {
	source := hit.attempt.Partition
	res := &Result{
		Records:    hit.records,
		Total:      hit.total,
		NextOffset: nextOffset(hit.attempt.Offset, hit.attempt.Limit, hit.total),
		Source:     &source,
		Variant:    hit.attempt.Variant,
	}

	if q.Language != "" {
		kept := make([]core.FileRecord, 0, len(res.Records))
		for _, r := range res.Records {
			if strings.Contains(strings.ToLower(r.Name), q.Language) {
				kept = append(kept, r)
			}
		}
		res.Records = kept
		res.Total = len(kept)
	}
	return res
}

func nextOffset(offset, limit, total int) string {
	if offset+limit < total {
		return strconv.Itoa(offset + limit)
	}
	return ""
}

func (e *Engine) runSequential(ctx context.Context, stage []Attempt, timeout time.Duration) *outcome {
	for _, a := range stage {
		if ctx.Err() != nil {
			return nil
		}
		if o := e.try(ctx, a, timeout); o != nil {
			return o
		}
	}
	return nil
}

// runConcurrent queries every partition of the stage at once and picks the
// highest priority hit.
func (e *Engine) runConcurrent(ctx context.Context, stage []Attempt, timeout time.Duration) *outcome {
	outcomes := make([]*outcome, len(stage))

	var g errgroup.Group
	for i, a := range stage {
		g.Go(func() error {
			outcomes[i] = e.try(ctx, a, timeout)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o != nil {
			return o
		}
	}
	return nil
}

// try runs a single attempt and returns nil when it produced no records.
func (e *Engine) try(ctx context.Context, a Attempt, timeout time.Duration) *outcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	records, total, err := e.query(ctx, a)
	metrics.RecordPartitionQuery(a.Partition.String(), time.Since(start), err)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", core.ErrUpstreamTimeout, err)
		}
		logger.Warnf("searching %s (%s): %v", a.Partition, a.Variant, err)
		return nil
	}
	if len(records) == 0 {
		return nil
	}
	return &outcome{attempt: a, records: records, total: total}
}

func (e *Engine) query(ctx context.Context, a Attempt) ([]core.FileRecord, int, error) {
	store, err := e.stores(a.Partition)
	if err != nil {
		return nil, 0, err
	}
	return store.Search(ctx, a.Text, a.Offset, a.Limit)
}

// Lookup finds a record by id, checking partitions in priority order.
func (e *Engine) Lookup(ctx context.Context, id string) (core.FileRecord, error) {
	for _, p := range core.Partitions {
		store, err := e.stores(p)
		if err != nil {
			return core.FileRecord{}, fmt.Errorf("opening %s: %w", p, err)
		}
		record, err := store.Get(ctx, id)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return core.FileRecord{}, err
		}
	}
	return core.FileRecord{}, fmt.Errorf("file %s: %w", id, core.ErrNotFound)
}

// Delete removes the records matching raw from every partition of scope and
// returns how many were removed. raw == storage.DeleteAll empties the
// partitions. Unlike Search, store errors are returned.
func (e *Engine) Delete(ctx context.Context, scope core.Scope, raw string) (int64, error) {
	text := storage.TextQuery{Text: storage.DeleteAll}
	if strings.TrimSpace(raw) != storage.DeleteAll {
		text.Text = query.Normalize(raw)
		if text.Text == "" {
			return 0, fmt.Errorf("delete query %q: %w", raw, core.ErrInvalidInput)
		}
	}

	var deleted int64
	for _, p := range scope.Partitions() {
		store, err := e.stores(p)
		if err != nil {
			return deleted, fmt.Errorf("opening %s: %w", p, err)
		}
		n, err := store.Delete(ctx, text)
		if err != nil {
			return deleted, fmt.Errorf("deleting from %s: %w", p, err)
		}
		logger.Infof("deleted %d files from %s", n, p)
		deleted += n
	}
	return deleted, nil
}

// PartitionCount is the number of records held by one partition.
type PartitionCount struct {
	Partition core.Partition `json:"partition"`
	Files     int            `json:"files"`
}

// Stats is the record count of every partition, in priority order.
type Stats struct {
	Partitions []PartitionCount `json:"partitions"`
	Total      int              `json:"total"`
}

func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Partitions: make([]PartitionCount, 0, len(core.Partitions))}
	for _, p := range core.Partitions {
		store, err := e.stores(p)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", p, err)
		}
		n, err := store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", p, err)
		}
		stats.Partitions = append(stats.Partitions, PartitionCount{Partition: p, Files: n})
		stats.Total += n
	}
	return stats, nil
}
