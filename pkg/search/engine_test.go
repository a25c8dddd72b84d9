package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/storage"
)

// fakeStore matches records whose name contains any query token (or a token
// prefix for prefix queries) and records every call.
type fakeStore struct {
	mu      sync.Mutex
	records []core.FileRecord
	err     error
	delay   time.Duration
	calls   []storage.TextQuery
}

func (s *fakeStore) Search(ctx context.Context, q storage.TextQuery, offset, limit int) ([]core.FileRecord, int, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, 0, s.err
	}

	var matched []core.FileRecord
	for _, r := range s.records {
		if matches(r.Name, q) {
			matched = append(matched, r)
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func matches(name string, q storage.TextQuery) bool {
	for _, word := range strings.Fields(strings.ToLower(name)) {
		for _, tok := range strings.Fields(q.Text) {
			if word == tok || (q.Prefix && strings.HasPrefix(word, tok)) {
				return true
			}
		}
	}
	return false
}

func (s *fakeStore) Delete(ctx context.Context, q storage.TextQuery) (int64, error) {
	var kept []core.FileRecord
	var n int64
	for _, r := range s.records {
		if q.Text == storage.DeleteAll || matches(r.Name, q) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return n, nil
}

func (s *fakeStore) Count(ctx context.Context) (int, error) {
	return len(s.records), nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (core.FileRecord, error) {
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return core.FileRecord{}, core.ErrNotFound
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeStores map[core.Partition]*fakeStore

func (f fakeStores) fn() StoreFunc {
	return func(p core.Partition) (Store, error) {
		s, ok := f[p]
		if !ok {
			return nil, fmt.Errorf("no store for %s", p)
		}
		return s, nil
	}
}

func newFakeStores() fakeStores {
	return fakeStores{
		core.Primary: &fakeStore{},
		core.Cloud:   &fakeStore{},
		core.Archive: &fakeStore{},
	}
}

func makeRecords(p core.Partition, name string, n int) []core.FileRecord {
	records := make([]core.FileRecord, n)
	for i := range records {
		records[i] = core.FileRecord{
			ID:        fmt.Sprintf("%s-%d", p, i),
			Name:      fmt.Sprintf("%s %d", name, i),
			Partition: p,
		}
	}
	return records
}

func allScope() core.Scope {
	return core.Scope{All: true}
}

func TestSearchCascadeFirstNonEmptyWins(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		t.Run(fmt.Sprintf("concurrent=%v", concurrent), func(t *testing.T) {
			stores := newFakeStores()
			stores[core.Cloud].records = makeRecords(core.Cloud, "avengers", 2)
			stores[core.Archive].records = makeRecords(core.Archive, "avengers", 5)

			engine := NewEngine(stores.fn(), Options{Concurrent: concurrent})
			res, err := engine.Search(context.Background(), NewQuery("avengers", allScope(), 0, 12, 12, ""))
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}

			if len(res.Records) != 2 {
				t.Fatalf("got %d records, want 2", len(res.Records))
			}
			if res.Source == nil || *res.Source != core.Cloud {
				t.Errorf("source = %v, want cloud", res.Source)
			}
			if res.Total != 2 || res.NextOffset != "" {
				t.Errorf("total = %d, next = %q", res.Total, res.NextOffset)
			}
			for _, r := range res.Records {
				if r.Partition != core.Cloud {
					t.Errorf("record %s from %s", r.ID, r.Partition)
				}
			}

			if !concurrent && stores[core.Archive].callCount() != 0 {
				t.Errorf("archive queried %d times", stores[core.Archive].callCount())
			}
		})
	}
}

func TestSearchConcurrentKeepsPriority(t *testing.T) {
	stores := newFakeStores()
	stores[core.Primary].records = makeRecords(core.Primary, "matrix", 1)
	stores[core.Primary].delay = 50 * time.Millisecond
	stores[core.Cloud].records = makeRecords(core.Cloud, "matrix", 3)

	engine := NewEngine(stores.fn(), Options{Concurrent: true})
	res, err := engine.Search(context.Background(), NewQuery("matrix", allScope(), 0, 12, 12, ""))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Source == nil || *res.Source != core.Primary {
		t.Fatalf("source = %v, want primary", res.Source)
	}
	if len(res.Records) != 1 {
		t.Errorf("got %d records, want 1", len(res.Records))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	stores := newFakeStores()
	stores[core.Primary].records = makeRecords(core.Primary, "x", 3)

	engine := NewEngine(stores.fn(), Options{})
	for _, raw := range []string{"", "   ", "!!!"} {
		res, err := engine.Search(context.Background(), NewQuery(raw, allScope(), 0, 12, 12, ""))
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", raw, err)
		}
		if len(res.Records) != 0 || res.Total != 0 || res.NextOffset != "" || res.Source != nil {
			t.Errorf("Search(%q) = %+v, want empty", raw, res)
		}
	}

	for p, s := range stores {
		if s.callCount() != 0 {
			t.Errorf("%s queried for an empty query", p)
		}
	}
}

func TestSearchPagination(t *testing.T) {
	stores := newFakeStores()
	stores[core.Primary].records = makeRecords(core.Primary, "movie", 25)
	engine := NewEngine(stores.fn(), Options{})

	tests := []struct {
		offset   int
		wantLen  int
		wantNext string
	}{
		{0, 12, "12"},
		{12, 12, "24"},
		{24, 1, ""},
	}

	for _, tt := range tests {
		q := NewQuery("movie", core.Scope{Partition: core.Primary}, tt.offset, 12, 12, "")
		res, err := engine.Search(context.Background(), q)
		if err != nil {
			t.Fatalf("Search(offset=%d) failed: %v", tt.offset, err)
		}
		if len(res.Records) != tt.wantLen {
			t.Errorf("offset %d: got %d records, want %d", tt.offset, len(res.Records), tt.wantLen)
		}
		if res.NextOffset != tt.wantNext {
			t.Errorf("offset %d: next = %q, want %q", tt.offset, res.NextOffset, tt.wantNext)
		}
		if res.Total != 25 {
			t.Errorf("offset %d: total = %d, want 25", tt.offset, res.Total)
		}
	}
}

func TestSearchPrefixFallback(t *testing.T) {
	stores := newFakeStores()
	stores[core.Archive].records = []core.FileRecord{
		{ID: "1", Name: "Avengers Endgame", Partition: core.Archive},
	}
	engine := NewEngine(stores.fn(), Options{})

	res, err := engine.Search(context.Background(), NewQuery("avengerz endgam", allScope(), 0, 12, 12, ""))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Records) != 1 || res.Variant != Prefix {
		t.Fatalf("expected one prefix hit, got %+v", res)
	}
	if *res.Source != core.Archive {
		t.Errorf("source = %s, want archive", *res.Source)
	}

	calls := stores[core.Primary].calls
	if len(calls) != 2 || calls[0].Prefix || !calls[1].Prefix || calls[1].Text != "aven endg" {
		t.Errorf("primary calls = %+v", calls)
	}

	// Later pages never fall back to the prefix query.
	stores = newFakeStores()
	stores[core.Archive].records = []core.FileRecord{{ID: "1", Name: "Avengers Endgame"}}
	engine = NewEngine(stores.fn(), Options{})
	res, err = engine.Search(context.Background(), NewQuery("avengerz endgam", allScope(), 12, 12, 12, ""))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("expected no records past the first page, got %d", len(res.Records))
	}
	for _, c := range stores[core.Primary].calls {
		if c.Prefix {
			t.Error("prefix query issued for offset 12")
		}
	}
}

func TestSearchContinuePinsPrefixAnswer(t *testing.T) {
	stores := newFakeStores()
	stores[core.Cloud].records = makeRecords(core.Cloud, "avengers", 5)
	stores[core.Archive].records = makeRecords(core.Archive, "avenue", 5)
	engine := NewEngine(stores.fn(), Options{})
	ctx := context.Background()

	q := NewQuery("Avenge", allScope(), 0, 2, 12, "")
	first, err := engine.Search(ctx, q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if first.Variant != Prefix || *first.Source != core.Cloud || first.NextOffset != "2" {
		t.Fatalf("first page = %+v", first)
	}

	next := q.Continue(first).WithOffset(2)
	second, err := engine.Search(ctx, next)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(second.Records) != 2 || second.Total != 5 || second.NextOffset != "4" {
		t.Fatalf("second page = %+v", second)
	}
	if *second.Source != core.Cloud || second.Variant != Prefix {
		t.Errorf("second page answered by %s/%s", *second.Source, second.Variant)
	}
	for _, r := range second.Records {
		if r.Partition != core.Cloud {
			t.Errorf("record %s from %s", r.ID, r.Partition)
		}
	}

	// Only the pinned partition is consulted past the first page.
	if n := stores[core.Archive].callCount(); n != 1 {
		t.Errorf("archive queried %d times, want 1 (first page exact pass)", n)
	}

	// An unpinned later page still never starts a prefix pass.
	res, err := engine.Search(ctx, q.WithOffset(2))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("unpinned page 2 = %+v", res)
	}
}

func TestSearchDegradesStoreErrors(t *testing.T) {
	stores := newFakeStores()
	stores[core.Primary].err = errors.New("database is locked")
	stores[core.Cloud].delay = time.Second
	stores[core.Cloud].records = makeRecords(core.Cloud, "dune", 4)
	stores[core.Archive].records = makeRecords(core.Archive, "dune", 3)

	engine := NewEngine(stores.fn(), Options{Timeout: 20 * time.Millisecond})
	res, err := engine.Search(context.Background(), NewQuery("dune", allScope(), 0, 12, 12, ""))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Source == nil || *res.Source != core.Archive {
		t.Fatalf("source = %v, want archive", res.Source)
	}
	if len(res.Records) != 3 {
		t.Errorf("got %d records, want 3", len(res.Records))
	}
}

func TestSearchMissingStoreDegrades(t *testing.T) {
	stores := fakeStores{core.Cloud: &fakeStore{records: makeRecords(core.Cloud, "heat", 1)}}
	engine := NewEngine(stores.fn(), Options{})

	res, err := engine.Search(context.Background(), NewQuery("heat", allScope(), 0, 12, 12, ""))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Source == nil || *res.Source != core.Cloud {
		t.Errorf("source = %v, want cloud", res.Source)
	}
}

func TestSearchLanguageFilter(t *testing.T) {
	stores := newFakeStores()
	stores[core.Primary].records = []core.FileRecord{
		{ID: "1", Name: "Pathaan Hindi 1080p"},
		{ID: "2", Name: "Pathaan Tamil 720p"},
		{ID: "3", Name: "pathaan HINDI dubbed"},
	}
	engine := NewEngine(stores.fn(), Options{Languages: []string{"hindi", "tamil"}})

	res, err := engine.Search(context.Background(), NewQuery("pathaan", core.Scope{}, 0, 2, 12, "Hindi"))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].ID != "1" {
		t.Errorf("filtered records = %+v", res.Records)
	}
	if res.Total != 1 {
		t.Errorf("total = %d, want filtered length 1", res.Total)
	}
	// The cursor is computed before filtering.
	if res.NextOffset != "2" {
		t.Errorf("next = %q, want 2", res.NextOffset)
	}

	_, err = engine.Search(context.Background(), NewQuery("pathaan", core.Scope{}, 0, 2, 12, "klingon"))
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown language, got %v", err)
	}
}

func TestSearchCancelledContext(t *testing.T) {
	stores := newFakeStores()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(stores.fn(), Options{})
	if _, err := engine.Search(ctx, NewQuery("anything", allScope(), 0, 12, 12, "")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSetOptions(t *testing.T) {
	engine := NewEngine(newFakeStores().fn(), Options{})
	engine.SetOptions(Options{Concurrent: true, Timeout: time.Second})

	opts := engine.Options()
	if !opts.Concurrent || opts.Timeout != time.Second {
		t.Errorf("options = %+v", opts)
	}
}

func TestLookup(t *testing.T) {
	stores := newFakeStores()
	stores[core.Cloud].records = makeRecords(core.Cloud, "x", 2)
	stores[core.Archive].records = []core.FileRecord{{ID: "cloud-1", Name: "shadow", Partition: core.Archive}}
	engine := NewEngine(stores.fn(), Options{})

	record, err := engine.Lookup(context.Background(), "cloud-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if record.Partition != core.Cloud {
		t.Errorf("partition = %s, want cloud", record.Partition)
	}

	if _, err := engine.Lookup(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndStats(t *testing.T) {
	stores := newFakeStores()
	stores[core.Primary].records = makeRecords(core.Primary, "alpha", 3)
	stores[core.Cloud].records = append(makeRecords(core.Cloud, "alpha", 2), makeRecords(core.Cloud, "beta", 4)...)
	stores[core.Archive].records = makeRecords(core.Archive, "beta", 1)
	engine := NewEngine(stores.fn(), Options{})
	ctx := context.Background()

	stats, err := engine.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 10 || stats.Partitions[1].Files != 6 {
		t.Errorf("stats = %+v", stats)
	}

	n, err := engine.Delete(ctx, allScope(), "ALPHA")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 5 {
		t.Errorf("deleted %d, want 5", n)
	}

	n, err = engine.Delete(ctx, core.Scope{Partition: core.Cloud}, "*")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 4 {
		t.Errorf("deleted %d, want 4", n)
	}

	if _, err := engine.Delete(ctx, allScope(), "  ?? "); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	stats, err = engine.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("total after delete = %d, want 1", stats.Total)
	}
}
