package cmd

import (
	"fmt"
	"os"

	"github.com/JoneySinx/V2/pkg/config"
	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/search"
	"github.com/JoneySinx/V2/pkg/storage"
)

// openManager prepares cfg.StorageDir and returns a manager over it.
// Callers close the returned manager.
func openManager(cfg *config.Config) (*storage.Manager, error) {
	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return storage.NewManager(cfg.StorageDir), nil
}

// openEngine builds a search engine over the partition stores in
// cfg.StorageDir.
func openEngine(cfg *config.Config) (*search.Engine, *storage.Manager, error) {
	storageManager, err := openManager(cfg)
	if err != nil {
		return nil, nil, err
	}
	engine := search.NewEngine(search.FromManager(storageManager), engineOptions(cfg.Search))
	return engine, storageManager, nil
}

func engineOptions(c config.SearchConfig) search.Options {
	return search.Options{
		Concurrent: c.Concurrent,
		Timeout:    c.Timeout.Duration,
		Languages:  c.Languages,
	}
}

func closeManager(storageManager *storage.Manager) {
	if err := storageManager.Close(); err != nil {
		fmt.Printf("Warning: failed to close storage manager: %v\n", err)
	}
}

// strictScope resolves a partition flag, rejecting names ParseScope would
// silently map to the default partition.
func strictScope(name string) (core.Scope, error) {
	scope, ok := core.LookupScope(name)
	if !ok {
		return core.Scope{}, fmt.Errorf("unknown partition %q: %w", name, core.ErrInvalidInput)
	}
	return scope, nil
}

// strictPartition is strictScope for commands that write to exactly one
// partition.
func strictPartition(name string) (core.Partition, error) {
	scope, err := strictScope(name)
	if err != nil {
		return 0, err
	}
	if scope.All {
		return 0, fmt.Errorf("a single partition is required, got %q: %w", name, core.ErrInvalidInput)
	}
	return scope.Partition, nil
}
