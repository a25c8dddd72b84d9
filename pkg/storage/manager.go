package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/db"
	"github.com/JoneySinx/V2/pkg/log"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var logger = log.ForService("storage")

// Manager lazily opens one database per partition under storageDir.
type Manager struct {
	storageDir string
	stores     map[core.Partition]*PartitionStore
	mu         sync.RWMutex
}

func NewManager(storageDir string) *Manager {
	return &Manager{
		storageDir: storageDir,
		stores:     make(map[core.Partition]*PartitionStore),
	}
}

// Store returns the store for p, opening and migrating its database on first use.
func (m *Manager) Store(p core.Partition) (*PartitionStore, error) {
	m.mu.RLock()
	store, exists := m.stores[p]
	m.mu.RUnlock()

	if exists {
		return store, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if store, exists := m.stores[p]; exists {
		return store, nil
	}

	dbPath := filepath.Join(m.storageDir, fmt.Sprintf("%s.db", p))
	store, err := OpenPartitionStore(context.Background(), dbPath, p)
	if err != nil {
		return nil, fmt.Errorf("opening storage for %s: %w", p, err)
	}

	m.stores[p] = store
	return store, nil
}

func (m *Manager) Optimize(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for p, store := range m.stores {
		if err := store.Optimize(ctx); err != nil {
			errs = append(errs, fmt.Errorf("optimizing storage %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for p, store := range m.stores {
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing storage %s: %w", p, err))
		}
	}

	m.stores = make(map[core.Partition]*PartitionStore)
	return errors.Join(errs...)
}

func openDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
		"PRAGMA mmap_size = 268435456", // 256MB mmap
	}

	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := db.NewMigrationManager(conn).Migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}

	return conn, nil
}
