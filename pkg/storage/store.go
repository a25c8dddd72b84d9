package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/JoneySinx/V2/pkg/core"
)

// ErrDuplicate is returned by Insert when a record with the same id exists.
var ErrDuplicate = errors.New("duplicate file")

// DeleteAll is the query that matches every record of a partition in Delete.
const DeleteAll = "*"

// TextQuery is a normalized full text query. Tokens are matched as whole
// words, or as word prefixes when Prefix is set.
type TextQuery struct {
	Text   string
	Prefix bool
}

// Match renders the FTS5 MATCH expression. Any token may match; bm25 puts
// records matching more of them first. An empty query renders as "".
func (q TextQuery) Match() string {
	tokens := strings.Fields(q.Text)
	if len(tokens) == 0 {
		return ""
	}

	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		term := `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
		if q.Prefix {
			term += "*"
		}
		terms[i] = term
	}
	return strings.Join(terms, " OR ")
}

// PartitionStore is the record index of a single partition.
type PartitionStore struct {
	db        *sql.DB
	partition core.Partition
}

func OpenPartitionStore(ctx context.Context, dbPath string, p core.Partition) (*PartitionStore, error) {
	conn, err := openDB(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &PartitionStore{db: conn, partition: p}, nil
}

func (s *PartitionStore) Partition() core.Partition {
	return s.partition
}

func (s *PartitionStore) Close() error {
	return s.db.Close()
}

// Insert adds record. Records are never replaced: an existing id yields ErrDuplicate.
func (s *PartitionStore) Insert(ctx context.Context, record core.FileRecord) error {
	if record.ID == "" {
		return fmt.Errorf("file id: %w", core.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, name, caption, size, locator)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		record.ID, record.Name, record.Caption, record.Size, record.Locator)
	if err != nil {
		return fmt.Errorf("inserting file %s: %w", record.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting file %s: %w", record.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("file %s in %s: %w", record.ID, s.partition, ErrDuplicate)
	}
	return nil
}

// Search returns up to limit records matching q starting at offset, along
// with the total number of matches.
func (s *PartitionStore) Search(ctx context.Context, q TextQuery, offset, limit int) ([]core.FileRecord, int, error) {
	match := q.Match()

	var total int
	var rows *sql.Rows
	var err error
	if match == "" {
		if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("counting files: %w", err)
		}
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, name, caption, size, locator
			FROM files
			ORDER BY rowid DESC
			LIMIT ? OFFSET ?`, limit, offset)
	} else {
		if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files_fts WHERE files_fts MATCH ?", match).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("counting matches: %w", err)
		}
		rows, err = s.db.QueryContext(ctx, `
			SELECT f.id, f.name, f.caption, f.size, f.locator
			FROM files f
			JOIN files_fts ON f.rowid = files_fts.rowid
			WHERE files_fts MATCH ?
			ORDER BY bm25(files_fts), f.rowid
			LIMIT ? OFFSET ?`, match, limit, offset)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("querying files: %w", err)
	}

	records, err := s.scan(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Get returns the record with the given id or core.ErrNotFound.
func (s *PartitionStore) Get(ctx context.Context, id string) (core.FileRecord, error) {
	record := core.FileRecord{Partition: s.partition}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, caption, size, locator FROM files WHERE id = ?", id).
		Scan(&record.ID, &record.Name, &record.Caption, &record.Size, &record.Locator)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FileRecord{}, fmt.Errorf("file %s in %s: %w", id, s.partition, core.ErrNotFound)
	}
	if err != nil {
		return core.FileRecord{}, fmt.Errorf("getting file %s: %w", id, err)
	}
	return record, nil
}

// Delete removes every record matching q, or all records when q.Text is
// DeleteAll. It returns the number of records removed.
func (s *PartitionStore) Delete(ctx context.Context, q TextQuery) (int64, error) {
	var res sql.Result
	var err error
	if q.Text == DeleteAll {
		res, err = s.db.ExecContext(ctx, "DELETE FROM files")
	} else {
		match := q.Match()
		if match == "" {
			return 0, fmt.Errorf("empty delete query: %w", core.ErrInvalidInput)
		}
		res, err = s.db.ExecContext(ctx, `
			DELETE FROM files WHERE rowid IN (
				SELECT rowid FROM files_fts WHERE files_fts MATCH ?
			)`, match)
	}
	if err != nil {
		return 0, fmt.Errorf("deleting files: %w", err)
	}
	return res.RowsAffected()
}

func (s *PartitionStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return count, nil
}

func (s *PartitionStore) Optimize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "INSERT INTO files_fts(files_fts) VALUES ('optimize')"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "PRAGMA optimize")
	return err
}

func (s *PartitionStore) scan(rows *sql.Rows) ([]core.FileRecord, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warnf("failed to close rows: %v", err)
		}
	}()

	var records []core.FileRecord
	for rows.Next() {
		record := core.FileRecord{Partition: s.partition}
		if err := rows.Scan(&record.ID, &record.Name, &record.Caption, &record.Size, &record.Locator); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
