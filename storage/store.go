package storage

import (
	"context"
	"fmt"
	"sync"

	"zombiezen.com/go/sqlite"
)

// Record is one cached resolution. Content is exactly what a successful
// fetch returned, never partial or placeholder data.
type Record struct {
	Content   string
	Source    string
	Timestamp int64 // unix milliseconds; 0 means unknown or corrupt, evicted first
}

type KeyStamp struct {
	Key       string
	Timestamp int64
}

// Store is the narrow persistence boundary of the cache. Implementations
// report absence as (nil, nil); errors are for the backend itself failing.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, key string, rec Record) error
	Delete(ctx context.Context, keys []string) error
	Keys(ctx context.Context) ([]KeyStamp, error)
	Count(ctx context.Context) (int, error)
}

type SQLiteStore struct{}

func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

func finish(stmt *sqlite.Stmt) {
	stmt.Reset()
	stmt.ClearBindings()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Record, error) {
	conn, err := OpenDatabase(ctx)
	if err != nil {
		return nil, err
	}
	defer CloseDatabase(conn)

	stmt, err := conn.Prepare(`SELECT content, source, created_at FROM emoji_cache WHERE codepoint = $codepoint;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer finish(stmt)

	stmt.SetText("$codepoint", key)

	hasRow, err := stmt.Step()
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	if !hasRow {
		return nil, nil
	}

	return &Record{
		Content:   stmt.GetText("content"),
		Source:    stmt.GetText("source"),
		Timestamp: stmt.GetInt64("created_at"), // NULL reads as 0
	}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, rec Record) error {
	conn, err := OpenDatabase(ctx)
	if err != nil {
		return err
	}
	defer CloseDatabase(conn)

	stmt, err := conn.Prepare(`
		INSERT OR REPLACE INTO emoji_cache(codepoint, content, source, created_at)
		VALUES ($codepoint, $content, $source, $created_at);`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer finish(stmt)

	stmt.SetText("$codepoint", key)
	stmt.SetText("$content", rec.Content)
	stmt.SetText("$source", rec.Source)
	stmt.SetInt64("$created_at", rec.Timestamp)

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	conn, err := OpenDatabase(ctx)
	if err != nil {
		return err
	}
	defer CloseDatabase(conn)

	stmt, err := conn.Prepare(`DELETE FROM emoji_cache WHERE codepoint = $codepoint;`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer finish(stmt)

	for _, key := range keys {
		stmt.SetText("$codepoint", key)
		if _, err := stmt.Step(); err != nil {
			return fmt.Errorf("failed to execute statement: %w", err)
		}
		stmt.Reset()
		stmt.ClearBindings()
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]KeyStamp, error) {
	conn, err := OpenDatabase(ctx)
	if err != nil {
		return nil, err
	}
	defer CloseDatabase(conn)

	stmt, err := conn.Prepare(`SELECT codepoint, created_at FROM emoji_cache;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer finish(stmt)

	stamps := []KeyStamp{}
	for hasRow, _ := stmt.Step(); hasRow; hasRow, _ = stmt.Step() {
		stamps = append(stamps, KeyStamp{
			Key:       stmt.GetText("codepoint"),
			Timestamp: stmt.GetInt64("created_at"),
		})
	}
	return stamps, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	conn, err := OpenDatabase(ctx)
	if err != nil {
		return 0, err
	}
	defer CloseDatabase(conn)

	stmt, err := conn.Prepare(`SELECT COUNT(*) AS entries FROM emoji_cache;`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer finish(stmt)

	hasRow, err := stmt.Step()
	if err != nil || !hasRow {
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}
	return int(stmt.GetInt64("entries")), nil
}

// MemoryStore backs the cache when no database is available, and tests.
type MemoryStore struct {
	mutex   sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, rec Record) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records[key] = rec
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

func (s *MemoryStore) Keys(ctx context.Context) ([]KeyStamp, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stamps := []KeyStamp{}
	for key, rec := range s.records {
		stamps = append(stamps, KeyStamp{Key: key, Timestamp: rec.Timestamp})
	}
	return stamps, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.records), nil
}
