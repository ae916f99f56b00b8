package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps snapshots in a populations table keyed by snapshot ID.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return "", err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO populations (id, generation, created_at, size, avg_fitness, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			generation = excluded.generation,
			created_at = excluded.created_at,
			size = excluded.size,
			avg_fitness = excluded.avg_fitness,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, snap.ID, snap.Generation, snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		len(snap.Genomes), snap.AverageFitness(), CurrentCodecVersion, payload)
	if err != nil {
		return "", err
	}
	return snap.ID, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (Snapshot, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Snapshot{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM populations WHERE id = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}

	snap, err := DecodeSnapshot(payload)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("decode population %s: %w", key, err)
	}
	return snap, true, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, generation, created_at, size, avg_fitness
		FROM populations
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			created string
		)
		if err := rows.Scan(&sum.Key, &sum.Generation, &created, &sum.Size, &sum.AverageFitness); err != nil {
			return nil, err
		}
		sum.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("population %s: %w", sum.Key, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS populations (
			id TEXT PRIMARY KEY,
			generation INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			size INTEGER NOT NULL,
			avg_fitness REAL NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
