package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	fileExt         = ".nnet"
	fileStampLayout = "2006-01-02-15-04-05"
)

// FileStore writes one JSON file per snapshot, named
// population_<timestamp>_<average fitness>.nnet.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{dir: dir}
}

// Dir returns the directory the store reads and writes.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Init(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating population dir: %w", err)
	}
	return nil
}

// FileName returns the name a snapshot is saved under, before any
// disambiguating suffix.
func FileName(snap Snapshot) string {
	return fmt.Sprintf("population_%s_%.0f%s", snap.CreatedAt.Format(fileStampLayout), snap.AverageFitness(), fileExt)
}

func (s *FileStore) Save(_ context.Context, snap Snapshot) (string, error) {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := FileName(snap)
	name := base
	for i := 1; ; i++ {
		_, err := os.Stat(filepath.Join(s.dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		name = fmt.Sprintf("%s-%d%s", base[:len(base)-len(fileExt)], i, fileExt)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return name, nil
}

// Load reads a snapshot by file name. Paths with a directory component are
// read as given.
func (s *FileStore) Load(_ context.Context, key string) (Snapshot, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return snap, true, nil
}

// List returns every *.nnet file in the directory. Unreadable files are
// skipped.
func (s *FileStore) List(_ context.Context) ([]Summary, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*"+fileExt))
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(paths))
	for _, path := range paths {
		sum, err := readSummary(path)
		if err != nil {
			slog.Warn("skipping population file", "path", path, "error", err)
			continue
		}
		out = append(out, sum)
	}
	sortSummaries(out)
	return out, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(key string) string {
	if filepath.Base(key) != key {
		return key
	}
	return filepath.Join(s.dir, key)
}

// readSummary decodes the header fields and fitness values only.
func readSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	var head struct {
		CodecVersion int       `json:"codec_version"`
		Generation   int       `json:"generation"`
		CreatedAt    time.Time `json:"created_at"`
		Genomes      []struct {
			Fitness float32 `json:"fitness"`
		} `json:"genomes"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if head.CodecVersion != CurrentCodecVersion {
		return Summary{}, fmt.Errorf("%w: codec %d", ErrVersionMismatch, head.CodecVersion)
	}

	sum := Summary{
		Key:        filepath.Base(path),
		Generation: head.Generation,
		CreatedAt:  head.CreatedAt,
		Size:       len(head.Genomes),
	}
	if sum.Size > 0 {
		var total float32
		for _, g := range head.Genomes {
			total += g.Fitness
		}
		sum.AverageFitness = total / float32(sum.Size)
	}
	return sum, nil
}
