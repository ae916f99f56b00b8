package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps encoded snapshots in memory. Loads decode a fresh copy.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	payloads    map[string][]byte
	summaries   map[string]Summary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.payloads = make(map[string][]byte)
	s.summaries = make(map[string]Summary)
	return nil
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) (string, error) {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return "", errors.New("store is not initialized")
	}
	s.payloads[snap.ID] = payload
	s.summaries[snap.ID] = summarize(snap.ID, snap)
	return snap.ID, nil
}

func (s *MemoryStore) Load(_ context.Context, key string) (Snapshot, bool, error) {
	s.mu.RLock()
	payload, ok := s.payloads[key]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, false, nil
	}
	snap, err := DecodeSnapshot(payload)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.summaries))
	for _, sum := range s.summaries {
		out = append(out, sum)
	}
	sortSummaries(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func summarize(key string, snap Snapshot) Summary {
	return Summary{
		Key:            key,
		Generation:     snap.Generation,
		CreatedAt:      snap.CreatedAt,
		Size:           len(snap.Genomes),
		AverageFitness: snap.AverageFitness(),
	}
}

// sortSummaries orders oldest first, breaking ties by key.
func sortSummaries(list []Summary) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].Key < list[j].Key
	})
}
