package registry

import (
	"context"
	"sync"
)

// InMemoryStore implements Store with a mutex-guarded map. Used for
// tests and dry runs where nothing should touch disk.
type InMemoryStore struct {
	mu      sync.RWMutex
	ratings map[ExternalKey]float64
	writes  int
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		ratings: make(map[ExternalKey]float64),
	}
}

// Put seeds a rating without counting as a write. Test setup helper.
func (s *InMemoryStore) Put(key ExternalKey, rating float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[key] = rating
}

// FetchByKeys returns the stored ratings for the keys that exist.
func (s *InMemoryStore) FetchByKeys(ctx context.Context, keys []ExternalKey) ([]PlayerRating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PlayerRating, 0, len(keys))
	for _, key := range keys {
		if rating, ok := s.ratings[key]; ok {
			out = append(out, PlayerRating{Key: key, Rating: rating})
		}
	}
	return out, nil
}

// WriteRating stores a rating, creating the entry if needed.
func (s *InMemoryStore) WriteRating(ctx context.Context, key ExternalKey, rating float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[key] = rating
	s.writes++
	return nil
}

// Writes reports how many WriteRating calls succeeded. Test helper.
func (s *InMemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Len returns the number of stored ratings.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings)
}
