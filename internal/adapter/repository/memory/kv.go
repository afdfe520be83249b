package memory

import (
	"context"
	"sync"
)

// KVStore implements usecase.KVStore and usecase.ChangeNotifier in memory.
type KVStore struct {
	mu       sync.RWMutex
	buckets  map[string][]byte
	watchers map[int]chan string
	nextID   int
}

// NewKVStore creates an empty KVStore.
func NewKVStore() *KVStore {
	return &KVStore{
		buckets:  make(map[string][]byte),
		watchers: make(map[int]chan string),
	}
}

// Read returns a copy of the bucket, or nil when it is absent.
func (s *KVStore) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.buckets[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

// Write replaces the bucket and notifies watchers.
func (s *KVStore) Write(ctx context.Context, key string, raw []byte) error {
	s.mu.Lock()
	s.buckets[key] = append([]byte(nil), raw...)
	watchers := make([]chan string, 0, len(s.watchers))
	for _, ch := range s.watchers {
		watchers = append(watchers, ch)
	}
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- key:
		default:
		}
	}
	return nil
}

// Watch calls fn for every written key until ctx is done.
func (s *KVStore) Watch(ctx context.Context, fn func(key string)) error {
	ch := make(chan string, 64)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case key := <-ch:
			fn(key)
		}
	}
}
