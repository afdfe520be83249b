package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iho/fxledger/internal/infrastructure/metrics"
)

// ChangesChannel is the pub/sub channel carrying changed bucket keys.
const ChangesChannel = "fxledger:changes"

// KVStore implements usecase.KVStore and usecase.ChangeNotifier using Redis.
type KVStore struct {
	client  *redis.Client
	prefix  string
	metrics *metrics.Metrics
}

// NewKVStore creates a new KVStore. m may be nil.
func NewKVStore(client *redis.Client, m *metrics.Metrics) *KVStore {
	return &KVStore{
		client:  client,
		prefix:  "bucket:",
		metrics: m,
	}
}

// Read returns the raw bucket, or nil when it is absent.
func (s *KVStore) Read(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.record("read", nil)
		return nil, nil
	}
	s.record("read", err)
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Write stores the bucket and publishes its key on ChangesChannel.
func (s *KVStore) Write(ctx context.Context, key string, raw []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.prefix+key, raw, 0)
		pipe.Publish(ctx, ChangesChannel, key)
		return nil
	})
	s.record("write", err)
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Watch calls fn for every key published on ChangesChannel until ctx is done.
func (s *KVStore) Watch(ctx context.Context, fn func(key string)) error {
	ps := s.client.Subscribe(ctx, ChangesChannel)
	defer ps.Close()

	// Wait for the subscription to be confirmed.
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fn(msg.Payload)
		}
	}
}

func (s *KVStore) record(op string, err error) {
	if s.metrics != nil {
		s.metrics.RecordStorage("redis", op, err)
	}
}
