package onboarding

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// IntentStore parks an Intent across the provider redirect, keyed by a
// short-lived correlation id. Consume is destructive: after a completed
// callback the record is gone, so a replayed callback performs no further
// assignment.
type IntentStore interface {
	Put(ctx context.Context, correlationID string, intent Intent) error
	// Consume returns the intent and removes it atomically. The boolean is
	// false when no record exists (expired, already consumed, or never set).
	Consume(ctx context.Context, correlationID string) (Intent, bool, error)
}

// RedisIntentStore keeps continuation records in Redis with a TTL.
type RedisIntentStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIntentStore creates a store over an existing Redis client.
func NewRedisIntentStore(client *redis.Client, ttl time.Duration) *RedisIntentStore {
	return &RedisIntentStore{client: client, ttl: ttl}
}

func intentKey(correlationID string) string {
	return "onboarding:intent:" + correlationID
}

func (s *RedisIntentStore) Put(ctx context.Context, correlationID string, intent Intent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}
	if err := s.client.Set(ctx, intentKey(correlationID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store intent: %w", err)
	}
	return nil
}

func (s *RedisIntentStore) Consume(ctx context.Context, correlationID string) (Intent, bool, error) {
	data, err := s.client.GetDel(ctx, intentKey(correlationID)).Result()
	if err == redis.Nil {
		return Intent{}, false, nil
	}
	if err != nil {
		return Intent{}, false, fmt.Errorf("consume intent: %w", err)
	}
	var intent Intent
	if err := json.Unmarshal([]byte(data), &intent); err != nil {
		return Intent{}, false, fmt.Errorf("unmarshal intent: %w", err)
	}
	return intent, true, nil
}

// MemoryIntentStore is an in-process IntentStore used in tests and when no
// Redis is configured.
type MemoryIntentStore struct {
	ttl     time.Duration
	mutex   sync.Mutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	intent    Intent
	expiresAt time.Time
}

// NewMemoryIntentStore creates an in-memory store with the given record TTL.
func NewMemoryIntentStore(ttl time.Duration) *MemoryIntentStore {
	return &MemoryIntentStore{
		ttl:     ttl,
		records: make(map[string]memoryRecord),
	}
}

func (s *MemoryIntentStore) Put(ctx context.Context, correlationID string, intent Intent) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records[correlationID] = memoryRecord{
		intent:    intent,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryIntentStore) Consume(ctx context.Context, correlationID string) (Intent, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	record, ok := s.records[correlationID]
	if !ok {
		return Intent{}, false, nil
	}
	delete(s.records, correlationID)
	if time.Now().After(record.expiresAt) {
		return Intent{}, false, nil
	}
	return record.intent, true, nil
}
