package cooling

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one active transaction freeze. At most one exists per senior;
// re-flagging overwrites it.
type Entry struct {
	SeniorPhone   string    `json:"senior_phone"`
	GuardianPhone string    `json:"guardian_phone"`
	Amount        int64     `json:"amount"`
	BankName      string    `json:"bank_name"`
	CoolingUntil  time.Time `json:"cooling_until"`
	IncidentID    int64     `json:"incident_id"`
	FlaggedAt     time.Time `json:"flagged_at"`
}

func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.CoolingUntil)
}

// Store is the injected TTL key-value table behind the registry: an in-process
// map for single-instance deployments or Redis when instances share state.
// Keys outlive CoolingUntil so the sweeper can drive a terminal disposition;
// the store TTL is a leak guard, not the expiry mechanism.
type Store interface {
	Put(ctx context.Context, e Entry) error
	Get(ctx context.Context, seniorPhone string) (*Entry, error)
	Delete(ctx context.Context, seniorPhone string) error
	List(ctx context.Context) ([]Entry, error)
}

// retention past CoolingUntil before the backing store may drop the key
const storeRetention = 24 * time.Hour

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Put(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.SeniorPhone] = e
	return nil
}

func (s *MemoryStore) Get(_ context.Context, seniorPhone string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[seniorPhone]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *MemoryStore) Delete(_ context.Context, seniorPhone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, seniorPhone)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	return entries, nil
}

const redisKeyPrefix = "guardianlink:cooling:"

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ttl := time.Until(e.CoolingUntil) + storeRetention
	return s.client.Set(ctx, redisKeyPrefix+e.SeniorPhone, data, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, seniorPhone string) (*Entry, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+seniorPhone).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *RedisStore) Delete(ctx context.Context, seniorPhone string) error {
	return s.client.Del(ctx, redisKeyPrefix+seniorPhone).Err()
}

func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
