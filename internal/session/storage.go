package session

import (
	"context"
	"errors"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a session id is unknown or expired.
var ErrNoSession = errors.New("session: not found")

// Storage persists sessions by id.
type Storage interface {
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStorage keeps sessions in process.  Suitable for a single instance
// and for tests.
type MemoryStorage struct {
	mu   sync.Mutex
	now  func() time.Time
	data map[string]memoryEntry
}

type memoryEntry struct {
	s       Session
	expires time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{now: time.Now, data: map[string]memoryEntry{}}
}

func (m *MemoryStorage) Save(_ context.Context, s Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.ID] = memoryEntry{s: s, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStorage) Load(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[id]
	if !ok {
		return Session{}, ErrNoSession
	}
	if !m.now().Before(e.expires) {
		delete(m.data, id)
		return Session{}, ErrNoSession
	}
	return e.s, nil
}

func (m *MemoryStorage) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

// RedisStorage keeps sessions in Redis under prefix:<id> with a TTL, so
// several server instances share them.
type RedisStorage struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStorage(rdb *redis.Client, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "votemamu:session"
	}
	return &RedisStorage{rdb: rdb, prefix: prefix}
}

func (r *RedisStorage) key(id string) string { return r.prefix + ":" + id }

func (r *RedisStorage) Save(ctx context.Context, s Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(s.ID), raw, ttl).Err()
}

func (r *RedisStorage) Load(ctx context.Context, id string) (Session, error) {
	raw, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (r *RedisStorage) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.key(id)).Err()
}
