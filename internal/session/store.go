package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Store persists session records and per-session chat turn locks.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) error
	// AcquireTurn takes the turn lock for id under owner. It reports false
	// when another owner holds it.
	AcquireTurn(ctx context.Context, id, owner string) (bool, error)
	// ReleaseTurn drops the turn lock for id only while owner still holds it.
	ReleaseTurn(ctx context.Context, id, owner string) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	recordPrefix = "isoone:session:"
	turnPrefix   = "isoone:turn:"
)

var releaseTurn = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisStore struct {
	client  *redis.Client
	ttl     time.Duration
	turnTTL time.Duration
}

// NewRedisStore creates a Store backed by the redis server at redisURL.
// No connection is made until the first command.
func NewRedisStore(redisURL string, ttl, turnTTL time.Duration) (Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &redisStore{
		client:  redis.NewClient(opts),
		ttl:     ttl,
		turnTTL: turnTTL,
	}, nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*Record, error) {
	key := recordPrefix + id
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("refresh session ttl: %w", err)
	}
	return &rec, nil
}

func (s *redisStore) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return ErrInvalidID
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, recordPrefix+rec.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, recordPrefix+id, turnPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *redisStore) AcquireTurn(ctx context.Context, id, owner string) (bool, error) {
	ok, err := s.client.SetNX(ctx, turnPrefix+id, owner, s.turnTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire turn: %w", err)
	}
	return ok, nil
}

func (s *redisStore) ReleaseTurn(ctx context.Context, id, owner string) error {
	if err := releaseTurn.Run(ctx, s.client, []string{turnPrefix + id}, owner).Err(); err != nil {
		return fmt.Errorf("release turn: %w", err)
	}
	return nil
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

type memoryStore struct {
	records *cache.Cache
	turns   *cache.Cache
	turnMu  sync.Mutex
	turnTTL time.Duration
}

// NewMemoryStore creates a process-local Store. Records are held as encoded
// bytes so callers never share a *Record.
func NewMemoryStore(ttl, turnTTL time.Duration) Store {
	return &memoryStore{
		records: cache.New(ttl, 10*time.Minute),
		turns:   cache.New(turnTTL, time.Minute),
		turnTTL: turnTTL,
	}
}

func (s *memoryStore) Get(ctx context.Context, id string) (*Record, error) {
	v, found := s.records.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	data := v.([]byte)

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	s.records.Set(id, data, cache.DefaultExpiration)
	return &rec, nil
}

func (s *memoryStore) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return ErrInvalidID
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.records.Set(rec.ID, data, cache.DefaultExpiration)
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.records.Delete(id)
	s.turns.Delete(id)
	return nil
}

func (s *memoryStore) AcquireTurn(ctx context.Context, id, owner string) (bool, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	if err := s.turns.Add(id, owner, s.turnTTL); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *memoryStore) ReleaseTurn(ctx context.Context, id, owner string) error {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	if v, found := s.turns.Get(id); found && v.(string) == owner {
		s.turns.Delete(id)
	}
	return nil
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *memoryStore) Close() error {
	s.records.Flush()
	s.turns.Flush()
	return nil
}
