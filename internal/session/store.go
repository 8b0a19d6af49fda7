// Package session persists the portal's single "logged in" flag.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const Key = "coursemate_logged_in"

type Store interface {
	LoggedIn(ctx context.Context) (bool, error)
	SetLoggedIn(ctx context.Context, loggedIn bool) error
}

// MemoryStore keeps the flag for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	loggedIn bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoggedIn(context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn, nil
}

func (s *MemoryStore) SetLoggedIn(_ context.Context, loggedIn bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = loggedIn
	return nil
}

// RedisStore keeps the flag under Key. Logging out deletes the key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) LoggedIn(ctx context.Context) (bool, error) {
	val, err := s.client.Get(ctx, Key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session flag: %w", err)
	}
	return val == "true", nil
}

func (s *RedisStore) SetLoggedIn(ctx context.Context, loggedIn bool) error {
	var err error
	if loggedIn {
		err = s.client.Set(ctx, Key, "true", 0).Err()
	} else {
		err = s.client.Del(ctx, Key).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to write session flag: %w", err)
	}
	return nil
}
