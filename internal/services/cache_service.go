package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pawtraits/internal/utils"
	"pawtraits/pkg/cache"
	"pawtraits/pkg/logger"
)

var ErrLockNotAcquired = errors.New("failed to acquire lock")

type CacheService interface {
	// Basic cache operations
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) (int64, error)

	// Lock operations
	Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error)
	Unlock(ctx context.Context, lock *DistributedLock) error

	// Pub/Sub operations
	Publish(ctx context.Context, channel string, message interface{}) error
}

// CacheBackend is the subset of *cache.RedisCache the service needs.
type CacheBackend interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	DeletePattern(ctx context.Context, pattern string) (int64, error)
	Publish(ctx context.Context, channel string, message interface{}) error
}

type DistributedLock struct {
	Key        string        `json:"key"`
	Value      string        `json:"value"`
	Expiration time.Duration `json:"expiration"`
	CreatedAt  time.Time     `json:"created_at"`
}

type cacheService struct {
	backend    CacheBackend
	logger     *logger.Logger
	defaultTTL time.Duration

	// process-local locks, used only without a backend
	mu    sync.Mutex
	local map[string]time.Time
}

// NewCacheService wraps backend. A nil backend yields a cache that always misses and
// never fails writes. Its locks only exclude holders within this process.
func NewCacheService(backend CacheBackend, log *logger.Logger, defaultTTL time.Duration) CacheService {
	return &cacheService{
		backend:    backend,
		logger:     log,
		defaultTTL: defaultTTL,
		local:      make(map[string]time.Time),
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if s.backend == nil {
		return cache.ErrCacheMiss
	}

	if err := s.backend.Get(ctx, key, dest); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).WithField("cache_key", key).Warn("Cache read failed")
		}
		return err
	}

	s.logger.WithField("cache_key", key).Debug("Cache hit")
	return nil
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if s.backend == nil {
		return nil
	}

	if expiration == 0 {
		expiration = s.defaultTTL
	}

	if err := s.backend.Set(ctx, key, value, expiration); err != nil {
		s.logger.WithError(err).WithField("cache_key", key).Warn("Cache write failed")
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	if s.backend == nil || len(keys) == 0 {
		return nil
	}
	return s.backend.Delete(ctx, keys...)
}

func (s *cacheService) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	if s.backend == nil {
		return 0, nil
	}
	return s.backend.DeletePattern(ctx, pattern)
}

func (s *cacheService) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := utils.GenerateRandomString(32)

	if s.backend != nil {
		success, err := s.backend.SetNX(ctx, lockKey, lockValue, expiration)
		if err != nil {
			return nil, err
		}
		if !success {
			return nil, ErrLockNotAcquired
		}
	} else if !s.lockLocal(lockKey, expiration) {
		return nil, ErrLockNotAcquired
	}

	return &DistributedLock{
		Key:        lockKey,
		Value:      lockValue,
		Expiration: expiration,
		CreatedAt:  time.Now(),
	}, nil
}

// Unlock deletes the lock key. A lock that outlived its expiration may already belong
// to another holder, so callers keep the critical section well inside the expiration.
func (s *cacheService) Unlock(ctx context.Context, lock *DistributedLock) error {
	if lock == nil {
		return nil
	}
	if s.backend == nil {
		s.mu.Lock()
		delete(s.local, lock.Key)
		s.mu.Unlock()
		return nil
	}
	return s.Delete(ctx, lock.Key)
}

func (s *cacheService) lockLocal(key string, expiration time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if until, held := s.local[key]; held && now.Before(until) {
		return false
	}
	s.local[key] = now.Add(expiration)
	return true
}

func (s *cacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Publish(ctx, channel, message)
}
