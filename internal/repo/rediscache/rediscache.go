// Package rediscache wraps an AlertStore with a Redis read-through cache
// for Get. Writes evict the cached copy, go to the backing store and then
// refresh the cache; cache errors are logged and never fail the call.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hamed0406/alertledger/internal/domain"
	"github.com/hamed0406/alertledger/internal/repo"
)

const keyPrefix = "alert:"

var _ repo.AlertStore = (*Store)(nil)

type Store struct {
	next   repo.AlertStore
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// New parses a redis:// URL and wraps next.
func New(ctx context.Context, next repo.AlertStore, url string, ttl time.Duration, log *zap.Logger) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return Wrap(next, client, ttl, log), nil
}

func Wrap(next repo.AlertStore, client *redis.Client, ttl time.Duration, log *zap.Logger) *Store {
	return &Store{next: next, client: client, ttl: ttl, log: log}
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) List(ctx context.Context) ([]domain.Alert, error) {
	return s.next.List(ctx)
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+id).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	return s.next.Exists(ctx, id)
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Alert, error) {
	val, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	switch {
	case err == nil:
		var a domain.Alert
		if jerr := json.Unmarshal(val, &a); jerr == nil {
			return &a, nil
		}
		s.log.Warn("alert_cache_corrupt", zap.String("id", id))
	case !errors.Is(err, redis.Nil):
		s.log.Warn("alert_cache_get_error", zap.String("id", id), zap.Error(err))
	}

	a, err := s.next.Get(ctx, id)
	if err != nil || a == nil {
		return a, err
	}
	s.put(ctx, a)
	return a, nil
}

func (s *Store) Upsert(ctx context.Context, a *domain.Alert) (*domain.Alert, error) {
	s.evict(ctx, a.ID)
	out, err := s.next.Upsert(ctx, a)
	if err != nil || out == nil {
		return out, err
	}
	s.put(ctx, out)
	return out, nil
}

func (s *Store) Insert(ctx context.Context, a *domain.Alert) error {
	s.evict(ctx, a.ID)
	if err := s.next.Insert(ctx, a); err != nil {
		return err
	}
	s.put(ctx, a)
	return nil
}

// put caches a. A copy that cannot be written is evicted so a later Get
// never serves an older version than the backing store holds.
func (s *Store) put(ctx context.Context, a *domain.Alert) {
	data, err := json.Marshal(a)
	if err == nil {
		err = s.client.Set(ctx, keyPrefix+a.ID, data, s.ttl).Err()
	}
	if err != nil {
		s.log.Warn("alert_cache_set_error", zap.String("id", a.ID), zap.Error(err))
		s.evict(ctx, a.ID)
	}
}

func (s *Store) evict(ctx context.Context, id string) {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		s.log.Warn("alert_cache_del_error", zap.String("id", id), zap.Error(err))
	}
}
