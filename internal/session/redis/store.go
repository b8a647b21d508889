// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

// Package redis implements session.Store on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/yaug/yaug/internal/session"
)

// DefaultPrefix namespaces session keys.
const DefaultPrefix = "yaug:session"

// Store keeps each session as a JSON object under prefix:key with a TTL.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

// NewStore creates a Store. An empty prefix selects DefaultPrefix.
func NewStore(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(key string) string {
	return s.prefix + ":" + key
}

// Load implements session.Store.
func (s *Store) Load(ctx context.Context, key string) (map[string]string, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, oops.Code("SESSION_REDIS_FAILED").With("operation", "get").Wrap(err)
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, oops.Code("SESSION_RECORD_CORRUPT").Wrap(err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

// Save implements session.Store.
func (s *Store) Save(ctx context.Context, key string, values map[string]string, ttl time.Duration) error {
	data, err := json.Marshal(values)
	if err != nil {
		return oops.Code("SESSION_RECORD_CORRUPT").Wrap(err)
	}
	if err := s.client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return oops.Code("SESSION_REDIS_FAILED").With("operation", "set").Wrap(err)
	}
	return nil
}

// Delete implements session.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return oops.Code("SESSION_REDIS_FAILED").With("operation", "del").Wrap(err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return oops.Code("SESSION_REDIS_FAILED").With("operation", "ping").Wrap(err)
	}
	return nil
}

var _ session.Store = (*Store)(nil)
