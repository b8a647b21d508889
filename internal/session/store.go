// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package session

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"
)

// ErrNotFound is returned by a Store when no live record exists for a key.
var ErrNotFound = errors.New("session not found")

// Store persists session attributes by key.
type Store interface {
	// Load returns the attributes stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) (map[string]string, error)

	// Save replaces the attributes under key. The record expires after ttl.
	Save(ctx context.Context, key string, values map[string]string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

type memoryRecord struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore is a process-local Store for tests and single-instance
// deployments.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

// Load implements Store. Expired records are dropped on access.
func (s *MemoryStore) Load(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.now().Before(rec.expiresAt) {
		delete(s.records, key)
		return nil, ErrNotFound
	}
	return maps.Clone(rec.values), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, key string, values map[string]string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = memoryRecord{
		values:    maps.Clone(values),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Len returns the number of records, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var _ Store = (*MemoryStore)(nil)
