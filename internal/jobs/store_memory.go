// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package jobs

import (
	"context"
	"sync"
)

// MemoryStore keeps statuses in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[string]Status)}
}

func (s *MemoryStore) Get(_ context.Context, url string) (Status, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[url]
	return st, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, url string, st Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[url] = st
	return nil
}

func (s *MemoryStore) Len(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.statuses), nil
}

func (s *MemoryStore) Close() error { return nil }
