// Package blobstore provides an in-memory model.BlobStore used for
// ephemeral sessions and tests.
package blobstore

import (
	"maps"
	"slices"
	"sync"
)

// Memory is a map-backed blob store. Values are copied on the way in and out.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemory returns an empty store, optionally seeded with blobs.
func NewMemory(seed map[string][]byte) *Memory {
	m := &Memory{blobs: make(map[string][]byte, len(seed))}
	for k, v := range seed {
		m.blobs[k] = slices.Clone(v)
	}
	return m
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// Keys lists the stored keys in lexical order.
func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.blobs)), nil
}
