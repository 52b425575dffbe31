/*
Package kv provides the per-visitor key/value storage that stands in for browser local storage.

Every browser install owns one namespace. Values are plain strings; presence or absence of a
key is the only state signal, so there is no encoding or versioning scheme.
*/
package kv

import (
	"context"
	"fmt"
	"sync"
)

// Store is a namespaced string key/value store.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, namespace, key string) (string, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, namespace, key, value string) error

	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, namespace string, keys ...string) error

	// Close releases backend resources.
	Close() error
}

// MemoryStore keeps everything in process memory. Used in development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, namespace, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[namespace][key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, namespace, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string]string)
		m.data[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, namespace string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.data[namespace]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(ns, k)
	}
	if len(ns) == 0 {
		delete(m.data, namespace)
	}
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Bucket binds a Store to a single namespace.
type Bucket struct {
	store     Store
	namespace string
}

func NewBucket(store Store, namespace string) *Bucket {
	return &Bucket{store: store, namespace: namespace}
}

// Namespace returns the visitor namespace this bucket reads and writes.
func (b *Bucket) Namespace() string {
	return b.namespace
}

// Get returns "" for a missing key.
func (b *Bucket) Get(ctx context.Context, key string) (string, error) {
	v, _, err := b.store.Get(ctx, b.namespace, key)
	if err != nil {
		return "", fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, nil
}

func (b *Bucket) Set(ctx context.Context, key, value string) error {
	if err := b.store.Set(ctx, b.namespace, key, value); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	if err := b.store.Delete(ctx, b.namespace, keys...); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}
