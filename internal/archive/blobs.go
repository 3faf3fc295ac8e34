package archive

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

// EntityStore holds raw bytes by key.
type EntityStore interface {
	Put(key string, r io.Reader) (int64, error)
	Open(key string) (io.ReadCloser, error)
	Exists(key string) (bool, error)
	Delete(key string) error
}

// MetadataStore is an EntityStore that can enumerate its values.
type MetadataStore interface {
	EntityStore
	Walk(fn func(r io.Reader) error) error
}

// memoryBlobs is the in-process EntityStore and MetadataStore.
type memoryBlobs struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{blobs: make(map[string][]byte)}
}

func (m *memoryBlobs) Put(key string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	m.mu.Lock()
	m.blobs[key] = data
	m.mu.Unlock()
	return int64(len(data)), nil
}

func (m *memoryBlobs) Open(key string) (io.ReadCloser, error) {
	m.mu.RLock()
	data, ok := m.blobs[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, services.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBlobs) Exists(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *memoryBlobs) Delete(key string) error {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryBlobs) Walk(fn func(r io.Reader) error) error {
	m.mu.RLock()
	values := make([][]byte, 0, len(m.blobs))
	for _, v := range m.blobs {
		values = append(values, v)
	}
	m.mu.RUnlock()
	for _, v := range values {
		if err := fn(bytes.NewReader(v)); err != nil {
			return err
		}
	}
	return nil
}
