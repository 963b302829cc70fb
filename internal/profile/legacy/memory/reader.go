// Package memory is an in-process legacy Reader for tests and local runs.
package memory

import (
	"context"
	"sync"
)

type Reader struct {
	mu    sync.RWMutex
	items map[string]string
}

func New(items map[string]string) *Reader {
	r := &Reader{items: make(map[string]string, len(items))}
	for k, v := range items {
		r.items[k] = v
	}
	return r
}

func (r *Reader) GetItem(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[key]
	return v, ok, nil
}

// SetItem seeds a value.
func (r *Reader) SetItem(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = value
}
