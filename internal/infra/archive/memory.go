package archive

import (
	"context"
	"sync"

	"github.com/yanqian/flat-price/internal/domain/valuation"
)

// MemoryArchive keeps samples in memory. Useful for tests and local dev.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// Object is one archived sample.
type Object struct {
	Data        []byte
	ContentType string
}

// NewMemoryArchive constructs the archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string]Object)}
}

// Put stores a copy of data under key.
func (a *MemoryArchive) Put(_ context.Context, key string, data []byte, contentType string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

// Object returns the sample stored under key.
func (a *MemoryArchive) Object(key string) (Object, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	obj, ok := a.objects[key]
	return obj, ok
}

// Len reports how many samples are held.
func (a *MemoryArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.objects)
}

var _ valuation.SampleArchive = (*MemoryArchive)(nil)
