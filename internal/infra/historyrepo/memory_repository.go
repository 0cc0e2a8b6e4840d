package historyrepo

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/yanqian/flat-price/internal/domain/valuation"
)

// MemoryRepository keeps prediction history in process memory for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []valuation.Record
	limit   int
}

// NewMemoryRepository constructs a repository retaining at most limit records
// (0 keeps everything).
func NewMemoryRepository(limit int) *MemoryRepository {
	return &MemoryRepository{limit: limit}
}

// Record appends the record, evicting the oldest beyond the retention limit.
func (r *MemoryRepository) Record(_ context.Context, record valuation.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	if r.limit > 0 && len(r.records) > r.limit {
		r.records = r.records[len(r.records)-r.limit:]
	}
	return nil
}

// Recent returns records newest first.
func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]valuation.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]valuation.Record, 0, len(r.records))
	for i := len(r.records) - 1; i >= 0; i-- {
		out = append(out, r.records[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Nearest ranks records by euclidean distance over the feature vectors.
func (r *MemoryRepository) Nearest(_ context.Context, vector []float32, k int) ([]valuation.Comparable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]valuation.Comparable, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, valuation.Comparable{
			Record:   record,
			Distance: euclidean(vector, record.Features.Vector()),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func euclidean(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

var _ valuation.HistoryRepository = (*MemoryRepository)(nil)
