package filter

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/serroba/short-links/internal/shortener"
)

// DefaultFalsePositiveRate is used when sizing the filter from a capacity.
const DefaultFalsePositiveRate = 0.001

// CodeFilter is a mutex-guarded bloom filter of codes handed out.
// A positive Test means "possibly taken"; a negative one is definite.
type CodeFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

func NewCodeFilter(capacity uint, fpRate float64) *CodeFilter {
	return &CodeFilter{
		filter: bloom.NewWithEstimates(capacity, fpRate),
	}
}

func (f *CodeFilter) Add(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.filter.AddString(code)
}

func (f *CodeFilter) Test(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.filter.TestString(code)
}

// Warm adds every active code of repo and returns how many were loaded.
func (f *CodeFilter) Warm(ctx context.Context, repo shortener.Repository) (int, error) {
	codes, err := repo.ListCodes(ctx)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, code := range codes {
		f.filter.AddString(string(code))
	}

	return len(codes), nil
}

// ApproximateSize estimates the number of distinct codes added.
func (f *CodeFilter) ApproximateSize() uint32 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.filter.ApproximatedSize()
}

var _ shortener.SeenFilter = (*CodeFilter)(nil)
