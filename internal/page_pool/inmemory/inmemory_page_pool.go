package inmemory

import (
	"sync/atomic"

	"github.com/AnishMulay/devcore/internal/log_service"
	"github.com/AnishMulay/devcore/internal/page_pool"
)

type InMemoryPagePool struct {
	limit     uint64
	allocated atomic.Uint64
	ls        log_service.LogService
}

// NewInMemoryPagePool creates a pool that allocates at most limit pages.
// A limit of 0 means unlimited.
func NewInMemoryPagePool(limit uint64, ls log_service.LogService) *InMemoryPagePool {
	return &InMemoryPagePool{
		limit: limit,
		ls:    ls,
	}
}

func (p *InMemoryPagePool) PageCount(bytes uint64) uint64 {
	return page_pool.Pages(bytes)
}

func (p *InMemoryPagePool) AllocatePage() (*page_pool.Page, error) {
	for {
		n := p.allocated.Load()
		if p.limit != 0 && n >= p.limit {
			p.ls.Warn(log_service.LogEvent{
				Message:  "Page pool exhausted",
				Metadata: map[string]any{"limit": p.limit},
			})
			return nil, page_pool.ErrOutOfPages
		}
		if p.allocated.CompareAndSwap(n, n+1) {
			break
		}
	}

	return new(page_pool.Page), nil
}

// Allocated reports how many pages have been handed out.
func (p *InMemoryPagePool) Allocated() uint64 {
	return p.allocated.Load()
}

var _ page_pool.PagePool = (*InMemoryPagePool)(nil)
