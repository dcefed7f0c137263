package ramdisk

import (
	"fmt"
	"sync"

	"github.com/AnishMulay/devcore/internal/log_service"
	"github.com/AnishMulay/devcore/internal/page_pool"
)

const (
	MaxRamdisk = 3

	// DefaultMaxDiskSize bounds a single disk so its page table stays small.
	DefaultMaxDiskSize uint64 = 1 << 30
)

// Pool is a fixed-capacity set of ramdisks. Disks are handed out in order
// and live as long as the pool.
type Pool struct {
	mu          sync.Mutex
	disks       []*Disk
	capacity    int
	maxDiskSize uint64
	pages       page_pool.PagePool
	ls          log_service.LogService
}

func NewPool(capacity int, pages page_pool.PagePool, ls log_service.LogService) *Pool {
	if capacity <= 0 {
		capacity = MaxRamdisk
	}
	return &Pool{
		disks:       make([]*Disk, 0, capacity),
		capacity:    capacity,
		maxDiskSize: DefaultMaxDiskSize,
		pages:       pages,
		ls:          ls,
	}
}

func (p *Pool) Capacity() int {
	return p.capacity
}

// SetMaxDiskSize changes the largest size MakeDisk accepts. Zero restores
// the default.
func (p *Pool) SetMaxDiskSize(size uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if size == 0 {
		size = DefaultMaxDiskSize
	}
	p.maxDiskSize = size
}

func (p *Pool) MaxDiskSize() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxDiskSize
}

// MakeDisk takes the next free slot for a disk of maxSize bytes. No page is
// allocated until the disk is written.
func (p *Pool) MakeDisk(maxSize uint64) (*Disk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if maxSize > p.maxDiskSize {
		p.ls.Warn(log_service.LogEvent{
			Message:  "ramdisk: Requested disk is too large",
			Metadata: map[string]any{"requestedSize": maxSize, "maxSize": p.maxDiskSize},
		})
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidSize, maxSize, p.maxDiskSize)
	}

	if len(p.disks) == p.capacity {
		p.ls.Warn(log_service.LogEvent{
			Message:  "ramdisk: No free disk slot",
			Metadata: map[string]any{"capacity": p.capacity, "requestedSize": maxSize},
		})
		return nil, ErrPoolExhausted
	}

	disk := newDisk(len(p.disks), maxSize, p.pages, p.ls)
	p.disks = append(p.disks, disk)

	p.ls.Info(log_service.LogEvent{
		Message:  "ramdisk: Created disk",
		Metadata: map[string]any{"disk": disk.id, "size": maxSize, "pages": disk.PageCount(), "serial": disk.Serial()},
	})

	return disk, nil
}

func (p *Pool) Get(id int) (*Disk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id < 0 || id >= len(p.disks) {
		return nil, ErrDiskNotFound
	}
	return p.disks[id], nil
}

func (p *Pool) Disks() []*Disk {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Disk, len(p.disks))
	copy(out, p.disks)
	return out
}
