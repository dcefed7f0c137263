// Package ramdisk implements a sparse, page-backed in-memory block device.
// Pages are materialized on first write; unwritten ranges read as zero.
package ramdisk

import (
	"fmt"
	"sync"

	"github.com/AnishMulay/devcore/internal/log_service"
	"github.com/AnishMulay/devcore/internal/page_pool"
	"github.com/google/uuid"
)

type Disk struct {
	id      int
	serial  uuid.UUID
	maxSize uint64

	mu    sync.RWMutex
	pages []*page_pool.Page // nil until first written

	pool page_pool.PagePool
	ls   log_service.LogService
}

func newDisk(id int, maxSize uint64, pool page_pool.PagePool, ls log_service.LogService) *Disk {
	return &Disk{
		id:      id,
		serial:  uuid.New(),
		maxSize: maxSize,
		pages:   make([]*page_pool.Page, pool.PageCount(maxSize)),
		pool:    pool,
		ls:      ls,
	}
}

func (d *Disk) ID() int {
	return d.id
}

func (d *Disk) Serial() string {
	return d.serial.String()
}

func (d *Disk) Size() uint64 {
	return d.maxSize
}

func (d *Disk) PageCount() int {
	return len(d.pages)
}

// AllocatedPages counts the pages that have been materialized by writes.
func (d *Disk) AllocatedPages() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, p := range d.pages {
		if p != nil {
			n++
		}
	}
	return n
}

func (d *Disk) inBounds(count int, offset uint64) bool {
	c := uint64(count)
	return c <= d.maxSize && offset <= d.maxSize-c
}

// Read fills dst with the bytes starting at offset.
func (d *Disk) Read(dst []byte, offset uint64) (int, error) {
	if !d.inBounds(len(dst), offset) {
		d.ls.Error(log_service.LogEvent{
			Message:  "ramdisk: Tried to read too far",
			Metadata: map[string]any{"disk": d.id, "offset": offset, "count": len(dst), "size": d.maxSize},
		})
		return 0, ErrInvalidOffset
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	read := 0
	for read < len(dst) {
		page := offset / page_pool.PageSize
		pageOffset := offset % page_pool.PageSize
		toRead := min(page_pool.PageSize-pageOffset, uint64(len(dst)-read))

		chunk := dst[read : read+int(toRead)]
		if p := d.pages[page]; p == nil {
			clear(chunk)
		} else {
			copy(chunk, p[pageOffset:])
		}

		read += int(toRead)
		offset += toRead
	}

	return read, nil
}

// Write copies src to the disk at offset, allocating zeroed pages for any
// range that has never been written. On allocation failure the bytes copied
// so far stay on the disk.
func (d *Disk) Write(src []byte, offset uint64) (int, error) {
	if !d.inBounds(len(src), offset) {
		d.ls.Error(log_service.LogEvent{
			Message:  "ramdisk: Tried to write too far",
			Metadata: map[string]any{"disk": d.id, "offset": offset, "count": len(src), "size": d.maxSize},
		})
		return 0, ErrInvalidOffset
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	written := 0
	for written < len(src) {
		page := offset / page_pool.PageSize
		pageOffset := offset % page_pool.PageSize

		if d.pages[page] == nil {
			p, err := d.pool.AllocatePage()
			if err != nil {
				d.ls.Error(log_service.LogEvent{
					Message:  "ramdisk: Failed to allocate page",
					Metadata: map[string]any{"disk": d.id, "page": page, "error": err.Error()},
				})
				return written, fmt.Errorf("%w: %w", ErrPageAllocFailed, err)
			}

			// pages may come back from the pool with stale contents
			*p = page_pool.Page{}
			d.pages[page] = p

			d.ls.Debug(log_service.LogEvent{
				Message:  "ramdisk: Allocated page",
				Metadata: map[string]any{"disk": d.id, "page": page},
			})
		}

		toWrite := min(page_pool.PageSize-pageOffset, uint64(len(src)-written))
		copy(d.pages[page][pageOffset:], src[written:written+int(toWrite)])

		written += int(toWrite)
		offset += toWrite
	}

	return written, nil
}
