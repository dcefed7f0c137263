package page_pool

const PageSize = 4096

type Page [PageSize]byte

// PagePool hands out page-sized buffers. Callers own the pages they receive.
type PagePool interface {
	PageCount(bytes uint64) uint64
	AllocatePage() (*Page, error)
}

// Pages returns the number of pages needed to hold bytes.
func Pages(bytes uint64) uint64 {
	return bytes/PageSize + min(bytes%PageSize, 1)
}
