package ramdisk

import "errors"

var (
	// I/O errors
	ErrInvalidOffset   = errors.New("invalid offset")
	ErrPageAllocFailed = errors.New("failed to allocate ramdisk page")

	// Pool errors
	ErrPoolExhausted = errors.New("ramdisk pool exhausted")
	ErrDiskNotFound  = errors.New("ramdisk not found")
	ErrInvalidSize   = errors.New("invalid ramdisk size")
)
