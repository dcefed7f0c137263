package device_registry

import "errors"

var (
	// Registration errors
	ErrDeviceAlreadyExists = errors.New("device already exists")
	ErrDeviceNotFound      = errors.New("device not found")

	// Validation errors
	ErrInvalidDeviceName = errors.New("invalid device name")
	ErrInvalidDevice     = errors.New("device has no implementation")

	// Type errors
	ErrNotBlockDevice = errors.New("not a block device")
	ErrNotCharDevice  = errors.New("not a character device")
)
