// Package ioctl routes device control requests to the device they name.
package ioctl

import (
	"github.com/AnishMulay/devcore/internal/device_registry"
	"github.com/AnishMulay/devcore/internal/log_service"
)

type Request int

const (
	// GetBlkSize stores the size of a block device through a *uint64.
	GetBlkSize Request = iota + 1
)

func (r Request) String() string {
	switch r {
	case GetBlkSize:
		return "GET_BLK_SIZE"
	default:
		return "UNKNOWN"
	}
}

// ParseRequest maps a request name to its code.
func ParseRequest(name string) (Request, error) {
	switch name {
	case "GET_BLK_SIZE":
		return GetBlkSize, nil
	default:
		return 0, ErrInvalidRequest
	}
}

type Dispatcher struct {
	registry device_registry.DeviceRegistry
	ls       log_service.LogService
}

func NewDispatcher(registry device_registry.DeviceRegistry, ls log_service.LogService) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		ls:       ls,
	}
}

func (d *Dispatcher) Ioctl(device string, request Request, data any) error {
	switch request {
	case GetBlkSize:
		out, ok := data.(*uint64)
		if !ok || out == nil {
			return ErrInvalidData
		}
		size, err := d.registry.GetDeviceSize(device)
		if err != nil {
			return err
		}
		*out = size
		return nil
	}

	d.ls.Warn(log_service.LogEvent{
		Message:  "Unknown ioctl request",
		Metadata: map[string]any{"device": device, "request": int(request)},
	})
	return ErrInvalidRequest
}
