package device_registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/AnishMulay/devcore/internal/log_service"
)

type InMemoryDeviceRegistry struct {
	mu      sync.RWMutex
	devices map[string]Device
	ls      log_service.LogService
}

func NewInMemoryDeviceRegistry(ls log_service.LogService) *InMemoryDeviceRegistry {
	return &InMemoryDeviceRegistry{
		devices: make(map[string]Device),
		ls:      ls,
	}
}

func (r *InMemoryDeviceRegistry) Register(dev Device) error {
	if strings.TrimSpace(dev.Name) == "" || strings.ContainsRune(dev.Name, '/') {
		return ErrInvalidDeviceName
	}
	if _, ok := dev.Block(); !ok {
		if _, ok := dev.Char(); !ok {
			return ErrInvalidDevice
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[dev.Name]; exists {
		r.ls.Warn(log_service.LogEvent{
			Message:  "Device already registered",
			Metadata: map[string]any{"device": dev.Name},
		})
		return ErrDeviceAlreadyExists
	}

	r.devices[dev.Name] = dev
	r.ls.Info(log_service.LogEvent{
		Message:  "Device registered",
		Metadata: map[string]any{"device": dev.Name, "kind": dev.Kind.String()},
	})
	return nil
}

func (r *InMemoryDeviceRegistry) Deregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[name]; !exists {
		return ErrDeviceNotFound
	}
	delete(r.devices, name)

	r.ls.Info(log_service.LogEvent{
		Message:  "Device deregistered",
		Metadata: map[string]any{"device": name},
	})
	return nil
}

func (r *InMemoryDeviceRegistry) Lookup(name string) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dev, ok := r.devices[name]
	if !ok {
		return Device{}, ErrDeviceNotFound
	}
	return dev, nil
}

// List returns all devices sorted by name.
func (r *InMemoryDeviceRegistry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, dev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *InMemoryDeviceRegistry) GetDeviceSize(name string) (uint64, error) {
	dev, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}

	block, ok := dev.Block()
	if !ok {
		return 0, ErrNotBlockDevice
	}
	return block.Size(), nil
}

var _ DeviceRegistry = (*InMemoryDeviceRegistry)(nil)
