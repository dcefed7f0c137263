package device_registry

import "context"

type Kind int

const (
	KindBlock Kind = iota
	KindChar
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindChar:
		return "char"
	default:
		return "unknown"
	}
}

// BlockDevice is the contract upper I/O layers use for random access storage.
type BlockDevice interface {
	Read(dst []byte, offset uint64) (int, error)
	Write(src []byte, offset uint64) (int, error)
	Size() uint64
}

// CharDevice is a stream device such as a terminal.
type CharDevice interface {
	ReadInput(ctx context.Context, buf []byte) (int, error)
	Write(p []byte) (int, error)
}

type serialer interface {
	Serial() string
}

// Device is the generic descriptor stored in the registry. The concrete
// device is recovered through Block or Char, never by reinterpretation.
type Device struct {
	Name  string
	Kind  Kind
	block BlockDevice
	char  CharDevice
}

type DeviceInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Size   uint64 `json:"size,omitempty"`
	Serial string `json:"serial,omitempty"`
}

func NewBlockDevice(name string, dev BlockDevice) Device {
	return Device{Name: name, Kind: KindBlock, block: dev}
}

func NewCharDevice(name string, dev CharDevice) Device {
	return Device{Name: name, Kind: KindChar, char: dev}
}

func (d Device) Block() (BlockDevice, bool) {
	return d.block, d.Kind == KindBlock && d.block != nil
}

func (d Device) Char() (CharDevice, bool) {
	return d.char, d.Kind == KindChar && d.char != nil
}

func (d Device) Info() DeviceInfo {
	info := DeviceInfo{Name: d.Name, Kind: d.Kind.String()}

	var impl any = d.char
	if b, ok := d.Block(); ok {
		info.Size = b.Size()
		impl = b
	}
	if s, ok := impl.(serialer); ok {
		info.Serial = s.Serial()
	}
	return info
}

type DeviceRegistry interface {
	Register(dev Device) error
	Deregister(name string) error
	Lookup(name string) (Device, error)
	List() []Device
	GetDeviceSize(name string) (uint64, error)
}
