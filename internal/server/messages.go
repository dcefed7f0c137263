package server

import "github.com/AnishMulay/devcore/internal/device_registry"

// Message Type Constants
const (
	// Block device operations
	MsgMakeDisk    = "devio_make_disk"
	MsgListDevices = "devio_list_devices"
	MsgIoctl       = "devio_ioctl"
	MsgBlkRead     = "devio_blk_read"
	MsgBlkWrite    = "devio_blk_write"

	// Terminal operations
	MsgTTYInput  = "devio_tty_input"
	MsgTTYType   = "devio_tty_type"
	MsgTTYRead   = "devio_tty_read"
	MsgTTYSwitch = "devio_tty_switch"
)

// MaxTransferSize bounds the data moved by a single block or terminal read.
const MaxTransferSize = 1 << 20

// --- Payload Structs ---

// MakeDiskRequest creates a ramdisk. An empty Name registers it as ram<id>.
type MakeDiskRequest struct {
	Name string `json:"name,omitempty"`
	Size uint64 `json:"size"`
}

type ListDevicesRequest struct{}

type IoctlRequest struct {
	Device  string `json:"device"`
	Request string `json:"request"`
}

type IoctlResponse struct {
	Value uint64 `json:"value"`
}

type BlkReadRequest struct {
	Device string `json:"device"`
	Offset uint64 `json:"offset"`
	Length int    `json:"length"`
}

type BlkReadResponse struct {
	Data []byte `json:"data"`
}

type BlkWriteRequest struct {
	Device string `json:"device"`
	Offset uint64 `json:"offset"`
	Data   []byte `json:"data"`
}

type BlkWriteResponse struct {
	Written int `json:"written"`
}

// TTYInputRequest delivers raw scancodes to the active terminal.
type TTYInputRequest struct {
	Codes []byte `json:"codes"`
}

// TTYTypeRequest types text on the active terminal using the US layout.
type TTYTypeRequest struct {
	Text string `json:"text"`
}

type TTYReadRequest struct {
	Device    string `json:"device"`
	Max       int    `json:"max"`
	TimeoutMs int    `json:"timeoutMs,omitempty"`
}

type TTYReadResponse struct {
	Data string `json:"data"`
}

type TTYSwitchRequest struct {
	Terminal  int   `json:"terminal"`
	Canonical *bool `json:"canonical,omitempty"`
}

type ListDevicesResponse struct {
	Devices []device_registry.DeviceInfo `json:"devices"`
}
