package devlib

import (
	"errors"

	"github.com/AnishMulay/devcore/internal/communication"
)

var (
	ErrNotFound      = errors.New("device not found")
	ErrAlreadyExists = errors.New("device already exists")
	ErrBadRequest    = errors.New("request rejected by device server")
	ErrUnavailable   = errors.New("device server resource unavailable")
)

// DevClient issues device requests to one device server.
type DevClient struct {
	ServerAddr string
	Comm       communication.Communicator
	From       string
}

// BlockFile adapts a remote block device to io.ReaderAt and io.WriterAt.
type BlockFile struct {
	client *DevClient
	name   string
	size   uint64
}
