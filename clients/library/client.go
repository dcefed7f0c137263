package devlib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/AnishMulay/devcore/internal/communication"
	"github.com/AnishMulay/devcore/internal/device_registry"
	ps "github.com/AnishMulay/devcore/internal/server"
)

func NewDevClient(serverAddr string, comm communication.Communicator) *DevClient {
	return &DevClient{
		ServerAddr: serverAddr,
		Comm:       comm,
		From:       "devlib",
	}
}

func (c *DevClient) MakeDisk(ctx context.Context, name string, size uint64) (device_registry.DeviceInfo, error) {
	var info device_registry.DeviceInfo
	err := c.call(ctx, "make disk", name, ps.MsgMakeDisk, ps.MakeDiskRequest{Name: name, Size: size}, &info)
	return info, err
}

func (c *DevClient) ListDevices(ctx context.Context) ([]device_registry.DeviceInfo, error) {
	var res ps.ListDevicesResponse
	if err := c.call(ctx, "list devices", "", ps.MsgListDevices, ps.ListDevicesRequest{}, &res); err != nil {
		return nil, err
	}
	return res.Devices, nil
}

// BlkSize returns the size of a block device via GET_BLK_SIZE.
func (c *DevClient) BlkSize(ctx context.Context, device string) (uint64, error) {
	var res ps.IoctlResponse
	req := ps.IoctlRequest{Device: device, Request: "GET_BLK_SIZE"}
	if err := c.call(ctx, "ioctl", device, ps.MsgIoctl, req, &res); err != nil {
		return 0, err
	}
	return res.Value, nil
}

func (c *DevClient) BlkRead(ctx context.Context, device string, offset uint64, length int) ([]byte, error) {
	var res ps.BlkReadResponse
	req := ps.BlkReadRequest{Device: device, Offset: offset, Length: length}
	if err := c.call(ctx, "read", device, ps.MsgBlkRead, req, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *DevClient) BlkWrite(ctx context.Context, device string, offset uint64, data []byte) (int, error) {
	var res ps.BlkWriteResponse
	req := ps.BlkWriteRequest{Device: device, Offset: offset, Data: data}
	if err := c.call(ctx, "write", device, ps.MsgBlkWrite, req, &res); err != nil {
		return 0, err
	}
	return res.Written, nil
}

// SendScancodes delivers raw scancodes to the active terminal.
func (c *DevClient) SendScancodes(ctx context.Context, codes []byte) error {
	return c.call(ctx, "input", "", ps.MsgTTYInput, ps.TTYInputRequest{Codes: codes}, nil)
}

// Type types text on the active terminal.
func (c *DevClient) Type(ctx context.Context, text string) error {
	return c.call(ctx, "type", "", ps.MsgTTYType, ps.TTYTypeRequest{Text: text}, nil)
}

// ReadTTY waits up to timeoutMs for input on a terminal. A zero timeout
// waits as long as ctx allows.
func (c *DevClient) ReadTTY(ctx context.Context, device string, max int, timeoutMs int) (string, error) {
	var res ps.TTYReadResponse
	req := ps.TTYReadRequest{Device: device, Max: max, TimeoutMs: timeoutMs}
	if err := c.call(ctx, "tty read", device, ps.MsgTTYRead, req, &res); err != nil {
		return "", err
	}
	return res.Data, nil
}

// SwitchTTY makes terminal id the active one. A non-nil canonical also sets
// its line discipline mode.
func (c *DevClient) SwitchTTY(ctx context.Context, id int, canonical *bool) error {
	return c.call(ctx, "tty switch", fmt.Sprintf("tty%d", id), ps.MsgTTYSwitch, ps.TTYSwitchRequest{Terminal: id, Canonical: canonical}, nil)
}

// OpenBlock returns a BlockFile for a block device, sized by GET_BLK_SIZE.
func (c *DevClient) OpenBlock(ctx context.Context, device string) (*BlockFile, error) {
	size, err := c.BlkSize(ctx, device)
	if err != nil {
		return nil, err
	}
	return &BlockFile{client: c, name: device, size: size}, nil
}

func (f *BlockFile) Name() string {
	return f.name
}

func (f *BlockFile) Size() uint64 {
	return f.size
}

// ReadAt reads len(p) bytes at off, split into bounded transfers. Reads that
// cross the end of the device return the available bytes and io.EOF.
func (f *BlockFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("read %q: negative offset", f.name)
	}
	if uint64(off) >= f.size {
		return 0, io.EOF
	}

	want := p
	if remaining := f.size - uint64(off); uint64(len(want)) > remaining {
		want = want[:remaining]
	}

	n := 0
	for n < len(want) {
		chunk := min(len(want)-n, ps.MaxTransferSize)
		data, err := f.client.BlkRead(context.Background(), f.name, uint64(off)+uint64(n), chunk)
		if err != nil {
			return n, err
		}
		n += copy(want[n:], data)
		if len(data) < chunk {
			break
		}
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes p at off, split into bounded transfers.
func (f *BlockFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("write %q: negative offset", f.name)
	}

	n := 0
	for n < len(p) {
		chunk := min(len(p)-n, ps.MaxTransferSize)
		written, err := f.client.BlkWrite(context.Background(), f.name, uint64(off)+uint64(n), p[n:n+chunk])
		n += written
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *DevClient) call(ctx context.Context, op, target, msgType string, payload any, out any) error {
	if c == nil || c.Comm == nil {
		return fmt.Errorf("device client is not connected")
	}
	if c.ServerAddr == "" {
		return fmt.Errorf("device server address is empty")
	}

	resp, err := c.Comm.Send(ctx, c.ServerAddr, communication.Message{
		From:    c.From,
		Type:    msgType,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("%s %q failed: %w", op, target, err)
	}
	if resp.Code != communication.CodeOK {
		return responseError(op, target, resp)
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode %s response for %q: %w", op, target, err)
	}
	return nil
}

func responseError(op string, target string, resp *communication.Response) error {
	body := strings.TrimSpace(string(resp.Body))
	if body == "" {
		body = string(resp.Code)
	}

	switch resp.Code {
	case communication.CodeNotFound:
		return fmt.Errorf("%s %q: %w", op, target, ErrNotFound)
	case communication.CodeAlreadyExists:
		return fmt.Errorf("%s %q: %w", op, target, ErrAlreadyExists)
	case communication.CodeBadRequest:
		return fmt.Errorf("%s %q: %w: %s", op, target, ErrBadRequest, body)
	case communication.CodeUnavailable:
		return fmt.Errorf("%s %q: %w: %s", op, target, ErrUnavailable, body)
	default:
		return fmt.Errorf("%s %q failed (%s): %s", op, target, resp.Code, body)
	}
}

var (
	_ io.ReaderAt = (*BlockFile)(nil)
	_ io.WriterAt = (*BlockFile)(nil)
)
