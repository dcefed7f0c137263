package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/AnishMulay/devcore/internal/communication"
	"github.com/AnishMulay/devcore/internal/device_registry"
	"github.com/AnishMulay/devcore/internal/ioctl"
	"github.com/AnishMulay/devcore/internal/keyboard"
	"github.com/AnishMulay/devcore/internal/log_service"
	"github.com/AnishMulay/devcore/internal/page_pool"
	"github.com/AnishMulay/devcore/internal/ramdisk"
	ps "github.com/AnishMulay/devcore/internal/server"
	"github.com/AnishMulay/devcore/internal/terminal"
)

type DeviceServer struct {
	comm      communication.Communicator
	disks     *ramdisk.Pool
	registry  device_registry.DeviceRegistry
	dispatch  *ioctl.Dispatcher
	terminals *terminal.Pool
	ls        log_service.LogService
}

func NewDeviceServer(
	comm communication.Communicator,
	disks *ramdisk.Pool,
	registry device_registry.DeviceRegistry,
	terminals *terminal.Pool,
	ls log_service.LogService,
) *DeviceServer {
	return &DeviceServer{
		comm:      comm,
		disks:     disks,
		registry:  registry,
		dispatch:  ioctl.NewDispatcher(registry, ls),
		terminals: terminals,
		ls:        ls,
	}
}

func (s *DeviceServer) Start() error {
	s.ls.Info(log_service.LogEvent{Message: "Starting device server"})

	for _, term := range s.terminals.Terminals() {
		name := fmt.Sprintf("tty%d", term.ID())
		if _, err := s.registry.Lookup(name); err == nil {
			continue
		}
		if err := s.registry.Register(device_registry.NewCharDevice(name, term)); err != nil {
			s.ls.Error(log_service.LogEvent{
				Message:  "Failed to register terminal",
				Metadata: map[string]any{"device": name, "error": err.Error()},
			})
			return fmt.Errorf("%w: %w", ps.ErrServerStartFailed, err)
		}
	}

	s.registerPayloads()

	if err := s.comm.Start(s.handleMessage); err != nil {
		return fmt.Errorf("%w: %w", ps.ErrServerStartFailed, err)
	}

	s.ls.Info(log_service.LogEvent{
		Message:  "Device server started",
		Metadata: map[string]any{"address": s.comm.Address()},
	})
	return nil
}

func (s *DeviceServer) Stop() error {
	s.ls.Info(log_service.LogEvent{Message: "Stopping device server"})
	if err := s.comm.Stop(); err != nil {
		return fmt.Errorf("%w: %w", ps.ErrServerStopFailed, err)
	}
	return nil
}

func (s *DeviceServer) Address() string {
	return s.comm.Address()
}

func (s *DeviceServer) registerPayloads() {
	s.comm.RegisterPayloadType(ps.MsgMakeDisk, reflect.TypeOf(ps.MakeDiskRequest{}))
	s.comm.RegisterPayloadType(ps.MsgListDevices, reflect.TypeOf(ps.ListDevicesRequest{}))
	s.comm.RegisterPayloadType(ps.MsgIoctl, reflect.TypeOf(ps.IoctlRequest{}))
	s.comm.RegisterPayloadType(ps.MsgBlkRead, reflect.TypeOf(ps.BlkReadRequest{}))
	s.comm.RegisterPayloadType(ps.MsgBlkWrite, reflect.TypeOf(ps.BlkWriteRequest{}))

	s.comm.RegisterPayloadType(ps.MsgTTYInput, reflect.TypeOf(ps.TTYInputRequest{}))
	s.comm.RegisterPayloadType(ps.MsgTTYType, reflect.TypeOf(ps.TTYTypeRequest{}))
	s.comm.RegisterPayloadType(ps.MsgTTYRead, reflect.TypeOf(ps.TTYReadRequest{}))
	s.comm.RegisterPayloadType(ps.MsgTTYSwitch, reflect.TypeOf(ps.TTYSwitchRequest{}))
}

// MakeDisk creates a ramdisk and registers it as a block device. An empty
// name registers it as ram<id>.
func (s *DeviceServer) MakeDisk(name string, size uint64) (device_registry.DeviceInfo, error) {
	if name != "" {
		if _, err := s.registry.Lookup(name); err == nil {
			return device_registry.DeviceInfo{}, device_registry.ErrDeviceAlreadyExists
		}
	}

	disk, err := s.disks.MakeDisk(size)
	if err != nil {
		return device_registry.DeviceInfo{}, err
	}
	if name == "" {
		name = fmt.Sprintf("ram%d", disk.ID())
	}

	dev := device_registry.NewBlockDevice(name, disk)
	if err := s.registry.Register(dev); err != nil {
		return device_registry.DeviceInfo{}, err
	}
	return dev.Info(), nil
}

func payload[T any](msg communication.Message) (T, error) {
	req, ok := msg.Payload.(T)
	if !ok {
		return req, fmt.Errorf("%w: %s", ps.ErrInvalidPayloadType, msg.Type)
	}
	return req, nil
}

// Central Router for all incoming messages
func (s *DeviceServer) handleMessage(ctx context.Context, msg communication.Message) (*communication.Response, error) {
	s.ls.Debug(log_service.LogEvent{
		Message:  "Handling message",
		Metadata: map[string]any{"type": msg.Type, "from": msg.From},
	})

	switch msg.Type {
	case ps.MsgMakeDisk:
		req, err := payload[ps.MakeDiskRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(s.MakeDisk(req.Name, req.Size))

	case ps.MsgListDevices:
		devices := s.registry.List()
		res := ps.ListDevicesResponse{Devices: make([]device_registry.DeviceInfo, 0, len(devices))}
		for _, dev := range devices {
			res.Devices = append(res.Devices, dev.Info())
		}
		return s.respond(res, nil)

	case ps.MsgIoctl:
		req, err := payload[ps.IoctlRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(s.ioctl(req))

	case ps.MsgBlkRead:
		req, err := payload[ps.BlkReadRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(s.blkRead(req))

	case ps.MsgBlkWrite:
		req, err := payload[ps.BlkWriteRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(s.blkWrite(req))

	case ps.MsgTTYInput:
		req, err := payload[ps.TTYInputRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		for _, code := range req.Codes {
			s.terminals.SendInput(code)
		}
		return s.respond(nil, nil)

	case ps.MsgTTYType:
		req, err := payload[ps.TTYTypeRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		codes, err := keyboard.Encode(req.Text)
		if err != nil {
			return s.respond(nil, err)
		}
		for _, code := range codes {
			s.terminals.SendInput(code)
		}
		return s.respond(nil, nil)

	case ps.MsgTTYRead:
		req, err := payload[ps.TTYReadRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(s.ttyRead(ctx, req))

	case ps.MsgTTYSwitch:
		req, err := payload[ps.TTYSwitchRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		if req.Terminal < 0 || req.Terminal >= s.terminals.Len() {
			return s.respond(nil, ps.ErrInvalidTerminal)
		}
		if req.Canonical != nil {
			s.terminals.Get(req.Terminal).SetCanonical(*req.Canonical)
		}
		s.terminals.SetActive(req.Terminal)
		return s.respond(nil, nil)

	default:
		return &communication.Response{
			Code: communication.CodeBadRequest,
			Body: []byte(ps.ErrUnknownMessageType.Error() + ": " + msg.Type),
		}, nil
	}
}

func (s *DeviceServer) ioctl(req ps.IoctlRequest) (any, error) {
	request, err := ioctl.ParseRequest(req.Request)
	if err != nil {
		return nil, err
	}

	var value uint64
	if err := s.dispatch.Ioctl(req.Device, request, &value); err != nil {
		return nil, err
	}
	return ps.IoctlResponse{Value: value}, nil
}

func (s *DeviceServer) blockDevice(name string) (device_registry.BlockDevice, error) {
	dev, err := s.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	blk, ok := dev.Block()
	if !ok {
		return nil, device_registry.ErrNotBlockDevice
	}
	return blk, nil
}

func (s *DeviceServer) blkRead(req ps.BlkReadRequest) (any, error) {
	blk, err := s.blockDevice(req.Device)
	if err != nil {
		return nil, err
	}
	if req.Length < 0 || req.Length > ps.MaxTransferSize {
		return nil, ps.ErrInvalidLength
	}
	if uint64(req.Length) > blk.Size() {
		return nil, ramdisk.ErrInvalidOffset
	}

	data := make([]byte, req.Length)
	n, err := blk.Read(data, req.Offset)
	if err != nil {
		return nil, err
	}
	return ps.BlkReadResponse{Data: data[:n]}, nil
}

func (s *DeviceServer) blkWrite(req ps.BlkWriteRequest) (any, error) {
	blk, err := s.blockDevice(req.Device)
	if err != nil {
		return nil, err
	}
	n, err := blk.Write(req.Data, req.Offset)
	if err != nil {
		return nil, err
	}
	return ps.BlkWriteResponse{Written: n}, nil
}

func (s *DeviceServer) ttyRead(ctx context.Context, req ps.TTYReadRequest) (any, error) {
	dev, err := s.registry.Lookup(req.Device)
	if err != nil {
		return nil, err
	}
	chr, ok := dev.Char()
	if !ok {
		return nil, device_registry.ErrNotCharDevice
	}
	if req.Max <= 0 {
		return nil, ps.ErrInvalidLength
	}
	// no terminal buffers this much, so clamping returns the same data
	size := min(req.Max, ps.MaxTransferSize)

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	buf := make([]byte, size)
	n, err := chr.ReadInput(ctx, buf)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ps.ErrReadTimeout
		}
		return nil, err
	}
	return ps.TTYReadResponse{Data: string(buf[:n])}, nil
}

func codeFor(err error) communication.Code {
	switch {
	case errors.Is(err, ramdisk.ErrInvalidOffset),
		errors.Is(err, ramdisk.ErrInvalidSize),
		errors.Is(err, ioctl.ErrInvalidRequest),
		errors.Is(err, ioctl.ErrInvalidData),
		errors.Is(err, device_registry.ErrNotBlockDevice),
		errors.Is(err, device_registry.ErrNotCharDevice),
		errors.Is(err, device_registry.ErrInvalidDeviceName),
		errors.Is(err, keyboard.ErrUnencodable),
		errors.Is(err, ps.ErrInvalidPayloadType),
		errors.Is(err, ps.ErrInvalidTerminal),
		errors.Is(err, ps.ErrInvalidLength):
		return communication.CodeBadRequest
	case errors.Is(err, device_registry.ErrDeviceNotFound),
		errors.Is(err, ramdisk.ErrDiskNotFound):
		return communication.CodeNotFound
	case errors.Is(err, device_registry.ErrDeviceAlreadyExists):
		return communication.CodeAlreadyExists
	case errors.Is(err, ramdisk.ErrPoolExhausted),
		errors.Is(err, page_pool.ErrOutOfPages),
		errors.Is(err, ps.ErrReadTimeout):
		return communication.CodeUnavailable
	default:
		return communication.CodeInternal
	}
}

// respond is a helper to standardize JSON responses and error codes
func (s *DeviceServer) respond(data any, err error) (*communication.Response, error) {
	if err != nil {
		code := codeFor(err)
		if code == communication.CodeInternal {
			s.ls.Error(log_service.LogEvent{
				Message:  "Request failed",
				Metadata: map[string]any{"error": err.Error()},
			})
		}
		return &communication.Response{
			Code: code,
			Body: []byte(err.Error()),
		}, nil
	}

	if data == nil {
		return &communication.Response{Code: communication.CodeOK}, nil
	}

	bytes, marshalErr := json.Marshal(data)
	if marshalErr != nil {
		return &communication.Response{
			Code: communication.CodeInternal,
			Body: []byte("failed to marshal response: " + marshalErr.Error()),
		}, nil
	}

	return &communication.Response{
		Code: communication.CodeOK,
		Body: bytes,
	}, nil
}

var _ ps.Server = (*DeviceServer)(nil)
