package server

import "errors"

var (
	// Server lifecycle errors
	ErrServerStartFailed = errors.New("failed to start server")
	ErrServerStopFailed  = errors.New("failed to stop server")

	// Message handling errors
	ErrInvalidPayloadType = errors.New("invalid payload type for message")
	ErrUnknownMessageType = errors.New("unknown message type")

	// Request validation errors
	ErrInvalidTerminal = errors.New("terminal id out of range")
	ErrInvalidLength   = errors.New("invalid read length")
	ErrReadTimeout     = errors.New("no input before the deadline")
)
