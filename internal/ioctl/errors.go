package ioctl

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid ioctl request")
	ErrInvalidData    = errors.New("invalid ioctl data argument")
)
