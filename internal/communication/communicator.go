package communication

import (
	"context"
	"reflect"
)

type Message struct {
	From    string `json:"from"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type Code string

const (
	CodeOK            Code = "OK"
	CodeBadRequest    Code = "BAD_REQUEST"
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeUnavailable   Code = "UNAVAILABLE"
	CodeInternal      Code = "INTERNAL"
)

type Response struct {
	Code    Code              `json:"code"`
	Body    []byte            `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type Communicator interface {
	Start(handler MessageHandler) error
	Stop() error
	Send(ctx context.Context, to string, msg Message) (*Response, error)
	Address() string
	RegisterPayloadType(msgType string, payloadType reflect.Type)
}
