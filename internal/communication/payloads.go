package communication

import (
	"encoding/json"
	"reflect"
	"sync"

	internalerrors "github.com/AnishMulay/devcore/internal/communication/internal"
)

// PayloadTypes maps message types to the Go type their payload decodes into.
type PayloadTypes struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

func NewPayloadTypes() *PayloadTypes {
	return &PayloadTypes{types: make(map[string]reflect.Type)}
}

func (p *PayloadTypes) Register(msgType string, payloadType reflect.Type) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types[msgType] = payloadType
}

// Decode unmarshals raw into a fresh value of the type registered for
// msgType and returns it by value. Unregistered types are an error.
func (p *PayloadTypes) Decode(msgType string, raw []byte) (any, error) {
	p.mu.RLock()
	payloadType, ok := p.types[msgType]
	p.mu.RUnlock()

	if !ok {
		return nil, internalerrors.ErrUnknownPayloadType
	}

	payload := reflect.New(payloadType)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, payload.Interface()); err != nil {
			return nil, internalerrors.ErrPayloadUnmarshalFailed
		}
	}
	return payload.Elem().Interface(), nil
}
