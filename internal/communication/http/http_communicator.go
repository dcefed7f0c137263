package httpcomm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/AnishMulay/devcore/internal/communication"
	internalerrors "github.com/AnishMulay/devcore/internal/communication/internal"
	"github.com/AnishMulay/devcore/internal/log_service"
)

const messagePath = "/message"

type envelope struct {
	From    string          `json:"from"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type HTTPCommunicator struct {
	listenAddress string
	httpServer    *http.Server
	handler       communication.MessageHandler
	ls            log_service.LogService
	mu            sync.RWMutex
	clientLock    sync.RWMutex
	clients       map[string]*http.Client
	payloadTypes  *communication.PayloadTypes
}

func NewHTTPCommunicator(listenAddress string, ls log_service.LogService) *HTTPCommunicator {
	return &HTTPCommunicator{
		listenAddress: listenAddress,
		ls:            ls,
		clients:       make(map[string]*http.Client),
		payloadTypes:  communication.NewPayloadTypes(),
	}
}

func (c *HTTPCommunicator) RegisterPayloadType(msgType string, payloadType reflect.Type) {
	c.payloadTypes.Register(msgType, payloadType)
}

func (c *HTTPCommunicator) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listenAddress
}

func (c *HTTPCommunicator) Start(handler communication.MessageHandler) error {
	c.ls.Info(log_service.LogEvent{
		Message:  "Starting HTTP communicator",
		Metadata: map[string]any{"address": c.listenAddress},
	})

	lis, err := net.Listen("tcp", c.listenAddress)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to listen on address",
			Metadata: map[string]any{"address": c.listenAddress, "error": err.Error()},
		})
		return internalerrors.ErrServerStartFailed
	}

	mux := http.NewServeMux()
	mux.HandleFunc(messagePath, c.handleHTTPMessage)

	c.mu.Lock()
	c.handler = handler
	c.listenAddress = lis.Addr().String()
	c.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := c.httpServer
	c.mu.Unlock()

	c.ls.Info(log_service.LogEvent{
		Message:  "HTTP communicator started successfully",
		Metadata: map[string]any{"address": lis.Addr().String()},
	})

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.ls.Error(log_service.LogEvent{
				Message:  "HTTP server error",
				Metadata: map[string]any{"address": lis.Addr().String(), "error": err.Error()},
			})
		}
	}()

	return nil
}

func (c *HTTPCommunicator) Stop() error {
	c.mu.Lock()
	srv := c.httpServer
	addr := c.listenAddress
	c.httpServer = nil
	c.mu.Unlock()

	if srv == nil {
		return nil
	}

	c.ls.Info(log_service.LogEvent{
		Message:  "Stopping HTTP communicator",
		Metadata: map[string]any{"address": addr},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		c.ls.Warn(log_service.LogEvent{
			Message:  "HTTP server did not drain, closing connections",
			Metadata: map[string]any{"address": addr, "error": err.Error()},
		})
		if err := srv.Close(); err != nil {
			c.ls.Error(log_service.LogEvent{
				Message:  "Failed to stop HTTP server",
				Metadata: map[string]any{"address": addr, "error": err.Error()},
			})
			return internalerrors.ErrServerStopFailed
		}
	}

	c.ls.Info(log_service.LogEvent{
		Message:  "HTTP communicator stopped successfully",
		Metadata: map[string]any{"address": addr},
	})

	return nil
}

func mapToHTTPCode(code communication.Code) int {
	switch code {
	case communication.CodeOK:
		return http.StatusOK
	case communication.CodeBadRequest:
		return http.StatusBadRequest
	case communication.CodeNotFound:
		return http.StatusNotFound
	case communication.CodeAlreadyExists:
		return http.StatusConflict
	case communication.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func mapFromHTTPCode(code int) communication.Code {
	switch code {
	case http.StatusOK:
		return communication.CodeOK
	case http.StatusBadRequest:
		return communication.CodeBadRequest
	case http.StatusNotFound:
		return communication.CodeNotFound
	case http.StatusConflict:
		return communication.CodeAlreadyExists
	case http.StatusServiceUnavailable:
		return communication.CodeUnavailable
	default:
		return communication.CodeInternal
	}
}

func (c *HTTPCommunicator) client(to string) *http.Client {
	c.clientLock.RLock()
	client, ok := c.clients[to]
	c.clientLock.RUnlock()
	if ok {
		return client
	}

	c.ls.Debug(log_service.LogEvent{
		Message:  "Creating new HTTP client",
		Metadata: map[string]any{"to": to},
	})

	c.clientLock.Lock()
	defer c.clientLock.Unlock()
	if client, ok := c.clients[to]; ok {
		return client
	}
	client = &http.Client{Timeout: 5 * time.Second}
	c.clients[to] = client
	return client
}

func (c *HTTPCommunicator) Send(ctx context.Context, to string, msg communication.Message) (*communication.Response, error) {
	c.ls.Debug(log_service.LogEvent{
		Message:  "Sending HTTP message",
		Metadata: map[string]any{"to": to, "type": msg.Type, "from": msg.From},
	})

	env := envelope{From: msg.From, Type: msg.Type}
	if msg.Payload != nil {
		raw, err := json.Marshal(msg.Payload)
		if err != nil {
			c.ls.Error(log_service.LogEvent{
				Message:  "Failed to marshal payload",
				Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
			})
			return nil, internalerrors.ErrPayloadMarshalFailed
		}
		env.Payload = raw
	}

	jsonData, err := json.Marshal(env)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to marshal message",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, internalerrors.ErrMessageMarshalFailed
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("http://%s%s", to, messagePath), bytes.NewReader(jsonData))
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to create HTTP request",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, internalerrors.ErrHTTPRequestCreateFailed
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client(to).Do(httpReq)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to send HTTP request",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, internalerrors.ErrHTTPRequestSendFailed
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to read HTTP response",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, internalerrors.ErrHTTPResponseReadFailed
	}

	c.ls.Debug(log_service.LogEvent{
		Message:  "HTTP message sent successfully",
		Metadata: map[string]any{"to": to, "type": msg.Type, "status": resp.StatusCode},
	})

	return &communication.Response{
		Code: mapFromHTTPCode(resp.StatusCode),
		Body: body,
	}, nil
}

func (c *HTTPCommunicator) handleHTTPMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to read HTTP request body",
			Metadata: map[string]any{"error": err.Error()},
		})
		http.Error(w, internalerrors.ErrHTTPBodyReadFailed.Error(), http.StatusBadRequest)
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Invalid JSON in request",
			Metadata: map[string]any{"error": err.Error()},
		})
		http.Error(w, internalerrors.ErrInvalidJSON.Error(), http.StatusBadRequest)
		return
	}

	if env.Type == "" {
		http.Error(w, internalerrors.ErrMissingRequiredFields.Error(), http.StatusBadRequest)
		return
	}

	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()
	if handler == nil {
		http.Error(w, internalerrors.ErrHandlerNotSet.Error(), http.StatusServiceUnavailable)
		return
	}

	payload, err := c.payloadTypes.Decode(env.Type, env.Payload)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to decode payload",
			Metadata: map[string]any{"type": env.Type, "error": err.Error()},
		})
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := handler(r.Context(), communication.Message{From: env.From, Type: env.Type, Payload: payload})
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Message handler failed",
			Metadata: map[string]any{"type": env.Type, "error": err.Error()},
		})
		http.Error(w, internalerrors.ErrMessageHandlerFailed.Error(), http.StatusInternalServerError)
		return
	}

	if resp == nil {
		http.Error(w, internalerrors.ErrMessageHandlerFailed.Error(), http.StatusInternalServerError)
		return
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(mapToHTTPCode(resp.Code))
	if resp.Body != nil {
		if _, err := w.Write(resp.Body); err != nil {
			c.ls.Error(log_service.LogEvent{
				Message:  "Failed to write HTTP response body",
				Metadata: map[string]any{"error": err.Error()},
			})
		}
	}
}

var _ communication.Communicator = (*HTTPCommunicator)(nil)
