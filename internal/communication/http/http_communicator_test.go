package httpcomm

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/AnishMulay/devcore/internal/communication"
	"github.com/AnishMulay/devcore/internal/log_service/memlog"
)

type lookupRequest struct {
	Name string `json:"name"`
}

func TestHTTPCommunicator_SendReceive(t *testing.T) {
	server := NewHTTPCommunicator("127.0.0.1:0", memlog.NewRecordingLogService())
	server.RegisterPayloadType("lookup", reflect.TypeOf(lookupRequest{}))

	err := server.Start(func(ctx context.Context, msg communication.Message) (*communication.Response, error) {
		req := msg.Payload.(lookupRequest)
		switch req.Name {
		case "ram0":
			return &communication.Response{Code: communication.CodeOK, Body: []byte("block")}, nil
		case "dup":
			return &communication.Response{Code: communication.CodeAlreadyExists}, nil
		case "full":
			return &communication.Response{Code: communication.CodeUnavailable}, nil
		case "boom":
			return nil, errors.New("boom")
		default:
			return &communication.Response{Code: communication.CodeNotFound}, nil
		}
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer server.Stop()

	client := NewHTTPCommunicator("127.0.0.1:0", memlog.NewRecordingLogService())

	tests := []struct {
		name     string
		msg      communication.Message
		wantCode communication.Code
		wantBody string
	}{
		{name: "found", msg: communication.Message{Type: "lookup", Payload: lookupRequest{Name: "ram0"}}, wantCode: communication.CodeOK, wantBody: "block"},
		{name: "not found", msg: communication.Message{Type: "lookup", Payload: lookupRequest{Name: "nope"}}, wantCode: communication.CodeNotFound},
		{name: "conflict", msg: communication.Message{Type: "lookup", Payload: lookupRequest{Name: "dup"}}, wantCode: communication.CodeAlreadyExists},
		{name: "unavailable", msg: communication.Message{Type: "lookup", Payload: lookupRequest{Name: "full"}}, wantCode: communication.CodeUnavailable},
		{name: "handler error", msg: communication.Message{Type: "lookup", Payload: lookupRequest{Name: "boom"}}, wantCode: communication.CodeInternal},
		{name: "unknown type", msg: communication.Message{Type: "other"}, wantCode: communication.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			resp, err := client.Send(ctx, server.Address(), tt.msg)
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("Send() code = %v, want %v", resp.Code, tt.wantCode)
			}
			if tt.wantBody != "" && string(resp.Body) != tt.wantBody {
				t.Errorf("Send() body = %q, want %q", resp.Body, tt.wantBody)
			}
		})
	}
}

func TestHTTPCode_RoundTrip(t *testing.T) {
	codes := []communication.Code{
		communication.CodeOK,
		communication.CodeBadRequest,
		communication.CodeNotFound,
		communication.CodeAlreadyExists,
		communication.CodeUnavailable,
		communication.CodeInternal,
	}
	for _, code := range codes {
		if got := mapFromHTTPCode(mapToHTTPCode(code)); got != code {
			t.Errorf("mapFromHTTPCode(mapToHTTPCode(%v)) = %v", code, got)
		}
	}
	if got := mapFromHTTPCode(http.StatusTeapot); got != communication.CodeInternal {
		t.Errorf("mapFromHTTPCode(418) = %v, want %v", got, communication.CodeInternal)
	}
}
