package grpccomm

import (
	"context"
	"encoding/json"
	"net"
	"reflect"
	"sync"
	"time"

	"github.com/AnishMulay/devcore/internal/communication"
	internalerrors "github.com/AnishMulay/devcore/internal/communication/internal"
	"github.com/AnishMulay/devcore/internal/log_service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const stopGracePeriod = 5 * time.Second

type GRPCCommunicator struct {
	listenAddress string
	handler       communication.MessageHandler
	grpcServer    *grpc.Server
	ls            log_service.LogService

	clientLock   sync.RWMutex
	clients      map[string]*grpc.ClientConn
	payloadTypes *communication.PayloadTypes
	stopped      bool
	stopMutex    sync.RWMutex
}

func NewGRPCCommunicator(addr string, ls log_service.LogService) *GRPCCommunicator {
	return &GRPCCommunicator{
		listenAddress: addr,
		ls:            ls,
		clients:       make(map[string]*grpc.ClientConn),
		payloadTypes:  communication.NewPayloadTypes(),
	}
}

func (c *GRPCCommunicator) RegisterPayloadType(msgType string, payloadType reflect.Type) {
	c.payloadTypes.Register(msgType, payloadType)
}

// Address returns the bound address once started, the configured one before.
func (c *GRPCCommunicator) Address() string {
	c.stopMutex.RLock()
	defer c.stopMutex.RUnlock()
	return c.listenAddress
}

func (c *GRPCCommunicator) Start(handler communication.MessageHandler) error {
	c.ls.Info(log_service.LogEvent{
		Message:  "Starting GRPC communicator",
		Metadata: map[string]any{"address": c.listenAddress},
	})

	lis, err := net.Listen("tcp", c.listenAddress)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to listen on address",
			Metadata: map[string]any{"address": c.listenAddress, "error": err.Error()},
		})
		return internalerrors.ErrGRPCListenFailed
	}

	c.stopMutex.Lock()
	c.handler = handler
	c.listenAddress = lis.Addr().String()
	c.grpcServer = grpc.NewServer(grpc.ForceServerCodec(jsonCodec{}))
	c.grpcServer.RegisterService(&messageServiceDesc, &grpcServer{comm: c})
	srv := c.grpcServer
	c.stopMutex.Unlock()

	c.ls.Info(log_service.LogEvent{
		Message:  "GRPC communicator started successfully",
		Metadata: map[string]any{"address": lis.Addr().String()},
	})

	go func() {
		if err := srv.Serve(lis); err != nil {
			c.ls.Error(log_service.LogEvent{
				Message:  "GRPC server error",
				Metadata: map[string]any{"address": lis.Addr().String(), "error": err.Error()},
			})
		}
	}()
	return nil
}

func (c *GRPCCommunicator) Stop() error {
	c.stopMutex.Lock()
	if c.stopped {
		c.stopMutex.Unlock()
		c.ls.Debug(log_service.LogEvent{
			Message:  "GRPC communicator already stopped, skipping",
			Metadata: map[string]any{"address": c.listenAddress},
		})
		return nil
	}
	c.stopped = true
	srv := c.grpcServer
	addr := c.listenAddress
	c.stopMutex.Unlock()

	c.ls.Info(log_service.LogEvent{
		Message:  "Stopping GRPC communicator",
		Metadata: map[string]any{"address": addr},
	})

	if srv != nil {
		// blocked terminal reads would hold GracefulStop forever
		done := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(stopGracePeriod):
			srv.Stop()
			<-done
		}
	}

	c.clientLock.Lock()
	for to, conn := range c.clients {
		_ = conn.Close()
		delete(c.clients, to)
	}
	c.clientLock.Unlock()

	c.ls.Info(log_service.LogEvent{
		Message:  "GRPC communicator stopped successfully",
		Metadata: map[string]any{"address": addr},
	})

	return nil
}

func (c *GRPCCommunicator) conn(to string) (*grpc.ClientConn, error) {
	c.clientLock.RLock()
	conn, ok := c.clients[to]
	c.clientLock.RUnlock()
	if ok {
		return conn, nil
	}

	c.ls.Debug(log_service.LogEvent{
		Message:  "Creating new GRPC client",
		Metadata: map[string]any{"to": to},
	})

	conn, err := grpc.NewClient(to,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to create GRPC client",
			Metadata: map[string]any{"to": to, "error": err.Error()},
		})
		return nil, internalerrors.ErrClientCreateFailed
	}

	c.clientLock.Lock()
	defer c.clientLock.Unlock()
	if existing, ok := c.clients[to]; ok {
		_ = conn.Close()
		return existing, nil
	}
	c.clients[to] = conn
	return conn, nil
}

func (c *GRPCCommunicator) Send(ctx context.Context, to string, msg communication.Message) (*communication.Response, error) {
	c.ls.Debug(log_service.LogEvent{
		Message:  "Sending GRPC message",
		Metadata: map[string]any{"to": to, "type": msg.Type, "from": msg.From},
	})

	conn, err := c.conn(to)
	if err != nil {
		return nil, err
	}

	var payloadBytes []byte
	if msg.Payload != nil {
		payloadBytes, err = json.Marshal(msg.Payload)
		if err != nil {
			c.ls.Error(log_service.LogEvent{
				Message:  "Failed to marshal payload",
				Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
			})
			return nil, internalerrors.ErrPayloadMarshalFailed
		}
	}

	req := &wireRequest{
		From:    msg.From,
		Type:    msg.Type,
		Payload: payloadBytes,
	}
	resp := new(wireResponse)

	if err := conn.Invoke(ctx, sendMessageMethod, req, resp); err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to send GRPC message",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, internalerrors.ErrMessageSendFailed
	}

	c.ls.Debug(log_service.LogEvent{
		Message:  "GRPC message sent successfully",
		Metadata: map[string]any{"to": to, "type": msg.Type, "responseCode": resp.Code},
	})

	return &communication.Response{
		Code:    communication.Code(resp.Code),
		Body:    resp.Body,
		Headers: resp.Headers,
	}, nil
}

type grpcServer struct {
	comm *GRPCCommunicator
}

func (s *grpcServer) SendMessage(ctx context.Context, req *wireRequest) (*wireResponse, error) {
	s.comm.stopMutex.RLock()
	handler := s.comm.handler
	s.comm.stopMutex.RUnlock()

	if handler == nil {
		return nil, internalerrors.ErrHandlerNotSet
	}

	msg := communication.Message{
		From: req.From,
		Type: req.Type,
	}

	payload, err := s.comm.payloadTypes.Decode(req.Type, req.Payload)
	if err != nil {
		return &wireResponse{
			Code: string(communication.CodeBadRequest),
			Body: []byte(err.Error()),
		}, nil
	}
	msg.Payload = payload

	resp, err := handler(ctx, msg)
	if err != nil {
		s.comm.ls.Error(log_service.LogEvent{
			Message:  "Message handler failed",
			Metadata: map[string]any{"type": req.Type, "error": err.Error()},
		})

		return &wireResponse{
			Code: string(communication.CodeInternal),
			Body: []byte(err.Error()),
		}, nil
	}

	if resp == nil {
		return &wireResponse{
			Code: string(communication.CodeInternal),
			Body: []byte("handler returned nil response"),
		}, nil
	}

	return &wireResponse{
		Code:    string(resp.Code),
		Body:    resp.Body,
		Headers: resp.Headers,
	}, nil
}

var _ communication.Communicator = (*GRPCCommunicator)(nil)
