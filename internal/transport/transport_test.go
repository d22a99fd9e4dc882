// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/pinpoint-apm/pinpoint-go-agent/internal/pb"
)

func TestIdentityContextCarriesMetadata(t *testing.T) {
	id := Identity{AppName: "svc", AgentID: "agent-1", AgentName: "svc-1", StartTime: 1000}
	ctx := id.context(context.Background())

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"svc"}, md.Get("applicationname"))
	assert.Equal(t, []string{"agent-1"}, md.Get("agentid"))
	assert.Equal(t, []string{"1000"}, md.Get("starttime"))
	assert.Equal(t, []string{"svc-1"}, md.Get("agentname"))
}

func TestIdentityContextOmitsEmptyAgentName(t *testing.T) {
	id := Identity{AppName: "svc", AgentID: "agent-1"}
	md, _ := metadata.FromOutgoingContext(id.context(context.Background()))
	assert.Empty(t, md.Get("agentname"))
}

func TestItoa(t *testing.T) {
	assert.Equal(t, "0", itoa(0))
	assert.Equal(t, "123", itoa(123))
	assert.Equal(t, "-7", itoa(-7))
}

func TestSpanWorkerDropsWhenQueueFull(t *testing.T) {
	w := NewSpanWorker("bufnet", Identity{}, 1)
	assert.True(t, w.EnqueueSpan(pb.SpanMessage{Span: &pb.Span{SpanID: 1}}))
	assert.False(t, w.EnqueueSpan(pb.SpanMessage{Span: &pb.Span{SpanID: 2}}))
	assert.Equal(t, 1, w.QueueLen())
}

func TestStatWorkerDropsWhenQueueFull(t *testing.T) {
	w := NewStatWorker("bufnet", Identity{}, 1)
	assert.True(t, w.Enqueue(StatPayload{AgentStats: &pb.StatMessage{}}))
	assert.False(t, w.Enqueue(StatPayload{AgentStats: &pb.StatMessage{}}))
}

func TestStatPayloadMessageSelectsSetField(t *testing.T) {
	agentStats := &pb.StatMessage{AgentID: "a1"}
	assert.Same(t, agentStats, StatPayload{AgentStats: agentStats}.message())

	urlStats := &pb.UrlStatMessage{AgentID: "a1"}
	assert.Same(t, urlStats, StatPayload{UrlStats: urlStats}.message())
}

// fakeSpanServer implements just enough of a grpc server to accept the
// client-streaming SendSpan RPC over an in-memory bufconn listener,
// decoding each message with the real msgp codec.
type fakeSpanServer struct {
	received chan pb.SpanMessage
}

func (s *fakeSpanServer) handleSendSpan(srv interface{}, stream grpc.ServerStream) error {
	for {
		var msg pb.SpanMessage
		if err := stream.RecvMsg(&msg); err != nil {
			return stream.SendMsg(&emptypb.Empty{})
		}
		s.received <- msg
	}
}

func TestSpanWorkerEndToEndOverBufconn(t *testing.T) {
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	fake := &fakeSpanServer{received: make(chan pb.SpanMessage, 4)}
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: "v1.Span",
		HandlerType: (*interface{})(nil),
		Streams: []grpc.StreamDesc{
			{StreamName: "SendSpan", Handler: fake.handleSendSpan, ClientStreams: true},
		},
	}, nil)

	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.Dial() }
	w := NewSpanWorker("passthrough:///bufnet", Identity{AppName: "svc", AgentID: "a1"}, 4)
	w.conn.opts = append(w.conn.opts, grpc.WithContextDialer(dialer))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	defer w.Stop()

	require.True(t, w.EnqueueSpan(pb.SpanMessage{Span: &pb.Span{SpanID: 99, RPC: "/orders"}}))

	select {
	case got := <-fake.received:
		require.NotNil(t, got.Span)
		assert.Equal(t, int64(99), got.Span.SpanID)
		assert.Equal(t, "/orders", got.Span.RPC)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for span to arrive at fake server")
	}
}
