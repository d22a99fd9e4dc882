// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package transport streams spans, metadata and agent statistics to the
// collector over gRPC. It is grounded on orig/src/grpc.h and grpc.cpp:
// GrpcClient's channel lifecycle becomes Conn, GrpcAgent/GrpcSpan/GrpcStats
// become AgentWorker/SpanWorker/StatWorker, and the per-stream condition-
// variable queues become buffered Go channels drained by one goroutine per
// worker, since channels are how this corpus expresses producer/consumer
// handoff rather than std::condition_variable.
package transport

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/pinpoint-apm/pinpoint-go-agent/internal/log"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/pb"
)

// Identity is the per-call metadata every stream attaches, mirroring
// build_grpc_context's applicationname/agentid/starttime/agentname pairs.
type Identity struct {
	AppName   string
	AgentID   string
	AgentName string
	StartTime int64
}

func (id Identity) context(parent context.Context) context.Context {
	pairs := []string{
		"applicationname", id.AppName,
		"agentid", id.AgentID,
		"starttime", itoa(id.StartTime),
	}
	if id.AgentName != "" {
		pairs = append(pairs, "agentname", id.AgentName)
	}
	return metadataContext(parent, pairs...)
}

// Conn owns one lazily-(re)dialed gRPC channel to a single collector
// endpoint, reused across the agent/span/stat streams that target it.
type Conn struct {
	target string
	opts   []grpc.DialOption

	cc *grpc.ClientConn
}

// NewConn returns a Conn that dials target on first use. Dialing is lazy
// and non-blocking, matching CreateCustomChannel's behavior of returning
// immediately and connecting in the background.
func NewConn(target string) *Conn {
	return &Conn{
		target: target,
		opts: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(grpc.CallContentSubtype(pb.CodecName)),
		},
	}
}

// Dial establishes the channel if it hasn't been already.
func (c *Conn) Dial() error {
	if c.cc != nil {
		return nil
	}
	cc, err := grpc.NewClient(c.target, c.opts...)
	if err != nil {
		return err
	}
	c.cc = cc
	return nil
}

// Ready reports whether the channel is currently connected, the Go
// equivalent of GrpcClient::wait_channel_ready polled without blocking.
func (c *Conn) Ready() bool {
	return c.cc != nil && c.cc.GetState() == connectivityReady
}

// Close tears down the underlying channel.
func (c *Conn) Close() error {
	if c.cc == nil {
		return nil
	}
	err := c.cc.Close()
	c.cc = nil
	return err
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// reconnectBackoff is the delay applied between failed stream (re)starts,
// matching the original's fixed-interval retry in sendPingWorker/
// sendSpanWorker/sendStatsWorker rather than an exponential policy: the
// collector is assumed co-located or on a fast local network, so a
// constant short retry recovers a blip without the complexity of backoff
// state.
const reconnectBackoff = 3 * time.Second

func logReconnect(worker, target string, err error) {
	log.Warn("transport: %s stream to %s ended, reconnecting: %v", worker, target, err)
}
