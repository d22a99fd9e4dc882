// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"

	"github.com/pinpoint-apm/pinpoint-go-agent/internal/log"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/pb"
)

const methodSendAgentStat = "/v1.Stat/SendAgentStat"

var statStreamDesc = &grpc.StreamDesc{StreamName: "SendAgentStat", ClientStreams: true}

// StatPayload is one queued message on the stat stream: exactly one of
// AgentStats or UrlStats is set, mirroring StatsType's tagged union in
// orig/src/grpc.h (std::queue<StatsType>) which carries either an
// AgentStatsSnapshot batch or a UrlStatSnapshot over the same channel.
type StatPayload struct {
	AgentStats *pb.StatMessage
	UrlStats   *pb.UrlStatMessage
}

func (p StatPayload) message() interface{} {
	if p.AgentStats != nil {
		return p.AgentStats
	}
	return p.UrlStats
}

// StatWorker owns the stat queue and the long-lived client-stream upload
// of agent and URL statistics batches, the Go equivalent of
// orig/src/grpc.h's GrpcStats.
type StatWorker struct {
	conn     *Conn
	identity Identity

	queue chan StatPayload

	// forceQueueEmpty mirrors SpanWorker's flag of the same name: set on
	// a backpressure drop, cleared and logged on the next reconnect.
	forceQueueEmpty atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewStatWorker returns a StatWorker dialing target with a queue of the
// given size.
func NewStatWorker(target string, identity Identity, queueSize int) *StatWorker {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &StatWorker{
		conn:     NewConn(target),
		identity: identity,
		queue:    make(chan StatPayload, queueSize),
		done:     make(chan struct{}),
	}
}

// Enqueue submits a batch for upload. A full queue drops the batch: a
// missed interval's telemetry is not worth blocking the sampling tick
// that produced it.
func (w *StatWorker) Enqueue(p StatPayload) bool {
	select {
	case w.queue <- p:
		return true
	default:
		w.forceQueueEmpty.Store(true)
		return false
	}
}

// Run keeps a client-streaming upload open, writing queued batches as
// they arrive and reconnecting on failure, until Stop is called.
func (w *StatWorker) Run(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		default:
		}
		if err := w.runOnce(ctx); err != nil {
			logReconnect("stat", w.conn.target, err)
			select {
			case <-time.After(reconnectBackoff):
			case <-w.done:
				return
			}
		}
	}
}

func (w *StatWorker) runOnce(ctx context.Context) error {
	if err := w.conn.Dial(); err != nil {
		return err
	}
	if w.forceQueueEmpty.CompareAndSwap(true, false) {
		log.Warn("transport: stat queue dropped messages under backpressure since last reconnect")
	}
	streamCtx, cancel := context.WithCancel(w.identity.context(ctx))
	defer cancel()

	stream, err := w.conn.cc.NewStream(streamCtx, statStreamDesc, methodSendAgentStat)
	if err != nil {
		return err
	}

	for {
		select {
		case <-w.done:
			return stream.CloseSend()
		case p := <-w.queue:
			if err := stream.SendMsg(p.message()); err != nil {
				return err
			}
		}
	}
}

// Stop signals Run to exit and waits for it.
func (w *StatWorker) Stop() {
	close(w.done)
	w.wg.Wait()
	w.conn.Close()
}
