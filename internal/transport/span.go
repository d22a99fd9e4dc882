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

const methodSendSpan = "/v1.Span/SendSpan"

var spanStreamDesc = &grpc.StreamDesc{StreamName: "SendSpan", ClientStreams: true}

// SpanWorker owns the bounded span queue and the long-lived client-stream
// upload of finished span chunks, the Go equivalent of orig/src/grpc.h's
// GrpcSpan.
type SpanWorker struct {
	conn     *Conn
	identity Identity

	queue chan pb.SpanMessage

	// forceQueueEmpty is set once a drop happens under backpressure and
	// cleared the next time the connection comes back up (spec's
	// force_queue_empty flag). It is purely observational here: the
	// upload loop already drains whatever is buffered one message at a
	// time on every reconnect, so there is no separate bulk-drain path
	// to trigger — the flag exists to report "a span was lost to
	// backpressure since the last reconnect" rather than to change
	// behavior.
	forceQueueEmpty atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewSpanWorker returns a SpanWorker dialing target with a queue of the
// given size; EnqueueSpan drops a chunk when the queue is full rather
// than blocking the span-ending call path.
func NewSpanWorker(target string, identity Identity, queueSize int) *SpanWorker {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &SpanWorker{
		conn:     NewConn(target),
		identity: identity,
		queue:    make(chan pb.SpanMessage, queueSize),
		done:     make(chan struct{}),
	}
}

// EnqueueSpan submits a finished span or span chunk. It returns false,
// and drops the message, if the queue is already full.
func (w *SpanWorker) EnqueueSpan(msg pb.SpanMessage) bool {
	select {
	case w.queue <- msg:
		return true
	default:
		w.forceQueueEmpty.Store(true)
		return false
	}
}

// QueueLen reports how many messages are currently buffered, for the
// agent's own queue-depth telemetry.
func (w *SpanWorker) QueueLen() int { return len(w.queue) }

// Run keeps a client-streaming upload open, writing queued messages as
// they arrive and reconnecting on failure, until Stop is called.
func (w *SpanWorker) Run(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		default:
		}
		if err := w.runOnce(ctx); err != nil {
			logReconnect("span", w.conn.target, err)
			select {
			case <-time.After(reconnectBackoff):
			case <-w.done:
				return
			}
		}
	}
}

func (w *SpanWorker) runOnce(ctx context.Context) error {
	if err := w.conn.Dial(); err != nil {
		return err
	}
	if w.forceQueueEmpty.CompareAndSwap(true, false) {
		log.Warn("transport: span queue dropped messages under backpressure since last reconnect")
	}
	streamCtx, cancel := context.WithCancel(w.identity.context(ctx))
	defer cancel()

	stream, err := w.conn.cc.NewStream(streamCtx, spanStreamDesc, methodSendSpan)
	if err != nil {
		return err
	}

	for {
		select {
		case <-w.done:
			return stream.CloseSend()
		case msg := <-w.queue:
			if err := stream.SendMsg(&msg); err != nil {
				w.requeue(msg)
				return err
			}
		}
	}
}

// requeue puts a message that failed to send back onto the queue, behind
// whatever is already buffered; a full queue drops it, since the
// connection is about to be retried and the buffered backlog takes
// priority over a message already in flight once.
func (w *SpanWorker) requeue(msg pb.SpanMessage) {
	select {
	case w.queue <- msg:
	default:
	}
}

// Stop signals Run to exit and waits for it.
func (w *SpanWorker) Stop() {
	close(w.done)
	w.wg.Wait()
	w.conn.Close()
}
