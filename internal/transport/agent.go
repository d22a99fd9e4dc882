// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package transport

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/pinpoint-apm/pinpoint-go-agent/internal/log"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/pb"
)

const (
	methodRegisterAgent = "/v1.Agent/RequestAgentInfo"
	methodPingSession    = "/v1.Agent/PingSession"
	methodApiMeta        = "/v1.Metadata/RequestApiMetaData"
	methodSqlMeta        = "/v1.Metadata/RequestSqlMetaData"
	methodSqlUidMeta     = "/v1.Metadata/RequestSqlUidMetaData"
	methodStringMeta     = "/v1.Metadata/RequestStringMetaData"
)

var pingStreamDesc = &grpc.StreamDesc{StreamName: "PingSession", ClientStreams: true, ServerStreams: true}

// MetaRecord is one queued metadata-interning record: exactly one of its
// fields is set, mirroring MetaData's tagged union in orig/src/grpc.h.
type MetaRecord struct {
	Api      *pb.ApiMeta
	String   *pb.StringMeta
	SqlUid   *pb.SqlUidMeta
}

// AgentWorker owns the agent registration call, the agent/ping
// keep-alive stream and the metadata-interning queue — the three
// responsibilities orig/src/grpc.h's GrpcAgent bundles together because
// they all share one collector endpoint and one registered agent
// identity.
type AgentWorker struct {
	conn     *Conn
	identity Identity

	metaQueue chan MetaRecord

	// OnMetaFailure, when set, is invoked with the record that failed to
	// upload so the caller can evict its cache entry (spec's
	// removeCacheApi/removeCacheError/removeCacheSql rule): the next
	// lookup re-interns and retries rather than leaving a collector-side
	// id gap forever.
	OnMetaFailure func(MetaRecord)

	done chan struct{}
	wg   sync.WaitGroup
}

// NewAgentWorker returns an AgentWorker dialing target, with a metadata
// queue of the given size.
func NewAgentWorker(target string, identity Identity, metaQueueSize int) *AgentWorker {
	if metaQueueSize <= 0 {
		metaQueueSize = 1
	}
	return &AgentWorker{
		conn:      NewConn(target),
		identity:  identity,
		metaQueue: make(chan MetaRecord, metaQueueSize),
		done:      make(chan struct{}),
	}
}

// Register sends this process's AgentInfo once, the equivalent of
// GrpcAgent::registerAgent.
func (w *AgentWorker) Register(ctx context.Context, info pb.AgentInfo) error {
	if err := w.conn.Dial(); err != nil {
		return err
	}
	var reply emptypb.Empty
	return w.conn.cc.Invoke(w.identity.context(ctx), methodRegisterAgent, info, &reply)
}

// EnqueueMeta submits a metadata record for the interning stream. A full
// queue drops the record silently and returns false rather than blocking
// the caller; the dropped record is not sent again, so the collector
// receives the id without its text.
func (w *AgentWorker) EnqueueMeta(rec MetaRecord) bool {
	select {
	case w.metaQueue <- rec:
		return true
	default:
		return false
	}
}

// RunMeta drains the metadata queue, issuing one unary call per record,
// until Stop is called.
func (w *AgentWorker) RunMeta(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	for {
		select {
		case rec := <-w.metaQueue:
			w.sendMeta(ctx, rec)
		case <-w.done:
			return
		}
	}
}

func (w *AgentWorker) sendMeta(ctx context.Context, rec MetaRecord) {
	if err := w.conn.Dial(); err != nil {
		log.Warn("transport: metadata dial failed: %v", err)
		return
	}
	callCtx := w.identity.context(ctx)
	var reply emptypb.Empty
	var err error
	switch {
	case rec.Api != nil:
		err = w.conn.cc.Invoke(callCtx, methodApiMeta, rec.Api, &reply)
	case rec.String != nil && rec.String.Kind == pb.StringMetaSQL:
		err = w.conn.cc.Invoke(callCtx, methodSqlMeta, rec.String, &reply)
	case rec.String != nil:
		err = w.conn.cc.Invoke(callCtx, methodStringMeta, rec.String, &reply)
	case rec.SqlUid != nil:
		err = w.conn.cc.Invoke(callCtx, methodSqlUidMeta, rec.SqlUid, &reply)
	}
	if err != nil {
		log.Warn("transport: metadata send failed: %v", err)
		if w.OnMetaFailure != nil {
			w.OnMetaFailure(rec)
		}
	}
}

// RunPing keeps a bidirectional ping stream open, sending an empty Ping
// every interval and reconnecting on failure, the Go equivalent of
// sendPingWorker's reconnect loop.
func (w *AgentWorker) RunPing(ctx context.Context, interval time.Duration) {
	w.wg.Add(1)
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		default:
		}
		if err := w.pingOnce(ctx, interval); err != nil {
			logReconnect("ping", w.conn.target, err)
			select {
			case <-time.After(reconnectBackoff):
			case <-w.done:
				return
			}
		}
	}
}

func (w *AgentWorker) pingOnce(ctx context.Context, interval time.Duration) error {
	if err := w.conn.Dial(); err != nil {
		return err
	}
	streamCtx, cancel := context.WithCancel(w.identity.context(ctx))
	defer cancel()

	stream, err := w.conn.cc.NewStream(streamCtx, pingStreamDesc, methodPingSession)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return nil
		case <-ticker.C:
			if err := stream.SendMsg(&pb.Ping{}); err != nil {
				return err
			}
			var pong pb.Ping
			if err := stream.RecvMsg(&pong); err != nil {
				return err
			}
		}
	}
}

// Stop signals every running goroutine to exit and waits for them.
func (w *AgentWorker) Stop() {
	close(w.done)
	w.wg.Wait()
	w.conn.Close()
}
