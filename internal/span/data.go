// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package span

import (
	"sync"
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/annotation"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/log"
)

// Data is the root trace record (SpanData in the original): identity,
// timing, error state and the event tree for one span. It is shared
// between the Span handle given to instrumented code and the chunks
// produced from it; both hold a pointer to the same Data, never a copy
// (spec's Open Question on shared ownership: Go's GC retires the need
// for an arena-backed event store).
type Data struct {
	mu sync.Mutex

	recorder Recorder

	traceID            ext.TraceID
	spanID             int64
	parentSpanID       int64 // -1 when root
	parentAppName      string
	parentAppType      int32
	parentAppNamespace string

	appType     int32
	serviceType int32
	operation   string
	apiID       int32
	rpcName     string
	method      string

	endpoint     string
	remoteAddr   string
	acceptorHost string

	startTime time.Time
	endTime   time.Time
	elapsedMS int64

	err          bool
	errorFuncID  int32
	errorMessage string
	exceptions   []ExceptionEntry

	flags      int32
	logging    bool
	statusCode int32

	asyncID       int32
	asyncSequence int32
	asyncIDGen    int32 // mints per-event async ids when this span spawns async children

	stack          eventStack
	finishedEvents []*eventImpl
	eventSequence  int32
	eventDepth     int32
	overflow       int32

	annotations *annotation.Bag

	urlStat *UrlStatEntry

	finished bool
	sampled  bool

	keyTime time.Time // span start; anchor for the final chunk's optimizeSpanEvents
}

// newData constructs a sampled span's root record. depth starts at 1 (the
// span frame itself, per spec §4.3).
func newData(recorder Recorder, traceID ext.TraceID, spanID int64, operation, rpcName string, appType int32) *Data {
	return newDataWithMethod(recorder, traceID, spanID, operation, rpcName, "", appType)
}

func newDataWithMethod(recorder Recorder, traceID ext.TraceID, spanID int64, operation, rpcName, method string, appType int32) *Data {
	now := time.Now()
	return &Data{
		recorder:     recorder,
		traceID:      traceID,
		spanID:       spanID,
		parentSpanID: -1,
		appType:      appType,
		serviceType:  ext.DefaultServiceType,
		operation:    operation,
		apiID:        recorder.CacheAPI(operation, ext.APITypeWebRequest),
		rpcName:      rpcName,
		method:       method,
		startTime:    now,
		keyTime:      now,
		eventDepth:   1,
		annotations:  annotation.NewBag(),
		sampled:      true,
	}
}

func (d *Data) markError() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = true
}

// pushEvent opens a new event, honoring the overflow rule: once depth or
// sequence caps are hit, every further NewSpanEvent just counts against
// overflow and returns a no-op event.
func (d *Data) pushEvent(operation string, serviceType int32) *eventImpl {
	d.mu.Lock()
	if d.finished {
		d.mu.Unlock()
		log.Warn("span: NewSpanEvent called on a finished span, ignoring")
		return newNoOpEvent()
	}
	// eventDepth == stack size + 1 while events are open (invariant I1),
	// so the open-event count this push would add to is eventDepth-1:
	// comparing eventDepth itself against max_event_depth would reject
	// one push too early.
	if d.eventDepth-1 >= d.recorder.MaxEventDepth() || d.eventSequence >= d.recorder.MaxEventSequence() {
		d.overflow++
		d.mu.Unlock()
		return newNoOpEvent()
	}
	d.eventSequence++
	d.eventDepth++
	seq, depth := d.eventSequence, d.eventDepth
	d.mu.Unlock()

	e := newEvent(d, d.recorder, operation, serviceType, seq, depth)
	d.stack.push(e)
	return e
}

// pushSyntheticEvent opens the async-root event for a freshly constructed
// async span's event tree. It bypasses the depth/sequence overflow
// checks pushEvent applies (the span was only just created, so caps
// cannot yet be exceeded) and resolves its api id under apiType rather
// than the default API_TYPE_DEFAULT used for ordinary events.
func (d *Data) pushSyntheticEvent(operation string, serviceType, apiType int32) *eventImpl {
	d.mu.Lock()
	d.eventSequence++
	d.eventDepth++
	seq, depth := d.eventSequence, d.eventDepth
	d.mu.Unlock()

	e := &eventImpl{
		parent:      d,
		serviceType: serviceType,
		operation:   operation,
		apiID:       d.recorder.CacheAPI(operation, apiType),
		sequence:    seq,
		depth:       depth,
		startTime:   time.Now(),
		asyncID:     ext.NoneAsyncID,
		annotations: annotation.NewBag(),
	}
	d.stack.push(e)
	return e
}

func (d *Data) topEvent() *eventImpl {
	if e := d.stack.top(); e != nil {
		return e
	}
	return nil
}

// popEvent closes the currently open event, per the overflow/chunking
// rule of spec §4.3's EndSpanEvent.
func (d *Data) popEvent() {
	d.mu.Lock()
	if d.overflow > 0 {
		d.overflow--
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	e := d.stack.pop()
	if e == nil {
		log.Warn("span: EndSpanEvent called with no open event, ignoring")
		return
	}
	e.finished = true
	e.elapsed = time.Since(e.startTime).Milliseconds()

	d.mu.Lock()
	d.eventDepth--
	d.finishedEvents = append(d.finishedEvents, e)
	shouldFlush := int32(len(d.finishedEvents)) >= d.recorder.EventChunkSize()
	var toFlush []*eventImpl
	if shouldFlush {
		toFlush = d.finishedEvents
		d.finishedEvents = nil
	}
	d.mu.Unlock()

	if shouldFlush {
		keyTime := toFlush[0].startTime
		chunk := newChunk(d, toFlush, false, keyTime)
		d.recorder.RecordSpan(chunk)
	}
}

// Accessors exposed for the transport layer's wire encoding. Data itself
// never imports internal/transport; these are plain getters over fields
// that package cannot otherwise reach (Data's fields are unexported so
// the only mutation path is through Span/SpanEvent methods).

func (d *Data) TraceID() ext.TraceID       { return d.traceID }
func (d *Data) SpanID() int64              { return d.spanID }
func (d *Data) ParentSpanID() int64        { return d.parentSpanID }
func (d *Data) ParentAppName() string      { return d.parentAppName }
func (d *Data) ParentAppType() int32       { return d.parentAppType }
func (d *Data) ParentAppNamespace() string { return d.parentAppNamespace }
func (d *Data) AppType() int32             { return d.appType }
func (d *Data) ServiceType() int32         { return d.serviceType }
func (d *Data) Operation() string          { return d.operation }
func (d *Data) ApiID() int32               { return d.apiID }
func (d *Data) RpcName() string            { return d.rpcName }
func (d *Data) Method() string             { return d.method }
func (d *Data) Endpoint() string           { return d.endpoint }
func (d *Data) RemoteAddr() string         { return d.remoteAddr }
func (d *Data) AcceptorHost() string       { return d.acceptorHost }
func (d *Data) StartTime() time.Time       { return d.startTime }
func (d *Data) EndTime() time.Time         { return d.endTime }
func (d *Data) ElapsedMS() int64           { return d.elapsedMS }
func (d *Data) Err() bool                  { return d.err }
func (d *Data) ErrorFuncID() int32         { return d.errorFuncID }
func (d *Data) ErrorMessage() string       { return d.errorMessage }
func (d *Data) Exceptions() []ExceptionEntry {
	out := make([]ExceptionEntry, len(d.exceptions))
	copy(out, d.exceptions)
	return out
}
func (d *Data) Flags() int32         { return d.flags }
func (d *Data) Logging() bool        { return d.logging }
func (d *Data) StatusCode() int32    { return d.statusCode }
func (d *Data) AsyncID() int32       { return d.asyncID }
func (d *Data) AsyncSequence() int32 { return d.asyncSequence }
func (d *Data) UrlStat() *UrlStatEntry {
	return d.urlStat
}
func (d *Data) Annotations() *annotation.Bag { return d.annotations }
