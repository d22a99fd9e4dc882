// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package span implements the trace model: Span, SpanEvent, the event
// tree they share, and the chunking that turns finished events into
// wire-ready SpanChunks. The package defines its own Span/SpanEvent
// interfaces rather than consuming ones declared at the module root: the
// root package assembles the concrete Agent by importing this package,
// so if the interfaces lived at root instead, Go's structural interface
// matching would force this package to import root right back, a cycle.
// Root re-exports these interfaces with type aliases instead.
package span

import (
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/annotation"
)

// Span is a root trace record: it owns an event tree and is handed to
// instrumented code as the handle for one unit of traced work.
type Span interface {
	// NewSpanEvent pushes a new node onto the event tree. serviceType
	// defaults to ext.DefaultServiceType when omitted.
	NewSpanEvent(operation string, serviceType ...int32) SpanEvent
	// GetSpanEvent returns the currently open event, or a no-op event if
	// none is open.
	GetSpanEvent() SpanEvent
	// EndSpanEvent closes the currently open event.
	EndSpanEvent()
	// EndSpan finishes the span. Idempotent: a second call logs and
	// returns.
	EndSpan()
	// NewAsyncSpan mints a child span sharing this span's trace id and
	// span id but owning its own event tree, linked back via
	// (async_id, async_sequence) rather than a pointer.
	NewAsyncSpan(operation string) Span

	SetServiceType(serviceType int32)
	SetStartTime(t time.Time)
	SetRemoteAddress(addr string)
	SetEndPoint(endpoint string)
	// SetError records an error message against the span's root frame.
	SetError(message string)
	// SetErrorWithCallstack additionally records a named exception with
	// a captured call stack, read lazily through reader.
	SetErrorWithCallstack(name, message string, reader CallstackReader)
	SetStatusCode(statusCode int32)
	SetUrlStat(urlPattern, method string, statusCode int32)
	RecordHeader(headerType ext.HeaderType, reader HeaderReader)

	InjectContext(writer TraceContextWriter)
	ExtractContext(reader TraceContextReader)

	GetTraceId() ext.TraceID
	GetSpanId() int64
	IsSampled() bool
	GetAnnotations() annotation.Annotation
}

// SpanEvent is one node in a span's call tree.
type SpanEvent interface {
	SetServiceType(serviceType int32)
	SetOperationName(operation string)
	SetDestination(destinationID string)
	SetEndPoint(endpoint string)
	SetError(message string)
	SetErrorWithName(name, message string)
	// SetSqlQuery normalizes sql, interning the normalized text and its
	// stable uid, and annotates the event with both.
	SetSqlQuery(sql string)
	RecordHeader(headerType ext.HeaderType, reader HeaderReader)
	GetAnnotations() annotation.Annotation
}

// TraceContextReader reads a single propagation header by name. A
// missing header must return "".
type TraceContextReader interface {
	Get(key string) string
}

// TraceContextWriter writes a single propagation header.
type TraceContextWriter interface {
	Set(key, value string)
}

// HeaderReader exposes an arbitrary header set (HTTP request, response
// or cookie jar) for RecordHeader to capture into annotations.
type HeaderReader interface {
	Get(key string) string
	ForEach(callback func(key, value string) bool)
}

// CallstackReader yields call stack frames lazily, one per ForEach
// callback invocation; returning false from the callback stops the walk.
type CallstackReader interface {
	ForEach(callback func(frame string) bool)
}

// UrlStatEntry is the raw per-request sample handed to the Recorder when
// a span with an attached URL pattern finishes. It is deliberately not
// shared with internal/stats's own url stat types: this package must not
// import internal/stats, so root's wiring code converts between the two.
type UrlStatEntry struct {
	UrlPattern string
	Method     string
	StatusCode int32
	EndTime    time.Time
	Elapsed    int32
}

// ExceptionEntry is one recorded exception, captured by
// SetErrorWithCallstack.
type ExceptionEntry struct {
	Name      string
	Message   string
	Callstack []string
}

// Recorder is the callback boundary a Span/SpanEvent uses to reach back
// into the owning agent: metadata interning, span/url-stat submission and
// agent identity, without this package importing internal/stats,
// internal/transport or the root package.
type Recorder interface {
	IsExiting() bool
	AppName() string
	AppType() int32
	AgentID() string
	AgentName() string

	GenerateTraceID() ext.TraceID

	CacheAPI(operation string, apiType int32) int32
	RemoveCacheAPI(operation string, apiType int32)
	CacheError(name string) int32
	RemoveCacheError(name string)
	CacheSQL(sql string) int32
	RemoveCacheSQL(sql string)
	CacheSQLUID(sql string) []byte
	RemoveCacheSQLUID(sql string)

	RecordSpan(chunk *Chunk)
	RecordURLStat(entry UrlStatEntry)

	IsStatusFail(statusCode int32) bool

	RegisterActiveSpan(spanID int64, start time.Time)
	UnregisterActiveSpan(spanID int64)
	RecordResponseTime(elapsedMS int64)
	RecordSampling(isNew, sampled bool)

	MaxEventDepth() int32
	MaxEventSequence() int32
	EventChunkSize() int32
	MaxSQLLength() int
}
