// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package ext holds the well-known constants and small value types shared
// across the public SDK surface and the internal span/transport
// machinery: propagation header names, annotation key ids, app/service
// type ids, and the TraceId value type.
package ext

import "strconv"

// Propagation header names. Exact spellings must be preserved; they are
// part of the wire contract with other language agents.
const (
	HeaderTraceID           = "Pinpoint-TraceID"
	HeaderSpanID            = "Pinpoint-SpanID"
	HeaderParentSpanID      = "Pinpoint-pSpanID"
	HeaderSampled           = "Pinpoint-Sampled"
	HeaderFlags             = "Pinpoint-Flags"
	HeaderParentAppName     = "Pinpoint-pAppName"
	HeaderParentAppType     = "Pinpoint-pAppType"
	HeaderParentAppNamespace = "Pinpoint-pAppNamespace"
	HeaderHost              = "Pinpoint-Host"
)

// SampledUnsampled is the Pinpoint-Sampled header value written for a
// trace that was explicitly not sampled by an upstream hop.
const SampledUnsampled = "s0"

// Well-known annotation key ids (numeric, stable).
const (
	AnnotationAPI               int32 = 12
	AnnotationSQLID             int32 = 20
	AnnotationSQLUID            int32 = 21
	AnnotationHTTPURL           int32 = 40
	AnnotationHTTPCookie        int32 = 45
	AnnotationHTTPStatusCode    int32 = 46
	AnnotationHTTPRequestHeader int32 = 47
	AnnotationHTTPResponseHeader int32 = 55
	AnnotationExceptionID       int32 = 100
)

// App/service/API type ids. A Go agent gets its own stable app-type id,
// distinct from the C/C++ original's APP_TYPE_CPP, since it identifies a
// different runtime to the collector.
const (
	AppTypeGo int32 = 1700

	ServiceTypeGoFunc       int32 = 1701
	ServiceTypeGoHTTPClient int32 = 9800
	ServiceTypeAsync        int32 = 100

	DefaultAppType     = AppTypeGo
	DefaultServiceType = ServiceTypeGoFunc
)

// API classification ids used with cacheApi.
const (
	APITypeDefault    int32 = 0
	APITypeWebRequest int32 = 100
	APITypeInvocation int32 = 200
)

// NoneAsyncID is the async_id sentinel meaning "not an async span/event".
const NoneAsyncID int32 = 0

// HeaderType distinguishes which header set RecordHeader captures.
type HeaderType int

const (
	HeaderTypeRequest HeaderType = iota
	HeaderTypeResponse
	HeaderTypeCookie
)

// TraceID identifies a single trace within this agent's lifetime: a
// triple of the owning agent id, its start time in epoch milliseconds,
// and a per-agent monotonic sequence number.
type TraceID struct {
	AgentID   string
	StartTime int64
	Sequence  int64
}

// String renders the trace id in its wire textual form: the three fields
// joined by "^".
func (t TraceID) String() string {
	return t.AgentID + "^" + strconv.FormatInt(t.StartTime, 10) + "^" + strconv.FormatInt(t.Sequence, 10)
}

// IsZero reports whether t is the zero value (no trace assigned).
func (t TraceID) IsZero() bool {
	return t.AgentID == "" && t.StartTime == 0 && t.Sequence == 0
}
