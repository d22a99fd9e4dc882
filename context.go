// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package pinpoint

import (
	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/span"
)

// TraceContextReader/TraceContextWriter carry the Pinpoint-* propagation
// headers across a process boundary: Reader on the inbound side (fed to
// Agent.NewSpan/Span.ExtractContext), Writer on the outbound side (fed to
// Span.InjectContext). HeaderReader additionally exposes an arbitrary
// header set for RecordHeader to capture as annotations, and
// CallstackReader lazily yields call-stack frames for
// SetErrorWithCallstack.
type (
	TraceContextReader = span.TraceContextReader
	TraceContextWriter = span.TraceContextWriter
	HeaderReader        = span.HeaderReader
	CallstackReader      = span.CallstackReader
)

// HeaderType distinguishes which header set RecordHeader captures.
type HeaderType = ext.HeaderType

const (
	HeaderRequest  = ext.HeaderTypeRequest
	HeaderResponse = ext.HeaderTypeResponse
	HeaderCookie   = ext.HeaderTypeCookie
)

// Propagation header names, re-exported for callers that want to read or
// set them directly rather than through a TraceContextReader/Writer
// adapter.
const (
	HeaderTraceID       = ext.HeaderTraceID
	HeaderSpanID        = ext.HeaderSpanID
	HeaderParentSpanID  = ext.HeaderParentSpanID
	HeaderSampled       = ext.HeaderSampled
)
