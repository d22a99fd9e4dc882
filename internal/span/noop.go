// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package span

import (
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/annotation"
)

// newNoOpEvent returns a throwaway event satisfying SpanEvent for the
// overflow and error-degradation paths (spec §4.3/§7: a setter call that
// cannot be honored becomes a silent no-op, never a panic). finished is
// true so every mutator short-circuits immediately; GetAnnotations still
// returns a live, discardable bag so callers never nil-check.
func newNoOpEvent() *eventImpl {
	return &eventImpl{finished: true, annotations: annotation.NewBag(), asyncID: ext.NoneAsyncID}
}

// NoopSpan is returned by the agent facade whenever a trace decision, a
// filter match or a disabled agent means no real span should be built.
// Every method is a safe, side-effect-free no-op.
type NoopSpan struct {
	annotations *annotation.Bag
}

// NewNoopSpan constructs a NoopSpan ready for use.
func NewNoopSpan() *NoopSpan {
	return &NoopSpan{annotations: annotation.NewBag()}
}

func (n *NoopSpan) NewSpanEvent(operation string, serviceType ...int32) SpanEvent { return newNoOpEvent() }
func (n *NoopSpan) GetSpanEvent() SpanEvent                                       { return newNoOpEvent() }
func (n *NoopSpan) EndSpanEvent()                                                 {}
func (n *NoopSpan) EndSpan()                                                      {}
func (n *NoopSpan) NewAsyncSpan(operation string) Span                            { return n }

func (n *NoopSpan) SetServiceType(int32)                                      {}
func (n *NoopSpan) SetStartTime(time.Time)                                    {}
func (n *NoopSpan) SetRemoteAddress(string)                                   {}
func (n *NoopSpan) SetEndPoint(string)                                        {}
func (n *NoopSpan) SetError(string)                                           {}
func (n *NoopSpan) SetErrorWithCallstack(string, string, CallstackReader)     {}
func (n *NoopSpan) SetStatusCode(int32)                                       {}
func (n *NoopSpan) SetUrlStat(string, string, int32)                          {}
func (n *NoopSpan) RecordHeader(ext.HeaderType, HeaderReader)                 {}

func (n *NoopSpan) InjectContext(TraceContextWriter)  {}
func (n *NoopSpan) ExtractContext(TraceContextReader) {}

func (n *NoopSpan) GetTraceId() ext.TraceID          { return ext.TraceID{} }
func (n *NoopSpan) GetSpanId() int64                 { return 0 }
func (n *NoopSpan) IsSampled() bool                  { return false }
func (n *NoopSpan) GetAnnotations() annotation.Annotation { return n.annotations }
