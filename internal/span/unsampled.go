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
)

// UnsampledSpan is returned for inbound requests that arrive already
// marked unsampled (Pinpoint-Sampled: s0) or that lose the sampling
// decision. It is far cheaper than Impl: no event tree, no chunks, no
// annotations sent to the collector. It still participates in
// active-request counting and URL-stat aggregation, since both are
// computed independently of whether a span's payload is uploaded (spec
// §4.2 step 3).
type UnsampledSpan struct {
	mu       sync.Mutex
	recorder Recorder
	spanID   int64
	startTime time.Time
	finished bool

	urlStat *UrlStatEntry

	annotations *annotation.Bag
}

// NewUnsampled constructs an UnsampledSpan and registers it as an active
// request for the lifetime histogram.
func NewUnsampled(recorder Recorder) *UnsampledSpan {
	now := time.Now()
	spanID := newSpanID()
	recorder.RegisterActiveSpan(spanID, now)
	return &UnsampledSpan{recorder: recorder, spanID: spanID, startTime: now, annotations: annotation.NewBag()}
}

func (u *UnsampledSpan) NewSpanEvent(operation string, serviceType ...int32) SpanEvent {
	return newNoOpEvent()
}
func (u *UnsampledSpan) GetSpanEvent() SpanEvent { return newNoOpEvent() }
func (u *UnsampledSpan) EndSpanEvent()           {}

func (u *UnsampledSpan) EndSpan() {
	u.mu.Lock()
	if u.finished {
		u.mu.Unlock()
		return
	}
	u.finished = true
	us := u.urlStat
	u.mu.Unlock()

	u.recorder.UnregisterActiveSpan(u.spanID)
	if us != nil {
		entry := *us
		entry.Elapsed = int32(time.Since(u.startTime).Milliseconds())
		u.recorder.RecordURLStat(entry)
	}
}

func (u *UnsampledSpan) NewAsyncSpan(operation string) Span { return NewNoopSpan() }

func (u *UnsampledSpan) SetServiceType(int32)  {}
func (u *UnsampledSpan) SetStartTime(time.Time) {}
func (u *UnsampledSpan) SetRemoteAddress(string) {}
func (u *UnsampledSpan) SetEndPoint(string)      {}
func (u *UnsampledSpan) SetError(string)         {}
func (u *UnsampledSpan) SetErrorWithCallstack(string, string, CallstackReader) {}
func (u *UnsampledSpan) SetStatusCode(int32)                                  {}

func (u *UnsampledSpan) SetUrlStat(urlPattern, method string, statusCode int32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return
	}
	u.urlStat = &UrlStatEntry{UrlPattern: urlPattern, Method: method, StatusCode: statusCode, EndTime: time.Now()}
}

func (u *UnsampledSpan) RecordHeader(ext.HeaderType, HeaderReader) {}

// InjectContext for an unsampled span writes exactly the Sampled: s0
// marker (spec §4.2 step 3 / property 3), nothing else.
func (u *UnsampledSpan) InjectContext(writer TraceContextWriter) {
	if writer == nil {
		return
	}
	writer.Set(ext.HeaderSampled, ext.SampledUnsampled)
}

func (u *UnsampledSpan) ExtractContext(TraceContextReader) {}

func (u *UnsampledSpan) GetTraceId() ext.TraceID { return ext.TraceID{} }
func (u *UnsampledSpan) GetSpanId() int64        { return u.spanID }
func (u *UnsampledSpan) IsSampled() bool         { return false }
func (u *UnsampledSpan) GetAnnotations() annotation.Annotation {
	return u.annotations
}
