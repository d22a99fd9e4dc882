// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package span

import (
	"strconv"
	"strings"
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/annotation"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/log"
)

// Impl is the concrete Span (SpanImpl in the original): a Data plus the
// Recorder it reports back through.
type Impl struct {
	data     *Data
	recorder Recorder
	async    bool
}

// New constructs a fresh sampled span. The caller (the root Agent) is
// responsible for calling ExtractContext afterward to fold in any
// inbound propagation headers (spec §4.2 step 5).
func New(recorder Recorder, operation, rpcName, method string, appType int32) *Impl {
	traceID := recorder.GenerateTraceID()
	spanID := newSpanID()
	d := newDataWithMethod(recorder, traceID, spanID, operation, rpcName, method, appType)
	// Registration is deferred to ExtractContext, which the caller must
	// invoke right after New: ExtractContext may overwrite spanID with
	// one supplied by an inbound header, and registering here first
	// would leak the pre-overwrite id in the active-span table.
	return &Impl{data: d, recorder: recorder}
}

func (s *Impl) NewSpanEvent(operation string, serviceType ...int32) SpanEvent {
	svcType := ext.DefaultServiceType
	if len(serviceType) > 0 {
		svcType = serviceType[0]
	}
	return s.data.pushEvent(operation, svcType)
}

func (s *Impl) GetSpanEvent() SpanEvent {
	if e := s.data.topEvent(); e != nil {
		return e
	}
	return newNoOpEvent()
}

func (s *Impl) EndSpanEvent() {
	s.data.popEvent()
}

func (s *Impl) EndSpan() {
	d := s.data
	d.mu.Lock()
	if d.finished {
		d.mu.Unlock()
		log.Warn("span: EndSpan called twice, ignoring")
		return
	}
	d.finished = true
	d.mu.Unlock()

	if s.async {
		// Close the synthetic async-root event before the span-level
		// bookkeeping below, per spec §4.3.
		s.EndSpanEvent()
	}

	d.mu.Lock()
	d.endTime = time.Now()
	d.elapsedMS = d.endTime.Sub(d.startTime).Milliseconds()
	remaining := d.finishedEvents
	d.finishedEvents = nil
	d.mu.Unlock()

	s.recorder.UnregisterActiveSpan(d.spanID)
	s.recorder.RecordResponseTime(d.elapsedMS)

	if !s.async {
		// Each recorded exception becomes one root-frame annotation:
		// the exception's interned name id, its position among the
		// span's exceptions, its captured frame count, and its
		// message. The frames themselves are not shipped inline — only
		// the class name (via CacheError) and message travel to the
		// collector, matching the other well-known annotation keys'
		// id+text shape.
		for i, exc := range d.exceptions {
			nameID := s.recorder.CacheError(exc.Name)
			d.annotations.AppendLongIntIntByteByteString(ext.AnnotationExceptionID, int64(nameID), int32(i), int32(len(exc.Callstack)), 0, 0, exc.Message)
		}
		if d.urlStat != nil {
			us := *d.urlStat
			us.Elapsed = int32(d.elapsedMS)
			s.recorder.RecordURLStat(us)
		}
	}

	chunk := newChunk(d, remaining, true, d.startTime)
	s.recorder.RecordSpan(chunk)
}

func (s *Impl) NewAsyncSpan(operation string) Span {
	d := s.data
	top := d.topEvent()
	if top == nil {
		log.Warn("span: NewAsyncSpan called with no open event, degrading to no-op")
		return NewNoopSpan()
	}

	d.mu.Lock()
	if top.asyncID == ext.NoneAsyncID {
		d.asyncIDGen++
		top.asyncID = d.asyncIDGen
	}
	top.asyncSeqGen++
	seq := top.asyncSeqGen
	d.mu.Unlock()

	childData := newData(s.recorder, d.traceID, d.spanID, operation, d.rpcName, d.appType)
	childData.asyncID = top.asyncID
	childData.asyncSequence = seq
	s.recorder.RegisterActiveSpan(childData.spanID, childData.startTime)

	child := &Impl{data: childData, recorder: s.recorder, async: true}
	child.data.pushSyntheticEvent(operation, ext.ServiceTypeAsync, ext.APITypeInvocation)
	return child
}

func (s *Impl) SetServiceType(serviceType int32) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if s.data.finished {
		return
	}
	s.data.serviceType = serviceType
}

func (s *Impl) SetStartTime(t time.Time) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if s.data.finished {
		return
	}
	s.data.startTime = t
	s.data.keyTime = t
}

func (s *Impl) SetRemoteAddress(addr string) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if s.data.finished {
		return
	}
	s.data.remoteAddr = addr
}

func (s *Impl) SetEndPoint(endpoint string) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if s.data.finished {
		return
	}
	s.data.endpoint = endpoint
}

func (s *Impl) SetError(message string) {
	s.data.mu.Lock()
	if s.data.finished {
		s.data.mu.Unlock()
		return
	}
	s.data.err = true
	s.data.errorMessage = message
	s.data.mu.Unlock()
}

func (s *Impl) SetErrorWithCallstack(name, message string, reader CallstackReader) {
	s.data.mu.Lock()
	if s.data.finished {
		s.data.mu.Unlock()
		return
	}
	s.data.err = true
	s.data.errorFuncID = s.recorder.CacheError(name)
	s.data.errorMessage = message
	var frames []string
	if reader != nil {
		reader.ForEach(func(frame string) bool {
			frames = append(frames, frame)
			return true
		})
	}
	s.data.exceptions = append(s.data.exceptions, ExceptionEntry{Name: name, Message: message, Callstack: frames})
	s.data.mu.Unlock()
}

func (s *Impl) SetStatusCode(statusCode int32) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if s.data.finished {
		return
	}
	s.data.statusCode = statusCode
	if s.recorder.IsStatusFail(statusCode) {
		s.data.err = true
	}
}

func (s *Impl) SetUrlStat(urlPattern, method string, statusCode int32) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if s.data.finished {
		return
	}
	s.data.urlStat = &UrlStatEntry{
		UrlPattern: urlPattern,
		Method:     method,
		StatusCode: statusCode,
		EndTime:    time.Now(),
	}
}

func (s *Impl) RecordHeader(headerType ext.HeaderType, reader HeaderReader) {
	if reader == nil {
		return
	}
	s.data.mu.Lock()
	finished := s.data.finished
	s.data.mu.Unlock()
	if finished {
		return
	}
	key := headerAnnotationKey(headerType)
	reader.ForEach(func(k, v string) bool {
		s.data.annotations.AppendStringString(key, k, v)
		return true
	})
}

// InjectContext writes propagation headers, but only while an event is
// open (spec §4.4); without one there is no call site to attach
// next_span_id to, so the call is a silent no-op.
func (s *Impl) InjectContext(writer TraceContextWriter) {
	if writer == nil {
		return
	}
	e := s.data.topEvent()
	if e == nil {
		log.Warn("span: InjectContext called with no open event, ignoring")
		return
	}
	s.data.mu.Lock()
	nextSpanID := e.generateNextSpanId(s.recorder)
	s.data.mu.Unlock()

	writer.Set(ext.HeaderTraceID, s.data.traceID.String())
	writer.Set(ext.HeaderSpanID, strconv.FormatInt(nextSpanID, 10))
	writer.Set(ext.HeaderParentSpanID, strconv.FormatInt(s.data.spanID, 10))
	writer.Set(ext.HeaderFlags, strconv.FormatInt(int64(s.data.flags), 10))
	writer.Set(ext.HeaderParentAppName, s.recorder.AppName())
	writer.Set(ext.HeaderParentAppType, strconv.FormatInt(int64(s.recorder.AppType()), 10))
	writer.Set(ext.HeaderParentAppNamespace, "")
	writer.Set(ext.HeaderHost, e.destinationID)
}

// ExtractContext folds inbound propagation headers into the span and
// registers it as active; when the caller is the root of a new trace it
// keeps the trace/span ids New generated (spec §4.4).
func (s *Impl) ExtractContext(reader TraceContextReader) {
	if reader == nil {
		// No inbound context at all: this span roots its own trace,
		// same as an inbound reader with no Pinpoint-TraceID header.
		s.recorder.RegisterActiveSpan(s.data.spanID, s.data.startTime)
		return
	}
	traceIDStr := reader.Get(ext.HeaderTraceID)
	if traceIDStr == "" {
		s.recorder.RegisterActiveSpan(s.data.spanID, s.data.startTime)
		return
	}

	parts := strings.SplitN(traceIDStr, "^", 3)
	if len(parts) == 3 {
		startMS, _ := strconv.ParseInt(parts[1], 10, 64)
		seq, _ := strconv.ParseInt(parts[2], 10, 64)
		s.data.traceID = ext.TraceID{AgentID: parts[0], StartTime: startMS, Sequence: seq}
	}

	if spanIDStr := reader.Get(ext.HeaderSpanID); spanIDStr != "" {
		if v, err := strconv.ParseInt(spanIDStr, 10, 64); err == nil {
			s.data.spanID = v
		}
	}
	if parentStr := reader.Get(ext.HeaderParentSpanID); parentStr != "" {
		if v, err := strconv.ParseInt(parentStr, 10, 64); err == nil {
			s.data.parentSpanID = v
		}
	}
	s.data.parentAppName = reader.Get(ext.HeaderParentAppName)
	if t := reader.Get(ext.HeaderParentAppType); t != "" {
		if v, err := strconv.ParseInt(t, 10, 32); err == nil {
			s.data.parentAppType = int32(v)
		}
	}
	s.data.parentAppNamespace = reader.Get(ext.HeaderParentAppNamespace)
	if flags := reader.Get(ext.HeaderFlags); flags != "" {
		if v, err := strconv.ParseInt(flags, 10, 32); err == nil {
			s.data.flags = int32(v)
		}
	}
	if host := reader.Get(ext.HeaderHost); host != "" {
		s.data.remoteAddr = host
		s.data.endpoint = host
		s.data.acceptorHost = host
	}

	s.recorder.RegisterActiveSpan(s.data.spanID, s.data.startTime)
}

func (s *Impl) GetTraceId() ext.TraceID { return s.data.traceID }
func (s *Impl) GetSpanId() int64        { return s.data.spanID }
func (s *Impl) IsSampled() bool         { return true }
func (s *Impl) GetAnnotations() annotation.Annotation {
	return s.data.annotations
}
