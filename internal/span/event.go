// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package span

import (
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/annotation"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/sqlnorm"
)

// eventImpl is one node in a span's event tree (SpanEventImpl in the
// original). Its lifetime is entirely owned by the parent Data: it never
// outlives EndSpan and is never shared beyond the span that created it.
type eventImpl struct {
	parent *Data // non-owning back-pointer

	serviceType   int32
	operation     string
	apiID         int32
	destinationID string
	endpoint      string

	sequence int32
	depth    int32

	startTime time.Time
	elapsed   int64 // set on finish

	nextSpanID int64 // lazily generated by InjectContext

	errorFuncID  int32
	errorMessage string

	asyncID     int32 // ext.NoneAsyncID until a child async span mints one
	asyncSeqGen int32

	annotations *annotation.Bag

	finished bool
}

func newEvent(parent *Data, recorder Recorder, operation string, serviceType int32, sequence, depth int32) *eventImpl {
	return &eventImpl{
		parent:      parent,
		serviceType: serviceType,
		operation:   operation,
		apiID:       recorder.CacheAPI(operation, ext.APITypeDefault),
		sequence:    sequence,
		depth:       depth,
		startTime:   time.Now(),
		asyncID:     ext.NoneAsyncID,
		annotations: annotation.NewBag(),
	}
}

func (e *eventImpl) SetServiceType(serviceType int32) {
	if e.finished {
		return
	}
	e.serviceType = serviceType
}

func (e *eventImpl) SetOperationName(operation string) {
	if e.finished {
		return
	}
	e.operation = operation
	e.apiID = e.parent.recorder.CacheAPI(operation, ext.APITypeDefault)
}

func (e *eventImpl) SetDestination(destinationID string) {
	if e.finished {
		return
	}
	e.destinationID = destinationID
}

func (e *eventImpl) SetEndPoint(endpoint string) {
	if e.finished {
		return
	}
	e.endpoint = endpoint
}

func (e *eventImpl) SetError(message string) {
	if e.finished {
		return
	}
	e.errorMessage = message
	e.parent.markError()
}

func (e *eventImpl) SetErrorWithName(name, message string) {
	if e.finished {
		return
	}
	e.errorFuncID = e.parent.recorder.CacheError(name)
	e.errorMessage = message
	e.parent.markError()
}

func (e *eventImpl) SetSqlQuery(sql string) {
	if e.finished {
		return
	}
	norm := sqlnorm.New(e.parent.recorder.MaxSQLLength()).Normalize(sql)

	id := e.parent.recorder.CacheSQL(norm.Normalized)
	uid := e.parent.recorder.CacheSQLUID(norm.Normalized)

	e.annotations.AppendIntStringString(ext.AnnotationSQLID, id, norm.Normalized, norm.Parameters)
	e.annotations.AppendBytesStringString(ext.AnnotationSQLUID, uid, norm.Normalized, norm.Parameters)
}

func (e *eventImpl) RecordHeader(headerType ext.HeaderType, reader HeaderReader) {
	if e.finished || reader == nil {
		return
	}
	key := headerAnnotationKey(headerType)
	reader.ForEach(func(k, v string) bool {
		e.annotations.AppendStringString(key, k, v)
		return true
	})
}

func (e *eventImpl) GetAnnotations() annotation.Annotation {
	return e.annotations
}

// Accessors exposed for the transport layer's wire encoding, mirroring
// Data's own accessor block for the same reason: eventImpl's fields are
// unexported so the only mutation path is through SpanEvent methods.

func (e *eventImpl) Sequence() int32        { return e.sequence }
func (e *eventImpl) Depth() int32           { return e.depth }
func (e *eventImpl) StartTime() time.Time   { return e.startTime }
func (e *eventImpl) Elapsed() int64         { return e.elapsed }
func (e *eventImpl) ApiID() int32           { return e.apiID }
func (e *eventImpl) ServiceType() int32     { return e.serviceType }
func (e *eventImpl) Endpoint() string       { return e.endpoint }
func (e *eventImpl) DestinationID() string  { return e.destinationID }
func (e *eventImpl) NextSpanID() int64      { return e.nextSpanID }
func (e *eventImpl) Err() bool              { return e.errorMessage != "" }
func (e *eventImpl) ErrorFuncID() int32     { return e.errorFuncID }
func (e *eventImpl) ErrorMessage() string   { return e.errorMessage }
func (e *eventImpl) AsyncID() int32         { return e.asyncID }
func (e *eventImpl) Annotations() *annotation.Bag { return e.annotations }

// generateNextSpanId lazily mints the span id this event's outbound
// context injection will carry, returning the same id on repeat calls.
func (e *eventImpl) generateNextSpanId(recorder Recorder) int64 {
	if e.nextSpanID == 0 {
		e.nextSpanID = newSpanID()
	}
	return e.nextSpanID
}

func headerAnnotationKey(t ext.HeaderType) int32 {
	switch t {
	case ext.HeaderTypeResponse:
		return ext.AnnotationHTTPResponseHeader
	case ext.HeaderTypeCookie:
		return ext.AnnotationHTTPCookie
	default:
		return ext.AnnotationHTTPRequestHeader
	}
}
