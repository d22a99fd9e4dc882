// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package span

import (
	"testing"
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
	"github.com/stretchr/testify/assert"
)

// S1. Minimal sampled span.
func TestMinimalSampledSpan(t *testing.T) {
	rec := newFakeRecorder()
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	s.EndSpan()

	assert.Len(t, rec.spans, 1)
	chunk := rec.spans[0]
	assert.True(t, chunk.Final)
	assert.Empty(t, chunk.Events)
	assert.Empty(t, chunk.RootAnnotations())
	assert.Greater(t, s.GetTraceId().Sequence, int64(0))
	assert.GreaterOrEqual(t, s.data.EndTime(), s.data.StartTime())
}

// S2. Unsampled propagation.
func TestUnsampledSpanPropagation(t *testing.T) {
	rec := newFakeRecorder()
	u := NewUnsampled(rec)
	assert.False(t, u.IsSampled())

	u.SetUrlStat("/a", "GET", 200)
	u.EndSpan()

	assert.Empty(t, rec.spans, "unsampled spans never emit a payload chunk")
	assert.Len(t, rec.urlStats, 1)

	w := newFakeHeaders()
	u.InjectContext(w)
	assert.Equal(t, map[string]string{ext.HeaderSampled: ext.SampledUnsampled}, w.values)
}

// S3. Depth overflow.
func TestDepthOverflow(t *testing.T) {
	rec := newFakeRecorder()
	rec.MaxDepth = 2
	s := New(rec, "root", "/x", "GET", ext.AppTypeGo)

	a := s.NewSpanEvent("a")
	b := s.NewSpanEvent("b")
	c := s.NewSpanEvent("c") // depth would be 3 > max 2: overflow

	a.SetOperationName("a") // sanity: real event, not no-op
	b.SetOperationName("b")
	_ = c

	s.EndSpanEvent() // closes c's overflow slot
	s.EndSpanEvent() // closes b
	s.EndSpanEvent() // closes a
	s.EndSpan()

	assert.Len(t, rec.spans, 1)
	chunk := rec.spans[0]
	assert.Len(t, chunk.Events, 2)
	assert.Equal(t, int32(1), s.data.eventDepth, "depth must return to 1 after all events close")
}

// S4. Context round-trip.
func TestContextRoundTrip(t *testing.T) {
	rec := newFakeRecorder()
	parent := New(rec, "parent-op", "/x", "GET", ext.AppTypeGo)
	parent.ExtractContext(newFakeHeaders()) // no headers: new trace

	parent.NewSpanEvent("call-child")
	w := newFakeHeaders()
	parent.InjectContext(w)

	child := New(rec, "child-op", "/y", "GET", ext.AppTypeGo)
	child.ExtractContext(w)

	assert.Equal(t, parent.GetSpanId(), child.data.ParentSpanID())
	assert.Equal(t, parent.GetTraceId(), child.GetTraceId())
	assert.NotEqual(t, parent.GetSpanId(), child.GetSpanId())
}

// Property 1: NewSpanEvent/EndSpanEvent count balance including overflow.
func TestEventCountBalance(t *testing.T) {
	rec := newFakeRecorder()
	rec.MaxDepth = 3
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)

	opens := 5
	for i := 0; i < opens; i++ {
		s.NewSpanEvent("e")
	}
	for i := 0; i < opens; i++ {
		s.EndSpanEvent()
	}
	s.EndSpan()

	assert.Equal(t, int32(1), s.data.eventDepth)
	assert.Equal(t, int32(0), s.data.overflow)
}

// Invariant I4: end_time >= start_time, elapsed = end - start.
func TestElapsedConsistency(t *testing.T) {
	rec := newFakeRecorder()
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	time.Sleep(2 * time.Millisecond)
	s.EndSpan()

	assert.GreaterOrEqual(t, s.data.EndTime().UnixNano(), s.data.StartTime().UnixNano())
	want := s.data.EndTime().Sub(s.data.StartTime()).Milliseconds()
	assert.Equal(t, want, s.data.ElapsedMS())
}

func TestEndSpanIdempotent(t *testing.T) {
	rec := newFakeRecorder()
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	s.EndSpan()
	s.EndSpan()
	assert.Len(t, rec.spans, 1, "a second EndSpan must not emit another chunk")
}

func TestAsyncSpanLinksByValue(t *testing.T) {
	rec := newFakeRecorder()
	parent := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	parent.NewSpanEvent("fan-out")

	child := parent.NewAsyncSpan("background-job")
	childImpl := child.(*Impl)

	assert.True(t, childImpl.async)
	assert.Equal(t, parent.GetTraceId(), child.GetTraceId())
	assert.Equal(t, parent.GetSpanId(), child.GetSpanId())
	assert.NotEqual(t, int32(ext.NoneAsyncID), childImpl.data.AsyncID())

	child.EndSpan()
	assert.Len(t, rec.spans, 1)
	assert.True(t, rec.spans[0].AsyncID != ext.NoneAsyncID)
}

func TestNewAsyncSpanWithoutOpenEventDegrades(t *testing.T) {
	rec := newFakeRecorder()
	parent := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	child := parent.NewAsyncSpan("no-parent-event")
	assert.False(t, child.IsSampled())
}

func TestSetSqlQueryAnnotatesBothIDAndUID(t *testing.T) {
	rec := newFakeRecorder()
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	e := s.NewSpanEvent("query")
	e.SetSqlQuery("SELECT * FROM t WHERE id = 123")

	entries := e.GetAnnotations().Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, ext.AnnotationSQLID, entries[0].Key)
	assert.Equal(t, ext.AnnotationSQLUID, entries[1].Key)
	assert.Contains(t, entries[0].Str1, "id = 0#")
}

func TestSetStatusCodeMarksError(t *testing.T) {
	rec := newFakeRecorder()
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	s.SetStatusCode(500)
	assert.True(t, s.data.Err())
}

func TestSettersAreNoOpsAfterEndSpan(t *testing.T) {
	rec := newFakeRecorder()
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	s.EndSpan()

	s.SetRemoteAddress("1.2.3.4")
	s.SetError("boom")
	assert.Empty(t, s.data.RemoteAddr())
	assert.False(t, s.data.Err())
}

func TestInjectContextWithoutOpenEventIsNoOp(t *testing.T) {
	rec := newFakeRecorder()
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	w := newFakeHeaders()
	s.InjectContext(w)
	assert.Empty(t, w.values)
}
