// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package span

import (
	"testing"

	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
	"github.com/stretchr/testify/assert"
)

func TestEventRecordHeaderUsesRequestKeyByDefault(t *testing.T) {
	rec := newFakeRecorder()
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	e := s.NewSpanEvent("call")

	h := newFakeHeaders()
	h.Set("X-Trace", "abc")
	e.RecordHeader(ext.HeaderTypeRequest, h)

	entries := e.GetAnnotations().Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, ext.AnnotationHTTPRequestHeader, entries[0].Key)
	assert.Equal(t, "X-Trace", entries[0].Str1)
	assert.Equal(t, "abc", entries[0].Str2)
}

func TestEventRecordHeaderCookie(t *testing.T) {
	rec := newFakeRecorder()
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	e := s.NewSpanEvent("call")

	h := newFakeHeaders()
	h.Set("session", "xyz")
	e.RecordHeader(ext.HeaderTypeCookie, h)

	entries := e.GetAnnotations().Entries()
	assert.Equal(t, ext.AnnotationHTTPCookie, entries[0].Key)
}

func TestNoOpEventSettersAreHarmless(t *testing.T) {
	e := newNoOpEvent()
	e.SetServiceType(1)
	e.SetOperationName("x")
	e.SetDestination("d")
	e.SetEndPoint("ep")
	e.SetError("boom")
	e.SetErrorWithName("name", "boom")
	e.SetSqlQuery("SELECT 1")
	e.RecordHeader(ext.HeaderTypeRequest, newFakeHeaders())
	assert.Empty(t, e.GetAnnotations().Entries())
}

func TestGenerateNextSpanIdIsStable(t *testing.T) {
	rec := newFakeRecorder()
	s := New(rec, "op", "/x", "GET", ext.AppTypeGo)
	e := s.NewSpanEvent("call").(*eventImpl)

	first := e.generateNextSpanId(rec)
	second := e.generateNextSpanId(rec)
	assert.Equal(t, first, second)
	assert.NotZero(t, first)
}
