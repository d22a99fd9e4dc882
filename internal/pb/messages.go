// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package pb defines the wire messages exchanged with the collector and
// their MessagePack encoding. The collector's real-world wire format is
// protobuf (see orig/src/grpc.h and the vendored v1/Service.grpc.pb.h it
// includes), generated from .proto files that aren't part of this module's
// inputs; rather than hand-fabricate generated protobuf code this package
// encodes the same message shapes with tinylib/msgp's low-level
// Append/Read primitives and carries them over grpc using a custom codec
// (see codec.go), the same pattern projects reach for when they want a
// grpc transport without a protobuf toolchain in the build.
package pb

import (
	"github.com/tinylib/msgp/msgp"
)

// TransactionID identifies a trace across process boundaries.
type TransactionID struct {
	AgentID   string
	StartTime int64
	Sequence  int64
}

func (t TransactionID) AppendMsg(b []byte) []byte {
	b = msgp.AppendArrayHeader(b, 3)
	b = msgp.AppendString(b, t.AgentID)
	b = msgp.AppendInt64(b, t.StartTime)
	b = msgp.AppendInt64(b, t.Sequence)
	return b
}

func readTransactionID(b []byte) (TransactionID, []byte, error) {
	var t TransactionID
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return t, b, err
	}
	t.AgentID, b, err = msgp.ReadStringBytes(b)
	if err != nil {
		return t, b, err
	}
	t.StartTime, b, err = msgp.ReadInt64Bytes(b)
	if err != nil {
		return t, b, err
	}
	t.Sequence, b, err = msgp.ReadInt64Bytes(b)
	return t, b, err
}

// Annotation is one key/value annotation entry, wide enough to carry any
// of the shapes internal/annotation.Entry produces, including the
// exception shape (long + two ints + two bytes + string).
type Annotation struct {
	Key      int32
	IntVal   int32
	IntVal2  int32
	LongVal  int64
	Str1     string
	Str2     string
	Bytes    []byte
	BoolVal  bool
	ByteVal1 byte
	ByteVal2 byte
}

func (a Annotation) AppendMsg(b []byte) []byte {
	b = msgp.AppendArrayHeader(b, 10)
	b = msgp.AppendInt32(b, a.Key)
	b = msgp.AppendInt32(b, a.IntVal)
	b = msgp.AppendInt32(b, a.IntVal2)
	b = msgp.AppendInt64(b, a.LongVal)
	b = msgp.AppendString(b, a.Str1)
	b = msgp.AppendString(b, a.Str2)
	b = msgp.AppendBytes(b, a.Bytes)
	b = msgp.AppendBool(b, a.BoolVal)
	b = msgp.AppendByte(b, a.ByteVal1)
	b = msgp.AppendByte(b, a.ByteVal2)
	return b
}

func readAnnotation(b []byte) (Annotation, []byte, error) {
	var a Annotation
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return a, b, err
	}
	if a.Key, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return a, b, err
	}
	if a.IntVal, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return a, b, err
	}
	if a.IntVal2, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return a, b, err
	}
	if a.LongVal, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return a, b, err
	}
	if a.Str1, b, err = msgp.ReadStringBytes(b); err != nil {
		return a, b, err
	}
	if a.Str2, b, err = msgp.ReadStringBytes(b); err != nil {
		return a, b, err
	}
	if a.Bytes, b, err = msgp.ReadBytesBytes(b, nil); err != nil {
		return a, b, err
	}
	if a.BoolVal, b, err = msgp.ReadBoolBytes(b); err != nil {
		return a, b, err
	}
	if a.ByteVal1, b, err = msgp.ReadByteBytes(b); err != nil {
		return a, b, err
	}
	a.ByteVal2, b, err = msgp.ReadByteBytes(b)
	return a, b, err
}

func appendAnnotations(b []byte, list []Annotation) []byte {
	b = msgp.AppendArrayHeader(b, uint32(len(list)))
	for _, a := range list {
		b = a.AppendMsg(b)
	}
	return b
}

func readAnnotations(b []byte) ([]Annotation, []byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	if n == 0 {
		return nil, b, nil
	}
	out := make([]Annotation, 0, n)
	for i := uint32(0); i < n; i++ {
		var a Annotation
		a, b, err = readAnnotation(b)
		if err != nil {
			return out, b, err
		}
		out = append(out, a)
	}
	return out, b, nil
}

// SpanEvent is one node of a span's event tree on the wire.
type SpanEvent struct {
	Sequence     int32
	Depth        int32
	StartElapsed int64
	ApiID        int32
	ServiceType  int32
	EndPoint     string
	Destination  string
	NextSpanID   int64
	Err          bool
	ErrorFuncID  int32
	ErrorMessage string
	Annotations  []Annotation
}

func (e SpanEvent) AppendMsg(b []byte) []byte {
	b = msgp.AppendArrayHeader(b, 12)
	b = msgp.AppendInt32(b, e.Sequence)
	b = msgp.AppendInt32(b, e.Depth)
	b = msgp.AppendInt64(b, e.StartElapsed)
	b = msgp.AppendInt32(b, e.ApiID)
	b = msgp.AppendInt32(b, e.ServiceType)
	b = msgp.AppendString(b, e.EndPoint)
	b = msgp.AppendString(b, e.Destination)
	b = msgp.AppendInt64(b, e.NextSpanID)
	b = msgp.AppendBool(b, e.Err)
	b = msgp.AppendInt32(b, e.ErrorFuncID)
	b = msgp.AppendString(b, e.ErrorMessage)
	b = appendAnnotations(b, e.Annotations)
	return b
}

func readSpanEvent(b []byte) (SpanEvent, []byte, error) {
	var e SpanEvent
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return e, b, err
	}
	if e.Sequence, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return e, b, err
	}
	if e.Depth, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return e, b, err
	}
	if e.StartElapsed, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return e, b, err
	}
	if e.ApiID, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return e, b, err
	}
	if e.ServiceType, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return e, b, err
	}
	if e.EndPoint, b, err = msgp.ReadStringBytes(b); err != nil {
		return e, b, err
	}
	if e.Destination, b, err = msgp.ReadStringBytes(b); err != nil {
		return e, b, err
	}
	if e.NextSpanID, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return e, b, err
	}
	if e.Err, b, err = msgp.ReadBoolBytes(b); err != nil {
		return e, b, err
	}
	if e.ErrorFuncID, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return e, b, err
	}
	if e.ErrorMessage, b, err = msgp.ReadStringBytes(b); err != nil {
		return e, b, err
	}
	e.Annotations, b, err = readAnnotations(b)
	return e, b, err
}

// Span is a finished, final span chunk: transaction identity, the root
// attributes and the full event tree.
type Span struct {
	TransactionID TransactionID
	SpanID        int64
	ParentSpanID  int64
	ParentAppName string
	ParentAppType int32
	AppType       int32
	ServiceType   int32
	RPC           string
	Method        string
	EndPoint      string
	RemoteAddr    string
	StartTime     int64
	Elapsed       int32
	ApiID         int32
	Err           bool
	StatusCode    int32
	Annotations   []Annotation
	Events        []SpanEvent
}

func (s Span) AppendMsg(b []byte) []byte {
	b = msgp.AppendArrayHeader(b, 18)
	b = s.TransactionID.AppendMsg(b)
	b = msgp.AppendInt64(b, s.SpanID)
	b = msgp.AppendInt64(b, s.ParentSpanID)
	b = msgp.AppendString(b, s.ParentAppName)
	b = msgp.AppendInt32(b, s.ParentAppType)
	b = msgp.AppendInt32(b, s.AppType)
	b = msgp.AppendInt32(b, s.ServiceType)
	b = msgp.AppendString(b, s.RPC)
	b = msgp.AppendString(b, s.Method)
	b = msgp.AppendString(b, s.EndPoint)
	b = msgp.AppendString(b, s.RemoteAddr)
	b = msgp.AppendInt64(b, s.StartTime)
	b = msgp.AppendInt32(b, s.Elapsed)
	b = msgp.AppendInt32(b, s.ApiID)
	b = msgp.AppendBool(b, s.Err)
	b = msgp.AppendInt32(b, s.StatusCode)
	b = appendAnnotations(b, s.Annotations)
	b = msgp.AppendArrayHeader(b, uint32(len(s.Events)))
	for _, e := range s.Events {
		b = e.AppendMsg(b)
	}
	return b
}

func ReadSpan(b []byte) (Span, []byte, error) {
	var s Span
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return s, b, err
	}
	if s.TransactionID, b, err = readTransactionID(b); err != nil {
		return s, b, err
	}
	if s.SpanID, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.ParentSpanID, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.ParentAppName, b, err = msgp.ReadStringBytes(b); err != nil {
		return s, b, err
	}
	if s.ParentAppType, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return s, b, err
	}
	if s.AppType, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return s, b, err
	}
	if s.ServiceType, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return s, b, err
	}
	if s.RPC, b, err = msgp.ReadStringBytes(b); err != nil {
		return s, b, err
	}
	if s.Method, b, err = msgp.ReadStringBytes(b); err != nil {
		return s, b, err
	}
	if s.EndPoint, b, err = msgp.ReadStringBytes(b); err != nil {
		return s, b, err
	}
	if s.RemoteAddr, b, err = msgp.ReadStringBytes(b); err != nil {
		return s, b, err
	}
	if s.StartTime, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.Elapsed, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return s, b, err
	}
	if s.ApiID, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return s, b, err
	}
	if s.Err, b, err = msgp.ReadBoolBytes(b); err != nil {
		return s, b, err
	}
	if s.StatusCode, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return s, b, err
	}
	if s.Annotations, b, err = readAnnotations(b); err != nil {
		return s, b, err
	}
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return s, b, err
	}
	s.Events = make([]SpanEvent, 0, n)
	for i := uint32(0); i < n; i++ {
		var e SpanEvent
		e, b, err = readSpanEvent(b)
		if err != nil {
			return s, b, err
		}
		s.Events = append(s.Events, e)
	}
	return s, b, nil
}

func (s Span) MarshalMsg(b []byte) ([]byte, error) { return s.AppendMsg(b), nil }
func (s *Span) UnmarshalMsg(b []byte) ([]byte, error) {
	v, rest, err := ReadSpan(b)
	*s = v
	return rest, err
}

// SpanChunk is a batch of finished events flushed mid-span when the event
// chunk size cap is reached. It also carries every chunk of an async span,
// including the final one.
type SpanChunk struct {
	TransactionID TransactionID
	SpanID        int64
	KeyTime       int64
	AsyncID       int32
	AsyncSequence int32
	Events        []SpanEvent
}

func (c SpanChunk) AppendMsg(b []byte) []byte {
	b = msgp.AppendArrayHeader(b, 6)
	b = c.TransactionID.AppendMsg(b)
	b = msgp.AppendInt64(b, c.SpanID)
	b = msgp.AppendInt64(b, c.KeyTime)
	b = msgp.AppendInt32(b, c.AsyncID)
	b = msgp.AppendInt32(b, c.AsyncSequence)
	b = msgp.AppendArrayHeader(b, uint32(len(c.Events)))
	for _, e := range c.Events {
		b = e.AppendMsg(b)
	}
	return b
}

func ReadSpanChunk(b []byte) (SpanChunk, []byte, error) {
	var c SpanChunk
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return c, b, err
	}
	if c.TransactionID, b, err = readTransactionID(b); err != nil {
		return c, b, err
	}
	if c.SpanID, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return c, b, err
	}
	if c.KeyTime, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return c, b, err
	}
	if c.AsyncID, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return c, b, err
	}
	if c.AsyncSequence, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return c, b, err
	}
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return c, b, err
	}
	c.Events = make([]SpanEvent, 0, n)
	for i := uint32(0); i < n; i++ {
		var e SpanEvent
		e, b, err = readSpanEvent(b)
		if err != nil {
			return c, b, err
		}
		c.Events = append(c.Events, e)
	}
	return c, b, nil
}

func (c SpanChunk) MarshalMsg(b []byte) ([]byte, error) { return c.AppendMsg(b), nil }
func (c *SpanChunk) UnmarshalMsg(b []byte) ([]byte, error) {
	v, rest, err := ReadSpanChunk(b)
	*c = v
	return rest, err
}

// SpanMessage is the oneof the original streams over the span channel:
// exactly one of Span or Chunk is set.
type SpanMessage struct {
	Span  *Span
	Chunk *SpanChunk
}

func (m SpanMessage) MarshalMsg(b []byte) ([]byte, error) {
	switch {
	case m.Span != nil:
		b = msgp.AppendInt32(b, 1)
		b = m.Span.AppendMsg(b)
	case m.Chunk != nil:
		b = msgp.AppendInt32(b, 2)
		b = m.Chunk.AppendMsg(b)
	default:
		b = msgp.AppendInt32(b, 0)
	}
	return b, nil
}

func (m *SpanMessage) UnmarshalMsg(b []byte) ([]byte, error) {
	kind, b, err := msgp.ReadInt32Bytes(b)
	if err != nil {
		return b, err
	}
	switch kind {
	case 1:
		var s Span
		s, b, err = ReadSpan(b)
		m.Span = &s
	case 2:
		var c SpanChunk
		c, b, err = ReadSpanChunk(b)
		m.Chunk = &c
	}
	return b, err
}

// Ping is the empty heartbeat both sides exchange on the agent stream.
type Ping struct{}

func (Ping) MarshalMsg(b []byte) ([]byte, error) { return msgp.AppendArrayHeader(b, 0), nil }
func (*Ping) UnmarshalMsg(b []byte) ([]byte, error) {
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	return b, err
}

// AgentInfo is sent once at stream startup to register the process.
type AgentInfo struct {
	AgentID      string
	AgentName    string
	AppName      string
	AppType      int32
	Hostname     string
	IP           string
	Pid          int32
	StartTimeMS  int64
	AgentVersion string
}

func (a AgentInfo) AppendMsg(b []byte) []byte {
	b = msgp.AppendArrayHeader(b, 9)
	b = msgp.AppendString(b, a.AgentID)
	b = msgp.AppendString(b, a.AgentName)
	b = msgp.AppendString(b, a.AppName)
	b = msgp.AppendInt32(b, a.AppType)
	b = msgp.AppendString(b, a.Hostname)
	b = msgp.AppendString(b, a.IP)
	b = msgp.AppendInt32(b, a.Pid)
	b = msgp.AppendInt64(b, a.StartTimeMS)
	b = msgp.AppendString(b, a.AgentVersion)
	return b
}

func (a AgentInfo) MarshalMsg(b []byte) ([]byte, error) { return a.AppendMsg(b), nil }
func (a *AgentInfo) UnmarshalMsg(b []byte) ([]byte, error) {
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	if a.AgentID, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	if a.AgentName, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	if a.AppName, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	if a.AppType, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return b, err
	}
	if a.Hostname, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	if a.IP, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	if a.Pid, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return b, err
	}
	if a.StartTimeMS, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return b, err
	}
	a.AgentVersion, b, err = msgp.ReadStringBytes(b)
	return b, err
}

// ApiMeta, StringMeta and SqlUidMeta are the metadata interning records
// sent once per newly-seen id on the metadata stream.
type ApiMeta struct {
	ID      int32
	Type    int32
	ApiInfo string
}

func (m ApiMeta) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, 3)
	b = msgp.AppendInt32(b, m.ID)
	b = msgp.AppendInt32(b, m.Type)
	b = msgp.AppendString(b, m.ApiInfo)
	return b, nil
}
func (m *ApiMeta) UnmarshalMsg(b []byte) ([]byte, error) {
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	if m.ID, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return b, err
	}
	if m.Type, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return b, err
	}
	m.ApiInfo, b, err = msgp.ReadStringBytes(b)
	return b, err
}

// StringMetaKind distinguishes the two string-cache streams (error
// messages vs SQL text) that share one wire shape.
type StringMetaKind int32

const (
	StringMetaError StringMetaKind = 0
	StringMetaSQL   StringMetaKind = 1
)

type StringMeta struct {
	ID    int32
	Value string
	Kind  StringMetaKind
}

func (m StringMeta) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, 3)
	b = msgp.AppendInt32(b, m.ID)
	b = msgp.AppendString(b, m.Value)
	b = msgp.AppendInt32(b, int32(m.Kind))
	return b, nil
}
func (m *StringMeta) UnmarshalMsg(b []byte) ([]byte, error) {
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	if m.ID, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return b, err
	}
	if m.Value, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	var kind int32
	kind, b, err = msgp.ReadInt32Bytes(b)
	m.Kind = StringMetaKind(kind)
	return b, err
}

type SqlUidMeta struct {
	UID []byte
	SQL string
}

func (m SqlUidMeta) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, 2)
	b = msgp.AppendBytes(b, m.UID)
	b = msgp.AppendString(b, m.SQL)
	return b, nil
}
func (m *SqlUidMeta) UnmarshalMsg(b []byte) ([]byte, error) {
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	if m.UID, b, err = msgp.ReadBytesBytes(b, nil); err != nil {
		return b, err
	}
	m.SQL, b, err = msgp.ReadStringBytes(b)
	return b, err
}

// AgentStat is one interval's worth of process telemetry on the wire.
type AgentStat struct {
	SampleTime      int64
	GCCPUFraction   float64
	NumGoroutine    int64
	HeapAllocSize   int64
	HeapMaxSize     int64
	ResponseTimeAvg int64
	ResponseTimeMax int64
	SampleNew       int64
	SampleCont      int64
	UnsampleNew     int64
	UnsampleCont    int64
	SkipNew         int64
	SkipCont        int64
	ActiveRequests  [4]int32
}

func (s AgentStat) AppendMsg(b []byte) []byte {
	b = msgp.AppendArrayHeader(b, 14)
	b = msgp.AppendInt64(b, s.SampleTime)
	b = msgp.AppendFloat64(b, s.GCCPUFraction)
	b = msgp.AppendInt64(b, s.NumGoroutine)
	b = msgp.AppendInt64(b, s.HeapAllocSize)
	b = msgp.AppendInt64(b, s.HeapMaxSize)
	b = msgp.AppendInt64(b, s.ResponseTimeAvg)
	b = msgp.AppendInt64(b, s.ResponseTimeMax)
	b = msgp.AppendInt64(b, s.SampleNew)
	b = msgp.AppendInt64(b, s.SampleCont)
	b = msgp.AppendInt64(b, s.UnsampleNew)
	b = msgp.AppendInt64(b, s.UnsampleCont)
	b = msgp.AppendInt64(b, s.SkipNew)
	b = msgp.AppendInt64(b, s.SkipCont)
	b = msgp.AppendArrayHeader(b, 4)
	for _, v := range s.ActiveRequests {
		b = msgp.AppendInt32(b, v)
	}
	return b
}

func readAgentStat(b []byte) (AgentStat, []byte, error) {
	var s AgentStat
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return s, b, err
	}
	if s.SampleTime, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.GCCPUFraction, b, err = msgp.ReadFloat64Bytes(b); err != nil {
		return s, b, err
	}
	if s.NumGoroutine, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.HeapAllocSize, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.HeapMaxSize, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.ResponseTimeAvg, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.ResponseTimeMax, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.SampleNew, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.SampleCont, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.UnsampleNew, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.UnsampleCont, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.SkipNew, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	if s.SkipCont, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return s, b, err
	}
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return s, b, err
	}
	for i := uint32(0); i < n && i < 4; i++ {
		s.ActiveRequests[i], b, err = msgp.ReadInt32Bytes(b)
		if err != nil {
			return s, b, err
		}
	}
	return s, b, nil
}

// StatMessage is one batch handoff from internal/stats.AgentStats.Tick.
type StatMessage struct {
	AgentID string
	Stats   []AgentStat
}

func (m StatMessage) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, 2)
	b = msgp.AppendString(b, m.AgentID)
	b = msgp.AppendArrayHeader(b, uint32(len(m.Stats)))
	for _, s := range m.Stats {
		b = s.AppendMsg(b)
	}
	return b, nil
}

func (m *StatMessage) UnmarshalMsg(b []byte) ([]byte, error) {
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	if m.AgentID, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	m.Stats = make([]AgentStat, 0, n)
	for i := uint32(0); i < n; i++ {
		var s AgentStat
		s, b, err = readAgentStat(b)
		if err != nil {
			return b, err
		}
		m.Stats = append(m.Stats, s)
	}
	return b, nil
}

// UrlStatHistogram mirrors internal/stats.UrlStatHistogram on the wire.
type UrlStatHistogram struct {
	Count   int64
	Total   int64
	Max     int32
	Buckets [8]int32
}

func (h UrlStatHistogram) AppendMsg(b []byte) []byte {
	b = msgp.AppendArrayHeader(b, 4)
	b = msgp.AppendInt64(b, h.Count)
	b = msgp.AppendInt64(b, h.Total)
	b = msgp.AppendInt32(b, h.Max)
	b = msgp.AppendArrayHeader(b, 8)
	for _, v := range h.Buckets {
		b = msgp.AppendInt32(b, v)
	}
	return b
}

func readUrlStatHistogram(b []byte) (UrlStatHistogram, []byte, error) {
	var h UrlStatHistogram
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return h, b, err
	}
	if h.Count, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return h, b, err
	}
	if h.Total, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return h, b, err
	}
	if h.Max, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return h, b, err
	}
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return h, b, err
	}
	for i := uint32(0); i < n && i < 8; i++ {
		h.Buckets[i], b, err = msgp.ReadInt32Bytes(b)
		if err != nil {
			return h, b, err
		}
	}
	return h, b, nil
}

// EachUrlStat is one (url, time window) histogram pair on the wire.
type EachUrlStat struct {
	URL   string
	Tick  int64
	Total UrlStatHistogram
	Fail  UrlStatHistogram
}

func (e EachUrlStat) AppendMsg(b []byte) []byte {
	b = msgp.AppendArrayHeader(b, 4)
	b = msgp.AppendString(b, e.URL)
	b = msgp.AppendInt64(b, e.Tick)
	b = e.Total.AppendMsg(b)
	b = e.Fail.AppendMsg(b)
	return b
}

func readEachUrlStat(b []byte) (EachUrlStat, []byte, error) {
	var e EachUrlStat
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return e, b, err
	}
	if e.URL, b, err = msgp.ReadStringBytes(b); err != nil {
		return e, b, err
	}
	if e.Tick, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return e, b, err
	}
	if e.Total, b, err = readUrlStatHistogram(b); err != nil {
		return e, b, err
	}
	e.Fail, b, err = readUrlStatHistogram(b)
	return e, b, err
}

// UrlStatMessage is one sender tick's worth of URL latency histograms.
type UrlStatMessage struct {
	AgentID string
	Entries []EachUrlStat
}

func (m UrlStatMessage) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, 2)
	b = msgp.AppendString(b, m.AgentID)
	b = msgp.AppendArrayHeader(b, uint32(len(m.Entries)))
	for _, e := range m.Entries {
		b = e.AppendMsg(b)
	}
	return b, nil
}

func (m *UrlStatMessage) UnmarshalMsg(b []byte) ([]byte, error) {
	_, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	if m.AgentID, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	m.Entries = make([]EachUrlStat, 0, n)
	for i := uint32(0); i < n; i++ {
		var e EachUrlStat
		e, b, err = readEachUrlStat(b)
		if err != nil {
			return b, err
		}
		m.Entries = append(m.Entries, e)
	}
	return b, nil
}
