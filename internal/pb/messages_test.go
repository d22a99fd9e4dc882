// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package pb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
)

func TestSpanRoundTrip(t *testing.T) {
	in := Span{
		TransactionID: TransactionID{AgentID: "agent-1", StartTime: 1000, Sequence: 7},
		SpanID:        42,
		ParentSpanID:  -1,
		AppType:       1500,
		ServiceType:   1100,
		RPC:           "/orders",
		Method:        "GET",
		StartTime:     1000,
		Elapsed:       15,
		ApiID:         3,
		Err:           true,
		StatusCode:    500,
		Annotations: []Annotation{
			{Key: 20, LongVal: 9, Str1: "a", Str2: "b"},
		},
		Events: []SpanEvent{
			{Sequence: 1, Depth: 2, StartElapsed: 5, ApiID: 3, ServiceType: 1100, Annotations: []Annotation{{Key: 40, Bytes: []byte{1, 2, 3}}}},
		},
	}

	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out Span
	_, err = (&out).UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSpanChunkRoundTrip(t *testing.T) {
	in := SpanChunk{
		TransactionID: TransactionID{AgentID: "agent-1", StartTime: 1000, Sequence: 7},
		SpanID:        42,
		KeyTime:       1234,
		AsyncID:       9,
		AsyncSequence: 2,
		Events:        []SpanEvent{{Sequence: 1, Depth: 1}},
	}

	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out SpanChunk
	_, err = (&out).UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSpanMessageOneofRoundTrip(t *testing.T) {
	span := Span{SpanID: 1}
	in := SpanMessage{Span: &span}

	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out SpanMessage
	_, err = (&out).UnmarshalMsg(raw)
	require.NoError(t, err)
	require.NotNil(t, out.Span)
	assert.Nil(t, out.Chunk)
	assert.Equal(t, int64(1), out.Span.SpanID)

	chunk := SpanChunk{SpanID: 2}
	in2 := SpanMessage{Chunk: &chunk}
	raw2, err := in2.MarshalMsg(nil)
	require.NoError(t, err)

	var out2 SpanMessage
	_, err = (&out2).UnmarshalMsg(raw2)
	require.NoError(t, err)
	assert.Nil(t, out2.Span)
	require.NotNil(t, out2.Chunk)
	assert.Equal(t, int64(2), out2.Chunk.SpanID)
}

func TestAgentInfoRoundTrip(t *testing.T) {
	in := AgentInfo{
		AgentID: "a1", AgentName: "svc", AppName: "svc", AppType: 1500,
		Hostname: "host", IP: "1.2.3.4", Pid: 99, StartTimeMS: 123456, AgentVersion: "1.0.0",
	}
	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out AgentInfo
	_, err = (&out).UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestApiMetaRoundTrip(t *testing.T) {
	in := ApiMeta{ID: 3, Type: 100, ApiInfo: "GET /x"}
	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out ApiMeta
	_, err = (&out).UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStringMetaRoundTrip(t *testing.T) {
	in := StringMeta{ID: 5, Value: "boom", Kind: StringMetaError}
	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out StringMeta
	_, err = (&out).UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSqlUidMetaRoundTrip(t *testing.T) {
	in := SqlUidMeta{UID: []byte{1, 2, 3, 4}, SQL: "select * from t where id = ?"}
	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out SqlUidMeta
	_, err = (&out).UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStatMessageRoundTrip(t *testing.T) {
	in := StatMessage{
		AgentID: "agent-1",
		Stats: []AgentStat{
			{SampleTime: 1000, GCCPUFraction: 0.02, NumGoroutine: 12, HeapAllocSize: 4096,
				ResponseTimeAvg: 10, ResponseTimeMax: 50, SampleNew: 2, ActiveRequests: [4]int32{1, 0, 0, 0}},
		},
	}
	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out StatMessage
	_, err = (&out).UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUrlStatMessageRoundTrip(t *testing.T) {
	in := UrlStatMessage{
		AgentID: "agent-1",
		Entries: []EachUrlStat{
			{URL: "GET /orders/*", Tick: 60000,
				Total: UrlStatHistogram{Count: 2, Total: 220, Max: 120, Buckets: [8]int32{0, 1, 1, 0, 0, 0, 0, 0}},
				Fail:  UrlStatHistogram{Count: 1, Total: 80, Max: 80, Buckets: [8]int32{0, 1, 0, 0, 0, 0, 0, 0}},
			},
		},
	}
	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out UrlStatMessage
	_, err = (&out).UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPingRoundTrip(t *testing.T) {
	in := Ping{}
	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out Ping
	_, err = (&out).UnmarshalMsg(raw)
	require.NoError(t, err)
}

func TestCodecMarshalRequiresMarshalerOrProtoMessage(t *testing.T) {
	c := codec{}
	_, err := c.Marshal("not a marshaler")
	assert.Error(t, err)
}

func TestCodecRoundTrip(t *testing.T) {
	c := codec{}
	in := AgentInfo{AgentID: "a1"}
	raw, err := c.Marshal(in)
	require.NoError(t, err)

	var out AgentInfo
	require.NoError(t, c.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestCodecFallsBackToProtobufForEmpty(t *testing.T) {
	c := codec{}
	raw, err := c.Marshal(&emptypb.Empty{})
	require.NoError(t, err)

	var out emptypb.Empty
	require.NoError(t, c.Unmarshal(raw, &out))
}
