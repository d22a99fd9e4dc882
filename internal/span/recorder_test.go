// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package span

import (
	"sync"
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
)

// fakeRecorder is a minimal, in-memory Recorder used across this
// package's tests; it plays the role the root Agent plays in
// production, without pulling in internal/stats or internal/transport.
type fakeRecorder struct {
	mu sync.Mutex

	apiIDs    map[string]int32
	nextAPI   int32
	errorIDs  map[string]int32
	nextError int32
	sqlIDs    map[string]int32
	nextSQL   int32

	spans    []*Chunk
	urlStats []UrlStatEntry

	active map[int64]time.Time

	responseTimes []int64
	sampling      []sampleCall

	MaxDepth    int32
	MaxSeq      int32
	ChunkSize   int32
	SQLLength   int
	AppNameVal  string
	AppTypeVal  int32
	AgentIDVal  string
	AgentNameV  string
	FailOn4xx   bool
	traceSeq    int64
	exiting     bool
}

type sampleCall struct {
	isNew, sampled bool
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		apiIDs:     make(map[string]int32),
		errorIDs:   make(map[string]int32),
		sqlIDs:     make(map[string]int32),
		active:     make(map[int64]time.Time),
		MaxDepth:   64,
		MaxSeq:     5000,
		ChunkSize:  20,
		SQLLength:  1024,
		AppNameVal: "test-app",
		AppTypeVal: ext.AppTypeGo,
		AgentIDVal: "agent-1",
		AgentNameV: "test-app",
		FailOn4xx:  true,
	}
}

func (f *fakeRecorder) IsExiting() bool   { return f.exiting }
func (f *fakeRecorder) AppName() string   { return f.AppNameVal }
func (f *fakeRecorder) AppType() int32    { return f.AppTypeVal }
func (f *fakeRecorder) AgentID() string   { return f.AgentIDVal }
func (f *fakeRecorder) AgentName() string { return f.AgentNameV }

func (f *fakeRecorder) GenerateTraceID() ext.TraceID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.traceSeq++
	return ext.TraceID{AgentID: f.AgentIDVal, StartTime: 1000, Sequence: f.traceSeq}
}

func (f *fakeRecorder) CacheAPI(operation string, apiType int32) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := operation
	if id, ok := f.apiIDs[key]; ok {
		return id
	}
	f.nextAPI++
	f.apiIDs[key] = f.nextAPI
	return f.nextAPI
}
func (f *fakeRecorder) RemoveCacheAPI(operation string, apiType int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.apiIDs, operation)
}

func (f *fakeRecorder) CacheError(name string) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.errorIDs[name]; ok {
		return id
	}
	f.nextError++
	f.errorIDs[name] = f.nextError
	return f.nextError
}
func (f *fakeRecorder) RemoveCacheError(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errorIDs, name)
}

func (f *fakeRecorder) CacheSQL(sql string) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.sqlIDs[sql]; ok {
		return id
	}
	f.nextSQL++
	f.sqlIDs[sql] = f.nextSQL
	return f.nextSQL
}
func (f *fakeRecorder) RemoveCacheSQL(sql string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sqlIDs, sql)
}
func (f *fakeRecorder) CacheSQLUID(sql string) []byte {
	return []byte(sql)[:min(len(sql), 8)]
}
func (f *fakeRecorder) RemoveCacheSQLUID(sql string) {}

func (f *fakeRecorder) RecordSpan(chunk *Chunk) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spans = append(f.spans, chunk)
}
func (f *fakeRecorder) RecordURLStat(entry UrlStatEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urlStats = append(f.urlStats, entry)
}

func (f *fakeRecorder) IsStatusFail(statusCode int32) bool {
	return f.FailOn4xx && statusCode/100 >= 4
}

func (f *fakeRecorder) RegisterActiveSpan(spanID int64, start time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[spanID] = start
}
func (f *fakeRecorder) UnregisterActiveSpan(spanID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, spanID)
}
func (f *fakeRecorder) RecordResponseTime(elapsedMS int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responseTimes = append(f.responseTimes, elapsedMS)
}
func (f *fakeRecorder) RecordSampling(isNew, sampled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sampling = append(f.sampling, sampleCall{isNew, sampled})
}

func (f *fakeRecorder) MaxEventDepth() int32    { return f.MaxDepth }
func (f *fakeRecorder) MaxEventSequence() int32 { return f.MaxSeq }
func (f *fakeRecorder) EventChunkSize() int32   { return f.ChunkSize }
func (f *fakeRecorder) MaxSQLLength() int       { return f.SQLLength }

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// fakeHeaders is a map-backed TraceContextReader/Writer/HeaderReader used
// to test context propagation round trips.
type fakeHeaders struct {
	values map[string]string
}

func newFakeHeaders() *fakeHeaders { return &fakeHeaders{values: map[string]string{}} }

func (h *fakeHeaders) Get(key string) string { return h.values[key] }
func (h *fakeHeaders) Set(key, value string) { h.values[key] = value }
func (h *fakeHeaders) ForEach(cb func(key, value string) bool) {
	for k, v := range h.values {
		if !cb(k, v) {
			return
		}
	}
}
