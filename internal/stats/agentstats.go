// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package stats aggregates the two periodic telemetry streams the agent
// reports to the collector outside the span pipeline: process-level
// resource/response-time snapshots (AgentStats) and per-URL latency
// histograms (UrlStats).
//
// Neither the teacher nor any other repository in the retrieval pack
// vendors a system-metrics library for CPU/heap/goroutine sampling; the
// one production tracer in the pack that reports runtime metrics at all
// (DataDog's, vendored read-only under willnorris-imageproxy) does it with
// stdlib runtime.MemStats, not a third-party profiler. That is the
// precedent this package follows.
package stats

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is one interval's worth of agent-level statistics, matching the
// fields the collector's PAgentStat message expects.
type Snapshot struct {
	SampleTime time.Time

	GCCPUFraction float64
	NumGoroutine  int64

	HeapAllocSize uint64
	HeapMaxSize   uint64

	ResponseTimeAvg int64
	ResponseTimeMax int64

	SampleNew      int64
	SampleCont     int64
	UnsampleNew    int64
	UnsampleCont   int64
	SkipNew        int64
	SkipCont       int64

	ActiveRequests [4]int32
}

// active-request histogram bucket boundaries, in milliseconds: [0,1), [1,3),
// [3,5), [5,inf) seconds. A span open for exactly one of the boundary
// values falls into the higher bucket, since the comparison below is a
// strict less-than against the upper bound of each bucket.
var activeRequestBoundsMS = [3]int64{1000, 3000, 5000}

func activeRequestBucket(elapsedMS int64) int {
	for i, bound := range activeRequestBoundsMS {
		if elapsedMS < bound {
			return i
		}
	}
	return len(activeRequestBoundsMS)
}

// AgentStats accumulates response times, active spans and sampling
// decisions between ticks, and periodically folds them into a Snapshot.
type AgentStats struct {
	activeMu    sync.Mutex
	activeSpans map[int64]time.Time

	responseMu      sync.Mutex
	accResponseTime int64
	requestCount    int64
	maxResponseTime int64

	sampleNew    int64
	sampleCont   int64
	unsampleNew  int64
	unsampleCont int64
	skipNew      int64
	skipCont     int64

	batchMu    sync.Mutex
	batch      []Snapshot
	batchCount int
}

// New returns an AgentStats that hands off a completed batch every
// batchCount ticks.
func New(batchCount int) *AgentStats {
	if batchCount <= 0 {
		batchCount = 1
	}
	return &AgentStats{
		activeSpans: make(map[int64]time.Time),
		batchCount:  batchCount,
	}
}

// AddActiveSpan records that spanID started at start, for the active-request
// histogram.
func (a *AgentStats) AddActiveSpan(spanID int64, start time.Time) {
	a.activeMu.Lock()
	a.activeSpans[spanID] = start
	a.activeMu.Unlock()
}

// DropActiveSpan removes spanID from the active-request table.
func (a *AgentStats) DropActiveSpan(spanID int64) {
	a.activeMu.Lock()
	delete(a.activeSpans, spanID)
	a.activeMu.Unlock()
}

func (a *AgentStats) activeRequestHistogram(now time.Time) [4]int32 {
	a.activeMu.Lock()
	defer a.activeMu.Unlock()

	var hist [4]int32
	for _, start := range a.activeSpans {
		elapsed := now.Sub(start).Milliseconds()
		hist[activeRequestBucket(elapsed)]++
	}
	return hist
}

// CollectResponseTime folds one finished span's elapsed time into the
// running average/max for the current interval.
func (a *AgentStats) CollectResponseTime(elapsedMS int64) {
	a.responseMu.Lock()
	defer a.responseMu.Unlock()

	a.accResponseTime += elapsedMS
	a.requestCount++
	if elapsedMS > a.maxResponseTime {
		a.maxResponseTime = elapsedMS
	}
}

func (a *AgentStats) drainResponseTime() (avg, max int64) {
	a.responseMu.Lock()
	defer a.responseMu.Unlock()

	if a.requestCount > 0 {
		avg = a.accResponseTime / a.requestCount
	}
	max = a.maxResponseTime
	a.accResponseTime, a.requestCount, a.maxResponseTime = 0, 0, 0
	return avg, max
}

func (a *AgentStats) IncrSampleNew()    { atomic.AddInt64(&a.sampleNew, 1) }
func (a *AgentStats) IncrSampleCont()   { atomic.AddInt64(&a.sampleCont, 1) }
func (a *AgentStats) IncrUnsampleNew()  { atomic.AddInt64(&a.unsampleNew, 1) }
func (a *AgentStats) IncrUnsampleCont() { atomic.AddInt64(&a.unsampleCont, 1) }
func (a *AgentStats) IncrSkipNew()      { atomic.AddInt64(&a.skipNew, 1) }
func (a *AgentStats) IncrSkipCont()     { atomic.AddInt64(&a.skipCont, 1) }

func (a *AgentStats) drainSamplingCounters() (sn, sc, un, uc, kn, kc int64) {
	return atomic.SwapInt64(&a.sampleNew, 0),
		atomic.SwapInt64(&a.sampleCont, 0),
		atomic.SwapInt64(&a.unsampleNew, 0),
		atomic.SwapInt64(&a.unsampleCont, 0),
		atomic.SwapInt64(&a.skipNew, 0),
		atomic.SwapInt64(&a.skipCont, 0)
}

func (a *AgentStats) collectRuntime(now time.Time) Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	sn, sc, un, uc, kn, kc := a.drainSamplingCounters()
	avg, max := a.drainResponseTime()

	return Snapshot{
		SampleTime:      now,
		GCCPUFraction:   ms.GCCPUFraction,
		NumGoroutine:    int64(runtime.NumGoroutine()),
		HeapAllocSize:   ms.HeapAlloc,
		HeapMaxSize:     ms.HeapSys,
		ResponseTimeAvg: avg,
		ResponseTimeMax: max,
		SampleNew:       sn,
		SampleCont:      sc,
		UnsampleNew:     un,
		UnsampleCont:    uc,
		SkipNew:         kn,
		SkipCont:        kc,
		ActiveRequests:  a.activeRequestHistogram(now),
	}
}

// Tick collects one snapshot and appends it to the rolling batch. When the
// batch reaches batchCount entries it is returned with ready=true and the
// internal array resets; otherwise ready is false and batch is nil.
func (a *AgentStats) Tick(now time.Time) (batch []Snapshot, ready bool) {
	snap := a.collectRuntime(now)

	a.batchMu.Lock()
	defer a.batchMu.Unlock()

	a.batch = append(a.batch, snap)
	if len(a.batch) >= a.batchCount {
		batch = a.batch
		a.batch = nil
		return batch, true
	}
	return nil, false
}
