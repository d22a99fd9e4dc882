// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package span

import (
	"sort"
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/annotation"
)

// Chunk is an immutable snapshot handed to the Recorder: a reference to
// the owning Data, the finished events not yet sent, whether it is the
// final chunk for the span, and the key_time anchor optimizeSpanEvents
// uses to compute the first event's start_elapsed.
type Chunk struct {
	Data    *Data
	Events  []*eventImpl
	Final   bool
	KeyTime time.Time

	// AsyncID/AsyncSequence are set only for chunks produced by an async
	// span (LocalAsyncId in the original); zero otherwise.
	AsyncID       int32
	AsyncSequence int32
}

func newChunk(d *Data, events []*eventImpl, final bool, keyTime time.Time) *Chunk {
	return &Chunk{Data: d, Events: events, Final: final, KeyTime: keyTime, AsyncID: d.asyncID, AsyncSequence: d.asyncSequence}
}

// WireEvent is the on-wire shape of one event after optimizeSpanEvents:
// the original event plus its derived start_elapsed and the (possibly
// zeroed) emitted depth. It never mutates the authoritative eventImpl
// fields, per spec §4.3's "must not mutate authoritative fields".
type WireEvent struct {
	Event        *eventImpl
	StartElapsed int64
	EmittedDepth int32
}

// Optimize sorts c.Events by sequence and derives each event's
// start_elapsed and emitted depth (spec §4.3, invariant 7 / property 7):
// the first event's start_elapsed is measured from c.KeyTime, every
// later one from the previous event's start; consecutive events sharing
// a depth have the later one's emitted depth zeroed as a sibling marker.
func (c *Chunk) Optimize() []WireEvent {
	ordered := make([]*eventImpl, len(c.Events))
	copy(ordered, c.Events)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].sequence < ordered[j].sequence })

	out := make([]WireEvent, len(ordered))
	prevStart := c.KeyTime
	var prevDepth int32 = -1
	for i, e := range ordered {
		elapsed := e.startTime.Sub(prevStart).Milliseconds()
		depth := e.depth
		if i > 0 && depth == prevDepth {
			depth = 0
		}
		out[i] = WireEvent{Event: e, StartElapsed: elapsed, EmittedDepth: depth}
		prevStart = e.startTime
		prevDepth = e.depth
	}
	return out
}

// RootAnnotations returns the span's own (non-event) annotations; only
// meaningful on the final chunk, which alone carries the root frame.
func (c *Chunk) RootAnnotations() []annotation.Entry {
	return c.Data.annotations.Entries()
}

// TraceID is a convenience accessor so transport code building the wire
// frame need not reach into Data directly for identity fields it cannot
// otherwise see without exported accessors on this package's Data type.
func (c *Chunk) TraceID() ext.TraceID { return c.Data.traceID }
