// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package pinpoint is the public SDK surface for instrumenting a Go
// process with Pinpoint distributed tracing: it builds a per-request
// span/event tree, propagates trace context across process boundaries,
// and streams finished spans, metadata and runtime statistics to a
// Pinpoint collector over gRPC.
//
// A process creates one Agent with CreateAgent at startup, keeping the
// returned handle for the lifetime of the process (or relying on
// GlobalAgent, which CreateAgent also registers). Every traced unit of
// work then calls Agent.NewSpan, which applies the configured exclude
// and sampling rules before handing back a Span. The caller drives the
// span's event tree with NewSpanEvent/EndSpanEvent and finishes it with
// EndSpan; InjectContext/ExtractContext carry the Pinpoint-* propagation
// headers across RPC boundaries.
package pinpoint
