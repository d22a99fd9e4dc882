// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package pinpoint

// SpanEvent's methods are declared on the aliased interface in span.go;
// this file exists only so the event-tree surface has the same
// file-per-concept layout the span package itself uses.
