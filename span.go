// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package pinpoint

import "github.com/pinpoint-apm/pinpoint-go-agent/internal/span"

// Span and SpanEvent are re-exported as aliases of internal/span's
// interfaces rather than declared fresh here: internal/span cannot import
// this package (AgentImpl, in agent.go, imports internal/span, and Go
// forbids the cycle that would create), so the interfaces live there and
// are aliased out for public consumption.
type (
	Span               = span.Span
	SpanEvent          = span.SpanEvent
	UrlStatEntry       = span.UrlStatEntry
	ExceptionEntry     = span.ExceptionEntry
)
