// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package pinpoint

import "github.com/pinpoint-apm/pinpoint-go-agent/internal/span"

// noopAgent is the inert Agent returned by GlobalAgent before CreateAgent
// runs, and substituted in after Shutdown or a disabled-by-config
// CreateAgent call: every method is a cheap, side-effect-free stand-in so
// instrumented code never needs to nil-check the Agent it was handed.
type noopAgent struct{}

func (noopAgent) Enable() bool  { return false }
func (noopAgent) Shutdown()     {}
func (noopAgent) NewSpan(operation, rpc string, opts ...SpanOption) Span {
	return span.NewNoopSpan()
}
