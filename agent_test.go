// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package pinpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchStatusPatternWildcard(t *testing.T) {
	assert.True(t, matchStatusPattern("5xx", 503))
	assert.True(t, matchStatusPattern("4xx", 404))
	assert.False(t, matchStatusPattern("5xx", 200))
}

func TestMatchStatusPatternLiteral(t *testing.T) {
	assert.True(t, matchStatusPattern("403", 403))
	assert.False(t, matchStatusPattern("403", 404))
}

func TestMatchesAnyGlob(t *testing.T) {
	assert.True(t, matchesAny([]string{"/health*"}, "/healthcheck"))
	assert.True(t, matchesAny([]string{"GET"}, "get"), "method matching is case-insensitive")
	assert.False(t, matchesAny([]string{"/admin/*"}, "/public/index"))
}

func TestApiCacheKeyIncludesType(t *testing.T) {
	assert.NotEqual(t, apiCacheKey("op", 100), apiCacheKey("op", 200))
}

func TestNoopAgentIsInert(t *testing.T) {
	a := noopAgent{}
	assert.False(t, a.Enable())
	s := a.NewSpan("op", "/rpc")
	assert.NotNil(t, s)
	s.EndSpan() // must not panic
	a.Shutdown()
}

func TestGlobalAgentDefaultsToNoop(t *testing.T) {
	setGlobalAgent(noopAgent{})

	a := GlobalAgent()
	assert.False(t, a.Enable())
}

func TestSpanOptionsApply(t *testing.T) {
	o := resolveSpanOptions([]SpanOption{WithMethod("POST")})
	assert.Equal(t, "POST", o.method)
	assert.Nil(t, o.reader)
}

func TestNewSpanDisabledReturnsNoop(t *testing.T) {
	a := &AgentImpl{}
	s := a.NewSpan("op", "/rpc")
	assert.NotNil(t, s)
	assert.False(t, s.IsSampled())
}
