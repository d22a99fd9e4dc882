// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounterSamplerZeroNeverSamples(t *testing.T) {
	s := NewCounterSampler(0)
	for i := 0; i < 10; i++ {
		assert.False(t, s.IsSampled())
	}
}

func TestCounterSamplerOneAlwaysSamples(t *testing.T) {
	s := NewCounterSampler(1)
	for i := 0; i < 10; i++ {
		assert.True(t, s.IsSampled())
	}
}

func TestCounterSamplerAcceptsExactlyFloorNOverR(t *testing.T) {
	const r = 3
	const n = 100
	s := NewCounterSampler(r)

	accepted := 0
	for i := 0; i < n; i++ {
		if s.IsSampled() {
			accepted++
		}
	}
	assert.Equal(t, n/r, accepted)
}

func TestPercentSamplerBounds(t *testing.T) {
	assert.Equal(t, int64(0), NewPercentSampler(-5).scaledRate)
	assert.Equal(t, int64(10000), NewPercentSampler(150).scaledRate)
	assert.Equal(t, int64(1), NewPercentSampler(0.001).scaledRate)
}

func TestPercentSamplerWithinOneOfExpected(t *testing.T) {
	const p = 37.0
	const n = 10000
	s := NewPercentSampler(p)

	accepted := 0
	for i := 0; i < n; i++ {
		if s.IsSampled() {
			accepted++
		}
	}

	expected := int(float64(n) * p / 100)
	assert.InDelta(t, expected, accepted, 1)
}

func TestTokenBucketUnlimited(t *testing.T) {
	b := NewTokenBucket(0)
	for i := 0; i < 1000; i++ {
		assert.True(t, b.Allow())
	}
}

func TestTokenBucketCapsAtCapacity(t *testing.T) {
	b := NewTokenBucket(5)

	accepted := 0
	for i := 0; i < 10; i++ {
		if b.Allow() {
			accepted++
		}
	}
	assert.Equal(t, 5, accepted)
}

func TestTokenBucketRefillsOverTime(t *testing.T) {
	b := NewTokenBucket(100) // 10ms refill interval
	for b.Allow() {
	}
	time.Sleep(50 * time.Millisecond)
	assert.True(t, b.Allow())
}

type fakeSampler struct{ value bool }

func (f fakeSampler) IsSampled() bool { return f.value }

func TestBasicTraceSampler(t *testing.T) {
	s := NewBasicTraceSampler(fakeSampler{value: false})
	assert.False(t, s.IsNewSampled())
	assert.True(t, s.IsContinueSampled(), "continuing traces are always accepted")
}

func TestThroughputLimitTraceSampler(t *testing.T) {
	inner := NewBasicTraceSampler(fakeSampler{value: true})
	limited := NewThroughputLimitTraceSampler(inner, 2, 0)

	accepted := 0
	for i := 0; i < 10; i++ {
		if limited.IsNewSampled() {
			accepted++
		}
	}
	assert.Equal(t, 2, accepted, "new-trace bucket caps accepts at its capacity")

	for i := 0; i < 10; i++ {
		assert.True(t, limited.IsContinueSampled(), "cont bucket with tps<=0 is unlimited")
	}
}
