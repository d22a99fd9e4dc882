// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActiveRequestBucketBoundaries(t *testing.T) {
	assert.Equal(t, 0, activeRequestBucket(0))
	assert.Equal(t, 0, activeRequestBucket(999))
	assert.Equal(t, 1, activeRequestBucket(1000))
	assert.Equal(t, 1, activeRequestBucket(2999))
	assert.Equal(t, 2, activeRequestBucket(3000))
	assert.Equal(t, 2, activeRequestBucket(4999))
	assert.Equal(t, 3, activeRequestBucket(5000))
	assert.Equal(t, 3, activeRequestBucket(1_000_000))
}

func TestActiveRequestHistogramCountsOpenSpans(t *testing.T) {
	a := New(5)
	now := time.Now()

	a.AddActiveSpan(1, now)
	a.AddActiveSpan(2, now.Add(-2*time.Second))
	a.AddActiveSpan(3, now.Add(-6*time.Second))

	hist := a.activeRequestHistogram(now)
	assert.Equal(t, int32(1), hist[0])
	assert.Equal(t, int32(1), hist[1])
	assert.Equal(t, int32(1), hist[3])

	a.DropActiveSpan(2)
	hist = a.activeRequestHistogram(now)
	assert.Equal(t, int32(0), hist[1])
}

func TestCollectResponseTimeAvgAndMaxResetEachDrain(t *testing.T) {
	a := New(5)
	a.CollectResponseTime(10)
	a.CollectResponseTime(20)
	a.CollectResponseTime(90)

	avg, max := a.drainResponseTime()
	assert.Equal(t, int64(40), avg)
	assert.Equal(t, int64(90), max)

	avg, max = a.drainResponseTime()
	assert.Zero(t, avg)
	assert.Zero(t, max)
}

func TestSamplingCountersDrainAndReset(t *testing.T) {
	a := New(5)
	a.IncrSampleNew()
	a.IncrSampleNew()
	a.IncrSkipCont()

	sn, sc, un, uc, kn, kc := a.drainSamplingCounters()
	assert.Equal(t, int64(2), sn)
	assert.Zero(t, sc)
	assert.Zero(t, un)
	assert.Zero(t, uc)
	assert.Zero(t, kn)
	assert.Equal(t, int64(1), kc)

	sn2, _, _, _, _, kc2 := a.drainSamplingCounters()
	assert.Zero(t, sn2)
	assert.Zero(t, kc2)
}

func TestTickBatchesUntilFull(t *testing.T) {
	a := New(3)
	now := time.Now()

	_, ready := a.Tick(now)
	assert.False(t, ready)
	_, ready = a.Tick(now)
	assert.False(t, ready)
	batch, ready := a.Tick(now)
	assert.True(t, ready)
	assert.Len(t, batch, 3)

	// the internal array must have reset.
	_, ready = a.Tick(now)
	assert.False(t, ready)
}
