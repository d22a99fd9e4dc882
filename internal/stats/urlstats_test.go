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

func TestTrimURLPath(t *testing.T) {
	assert.Equal(t, "/api/v1/*", TrimURLPath("/api/v1/users/123?x=1", 2))
	assert.Equal(t, "/api/v1/users/123", TrimURLPath("/api/v1/users/123", 4))
	assert.Equal(t, "/api/v1/users/123", TrimURLPath("/api/v1/users/123?x=1", 0))
	assert.Equal(t, "/", TrimURLPath("/", 1))
}

func TestFormattedURLMethodPrefix(t *testing.T) {
	assert.Equal(t, "GET /api/*", FormattedURL("/api/v1?x=1", "GET", 1, true))
	assert.Equal(t, "/api/*", FormattedURL("/api/v1?x=1", "GET", 1, false))
}

// Property 9: URL-stat bucketization — a sample lands in exactly one
// histogram bucket, and bucket boundaries are exclusive of the upper bound.
func TestUrlStatHistogramBucketBoundaries(t *testing.T) {
	var h UrlStatHistogram
	h.Add(50)
	h.Add(100)
	h.Add(7999)
	h.Add(8000)
	h.Add(20000)

	assert.Equal(t, int64(5), h.Count)
	assert.Equal(t, int32(20000), h.Max)
	assert.Equal(t, int32(1), h.Buckets[0]) // 50ms
	assert.Equal(t, int32(1), h.Buckets[1]) // 100ms
	assert.Equal(t, int32(1), h.Buckets[6]) // 7999ms
	assert.Equal(t, int32(2), h.Buckets[7]) // 8000ms and 20000ms both in final bucket
}

func TestTickClockBucketsByWindow(t *testing.T) {
	clock := NewTickClock(30 * time.Second)
	base := time.UnixMilli(0).Add(65 * time.Second)
	assert.Equal(t, int64(60_000), clock.Tick(base))

	later := base.Add(10 * time.Second)
	assert.Equal(t, int64(60_000), clock.Tick(later))

	next := base.Add(30 * time.Second)
	assert.Equal(t, int64(90_000), clock.Tick(next))
}

func TestUrlStatSnapshotCapsDistinctKeys(t *testing.T) {
	snap := NewUrlStatSnapshot(2)
	snap.Add(UrlKey{URL: "/a", Tick: 0}, 10, false)
	snap.Add(UrlKey{URL: "/b", Tick: 0}, 10, false)
	snap.Add(UrlKey{URL: "/c", Tick: 0}, 10, false) // dropped: limit reached
	snap.Add(UrlKey{URL: "/a", Tick: 0}, 20, true)  // existing key still accumulates

	assert.Equal(t, 2, snap.Len())
	entries := snap.Entries()
	var found *EachUrlStat
	for i := range entries {
		if entries[i].Key.URL == "/a" {
			found = &entries[i]
		}
	}
	if assert.NotNil(t, found) {
		assert.Equal(t, int64(2), found.Total.Count)
		assert.Equal(t, int64(1), found.Fail.Count)
	}
}

// S6. URL stat histogram end-to-end: enqueue, adder folds, sender takes
// and replaces the snapshot.
func TestUrlStatsEndToEnd(t *testing.T) {
	u := NewUrlStats(16, 30*time.Second, 1024, 1, true)
	go u.Run()

	now := time.Now()
	ok := u.Enqueue(Sample{URL: "/orders/42", Method: "GET", EndTime: now, ElapsedMS: 120})
	assert.True(t, ok)
	ok = u.Enqueue(Sample{URL: "/orders/43", Method: "GET", EndTime: now, ElapsedMS: 80, Fail: true})
	assert.True(t, ok)

	u.Stop()

	snap := u.TakeSnapshot()
	entries := snap.Entries()
	assert.Len(t, entries, 1, "both requests trim to the same /orders/* key")
	assert.Equal(t, "GET /orders/*", entries[0].Key.URL)
	assert.Equal(t, int64(2), entries[0].Total.Count)
	assert.Equal(t, int64(1), entries[0].Fail.Count)

	// the snapshot handed back by TakeSnapshot is the one replaced; a
	// second take must be empty.
	assert.Empty(t, u.TakeSnapshot().Entries())
}

func TestUrlStatsEnqueueDropsWhenQueueFull(t *testing.T) {
	u := NewUrlStats(1, time.Second, 10, 1, false)
	// no Run() goroutine draining: fill the one slot, then overflow.
	assert.True(t, u.Enqueue(Sample{URL: "/a", EndTime: time.Now()}))
	assert.False(t, u.Enqueue(Sample{URL: "/b", EndTime: time.Now()}))
}
