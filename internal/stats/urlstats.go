// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package stats

import (
	"sync"
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/internal/util"
)

// TickClock buckets wall-clock times into fixed-width windows, so that
// samples landing in the same window share one histogram entry.
type TickClock struct {
	intervalMS int64
}

// NewTickClock returns a TickClock with the given window width.
func NewTickClock(interval time.Duration) *TickClock {
	ms := interval.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	return &TickClock{intervalMS: ms}
}

// Tick returns the window start, in epoch milliseconds, that t falls into.
func (c *TickClock) Tick(t time.Time) int64 {
	ms := util.ToMilliSeconds(t)
	return (ms / c.intervalMS) * c.intervalMS
}

// urlStatBounds are the upper bound (exclusive) in milliseconds of each of
// the 8 histogram buckets; a sample at or above the last bound falls into
// the final, unbounded bucket.
var urlStatBounds = [7]int64{100, 300, 500, 1000, 3000, 5000, 8000}

const urlStatBucketCount = 8

// UrlStatHistogram is a fixed, 8-bucket latency histogram plus a running
// total and max, used once for all requests to a URL and once more for the
// subset that failed.
type UrlStatHistogram struct {
	Count   int64
	Total   int64
	Max     int32
	Buckets [urlStatBucketCount]int32
}

// Add folds one sample, in milliseconds, into the histogram.
func (h *UrlStatHistogram) Add(elapsedMS int32) {
	h.Count++
	h.Total += int64(elapsedMS)
	if elapsedMS > h.Max {
		h.Max = elapsedMS
	}
	h.Buckets[urlStatBucketIndex(elapsedMS)]++
}

func urlStatBucketIndex(elapsedMS int32) int {
	for i, bound := range urlStatBounds {
		if int64(elapsedMS) < bound {
			return i
		}
	}
	return urlStatBucketCount - 1
}

// UrlKey identifies one (formatted URL, time window) histogram entry.
type UrlKey struct {
	URL  string
	Tick int64
}

// EachUrlStat is one URL's histogram pair for one time window: Total
// across all responses, Fail across the ones the recorder classified as
// failures.
type EachUrlStat struct {
	Key   UrlKey
	Total UrlStatHistogram
	Fail  UrlStatHistogram
}

// Sample is one finished request's URL-stat contribution, as handed from a
// span to the URL-stats pipeline.
type Sample struct {
	URL        string
	Method     string
	StatusCode int32
	EndTime    time.Time
	ElapsedMS  int32
	Fail       bool
}

// UrlStatSnapshot accumulates EachUrlStat entries for one collection
// window, capped at limit distinct (url, tick) keys so a single noisy
// interval cannot grow unbounded.
type UrlStatSnapshot struct {
	mu      sync.Mutex
	entries map[UrlKey]*EachUrlStat
	limit   int
}

// NewUrlStatSnapshot returns an empty snapshot capped at limit entries.
func NewUrlStatSnapshot(limit int) *UrlStatSnapshot {
	if limit <= 0 {
		limit = 1
	}
	return &UrlStatSnapshot{entries: make(map[UrlKey]*EachUrlStat), limit: limit}
}

// Add folds one formatted-URL sample into the snapshot. Once limit distinct
// keys have been seen, further new keys are silently dropped; existing keys
// keep accumulating.
func (s *UrlStatSnapshot) Add(key UrlKey, elapsedMS int32, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		if len(s.entries) >= s.limit {
			return
		}
		e = &EachUrlStat{Key: key}
		s.entries[key] = e
	}
	e.Total.Add(elapsedMS)
	if fail {
		e.Fail.Add(elapsedMS)
	}
}

// Entries returns every accumulated histogram entry. The caller owns the
// returned slice.
func (s *UrlStatSnapshot) Entries() []EachUrlStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EachUrlStat, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out
}

// Len reports the number of distinct (url, tick) keys currently held.
func (s *UrlStatSnapshot) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// UrlStats is the asynchronous URL-latency aggregation pipeline: callers
// Enqueue finished-request samples from span completion, a single adder
// goroutine folds them into the current snapshot, and a periodic sender
// takes and replaces the snapshot wholesale.
type UrlStats struct {
	queue chan Sample
	clock *TickClock

	trimDepth    int
	methodPrefix bool

	mu       sync.Mutex
	snapshot *UrlStatSnapshot
	limit    int

	done chan struct{}
	wg   sync.WaitGroup
}

// NewUrlStats returns a URL-stats pipeline with a bounded queue of the
// given size, folding samples into windows of tickInterval and capping
// each window's snapshot at limit distinct entries.
func NewUrlStats(queueSize int, tickInterval time.Duration, limit, trimDepth int, methodPrefix bool) *UrlStats {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &UrlStats{
		queue:        make(chan Sample, queueSize),
		clock:        NewTickClock(tickInterval),
		trimDepth:    trimDepth,
		methodPrefix: methodPrefix,
		snapshot:     NewUrlStatSnapshot(limit),
		limit:        limit,
		done:         make(chan struct{}),
	}
}

// Enqueue submits a finished request's URL-stat sample. A full queue drops
// the sample rather than blocking the caller's span-ending path.
func (u *UrlStats) Enqueue(s Sample) bool {
	select {
	case u.queue <- s:
		return true
	default:
		return false
	}
}

// Run drains the queue into the current snapshot until Stop is called. It
// is meant to run in its own goroutine.
func (u *UrlStats) Run() {
	u.wg.Add(1)
	defer u.wg.Done()

	for {
		select {
		case s := <-u.queue:
			u.add(s)
		case <-u.done:
			u.drainRemaining()
			return
		}
	}
}

func (u *UrlStats) drainRemaining() {
	for {
		select {
		case s := <-u.queue:
			u.add(s)
		default:
			return
		}
	}
}

func (u *UrlStats) add(s Sample) {
	url := FormattedURL(s.URL, s.Method, u.trimDepth, u.methodPrefix)
	key := UrlKey{URL: url, Tick: u.clock.Tick(s.EndTime)}

	u.mu.Lock()
	snap := u.snapshot
	u.mu.Unlock()

	snap.Add(key, s.ElapsedMS, s.Fail)
}

// TakeSnapshot atomically swaps in a fresh, empty snapshot and returns the
// one just replaced, for the sender worker to encode and ship.
func (u *UrlStats) TakeSnapshot() *UrlStatSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()

	taken := u.snapshot
	u.snapshot = NewUrlStatSnapshot(u.limit)
	return taken
}

// Stop signals Run to drain the queue once more and return.
func (u *UrlStats) Stop() {
	close(u.done)
	u.wg.Wait()
}
