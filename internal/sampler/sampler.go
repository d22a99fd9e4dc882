// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package sampler implements the trace sampling decision: counter- and
// percent-based samplers for new traces, a token-bucket throughput
// limiter, and the TraceSampler composition the agent facade consults on
// every NewSpan call.
package sampler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Sampler decides whether a new occurrence of something (a trace, a
// request) should be accepted.
type Sampler interface {
	IsSampled() bool
}

// CounterSampler accepts exactly every Rth call. R == 0 never accepts;
// R == 1 always accepts.
type CounterSampler struct {
	rate    int64
	counter int64
}

// NewCounterSampler builds a CounterSampler with the given rate.
func NewCounterSampler(rate int64) *CounterSampler {
	if rate < 0 {
		rate = 0
	}
	return &CounterSampler{rate: rate}
}

// IsSampled reports whether the Nth call (1-indexed) satisfies N mod R == 0.
func (s *CounterSampler) IsSampled() bool {
	switch s.rate {
	case 0:
		return false
	case 1:
		return true
	default:
		n := atomic.AddInt64(&s.counter, 1)
		return n%s.rate == 0
	}
}

// PercentSampler accepts a share of calls equal to rate percent (0..100),
// distributed evenly over time rather than randomly: every call adds
// rate*100 to an accumulator and a call is accepted whenever the
// accumulator crosses 10000, subtracting 10000 back out.
type PercentSampler struct {
	scaledRate int64 // rate * 100
	mu         sync.Mutex
	acc        int64
}

// NewPercentSampler builds a PercentSampler with the given rate in
// [0,100]; fractional rates down to 0.01 are honored.
func NewPercentSampler(rate float64) *PercentSampler {
	if rate > 100 {
		rate = 100
	}
	if rate < 0 {
		rate = 0
	}
	if rate > 0 && rate < 0.01 {
		rate = 0.01
	}
	return &PercentSampler{scaledRate: int64(rate*100 + 0.5)}
}

// IsSampled applies the accumulator rule described on PercentSampler.
func (s *PercentSampler) IsSampled() bool {
	if s.scaledRate <= 0 {
		return false
	}
	if s.scaledRate >= 10000 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.acc += s.scaledRate
	if s.acc >= 10000 {
		s.acc -= 10000
		return true
	}
	return false
}

// TokenBucket is a lazily-refilling rate limiter: capacity equals tps,
// and tokens refill at a rate of tps per second, computed on demand from
// elapsed wall-clock time rather than a background ticker.
type TokenBucket struct {
	tps         int64
	mu          sync.Mutex
	tokens      int64
	lastRefill  time.Time
	refillEvery time.Duration
}

// NewTokenBucket builds a TokenBucket allowing tps accepts per second.
// tps <= 0 means unlimited: every Allow call returns true.
func NewTokenBucket(tps int64) *TokenBucket {
	b := &TokenBucket{tps: tps, lastRefill: time.Now()}
	if tps > 0 {
		b.refillEvery = time.Second / time.Duration(tps)
		b.tokens = tps
	}
	return b
}

// Allow consumes one token if available, refilling first based on elapsed
// time. Returns true if a token was available (or the bucket is
// unlimited).
func (b *TokenBucket) Allow() bool {
	if b.tps <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(b.lastRefill); elapsed >= b.refillEvery {
		refill := int64(elapsed / b.refillEvery)
		b.tokens += refill
		if b.tokens > b.tps {
			b.tokens = b.tps
		}
		b.lastRefill = b.lastRefill.Add(time.Duration(refill) * b.refillEvery)
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// TraceSampler is the composed decision the agent facade consults: new
// traces go through the inner sampler (optionally throughput-limited);
// continuing traces (a trace already carrying an upstream sampling
// decision) are always accepted, optionally through their own bucket.
type TraceSampler interface {
	IsNewSampled() bool
	IsContinueSampled() bool
}

// BasicTraceSampler defers new-trace decisions to inner and always
// accepts continuing traces.
type BasicTraceSampler struct {
	inner Sampler
}

// NewBasicTraceSampler wraps inner as a TraceSampler.
func NewBasicTraceSampler(inner Sampler) *BasicTraceSampler {
	return &BasicTraceSampler{inner: inner}
}

// IsNewSampled defers to the wrapped sampler.
func (s *BasicTraceSampler) IsNewSampled() bool { return s.inner.IsSampled() }

// IsContinueSampled always accepts continuing traces.
func (s *BasicTraceSampler) IsContinueSampled() bool { return true }

// ThroughputLimitTraceSampler wraps a TraceSampler and additionally gates
// accepted decisions through per-kind token buckets (0 tps means
// unlimited).
type ThroughputLimitTraceSampler struct {
	inner   TraceSampler
	newBkt  *TokenBucket
	contBkt *TokenBucket
}

// NewThroughputLimitTraceSampler builds a throughput-limited wrapper
// around inner using newTps/contTps bucket rates (<=0 means unlimited).
func NewThroughputLimitTraceSampler(inner TraceSampler, newTps, contTps int64) *ThroughputLimitTraceSampler {
	return &ThroughputLimitTraceSampler{
		inner:   inner,
		newBkt:  NewTokenBucket(newTps),
		contBkt: NewTokenBucket(contTps),
	}
}

// IsNewSampled accepts only if the wrapped sampler accepts AND the new-tps
// bucket has a token available.
func (s *ThroughputLimitTraceSampler) IsNewSampled() bool {
	return s.inner.IsNewSampled() && s.newBkt.Allow()
}

// IsContinueSampled accepts only if the wrapped sampler accepts AND the
// cont-tps bucket has a token available.
func (s *ThroughputLimitTraceSampler) IsContinueSampled() bool {
	return s.inner.IsContinueSampled() && s.contBkt.Allow()
}
