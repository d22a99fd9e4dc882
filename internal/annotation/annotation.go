// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package annotation implements the typed key/value bag attached to spans
// and span events: an ordered list of (key, typed value) pairs where the
// typed value is one of a small closed set of shapes the wire format
// understands.
package annotation

import "sync"

// Kind discriminates which fields of Entry are populated.
type Kind int

const (
	KindInt Kind = iota
	KindLong
	KindString
	KindStringString
	KindIntStringString
	KindBytesStringString
	KindLongIntIntByteByteString
)

// Entry is one appended annotation value.
type Entry struct {
	Key  int32
	Kind Kind

	Int   int32
	Int2  int32
	Long  int64
	Str1  string
	Str2  string
	Bytes []byte
	Byte1 byte
	Byte2 byte
}

// Annotation is the public append-only surface exposed to instrumented
// code; every Append* call is safe from concurrent goroutines since a
// span and its events can be touched from more than one.
type Annotation interface {
	AppendInt(key int32, i int32)
	AppendLong(key int32, l int64)
	AppendString(key int32, s string)
	AppendStringString(key int32, s1, s2 string)
	AppendIntStringString(key int32, i int32, s1, s2 string)
	AppendBytesStringString(key int32, b []byte, s1, s2 string)
	AppendLongIntIntByteByteString(key int32, l int64, i1, i2 int32, b1, b2 byte, s string)
	Entries() []Entry
}

// Bag is the concrete Annotation implementation: a mutex-guarded ordered
// slice of entries.
type Bag struct {
	mu      sync.Mutex
	entries []Entry
}

// NewBag constructs an empty annotation bag.
func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) append(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, e)
}

// AppendInt appends a 32-bit integer value.
func (b *Bag) AppendInt(key int32, i int32) {
	b.append(Entry{Key: key, Kind: KindInt, Int: i})
}

// AppendLong appends a 64-bit integer value.
func (b *Bag) AppendLong(key int32, l int64) {
	b.append(Entry{Key: key, Kind: KindLong, Long: l})
}

// AppendString appends a single string value.
func (b *Bag) AppendString(key int32, s string) {
	b.append(Entry{Key: key, Kind: KindString, Str1: s})
}

// AppendStringString appends a pair of strings (e.g. header name/value).
func (b *Bag) AppendStringString(key int32, s1, s2 string) {
	b.append(Entry{Key: key, Kind: KindStringString, Str1: s1, Str2: s2})
}

// AppendIntStringString appends an int paired with two strings (e.g.
// status code, url, method).
func (b *Bag) AppendIntStringString(key int32, i int32, s1, s2 string) {
	b.append(Entry{Key: key, Kind: KindIntStringString, Int: i, Str1: s1, Str2: s2})
}

// AppendBytesStringString appends a byte slice (e.g. a SQL uid) paired
// with two strings (e.g. normalized SQL and bind parameters).
func (b *Bag) AppendBytesStringString(key int32, bts []byte, s1, s2 string) {
	b.append(Entry{Key: key, Kind: KindBytesStringString, Bytes: bts, Str1: s1, Str2: s2})
}

// AppendLongIntIntByteByteString appends the exception-annotation shape:
// a long (exception id), two ints (the exception's position and its frame
// count), two bytes and a string (message).
func (b *Bag) AppendLongIntIntByteByteString(key int32, l int64, i1, i2 int32, b1, b2 byte, s string) {
	b.append(Entry{Key: key, Kind: KindLongIntIntByteByteString, Long: l, Int: i1, Int2: i2, Byte1: b1, Byte2: b2, Str1: s})
}

// Entries returns every appended entry in append order. The returned
// slice is a defensive copy; mutating it does not affect the bag.
func (b *Bag) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}
