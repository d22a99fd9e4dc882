// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package idcache implements the bounded LRU caches that assign compact
// identifiers to strings (API names, error messages, SQL text) the first
// time they are seen, so the transport layer can send a numeric/byte id on
// every later occurrence instead of repeating the full string.
package idcache

import (
	"container/list"
	"sync"

	"github.com/pinpoint-apm/pinpoint-go-agent/internal/util"
)

// CacheResult is the outcome of an IdCache lookup: the assigned id and
// whether the key had already been cached.
type CacheResult struct {
	ID  int32
	Old bool
}

type idEntry struct {
	key string
	id  int32
}

// IdCache is a fixed-capacity LRU mapping strings to sequentially assigned
// 32-bit identifiers. The zero value is not usable; use New.
type IdCache struct {
	mu       sync.Mutex
	maxSize  int
	list     *list.List
	index    map[string]*list.Element
	sequence int32
}

// New creates an IdCache that holds at most maxSize entries.
func New(maxSize int) *IdCache {
	return &IdCache{
		maxSize: maxSize,
		list:    list.New(),
		index:   make(map[string]*list.Element),
	}
}

// Get returns the id for key, assigning and caching a new one on first
// sight. Looking a key up promotes it to most-recently-used.
func (c *IdCache) Get(key string) CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.list.MoveToFront(el)
		return CacheResult{ID: el.Value.(*idEntry).id, Old: true}
	}

	c.sequence++
	id := c.sequence
	c.put(key, id)
	return CacheResult{ID: id, Old: false}
}

// Remove evicts key from the cache, if present.
func (c *IdCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.list.Remove(el)
		delete(c.index, key)
	}
}

func (c *IdCache) put(key string, id int32) {
	el := c.list.PushFront(&idEntry{key: key, id: id})
	c.index[key] = el

	if c.list.Len() > c.maxSize {
		victim := c.list.Back()
		if victim != nil {
			c.list.Remove(victim)
			delete(c.index, victim.Value.(*idEntry).key)
		}
	}
}

// SqlUidCacheResult is the outcome of a SqlUidCache lookup: the assigned
// byte-uid and whether the key had already been cached.
type SqlUidCacheResult struct {
	UID []byte
	Old bool
}

type uidEntry struct {
	key string
	uid []byte
}

// SqlUidCache is a fixed-capacity LRU mapping normalized SQL strings to a
// stable byte-uid (see util.GenerateSQLUID), assigned on first sight.
type SqlUidCache struct {
	mu      sync.Mutex
	maxSize int
	list    *list.List
	index   map[string]*list.Element
}

// NewSqlUidCache creates a SqlUidCache that holds at most maxSize entries.
func NewSqlUidCache(maxSize int) *SqlUidCache {
	return &SqlUidCache{
		maxSize: maxSize,
		list:    list.New(),
		index:   make(map[string]*list.Element),
	}
}

// Get returns the uid for key (normalized SQL text), computing and caching
// a new one on first sight. Looking a key up promotes it to
// most-recently-used.
func (c *SqlUidCache) Get(key string) SqlUidCacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.list.MoveToFront(el)
		return SqlUidCacheResult{UID: el.Value.(*uidEntry).uid, Old: true}
	}

	uid := util.GenerateSQLUID(key)
	c.put(key, uid)
	return SqlUidCacheResult{UID: uid, Old: false}
}

// Remove evicts key from the cache, if present.
func (c *SqlUidCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.list.Remove(el)
		delete(c.index, key)
	}
}

func (c *SqlUidCache) put(key string, uid []byte) {
	el := c.list.PushFront(&uidEntry{key: key, uid: uid})
	c.index[key] = el

	if c.list.Len() > c.maxSize {
		victim := c.list.Back()
		if victim != nil {
			c.list.Remove(victim)
			delete(c.index, victim.Value.(*uidEntry).key)
		}
	}
}
