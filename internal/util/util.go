// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package util provides the small helpers shared across the agent:
// span/trace id and agent id generation, time conversion, hostname/IP
// discovery, permissive numeric parsing and SQL uid hashing. Its only
// third-party import is github.com/google/uuid, used for agent ids.
package util

import (
	"hash/fnv"
	"math/rand"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// rng is process-wide; Go's math/rand.Rand is not safe for concurrent use
// without its own locking, so spanIDSource wraps one in a mutex rather than
// paying for a per-goroutine generator the way the C++ original does with
// thread_local storage.
var spanIDSource = struct {
	mu  sync.Mutex
	rnd *rand.Rand
}{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}

// GenerateSpanID returns a random, non-zero 64-bit identifier suitable for
// use as a span id or trace id sequence seed.
func GenerateSpanID() int64 {
	spanIDSource.mu.Lock()
	defer spanIDSource.mu.Unlock()
	for {
		if id := spanIDSource.rnd.Int63(); id != 0 {
			return id
		}
	}
}

// ToMilliSeconds converts a wall-clock time to milliseconds since the Unix
// epoch, the unit every collector message on the wire uses.
func ToMilliSeconds(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

var (
	hostOnce sync.Once
	hostName string
	hostAddr string
)

// HostName returns the local machine's hostname, or "unknown" if it cannot
// be determined, matching get_host_name's fallback.
func HostName() string {
	hostOnce.Do(resolveHost)
	return hostName
}

// HostIPAddr returns a best-effort primary non-loopback IPv4 address for
// the local machine, or "0.0.0.0" if none can be found.
func HostIPAddr() string {
	hostOnce.Do(resolveHost)
	return hostAddr
}

func resolveHost() {
	hostName = "unknown"
	hostAddr = "0.0.0.0"

	if h, err := os.Hostname(); err == nil && h != "" {
		hostName = h
	}

	// Dialing UDP never sends a packet; it only asks the kernel to pick
	// the route it would use, which is a cheap way to find the outbound
	// interface address without enumerating all interfaces.
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			hostAddr = addr.IP.String()
			return
		}
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() || ipnet.IP.To4() == nil {
			continue
		}
		hostAddr = ipnet.IP.String()
		return
	}
}

// ParseInt parses str as a base-10 int, returning ok=false on failure
// instead of panicking or silently returning zero.
func ParseInt(str string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseInt64 parses str as a base-10 int64.
func ParseInt64(str string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseFloat parses str as a float64.
func ParseFloat(str string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseBool parses str using the common boolean spellings ("true"/"false",
// "1"/"0", "yes"/"no"), returning ok=false rather than defaulting silently.
func ParseBool(str string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "1", "t", "true", "yes", "y":
		return true, true
	case "0", "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

// EqualFold reports whether str1 and str2 are equal under ASCII
// case-folding, the same semantics as the original's compare_string.
func EqualFold(str1, str2 string) bool {
	return strings.EqualFold(str1, str2)
}

// GenerateAgentID returns a fresh opaque identifier for an agent instance
// whose config leaves agent_id blank.
func GenerateAgentID() string {
	return uuid.NewString()
}

// GenerateSQLUID produces a stable byte-uid for a (already normalized) SQL
// string. The wire format only requires a stable hash, not a specific
// algorithm, so FNV-1a (64-bit, stdlib) is used rather than inventing a
// custom digest.
func GenerateSQLUID(sql string) []byte {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sql))
	return h.Sum(nil)
}
