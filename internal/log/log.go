// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package log implements the agent's own diagnostic logging: a tiny
// package-level Logger indirection (so host applications can redirect
// output), level gating, and rate-limited error logging so a misbehaving
// collector can never flood the host's logs.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/internal/util"
)

// Level is the minimum severity that will reach the configured Logger.
type Level int32

const (
	// LevelDebug logs everything.
	LevelDebug Level = iota
	// LevelInfo logs informational messages and above.
	LevelInfo
	// LevelWarn logs warnings and errors only.
	LevelWarn
	// LevelError logs errors only.
	LevelError
	// LevelOff disables all logging.
	LevelOff
)

const prefixMsg = "Pinpoint"

// Logger implementations receive a fully formatted log line.
type Logger interface {
	Log(msg string)
}

var (
	mu             sync.RWMutex
	logger         Logger = &defaultLogger{}
	levelThreshold        = LevelWarn
)

// UseLogger sets l as the destination for every subsequent log call and
// returns a func that restores the previous logger.
func UseLogger(l Logger) func() {
	mu.Lock()
	old := logger
	logger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = old
		mu.Unlock()
	}
}

// SetLevel changes the minimum severity that reaches the Logger.
func SetLevel(lvl Level) {
	mu.Lock()
	levelThreshold = lvl
	mu.Unlock()
}

// DebugEnabled reports whether Debug-level messages are currently logged.
func DebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return levelThreshold <= LevelDebug
}

func enabled(lvl Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return levelThreshold <= lvl
}

func log(levelName string, format string, args ...interface{}) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Log(fmt.Sprintf("%s %s: %s", prefixMsg, levelName, fmt.Sprintf(format, args...)))
}

// Debug logs a debug-level message, when enabled.
func Debug(format string, args ...interface{}) {
	if enabled(LevelDebug) {
		log("DEBUG", format, args...)
	}
}

// Info logs an info-level message, when enabled.
func Info(format string, args ...interface{}) {
	if enabled(LevelInfo) {
		log("INFO", format, args...)
	}
}

// Warn logs a warn-level message, when enabled.
func Warn(format string, args ...interface{}) {
	if enabled(LevelWarn) {
		log("WARN", format, args...)
	}
}

const defaultErrorLimit = 200

var (
	errMu   sync.Mutex
	errrate = time.Minute
	counts  = map[string]*errCount{}
)

type errCount struct {
	first   string
	count   int
	flushed bool
}

// Error logs an error-level message. Repeated messages sharing the same
// format string within errrate are coalesced into a single summary line,
// emitted once errrate has elapsed since the first of them, or earlier on
// Flush or when defaultErrorLimit repeats accumulate, so a hot failure loop
// cannot spam the log. With errrate <= 0 every message is logged at once.
func Error(format string, args ...interface{}) {
	if !enabled(LevelError) {
		return
	}
	formatted := fmt.Sprintf(format, args...)

	if errrate <= 0 {
		log("ERROR", "%s", formatted)
		return
	}

	errMu.Lock()
	c, ok := counts[format]
	if !ok {
		c = &errCount{first: formatted}
		counts[format] = c
		errMu.Unlock()
		scheduleFlush(format)
		return
	}
	c.count++
	if c.count >= defaultErrorLimit {
		msg := fmt.Sprintf("%s, %d+ additional messages skipped", c.first, defaultErrorLimit)
		delete(counts, format)
		errMu.Unlock()
		log("ERROR", "%s", msg)
		return
	}
	errMu.Unlock()
}

func scheduleFlush(format string) {
	time.AfterFunc(errrate, func() {
		flushOne(format)
	})
}

func flushOne(format string) {
	errMu.Lock()
	c, ok := counts[format]
	if !ok {
		errMu.Unlock()
		return
	}
	delete(counts, format)
	errMu.Unlock()

	if c.count == 0 {
		log("ERROR", "%s", c.first)
		return
	}
	log("ERROR", "%s, %d additional messages skipped", c.first, c.count)
}

// Flush immediately emits any errors still pending coalescing. Safe to
// call repeatedly; a second call with nothing pending is a no-op.
func Flush() {
	errMu.Lock()
	pending := counts
	counts = map[string]*errCount{}
	errMu.Unlock()

	for _, c := range pending {
		if c.count == 0 {
			log("ERROR", "%s", c.first)
		} else {
			log("ERROR", "%s, %d additional messages skipped", c.first, c.count)
		}
	}
}

func setLoggingRate(s string) {
	if s == "" {
		errrate = time.Minute
		return
	}
	secs, ok := util.ParseInt(s)
	if !ok || secs < 0 {
		errrate = time.Minute
		return
	}
	errrate = time.Duration(secs) * time.Second
}

// defaultLogger writes to stderr.
type defaultLogger struct{}

func (defaultLogger) Log(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// DiscardLogger discards every message; useful in tests and benchmarks.
type DiscardLogger struct{}

// Log implements Logger.
func (DiscardLogger) Log(string) {}

// RecordLogger stores every message it receives, skipping lines
// containing any of its ignored substrings. Useful in tests that assert
// on emitted log content.
type RecordLogger struct {
	mu      sync.Mutex
	ignored []string
	lines   []string
}

// Ignore adds a substring; any future Log call whose message contains it
// is dropped.
func (r *RecordLogger) Ignore(substr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignored = append(r.ignored, substr)
}

// Log implements Logger.
func (r *RecordLogger) Log(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.ignored {
		if strings.Contains(msg, s) {
			return
		}
	}
	r.lines = append(r.lines, msg)
}

// Logs returns every recorded (non-ignored) message.
func (r *RecordLogger) Logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Reset clears recorded messages but keeps ignore rules.
func (r *RecordLogger) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}

// LoggerFile is the fixed filename used under a configured log directory.
const LoggerFile = "pinpoint.log"

// fileLogger is a Logger backed by a rotated file on disk.
type fileLogger struct {
	mu        sync.Mutex
	file      *os.File
	closed    bool
	maxBytes  int64
	written   int64
}

// OpenFileAtPath opens (creating if needed) LoggerFile inside dir for
// appending, returning a Logger that rotates (truncate-and-reopen) once
// maxSizeMB is exceeded when maxSizeMB > 0.
func OpenFileAtPath(dir string, maxSizeMB ...int) (*fileLogger, error) {
	path := dir + "/" + LoggerFile
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	fl := &fileLogger{file: f}
	if len(maxSizeMB) > 0 && maxSizeMB[0] > 0 {
		fl.maxBytes = int64(maxSizeMB[0]) * 1024 * 1024
	}
	if info, err := f.Stat(); err == nil {
		fl.written = info.Size()
	}
	UseLogger(fl)
	return fl, nil
}

// Log implements Logger, rotating the backing file when it exceeds the
// configured max size.
func (f *fileLogger) Log(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if f.maxBytes > 0 && f.written >= f.maxBytes {
		if err := f.file.Truncate(0); err == nil {
			_, _ = f.file.Seek(0, 0)
			f.written = 0
		}
	}
	n, err := fmt.Fprintln(f.file, msg)
	if err == nil {
		f.written += int64(n)
	}
}

// Close closes the backing file. Safe to call concurrently and more than
// once.
func (f *fileLogger) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	_ = f.file.Close()
}
