// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package pinpoint

import (
	"context"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pinpoint-apm/pinpoint-go-agent/ext"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/annotation"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/config"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/idcache"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/log"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/pb"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/sampler"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/span"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/stats"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/transport"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/util"
)

// agentVersion is reported to the collector as part of AgentInfo.
const agentVersion = "1.0.0"

// Agent is the process-wide handle instrumented code obtains from
// CreateAgent (or GlobalAgent): it creates spans and owns their
// lifecycle until Shutdown.
type Agent interface {
	// Enable reports whether tracing is currently active (config's
	// enable flag, snapshotted at CreateAgent time).
	Enable() bool
	// Shutdown stops every background worker and detaches this agent
	// from GlobalAgent. Idempotent.
	Shutdown()
	// NewSpan begins a new span for operation, an RPC point named rpc,
	// applying the exclude and sampling rules before handing back a
	// Span. See SpanOption for how to attach inbound context.
	NewSpan(operation, rpc string, opts ...SpanOption) Span
}

type spanOptions struct {
	method string
	reader TraceContextReader
}

// SpanOption customizes a NewSpan call.
type SpanOption func(*spanOptions)

// WithMethod attaches the request method (e.g. an HTTP verb), consulted
// by http.server.exclude_method.
func WithMethod(method string) SpanOption {
	return func(o *spanOptions) { o.method = method }
}

// WithContext attaches the inbound propagation-header reader, so NewSpan
// can detect a continuing trace, an explicitly unsampled one, and fold
// the rest of the inbound context into the span it returns.
func WithContext(reader TraceContextReader) SpanOption {
	return func(o *spanOptions) { o.reader = reader }
}

func resolveSpanOptions(opts []SpanOption) spanOptions {
	var o spanOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var (
	globalMu          sync.Mutex
	pendingFilePath   string
	pendingConfigYAML string

	// globalAgent backs GlobalAgent/CreateAgent/Shutdown: an
	// atomic.Pointer rather than a mutex-guarded variable, per the
	// project's lock-free-singleton decision (DESIGN.md). Holds a
	// *Agent so the zero value (nil pointer, before any Store) can be
	// distinguished from "no-op agent installed" without requiring a
	// concrete zero value for the Agent interface itself.
	globalAgent atomic.Pointer[Agent]
)

func init() {
	var a Agent = noopAgent{}
	globalAgent.Store(&a)
}

// SetConfigFilePath records a YAML config file CreateAgent should load.
// Must be called before CreateAgent.
func SetConfigFilePath(filePath string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	pendingFilePath = filePath
}

// SetConfigString records a YAML config string CreateAgent should load,
// applied after any file set with SetConfigFilePath. Must be called
// before CreateAgent.
func SetConfigString(yaml string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	pendingConfigYAML = yaml
}

// GlobalAgent returns the most recently created Agent, or an inert
// no-op Agent if CreateAgent has not been called (or has been shut
// down).
func GlobalAgent() Agent {
	return *globalAgent.Load()
}

func setGlobalAgent(a Agent) {
	globalAgent.Store(&a)
}

// CreateAgent resolves configuration (defaults, then any file/string set
// via SetConfigFilePath/SetConfigString, then PINPOINT_CPP_* environment
// variables) and starts a new Agent's background workers. The returned
// Agent is also registered as GlobalAgent.
func CreateAgent() Agent {
	globalMu.Lock()
	filePath, yamlString := pendingFilePath, pendingConfigYAML
	globalMu.Unlock()

	cfg := config.Load(filePath, yamlString)
	configureLogging(cfg)

	if !cfg.Enable {
		log.Info("pinpoint: agent disabled by config, using no-op agent")
		a := noopAgent{}
		setGlobalAgent(a)
		return a
	}

	a := newAgentImpl(cfg)
	setGlobalAgent(a)
	a.start()
	return a
}

func configureLogging(cfg config.Config) {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		log.SetLevel(log.LevelDebug)
	case "info":
		log.SetLevel(log.LevelInfo)
	case "warn", "warning":
		log.SetLevel(log.LevelWarn)
	case "error":
		log.SetLevel(log.LevelError)
	case "off":
		log.SetLevel(log.LevelOff)
	}
	if cfg.Log.FilePath != "" {
		if f, err := log.OpenFileAtPath(cfg.Log.FilePath, cfg.Log.MaxFileSizeMB); err != nil {
			log.Warn("pinpoint: failed to open log file at %s: %v", cfg.Log.FilePath, err)
		} else {
			log.UseLogger(f)
		}
	}
}

// AgentImpl is the concrete Agent: it owns the sampler, the metadata
// caches, the runtime/URL statistics pipelines and the gRPC transport
// workers, and implements span.Recorder so the span package can report
// back into it without importing it.
type AgentImpl struct {
	cfg config.Config

	ctx    context.Context
	cancel context.CancelFunc

	exiting atomic.Bool

	startTimeMS int64
	traceSeq    atomic.Int64

	apiCache    *idcache.IdCache
	errorCache  *idcache.IdCache
	sqlCache    *idcache.IdCache
	sqlUidCache *idcache.SqlUidCache

	traceSampler sampler.TraceSampler

	agentStats *stats.AgentStats
	urlStats   *stats.UrlStats

	agentWorker *transport.AgentWorker
	spanWorker  *transport.SpanWorker
	statWorker  *transport.StatWorker

	statusErrors  []string
	excludeURL    []string
	excludeMethod []string
}

const (
	defaultMetaCacheSize = 1024
	defaultMetaQueueSize = 1024
	registerRetryInterval = 3 * time.Second
	pingInterval           = 60 * time.Second
	shutdownDrainTimeout   = 5 * time.Second
)

func newAgentImpl(cfg config.Config) *AgentImpl {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	identity := transport.Identity{
		AppName:   cfg.AppName,
		AgentID:   cfg.AgentID,
		AgentName: cfg.AgentName,
		StartTime: util.ToMilliSeconds(now),
	}

	agentTarget := collectorTarget(cfg.Collector.Host, cfg.Collector.AgentPort)
	spanTarget := collectorTarget(cfg.Collector.Host, cfg.Collector.SpanPort)
	statTarget := collectorTarget(cfg.Collector.Host, cfg.Collector.StatPort)

	a := &AgentImpl{
		cfg:           cfg,
		ctx:           ctx,
		cancel:        cancel,
		startTimeMS:   identity.StartTime,
		apiCache:      idcache.New(defaultMetaCacheSize),
		errorCache:    idcache.New(defaultMetaCacheSize),
		sqlCache:      idcache.New(defaultMetaCacheSize),
		sqlUidCache:   idcache.NewSqlUidCache(defaultMetaCacheSize),
		traceSampler:  buildTraceSampler(cfg),
		agentStats:    stats.New(cfg.Stat.BatchCount),
		urlStats: stats.NewUrlStats(
			cfg.HTTP.URLStat.Limit,
			30*time.Second,
			cfg.HTTP.URLStat.Limit,
			cfg.HTTP.URLStat.TrimPathDepth,
			cfg.HTTP.URLStat.MethodPrefix,
		),
		agentWorker:   transport.NewAgentWorker(agentTarget, identity, defaultMetaQueueSize),
		spanWorker:    transport.NewSpanWorker(spanTarget, identity, cfg.Span.QueueSize),
		statWorker:    transport.NewStatWorker(statTarget, identity, defaultMetaQueueSize),
		statusErrors:  cfg.HTTP.Server.StatusErrors,
		excludeURL:    cfg.HTTP.Server.ExcludeURL,
		excludeMethod: cfg.HTTP.Server.ExcludeMethod,
	}
	a.agentWorker.OnMetaFailure = a.onMetaFailure
	return a
}

func collectorTarget(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}

// buildTraceSampler constructs the sampler chain spec §4.2 describes: an
// inner rate sampler (counter or percent, per sampling.type), wrapped in
// a BasicTraceSampler, optionally wrapped again in a
// ThroughputLimitTraceSampler when either throughput bound is configured
// above zero.
func buildTraceSampler(cfg config.Config) sampler.TraceSampler {
	var inner sampler.Sampler
	if strings.EqualFold(cfg.Sampling.Type, config.SamplingPercent) {
		inner = sampler.NewPercentSampler(cfg.Sampling.PercentRate)
	} else {
		inner = sampler.NewCounterSampler(int64(cfg.Sampling.CounterRate))
	}

	basic := sampler.NewBasicTraceSampler(inner)
	if cfg.Sampling.NewThroughput > 0 || cfg.Sampling.ContThroughput > 0 {
		return sampler.NewThroughputLimitTraceSampler(basic, int64(cfg.Sampling.NewThroughput), int64(cfg.Sampling.ContThroughput))
	}
	return basic
}

func apiCacheKey(operation string, apiType int32) string {
	return operation + "_" + strconv.Itoa(int(apiType))
}

// --- Agent interface ---

func (a *AgentImpl) Enable() bool { return a.cfg.Enable }

func (a *AgentImpl) NewSpan(operation, rpc string, opts ...SpanOption) (result Span) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("pinpoint: NewSpan(%s, %s) panicked: %v", operation, rpc, r)
			result = span.NewNoopSpan()
		}
	}()

	o := resolveSpanOptions(opts)

	if !a.cfg.Enable || a.exiting.Load() {
		return span.NewNoopSpan()
	}
	if matchesAny(a.excludeURL, rpc) || (o.method != "" && matchesAny(a.excludeMethod, o.method)) {
		return span.NewNoopSpan()
	}

	var traceIDHeader, sampledHeader string
	if o.reader != nil {
		traceIDHeader = o.reader.Get(ext.HeaderTraceID)
		sampledHeader = o.reader.Get(ext.HeaderSampled)
	}

	if sampledHeader == ext.SampledUnsampled {
		return span.NewUnsampled(a)
	}

	isNew := traceIDHeader == ""
	var sampled bool
	if isNew {
		sampled = a.traceSampler.IsNewSampled()
	} else {
		sampled = a.traceSampler.IsContinueSampled()
	}
	a.RecordSampling(isNew, sampled)

	if !sampled {
		return span.NewUnsampled(a)
	}

	s := span.New(a, operation, rpc, o.method, a.cfg.AppType)
	s.ExtractContext(o.reader)
	return s
}

func (a *AgentImpl) Shutdown() {
	if !a.exiting.CompareAndSwap(false, true) {
		return
	}
	setGlobalAgent(noopAgent{})
	a.cancel()

	stopWithTimeout("agent worker", a.agentWorker.Stop)
	stopWithTimeout("span worker", a.spanWorker.Stop)
	stopWithTimeout("stat worker", a.statWorker.Stop)
	stopWithTimeout("url-stats worker", a.urlStats.Stop)

	log.Flush()
}

func stopWithTimeout(name string, stop func()) {
	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownDrainTimeout):
		log.Warn("pinpoint: %s did not stop within %s, detaching", name, shutdownDrainTimeout)
	}
}

// --- background workers ---

func (a *AgentImpl) start() {
	go a.runRegister()
	go a.agentWorker.RunMeta(a.ctx)
	go a.agentWorker.RunPing(a.ctx, pingInterval)
	go a.spanWorker.Run(a.ctx)
	go a.statWorker.Run(a.ctx)
	go a.urlStats.Run()
	go a.runAgentStatLoop()
	go a.runUrlStatSenderLoop()
}

func (a *AgentImpl) runRegister() {
	info := pb.AgentInfo{
		AgentID:      a.cfg.AgentID,
		AgentName:    a.cfg.AgentName,
		AppName:      a.cfg.AppName,
		AppType:      a.cfg.AppType,
		Hostname:     util.HostName(),
		IP:           util.HostIPAddr(),
		Pid:          int32(os.Getpid()),
		StartTimeMS:  a.startTimeMS,
		AgentVersion: agentVersion,
	}
	for {
		if a.exiting.Load() {
			return
		}
		callCtx, cancel := context.WithTimeout(a.ctx, registerRetryInterval*4)
		err := a.agentWorker.Register(callCtx, info)
		cancel()
		if err == nil {
			return
		}
		log.Warn("pinpoint: agent registration failed, retrying: %v", err)
		select {
		case <-time.After(registerRetryInterval):
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *AgentImpl) runAgentStatLoop() {
	if !a.cfg.Stat.Enable {
		return
	}
	interval := time.Duration(a.cfg.Stat.CollectIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case now := <-ticker.C:
			batch, ready := a.agentStats.Tick(now)
			if !ready {
				continue
			}
			msg := &pb.StatMessage{AgentID: a.cfg.AgentID, Stats: convertStatBatch(batch)}
			if !a.statWorker.Enqueue(transport.StatPayload{AgentStats: msg}) {
				log.Debug("pinpoint: stat queue full, dropping agent-stat batch")
			}
		}
	}
}

func (a *AgentImpl) runUrlStatSenderLoop() {
	if !a.cfg.HTTP.URLStat.Enable {
		return
	}
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			snap := a.urlStats.TakeSnapshot()
			entries := snap.Entries()
			if len(entries) == 0 {
				continue
			}
			msg := &pb.UrlStatMessage{AgentID: a.cfg.AgentID, Entries: convertUrlStatEntries(entries)}
			if !a.statWorker.Enqueue(transport.StatPayload{UrlStats: msg}) {
				log.Debug("pinpoint: stat queue full, dropping url-stat batch")
			}
		}
	}
}

func convertStatBatch(batch []stats.Snapshot) []pb.AgentStat {
	out := make([]pb.AgentStat, len(batch))
	for i, s := range batch {
		out[i] = pb.AgentStat{
			SampleTime:      util.ToMilliSeconds(s.SampleTime),
			GCCPUFraction:   s.GCCPUFraction,
			NumGoroutine:    s.NumGoroutine,
			HeapAllocSize:   int64(s.HeapAllocSize),
			HeapMaxSize:     int64(s.HeapMaxSize),
			ResponseTimeAvg: s.ResponseTimeAvg,
			ResponseTimeMax: s.ResponseTimeMax,
			SampleNew:       s.SampleNew,
			SampleCont:      s.SampleCont,
			UnsampleNew:     s.UnsampleNew,
			UnsampleCont:    s.UnsampleCont,
			SkipNew:         s.SkipNew,
			SkipCont:        s.SkipCont,
			ActiveRequests:  s.ActiveRequests,
		}
	}
	return out
}

func convertUrlStatEntries(entries []stats.EachUrlStat) []pb.EachUrlStat {
	out := make([]pb.EachUrlStat, len(entries))
	for i, e := range entries {
		out[i] = pb.EachUrlStat{
			URL:   e.Key.URL,
			Tick:  e.Key.Tick,
			Total: convertHistogram(e.Total),
			Fail:  convertHistogram(e.Fail),
		}
	}
	return out
}

func convertHistogram(h stats.UrlStatHistogram) pb.UrlStatHistogram {
	return pb.UrlStatHistogram{Count: h.Count, Total: h.Total, Max: h.Max, Buckets: h.Buckets}
}

// --- span.Recorder ---

func (a *AgentImpl) IsExiting() bool   { return a.exiting.Load() }
func (a *AgentImpl) AppName() string   { return a.cfg.AppName }
func (a *AgentImpl) AppType() int32    { return a.cfg.AppType }
func (a *AgentImpl) AgentID() string   { return a.cfg.AgentID }
func (a *AgentImpl) AgentName() string { return a.cfg.AgentName }

func (a *AgentImpl) GenerateTraceID() ext.TraceID {
	return ext.TraceID{
		AgentID:   a.cfg.AgentID,
		StartTime: a.startTimeMS,
		Sequence:  a.traceSeq.Add(1),
	}
}

func (a *AgentImpl) CacheAPI(operation string, apiType int32) int32 {
	res := a.apiCache.Get(apiCacheKey(operation, apiType))
	if !res.Old {
		rec := transport.MetaRecord{Api: &pb.ApiMeta{ID: res.ID, Type: apiType, ApiInfo: operation}}
		if !a.agentWorker.EnqueueMeta(rec) {
			log.Debug("pinpoint: meta queue full, dropping api meta for %s", operation)
		}
	}
	return res.ID
}

func (a *AgentImpl) RemoveCacheAPI(operation string, apiType int32) {
	a.apiCache.Remove(apiCacheKey(operation, apiType))
}

func (a *AgentImpl) CacheError(name string) int32 {
	res := a.errorCache.Get(name)
	if !res.Old {
		rec := transport.MetaRecord{String: &pb.StringMeta{ID: res.ID, Value: name, Kind: pb.StringMetaError}}
		if !a.agentWorker.EnqueueMeta(rec) {
			log.Debug("pinpoint: meta queue full, dropping error meta for %s", name)
		}
	}
	return res.ID
}

func (a *AgentImpl) RemoveCacheError(name string) { a.errorCache.Remove(name) }

func (a *AgentImpl) CacheSQL(sql string) int32 {
	res := a.sqlCache.Get(sql)
	if !res.Old {
		rec := transport.MetaRecord{String: &pb.StringMeta{ID: res.ID, Value: sql, Kind: pb.StringMetaSQL}}
		if !a.agentWorker.EnqueueMeta(rec) {
			log.Debug("pinpoint: meta queue full, dropping sql meta")
		}
	}
	return res.ID
}

func (a *AgentImpl) RemoveCacheSQL(sql string) { a.sqlCache.Remove(sql) }

func (a *AgentImpl) CacheSQLUID(sql string) []byte {
	res := a.sqlUidCache.Get(sql)
	if !res.Old {
		rec := transport.MetaRecord{SqlUid: &pb.SqlUidMeta{UID: res.UID, SQL: sql}}
		if !a.agentWorker.EnqueueMeta(rec) {
			log.Debug("pinpoint: meta queue full, dropping sql-uid meta")
		}
	}
	return res.UID
}

func (a *AgentImpl) RemoveCacheSQLUID(sql string) { a.sqlUidCache.Remove(sql) }

// onMetaFailure inverts a failed metadata upload back to its cache key
// and evicts it (spec §4.5: an upload failure calls removeCacheApi /
// removeCacheError / removeCacheSql), so the next lookup re-interns and
// retries rather than leaving a collector-side id gap forever. Every
// MetaRecord variant carries its original source string inline, so no
// separate id-to-key reverse index is needed.
func (a *AgentImpl) onMetaFailure(rec transport.MetaRecord) {
	switch {
	case rec.Api != nil:
		a.RemoveCacheAPI(rec.Api.ApiInfo, rec.Api.Type)
	case rec.String != nil && rec.String.Kind == pb.StringMetaSQL:
		a.RemoveCacheSQL(rec.String.Value)
	case rec.String != nil:
		a.RemoveCacheError(rec.String.Value)
	case rec.SqlUid != nil:
		a.RemoveCacheSQLUID(rec.SqlUid.SQL)
	}
}

func (a *AgentImpl) RecordSpan(chunk *span.Chunk) {
	d := chunk.Data
	events := buildWireEvents(chunk)

	if chunk.Final && chunk.AsyncID == ext.NoneAsyncID {
		annotations := append(convertAnnotations(chunk.RootAnnotations()))
		wireSpan := &pb.Span{
			TransactionID: wireTransactionID(chunk.TraceID()),
			SpanID:        d.SpanID(),
			ParentSpanID:  d.ParentSpanID(),
			ParentAppName: d.ParentAppName(),
			ParentAppType: d.ParentAppType(),
			AppType:       d.AppType(),
			ServiceType:   d.ServiceType(),
			RPC:           d.RpcName(),
			Method:        d.Method(),
			EndPoint:      d.Endpoint(),
			RemoteAddr:    d.RemoteAddr(),
			StartTime:     util.ToMilliSeconds(d.StartTime()),
			Elapsed:       int32(d.ElapsedMS()),
			ApiID:         d.ApiID(),
			Err:           d.Err(),
			StatusCode:    d.StatusCode(),
			Annotations:   annotations,
			Events:        events,
		}
		if !a.spanWorker.EnqueueSpan(pb.SpanMessage{Span: wireSpan}) {
			log.Debug("pinpoint: span queue full, dropping span %d", d.SpanID())
		}
		return
	}

	wireChunk := &pb.SpanChunk{
		TransactionID: wireTransactionID(chunk.TraceID()),
		SpanID:        d.SpanID(),
		KeyTime:       util.ToMilliSeconds(chunk.KeyTime),
		AsyncID:       chunk.AsyncID,
		AsyncSequence: chunk.AsyncSequence,
		Events:        events,
	}
	if !a.spanWorker.EnqueueSpan(pb.SpanMessage{Chunk: wireChunk}) {
		log.Debug("pinpoint: span queue full, dropping chunk for span %d", d.SpanID())
	}
}

func wireTransactionID(t ext.TraceID) pb.TransactionID {
	return pb.TransactionID{AgentID: t.AgentID, StartTime: t.StartTime, Sequence: t.Sequence}
}

func buildWireEvents(chunk *span.Chunk) []pb.SpanEvent {
	optimized := chunk.Optimize()
	out := make([]pb.SpanEvent, len(optimized))
	for i, we := range optimized {
		e := we.Event
		out[i] = pb.SpanEvent{
			Sequence:     e.Sequence(),
			Depth:        we.EmittedDepth,
			StartElapsed: we.StartElapsed,
			ApiID:        e.ApiID(),
			ServiceType:  e.ServiceType(),
			EndPoint:     e.Endpoint(),
			Destination:  e.DestinationID(),
			NextSpanID:   e.NextSpanID(),
			Err:          e.Err(),
			ErrorFuncID:  e.ErrorFuncID(),
			ErrorMessage: e.ErrorMessage(),
			Annotations:  convertAnnotations(e.Annotations().Entries()),
		}
	}
	return out
}

// convertAnnotations maps every internal/annotation.Entry Kind onto the
// pb.Annotation fields that shape carries, losslessly: each Kind uses a
// subset of pb.Annotation's fields, so a single struct can represent any
// of them.
func convertAnnotations(entries []annotation.Entry) []pb.Annotation {
	out := make([]pb.Annotation, len(entries))
	for i, e := range entries {
		a := pb.Annotation{Key: e.Key}
		switch e.Kind {
		case annotation.KindInt:
			a.IntVal = e.Int
		case annotation.KindLong:
			a.LongVal = e.Long
		case annotation.KindString:
			a.Str1 = e.Str1
		case annotation.KindStringString:
			a.Str1, a.Str2 = e.Str1, e.Str2
		case annotation.KindIntStringString:
			a.IntVal, a.Str1, a.Str2 = e.Int, e.Str1, e.Str2
		case annotation.KindBytesStringString:
			a.Bytes, a.Str1, a.Str2 = e.Bytes, e.Str1, e.Str2
		case annotation.KindLongIntIntByteByteString:
			a.LongVal, a.IntVal, a.IntVal2, a.ByteVal1, a.ByteVal2, a.Str1 = e.Long, e.Int, e.Int2, e.Byte1, e.Byte2, e.Str1
		}
		out[i] = a
	}
	return out
}

func (a *AgentImpl) RecordURLStat(entry span.UrlStatEntry) {
	if !a.cfg.HTTP.URLStat.Enable {
		return
	}
	sample := stats.Sample{
		URL:        entry.UrlPattern,
		Method:     entry.Method,
		StatusCode: entry.StatusCode,
		EndTime:    entry.EndTime,
		ElapsedMS:  entry.Elapsed,
		Fail:       entry.StatusCode/100 >= 4,
	}
	if !a.urlStats.Enqueue(sample) {
		log.Debug("pinpoint: url-stat queue full, dropping sample for %s", entry.UrlPattern)
	}
}

// IsStatusFail reports whether statusCode matches any of
// http.server.status_errors: a literal code ("403") or a "Nxx" wildcard
// naming an entire status class ("5xx"), grounded on the original's
// StatusCodeErrors config list.
func (a *AgentImpl) IsStatusFail(statusCode int32) bool {
	for _, pattern := range a.statusErrors {
		if matchStatusPattern(pattern, statusCode) {
			return true
		}
	}
	return false
}

func matchStatusPattern(pattern string, statusCode int32) bool {
	pattern = strings.TrimSpace(pattern)
	if len(pattern) == 3 && (pattern[1] == 'x' || pattern[1] == 'X') && (pattern[2] == 'x' || pattern[2] == 'X') {
		return int32(pattern[0]-'0') == statusCode/100
	}
	if code, ok := util.ParseInt(pattern); ok {
		return int32(code) == statusCode
	}
	return false
}

// matchesAny reports whether value matches any of patterns, either as a
// path.Match glob (no filter implementation for exclude_url/
// exclude_method survived in the retrieved original sources, so glob
// matching against the stdlib's path.Match is the closest available
// substitute) or as a case-insensitive literal match.
func matchesAny(patterns []string, value string) bool {
	for _, p := range patterns {
		if util.EqualFold(p, value) {
			return true
		}
		if ok, err := path.Match(p, value); err == nil && ok {
			return true
		}
	}
	return false
}

func (a *AgentImpl) RegisterActiveSpan(spanID int64, start time.Time) {
	a.agentStats.AddActiveSpan(spanID, start)
}

func (a *AgentImpl) UnregisterActiveSpan(spanID int64) {
	a.agentStats.DropActiveSpan(spanID)
}

func (a *AgentImpl) RecordResponseTime(elapsedMS int64) {
	a.agentStats.CollectResponseTime(elapsedMS)
}

func (a *AgentImpl) RecordSampling(isNew, sampled bool) {
	switch {
	case isNew && sampled:
		a.agentStats.IncrSampleNew()
	case isNew && !sampled:
		a.agentStats.IncrUnsampleNew()
	case !isNew && sampled:
		a.agentStats.IncrSampleCont()
	default:
		a.agentStats.IncrUnsampleCont()
	}
}

func (a *AgentImpl) MaxEventDepth() int32    { return int32(a.cfg.Span.MaxEventDepth) }
func (a *AgentImpl) MaxEventSequence() int32 { return int32(a.cfg.Span.MaxEventSequence) }
func (a *AgentImpl) EventChunkSize() int32   { return int32(a.cfg.Span.EventChunkSize) }
func (a *AgentImpl) MaxSQLLength() int       { return a.cfg.SQL.MaxBindArgsSize }
