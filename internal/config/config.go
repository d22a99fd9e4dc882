// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package config resolves the agent's immutable configuration snapshot
// from built-in defaults, an optional YAML file or string, and
// PINPOINT_CPP_* environment overrides, applying the validation rules
// that keep a malformed value from ever failing agent construction.
package config

import (
	"math"
	"os"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/pinpoint-apm/pinpoint-go-agent/internal/log"
	"github.com/pinpoint-apm/pinpoint-go-agent/internal/util"
)

const envPrefix = "PINPOINT_CPP_"

// Sampling type names recognized by sampling.type.
const (
	SamplingCounter = "COUNTER"
	SamplingPercent = "PERCENT"
)

// Config is the fully resolved, immutable snapshot of every tunable the
// agent reads. Values here have already passed through the validation
// rules below; callers never need to re-clamp anything.
type Config struct {
	AppName  string `yaml:"app_name"`
	AppType  int32  `yaml:"app_type"`
	AgentID  string `yaml:"agent_id"`
	AgentName string `yaml:"agent_name"`

	Enable      bool `yaml:"enable"`
	IsContainer bool `yaml:"is_container"`

	Log struct {
		Level        string `yaml:"level"`
		FilePath     string `yaml:"file_path"`
		MaxFileSizeMB int   `yaml:"max_file_size_mb"`
	} `yaml:"log"`

	Collector struct {
		Host      string `yaml:"host"`
		AgentPort int    `yaml:"agent_port"`
		SpanPort  int    `yaml:"span_port"`
		StatPort  int    `yaml:"stat_port"`
	} `yaml:"collector"`

	Stat struct {
		Enable           bool `yaml:"enable"`
		BatchCount       int  `yaml:"batch_count"`
		CollectIntervalMS int `yaml:"collect_interval_ms"`
	} `yaml:"stat"`

	Sampling struct {
		Type           string  `yaml:"type"`
		CounterRate    int     `yaml:"counter_rate"`
		PercentRate    float64 `yaml:"percent_rate"`
		NewThroughput  int     `yaml:"new_throughput"`
		ContThroughput int     `yaml:"cont_throughput"`
	} `yaml:"sampling"`

	Span struct {
		QueueSize       int `yaml:"queue_size"`
		MaxEventDepth   int `yaml:"max_event_depth"`
		MaxEventSequence int `yaml:"max_event_sequence"`
		EventChunkSize  int `yaml:"event_chunk_size"`
	} `yaml:"span"`

	HTTP struct {
		URLStat struct {
			Enable        bool `yaml:"enable"`
			Limit         int  `yaml:"limit"`
			TrimPathDepth int  `yaml:"trim_path_depth"`
			MethodPrefix  bool `yaml:"method_prefix"`
		} `yaml:"url_stat"`

		Server struct {
			StatusErrors     []string `yaml:"status_errors"`
			ExcludeURL       []string `yaml:"exclude_url"`
			ExcludeMethod    []string `yaml:"exclude_method"`
			RecRequestHeader []string `yaml:"rec_request_header"`
			RecRequestCookie []string `yaml:"rec_request_cookie"`
			RecResponseHeader []string `yaml:"rec_response_header"`
		} `yaml:"server"`

		Client struct {
			RecRequestHeader  []string `yaml:"rec_request_header"`
			RecRequestCookie  []string `yaml:"rec_request_cookie"`
			RecResponseHeader []string `yaml:"rec_response_header"`
		} `yaml:"client"`
	} `yaml:"http"`

	SQL struct {
		MaxBindArgsSize int  `yaml:"max_bind_args_size"`
		EnableSQLStats  bool `yaml:"enable_sql_stats"`
	} `yaml:"sql"`

	EnableCallstackTrace bool `yaml:"enable_callstack_trace"`
}

// Default field values applied before a file, string or env override is
// layered on top.
const (
	defaultQueueSize       = 1024
	defaultMaxEventDepth   = 64
	defaultMaxEventSequence = 5000
	defaultEventChunkSize  = 20
	defaultCollectInterval = 1000
	defaultBatchCount      = 6
	defaultAgentPort       = 9991
	defaultSpanPort        = 9993
	defaultStatPort        = 9992
	defaultIdCacheSize     = 1024
)

func defaults() Config {
	var c Config
	c.Enable = true
	c.AppType = 1700 // default Go app type, matching the teacher's ext.ServiceType convention of a stable numeric id
	c.Log.Level = "info"
	c.Collector.Host = "localhost"
	c.Collector.AgentPort = defaultAgentPort
	c.Collector.SpanPort = defaultSpanPort
	c.Collector.StatPort = defaultStatPort
	c.Stat.Enable = true
	c.Stat.BatchCount = defaultBatchCount
	c.Stat.CollectIntervalMS = defaultCollectInterval
	c.Sampling.Type = SamplingCounter
	c.Sampling.CounterRate = 1
	c.Sampling.PercentRate = 100
	c.Span.QueueSize = defaultQueueSize
	c.Span.MaxEventDepth = defaultMaxEventDepth
	c.Span.MaxEventSequence = defaultMaxEventSequence
	c.Span.EventChunkSize = defaultEventChunkSize
	c.HTTP.URLStat.Enable = true
	c.HTTP.URLStat.Limit = 1024
	c.HTTP.URLStat.TrimPathDepth = 1
	c.SQL.MaxBindArgsSize = 1024
	return c
}

// Load resolves a Config snapshot from defaults, optionally a YAML file at
// filePath (ignored if empty), optionally a YAML string (ignored if
// empty), and finally PINPOINT_CPP_* environment overrides, in that
// priority order (later sources win).
func Load(filePath, yamlString string) Config {
	c := defaults()

	if filePath != "" {
		if data, err := os.ReadFile(filePath); err != nil {
			log.Warn("config: failed to read file %s: %s", filePath, err)
		} else if err := yaml.Unmarshal(data, &c); err != nil {
			log.Warn("config: failed to parse file %s: %s", filePath, err)
		}
	}

	if yamlString != "" {
		if err := yaml.Unmarshal([]byte(yamlString), &c); err != nil {
			log.Warn("config: failed to parse config string: %s", err)
		}
	}

	applyEnv(&c)
	validate(&c)

	if c.AgentID == "" {
		c.AgentID = util.GenerateAgentID()
	}
	if c.AgentName == "" {
		c.AgentName = c.AppName
	}

	return c
}

func applyEnv(c *Config) {
	lookup := func(name string) (string, bool) {
		return os.LookupEnv(envPrefix + name)
	}

	if v, ok := lookup("ENABLE"); ok {
		c.Enable = cast.ToBool(v)
	}
	if v, ok := lookup("APPLICATION_NAME"); ok {
		c.AppName = v
	}
	if v, ok := lookup("APPLICATION_TYPE"); ok {
		c.AppType = int32(cast.ToInt(v))
	}
	if v, ok := lookup("AGENT_ID"); ok {
		c.AgentID = v
	}
	if v, ok := lookup("AGENT_NAME"); ok {
		c.AgentName = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("GRPC_HOST"); ok {
		c.Collector.Host = v
	}
	if v, ok := lookup("GRPC_AGENT_PORT"); ok {
		c.Collector.AgentPort = cast.ToInt(v)
	}
	if v, ok := lookup("GRPC_SPAN_PORT"); ok {
		c.Collector.SpanPort = cast.ToInt(v)
	}
	if v, ok := lookup("GRPC_STAT_PORT"); ok {
		c.Collector.StatPort = cast.ToInt(v)
	}
	if v, ok := lookup("SAMPLING_TYPE"); ok {
		c.Sampling.Type = strings.ToUpper(v)
	}
	if v, ok := lookup("SAMPLING_PERCENT_RATE"); ok {
		c.Sampling.PercentRate = cast.ToFloat64(v)
	}
	if v, ok := lookup("SAMPLING_COUNTER_RATE"); ok {
		c.Sampling.CounterRate = cast.ToInt(v)
	}
	if v, ok := lookup("IS_CONTAINER"); ok {
		c.IsContainer = cast.ToBool(v)
	}
	if v, ok := lookup("HTTP_COLLECT_URL_STAT"); ok {
		c.HTTP.URLStat.Enable = cast.ToBool(v)
	}
	if v, ok := lookup("HTTP_URL_STAT_LIMIT"); ok {
		c.HTTP.URLStat.Limit = cast.ToInt(v)
	}
	if v, ok := lookup("HTTP_URL_STAT_TRIM_PATH_DEPTH"); ok {
		c.HTTP.URLStat.TrimPathDepth = cast.ToInt(v)
	}
	if v, ok := lookup("HTTP_URL_STAT_METHOD_PREFIX"); ok {
		c.HTTP.URLStat.MethodPrefix = cast.ToBool(v)
	}
	if v, ok := lookup("SQL_MAX_BIND_ARGS_SIZE"); ok {
		c.SQL.MaxBindArgsSize = cast.ToInt(v)
	}
	if v, ok := lookup("SQL_ENABLE_SQL_STATS"); ok {
		c.SQL.EnableSQLStats = cast.ToBool(v)
	}
	if v, ok := lookup("ENABLE_CALLSTACK_TRACE"); ok {
		c.EnableCallstackTrace = cast.ToBool(v)
	}
	if v, ok := lookup("SPAN_QUEUE_SIZE"); ok {
		c.Span.QueueSize = cast.ToInt(v)
	}
	if v, ok := lookup("SPAN_MAX_EVENT_DEPTH"); ok {
		c.Span.MaxEventDepth = cast.ToInt(v)
	}
	if v, ok := lookup("SPAN_MAX_EVENT_SEQUENCE"); ok {
		c.Span.MaxEventSequence = cast.ToInt(v)
	}
	if v, ok := lookup("STAT_ENABLE"); ok {
		c.Stat.Enable = cast.ToBool(v)
	}
}

// validate applies spec §4.1's clamp rules in place, logging and
// replacing rather than failing construction.
func validate(c *Config) {
	if c.Sampling.CounterRate < 0 {
		log.Warn("config: sampling.counter_rate < 0, clamping to 0")
		c.Sampling.CounterRate = 0
	}
	if c.Sampling.PercentRate > 100 {
		log.Warn("config: sampling.percent_rate > 100, clamping to 100")
		c.Sampling.PercentRate = 100
	}
	if c.Sampling.PercentRate < 0 {
		log.Warn("config: sampling.percent_rate < 0, clamping to 0")
		c.Sampling.PercentRate = 0
	}
	if c.Sampling.PercentRate > 0 && c.Sampling.PercentRate < 0.01 {
		c.Sampling.PercentRate = 0.01
	}
	if c.Span.QueueSize < 1 {
		c.Span.QueueSize = defaultQueueSize
	}
	if c.Span.MaxEventDepth == -1 {
		c.Span.MaxEventDepth = math.MaxInt32
	}
	if c.Span.EventChunkSize < 1 {
		c.Span.EventChunkSize = defaultEventChunkSize
	}
}

// ToYAML serializes c back to YAML text, mirroring the original's
// to_config_string for diagnostics/logging at startup.
func ToYAML(c Config) (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
