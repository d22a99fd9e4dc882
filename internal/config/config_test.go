// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	c := Load("", "")

	assert.True(t, c.Enable)
	assert.Equal(t, "localhost", c.Collector.Host)
	assert.Equal(t, defaultAgentPort, c.Collector.AgentPort)
	assert.Equal(t, SamplingCounter, c.Sampling.Type)
	assert.NotEmpty(t, c.AgentID, "blank agent_id must be auto-generated")
}

func TestLoadFromYAMLString(t *testing.T) {
	yaml := `
app_name: my-service
sampling:
  type: PERCENT
  percent_rate: 25
span:
  queue_size: 2048
`
	c := Load("", yaml)

	assert.Equal(t, "my-service", c.AppName)
	assert.Equal(t, SamplingPercent, c.Sampling.Type)
	assert.Equal(t, 25.0, c.Sampling.PercentRate)
	assert.Equal(t, 2048, c.Span.QueueSize)
}

func TestLoadFromFile(t *testing.T) {
	f, err := os.CreateTemp("", "pinpoint-config-*.yaml")
	assert.NoError(t, err)
	defer os.Remove(f.Name())

	_, err = f.WriteString("app_name: file-service\ncollector:\n  host: collector.internal\n")
	assert.NoError(t, err)
	f.Close()

	c := Load(f.Name(), "")
	assert.Equal(t, "file-service", c.AppName)
	assert.Equal(t, "collector.internal", c.Collector.Host)
}

func TestEnvOverridesFile(t *testing.T) {
	os.Setenv("PINPOINT_CPP_APPLICATION_NAME", "env-service")
	defer os.Unsetenv("PINPOINT_CPP_APPLICATION_NAME")

	c := Load("", "app_name: file-service")
	assert.Equal(t, "env-service", c.AppName)
}

func TestValidationClampsCounterRate(t *testing.T) {
	c := Load("", "sampling:\n  counter_rate: -5\n")
	assert.Equal(t, 0, c.Sampling.CounterRate)
}

func TestValidationClampsPercentRate(t *testing.T) {
	c := Load("", "sampling:\n  percent_rate: 150\n")
	assert.Equal(t, 100.0, c.Sampling.PercentRate)

	c2 := Load("", "sampling:\n  percent_rate: -5\n")
	assert.Equal(t, 0.0, c2.Sampling.PercentRate)

	c3 := Load("", "sampling:\n  percent_rate: 0.001\n")
	assert.Equal(t, 0.01, c3.Sampling.PercentRate)
}

func TestValidationMaxEventDepthSentinel(t *testing.T) {
	c := Load("", "span:\n  max_event_depth: -1\n")
	assert.Equal(t, int(2147483647), c.Span.MaxEventDepth)
}

func TestValidationQueueSizeDefault(t *testing.T) {
	c := Load("", "span:\n  queue_size: 0\n")
	assert.Equal(t, defaultQueueSize, c.Span.QueueSize)
}

func TestAgentNameDefaultsToAppName(t *testing.T) {
	c := Load("", "app_name: svc-a")
	assert.Equal(t, "svc-a", c.AgentName)
}

func TestToYAMLRoundTrip(t *testing.T) {
	c := Load("", "app_name: roundtrip")
	out, err := ToYAML(c)
	assert.NoError(t, err)
	assert.Contains(t, out, "roundtrip")
}
