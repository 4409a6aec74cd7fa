package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEmpty(t, cfg.Channels)
	assert.NotEqual(t, SynthesizerConfig{}, cfg.Synthesizer)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
	assert.NotEqual(t, MetricsConfig{}, cfg.Metrics)
}

// --- Individual Default*Config functions ---

func TestDefaultChannelConfigs(t *testing.T) {
	channels := DefaultChannelConfigs()
	require.Len(t, channels, 3)

	assert.Equal(t, "Dialog", channels[0].Name)
	assert.Equal(t, 100, channels[0].Priority)
	assert.Equal(t, "Alerts", channels[1].Name)
	assert.Equal(t, 200, channels[1].Priority)
	assert.Equal(t, "Content", channels[2].Name)
	assert.Equal(t, 300, channels[2].Priority)
}

func TestDefaultSynthesizerConfig(t *testing.T) {
	cfg := DefaultSynthesizerConfig()
	assert.Equal(t, 2*time.Second, cfg.StateChangeTimeout)
	assert.Equal(t, 32, cfg.ExecutorQueueSize)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "avs-core", cfg.ServiceName)
	assert.InDelta(t, 0.1, cfg.SampleRate, 0.001)
}

func TestDefaultMetricsConfig(t *testing.T) {
	cfg := DefaultMetricsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "avscore", cfg.Namespace)
	assert.Equal(t, ":9091", cfg.ListenAddr)
}
