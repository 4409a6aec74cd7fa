// =============================================================================
// avs-core 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Channels:    DefaultChannelConfigs(),
		Synthesizer: DefaultSynthesizerConfig(),
		Log:         DefaultLogConfig(),
		Telemetry:   DefaultTelemetryConfig(),
		Metrics:     DefaultMetricsConfig(),
	}
}

// DefaultChannelConfigs 返回标准的 Dialog/Alerts/Content 频道注册表。
// 数值与 focus.DefaultChannelConfigurations 保持一致。
func DefaultChannelConfigs() []ChannelConfig {
	return []ChannelConfig{
		{Name: "Dialog", Priority: 100},
		{Name: "Alerts", Priority: 200},
		{Name: "Content", Priority: 300},
	}
}

// DefaultSynthesizerConfig 返回默认的语音合成 agent 配置
func DefaultSynthesizerConfig() SynthesizerConfig {
	return SynthesizerConfig{
		StateChangeTimeout: 2 * time.Second,
		ExecutorQueueSize:  32,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "avs-core",
		SampleRate:   0.1,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:    true,
		Namespace:  "avscore",
		ListenAddr: ":9091",
	}
}
