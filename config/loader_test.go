// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- 默认配置测试 ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Len(t, cfg.Channels, 3)
	assert.Equal(t, "Dialog", cfg.Channels[0].Name)
	assert.Equal(t, 100, cfg.Channels[0].Priority)

	assert.Equal(t, 2*time.Second, cfg.Synthesizer.StateChangeTimeout)
	assert.Equal(t, 32, cfg.Synthesizer.ExecutorQueueSize)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "avscore", cfg.Metrics.Namespace)
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	// 不指定配置文件，应该返回默认值
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 32, cfg.Synthesizer.ExecutorQueueSize)
	require.Len(t, cfg.Channels, 3)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
synthesizer:
  state_change_timeout: 5s
  executor_queue_size: 64

log:
  level: "debug"
  format: "console"

telemetry:
  enabled: true
  service_name: "test-service"
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Synthesizer.StateChangeTimeout)
	assert.Equal(t, 64, cfg.Synthesizer.ExecutorQueueSize)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "test-service", cfg.Telemetry.ServiceName)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	envVars := map[string]string{
		"AVSCORE_SYNTHESIZER_STATE_CHANGE_TIMEOUT": "3s",
		"AVSCORE_SYNTHESIZER_EXECUTOR_QUEUE_SIZE":  "16",
		"AVSCORE_LOG_LEVEL":                        "warn",
		"AVSCORE_TELEMETRY_SERVICE_NAME":           "env-service",
	}

	for k, v := range envVars {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range envVars {
			os.Unsetenv(k)
		}
	}()

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Synthesizer.StateChangeTimeout)
	assert.Equal(t, 16, cfg.Synthesizer.ExecutorQueueSize)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "env-service", cfg.Telemetry.ServiceName)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
synthesizer:
  executor_queue_size: 64
log:
  level: "debug"
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	os.Setenv("AVSCORE_SYNTHESIZER_EXECUTOR_QUEUE_SIZE", "8")
	os.Setenv("AVSCORE_LOG_LEVEL", "error")
	defer func() {
		os.Unsetenv("AVSCORE_SYNTHESIZER_EXECUTOR_QUEUE_SIZE")
		os.Unsetenv("AVSCORE_LOG_LEVEL")
	}()

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	// 环境变量应该覆盖 YAML
	assert.Equal(t, 8, cfg.Synthesizer.ExecutorQueueSize)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	os.Setenv("MYAPP_LOG_LEVEL", "debug")
	defer os.Unsetenv("MYAPP_LOG_LEVEL")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_WithValidator(t *testing.T) {
	validator := func(cfg *Config) error {
		if cfg.Synthesizer.ExecutorQueueSize < 1 {
			return assert.AnError
		}
		return nil
	}

	os.Setenv("AVSCORE_SYNTHESIZER_EXECUTOR_QUEUE_SIZE", "0")
	defer os.Unsetenv("AVSCORE_SYNTHESIZER_EXECUTOR_QUEUE_SIZE")

	_, err := NewLoader().
		WithValidator(validator).
		Load()
	assert.Error(t, err)
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/config.yaml").
		Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 32, cfg.Synthesizer.ExecutorQueueSize)
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
synthesizer:
  executor_queue_size: [invalid
  this is not valid yaml
`
	err := os.WriteFile(configPath, []byte(invalidYAML), 0644)
	require.NoError(t, err)

	_, err = NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "duplicate channel names",
			modify: func(c *Config) {
				c.Channels = append(c.Channels, ChannelConfig{Name: "Dialog", Priority: 400})
			},
			wantErr: true,
		},
		{
			name: "empty channel name",
			modify: func(c *Config) {
				c.Channels = append(c.Channels, ChannelConfig{Name: "", Priority: 400})
			},
			wantErr: true,
		},
		{
			name: "negative state change timeout",
			modify: func(c *Config) {
				c.Synthesizer.StateChangeTimeout = -time.Second
			},
			wantErr: true,
		},
		{
			name: "negative executor queue size",
			modify: func(c *Config) {
				c.Synthesizer.ExecutorQueueSize = -1
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
log:
  level: "info"
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, "info", cfg.Log.Level)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	err := os.WriteFile(configPath, []byte("invalid: [yaml"), 0644)
	require.NoError(t, err)

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	os.Setenv("AVSCORE_LOG_LEVEL", "debug")
	defer os.Unsetenv("AVSCORE_LOG_LEVEL")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
