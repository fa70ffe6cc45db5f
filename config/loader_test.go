// 配置加载器测试。
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

	// 验证服务器默认值
	assert.Equal(t, 5000, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	// 验证 Mongo 默认值
	assert.Equal(t, "deardb", cfg.Mongo.Database)
	assert.Equal(t, "family", cfg.Mongo.FamilyCollection)
	assert.Equal(t, "patient", cfg.Mongo.PatientCollection)
	assert.Equal(t, "user", cfg.Mongo.UserCollection)

	// 验证外部服务默认值
	assert.Equal(t, "https://api.cartesia.ai", cfg.Cartesia.BaseURL)
	assert.Equal(t, "2024-06-10", cfg.Cartesia.Version)
	assert.Equal(t, "https://api.vapi.ai", cfg.Vapi.BaseURL)

	// 验证嵌入默认值
	assert.Equal(t, "text-embedding-ada-002", cfg.Embedding.Model)
	assert.Equal(t, 1000, cfg.Embedding.ChunkTokens)

	// 可选组件默认关闭
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Database.Driver)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 5000, cfg.Server.HTTPPort)
	assert.True(t, cfg.Provisioning.Enhance)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s

mongo:
  uri: "mongodb://mongo.internal:27017"
  database: "dear-test"

cartesia:
  api_key: "cartesia-key"
  timeout: 45s

provisioning:
  enhance: false
  lock_ttl: 2m

redis:
  addr: "redis.example.com:6379"
  password: "secret"
  db: 1

log:
  level: "debug"
  format: "console"
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	// YAML 值覆盖默认值
	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "mongodb://mongo.internal:27017", cfg.Mongo.URI)
	assert.Equal(t, "dear-test", cfg.Mongo.Database)
	// 未出现的字段保留默认值
	assert.Equal(t, "family", cfg.Mongo.FamilyCollection)

	assert.Equal(t, "cartesia-key", cfg.Cartesia.APIKey)
	assert.Equal(t, 45*time.Second, cfg.Cartesia.Timeout)
	assert.Equal(t, "2024-06-10", cfg.Cartesia.Version)

	assert.False(t, cfg.Provisioning.Enhance)
	assert.Equal(t, 2*time.Minute, cfg.Provisioning.LockTTL)

	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("DEARVOICE_SERVER_HTTP_PORT", "7777")
	t.Setenv("DEARVOICE_CARTESIA_API_KEY", "env-cartesia")
	t.Setenv("DEARVOICE_VAPI_API_KEY", "env-vapi")
	t.Setenv("DEARVOICE_VAPI_TIMEOUT", "12s")
	t.Setenv("DEARVOICE_EMBEDDING_CHUNK_TOKENS", "256")
	t.Setenv("DEARVOICE_PROVISIONING_ENHANCE", "false")
	t.Setenv("DEARVOICE_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DEARVOICE_TELEMETRY_SAMPLE_RATE", "0.5")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, "env-cartesia", cfg.Cartesia.APIKey)
	assert.Equal(t, "env-vapi", cfg.Vapi.APIKey)
	assert.Equal(t, 12*time.Second, cfg.Vapi.Timeout)
	assert.Equal(t, 256, cfg.Embedding.ChunkTokens)
	assert.False(t, cfg.Provisioning.Enhance)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.InDelta(t, 0.5, cfg.Telemetry.SampleRate, 0.0001)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
vapi:
  api_key: "yaml-vapi"
  base_url: "https://vapi.yaml"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("DEARVOICE_SERVER_HTTP_PORT", "9999")
	t.Setenv("DEARVOICE_VAPI_API_KEY", "env-vapi")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	// 环境变量覆盖 YAML
	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "env-vapi", cfg.Vapi.APIKey)
	// 未被覆盖的 YAML 值保留
	assert.Equal(t, "https://vapi.yaml", cfg.Vapi.BaseURL)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "6666")
	t.Setenv("MYAPP_MONGO_DATABASE", "custom-db")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, 6666, cfg.Server.HTTPPort)
	assert.Equal(t, "custom-db", cfg.Mongo.Database)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("DEARVOICE_PROVISIONING_LOCK_TTL", "not-a-duration")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestLoader_WithValidator(t *testing.T) {
	t.Setenv("DEARVOICE_SERVER_HTTP_PORT", "80")

	_, err := NewLoader().
		WithValidator(func(cfg *Config) error {
			if cfg.Server.HTTPPort < 1024 {
				return assert.AnError
			}
			return nil
		}).
		Load()
	assert.Error(t, err)
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/config.yaml").
		Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 5000, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
server:
  http_port: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := NewLoader().
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
			name:    "invalid HTTP port (negative)",
			modify:  func(c *Config) { c.Server.HTTPPort = -1 },
			wantErr: true,
		},
		{
			name:    "invalid HTTP port (too large)",
			modify:  func(c *Config) { c.Server.HTTPPort = 70000 },
			wantErr: true,
		},
		{
			name:    "missing mongo uri",
			modify:  func(c *Config) { c.Mongo.URI = "" },
			wantErr: true,
		},
		{
			name:    "unknown stt provider",
			modify:  func(c *Config) { c.STT.Provider = "whisper.cpp" },
			wantErr: true,
		},
		{
			name:    "missing cartesia api key",
			modify:  func(c *Config) { c.Cartesia.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "missing vapi api key",
			modify:  func(c *Config) { c.Vapi.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "missing openai api key with openai stt",
			modify:  func(c *Config) { c.OpenAI.APIKey = "" },
			wantErr: true,
		},
		{
			name: "google stt without openai key",
			modify: func(c *Config) {
				c.STT.Provider = "google"
				c.OpenAI.APIKey = ""
			},
			wantErr: false,
		},
		{
			name: "memory store without openai key",
			modify: func(c *Config) {
				c.STT.Provider = "google"
				c.OpenAI.APIKey = ""
				c.Database.Driver = "sqlite"
			},
			wantErr: true,
		},
		{
			name: "memory store with openai key",
			modify: func(c *Config) {
				c.Database.Driver = "postgres"
			},
			wantErr: false,
		},
		{
			name:    "deepgram without key",
			modify:  func(c *Config) { c.STT.Provider = "deepgram" },
			wantErr: true,
		},
		{
			name: "deepgram with key",
			modify: func(c *Config) {
				c.STT.Provider = "deepgram"
				c.STT.DeepgramAPIKey = "dg"
			},
			wantErr: false,
		},
		{
			name:    "unknown database driver",
			modify:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: true,
		},
		{
			name:    "zero chunk tokens",
			modify:  func(c *Config) { c.Embedding.ChunkTokens = 0 },
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			modify:  func(c *Config) { c.Embedding.Concurrency = 0 },
			wantErr: true,
		},
		{
			name:    "zero lock ttl",
			modify:  func(c *Config) { c.Provisioning.LockTTL = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Cartesia.APIKey = "ck"
			cfg.Vapi.APIKey = "vk"
			cfg.OpenAI.APIKey = "ok"
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

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "postgres DSN",
			config: DatabaseConfig{
				Driver: "postgres", Host: "localhost", Port: 5432,
				User: "user", Password: "pass", Name: "dbname", SSLMode: "disable",
			},
			expected: "host=localhost port=5432 user=user password=pass dbname=dbname sslmode=disable",
		},
		{
			name: "mysql DSN",
			config: DatabaseConfig{
				Driver: "mysql", Host: "svc-singlestore", Port: 3306,
				User: "user", Password: "pass", Name: "dbname",
			},
			expected: "user:pass@tcp(svc-singlestore:3306)/dbname?parseTime=true",
		},
		{
			name:     "sqlite DSN",
			config:   DatabaseConfig{Driver: "sqlite", Name: "/path/to/db.sqlite"},
			expected: "/path/to/db.sqlite",
		},
		{
			name:     "disabled",
			config:   DatabaseConfig{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestDatabaseConfig_MigrationURL(t *testing.T) {
	pg := DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5432,
		User: "u", Password: "p", Name: "n", SSLMode: "require",
	}
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=require", pg.MigrationURL())

	my := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", Name: "n"}
	assert.Contains(t, my.MigrationURL(), "multiStatements=true")
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8080\n"), 0644))

	cfg := MustLoad(configPath)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestMustLoad_Panic(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [oops"), 0644))

	assert.Panics(t, func() { MustLoad(configPath) })
}
