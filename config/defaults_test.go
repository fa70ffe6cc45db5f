package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, MongoConfig{}, cfg.Mongo)
	assert.NotEqual(t, CartesiaConfig{}, cfg.Cartesia)
	assert.NotEqual(t, VapiConfig{}, cfg.Vapi)
	assert.NotEqual(t, OpenAIConfig{}, cfg.OpenAI)
	assert.NotEqual(t, STTConfig{}, cfg.STT)
	assert.NotEqual(t, EmbeddingConfig{}, cfg.Embedding)
	assert.NotEqual(t, ProvisioningConfig{}, cfg.Provisioning)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, 3*time.Minute, cfg.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes)
}

func TestDefaultProvisioningConfig(t *testing.T) {
	cfg := DefaultProvisioningConfig()
	assert.True(t, cfg.Enhance)
	assert.Equal(t, 5*time.Minute, cfg.LockTTL)
	assert.Equal(t, "openai", cfg.ModelProvider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Model)
	assert.Equal(t, "deepgram", cfg.TranscriberProvider)
	assert.Equal(t, "nova-2", cfg.TranscriberModel)
	assert.Equal(t, "en-US", cfg.TranscriberLanguage)
	assert.Equal(t, "emma", cfg.NurseVoiceID)
}

func TestDefaultSTTConfig(t *testing.T) {
	cfg := DefaultSTTConfig()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Empty(t, cfg.Model)
	assert.Equal(t, "en-US", cfg.GoogleLanguageCode)
}

func TestDefaultTimeouts(t *testing.T) {
	assert.Equal(t, 60*time.Second, DefaultCartesiaConfig().Timeout)
	assert.Equal(t, 30*time.Second, DefaultVapiConfig().Timeout)
}
