// =============================================================================
// 📦 DearVoice 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:       DefaultServerConfig(),
		Mongo:        DefaultMongoConfig(),
		Redis:        DefaultRedisConfig(),
		Database:     DefaultDatabaseConfig(),
		Cartesia:     DefaultCartesiaConfig(),
		Vapi:         DefaultVapiConfig(),
		OpenAI:       DefaultOpenAIConfig(),
		STT:          DefaultSTTConfig(),
		Embedding:    DefaultEmbeddingConfig(),
		Provisioning: DefaultProvisioningConfig(),
		Log:          DefaultLogConfig(),
		Telemetry:    DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        5000,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    3 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		MaxUploadBytes:  32 << 20,
		RateLimitRPS:    20,
		RateLimitBurst:  40,
	}
}

// DefaultMongoConfig 返回默认 MongoDB 配置
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:               "mongodb://localhost:27017",
		Database:          "deardb",
		FamilyCollection:  "family",
		PatientCollection: "patient",
		UserCollection:    "user",
		ConnectTimeout:    10 * time.Second,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置（默认不启用）
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置（默认不启用）
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "",
		Host:            "localhost",
		Port:            3306,
		User:            "dearvoice",
		Password:        "",
		Name:            "dearvoice",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		AutoMigrate:     true,
	}
}

// DefaultCartesiaConfig 返回默认 Cartesia 配置
func DefaultCartesiaConfig() CartesiaConfig {
	return CartesiaConfig{
		BaseURL: "https://api.cartesia.ai",
		Version: "2024-06-10",
		Timeout: 60 * time.Second,
	}
}

// DefaultVapiConfig 返回默认 Vapi 配置
func DefaultVapiConfig() VapiConfig {
	return VapiConfig{
		BaseURL: "https://api.vapi.ai",
		Timeout: 30 * time.Second,
	}
}

// DefaultOpenAIConfig 返回默认 OpenAI 配置
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		BaseURL: "https://api.openai.com",
		Timeout: 60 * time.Second,
	}
}

// DefaultSTTConfig 返回默认语音识别配置
func DefaultSTTConfig() STTConfig {
	return STTConfig{
		Provider:           "openai",
		Model:              "",
		DeepgramBaseURL:    "https://api.deepgram.com",
		GoogleLanguageCode: "en-US",
		Timeout:            2 * time.Minute,
	}
}

// DefaultEmbeddingConfig 返回默认嵌入配置
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Model:          "text-embedding-ada-002",
		TokenizerModel: "gpt-3.5-turbo",
		ChunkTokens:    1000,
		Concurrency:    4,
	}
}

// DefaultProvisioningConfig 返回默认供应配置
func DefaultProvisioningConfig() ProvisioningConfig {
	return ProvisioningConfig{
		TempDir:             "",
		Enhance:             true,
		LockTTL:             5 * time.Minute,
		ModelProvider:       "openai",
		Model:               "gpt-3.5-turbo",
		TranscriberProvider: "deepgram",
		TranscriberModel:    "nova-2",
		TranscriberLanguage: "en-US",
		NurseName:           "Nurse Assistant Hub",
		NurseVoiceID:        "emma",
		NurseFirstMessage:   "Hello! I am your nurse assistant. How can I help you today?",
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
		ServiceName:  "dearvoice",
		SampleRate:   0.1,
	}
}
