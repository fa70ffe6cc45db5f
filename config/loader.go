// =============================================================================
// 📦 DearVoice 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("DEARVOICE").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 DearVoice 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Mongo 文档数据库配置
	Mongo MongoConfig `yaml:"mongo" env:"MONGO"`

	// Redis 配置（用于供应锁，可选）
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Database 记忆分块的 SQL 数据库配置（可选）
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Cartesia 声音克隆服务配置
	Cartesia CartesiaConfig `yaml:"cartesia" env:"CARTESIA"`

	// Vapi 对话助手服务配置
	Vapi VapiConfig `yaml:"vapi" env:"VAPI"`

	// OpenAI 转写与嵌入服务配置
	OpenAI OpenAIConfig `yaml:"openai" env:"OPENAI"`

	// STT 语音识别后端选择
	STT STTConfig `yaml:"stt" env:"STT"`

	// Embedding 分块与嵌入配置
	Embedding EmbeddingConfig `yaml:"embedding" env:"EMBEDDING"`

	// Provisioning 声音供应流水线配置
	Provisioning ProvisioningConfig `yaml:"provisioning" env:"PROVISIONING"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时（需覆盖完整供应流程）
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 上传大小上限（字节）
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	// 允许的 CORS 来源
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// 每个 IP 的每秒请求数
	RateLimitRPS int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	// 连接 URI
	URI string `yaml:"uri" env:"URI"`
	// 数据库名
	Database string `yaml:"database" env:"DATABASE"`
	// 家庭成员集合
	FamilyCollection string `yaml:"family_collection" env:"FAMILY_COLLECTION"`
	// 患者集合
	PatientCollection string `yaml:"patient_collection" env:"PATIENT_COLLECTION"`
	// 用户集合
	UserCollection string `yaml:"user_collection" env:"USER_COLLECTION"`
	// 连接超时
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
}

// RedisConfig Redis 配置，Addr 为空时不启用
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// DatabaseConfig SQL 数据库配置，Driver 为空时不启用记忆存储
type DatabaseConfig struct {
	// 驱动类型: mysql (含 SingleStore), postgres, sqlite
	Driver string `yaml:"driver" env:"DRIVER"`
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名（sqlite 下为文件路径）
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 最大连接数
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// 最大空闲连接
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	// 启动时自动执行迁移
	AutoMigrate bool `yaml:"auto_migrate" env:"AUTO_MIGRATE"`
}

// CartesiaConfig Cartesia 配置
type CartesiaConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Version string        `yaml:"version" env:"VERSION"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// VapiConfig Vapi 配置
type VapiConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// OpenAIConfig OpenAI 配置
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// STTConfig 语音识别配置
type STTConfig struct {
	// 后端: openai, deepgram, google
	Provider string `yaml:"provider" env:"PROVIDER"`
	// 模型，空则使用各后端默认（whisper-1 / nova-2 / latest_long）
	Model string `yaml:"model" env:"MODEL"`
	// Deepgram API Key
	DeepgramAPIKey string `yaml:"deepgram_api_key" env:"DEEPGRAM_API_KEY"`
	// Deepgram 基础 URL
	DeepgramBaseURL string `yaml:"deepgram_base_url" env:"DEEPGRAM_BASE_URL"`
	// Google 语言代码
	GoogleLanguageCode string `yaml:"google_language_code" env:"GOOGLE_LANGUAGE_CODE"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// EmbeddingConfig 嵌入配置
type EmbeddingConfig struct {
	// 嵌入模型
	Model string `yaml:"model" env:"MODEL"`
	// 分词所依据的模型
	TokenizerModel string `yaml:"tokenizer_model" env:"TOKENIZER_MODEL"`
	// 每个分块的 Token 数
	ChunkTokens int `yaml:"chunk_tokens" env:"CHUNK_TOKENS"`
	// 并发嵌入的分块数
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
}

// ProvisioningConfig 声音供应配置
type ProvisioningConfig struct {
	// 临时音频目录（空则使用系统临时目录）
	TempDir string `yaml:"temp_dir" env:"TEMP_DIR"`
	// 克隆时是否启用音频增强
	Enhance bool `yaml:"enhance" env:"ENHANCE"`
	// 供应锁 TTL
	LockTTL time.Duration `yaml:"lock_ttl" env:"LOCK_TTL"`
	// 助手使用的 LLM 服务商
	ModelProvider string `yaml:"model_provider" env:"MODEL_PROVIDER"`
	// 助手使用的模型
	Model string `yaml:"model" env:"MODEL"`
	// 转写服务商
	TranscriberProvider string `yaml:"transcriber_provider" env:"TRANSCRIBER_PROVIDER"`
	// 转写模型
	TranscriberModel string `yaml:"transcriber_model" env:"TRANSCRIBER_MODEL"`
	// 转写语言
	TranscriberLanguage string `yaml:"transcriber_language" env:"TRANSCRIBER_LANGUAGE"`
	// 助手回调地址
	ServerURL string `yaml:"server_url" env:"SERVER_URL"`
	// 护士助手名称
	NurseName string `yaml:"nurse_name" env:"NURSE_NAME"`
	// 护士助手声音
	NurseVoiceID string `yaml:"nurse_voice_id" env:"NURSE_VOICE_ID"`
	// 护士助手开场白
	NurseFirstMessage string `yaml:"nurse_first_message" env:"NURSE_FIRST_MESSAGE"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "DEARVOICE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.Mongo.URI == "" {
		errs = append(errs, "mongo.uri is required")
	}

	// 供应流水线始终启用
	if c.Cartesia.APIKey == "" {
		errs = append(errs, "cartesia.api_key is required")
	}
	if c.Vapi.APIKey == "" {
		errs = append(errs, "vapi.api_key is required")
	}

	switch c.STT.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			errs = append(errs, "openai.api_key is required for the openai stt provider")
		}
	case "google":
	case "deepgram":
		if c.STT.DeepgramAPIKey == "" {
			errs = append(errs, "stt.deepgram_api_key is required for the deepgram provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported stt provider %q", c.STT.Provider))
	}

	switch c.Database.Driver {
	case "":
	case "mysql", "postgres", "sqlite":
		// 记忆写入依赖 OpenAI 嵌入
		if c.OpenAI.APIKey == "" {
			errs = append(errs, "openai.api_key is required when database.driver is set")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}

	if c.Embedding.ChunkTokens <= 0 {
		errs = append(errs, "embedding.chunk_tokens must be positive")
	}
	if c.Embedding.Concurrency <= 0 {
		errs = append(errs, "embedding.concurrency must be positive")
	}
	if c.Provisioning.LockTTL <= 0 {
		errs = append(errs, "provisioning.lock_ttl must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}

// MigrationURL 返回 golang-migrate 使用的连接串
func (d *DatabaseConfig) MigrationURL() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
