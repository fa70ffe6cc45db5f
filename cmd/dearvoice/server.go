package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/dearvoice/api/handlers"
	"github.com/BaSui01/dearvoice/config"
	"github.com/BaSui01/dearvoice/internal/cache"
	"github.com/BaSui01/dearvoice/internal/database"
	"github.com/BaSui01/dearvoice/internal/docstore"
	"github.com/BaSui01/dearvoice/internal/metrics"
	"github.com/BaSui01/dearvoice/internal/migration"
	"github.com/BaSui01/dearvoice/internal/server"
	"github.com/BaSui01/dearvoice/internal/telemetry"
	"github.com/BaSui01/dearvoice/llm/assistant"
	"github.com/BaSui01/dearvoice/llm/embedding"
	"github.com/BaSui01/dearvoice/llm/speech"
	"github.com/BaSui01/dearvoice/llm/tokenizer"
	"github.com/BaSui01/dearvoice/memory"
	"github.com/BaSui01/dearvoice/provisioning"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 DearVoice 的主服务器，持有所有外部连接与两个 HTTP 端口
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 外部依赖
	docs      *docstore.Store
	cache     *cache.Manager
	pool      *database.PoolManager
	stt       speech.STTProvider
	telemetry *telemetry.Providers

	metricsCollector *metrics.Collector
	handlers         routeHandlers

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例. otel 可为 nil.
func NewServer(cfg *config.Config, logger *zap.Logger, otel *telemetry.Providers) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		telemetry: otel,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 建立外部连接、组装 handlers 并启动 HTTP 与 Metrics 服务器.
// 失败时调用方应执行 Shutdown 释放已建立的连接.
func (s *Server) Start(ctx context.Context) error {
	// 1. 指标收集器
	s.metricsCollector = metrics.NewCollector("dearvoice", s.logger)

	// 2. 文档库（必需）
	if err := s.initDocStore(ctx); err != nil {
		return fmt.Errorf("failed to init document store: %w", err)
	}

	// 3. 供应锁：优先 Redis，否则进程内锁
	locker := s.initLocker()

	// 4. 上游客户端与开通流水线
	voices := speech.NewCartesiaClient(speech.CartesiaConfig{
		APIKey:  s.cfg.Cartesia.APIKey,
		BaseURL: s.cfg.Cartesia.BaseURL,
		Version: s.cfg.Cartesia.Version,
		Timeout: s.cfg.Cartesia.Timeout,
	})
	assistants := assistant.NewVapiClient(assistant.Config{
		APIKey:  s.cfg.Vapi.APIKey,
		BaseURL: s.cfg.Vapi.BaseURL,
		Timeout: s.cfg.Vapi.Timeout,
	})
	template := assistantTemplate(s.cfg.Provisioning)

	pipeline := provisioning.NewPipeline(s.docs, voices, assistants,
		provisioning.Config{
			TempDir:  s.cfg.Provisioning.TempDir,
			Enhance:  s.cfg.Provisioning.Enhance,
			Template: template,
		},
		provisioning.WithLocker(locker),
		provisioning.WithMetrics(s.metricsCollector),
		provisioning.WithLogger(s.logger),
	)

	// 5. 语音识别（可选）
	stt, err := newSTTProvider(ctx, s.cfg)
	if err != nil {
		s.logger.Warn("speech-to-text not available, transcription endpoints disabled", zap.Error(err))
	} else {
		s.stt = stt
	}

	// 6. 记忆库（可选）
	ingestor, err := s.initMemory(ctx)
	if err != nil {
		s.logger.Warn("memory store not available, memory endpoints disabled", zap.Error(err))
	}

	// 7. Handlers
	maxUpload := s.cfg.Server.MaxUploadBytes
	s.handlers = routeHandlers{
		health:     s.initHealthHandler(),
		family:     handlers.NewFamilyHandler(s.docs, pipeline, maxUpload, s.logger),
		records:    handlers.NewRecordHandler(s.docs, s.logger),
		voice:      handlers.NewVoiceHandler(voices, assistants, template, nurseConfig(s.cfg.Provisioning), s.metricsCollector, maxUpload, s.logger),
		transcribe: handlers.NewTranscribeHandler(s.stt, s.metricsCollector, maxUpload, s.logger),
		memory:     handlers.NewMemoryHandler(ingestor, s.stt, s.metricsCollector, maxUpload, s.logger),
	}

	// 8. HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 9. Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("redis_lock", s.cache != nil),
		zap.Bool("memory_enabled", ingestor != nil),
		zap.Bool("stt_enabled", s.stt != nil),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

func (s *Server) initDocStore(ctx context.Context) error {
	docs, err := docstore.Connect(ctx, docstore.Config{
		URI:               s.cfg.Mongo.URI,
		Database:          s.cfg.Mongo.Database,
		FamilyCollection:  s.cfg.Mongo.FamilyCollection,
		PatientCollection: s.cfg.Mongo.PatientCollection,
		UserCollection:    s.cfg.Mongo.UserCollection,
		ConnectTimeout:    s.cfg.Mongo.ConnectTimeout,
	}, s.logger)
	if err != nil {
		return err
	}
	s.docs = docs

	if err := docs.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}

// initLocker 在配置了 Redis 时返回分布式锁，连接失败则退回进程内锁
func (s *Server) initLocker() provisioning.Locker {
	if s.cfg.Redis.Addr == "" {
		s.logger.Info("redis not configured, using in-process provisioning lock")
		return provisioning.NewLocalLocker()
	}

	cacheCfg := cache.DefaultConfig()
	cacheCfg.Addr = s.cfg.Redis.Addr
	cacheCfg.Password = s.cfg.Redis.Password
	cacheCfg.DB = s.cfg.Redis.DB
	if s.cfg.Redis.PoolSize > 0 {
		cacheCfg.PoolSize = s.cfg.Redis.PoolSize
	}
	cacheCfg.MinIdleConns = s.cfg.Redis.MinIdleConns

	manager, err := cache.NewManager(cacheCfg, s.logger)
	if err != nil {
		s.logger.Warn("redis not available, using in-process provisioning lock", zap.Error(err))
		return provisioning.NewLocalLocker()
	}
	s.cache = manager
	return cache.NewLocker(manager, "dearvoice:provision:", s.cfg.Provisioning.LockTTL)
}

// initMemory 打开 SQL 连接池并组装摄入器. 未配置驱动时返回 (nil, nil).
// 返回值为接口类型，未启用时保持为 nil 接口.
func (s *Server) initMemory(ctx context.Context) (handlers.MemoryIngestor, error) {
	if s.cfg.Database.Driver == "" {
		s.logger.Info("database driver not configured, memory endpoints disabled")
		return nil, nil
	}

	if s.cfg.Database.AutoMigrate {
		if err := runAutoMigrate(ctx, s.cfg.Database); err != nil {
			return nil, err
		}
	}

	db, err := database.Open(s.cfg.Database, s.logger)
	if err != nil {
		return nil, err
	}

	poolCfg := database.DefaultPoolConfig()
	if s.cfg.Database.MaxOpenConns > 0 {
		poolCfg.MaxOpenConns = s.cfg.Database.MaxOpenConns
	}
	if s.cfg.Database.MaxIdleConns > 0 {
		poolCfg.MaxIdleConns = s.cfg.Database.MaxIdleConns
	}
	if s.cfg.Database.ConnMaxLifetime > 0 {
		poolCfg.ConnMaxLifetime = s.cfg.Database.ConnMaxLifetime
	}

	pool, err := database.NewPoolManager(db, poolCfg, s.metricsCollector, s.logger)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	s.pool = pool

	embedder := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		APIKey:  s.cfg.OpenAI.APIKey,
		BaseURL: s.cfg.OpenAI.BaseURL,
		Model:   s.cfg.Embedding.Model,
		Timeout: s.cfg.OpenAI.Timeout,
	})

	return memory.NewIngestor(
		tokenizer.ForModel(s.cfg.Embedding.TokenizerModel),
		embedder,
		memory.NewGormStore(pool.DB()),
		memory.Config{
			Model:       s.cfg.Embedding.Model,
			ChunkTokens: s.cfg.Embedding.ChunkTokens,
			Concurrency: s.cfg.Embedding.Concurrency,
		},
		s.metricsCollector,
		s.logger,
	), nil
}

// runAutoMigrate 在启动时执行记忆库迁移
func runAutoMigrate(ctx context.Context, dbCfg config.DatabaseConfig) error {
	migrator, err := migration.NewMigratorFromDatabaseConfig(dbCfg)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// initHealthHandler 为每个已建立的连接注册就绪检查
func (s *Server) initHealthHandler() *handlers.HealthHandler {
	h := handlers.NewHealthHandler(s.logger)
	if s.docs != nil {
		h.RegisterCheck(handlers.NewPingCheck("mongo", s.docs.Ping))
	}
	if s.cache != nil {
		h.RegisterCheck(handlers.NewPingCheck("redis", s.cache.Ping))
	}
	if s.pool != nil {
		h.RegisterCheck(handlers.NewPingCheck("database", s.pool.Ping))
	}
	return h
}

// newSTTProvider 按 stt.provider 选择语音识别后端
func newSTTProvider(ctx context.Context, cfg *config.Config) (speech.STTProvider, error) {
	switch cfg.STT.Provider {
	case "openai", "":
		return speech.NewOpenAISTTProvider(speech.OpenAISTTConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.STT.Model,
			Timeout: cfg.STT.Timeout,
		}), nil
	case "deepgram":
		return speech.NewDeepgramProvider(speech.DeepgramConfig{
			APIKey:  cfg.STT.DeepgramAPIKey,
			BaseURL: cfg.STT.DeepgramBaseURL,
			Model:   cfg.STT.Model,
			Timeout: cfg.STT.Timeout,
		}), nil
	case "google":
		p, err := speech.NewGoogleSTTProvider(ctx, speech.GoogleSTTConfig{
			LanguageCode: cfg.STT.GoogleLanguageCode,
			Model:        cfg.STT.Model,
			Timeout:      cfg.STT.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported stt provider %q", cfg.STT.Provider)
	}
}

func assistantTemplate(cfg config.ProvisioningConfig) assistant.Template {
	t := assistant.DefaultTemplate()
	if cfg.ModelProvider != "" {
		t.ModelProvider = cfg.ModelProvider
	}
	if cfg.Model != "" {
		t.Model = cfg.Model
	}
	if cfg.TranscriberProvider != "" {
		t.TranscriberProvider = cfg.TranscriberProvider
	}
	if cfg.TranscriberModel != "" {
		t.TranscriberModel = cfg.TranscriberModel
	}
	if cfg.TranscriberLanguage != "" {
		t.TranscriberLanguage = cfg.TranscriberLanguage
	}
	t.ServerURL = cfg.ServerURL
	return t
}

func nurseConfig(cfg config.ProvisioningConfig) handlers.NurseConfig {
	return handlers.NurseConfig{
		Name:         cfg.NurseName,
		VoiceID:      cfg.NurseVoiceID,
		FirstMessage: cfg.NurseFirstMessage,
	}
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

func (s *Server) startHTTPServer() error {
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	handler := Chain(newRouter(s.handlers),
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		MetricsMiddleware(s.metricsCollector),
	)

	serverConfig := server.Config{
		Name:            "api",
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	return s.httpManager.Start()
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

func (s *Server) startMetricsServer() error {
	if s.cfg.Server.MetricsPort == 0 {
		s.logger.Info("metrics port not configured, metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Name:            "metrics",
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.ReadTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	return s.metricsManager.Start()
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown 依次关闭 HTTP 端口与外部连接
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if closer, ok := s.stt.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error("STT client close error", zap.Error(err))
		}
	}

	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			s.logger.Error("Database pool close error", zap.Error(err))
		}
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("Redis close error", zap.Error(err))
		}
	}

	if s.docs != nil {
		if err := s.docs.Close(ctx); err != nil {
			s.logger.Error("Mongo disconnect error", zap.Error(err))
		}
	}

	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
