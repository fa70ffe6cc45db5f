package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/dearvoice/internal/metrics"
	"github.com/BaSui01/dearvoice/llm/embedding"
	"github.com/BaSui01/dearvoice/llm/tokenizer"
	"github.com/BaSui01/dearvoice/types"
)

// Embedder 为单段文本生成向量. embedding.Provider 满足该接口.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// Config 控制分块与并发.
type Config struct {
	// 记录在分块上的嵌入模型名
	Model string
	// 每块 token 数
	ChunkTokens int
	// 同时进行的嵌入请求数
	Concurrency int
}

// DefaultConfig 返回默认配置.
func DefaultConfig() Config {
	return Config{
		Model:       embedding.DefaultModel,
		ChunkTokens: 1000,
		Concurrency: 4,
	}
}

// Result 是一次写入的汇总.
type Result struct {
	PatientID string `json:"patient_id"`
	Chunks    int    `json:"chunks"`
	Tokens    int    `json:"tokens"`
}

// Ingestor 把文本切块、嵌入并写入 ChunkStore.
type Ingestor struct {
	tokenizer tokenizer.Tokenizer
	embedder  Embedder
	store     ChunkStore
	config    Config
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// NewIngestor 创建 Ingestor. collector 可为 nil.
func NewIngestor(tok tokenizer.Tokenizer, embedder Embedder, store ChunkStore, cfg Config, collector *metrics.Collector, logger *zap.Logger) *Ingestor {
	defaults := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.ChunkTokens <= 0 {
		cfg.ChunkTokens = defaults.ChunkTokens
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		tokenizer: tok,
		embedder:  embedder,
		store:     store,
		config:    cfg,
		metrics:   collector,
		logger:    logger.With(zap.String("component", "memory")),
	}
}

// Ingest 切分并嵌入 text，按原始顺序写入. 所有错误都是 *types.Error.
func (i *Ingestor) Ingest(ctx context.Context, patientID, text string) (*Result, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "patient id is required").WithHTTPStatus(400)
	}
	if strings.TrimSpace(text) == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "text is required").WithHTTPStatus(400)
	}

	pieces, total, err := tokenizer.Split(i.tokenizer, text, i.config.ChunkTokens)
	if err != nil {
		return nil, types.NewError(types.ErrTokenizerError, "failed to tokenize text").
			WithHTTPStatus(500).WithCause(err)
	}

	vectors := make([][]float64, len(pieces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.config.Concurrency)
	for _, piece := range pieces {
		g.Go(func() error {
			start := time.Now()
			v, err := i.embedder.EmbedQuery(gctx, piece.Text)
			i.metrics.RecordUpstreamRequest("openai", "embed", embedStatus(err), time.Since(start))
			if err != nil {
				return embedError(piece.Index, err)
			}
			vectors[piece.Index] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		i.logger.Warn("embedding failed",
			zap.String("patient_id", patientID),
			zap.Int("chunks", len(pieces)),
			zap.Error(err))
		return nil, err
	}

	chunks := make([]Chunk, len(pieces))
	for _, piece := range pieces {
		chunks[piece.Index] = Chunk{
			PatientID:  patientID,
			ChunkIndex: piece.Index,
			Text:       piece.Text,
			Embedding:  EncodeVector(vectors[piece.Index]),
			TokenCount: len(piece.Tokens),
			Model:      i.config.Model,
		}
	}

	if err := i.store.SaveChunks(ctx, chunks); err != nil {
		i.logger.Error("failed to store memory chunks", zap.String("patient_id", patientID), zap.Error(err))
		return nil, types.NewError(types.ErrInternalError, "failed to store memory chunks").
			WithHTTPStatus(500).WithCause(err)
	}

	i.metrics.RecordMemoryIngest(i.config.Model, len(chunks), total)
	i.logger.Info("memory ingested",
		zap.String("patient_id", patientID),
		zap.Int("chunks", len(chunks)),
		zap.Int("tokens", total))

	return &Result{PatientID: patientID, Chunks: len(chunks), Tokens: total}, nil
}

// List 返回患者的全部分块.
func (i *Ingestor) List(ctx context.Context, patientID string) ([]Chunk, error) {
	chunks, err := i.store.ListChunks(ctx, patientID)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to list memory chunks").
			WithHTTPStatus(500).WithCause(err)
	}
	return chunks, nil
}

func embedError(index int, err error) *types.Error {
	status := types.UpstreamStatus(err)
	if status == 0 {
		status = 500
	}
	out := types.NewError(types.ErrEmbeddingFailed, fmt.Sprintf("failed to embed chunk %d", index)).
		WithHTTPStatus(status).
		WithDetails(types.UpstreamDetails(err)).
		WithCause(err)
	if te, ok := types.AsError(err); ok {
		out = out.WithRetryable(te.Retryable).WithProvider(te.Provider)
	}
	return out
}

func embedStatus(err error) int {
	if err == nil {
		return 200
	}
	return types.UpstreamStatus(err)
}
