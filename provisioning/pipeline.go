package provisioning

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/dearvoice/internal/ctxkeys"
	"github.com/BaSui01/dearvoice/internal/metrics"
	"github.com/BaSui01/dearvoice/internal/telemetry"
	"github.com/BaSui01/dearvoice/llm/assistant"
	"github.com/BaSui01/dearvoice/llm/speech"
	"github.com/BaSui01/dearvoice/types"
)

// =============================================================================
// 🎙️ 声音开通流程
// =============================================================================

// Pipeline 把家庭成员的音频样本变成可通话的助手:
// 获取 → 校验 → 克隆 → 创建声音 → 创建助手 → 持久化.
// 每一步只尝试一次，失败立即返回，上游已创建的资源不回滚.
type Pipeline struct {
	store      FamilyStore
	voices     VoiceService
	assistants AssistantService
	locker     Locker
	config     Config
	metrics    *metrics.Collector
	tracer     trace.Tracer
	logger     *zap.Logger
}

// Option 配置 Pipeline.
type Option func(*Pipeline)

// WithLocker 替换默认的进程内锁.
func WithLocker(l Locker) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.locker = l
		}
	}
}

// WithMetrics 设置指标收集器.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) {
		p.metrics = c
	}
}

// WithLogger 设置日志.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline 创建开通流程.
func NewPipeline(store FamilyStore, voices VoiceService, assistants AssistantService, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:      store,
		voices:     voices,
		assistants: assistants,
		locker:     NewLocalLocker(),
		config:     cfg,
		tracer:     telemetry.Tracer("provisioning"),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("component", "provisioning"))
	return p
}

// ProvisionVoice 为家庭成员开通声音与助手，返回助手 ID.
func (p *Pipeline) ProvisionVoice(ctx context.Context, familyMemberID string) (string, error) {
	res, err := p.Provision(ctx, familyMemberID)
	if err != nil {
		return "", err
	}
	return res.AssistantID, nil
}

// Provision 与 ProvisionVoice 相同，但返回完整结果.
// 所有错误都是 *types.Error.
func (p *Pipeline) Provision(ctx context.Context, familyMemberID string) (res *Result, err error) {
	ctx, span := p.tracer.Start(ctx, "provision.voice",
		trace.WithAttributes(attribute.String("family_member.id", familyMemberID)))
	defer span.End()

	log := p.logger.With(zap.String("family_member_id", familyMemberID))
	if reqID, ok := ctxkeys.RequestID(ctx); ok {
		log = log.With(zap.String("request_id", reqID))
		span.SetAttributes(attribute.String("request.id", reqID))
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("provisioning panicked", zap.Any("panic", r), zap.Stack("stack"))
			res, err = nil, types.NewError(types.ErrUnexpected, "unexpected error during provisioning").
				WithCause(fmt.Errorf("panic: %v", r)).
				WithHTTPStatus(http.StatusInternalServerError)
		}

		outcome := "success"
		switch {
		case err != nil:
			outcome = string(outcomeCode(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case res != nil && res.Existing:
			outcome = "already_provisioned"
		}
		p.metrics.RecordProvisioning(outcome)
	}()

	release, ok, lockErr := p.locker.TryLock(ctx, familyMemberID)
	if lockErr != nil {
		log.Error("failed to acquire provisioning lock", zap.Error(lockErr))
		return nil, types.NewError(types.ErrUnexpected, "failed to acquire provisioning lock").
			WithCause(lockErr).
			WithHTTPStatus(http.StatusInternalServerError)
	}
	if !ok {
		p.metrics.RecordProvisioningLockBusy()
		log.Warn("provisioning already in progress")
		return nil, types.NewError(types.ErrProvisioningInProgress,
			fmt.Sprintf("family member %s is already being provisioned", familyMemberID)).
			WithHTTPStatus(http.StatusConflict).
			WithRetryable(true)
	}
	defer release()

	return p.run(ctx, familyMemberID, log)
}

func (p *Pipeline) run(ctx context.Context, id string, log *zap.Logger) (*Result, error) {
	// 1. 获取
	var member *types.FamilyMember
	err := p.step(ctx, StepFetch, func(ctx context.Context) error {
		m, err := p.store.GetFamilyMember(ctx, id)
		if err != nil {
			if types.IsErrorCode(err, types.ErrNotFound) {
				return types.NewError(types.ErrNotFound, fmt.Sprintf("family member %s not found", id)).
					WithCause(err).
					WithHTTPStatus(http.StatusNotFound)
			}
			return types.NewError(types.ErrUnexpected, "failed to load family member").
				WithCause(err).
				WithHTTPStatus(http.StatusInternalServerError)
		}
		member = m
		return nil
	})
	if err != nil {
		log.Warn("fetch failed", zap.Error(err))
		return nil, err
	}

	if member.IsProvisioned() {
		log.Info("family member already provisioned", zap.String("assistant_id", *member.AssistantID))
		return &Result{
			FamilyMemberID: id,
			VoiceID:        *member.VoiceID,
			AssistantID:    *member.AssistantID,
			Existing:       true,
		}, nil
	}

	// 2. 校验
	err = p.step(ctx, StepValidate, func(context.Context) error {
		if !member.HasAudio() {
			return types.NewError(types.ErrMissingAudio, fmt.Sprintf("family member %s has no audio", id)).
				WithHTTPStatus(http.StatusBadRequest)
		}
		return nil
	})
	if err != nil {
		log.Warn("validation failed", zap.Error(err))
		return nil, err
	}

	// 3. 克隆
	var embedding []float64
	err = p.step(ctx, StepClone, func(ctx context.Context) error {
		start := time.Now()
		out, err := p.cloneFromTempFile(ctx, member)
		p.metrics.RecordUpstreamRequest("cartesia", "clone", upstreamStatus(err), time.Since(start))
		if err != nil {
			return stepError(types.ErrCloneFailed, "voice clone failed", err)
		}
		embedding = out.Embedding
		return nil
	})
	if err != nil {
		log.Error("clone failed", zap.Error(err))
		return nil, err
	}

	// 4. 创建声音
	var voiceID string
	err = p.step(ctx, StepCreateVoice, func(ctx context.Context) error {
		start := time.Now()
		voice, err := p.voices.CreateVoice(ctx, &speech.CreateVoiceRequest{
			Name:        member.Name,
			Description: member.Memories,
			Embedding:   embedding,
			Language:    languageOrDefault(member.Language),
		})
		p.metrics.RecordUpstreamRequest("cartesia", "create_voice", upstreamStatus(err), time.Since(start))
		if err != nil {
			return stepError(types.ErrVoiceCreationFailed, "voice creation failed", err)
		}
		voiceID = voice.ID
		return nil
	})
	if err != nil {
		log.Error("voice creation failed", zap.Error(err))
		return nil, err
	}
	log = log.With(zap.String("voice_id", voiceID))

	// 5. 创建助手
	var assistantID string
	err = p.step(ctx, StepCreateAssistant, func(ctx context.Context) error {
		req := p.config.Template.Build(
			member.Name,
			assistant.FamilyMemberGreeting(member.Name),
			assistant.FamilyMemberPrompt(member.Name, member.Relation, member.Memories),
			assistant.VoiceConfig{Provider: voiceProvider, VoiceID: voiceID},
		)
		start := time.Now()
		created, err := p.assistants.CreateAssistant(ctx, req)
		p.metrics.RecordUpstreamRequest("vapi", "create_assistant", upstreamStatus(err), time.Since(start))
		if err != nil {
			return stepError(types.ErrAssistantCreationFailed, "assistant creation failed", err)
		}
		assistantID = created.ID
		return nil
	})
	if err != nil {
		// 此时上游已有一个无主的声音
		log.Error("assistant creation failed, voice left upstream", zap.Error(err))
		return nil, err
	}
	log = log.With(zap.String("assistant_id", assistantID))

	// 6. 持久化
	err = p.step(ctx, StepPersist, func(ctx context.Context) error {
		if err := p.store.SetProvisioned(ctx, id, voiceID, assistantID); err != nil {
			orphans, _ := json.Marshal(map[string]string{"voice_id": voiceID, "assistant_id": assistantID})
			return types.NewError(types.ErrPersistFailed, "failed to persist provisioning result").
				WithCause(err).
				WithHTTPStatus(http.StatusInternalServerError).
				WithDetails(string(orphans))
		}
		return nil
	})
	if err != nil {
		log.Error("persist failed, voice and assistant left upstream for reconciliation", zap.Error(err))
		return nil, err
	}

	log.Info("family member provisioned")
	return &Result{FamilyMemberID: id, VoiceID: voiceID, AssistantID: assistantID}, nil
}

// cloneFromTempFile 把音频写入临时文件后上传，返回前删除该文件.
func (p *Pipeline) cloneFromTempFile(ctx context.Context, member *types.FamilyMember) (*speech.CloneResponse, error) {
	ext := strings.ToLower(filepath.Ext(member.AudioFilename))
	if ext == "" {
		ext = ".wav"
	}

	f, err := os.CreateTemp(p.config.TempDir, "dearvoice-clip-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp clip: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			p.logger.Warn("failed to remove temp clip", zap.String("path", path), zap.Error(rmErr))
		}
	}()

	if _, err := f.Write(member.Audio); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp clip: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp clip: %w", err)
	}

	filename := member.AudioFilename
	if filename == "" {
		filename = filepath.Base(path)
	}
	return p.voices.CloneVoiceFile(ctx, path, filename, p.config.Enhance)
}

// step 包裹一个步骤的追踪与耗时指标.
func (p *Pipeline) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "provision."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.RecordProvisioningStep(name, err == nil, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// stepError 用步骤错误码包装上游失败，保留上游状态码与响应体.
func stepError(code types.ErrorCode, message string, err error) *types.Error {
	status := types.UpstreamStatus(err)
	if status == 0 {
		status = http.StatusInternalServerError
	}
	e := types.NewError(code, message).
		WithCause(err).
		WithHTTPStatus(status).
		WithDetails(types.UpstreamDetails(err))
	if upstream, ok := types.AsError(err); ok {
		e = e.WithProvider(upstream.Provider).WithRetryable(upstream.Retryable)
	}
	return e
}

func upstreamStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return types.UpstreamStatus(err)
}

func outcomeCode(err error) types.ErrorCode {
	if code := types.GetErrorCode(err); code != "" {
		return code
	}
	return types.ErrUnexpected
}

func languageOrDefault(lang string) string {
	if lang == "" {
		return types.DefaultLanguage
	}
	return lang
}
