package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BaSui01/dearvoice/internal/tlsutil"
	"github.com/BaSui01/dearvoice/types"
)

const vapiProvider = "vapi"

// Config 配置 Vapi 客户端.
type Config struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultConfig 返回默认 Vapi 配置.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.vapi.ai",
		Timeout: 30 * time.Second,
	}
}

// VapiClient 调用 Vapi 的助手与通话接口.
type VapiClient struct {
	cfg    Config
	client *http.Client
}

// NewVapiClient 创建新的 Vapi 客户端.
func NewVapiClient(cfg Config) *VapiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.vapi.ai"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &VapiClient{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
	}
}

func (c *VapiClient) Name() string { return vapiProvider }

// CreateAssistant 创建助手，返回的 ID 不得为空.
func (c *VapiClient) CreateAssistant(ctx context.Context, req *AssistantRequest) (*Assistant, error) {
	body, err := c.do(ctx, http.MethodPost, "/assistant", req)
	if err != nil {
		return nil, err
	}
	return decodeAssistant(body)
}

// GetAssistant 读取助手.
func (c *VapiClient) GetAssistant(ctx context.Context, assistantID string) (*Assistant, error) {
	body, err := c.do(ctx, http.MethodGet, "/assistant/"+url.PathEscape(assistantID), nil)
	if err != nil {
		return nil, err
	}
	return decodeAssistant(body)
}

// InitiateConversation 向助手发起对话，原样返回上游响应体.
func (c *VapiClient) InitiateConversation(ctx context.Context, req *ConversationRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/assistant/"+url.PathEscape(req.AssistantID)+"/conversation", req)
}

// EndConversation 结束助手当前对话，原样返回上游响应体.
func (c *VapiClient) EndConversation(ctx context.Context, assistantID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/assistant/"+url.PathEscape(assistantID)+"/conversation/end", nil)
}

func (c *VapiClient) do(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, types.NewTransportError(vapiProvider, "failed to marshal request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, reqBody)
	if err != nil {
		return nil, types.NewTransportError(vapiProvider, "failed to create request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, types.NewTransportError(vapiProvider, fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewTransportError(vapiProvider, "failed to read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, types.NewUpstreamError(vapiProvider, resp.StatusCode, string(body))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(body) {
		return nil, types.NewTransportError(vapiProvider, "response is not valid JSON", nil)
	}
	return json.RawMessage(body), nil
}

func decodeAssistant(body json.RawMessage) (*Assistant, error) {
	var a Assistant
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, types.NewTransportError(vapiProvider, "failed to decode assistant", err)
	}
	if a.ID == "" {
		return nil, types.NewTransportError(vapiProvider, "assistant response carried no id", nil)
	}
	a.Raw = body
	return &a, nil
}
