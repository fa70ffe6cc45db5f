package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BaSui01/dearvoice/internal/tlsutil"
	"github.com/BaSui01/dearvoice/types"
)

const cartesiaProvider = "cartesia"

// CartesiaClient 调用 Cartesia 的声音克隆与声音创建接口.
type CartesiaClient struct {
	cfg    CartesiaConfig
	client *http.Client
}

// NewCartesiaClient 创建新的 Cartesia 客户端.
func NewCartesiaClient(cfg CartesiaConfig) *CartesiaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cartesia.ai"
	}
	if cfg.Version == "" {
		cfg.Version = "2024-06-10"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &CartesiaClient{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
	}
}

func (c *CartesiaClient) Name() string { return cartesiaProvider }

// CloneVoice 上传音频片段并返回声音嵌入.
// 音频通过管道以 multipart 流式写出，不在内存中整体缓冲.
func (c *CartesiaClient) CloneVoice(ctx context.Context, req *CloneRequest) (*CloneResponse, error) {
	if req == nil || req.Clip == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "audio clip is required").
			WithHTTPStatus(http.StatusBadRequest).
			WithProvider(cartesiaProvider)
	}
	filename := req.Filename
	if filename == "" {
		filename = "clip.wav"
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("clip", filepath.Base(filename))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, req.Clip); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := writer.WriteField("enhance", strconv.FormatBool(req.Enhance)); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/voices/clone/clip"), pr)
	if err != nil {
		pr.Close()
		return nil, types.NewTransportError(cartesiaProvider, "failed to create clone request", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	c.setHeaders(httpReq)

	var out CloneResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, types.NewTransportError(cartesiaProvider, "clone response carried no embedding", nil)
	}
	return &out, nil
}

// CloneVoiceFile 从本地文件克隆声音.
func (c *CartesiaClient) CloneVoiceFile(ctx context.Context, path, filename string, enhance bool) (*CloneResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, types.NewTransportError(cartesiaProvider, "failed to open clip", err)
	}
	defer file.Close()

	if filename == "" {
		filename = filepath.Base(path)
	}
	return c.CloneVoice(ctx, &CloneRequest{Clip: file, Filename: filename, Enhance: enhance})
}

// CreateVoice 基于嵌入创建声音，返回的 ID 不得为空.
func (c *CartesiaClient) CreateVoice(ctx context.Context, req *CreateVoiceRequest) (*Voice, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, types.NewTransportError(cartesiaProvider, "failed to marshal voice request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/voices"), bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewTransportError(cartesiaProvider, "failed to create voice request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq)

	var voice Voice
	if err := c.do(httpReq, &voice); err != nil {
		return nil, err
	}
	if voice.ID == "" {
		return nil, types.NewTransportError(cartesiaProvider, "voice response carried no id", nil)
	}
	return &voice, nil
}

func (c *CartesiaClient) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *CartesiaClient) setHeaders(req *http.Request) {
	req.Header.Set("Cartesia-Version", c.cfg.Version)
	req.Header.Set("X-API-Key", c.cfg.APIKey)
}

func (c *CartesiaClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return types.NewTransportError(cartesiaProvider, fmt.Sprintf("%s %s failed", req.Method, req.URL.Path), err)
	}
	defer resp.Body.Close()

	return decodeUpstream(resp, cartesiaProvider, out)
}

// decodeUpstream 读取响应体；非 2xx 保留上游状态码与响应体，2xx 严格解码.
func decodeUpstream(resp *http.Response, provider string, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.NewTransportError(provider, "failed to read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.NewUpstreamError(provider, resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return types.NewTransportError(provider, "failed to decode response", err)
	}
	return nil
}
