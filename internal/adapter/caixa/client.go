package caixa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"LotterySync/internal/adapter"
	"LotterySync/internal/config"
	"LotterySync/internal/interfaces"
	"LotterySync/internal/model"
	"LotterySync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// ProviderName 配置中 lottery.api.provider 的取值
const ProviderName = "caixa"

// maxBodySize 单期开奖 JSON 远小于此值
const maxBodySize = 4 << 20

func init() {
	adapter.Register(ProviderName, NewCaixaClient)
}

// Client loteriascaixa-api 客户端：GET {base}/{game}/latest 与 GET {base}/{game}/{n}
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	attempts   int
	retryDelay time.Duration
}

func NewCaixaClient(cfg *config.APIConfig, logger *logrus.Logger) interfaces.LotteryClient {
	return NewClient(cfg, httpclient.NewHTTPClient(cfg, logger), logger)
}

// NewClient 使用外部传入的 http.Client 创建客户端
func NewClient(cfg *config.APIConfig, httpClient *http.Client, logger *logrus.Logger) *Client {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		attempts:   attempts,
		retryDelay: time.Duration(cfg.RetryDelay) * time.Millisecond,
	}
}

func (c *Client) GetName() string {
	return "Loterias Caixa"
}

func (c *Client) FetchLatest(ctx context.Context, game string) (*model.RawDraw, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/%s/latest", c.baseURL, url.PathEscape(game)))
}

func (c *Client) FetchByNumber(ctx context.Context, game string, drawNumber int) (*model.RawDraw, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/%s/%d", c.baseURL, url.PathEscape(game), drawNumber))
}

func (c *Client) fetch(ctx context.Context, u string) (*model.RawDraw, error) {
	body, err := c.getWithRetry(ctx, u)
	if err != nil {
		return nil, err
	}
	return DecodeDraw(body)
}

// getWithRetry 网络错误与 5xx 重试，4xx 直接返回
func (c *Client) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	attempt := 0
	for attempt < c.attempts {
		attempt++
		body, retryable, err := c.getOnce(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable || attempt >= c.attempts {
			break
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url":     u,
			"attempt": attempt,
		}).Warn("请求开奖接口失败，准备重试")

		timer := time.NewTimer(c.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &model.TransportError{URL: u, Attempts: attempt, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	var transportErr *model.TransportError
	if errors.As(lastErr, &transportErr) {
		transportErr.Attempts = attempt
	}
	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, u string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, &model.TransportError{URL: u, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Errorf("关闭开奖接口响应体失败: %v", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, true, &model.TransportError{URL: u, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode >= 500, &model.UpstreamStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	return raw, false, nil
}

// DecodeDraw 解析响应体，loteria 与 concurso 为必填
func DecodeDraw(body []byte) (*model.RawDraw, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &model.MalformedPayloadError{Reason: "empty body"}
	}
	var raw model.RawDraw
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &model.MalformedPayloadError{Reason: "invalid json: " + err.Error()}
	}
	if strings.TrimSpace(raw.Loteria) == "" {
		return nil, &model.MalformedPayloadError{Reason: "missing field loteria"}
	}
	if raw.Concurso == nil {
		return nil, &model.MalformedPayloadError{Reason: "missing field concurso"}
	}
	if *raw.Concurso <= 0 {
		return nil, &model.MalformedPayloadError{Reason: fmt.Sprintf("invalid concurso %d", *raw.Concurso)}
	}
	return &raw, nil
}
