package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"LotterySync/internal/config"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "LotterySync/1.0 (+https://loteriascaixa-api.herokuapp.com)"
)

// NewHTTPClient 开奖接口使用的客户端：单一上游，复用连接，可选代理，gzip 响应自动解压
func NewHTTPClient(cfg *config.APIConfig, logger *logrus.Logger) *http.Client {
	base := &http.Transport{
		Proxy:               proxyFromConfig(cfg.Proxy, logger),
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: WrapTransport(base, logger),
	}
}

// WrapTransport 在 rt 外加一层：补默认请求头并解压 gzip 响应
func WrapTransport(rt http.RoundTripper, logger *logrus.Logger) http.RoundTripper {
	return &gzipTransport{next: rt, logger: logger}
}

// proxyFromConfig 未配置时沿用环境变量 HTTP(S)_PROXY；地址无效时直连
func proxyFromConfig(raw string, logger *logrus.Logger) func(*http.Request) (*url.URL, error) {
	if raw == "" {
		return http.ProxyFromEnvironment
	}
	proxyURL, err := url.Parse(raw)
	if err != nil || proxyURL.Host == "" {
		logger.WithField("proxy", raw).Warn("代理地址无效，开奖接口改为直连")
		return nil
	}
	logger.WithField("proxy", proxyURL.Redacted()).Info("开奖接口经代理访问")
	return http.ProxyURL(proxyURL)
}

type gzipTransport struct {
	next   http.RoundTripper
	logger *logrus.Logger
}

func (t *gzipTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTripper 不应修改调用方的请求
	req = req.Clone(req.Context())
	req.Header.Set("Accept-Encoding", "gzip")
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return resp, nil
	}

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.logger.WithError(err).WithField("url", req.URL.String()).Warn("响应声明 gzip 但无法解压，按原样返回")
		return resp, nil
	}
	resp.Body = &gzipBody{zr: zr, body: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

// gzipBody Close 时两层都要关闭
type gzipBody struct {
	zr   *gzip.Reader
	body io.ReadCloser
}

func (b *gzipBody) Read(p []byte) (int, error) {
	return b.zr.Read(p)
}

func (b *gzipBody) Close() error {
	zerr := b.zr.Close()
	if err := b.body.Close(); err != nil {
		return err
	}
	return zerr
}
