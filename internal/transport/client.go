// Package transport 封装所有上游 HTTP 访问。
// 统一处理浏览器头、Referer、单主机并发与间隔、重试退避、封禁识别和指标。
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/util/backoff"
)

// UserAgent 上游请求使用的浏览器 UA
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// maxBodyBytes 响应体上限
const maxBodyBytes = 64 << 20

// Options 客户端配置
type Options struct {
	// Timeout 单次请求总超时
	Timeout time.Duration
	// ConnectTimeout 建连超时
	ConnectTimeout time.Duration
	// PerHostConcurrency 单主机并发上限
	PerHostConcurrency int
	// MinGap 同一主机相邻请求的最小间隔
	MinGap time.Duration
	// MaxRetries 超时、429 或 5xx 的最大重试次数
	MaxRetries int
	// NewBackoff 重试退避工厂，为空时使用 backoff.NewDefault
	NewBackoff func() *backoff.Backoff
}

// DefaultOptions 默认配置：连接 10s，总超时 30s，单主机 2 并发
func DefaultOptions() Options {
	return Options{
		Timeout:            30 * time.Second,
		ConnectTimeout:     10 * time.Second,
		PerHostConcurrency: 2,
		MaxRetries:         2,
	}
}

// Client 上游 HTTP 客户端
// 可被多个请求并发使用
type Client struct {
	http   *http.Client
	opts   Options
	logger *zap.Logger

	// gates 共享的单主机闸门，WithCookieJar 派生的客户端共用
	gates *gateSet
}

// New 创建上游客户端
func New(opts Options, logger *zap.Logger) *Client {
	if opts.PerHostConcurrency <= 0 {
		opts.PerHostConcurrency = 1
	}
	if opts.NewBackoff == nil {
		opts.NewBackoff = backoff.NewDefault
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		MaxIdleConnsPerHost:   opts.PerHostConcurrency,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
	}

	return &Client{
		http:   &http.Client{Transport: tr, Timeout: opts.Timeout},
		opts:   opts,
		logger: logger.Named("transport"),
		gates:  &gateSet{gates: make(map[string]*gate)},
	}
}

// WithCookieJar 派生一个携带独立 Cookie 会话的客户端
// 用于需要先访问页面获取 Cookie 的上游（如大商所）
func (c *Client) WithCookieJar() *Client {
	jar, _ := cookiejar.New(nil)
	hc := *c.http
	hc.Jar = jar
	return &Client{http: &hc, opts: c.opts, logger: c.logger, gates: c.gates}
}

// Request 上游请求
type Request struct {
	// Source 来源标识，用于日志、指标和错误消息
	Source string
	// Method 请求方法，默认 GET
	Method string
	// URL 请求地址
	URL string
	// Query 追加的查询参数
	Query url.Values
	// Header 额外请求头
	Header http.Header
	// Referer 请求来源页
	Referer string
	// Form 表单请求体（与 JSON 互斥）
	Form url.Values
	// JSON JSON 请求体
	JSON any
	// GBK 响应体按 GBK 解码为 UTF-8（UTF-8 内容原样保留）
	GBK bool
	// BanMarkers 响应体包含任一文本即视为封禁（在解码之后检查）
	BanMarkers []string
}

// Response 上游响应
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Get 发起 GET 请求并返回响应体
func (c *Client) Get(ctx context.Context, source, rawURL, referer string) ([]byte, error) {
	resp, err := c.Do(ctx, &Request{Source: source, URL: rawURL, Referer: referer})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Do 执行请求
// 非 2xx 返回 apperr.Status；超时返回 UpstreamTimeout；封禁文本返回 UpstreamBlocked
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	start := time.Now()
	defer func() {
		UpstreamLatency.WithLabelValues(r.Source).Observe(time.Since(start).Seconds())
	}()

	target, err := r.target()
	if err != nil {
		UpstreamRequests.WithLabelValues(r.Source, outcomeError).Inc()
		return nil, apperr.Internal(err, "构造 %s 请求失败", r.Source)
	}

	bo := c.opts.NewBackoff()
	for attempt := 0; ; attempt++ {
		resp, err := c.once(ctx, r, target)
		if err == nil {
			UpstreamRequests.WithLabelValues(r.Source, outcomeOK).Inc()
			return resp, nil
		}

		wait, retry := c.retryDelay(err, bo)
		if !retry || attempt >= c.opts.MaxRetries || ctx.Err() != nil {
			UpstreamRequests.WithLabelValues(r.Source, outcomeOf(err)).Inc()
			return nil, err
		}

		UpstreamRetries.WithLabelValues(r.Source).Inc()
		c.logger.Debug("上游请求重试",
			zap.String("source", r.Source),
			zap.String("url", target.String()),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))
		if werr := backoff.Wait(ctx, wait); werr != nil {
			UpstreamRequests.WithLabelValues(r.Source, outcomeTimeout).Inc()
			return nil, apperr.Transport(r.Source, werr)
		}
	}
}

// retryDelay 判断错误是否可重试并给出等待时间
// 429 使用惩罚间隔；封禁与 4xx 不重试
func (c *Client) retryDelay(err error, bo *backoff.Backoff) (time.Duration, bool) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return 0, false
	}
	switch e.Kind {
	case apperr.KindUpstreamTimeout:
		return bo.Next(), true
	case apperr.KindUpstreamStatus:
		if e.StatusCode == http.StatusTooManyRequests {
			return bo.Penalty(), true
		}
		if e.StatusCode >= 500 {
			return bo.Next(), true
		}
	}
	return 0, false
}

// once 执行一次请求
func (c *Client) once(ctx context.Context, r *Request, target *url.URL) (*Response, error) {
	release, err := c.gates.acquire(ctx, target.Host, c.opts.PerHostConcurrency, c.opts.MinGap)
	if err != nil {
		return nil, apperr.Transport(r.Source, err)
	}
	defer release()

	req, err := r.build(ctx, target)
	if err != nil {
		return nil, apperr.Internal(err, "构造 %s 请求失败", r.Source)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Transport(r.Source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.Transport(r.Source, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("上游返回异常状态码",
			zap.String("source", r.Source),
			zap.String("url", target.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("excerpt", apperr.Truncate(body)))
		return nil, apperr.Status(r.Source, resp.StatusCode)
	}

	if r.GBK {
		body = []byte(codec.DecodeUTF8OrGBK(body))
	}

	for _, marker := range r.BanMarkers {
		if bytes.Contains(body, []byte(marker)) {
			c.logger.Warn("上游返回封禁提示",
				zap.String("source", r.Source),
				zap.String("marker", marker))
			return nil, apperr.Blocked("%s 拒绝访问，IP 可能已被封禁，请稍后重试", r.Source)
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// target 解析目标地址并合并查询参数
func (r *Request) target() (*url.URL, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, err
	}
	if len(r.Query) > 0 {
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// build 构造 http.Request，每次重试重新构造以重置请求体
func (r *Request) build(ctx context.Context, target *url.URL) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.JSON != nil:
		b, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, fmt.Errorf("序列化请求体失败: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json;charset=UTF-8"
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded; charset=UTF-8"
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.Referer != "" {
		req.Header.Set("Referer", r.Referer)
	}
	for k, vs := range r.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func outcomeOf(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindUpstreamBlocked:
		return outcomeBlocked
	case apperr.KindUpstreamTimeout:
		return outcomeTimeout
	case apperr.KindUpstreamStatus:
		return outcomeStatus
	default:
		return outcomeError
	}
}

// gateSet 单主机并发闸门集合
type gateSet struct {
	mu    sync.Mutex
	gates map[string]*gate
}

// gate 单主机闸门：信号量限制并发，last 记录上次放行时间
type gate struct {
	sem *semaphore.Weighted

	mu   sync.Mutex
	last time.Time
}

// acquire 获取主机闸门
// 返回: 释放函数
func (g *gateSet) acquire(ctx context.Context, host string, limit int, minGap time.Duration) (func(), error) {
	g.mu.Lock()
	gt, ok := g.gates[host]
	if !ok {
		gt = &gate{sem: semaphore.NewWeighted(int64(limit))}
		g.gates[host] = gt
	}
	g.mu.Unlock()

	if err := gt.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	if minGap > 0 {
		gt.mu.Lock()
		wait := time.Until(gt.last.Add(minGap))
		if wait < 0 {
			wait = 0
		}
		gt.last = time.Now().Add(wait)
		gt.mu.Unlock()
		if err := backoff.Wait(ctx, wait); err != nil {
			gt.sem.Release(1)
			return nil, err
		}
	}

	UpstreamInflight.WithLabelValues(host).Inc()
	return func() {
		UpstreamInflight.WithLabelValues(host).Dec()
		gt.sem.Release(1)
	}, nil
}
