// Package backoff 实现上游请求重试的指数退避。
// 行情站点与交易所对高频请求很敏感，重试前按指数增长等待并加入抖动，
// 遇到限流（429）或封禁前兆时使用更长的惩罚间隔。
package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Backoff 指数退避计算器
// 每次调用 Next() 返回下一次重试的等待时间，非并发安全，每个请求独立持有
type Backoff struct {
	// base 基础等待时间
	base time.Duration
	// max 最大等待时间
	max time.Duration
	// jitter 抖动比例（0-1），例如 0.2 表示 ±20%
	jitter float64
	// attempt 当前重试次数
	attempt int
}

// New 创建新的退避计算器
// 参数 base: 基础等待时间
// 参数 max: 最大等待时间
// 参数 jitter: 抖动比例
func New(base, max time.Duration, jitter float64) *Backoff {
	return &Backoff{
		base:   base,
		max:    max,
		jitter: jitter,
	}
}

// NewDefault 创建上游重试使用的默认退避
// 基础间隔 500ms，最大间隔 8s，抖动 ±20%
func NewDefault() *Backoff {
	return New(500*time.Millisecond, 8*time.Second, 0.2)
}

// Next 获取下次重试的等待时间
// 计算公式: base * 2^attempt，再应用抖动，结果不超过 max*(1+jitter)
func (b *Backoff) Next() time.Duration {
	multiplier := int64(1) << b.attempt
	delay := b.base * time.Duration(multiplier)
	if delay > b.max || delay <= 0 {
		delay = b.max
	}

	if b.jitter > 0 {
		jitterFactor := 1.0 + (rand.Float64()*2-1)*b.jitter
		delay = time.Duration(float64(delay) * jitterFactor)
	}

	// attempt 上限避免位移溢出
	if b.attempt < 30 {
		b.attempt++
	}
	return delay
}

// Penalty 限流惩罚等待时间
// 直接跳到最大间隔，用于 429 等明确的限流响应
func (b *Backoff) Penalty() time.Duration {
	b.attempt = 30
	return b.max
}

// Wait 按 d 等待，ctx 取消时提前返回
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
