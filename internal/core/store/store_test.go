// Package store 品种映射缓存测试
package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"market-data-gateway/internal/core/model"
)

func sampleMarks() []model.SymbolMark {
	return []model.SymbolMark{
		{Exchange: "上海期货交易所", Symbol: "沪铜", Mark: "tong_qh"},
		{Exchange: "上海期货交易所", Symbol: "螺纹钢", Mark: "luowengang_qh"},
		{Exchange: "大连商品交易所", Symbol: "豆一", Mark: "dou1_qh"},
	}
}

func TestStore_LoadsOnceUnderConcurrency(t *testing.T) {
	var calls int32
	s := New(func(ctx context.Context) ([]model.SymbolMark, error) {
		atomic.AddInt32(&calls, 1)
		return sampleMarks(), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.All(context.Background()); err != nil {
				t.Errorf("加载失败: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Fatalf("应只加载一次，实际 %d 次", calls)
	}
}

func TestStore_ErrorNotCached(t *testing.T) {
	var calls int32
	s := New(func(ctx context.Context) ([]model.SymbolMark, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("boom")
		}
		return sampleMarks(), nil
	})

	if _, err := s.All(context.Background()); err == nil {
		t.Fatalf("首次加载应失败")
	}
	if s.Loaded() {
		t.Fatalf("失败后不应标记为已加载")
	}
	marks, err := s.All(context.Background())
	if err != nil || len(marks) != 3 {
		t.Fatalf("重试应成功: %v %d", err, len(marks))
	}
}

func TestStore_ByExchangeAndLookup(t *testing.T) {
	s := New(func(ctx context.Context) ([]model.SymbolMark, error) { return sampleMarks(), nil })
	ctx := context.Background()

	shfe, err := s.ByExchange(ctx, "上海期货交易所")
	if err != nil || len(shfe) != 2 {
		t.Fatalf("按交易所过滤错误: %v %d", err, len(shfe))
	}

	m, ok, _ := s.Lookup(ctx, "豆一")
	if !ok || m.Mark != "dou1_qh" {
		t.Fatalf("精确匹配失败: %+v", m)
	}
	m, ok, _ = s.Lookup(ctx, "螺纹")
	if !ok || m.Mark != "luowengang_qh" {
		t.Fatalf("包含匹配失败: %+v", m)
	}
	if _, ok, _ = s.Lookup(ctx, "不存在"); ok {
		t.Fatalf("不应匹配")
	}
}

// TestStore_WaiterLoadsWithOwnContext 首个加载者取消后，等待者用自己的 ctx 重新加载
func TestStore_WaiterLoadsWithOwnContext(t *testing.T) {
	started := make(chan struct{})
	var calls int32
	s := New(func(ctx context.Context) ([]model.SymbolMark, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return sampleMarks(), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.All(ctx)
		firstErr <- err
	}()
	<-started

	waiter := make(chan error, 1)
	go func() {
		marks, err := s.All(context.Background())
		if err == nil && len(marks) != 3 {
			err = errors.New("等待者拿到的映射不完整")
		}
		waiter <- err
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("首个调用者应收到取消错误，实际 %v", err)
	}
	if err := <-waiter; err != nil {
		t.Fatalf("等待者不应继承取消错误: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("期望加载 2 次，实际 %d", got)
	}
}
