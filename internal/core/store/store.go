// Package store 维护进程内唯一的可变状态：新浪品种映射缓存。
// 首次使用时加载，成功后在进程生命周期内不再失效。
package store

import (
	"context"
	"strings"
	"sync"

	"market-data-gateway/internal/core/model"
)

// Loader 品种映射加载函数
type Loader func(ctx context.Context) ([]model.SymbolMark, error)

// Store 品种映射缓存（单次初始化屏障）
// 并发首次调用时只有一个 goroutine 执行加载，其余等待其结果。
// 加载失败不缓存，下次调用重试。
type Store struct {
	mu     sync.Mutex
	load   Loader
	loaded bool

	// marks 全部映射，保持上游顺序
	marks []model.SymbolMark
	// byExchange key: 交易所中文名称
	byExchange map[string][]model.SymbolMark
}

// New 创建品种映射缓存
func New(load Loader) *Store {
	return &Store{load: load}
}

// ensure 保证映射已加载
// 加载期间持有锁，使用当前调用者的 ctx；失败不缓存，等待者拿到锁后用自己的 ctx 重试
func (s *Store) ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}
	marks, err := s.load(ctx)
	if err != nil {
		return err
	}

	byExchange := make(map[string][]model.SymbolMark, 5)
	for _, m := range marks {
		byExchange[m.Exchange] = append(byExchange[m.Exchange], m)
	}
	s.marks = marks
	s.byExchange = byExchange
	s.loaded = true
	return nil
}

// All 返回全部品种映射
// 返回的切片是副本，调用方可自由修改
func (s *Store) All(ctx context.Context) ([]model.SymbolMark, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	return append([]model.SymbolMark(nil), s.marks...), nil
}

// ByExchange 返回某交易所（中文名称）的品种映射
func (s *Store) ByExchange(ctx context.Context, exchangeName string) ([]model.SymbolMark, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	return append([]model.SymbolMark(nil), s.byExchange[exchangeName]...), nil
}

// Lookup 按品种中文名查找节点
// 先精确匹配，再按包含关系匹配
func (s *Store) Lookup(ctx context.Context, name string) (model.SymbolMark, bool, error) {
	if err := s.ensure(ctx); err != nil {
		return model.SymbolMark{}, false, err
	}
	for _, m := range s.marks {
		if m.Symbol == name {
			return m, true, nil
		}
	}
	for _, m := range s.marks {
		if strings.Contains(m.Symbol, name) || strings.Contains(name, m.Symbol) {
			return m, true, nil
		}
	}
	return model.SymbolMark{}, false, nil
}

// Loaded 是否已完成加载
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}
