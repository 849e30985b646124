// Package aggregate 跨数据源的组合查询
// 持仓排名汇总、现货价格日线与主力合约发现。单个来源失败只记录日志，不影响整体结果。
package aggregate

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/util/timeutil"
	"market-data-gateway/internal/vocab"
)

// RankSource 单个交易所的持仓排名适配器
type RankSource interface {
	Rank(ctx context.Context, date string, vars []string) (model.RankTables, error)
}

// RankExchange 参与汇总的交易所
type RankExchange struct {
	// Code 交易所代码，用于日志
	Code string
	// Varieties 该交易所参与汇总的品种集合
	Varieties []string
	// Source 排名适配器
	Source RankSource
}

// RankExchanges 按固定顺序组装五家交易所
func RankExchanges(dce, shfe, czce, cffex, gfex RankSource) []RankExchange {
	return []RankExchange{
		{Code: "DCE", Varieties: vocab.DCEVarieties, Source: dce},
		{Code: "SHFE", Varieties: vocab.SHFEVarieties, Source: shfe},
		{Code: "CZCE", Varieties: vocab.CZCEVarieties, Source: czce},
		{Code: "CFFEX", Varieties: vocab.CFFEXVarieties, Source: cffex},
		{Code: "GFEX", Varieties: vocab.GFEXVarieties, Source: gfex},
	}
}

// varietySumSets 参与品种合计的交易所品种集合（郑商所与广期所不参与）
var varietySumSets = [][]string{vocab.SHFEVarieties, vocab.DCEVarieties, vocab.CFFEXVarieties}

// Ranker 持仓排名汇总器
type Ranker struct {
	exchanges []RankExchange
	logger    *zap.Logger
}

// NewRanker 创建持仓排名汇总器
func NewRanker(exchanges []RankExchange, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{exchanges: exchanges, logger: logger.Named("rank_sum")}
}

// Tables 并发拉取各交易所排名表并合并
// 每个交易所只请求其品种集合与 vars 的交集，交集为空则跳过
// 单个交易所失败记 Warn 后继续
func (r *Ranker) Tables(ctx context.Context, date string, vars []string) (model.RankTables, error) {
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}

	results := make([]model.RankTables, len(r.exchanges))
	var g errgroup.Group
	for i, ex := range r.exchanges {
		target := vocab.FilterVarieties(ex.Varieties, vars)
		if len(target) == 0 || ex.Source == nil {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			tables, err := ex.Source.Rank(ctx, date, target)
			if err != nil {
				r.logger.Warn("获取交易所排名失败",
					zap.String("exchange", ex.Code),
					zap.String("date", date),
					zap.String("kind", apperr.KindOf(err).String()),
					zap.Error(err))
				return nil
			}
			r.logger.Debug("交易所排名",
				zap.String("exchange", ex.Code),
				zap.Int("contracts", len(tables)),
				zap.Duration("elapsed", time.Since(start)))
			results[i] = tables
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamTimeout, err, "持仓排名汇总已取消")
	}

	all := make(model.RankTables)
	for _, tables := range results {
		for symbol, rows := range tables {
			all[symbol] = rows
		}
	}
	return all, nil
}

// Sum 计算某日持仓排名汇总
// 每个合约一行 topN 汇总，另为上期所、大商所、中金所品种追加品种合计行，整体按代码排序
func (r *Ranker) Sum(ctx context.Context, date string, vars []string) ([]model.RankSum, error) {
	tables, err := r.Tables(ctx, date, vars)
	if err != nil {
		return nil, err
	}
	return SumTables(tables, date), nil
}

// SumTables 由排名表计算汇总
func SumTables(tables model.RankTables, date string) []model.RankSum {
	out := make([]model.RankSum, 0, len(tables))
	byVariety := make(map[string]*model.RankSum)
	for symbol, rows := range tables {
		variety := vocab.ExtractVariety(symbol)
		s := model.SumRows(symbol, variety, date, rows)
		out = append(out, s)

		if !inVarietySumSets(variety) {
			continue
		}
		if v, ok := byVariety[variety]; ok {
			v.Add(s)
			continue
		}
		v := s
		v.Symbol = variety
		byVariety[variety] = &v
	}
	for _, v := range byVariety {
		out = append(out, *v)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func inVarietySumSets(variety string) bool {
	for _, set := range varietySumSets {
		if vocab.Contains(set, variety) {
			return true
		}
	}
	return false
}

// SumDaily 计算日期区间内每日的持仓排名汇总
// 逐日串行，单日失败记 Warn 后继续；非交易日通常没有数据
func (r *Ranker) SumDaily(ctx context.Context, start, end string, vars []string) ([]model.RankSum, error) {
	dates, err := dateRange(start, end)
	if err != nil {
		return nil, err
	}

	out := []model.RankSum{}
	for _, date := range dates {
		sums, err := r.Sum(ctx, date, vars)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			r.logger.Warn("获取持仓排名汇总失败", zap.String("date", date), zap.Error(err))
			continue
		}
		if len(sums) == 0 {
			r.logger.Info("无持仓排名数据，可能是非交易日", zap.String("date", date))
			continue
		}
		out = append(out, sums...)
	}
	return out, nil
}

// dateRange 区间参数非法时返回 BadInput
func dateRange(start, end string) ([]string, error) {
	dates, err := timeutil.DateRange(start, end)
	if err != nil {
		return nil, apperr.BadInput("%v", err)
	}
	return dates, nil
}
