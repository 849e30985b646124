package aggregate

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/exchange/sina"
	"market-data-gateway/internal/vocab"
)

// mainScanLimit 主力合约发现时每个品种节点取前几个合约（按持仓量降序）
const mainScanLimit = 5

// nodeScanConcurrency 同一主机上的节点扫描并发
const nodeScanConcurrency = 3

// NodeLister 按新浪品种节点列出合约
type NodeLister interface {
	ByNode(ctx context.Context, node string, limit int) ([]model.FuturesQuote, error)
}

// MarkSource 品种映射
type MarkSource interface {
	ByExchange(ctx context.Context, exchangeName string) ([]model.SymbolMark, error)
}

// Contracts 主力合约发现
type Contracts struct {
	nodes  NodeLister
	marks  MarkSource
	logger *zap.Logger
}

// NewContracts 创建主力合约发现器
func NewContracts(nodes NodeLister, marks MarkSource, logger *zap.Logger) *Contracts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Contracts{nodes: nodes, marks: marks, logger: logger.Named("main_contracts")}
}

// exchangeMarks 交易所代码到品种映射
func (c *Contracts) exchangeMarks(ctx context.Context, exchange string) ([]model.SymbolMark, error) {
	name, ok := vocab.SinaExchangeName(exchange)
	if !ok {
		return nil, apperr.BadInput("未知交易所: %s", exchange)
	}
	return c.marks.ByExchange(ctx, name)
}

// scan 对每个品种节点执行 pick，保持映射顺序
// 单个节点失败记 Warn 后跳过
func (c *Contracts) scan(ctx context.Context, marks []model.SymbolMark, limit int, pick func([]model.FuturesQuote) []model.FuturesQuote) [][]model.FuturesQuote {
	results := make([][]model.FuturesQuote, len(marks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nodeScanConcurrency)
	for i, m := range marks {
		g.Go(func() error {
			quotes, err := c.nodes.ByNode(gctx, m.Mark, limit)
			if err != nil {
				c.logger.Warn("获取品种合约失败", zap.String("symbol", m.Symbol), zap.String("node", m.Mark), zap.Error(err))
				return nil
			}
			results[i] = pick(quotes)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Main 列出交易所各品种的主力合约代码
// 每个品种节点取持仓量前五的合约，选持仓量最大者
func (c *Contracts) Main(ctx context.Context, exchange string) ([]string, error) {
	marks, err := c.exchangeMarks(ctx, exchange)
	if err != nil {
		return nil, err
	}
	results := c.scan(ctx, marks, mainScanLimit, func(quotes []model.FuturesQuote) []model.FuturesQuote {
		if q, ok := sina.MainOf(quotes); ok {
			return []model.FuturesQuote{q}
		}
		return nil
	})
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamTimeout, err, "主力合约查询已取消")
	}

	out := []string{}
	for _, r := range results {
		for _, q := range r {
			out = append(out, q.Symbol)
		}
	}
	return out, nil
}

// ListMain 主力合约行情列表
// 指定交易所时取前 5 个品种各 1 个合约；未指定时取上期所、大商所、郑商所、中金所各前 2 个品种
// 结果按持仓量降序，截断到 limit（<=0 时为 20）
func (c *Contracts) ListMain(ctx context.Context, exchange string, limit int) ([]model.FuturesQuote, error) {
	if limit <= 0 {
		limit = 20
	}

	var marks []model.SymbolMark
	if exchange != "" {
		all, err := c.exchangeMarks(ctx, exchange)
		if err != nil {
			return nil, err
		}
		marks = head(all, 5)
	} else {
		for _, code := range []string{"SHFE", "DCE", "CZCE", "CFFEX"} {
			all, err := c.exchangeMarks(ctx, code)
			if err != nil {
				c.logger.Warn("获取交易所品种失败", zap.String("exchange", code), zap.Error(err))
				continue
			}
			marks = append(marks, head(all, 2)...)
		}
	}

	results := c.scan(ctx, marks, 1, func(quotes []model.FuturesQuote) []model.FuturesQuote { return quotes })
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamTimeout, err, "主力合约查询已取消")
	}

	out := []model.FuturesQuote{}
	for _, r := range results {
		out = append(out, r...)
	}
	sina.SortByOpenInterest(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Display 各交易所的主力连续合约
// 按 dce、czce、shfe、cffex、gfex 顺序扫描，每个品种取第一个名称含"连续"且代码以 0 结尾的合约
func (c *Contracts) Display(ctx context.Context) ([]model.MainContract, error) {
	out := []model.MainContract{}
	for _, code := range []string{"dce", "czce", "shfe", "cffex", "gfex"} {
		marks, err := c.exchangeMarks(ctx, code)
		if err != nil {
			c.logger.Warn("获取主力连续合约失败", zap.String("exchange", code), zap.Error(err))
			continue
		}
		results := c.scan(ctx, marks, 0, func(quotes []model.FuturesQuote) []model.FuturesQuote { return quotes })
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(apperr.KindUpstreamTimeout, err, "主力连续合约查询已取消")
		}
		for _, quotes := range results {
			mc, ok := sina.PickContinuous(quotes)
			if !ok {
				continue
			}
			mc.Exchange = strings.ToUpper(code)
			out = append(out, mc)
		}
	}
	return out, nil
}

func head(marks []model.SymbolMark, n int) []model.SymbolMark {
	if len(marks) > n {
		return marks[:n]
	}
	return marks
}
