package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"market-data-gateway/internal/aggregate"
	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/core/store"
	"market-data-gateway/internal/exchange/qihuo9"
	"market-data-gateway/internal/exchange/sina"
	"market-data-gateway/internal/util/timeutil"
	"market-data-gateway/internal/vocab"
)

// Futures 期货门面
// 持有唯一的品种映射缓存，可被多个请求并发使用
type Futures struct {
	src       Sources
	marks     *store.Store
	ranker    *aggregate.Ranker
	spot      *aggregate.Spot
	contracts *aggregate.Contracts
	logger    *zap.Logger
}

// NewFutures 创建期货门面
func NewFutures(src Sources, logger *zap.Logger) *Futures {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Futures{src: src, logger: logger.Named("futures")}
	if src.Sina != nil {
		f.marks = store.New(src.Sina.SymbolMarks)
		f.contracts = aggregate.NewContracts(src.Sina, f.marks, logger)
	}
	f.ranker = aggregate.NewRanker(aggregate.RankExchanges(
		rankSource(src.DCE, src.DCE != nil),
		rankSource(src.SHFE, src.SHFE != nil),
		rankSource(src.CZCE, src.CZCE != nil),
		rankSource(src.CFFEX, src.CFFEX != nil),
		rankSource(src.GFEX, src.GFEX != nil),
	), logger)
	if src.PPI != nil {
		f.spot = aggregate.NewSpot(src.PPI, logger)
	}
	return f
}

// rankSource 未配置的交易所返回 nil 接口，由汇总器跳过
func rankSource(s aggregate.RankSource, present bool) aggregate.RankSource {
	if !present {
		return nil
	}
	return s
}

// Quote 单个合约实时行情
func (f *Futures) Quote(ctx context.Context, symbol string) (model.FuturesQuote, error) {
	return f.src.Sina.Quote(ctx, symbol)
}

// Quotes 批量实时行情
func (f *Futures) Quotes(ctx context.Context, symbols []string) ([]model.FuturesQuote, error) {
	if len(symbols) == 0 {
		return nil, apperr.BadInput("合约列表不能为空")
	}
	return f.src.Sina.Quotes(ctx, symbols)
}

// RealtimeByVariety 品种下全部合约的实时行情
// 参数 name: 品种中文名，先精确匹配再按包含匹配
func (f *Futures) RealtimeByVariety(ctx context.Context, name string) ([]model.FuturesQuote, error) {
	m, ok, err := f.marks.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("未找到品种 %s 的映射，请使用 /futures/symbols 查看可用品种", name)
	}
	f.logger.Debug("品种节点", zap.String("name", name), zap.String("node", m.Mark))
	return f.src.Sina.ByNode(ctx, m.Mark, 0)
}

// ListMain 主力合约行情列表
func (f *Futures) ListMain(ctx context.Context, exchange string, limit int) ([]model.FuturesQuote, error) {
	return f.contracts.ListMain(ctx, exchange, limit)
}

// Exchanges 交易所名录
func (f *Futures) Exchanges() []vocab.Exchange {
	return vocab.Exchanges
}

// Symbols 全部品种映射
func (f *Futures) Symbols(ctx context.Context) ([]model.SymbolMark, error) {
	return f.marks.All(ctx)
}

// ExchangeSymbols 某交易所的品种映射
// 参数 exchange: 交易所代码，INE 归入上期所
func (f *Futures) ExchangeSymbols(ctx context.Context, exchange string) ([]model.SymbolMark, error) {
	name, ok := vocab.SinaExchangeName(exchange)
	if !ok {
		return nil, apperr.BadInput("未知交易所: %s", exchange)
	}
	return f.marks.ByExchange(ctx, name)
}

// History 日 K 线
func (f *Futures) History(ctx context.Context, symbol string, limit int) ([]model.FuturesBar, error) {
	return f.src.Sina.Daily(ctx, symbol, limit)
}

// Minute 分钟 K 线
func (f *Futures) Minute(ctx context.Context, symbol string, period int) ([]model.FuturesBar, error) {
	return f.src.Sina.Minute(ctx, symbol, period)
}

// ContractDetail 合约详情
func (f *Futures) ContractDetail(ctx context.Context, symbol string) (model.ContractDetail, error) {
	return f.src.Sina.ContractDetail(ctx, symbol)
}

// MainContracts 交易所各品种主力合约代码
func (f *Futures) MainContracts(ctx context.Context, exchange string) ([]string, error) {
	return f.contracts.Main(ctx, exchange)
}

// DisplayMain 各交易所主力连续合约
func (f *Futures) DisplayMain(ctx context.Context) ([]model.MainContract, error) {
	return f.contracts.Display(ctx)
}

// MainDaily 主力连续日线
// 参数 start/end: YYYYMMDD，可为空
func (f *Futures) MainDaily(ctx context.Context, symbol, start, end string) ([]model.MainDailyBar, error) {
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if err := timeutil.CheckDate(d); err != nil {
			return nil, err
		}
	}
	if start != "" && end != "" && start > end {
		return nil, apperr.BadInput("开始日期不能大于结束日期")
	}
	return f.src.Sina.MainDaily(ctx, strings.ToUpper(symbol), start, end)
}

// HoldPosition 新浪会员持仓排名
// 参数 posType: 成交量/多单持仓/空单持仓（或 volume/long/short）
func (f *Futures) HoldPosition(ctx context.Context, posType, contract, date string) ([]model.HoldPosition, error) {
	typ, ok := model.ParseHoldPosType(posType)
	if !ok {
		return nil, apperr.BadInput("无效的持仓类型: %s，支持 成交量/多单持仓/空单持仓", posType)
	}
	if contract == "" {
		return nil, apperr.BadInput("缺少参数 contract")
	}
	return f.src.Sina.HoldPosition(ctx, typ, contract, date)
}

// ForeignSymbols 外盘品种名录
func (f *Futures) ForeignSymbols() []model.ForeignSymbol {
	return sina.ForeignSymbols
}

// ForeignQuotes 外盘实时行情
func (f *Futures) ForeignQuotes(ctx context.Context, codes []string) ([]model.FuturesQuote, error) {
	if len(codes) == 0 {
		return nil, apperr.BadInput("外盘代码列表不能为空")
	}
	return f.src.Sina.ForeignQuotes(ctx, codes)
}

// ForeignHistory 外盘日线
func (f *Futures) ForeignHistory(ctx context.Context, code string) ([]model.ForeignBar, error) {
	return f.src.Sina.ForeignHistory(ctx, code)
}

// ForeignDetail 外盘合约详情
func (f *Futures) ForeignDetail(ctx context.Context, code string) (model.ForeignDetail, error) {
	return f.src.Sina.ForeignDetail(ctx, code)
}

// Fees OpenCTP 手续费与保证金
func (f *Futures) Fees(ctx context.Context) ([]model.FeeInfo, error) {
	return f.src.OpenCTP.FeesInfo(ctx)
}

// CommInfo 九期网手续费
// 参数 exchange: 交易所中文全称，空表示全部
func (f *Futures) CommInfo(ctx context.Context, exchange string) ([]model.CommInfo, error) {
	if exchange == "" {
		exchange = qihuo9.AllExchanges
	}
	return f.src.Qihuo9.CommInfo(ctx, exchange)
}

// Rules 国泰君安交易规则
func (f *Futures) Rules(ctx context.Context, date string) ([]model.Rule, error) {
	return f.src.GTJA.Rules(ctx, date)
}

// Products99 99期货网品种列表
func (f *Futures) Products99(ctx context.Context) ([]model.Product99, error) {
	return f.src.QH99.Products(ctx)
}

// Inventory99 99期货网库存走势
func (f *Futures) Inventory99(ctx context.Context, symbol string) ([]model.Inventory99, error) {
	if symbol == "" {
		return nil, apperr.BadInput("缺少参数 symbol")
	}
	return f.src.QH99.Inventory(ctx, symbol)
}

// SpotPrice 生意社现货价格与基差
func (f *Futures) SpotPrice(ctx context.Context, date string, symbols []string) ([]model.SpotPrice, error) {
	return f.src.PPI.SpotPrice(ctx, date, symbols)
}

// SpotPricePrevious 生意社现货与主力基差（含 180 日统计）
func (f *Futures) SpotPricePrevious(ctx context.Context, date string) ([]model.SpotPricePrevious, error) {
	return f.src.PPI.SpotPricePrevious(ctx, date)
}

// SpotPriceDaily 区间内逐日现货价格
func (f *Futures) SpotPriceDaily(ctx context.Context, start, end string, symbols []string) ([]model.SpotPrice, error) {
	return f.spot.Daily(ctx, start, end, symbols)
}

// RankTable 单个交易所的会员持仓排名
// 参数 exchange: shfe/cffex/dce/czce/gfex
func (f *Futures) RankTable(ctx context.Context, exchange, date string, vars []string) ([]model.RankTable, error) {
	var src aggregate.RankSource
	switch strings.ToLower(exchange) {
	case "shfe":
		src = rankSource(f.src.SHFE, f.src.SHFE != nil)
	case "cffex":
		src = rankSource(f.src.CFFEX, f.src.CFFEX != nil)
	case "dce":
		src = rankSource(f.src.DCE, f.src.DCE != nil)
	case "czce":
		src = rankSource(f.src.CZCE, f.src.CZCE != nil)
	case "gfex":
		src = rankSource(f.src.GFEX, f.src.GFEX != nil)
	default:
		return nil, apperr.BadInput("未知交易所: %s", exchange)
	}
	if src == nil {
		return nil, apperr.Internal(nil, "%s 持仓排名数据源未配置", strings.ToUpper(exchange))
	}
	tables, err := src.Rank(ctx, date, vars)
	if err != nil {
		return nil, err
	}
	return tables.Sorted(), nil
}

// RankSum 某日持仓排名汇总
func (f *Futures) RankSum(ctx context.Context, date string, vars []string) ([]model.RankSum, error) {
	return f.ranker.Sum(ctx, date, vars)
}

// RankSumDaily 区间内逐日持仓排名汇总
func (f *Futures) RankSumDaily(ctx context.Context, start, end string, vars []string) ([]model.RankSum, error) {
	return f.ranker.SumDaily(ctx, start, end, vars)
}

// WarehouseCZCE 郑商所仓单日报
func (f *Futures) WarehouseCZCE(ctx context.Context, date string) ([]model.CZCEReceipts, error) {
	return f.src.CZCE.Warehouse(ctx, date)
}

// WarehouseDCE 大商所仓单日报
func (f *Futures) WarehouseDCE(ctx context.Context, date string) ([]model.DCEReceipt, error) {
	return f.src.DCE.Warehouse(ctx, date)
}

// WarehouseSHFE 上期所仓单日报
func (f *Futures) WarehouseSHFE(ctx context.Context, date string) ([]model.SHFEReceipts, error) {
	return f.src.SHFE.Warehouse(ctx, date)
}

// WarehouseGFEX 广期所仓单日报
func (f *Futures) WarehouseGFEX(ctx context.Context, date string) ([]model.GFEXReceipts, error) {
	return f.src.GFEX.Warehouse(ctx, date)
}
