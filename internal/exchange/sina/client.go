// Package sina 新浪财经行情适配器
// 覆盖国内期货实时行情、K线、主力连续、持仓排名、合约详情、外盘期货与 A 股。
package sina

import (
	"context"

	"go.uber.org/zap"

	"market-data-gateway/internal/transport"
)

// 新浪接口使用的 Referer
const (
	RefererVIP     = "https://vip.stock.finance.sina.com.cn/"
	RefererFinance = "https://finance.sina.com.cn/"
)

// 封禁页面特征文本
var banMarkers = []string{"拒绝访问", "IP 存在异常访问"}

// Endpoints 新浪各接口地址
// 测试时可替换为本地服务地址
type Endpoints struct {
	// Realtime 实时行情 hq.sinajs.cn
	Realtime string
	// FuturesList 按节点获取合约列表
	FuturesList string
	// SymbolJS 品种映射脚本
	SymbolJS string
	// JSONP K线接口前缀 .../futures/api/jsonp.php
	JSONP string
	// HoldPos 持仓排名页面
	HoldPos string
	// QuotesPage 合约行情页面目录 .../futures/quotes
	QuotesPage string
	// StockKLine A 股日线
	StockKLine string
	// StockList A 股列表
	StockList string
}

// DefaultEndpoints 线上地址
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Realtime:    "https://hq.sinajs.cn",
		FuturesList: "https://vip.stock.finance.sina.com.cn/quotes_service/api/json_v2.php/Market_Center.getHQFuturesData",
		SymbolJS:    "https://vip.stock.finance.sina.com.cn/quotes_service/view/js/qihuohangqing.js",
		JSONP:       "https://stock2.finance.sina.com.cn/futures/api/jsonp.php",
		HoldPos:     "https://vip.stock.finance.sina.com.cn/q/view/vFutures_Positions_cjcc.php",
		QuotesPage:  "https://finance.sina.com.cn/futures/quotes",
		StockKLine:  "https://quotes.sina.cn/cn/api/jsonp_v2.php/=/CN_MarketDataService.getKLineData",
		StockList:   "http://vip.stock.finance.sina.com.cn/quotes_service/api/json_v2.php/Market_Center.getHQNodeData",
	}
}

// Client 新浪适配器
// 无状态，可被多个请求并发使用
type Client struct {
	http   *transport.Client
	ep     Endpoints
	logger *zap.Logger
}

// NewClient 创建新浪适配器
func NewClient(http *transport.Client, ep Endpoints, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, ep: ep, logger: logger.Named("sina")}
}

// get 发起 GET 请求
func (c *Client) get(ctx context.Context, source string, req *transport.Request) ([]byte, error) {
	req.Source = source
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
