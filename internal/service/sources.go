// Package service 对外门面
// 组合品种映射缓存、各数据源适配器与汇总器，供 HTTP 处理器调用。
package service

import (
	"go.uber.org/zap"

	"market-data-gateway/internal/config"
	"market-data-gateway/internal/exchange/cffex"
	"market-data-gateway/internal/exchange/czce"
	"market-data-gateway/internal/exchange/dce"
	"market-data-gateway/internal/exchange/gfex"
	"market-data-gateway/internal/exchange/gtja"
	"market-data-gateway/internal/exchange/openctp"
	"market-data-gateway/internal/exchange/ppi"
	"market-data-gateway/internal/exchange/qh99"
	"market-data-gateway/internal/exchange/qihuo9"
	"market-data-gateway/internal/exchange/shfe"
	"market-data-gateway/internal/exchange/sina"
	"market-data-gateway/internal/transport"
)

// Sources 全部上游适配器
// 测试时可只填充被调用到的字段
type Sources struct {
	Sina    *sina.Client
	SHFE    *shfe.Client
	CFFEX   *cffex.Client
	CZCE    *czce.Client
	DCE     *dce.Client
	GFEX    *gfex.Client
	PPI     *ppi.Client
	Qihuo9  *qihuo9.Client
	OpenCTP *openctp.Client
	GTJA    *gtja.Client
	QH99    *qh99.Client
}

// NewSources 以线上地址创建全部适配器
// 参数 http: 共享的上游客户端
// 参数 up: 上游策略（郑商所切换日期、大商所参考合约、广期所兜底品种）
func NewSources(http *transport.Client, up config.UpstreamConfig, logger *zap.Logger) Sources {
	return Sources{
		Sina:    sina.NewClient(http, sina.DefaultEndpoints(), logger),
		SHFE:    shfe.NewClient(http, shfe.DefaultEndpoints(), logger),
		CFFEX:   cffex.NewClient(http, cffex.DefaultEndpoints(), logger),
		CZCE:    czce.NewClient(http, czce.DefaultEndpoints(), up.CZCEXLSXCutover, logger),
		DCE:     dce.NewClient(http, dce.DefaultEndpoints(), up.DCEReferenceContract, logger),
		GFEX:    gfex.NewClient(http, gfex.DefaultEndpoints(), up.GFEXFallbackVarieties, logger),
		PPI:     ppi.NewClient(http, ppi.DefaultEndpoints(), logger),
		Qihuo9:  qihuo9.NewClient(http, qihuo9.DefaultURL, logger),
		OpenCTP: openctp.NewClient(http, openctp.DefaultURL, logger),
		GTJA:    gtja.NewClient(http, gtja.DefaultURL, logger),
		QH99:    qh99.NewClient(http, qh99.DefaultURL, logger),
	}
}
