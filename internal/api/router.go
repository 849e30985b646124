package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"market-data-gateway/internal/service"
)

// Options 路由配置
type Options struct {
	// APIKey 为空时关闭鉴权
	APIKey string
	// MetricsPath 指标路由，为空时不暴露指标
	MetricsPath string
}

// NewRouter 创建 gin 路由
func NewRouter(futures *service.Futures, stocks *service.Stocks, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")

	r := gin.New()
	r.Use(RequestID(), Recovery(logger), AccessLog(logger), Auth(opts.APIKey))

	if opts.MetricsPath != "" {
		r.GET(opts.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	h := &Handler{futures: futures, stocks: stocks, logger: logger}
	h.RegisterRoutes(r.Group("/api/v1"))

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "接口不存在")
	})
	return r
}

// RegisterRoutes 注册 /api/v1 下的全部路由
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/health", h.Health)

	stocks := g.Group("/stocks")
	{
		stocks.GET("", h.ListStocks)
		stocks.GET("/:symbol", h.StockQuote)
		stocks.GET("/:symbol/history", h.StockHistory)
	}

	f := g.Group("/futures")
	{
		f.GET("", h.ListMainFutures)
		f.GET("/exchanges", h.Exchanges)
		f.GET("/symbols", h.Symbols)
		f.GET("/symbols/:exchange", h.ExchangeSymbols)
		f.POST("/batch", h.BatchQuotes)

		f.GET("/fees", h.Fees)
		f.GET("/comm_info", h.CommInfo)
		f.GET("/rule", h.Rules)
		f.GET("/inventory99", h.Inventory99)
		f.GET("/inventory99/symbols", h.Products99)

		f.GET("/spot_price", h.SpotPrice)
		f.GET("/spot_price_previous", h.SpotPricePrevious)
		f.GET("/spot_price_daily", h.SpotPriceDaily)

		f.GET("/rank/sum", h.RankSum)
		f.GET("/rank/sum_daily", h.RankSumDaily)
		f.GET("/rank/:exchange", h.RankTable)
		f.GET("/warehouse/:exchange", h.Warehouse)

		f.GET("/main/display", h.DisplayMain)
		f.GET("/main/:exchange", h.MainContracts)
		f.GET("/main/:exchange/daily", h.MainDaily)
		f.GET("/hold_pos", h.HoldPosition)

		f.GET("/foreign/symbols", h.ForeignSymbols)
		f.POST("/foreign/realtime", h.ForeignQuotes)
		f.GET("/foreign/:symbol/history", h.ForeignHistory)
		f.GET("/foreign/:symbol/detail", h.ForeignDetail)

		f.GET("/realtime/:symbol", h.RealtimeByVariety)
		f.GET("/:symbol", h.Quote)
		f.GET("/:symbol/history", h.History)
		f.GET("/:symbol/minute", h.Minute)
		f.GET("/:symbol/detail", h.ContractDetail)
	}
}
