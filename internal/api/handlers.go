package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/service"
	"market-data-gateway/internal/vocab"
)

// HealthMessage 健康检查返回的数据
const HealthMessage = "服务运行正常"

// Handler 路由处理器
type Handler struct {
	futures *service.Futures
	stocks  *service.Stocks
	logger  *zap.Logger
}

// intQuery 读取整数查询参数，缺省时返回 def
func intQuery(c *gin.Context, name string, def int) (int, error) {
	s := c.Query(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, apperr.BadInput("参数 %s 必须是非负整数: %q", name, s)
	}
	return v, nil
}

// requiredQuery 读取必填查询参数
func requiredQuery(c *gin.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return "", apperr.BadInput("缺少参数 %s", name)
	}
	return v, nil
}

// bindList 读取 JSON 字符串数组请求体
func bindList(c *gin.Context) ([]string, error) {
	var list []string
	if err := c.ShouldBindJSON(&list); err != nil {
		return nil, apperr.BadInput("请求体必须是字符串数组: %v", err)
	}
	out := list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, apperr.BadInput("请求列表不能为空")
	}
	return out, nil
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	ok(c, HealthMessage)
}

// ListStocks A 股列表
func (h *Handler) ListStocks(c *gin.Context) {
	limit, err := intQuery(c, "limit", 20)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.stocks.List(c.Request.Context(), limit)
	respond(c, h.logger, data, err)
}

// StockQuote A 股实时行情
func (h *Handler) StockQuote(c *gin.Context) {
	data, err := h.stocks.Quote(c.Request.Context(), c.Param("symbol"))
	respond(c, h.logger, data, err)
}

// StockHistory A 股日线
func (h *Handler) StockHistory(c *gin.Context) {
	limit, err := intQuery(c, "limit", 30)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.stocks.History(c.Request.Context(), c.Param("symbol"), limit)
	respond(c, h.logger, data, err)
}

// ListMainFutures 主力合约行情列表
func (h *Handler) ListMainFutures(c *gin.Context) {
	limit, err := intQuery(c, "limit", 20)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.ListMain(c.Request.Context(), c.Query("exchange"), limit)
	respond(c, h.logger, data, err)
}

// Exchanges 交易所名录
func (h *Handler) Exchanges(c *gin.Context) {
	ok(c, h.futures.Exchanges())
}

// Symbols 全部品种映射
func (h *Handler) Symbols(c *gin.Context) {
	data, err := h.futures.Symbols(c.Request.Context())
	respond(c, h.logger, data, err)
}

// ExchangeSymbols 某交易所的品种映射
func (h *Handler) ExchangeSymbols(c *gin.Context) {
	data, err := h.futures.ExchangeSymbols(c.Request.Context(), c.Param("exchange"))
	respond(c, h.logger, data, err)
}

// BatchQuotes 批量实时行情
func (h *Handler) BatchQuotes(c *gin.Context) {
	symbols, err := bindList(c)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.Quotes(c.Request.Context(), symbols)
	respond(c, h.logger, data, err)
}

// Fees OpenCTP 手续费
func (h *Handler) Fees(c *gin.Context) {
	data, err := h.futures.Fees(c.Request.Context())
	respond(c, h.logger, data, err)
}

// CommInfo 九期网手续费
func (h *Handler) CommInfo(c *gin.Context) {
	data, err := h.futures.CommInfo(c.Request.Context(), c.Query("exchange"))
	respond(c, h.logger, data, err)
}

// Rules 交易规则，date 缺省为今天
func (h *Handler) Rules(c *gin.Context) {
	data, err := h.futures.Rules(c.Request.Context(), c.Query("date"))
	respond(c, h.logger, data, err)
}

// Inventory99 99期货网库存
func (h *Handler) Inventory99(c *gin.Context) {
	data, err := h.futures.Inventory99(c.Request.Context(), strings.TrimSpace(c.Query("symbol")))
	respond(c, h.logger, data, err)
}

// Products99 99期货网品种列表
func (h *Handler) Products99(c *gin.Context) {
	data, err := h.futures.Products99(c.Request.Context())
	respond(c, h.logger, data, err)
}

// SpotPrice 现货价格与基差
func (h *Handler) SpotPrice(c *gin.Context) {
	date, err := requiredQuery(c, "date")
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.SpotPrice(c.Request.Context(), date, vocab.SplitList(c.Query("symbols")))
	respond(c, h.logger, data, err)
}

// SpotPricePrevious 现货与主力基差
func (h *Handler) SpotPricePrevious(c *gin.Context) {
	date, err := requiredQuery(c, "date")
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.SpotPricePrevious(c.Request.Context(), date)
	respond(c, h.logger, data, err)
}

// dateRangeQuery 读取必填的 start_date 与 end_date
func dateRangeQuery(c *gin.Context) (string, string, error) {
	start, err := requiredQuery(c, "start_date")
	if err != nil {
		return "", "", err
	}
	end, err := requiredQuery(c, "end_date")
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

// SpotPriceDaily 现货价格日线
func (h *Handler) SpotPriceDaily(c *gin.Context) {
	start, end, err := dateRangeQuery(c)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.SpotPriceDaily(c.Request.Context(), start, end, vocab.SplitList(c.Query("symbols")))
	respond(c, h.logger, data, err)
}

// RankTable 单个交易所的会员持仓排名
func (h *Handler) RankTable(c *gin.Context) {
	date, err := requiredQuery(c, "date")
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.RankTable(c.Request.Context(), c.Param("exchange"), date, vocab.SplitList(c.Query("vars")))
	respond(c, h.logger, data, err)
}

// RankSum 持仓排名汇总
func (h *Handler) RankSum(c *gin.Context) {
	date, err := requiredQuery(c, "date")
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.RankSum(c.Request.Context(), date, vocab.SplitList(c.Query("vars")))
	respond(c, h.logger, data, err)
}

// RankSumDaily 区间持仓排名汇总
func (h *Handler) RankSumDaily(c *gin.Context) {
	start, end, err := dateRangeQuery(c)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.RankSumDaily(c.Request.Context(), start, end, vocab.SplitList(c.Query("vars")))
	respond(c, h.logger, data, err)
}

// Warehouse 仓单日报
func (h *Handler) Warehouse(c *gin.Context) {
	date, err := requiredQuery(c, "date")
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	ctx := c.Request.Context()
	switch strings.ToLower(c.Param("exchange")) {
	case "czce":
		data, err := h.futures.WarehouseCZCE(ctx, date)
		respond(c, h.logger, data, err)
	case "dce":
		data, err := h.futures.WarehouseDCE(ctx, date)
		respond(c, h.logger, data, err)
	case "shfe":
		data, err := h.futures.WarehouseSHFE(ctx, date)
		respond(c, h.logger, data, err)
	case "gfex":
		data, err := h.futures.WarehouseGFEX(ctx, date)
		respond(c, h.logger, data, err)
	default:
		failErr(c, h.logger, apperr.BadInput("不支持的交易所: %s，支持 czce/dce/shfe/gfex", c.Param("exchange")))
	}
}

// DisplayMain 主力连续合约列表
func (h *Handler) DisplayMain(c *gin.Context) {
	data, err := h.futures.DisplayMain(c.Request.Context())
	respond(c, h.logger, data, err)
}

// MainContracts 交易所主力合约
func (h *Handler) MainContracts(c *gin.Context) {
	data, err := h.futures.MainContracts(c.Request.Context(), c.Param("exchange"))
	respond(c, h.logger, data, err)
}

// MainDaily 主力连续日线，路径参数为连续合约代码（如 V0）
func (h *Handler) MainDaily(c *gin.Context) {
	data, err := h.futures.MainDaily(c.Request.Context(), c.Param("exchange"), c.Query("start_date"), c.Query("end_date"))
	respond(c, h.logger, data, err)
}

// HoldPosition 新浪会员持仓排名
func (h *Handler) HoldPosition(c *gin.Context) {
	date, err := requiredQuery(c, "date")
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.HoldPosition(c.Request.Context(), c.Query("pos_type"), strings.TrimSpace(c.Query("contract")), date)
	respond(c, h.logger, data, err)
}

// ForeignSymbols 外盘品种名录
func (h *Handler) ForeignSymbols(c *gin.Context) {
	ok(c, h.futures.ForeignSymbols())
}

// ForeignQuotes 外盘实时行情
func (h *Handler) ForeignQuotes(c *gin.Context) {
	codes, err := bindList(c)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.ForeignQuotes(c.Request.Context(), codes)
	respond(c, h.logger, data, err)
}

// ForeignHistory 外盘日线
func (h *Handler) ForeignHistory(c *gin.Context) {
	data, err := h.futures.ForeignHistory(c.Request.Context(), c.Param("symbol"))
	respond(c, h.logger, data, err)
}

// ForeignDetail 外盘合约详情
func (h *Handler) ForeignDetail(c *gin.Context) {
	data, err := h.futures.ForeignDetail(c.Request.Context(), c.Param("symbol"))
	respond(c, h.logger, data, err)
}

// RealtimeByVariety 品种全部合约行情
func (h *Handler) RealtimeByVariety(c *gin.Context) {
	data, err := h.futures.RealtimeByVariety(c.Request.Context(), c.Param("symbol"))
	respond(c, h.logger, data, err)
}

// Quote 单个合约实时行情
func (h *Handler) Quote(c *gin.Context) {
	data, err := h.futures.Quote(c.Request.Context(), c.Param("symbol"))
	respond(c, h.logger, data, err)
}

// History 日 K 线
func (h *Handler) History(c *gin.Context) {
	limit, err := intQuery(c, "limit", 30)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.History(c.Request.Context(), c.Param("symbol"), limit)
	respond(c, h.logger, data, err)
}

// Minute 分钟 K 线
func (h *Handler) Minute(c *gin.Context) {
	period, err := intQuery(c, "period", 5)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	data, err := h.futures.Minute(c.Request.Context(), c.Param("symbol"), period)
	respond(c, h.logger, data, err)
}

// ContractDetail 合约详情
func (h *Handler) ContractDetail(c *gin.Context) {
	data, err := h.futures.ContractDetail(c.Request.Context(), c.Param("symbol"))
	respond(c, h.logger, data, err)
}
