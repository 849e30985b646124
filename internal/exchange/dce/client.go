// Package dce 大连商品交易所适配器
// 持仓排名优先走批量下载 ZIP，被拒绝或为空时退回逐合约抓取 HTML 的慢路径。
// 大商所接口依赖页面下发的 Cookie，每次调用都使用独立会话并先访问页面。
package dce

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/timeutil"
	"market-data-gateway/internal/vocab"
)

const origin = "http://www.dce.com.cn"

// Endpoints 大商所接口地址
type Endpoints struct {
	// RankPage 持仓排名页面，用于获取 Cookie 和作为 Referer
	RankPage string
	// BatchDownload 持仓排名批量下载（ZIP）
	BatchDownload string
	// QuotesHTML 持仓排名 HTML 查询（慢路径）
	QuotesHTML string
	// WarehousePage 仓单日报页面
	WarehousePage string
	// Warehouse 仓单日报 JSON
	Warehouse string
}

// DefaultEndpoints 线上地址
func DefaultEndpoints() Endpoints {
	return Endpoints{
		RankPage:      origin + "/dalianshangpin/xqsj/tjsj26/rtj/rcjccpm/index.html",
		BatchDownload: origin + "/dcereport/publicweb/dailystat/memberDealPosi/batchDownload",
		QuotesHTML:    origin + "/publicweb/quotesdata/memberDealPosiQuotes.html",
		WarehousePage: origin + "/dalianshangpin/xqsj/tjsj26/rtj/cdrb/index.html",
		Warehouse:     origin + "/dcereport/publicweb/dailystat/wbillWeeklyQuotes",
	}
}

// Client 大商所适配器
type Client struct {
	http *transport.Client
	ep   Endpoints
	// refContract 批量下载接口要求携带的任一有效合约
	refContract string
	logger      *zap.Logger
}

// NewClient 创建大商所适配器
// 参数 refContract: 批量下载使用的参考合约，如 "a2601"
func NewClient(http *transport.Client, ep Endpoints, refContract string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, ep: ep, refContract: strings.ToLower(refContract), logger: logger.Named("dce")}
}

// session 创建带 Cookie 的会话并访问页面
// 页面访问失败不影响后续请求，由后续请求给出真实错误
func (c *Client) session(ctx context.Context, page string) *transport.Client {
	s := c.http.WithCookieJar()
	if _, err := s.Get(ctx, "dce_page", page, ""); err != nil {
		c.logger.Debug("访问大商所页面失败", zap.String("page", page), zap.Error(err))
	}
	return s
}

func originHeader() http.Header {
	return http.Header{"Origin": []string{origin}}
}

// Rank 获取会员持仓排名
// 批量下载被拒绝或没有数据时退回 HTML 慢路径；两者都失败且批量下载被拒绝时返回封禁错误
// 参数 vars: 品种过滤，为空表示全部
func (c *Client) Rank(ctx context.Context, date string, vars []string) (model.RankTables, error) {
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}
	s := c.session(ctx, c.ep.RankPage)

	tables, err := c.batchRank(ctx, s, date, vars)
	if err == nil && len(tables) > 0 {
		return tables, nil
	}
	if err != nil && !apperr.Is(err, apperr.KindUpstreamBlocked) && !apperr.Is(err, apperr.KindParse) {
		return nil, apperr.AsNotFound(err, "大商所 %s 无数据，可能是非交易日", date)
	}
	c.logger.Info("大商所批量下载不可用，使用逐合约查询", zap.String("date", date), zap.Error(err))

	slow, slowErr := c.htmlRank(ctx, s, date, vars)
	if slowErr != nil {
		if apperr.Is(err, apperr.KindUpstreamBlocked) {
			return nil, err
		}
		return nil, slowErr
	}
	return slow, nil
}

// batchRank 批量下载 ZIP 并解析
func (c *Client) batchRank(ctx context.Context, s *transport.Client, date string, vars []string) (model.RankTables, error) {
	resp, err := s.Do(ctx, &transport.Request{
		Source:  "dce_rank",
		Method:  http.MethodPost,
		URL:     c.ep.BatchDownload,
		Referer: c.ep.RankPage,
		Header:  originHeader(),
		JSON: map[string]string{
			"tradeDate":  date,
			"varietyId":  strings.ToLower(vocab.ExtractLetters(c.refContract)),
			"contractId": c.refContract,
			"tradeType":  "1",
			"lang":       "zh",
		},
	})
	if err != nil {
		return nil, err
	}
	return ParseBatchZip(resp.Body, date, vars, c.logger)
}

// quotesForm 慢路径表单，month 为 0 起始的月份
func quotesForm(date, variety, contract string) url.Values {
	month, _ := strconv.Atoi(date[4:6])
	return url.Values{
		"memberDealPosiQuotes.variety":    {variety},
		"memberDealPosiQuotes.trade_type": {"0"},
		"year":                            {date[:4]},
		"month":                           {strconv.Itoa(month - 1)},
		"day":                             {date[6:8]},
		"contract.contract_id":            {contract},
		"contract.variety_id":             {variety},
		"contract":                        {""},
	}
}

func (c *Client) postQuotes(ctx context.Context, s *transport.Client, form url.Values) ([]byte, error) {
	resp, err := s.Do(ctx, &transport.Request{
		Source:  "dce_rank_html",
		Method:  http.MethodPost,
		URL:     c.ep.QuotesHTML,
		Referer: c.ep.QuotesHTML,
		Header:  originHeader(),
		Form:    form,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// htmlRank 逐品种、逐合约查询 HTML 表格
// 单个品种或合约失败记录日志后跳过
func (c *Client) htmlRank(ctx context.Context, s *transport.Client, date string, vars []string) (model.RankTables, error) {
	page, err := c.postQuotes(ctx, s, quotesForm(date, "c", "all"))
	if err != nil {
		return nil, err
	}
	varieties, err := ParseVarietyList(page)
	if err != nil {
		return nil, err
	}
	if len(varieties) == 0 {
		return nil, apperr.NotFound("大商所 %s 未找到品种列表，可能是非交易日", date)
	}

	tables := make(model.RankTables)
	for _, v := range varieties {
		if len(vars) > 0 && !vocab.Contains(vars, v) {
			continue
		}
		page, err := c.postQuotes(ctx, s, quotesForm(date, v, "all"))
		if err != nil {
			if apperr.Is(err, apperr.KindUpstreamBlocked) {
				return nil, err
			}
			c.logger.Warn("获取大商所合约列表失败", zap.String("variety", v), zap.Error(err))
			continue
		}
		contracts, err := ParseContractList(page, v)
		if err != nil {
			c.logger.Warn("解析大商所合约列表失败", zap.String("variety", v), zap.Error(err))
			continue
		}
		for _, contract := range contracts {
			page, err := c.postQuotes(ctx, s, quotesForm(date, v, contract))
			if err != nil {
				if apperr.Is(err, apperr.KindUpstreamBlocked) {
					return nil, err
				}
				c.logger.Warn("获取大商所合约排名失败", zap.String("contract", contract), zap.Error(err))
				continue
			}
			rows, err := ParseRankHTML(page, contract, v)
			if err != nil {
				c.logger.Warn("解析大商所合约排名失败", zap.String("contract", contract), zap.Error(err))
				continue
			}
			if len(rows) > 0 {
				tables[strings.ToUpper(contract)] = rows
			}
		}
	}
	return tables, nil
}

// Warehouse 获取仓单日报
func (c *Client) Warehouse(ctx context.Context, date string) ([]model.DCEReceipt, error) {
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}
	s := c.session(ctx, c.ep.WarehousePage)
	resp, err := s.Do(ctx, &transport.Request{
		Source:  "dce_warehouse",
		Method:  http.MethodPost,
		URL:     c.ep.Warehouse,
		Referer: c.ep.WarehousePage,
		Header:  originHeader(),
		JSON:    map[string]string{"tradeDate": date, "varietyId": "all"},
	})
	if err != nil {
		return nil, apperr.AsNotFound(err, "大商所 %s 仓单日报无数据，可能是非交易日", date)
	}
	return ParseWarehouse(resp.Body)
}
